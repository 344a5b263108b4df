package mavbridge

import (
	"errors"
	"testing"
	"time"
)

func TestNewCallbackSink(t *testing.T) {
	var gotTopic string
	var gotPayload []byte
	sink := NewCallbackSink("cb", func(topic string, payload []byte) error {
		gotTopic = topic
		gotPayload = payload
		return nil
	})

	if !sink.IsConnected() {
		t.Fatalf("callback sink must always report connected")
	}
	if err := sink.Publish("drone/telemetry", []byte(`{"seq":1}`), QoSAtLeastOnce); err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if gotTopic != "drone/telemetry" {
		t.Fatalf("unexpected topic %q", gotTopic)
	}
	if string(gotPayload) != `{"seq":1}` {
		t.Fatalf("unexpected payload %s", gotPayload)
	}
}

func TestNewCallbackSinkNilHandler(t *testing.T) {
	sink := NewCallbackSink("", nil)
	if err := sink.Publish("t", nil, QoSAtMostOnce); err == nil {
		t.Fatalf("expected error when callback is nil")
	}
}

func TestNewChannelSink(t *testing.T) {
	sink, ch, closeFn := NewChannelSink("chan", 1)
	defer closeFn()

	errCh := make(chan error, 1)
	go func() {
		errCh <- sink.Publish("drone/telemetry", []byte("payload"), QoSAtLeastOnce)
	}()

	var msg Message
	select {
	case msg = <-ch:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for channel message")
	}

	if err := <-errCh; err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if msg.Topic != "drone/telemetry" || string(msg.Payload) != "payload" || msg.QoS != QoSAtLeastOnce {
		t.Fatalf("unexpected message: %+v", msg)
	}

	closeFn()
	if err := sink.Publish("t", nil, QoSAtMostOnce); !errors.Is(err, ErrChannelSinkClosed) {
		t.Fatalf("expected ErrChannelSinkClosed, got %v", err)
	}
	if sink.IsConnected() {
		t.Fatalf("closed channel sink must report disconnected")
	}
}
