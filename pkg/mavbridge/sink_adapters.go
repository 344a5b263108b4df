package mavbridge

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrChannelSinkClosed is returned when a channel sink is published to after
// being closed.
var ErrChannelSinkClosed = errors.New("mavbridge: channel sink closed")

// PublishFunc is invoked with each serialized record handed to a callback
// sink.
type PublishFunc func(topic string, payload []byte) error

// Message is one published record as seen by a channel sink.
type Message struct {
	Topic   string
	Payload []byte
	QoS     byte
}

// NewCallbackSink adapts a PublishFunc into a full MessageSink implementation
// so callers can plug arbitrary functions without defining structs.
func NewCallbackSink(name string, fn PublishFunc) Sink {
	if name == "" {
		name = "callback"
	}
	return &callbackSink{name: name, fn: fn}
}

// NewChannelSink exposes published messages via a channel; it returns the
// sink, the read-only channel, and a close function that the caller should
// invoke during shutdown.
func NewChannelSink(name string, buffer int) (Sink, <-chan Message, func()) {
	if name == "" {
		name = "channel"
	}
	if buffer < 0 {
		buffer = 0
	}
	ch := make(chan Message, buffer)
	s := &channelSink{
		name:   name,
		ch:     ch,
		closed: make(chan struct{}),
	}
	return s, ch, func() { s.close() }
}

type callbackSink struct {
	name string
	fn   PublishFunc
}

func (s *callbackSink) IsConnected() bool { return true }

func (s *callbackSink) AwaitConnection(time.Duration) bool { return true }

func (s *callbackSink) Publish(topic string, payload []byte, qos byte) error {
	if s.fn == nil {
		return fmt.Errorf("callback sink %q: nil handler", s.name)
	}
	return s.fn(topic, payload)
}

func (s *callbackSink) Disconnect() {}

type channelSink struct {
	name   string
	ch     chan Message
	closed chan struct{}
	once   sync.Once
}

func (s *channelSink) IsConnected() bool {
	select {
	case <-s.closed:
		return false
	default:
		return true
	}
}

func (s *channelSink) AwaitConnection(time.Duration) bool { return s.IsConnected() }

func (s *channelSink) Publish(topic string, payload []byte, qos byte) error {
	select {
	case <-s.closed:
		return ErrChannelSinkClosed
	default:
	}

	msg := Message{Topic: topic, Payload: payload, QoS: qos}

	select {
	case <-s.closed:
		return ErrChannelSinkClosed
	case s.ch <- msg:
		return nil
	}
}

func (s *channelSink) Disconnect() { s.close() }

func (s *channelSink) close() {
	s.once.Do(func() {
		close(s.closed)
		close(s.ch)
	})
}
