package ports

import "time"

// Delivery hints passed to MessageSink.Publish.
const (
	QoSAtMostOnce  byte = 0
	QoSAtLeastOnce byte = 1
)

// MessageSink is the broker side of the bridge. Implementations own their
// connection lifecycle, reconnect logic, and any internal delivery loop; the
// bridge only hands payloads over.
type MessageSink interface {
	IsConnected() bool

	// AwaitConnection blocks until the sink reports a live connection or the
	// timeout elapses. Publishing is permitted either way.
	AwaitConnection(timeout time.Duration) bool

	Publish(topic string, payload []byte, qos byte) error

	Disconnect()
}
