package mavbridge

import (
	"context"

	base "github.com/AryaMajumder/px4-jmavsim/pkg/mavbridge"
)

// Re-exported errors for convenience.
var (
	ErrChannelSinkClosed = base.ErrChannelSinkClosed
)

// Type aliases so consumers can import the module root directly.
type (
	Config            = base.Config
	BridgeConfig      = base.BridgeConfig
	MAVLinkConfig     = base.MAVLinkConfig
	MQTTConfig        = base.MQTTConfig
	MetricsConfig     = base.MetricsConfig
	Bridge            = base.Bridge
	BridgeOption      = base.BridgeOption
	Flow              = base.Flow
	FlowOption        = base.FlowOption
	StreamInOption    = base.StreamInOption
	StreamOutOption   = base.StreamOutOption
	Record            = base.Record
	RawEvent          = base.RawEvent
	PositionEvent     = base.PositionEvent
	FlightStatusEvent = base.FlightStatusEvent
	RawGPSEvent       = base.RawGPSEvent
	UnknownEvent      = base.UnknownEvent
	Source            = base.Source
	Sink              = base.Sink
	RecordBuffer      = base.RecordBuffer
	Observability     = base.Observability
	Field             = base.Field
	PublishFunc       = base.PublishFunc
	Message           = base.Message
)

// Delivery hints for Sink.Publish.
const (
	QoSAtMostOnce  = base.QoSAtMostOnce
	QoSAtLeastOnce = base.QoSAtLeastOnce
)

// Config helpers.
func LoadConfig(path string) (*Config, error) {
	return base.LoadConfig(path)
}

// Flow builder helpers.
func Conf(path string, opts ...FlowOption) (*Flow, error) {
	return base.Conf(path, opts...)
}

func ConfFromConfig(cfg *Config, opts ...FlowOption) (*Flow, error) {
	return base.ConfFromConfig(cfg, opts...)
}

// Bridge helpers.
func NewBridge(cfg *Config, opts ...BridgeOption) (*Bridge, error) {
	return base.NewBridge(cfg, opts...)
}

func RunBridge(ctx context.Context, cfg *Config, opts ...BridgeOption) error {
	b, err := base.NewBridge(cfg, opts...)
	if err != nil {
		return err
	}
	return b.Run(ctx)
}

// Dependency injection options.
func WithSource(src Source) BridgeOption { return base.WithSource(src) }
func WithSink(s Sink) BridgeOption { return base.WithSink(s) }
func WithBuffer(b RecordBuffer) BridgeOption { return base.WithBuffer(b) }
func WithObservability(o Observability) BridgeOption {
	return base.WithObservability(o)
}

// Stream builder options.
func StreamInSource(src Source) StreamInOption { return base.StreamInSource(src) }
func StreamInBuffer(b RecordBuffer) StreamInOption { return base.StreamInBuffer(b) }
func StreamInObservability(o Observability) StreamInOption { return base.StreamInObservability(o) }
func StreamOutSink(s Sink) StreamOutOption { return base.StreamOutSink(s) }
func StreamOutCallback(name string, fn PublishFunc) StreamOutOption {
	return base.StreamOutCallback(name, fn)
}

// Embedded sinks.
func NewCallbackSink(name string, fn PublishFunc) Sink { return base.NewCallbackSink(name, fn) }
func NewChannelSink(name string, buffer int) (Sink, <-chan Message, func()) {
	return base.NewChannelSink(name, buffer)
}
