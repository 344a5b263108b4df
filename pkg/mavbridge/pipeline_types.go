package mavbridge

import (
	"github.com/AryaMajumder/px4-jmavsim/internal/domain"
	"github.com/AryaMajumder/px4-jmavsim/internal/ports"
)

// Record is the normalized telemetry unit that flows through the pipeline.
// It mirrors internal/domain.Record but is exported so custom adapters can
// reference it.
type Record = domain.Record

// RawEvent is one typed telemetry event read from the vehicle link.
type RawEvent = domain.RawEvent

// Typed raw-event variants recognized by the normalizer.
type (
	PositionEvent     = domain.PositionEvent
	FlightStatusEvent = domain.FlightStatusEvent
	RawGPSEvent       = domain.RawGPSEvent
	UnknownEvent      = domain.UnknownEvent
)

// Source streams raw events from any vehicle link (MAVLink, simulators,
// replays) into the pipeline.
type Source = ports.TelemetrySource

// Sink consumes serialized records and delivers them to any downstream
// messaging system.
type Sink = ports.MessageSink

// RecordBuffer is the bounded, drop-oldest buffer that decouples the
// ingestion and publish rates.
type RecordBuffer = ports.RecordBuffer

// Observability emits metrics/logs about throughput, latency, and drops.
type Observability = ports.Observability

// Field is a structured log field used by Observability implementations.
type Field = ports.Field

// Delivery hints for Sink.Publish.
const (
	QoSAtMostOnce  = ports.QoSAtMostOnce
	QoSAtLeastOnce = ports.QoSAtLeastOnce
)
