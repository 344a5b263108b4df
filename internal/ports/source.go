package ports

import (
	"context"
	"time"

	"github.com/AryaMajumder/px4-jmavsim/internal/domain"
)

// TelemetrySource is the vehicle link. Connection handling and reconnects are
// the implementation's responsibility; the bridge only reads typed events.
type TelemetrySource interface {
	// WaitLiveness blocks until the link produces its first liveness signal
	// (a heartbeat) or the timeout elapses.
	WaitLiveness(ctx context.Context, timeout time.Duration) bool

	// ReadNext returns the next raw event, or (nil, nil) when no event
	// arrived within the timeout. Errors are transport-level and transient.
	ReadNext(ctx context.Context, timeout time.Duration) (domain.RawEvent, error)

	Close() error
}
