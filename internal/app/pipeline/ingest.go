package pipeline

import (
	"context"
	"time"

	"github.com/AryaMajumder/px4-jmavsim/internal/domain"
	"github.com/AryaMajumder/px4-jmavsim/internal/ports"
)

const (
	readTimeout    = 2 * time.Second
	readRetryDelay = 1 * time.Second
)

// RunIngest pulls raw events from the telemetry source, normalizes them, and
// enqueues the survivors. The sequence counter advances once per raw event
// observed, whether or not normalization keeps it. Transport errors are
// retried after a pause; only context cancellation stops the loop.
func RunIngest(ctx context.Context, src ports.TelemetrySource, buf ports.RecordBuffer, obs ports.Observability, now func() time.Time) {
	var seq uint64

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		ev, err := src.ReadNext(ctx, readTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			obs.LogError("telemetry_read_failed", err)
			obs.IncCounter("bridge_read_errors_total", 1)
			sleepCtx(ctx, readRetryDelay)
			continue
		}
		if ev == nil {
			// No data within the window; not an error.
			continue
		}

		seq++
		rec := domain.Normalize(ev, seq, now())
		if rec == nil {
			obs.IncCounter("bridge_normalize_dropped_total", 1)
			continue
		}
		buf.Enqueue(rec)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
