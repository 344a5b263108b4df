package ports

import (
	"time"

	"github.com/AryaMajumder/px4-jmavsim/internal/domain"
)

// RecordBuffer decouples the ingestion and publish rates. One producer, one
// consumer. Enqueue never blocks: a full buffer evicts its oldest record to
// make room, so the producer always progresses.
type RecordBuffer interface {
	Enqueue(r *domain.Record)

	// Dequeue blocks up to timeout for the oldest record; ok is false when
	// the wait expired empty.
	Dequeue(timeout time.Duration) (r *domain.Record, ok bool)

	Len() int

	// Dropped reports how many records the eviction policy has discarded.
	Dropped() uint64
}
