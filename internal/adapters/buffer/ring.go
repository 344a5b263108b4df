package buffer

import (
	"sync/atomic"
	"time"

	"github.com/AryaMajumder/px4-jmavsim/internal/domain"
	"github.com/AryaMajumder/px4-jmavsim/internal/ports"
)

// Ring is a bounded FIFO between the ingestion worker and the publisher.
// Enqueue never blocks: when the buffer is full the single oldest record is
// evicted first, keeping the stream fresh at the cost of older history.
type Ring struct {
	ch      chan *domain.Record
	dropped atomic.Uint64
}

func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = 1
	}
	return &Ring{ch: make(chan *domain.Record, capacity)}
}

func (b *Ring) Enqueue(r *domain.Record) {
	for {
		select {
		case b.ch <- r:
			return
		default:
		}
		// Full: evict the oldest entry, then retry. Single-producer, so the
		// retry cannot starve.
		select {
		case <-b.ch:
			b.dropped.Add(1)
		default:
		}
	}
}

func (b *Ring) Dequeue(timeout time.Duration) (*domain.Record, bool) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case r := <-b.ch:
		return r, true
	case <-timer.C:
		return nil, false
	}
}

func (b *Ring) Len() int { return len(b.ch) }

func (b *Ring) Dropped() uint64 { return b.dropped.Load() }

var _ ports.RecordBuffer = (*Ring)(nil)
