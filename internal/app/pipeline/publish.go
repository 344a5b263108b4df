package pipeline

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/AryaMajumder/px4-jmavsim/internal/ports"
)

const (
	dequeueTimeout = 1 * time.Second
	connectWait    = 2 * time.Second
)

// minRateHz is the floor applied to the configured publish rate so the
// derived interval stays finite.
const minRateHz = 0.1

// NewRateLimiter builds the publisher's rate gate: at most max(0.1, rateHz)
// publishes per second, burst of one. A record arriving inside the interval
// is dropped, not delayed.
func NewRateLimiter(rateHz float64) *rate.Limiter {
	if rateHz < minRateHz {
		rateHz = minRateHz
	}
	return rate.NewLimiter(rate.Limit(rateHz), 1)
}

// RunPublish dequeues normalized records and forwards them to the sink. Too
// frequent records are discarded to keep end-to-end latency low. A sink
// without a confirmed connection is given a bounded wait, then published to
// anyway; the sink may buffer or drop.
func RunPublish(ctx context.Context, buf ports.RecordBuffer, sink ports.MessageSink, lim *rate.Limiter, topic string, obs ports.Observability, now func() time.Time) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		rec, ok := buf.Dequeue(dequeueTimeout)
		if !ok {
			continue
		}

		if !lim.AllowN(now(), 1) {
			obs.IncCounter("bridge_rate_dropped_total", 1)
			continue
		}

		payload, err := rec.Encode()
		if err != nil {
			obs.LogError("record_encode_failed", err)
			continue
		}

		if !sink.IsConnected() && !sink.AwaitConnection(connectWait) {
			obs.LogError("sink_unconfirmed", fmt.Errorf("publishing seq=%d without confirmed connection", rec.Seq))
		}

		start := time.Now()
		if err := sink.Publish(topic, payload, ports.QoSAtLeastOnce); err != nil {
			obs.LogError("sink_publish_failed", err)
			continue
		}
		obs.ObserveLatency("bridge_publish_latency_seconds", time.Since(start).Seconds())
		obs.IncCounter("bridge_records_published_total", 1)
		obs.LogInfo("published",
			ports.Field{Key: "seq", Value: rec.Seq},
			ports.Field{Key: "timestamp", Value: rec.Timestamp})
	}
}
