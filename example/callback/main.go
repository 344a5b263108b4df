// Bridges a simulated vehicle to a stdout callback sink, useful for trying
// the pipeline without a flight stack or a broker.
package main

import (
	"context"
	"fmt"
	"log"
	"math"
	"sync/atomic"
	"time"

	mavbridge "github.com/AryaMajumder/px4-jmavsim"
)

func main() {
	cfg := &mavbridge.Config{
		Bridge: mavbridge.BridgeConfig{
			Topic:          "drone/telemetry",
			RateHz:         2.0,
			BufferCapacity: 50,
		},
		Metrics: mavbridge.MetricsConfig{Addr: ":9100"},
	}

	flow, err := mavbridge.ConfFromConfig(cfg)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	callback := func(topic string, payload []byte) error {
		fmt.Printf("%s %s\n", topic, payload)
		return nil
	}

	err = flow.
		StreamIN(mavbridge.StreamInSource(&orbitSource{})).
		Run(ctx, mavbridge.StreamOutCallback("stdout", callback))
	if err != nil && err != context.Canceled && err != context.DeadlineExceeded {
		log.Fatalf("bridge error: %v", err)
	}
}

// orbitSource emits position fixes along a small circle at 10 Hz.
type orbitSource struct {
	tick atomic.Uint64
}

func (s *orbitSource) WaitLiveness(context.Context, time.Duration) bool { return true }

func (s *orbitSource) ReadNext(ctx context.Context, timeout time.Duration) (mavbridge.RawEvent, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(100 * time.Millisecond):
	}

	angle := float64(s.tick.Add(1)) / 20.0
	lat := int32(473397000 + 1000*math.Sin(angle))
	lon := int32(85550500 + 1000*math.Cos(angle))
	vx := int16(500 * math.Cos(angle))
	vy := int16(-500 * math.Sin(angle))

	return &mavbridge.PositionEvent{
		Lat: lat,
		Lon: lon,
		Alt: 500000,
		Vx:  &vx,
		Vy:  &vy,
	}, nil
}

func (s *orbitSource) Close() error { return nil }
