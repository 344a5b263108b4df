package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/AryaMajumder/px4-jmavsim/internal/adapters/buffer"
	"github.com/AryaMajumder/px4-jmavsim/internal/domain"
	"github.com/AryaMajumder/px4-jmavsim/internal/ports"
)

func TestRunIngestSequencesEveryRawEvent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	alt := 120.5
	src := &scriptedSource{
		cancel: cancel,
		events: []domain.RawEvent{
			&domain.PositionEvent{Lat: 10, Lon: 20, Alt: 30},
			&domain.UnknownEvent{Name: "ATTITUDE"},
			&domain.FlightStatusEvent{Alt: &alt},
			&domain.RawGPSEvent{Lat: 1, Lon: 2, Alt: 3},
		},
	}
	buf := buffer.NewRing(16)
	obs := &mockObs{}

	RunIngest(ctx, src, buf, obs, func() time.Time { return time.Unix(50, 0) })

	wantSeqs := []uint64{1, 3, 4}
	for _, want := range wantSeqs {
		rec, ok := buf.Dequeue(time.Second)
		if !ok {
			t.Fatalf("expected record seq=%d, got timeout", want)
		}
		if rec.Seq != want {
			t.Fatalf("expected seq %d, got %d", want, rec.Seq)
		}
	}
	if buf.Len() != 0 {
		t.Fatalf("expected buffer drained, got %d", buf.Len())
	}
	if got := obs.counters["bridge_normalize_dropped_total"]; got != 1 {
		t.Fatalf("expected 1 normalize drop, got %v", got)
	}
}

func TestRunIngestRetriesOnReadError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := &scriptedSource{
		cancel: cancel,
		errs:   []error{errors.New("link reset")},
	}
	buf := buffer.NewRing(4)
	obs := &mockObs{}

	done := make(chan struct{})
	go func() {
		RunIngest(ctx, src, buf, obs, time.Now)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("ingest loop did not stop after cancellation")
	}

	if len(obs.errors) != 1 {
		t.Fatalf("expected 1 logged read error, got %d", len(obs.errors))
	}
	if got := obs.counters["bridge_read_errors_total"]; got != 1 {
		t.Fatalf("expected read error counter 1, got %v", got)
	}
	if got := src.callCount(); got < 2 {
		t.Fatalf("expected the loop to retry after the error, got %d reads", got)
	}
	if buf.Len() != 0 {
		t.Fatalf("errors must not produce records, buffer has %d", buf.Len())
	}
}

func TestRunPublishRateLimiting(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	buf := buffer.NewRing(8)
	for seq := uint64(1); seq <= 3; seq++ {
		buf.Enqueue(&domain.Record{Seq: seq, Fields: map[string]float64{}})
	}

	t0 := time.Unix(1000, 0)
	clock := &scriptedClock{times: []time.Time{
		t0,
		t0.Add(100 * time.Millisecond), // inside the 500ms interval: dropped
		t0.Add(700 * time.Millisecond),
	}}
	sink := &recordingSink{connected: true}
	obs := &mockObs{}

	done := make(chan struct{})
	go func() {
		RunPublish(ctx, buf, sink, NewRateLimiter(2.0), "drone/telemetry", obs, clock.now)
		close(done)
	}()

	waitFor(t, func() bool { return sink.count() == 2 })
	cancel()
	<-done

	published := sink.payloads()
	if len(published) != 2 {
		t.Fatalf("expected 2 publishes, got %d", len(published))
	}
	if got := obs.counters["bridge_rate_dropped_total"]; got != 1 {
		t.Fatalf("expected 1 rate drop, got %v", got)
	}
	if got := obs.counters["bridge_records_published_total"]; got != 2 {
		t.Fatalf("expected published counter 2, got %v", got)
	}
}

func TestRunPublishProceedsWithoutConfirmedConnection(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	buf := buffer.NewRing(2)
	buf.Enqueue(&domain.Record{Seq: 1, Fields: map[string]float64{"alt": 5}})

	sink := &recordingSink{connected: false}
	obs := &mockObs{}

	done := make(chan struct{})
	go func() {
		RunPublish(ctx, buf, sink, NewRateLimiter(5.0), "drone/telemetry", obs, time.Now)
		close(done)
	}()

	waitFor(t, func() bool { return sink.count() == 1 })
	cancel()
	<-done

	if len(obs.errors) == 0 {
		t.Fatalf("expected a warning about the unconfirmed connection")
	}
	if got := string(sink.payloads()[0]); got != `{"alt":5,"seq":1,"timestamp":0}` {
		t.Fatalf("unexpected payload %s", got)
	}
}

func TestNewRateLimiterSpacing(t *testing.T) {
	t0 := time.Unix(0, 0)

	lim := NewRateLimiter(2.0)
	if !lim.AllowN(t0, 1) {
		t.Fatalf("first publish must pass")
	}
	if lim.AllowN(t0.Add(100*time.Millisecond), 1) {
		t.Fatalf("publish 0.1s after the previous one must be rejected at 2 Hz")
	}

	lim = NewRateLimiter(2.0)
	if !lim.AllowN(t0, 1) || !lim.AllowN(t0.Add(600*time.Millisecond), 1) {
		t.Fatalf("publishes 0.6s apart must both pass at 2 Hz")
	}
}

func TestNewRateLimiterFloorsNonPositiveRate(t *testing.T) {
	t0 := time.Unix(0, 0)

	lim := NewRateLimiter(0)
	if !lim.AllowN(t0, 1) {
		t.Fatalf("first publish must pass")
	}
	if lim.AllowN(t0.Add(time.Second), 1) {
		t.Fatalf("floored 0.1 Hz rate must reject a publish after 1s")
	}
	if !lim.AllowN(t0.Add(11*time.Second), 1) {
		t.Fatalf("floored 0.1 Hz rate must allow a publish after 10s")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met within deadline")
}

type scriptedSource struct {
	mu     sync.Mutex
	events []domain.RawEvent
	errs   []error
	calls  int
	cancel context.CancelFunc
}

func (s *scriptedSource) WaitLiveness(context.Context, time.Duration) bool { return true }

// ReadNext plays back the scripted errors, then the scripted events. Once
// the script is exhausted it cancels the loop's context on the next call, so
// every scripted outcome is fully handled before shutdown.
func (s *scriptedSource) ReadNext(context.Context, time.Duration) (domain.RawEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		return nil, err
	}
	if len(s.events) > 0 {
		ev := s.events[0]
		s.events = s.events[1:]
		return ev, nil
	}
	s.cancel()
	return nil, nil
}

func (s *scriptedSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *scriptedSource) Close() error { return nil }

type recordingSink struct {
	mu        sync.Mutex
	connected bool
	published [][]byte
}

func (s *recordingSink) IsConnected() bool { return s.connected }

func (s *recordingSink) AwaitConnection(time.Duration) bool { return s.connected }

func (s *recordingSink) Publish(topic string, payload []byte, qos byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.published = append(s.published, payload)
	return nil
}

func (s *recordingSink) Disconnect() {}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.published)
}

func (s *recordingSink) payloads() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]byte, len(s.published))
	copy(out, s.published)
	return out
}

type scriptedClock struct {
	mu    sync.Mutex
	times []time.Time
	idx   int
}

func (c *scriptedClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.idx >= len(c.times) {
		return c.times[len(c.times)-1]
	}
	t := c.times[c.idx]
	c.idx++
	return t
}

type mockObs struct {
	mu       sync.Mutex
	errors   []error
	counters map[string]float64
}

func (m *mockObs) LogInfo(string, ...ports.Field) {}

func (m *mockObs) LogError(_ string, err error, _ ...ports.Field) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, err)
}

func (m *mockObs) LogCritical(string, error, ...ports.Field) {}

func (m *mockObs) IncCounter(name string, v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counters == nil {
		m.counters = make(map[string]float64)
	}
	m.counters[name] += v
}

func (m *mockObs) ObserveLatency(string, float64) {}
func (m *mockObs) SetGauge(string, float64) {}
