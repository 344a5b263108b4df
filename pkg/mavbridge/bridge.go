package mavbridge

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/AryaMajumder/px4-jmavsim/internal/adapters/buffer"
	"github.com/AryaMajumder/px4-jmavsim/internal/adapters/mavlink"
	"github.com/AryaMajumder/px4-jmavsim/internal/adapters/mqtt"
	"github.com/AryaMajumder/px4-jmavsim/internal/adapters/observability"
	"github.com/AryaMajumder/px4-jmavsim/internal/app/pipeline"
	"github.com/AryaMajumder/px4-jmavsim/internal/ports"
)

const (
	livenessTimeout = 5 * time.Second
	shutdownTimeout = 5 * time.Second
)

// BridgeOption customizes the dependencies used by Bridge.
type BridgeOption func(*bridgeOverrides)

type bridgeOverrides struct {
	source        Source
	sink          Sink
	buffer        RecordBuffer
	observability Observability
	clock         func() time.Time
}

// WithSource injects a custom telemetry source (simulators, replays, etc.).
func WithSource(src Source) BridgeOption {
	return func(o *bridgeOverrides) {
		o.source = src
	}
}

// WithSink injects a custom messaging sink so records can go anywhere.
func WithSink(s Sink) BridgeOption {
	return func(o *bridgeOverrides) {
		o.sink = s
	}
}

// WithBuffer swaps the in-memory drop-oldest buffer for a caller-provided one.
func WithBuffer(b RecordBuffer) BridgeOption {
	return func(o *bridgeOverrides) {
		o.buffer = b
	}
}

// WithObservability plugs in a custom observability backend.
func WithObservability(obs Observability) BridgeOption {
	return func(o *bridgeOverrides) {
		o.observability = obs
	}
}

// WithClock overrides the wall clock, mainly for tests.
func WithClock(now func() time.Time) BridgeOption {
	return func(o *bridgeOverrides) {
		o.clock = now
	}
}

// Bridge wires the source → buffer → sink pipeline and exposes simple
// lifecycle hooks for embedding the bridge inside any Go service.
type Bridge struct {
	cfg     *Config
	obs     ports.Observability
	buf     ports.RecordBuffer
	source  ports.TelemetrySource
	sink    ports.MessageSink
	limiter *rate.Limiter
	clock   func() time.Time

	metricsSrv  *http.Server
	gaugeStopCh chan struct{}
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

// NewBridge bootstraps the default adapters (MAVLink source, MQTT sink,
// in-memory buffer, Prometheus observability). BridgeOption values override
// any dependency.
func NewBridge(cfg *Config, opts ...BridgeOption) (*Bridge, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	var overrides bridgeOverrides
	for _, opt := range opts {
		if opt != nil {
			opt(&overrides)
		}
	}

	obs := overrides.observability
	if obs == nil {
		obs = observability.NewPromObs()
	}

	buf := overrides.buffer
	if buf == nil {
		buf = buffer.NewRing(cfg.Bridge.BufferCapacity)
	}

	src := overrides.source
	if src == nil {
		var err error
		src, err = mavlink.Connect(cfg.MAVLink)
		if err != nil {
			return nil, err
		}
	}

	snk := overrides.sink
	if snk == nil {
		var err error
		snk, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return nil, err
		}
	}

	clock := overrides.clock
	if clock == nil {
		clock = time.Now
	}

	return &Bridge{
		cfg:     cfg,
		obs:     obs,
		buf:     buf,
		source:  src,
		sink:    snk,
		limiter: pipeline.NewRateLimiter(cfg.Bridge.RateHz),
		clock:   clock,
	}, nil
}

// Start waits briefly for the source's liveness signal, then launches the
// ingestion worker and publisher and the observability stack. It returns
// immediately; call Run to block on a context instead.
func (b *Bridge) Start() error {
	if b == nil {
		return fmt.Errorf("bridge is nil")
	}

	livenessCtx, cancel := context.WithTimeout(context.Background(), livenessTimeout)
	if b.source.WaitLiveness(livenessCtx, livenessTimeout) {
		b.obs.LogInfo("heartbeat_received")
	} else {
		b.obs.LogError("heartbeat_missing", fmt.Errorf("no heartbeat within %s, bridging anyway", livenessTimeout))
	}
	cancel()

	ctx, stop := context.WithCancel(context.Background())
	b.cancel = stop

	b.wg.Add(2)
	go func() {
		defer b.wg.Done()
		pipeline.RunIngest(ctx, b.source, b.buf, b.obs, b.clock)
	}()
	go func() {
		defer b.wg.Done()
		pipeline.RunPublish(ctx, b.buf, b.sink, b.limiter, b.cfg.Bridge.Topic, b.obs, b.clock)
	}()

	b.startMetrics()
	return nil
}

// Run starts the bridge and blocks until the provided context is cancelled,
// then attempts a graceful shutdown.
func (b *Bridge) Run(ctx context.Context) error {
	if err := b.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return b.Shutdown(shutdownCtx)
}

// Shutdown stops both pipeline tasks, the metrics server, the source, and
// releases the sink connection.
func (b *Bridge) Shutdown(ctx context.Context) error {
	var errs []error

	if b.cancel != nil {
		b.cancel()
	}
	if b.gaugeStopCh != nil {
		close(b.gaugeStopCh)
		b.gaugeStopCh = nil
	}

	if b.metricsSrv != nil {
		if err := b.metricsSrv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs = append(errs, err)
		}
	}

	if err := b.source.Close(); err != nil {
		errs = append(errs, err)
	}

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		errs = append(errs, fmt.Errorf("pipeline tasks did not stop: %w", ctx.Err()))
	}

	b.sink.Disconnect()

	return errors.Join(errs...)
}

func (b *Bridge) startMetrics() {
	if !b.cfg.Metrics.Enabled() {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	b.metricsSrv = &http.Server{
		Addr:    b.cfg.Metrics.Addr,
		Handler: mux,
	}

	go func() {
		if err := b.metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("metrics server exited: %v", err)
		}
	}()

	b.gaugeStopCh = make(chan struct{})
	go b.recordResourceGauges(b.gaugeStopCh, time.Second)
}

func (b *Bridge) recordResourceGauges(stop <-chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastDropped uint64
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			b.obs.SetGauge("bridge_buffer_length", float64(b.buf.Len()))
			dropped := b.buf.Dropped()
			if delta := dropped - lastDropped; delta > 0 {
				b.obs.IncCounter("bridge_buffer_dropped_total", float64(delta))
			}
			lastDropped = dropped
		}
	}
}
