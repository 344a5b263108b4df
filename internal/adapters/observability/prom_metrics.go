package observability

import (
	"fmt"
	"log"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/AryaMajumder/px4-jmavsim/internal/ports"
)

type PromObs struct {
	counters map[string]prometheus.Counter
	gauges   map[string]prometheus.Gauge
	histos   map[string]prometheus.Observer
}

func NewPromObs() *PromObs {
	published := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bridge_records_published_total",
		Help: "Records successfully handed to the messaging sink.",
	})
	rateDropped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bridge_rate_dropped_total",
		Help: "Records discarded by the publish rate limiter.",
	})
	bufferDropped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bridge_buffer_dropped_total",
		Help: "Records evicted from the full telemetry buffer.",
	})
	normalizeDropped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bridge_normalize_dropped_total",
		Help: "Raw events discarded by normalization.",
	})
	readErrors := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bridge_read_errors_total",
		Help: "Transport-level read failures on the telemetry link.",
	})
	bufferLen := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "bridge_buffer_length",
		Help: "Current number of records waiting in the telemetry buffer.",
	})
	latency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "bridge_publish_latency_seconds",
		Help:    "Time spent handing a single record to the sink.",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
	})

	prometheus.MustRegister(published, rateDropped, bufferDropped, normalizeDropped, readErrors, bufferLen, latency)

	return &PromObs{
		counters: map[string]prometheus.Counter{
			"bridge_records_published_total": published,
			"bridge_rate_dropped_total":      rateDropped,
			"bridge_buffer_dropped_total":    bufferDropped,
			"bridge_normalize_dropped_total": normalizeDropped,
			"bridge_read_errors_total":       readErrors,
		},
		gauges: map[string]prometheus.Gauge{
			"bridge_buffer_length": bufferLen,
		},
		histos: map[string]prometheus.Observer{
			"bridge_publish_latency_seconds": latency,
		},
	}
}

func (p *PromObs) LogInfo(msg string, fields ...ports.Field) {
	log.Printf("INFO: %s%s", msg, formatFields(fields))
}

func (p *PromObs) LogError(msg string, err error, fields ...ports.Field) {
	if err != nil {
		log.Printf("ERROR: %s: %v%s", msg, err, formatFields(fields))
	}
}

func (p *PromObs) LogCritical(msg string, err error, fields ...ports.Field) {
	if err != nil {
		log.Printf("CRITICAL: %s: %v", msg, err)
	}
}

func formatFields(fields []ports.Field) string {
	if len(fields) == 0 {
		return ""
	}
	var b strings.Builder
	for _, f := range fields {
		fmt.Fprintf(&b, " %s=%v", f.Key, f.Value)
	}
	return b.String()
}

func (p *PromObs) IncCounter(name string, v float64) {
	if c, ok := p.counters[name]; ok {
		c.Add(v)
	}
}

func (p *PromObs) ObserveLatency(name string, seconds float64) {
	if h, ok := p.histos[name]; ok {
		h.Observe(seconds)
	}
}

func (p *PromObs) SetGauge(name string, v float64) {
	if g, ok := p.gauges[name]; ok {
		g.Set(v)
	}
}
