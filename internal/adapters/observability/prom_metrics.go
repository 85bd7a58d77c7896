package observability

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ghalamif/NetCandle/internal/ports"
)

type PromObs struct {
	log      *slog.Logger
	counters map[string]prometheus.Counter
	gauges   map[string]prometheus.Gauge
	histos   map[string]prometheus.Observer
}

// NewPromObs registers the runtime's metrics on reg and routes log calls to
// logger. A nil reg falls back to the default registerer, a nil logger to slog's default.
func NewPromObs(reg prometheus.Registerer, logger *slog.Logger) *PromObs {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if logger == nil {
		logger = slog.Default()
	}

	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{Name: name, Help: help})
	}
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{Name: name, Help: help})
	}

	counters := map[string]prometheus.Counter{
		"netcandle_records_accepted_total":   counter("netcandle_records_accepted_total", "Lines that passed the arity check and were handed to the renderer."),
		"netcandle_lines_malformed_total":    counter("netcandle_lines_malformed_total", "Lines dropped because their field count did not match the schema."),
		"netcandle_coercion_errors_total":    counter("netcandle_coercion_errors_total", "Records dropped because a numeric field could not be coerced."),
		"netcandle_source_retries_total":     counter("netcandle_source_retries_total", "Attempts to open a telemetry source that was not available."),
		"netcandle_samples_evicted_total":    counter("netcandle_samples_evicted_total", "Samples evicted from a full window."),
		"netcandle_cycle_resets_total":       counter("netcandle_cycle_resets_total", "Full window clears triggered by the session cycle."),
		"netcandle_alerts_raised_total":      counter("netcandle_alerts_raised_total", "Samples carrying an alert id other than NONE."),
		"netcandle_sink_errors_total":        counter("netcandle_sink_errors_total", "Scene publications rejected by a sink."),
		"netcandle_control_succeeded_total":  counter("netcandle_control_succeeded_total", "Control script runs that exited with status 0."),
		"netcandle_control_failed_total":     counter("netcandle_control_failed_total", "Control script runs that failed to launch or exited non-zero."),
		"netcandle_ws_clients_dropped_total": counter("netcandle_ws_clients_dropped_total", "WebSocket clients disconnected for falling behind."),
	}
	gauges := map[string]prometheus.Gauge{
		"netcandle_window_length":      gauge("netcandle_window_length", "Samples currently held in the window."),
		"netcandle_channel_depth":      gauge("netcandle_channel_depth", "Records waiting between the ingestor and the renderer."),
		"netcandle_ws_clients":         gauge("netcandle_ws_clients", "Connected scene stream clients."),
		"netcandle_journal_size_bytes": gauge("netcandle_journal_size_bytes", "Size of the alert journal on disk."),
	}
	rebuild := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "netcandle_scene_rebuild_seconds",
		Help:    "Time spent rebuilding and publishing a scene.",
		Buckets: prometheus.ExponentialBuckets(0.00005, 2, 14),
	})

	collectors := []prometheus.Collector{rebuild}
	for _, c := range counters {
		collectors = append(collectors, c)
	}
	for _, g := range gauges {
		collectors = append(collectors, g)
	}
	reg.MustRegister(collectors...)

	return &PromObs{
		log:      logger,
		counters: counters,
		gauges:   gauges,
		histos: map[string]prometheus.Observer{
			"netcandle_scene_rebuild_seconds": rebuild,
		},
	}
}

func (p *PromObs) LogDebug(msg string, fields ...ports.Field) {
	p.log.Debug(msg, attrs(nil, fields)...)
}

func (p *PromObs) LogInfo(msg string, fields ...ports.Field) {
	p.log.Info(msg, attrs(nil, fields)...)
}

func (p *PromObs) LogWarn(msg string, err error, fields ...ports.Field) {
	p.log.Warn(msg, attrs(err, fields)...)
}

func (p *PromObs) LogError(msg string, err error, fields ...ports.Field) {
	p.log.Error(msg, attrs(err, fields)...)
}

func (p *PromObs) LogCritical(msg string, err error, fields ...ports.Field) {
	p.log.Error(msg, append(attrs(err, fields), slog.Bool("critical", true))...)
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

func attrs(err error, fields []ports.Field) []any {
	out := make([]any, 0, len(fields)+1)
	if err != nil {
		out = append(out, tintErr(err))
	}
	for _, f := range fields {
		out = append(out, slog.Any(f.Key, f.Value))
	}
	return out
}

var _ ports.Observability = (*PromObs)(nil)
