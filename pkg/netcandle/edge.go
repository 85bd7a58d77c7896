package netcandle

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/ghalamif/NetCandle/internal/adapters/activity"
	"github.com/ghalamif/NetCandle/internal/adapters/alertbox"
	"github.com/ghalamif/NetCandle/internal/adapters/control"
	"github.com/ghalamif/NetCandle/internal/adapters/fifo"
	"github.com/ghalamif/NetCandle/internal/adapters/httpapi"
	"github.com/ghalamif/NetCandle/internal/adapters/journal"
	"github.com/ghalamif/NetCandle/internal/adapters/lineproto"
	"github.com/ghalamif/NetCandle/internal/adapters/natsrc"
	"github.com/ghalamif/NetCandle/internal/adapters/observability"
	"github.com/ghalamif/NetCandle/internal/adapters/raster"
	"github.com/ghalamif/NetCandle/internal/adapters/sink"
	"github.com/ghalamif/NetCandle/internal/adapters/tail"
	"github.com/ghalamif/NetCandle/internal/adapters/wsfeed"
	"github.com/ghalamif/NetCandle/internal/app/pipeline"
	"github.com/ghalamif/NetCandle/internal/app/render"
	"github.com/ghalamif/NetCandle/internal/ports"
)

// EdgeRuntimeOption customizes the dependencies used by EdgeRuntime.
type EdgeRuntimeOption func(*runtimeOverrides)

type runtimeOverrides struct {
	collectors    []Collector
	sinks         []Sink
	journal       Journal
	observability Observability
	logger        *slog.Logger
	clock         func() time.Time
}

// WithCollector replaces the configured telemetry sources (named pipe, NATS).
// Passing it several times runs every given collector on the same ordered channel.
func WithCollector(col Collector) EdgeRuntimeOption {
	return func(o *runtimeOverrides) {
		if col != nil {
			o.collectors = append(o.collectors, col)
		}
	}
}

// WithSink adds a scene sink next to the built-in HTTP and WebSocket surfaces.
func WithSink(s Sink) EdgeRuntimeOption {
	return func(o *runtimeOverrides) {
		if s != nil {
			o.sinks = append(o.sinks, s)
		}
	}
}

// WithJournal lets callers bring their own alert journal.
func WithJournal(j Journal) EdgeRuntimeOption {
	return func(o *runtimeOverrides) {
		o.journal = j
	}
}

// WithObservability plugs in a custom observability backend.
func WithObservability(obs Observability) EdgeRuntimeOption {
	return func(o *runtimeOverrides) {
		o.observability = obs
	}
}

// WithLogger sets the slog logger used by the default Prometheus observability.
func WithLogger(l *slog.Logger) EdgeRuntimeOption {
	return func(o *runtimeOverrides) {
		o.logger = l
	}
}

// WithClock overrides the renderer's clock, mostly for tests of the cycle reset.
func WithClock(now func() time.Time) EdgeRuntimeOption {
	return func(o *runtimeOverrides) {
		o.clock = now
	}
}

// EdgeRuntime wires collectors → ordered channel → renderer → scene sinks and
// serves the read side over HTTP.
type EdgeRuntime struct {
	cfg        *Config
	policy     ports.Policy
	obs        ports.Observability
	registry   *prometheus.Registry
	collectors []ports.Collector
	renderer   *render.Renderer
	sinks      []ports.Sink
	journal    ports.Journal
	ownJournal bool
	latest     *sink.Latest
	hub        *wsfeed.Hub
	alerts     *alertbox.Box
	feed       *activity.Feed
	follower   *tail.Follower
	runner     *control.Runner
	raster     *raster.Renderer
	archive    *sink.ArchiveSink
	db         *sql.DB
	httpSrv    *http.Server

	cancel    context.CancelFunc
	group     *errgroup.Group
	doneCh    chan struct{}
	waitErr   error
	closeOnce sync.Once
}

// NewEdgeRuntime bootstraps the default adapters (named pipe collector, NATS
// when configured, file journal, Prometheus observability, WebSocket hub and
// the optional Timescale archive). EdgeRuntimeOption values override them.
func NewEdgeRuntime(cfg *Config, opts ...EdgeRuntimeOption) (*EdgeRuntime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var overrides runtimeOverrides
	for _, opt := range opts {
		if opt != nil {
			opt(&overrides)
		}
	}

	if err := control.CheckExecutable(cfg.Control.Script); err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	obs := overrides.observability
	if obs == nil {
		logger := overrides.logger
		if logger == nil {
			logger = observability.NewLogger(os.Stderr, cfg.Log.Level, cfg.Log.NoColor)
		}
		obs = observability.NewPromObs(reg, logger)
	}

	e := &EdgeRuntime{
		cfg:      cfg,
		policy:   cfg.Policy,
		obs:      obs,
		registry: reg,
		latest:   sink.NewLatest(),
		hub:      wsfeed.NewHub(obs, 0),
		alerts:   alertbox.New(),
		feed:     activity.NewFeed(cfg.Activity.MaxLines),
		raster:   raster.New(cfg.Raster.Width, cfg.Raster.Height),
		renderer: render.NewRenderer(cfg.Policy, overrides.clock),
		doneCh:   make(chan struct{}),
	}
	e.follower = tail.NewFollower(cfg.Activity.Path, e.feed, obs)

	e.journal = overrides.journal
	if e.journal == nil {
		j, err := journal.NewFileJournal(cfg.Journal.Dir)
		if err != nil {
			return nil, fmt.Errorf("open journal: %w", err)
		}
		e.journal, e.ownJournal = j, true
	}
	if err := e.restoreAlert(); err != nil {
		e.closeResources()
		return nil, err
	}
	e.runner = control.NewRunner(cfg.Control, e.feed, e.journal, obs)

	sp := lineproto.NewSplitter(cfg.Policy.Schema)
	if len(overrides.collectors) > 0 {
		for _, col := range overrides.collectors {
			if p, ok := col.(*Publisher); ok {
				p.attach(sp, obs)
			}
		}
		e.collectors = overrides.collectors
	} else {
		col, err := fifo.NewCollector(cfg.Source, sp, obs)
		if err != nil {
			e.closeResources()
			return nil, err
		}
		e.collectors = append(e.collectors, col)
		if cfg.NATS.Enabled() {
			nc, err := natsrc.NewCollector(cfg.NATS, sp, obs)
			if err != nil {
				e.closeResources()
				return nil, err
			}
			e.collectors = append(e.collectors, nc)
		}
	}

	e.sinks = []ports.Sink{e.latest, e.hub}
	if cfg.Timescale.Enabled() {
		db, err := sql.Open("postgres", cfg.Timescale.ConnString)
		if err != nil {
			e.closeResources()
			return nil, err
		}
		e.db = db
		e.archive = sink.NewArchiveSink(db, cfg.Timescale.Table)
		e.sinks = append(e.sinks, e.archive)
	}
	e.sinks = append(e.sinks, overrides.sinks...)

	return e, nil
}

// restoreAlert replays the journal so the latched alert survives restarts.
func (e *EdgeRuntime) restoreAlert() error {
	last, err := journal.LastAlert(e.journal)
	if err != nil {
		return fmt.Errorf("replay journal: %w", err)
	}
	if last == nil {
		return nil
	}
	e.renderer.Restore(*last)
	e.alerts.Raise(*last)
	e.obs.LogInfo("alert_restored",
		ports.Field{Key: "alert_id", Value: last.ID},
		ports.Field{Key: "raised_at", Value: last.RaisedAt})
	return nil
}

// Start launches the collectors, the render loop, the log tail and the HTTP
// server. It returns immediately; call Wait or Run to block.
func (e *EdgeRuntime) Start(ctx context.Context) error {
	if e == nil {
		return fmt.Errorf("edge runtime is nil")
	}
	if e.cancel != nil {
		return fmt.Errorf("edge runtime already started")
	}

	if e.archive != nil && e.cfg.Timescale.CreateTable {
		if err := e.archive.EnsureTable(); err != nil {
			return err
		}
	}

	records := make(chan *Record, e.policy.ChannelBuffer)
	if err := pipeline.StartCollectors(e.collectors, records, e.obs); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)
	e.cancel, e.group = cancel, g

	e.httpSrv = &http.Server{
		Addr:              e.cfg.Metrics.Addr,
		Handler:           e.Handler(gctx),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g.Go(func() error {
		return pipeline.RunRenderPipeline(gctx, records, pipeline.RenderDeps{
			Renderer: e.renderer,
			Sinks:    e.sinks,
			Alerts:   e.alerts,
			Activity: e.feed,
			Journal:  e.journal,
			Obs:      e.obs,
		})
	})
	g.Go(func() error { return e.follower.Run(gctx) })
	g.Go(func() error {
		if err := e.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		e.recordResourceGauges(gctx, time.Second)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		var errs []error
		if err := e.httpSrv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs = append(errs, err)
		}
		e.hub.Close()
		errs = append(errs, pipeline.StopCollectors(e.collectors, e.obs))
		return errors.Join(errs...)
	})

	go func() {
		e.waitErr = g.Wait()
		e.closeResources()
		close(e.doneCh)
	}()

	e.obs.LogInfo("runtime_started",
		ports.Field{Key: "addr", Value: e.cfg.Metrics.Addr},
		ports.Field{Key: "schema", Value: int(e.policy.Schema)},
		ports.Field{Key: "window_capacity", Value: e.policy.WindowCapacity})
	return nil
}

// Wait blocks until every runtime goroutine exited and returns the first error.
func (e *EdgeRuntime) Wait() error {
	if e.cancel == nil {
		return fmt.Errorf("edge runtime not started")
	}
	<-e.doneCh
	return e.waitErr
}

// Run starts the runtime and blocks until the provided context is cancelled
// or a component fails.
func (e *EdgeRuntime) Run(ctx context.Context) error {
	if err := e.Start(ctx); err != nil {
		return err
	}
	return e.Wait()
}

// Shutdown stops the runtime and waits for it, bounded by ctx.
func (e *EdgeRuntime) Shutdown(ctx context.Context) error {
	if e.cancel == nil {
		e.closeResources()
		return nil
	}
	e.cancel()
	select {
	case <-e.doneCh:
		return e.waitErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Handler exposes the HTTP surface; control runs started through it are bound to ctx.
func (e *EdgeRuntime) Handler(ctx context.Context) http.Handler {
	return httpapi.NewMux(httpapi.Deps{
		Gatherer:    e.registry,
		Scenes:      e.latest,
		Raster:      e.raster,
		Stream:      e.hub,
		Alerts:      e.alerts,
		Activity:    e.feed,
		Control:     e.runner,
		BaseContext: ctx,
		Obs:         e.obs,
	})
}

// Scene returns the most recently rendered scene, or nil before the first sample.
func (e *EdgeRuntime) Scene() *Scene { return e.latest.Scene() }

// Alert returns the latched alert, or nil.
func (e *EdgeRuntime) Alert() *Alert { return e.alerts.Current() }

// Activity returns the activity feed rendered as text.
func (e *EdgeRuntime) Activity() string { return e.feed.Text() }

// Control runs the backend script in the foreground.
func (e *EdgeRuntime) Control(ctx context.Context, cmd string) (ControlOutcome, error) {
	return e.runner.Run(ctx, cmd)
}

func (e *EdgeRuntime) Registry() *prometheus.Registry { return e.registry }

func (e *EdgeRuntime) recordResourceGauges(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := e.journal.Stats()
			e.obs.SetGauge("netcandle_journal_size_bytes", float64(stats.SizeBytes))
		}
	}
}

func (e *EdgeRuntime) closeResources() {
	e.closeOnce.Do(func() {
		if e.ownJournal && e.journal != nil {
			if err := e.journal.Close(); err != nil {
				e.obs.LogWarn("journal_close_failed", err)
			}
		}
		if e.db != nil {
			if err := e.db.Close(); err != nil {
				e.obs.LogWarn("db_close_failed", err)
			}
		}
	})
}
