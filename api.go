package netcandle

import (
	"log/slog"
	"time"

	base "github.com/ghalamif/NetCandle/pkg/netcandle"
)

// Re-exported errors for convenience.
var (
	ErrMalformedLine     = base.ErrMalformedLine
	ErrCoercion          = base.ErrCoercion
	ErrSourceUnavailable = base.ErrSourceUnavailable
	ErrBusy              = base.ErrBusy
	ErrNotExecutable     = base.ErrNotExecutable
	ErrChannelSinkClosed = base.ErrChannelSinkClosed
	ErrPublisherStopped  = base.ErrPublisherStopped
)

const (
	Schema5 = base.Schema5
	Schema4 = base.Schema4
)

// Type aliases so consumers can import github.com/ghalamif/NetCandle directly.
type (
	Config            = base.Config
	Policy            = base.Policy
	SourceConfig      = base.SourceConfig
	NATSConfig        = base.NATSConfig
	ControlConfig     = base.ControlConfig
	ActivityConfig    = base.ActivityConfig
	JournalConfig     = base.JournalConfig
	TimescaleConfig   = base.TimescaleConfig
	MetricsConfig     = base.MetricsConfig
	Flow              = base.Flow
	FlowOption        = base.FlowOption
	StreamInOption    = base.StreamInOption
	StreamOutOption   = base.StreamOutOption
	EdgeRuntime       = base.EdgeRuntime
	EdgeRuntimeOption = base.EdgeRuntimeOption
	Schema            = base.Schema
	Record            = base.Record
	Sample            = base.Sample
	Scene             = base.Scene
	Candle            = base.Candle
	Alert             = base.Alert
	ControlOutcome    = base.ControlOutcome
	SceneHandler      = base.SceneHandler
	Collector         = base.Collector
	Sink              = base.Sink
	Journal           = base.Journal
	Observability     = base.Observability
	Publisher         = base.Publisher
)

// Config helpers.
func LoadConfig(path string) (*Config, error) {
	return base.LoadConfig(path)
}

func DefaultConfig() *Config {
	return base.DefaultConfig()
}

// Flow builder helpers.
func Conf(path string, opts ...FlowOption) (*Flow, error) {
	return base.Conf(path, opts...)
}

func ConfFromConfig(cfg *Config, opts ...FlowOption) (*Flow, error) {
	return base.ConfFromConfig(cfg, opts...)
}

func WithFlowOptions(opts ...EdgeRuntimeOption) FlowOption {
	return base.WithFlowOptions(opts...)
}

func StreamInCollector(col Collector) StreamInOption {
	return base.StreamInCollector(col)
}

func StreamInPublisher(p *Publisher) StreamInOption {
	return base.StreamInPublisher(p)
}

func StreamInJournal(j Journal) StreamInOption {
	return base.StreamInJournal(j)
}

func StreamInObservability(obs Observability) StreamInOption {
	return base.StreamInObservability(obs)
}

func StreamOutSink(s Sink) StreamOutOption {
	return base.StreamOutSink(s)
}

func StreamOutObservability(obs Observability) StreamOutOption {
	return base.StreamOutObservability(obs)
}

func StreamOutCallback(name string, fn SceneHandler) StreamOutOption {
	return base.StreamOutCallback(name, fn)
}

// Edge runtime and options.
func NewEdgeRuntime(cfg *Config, opts ...EdgeRuntimeOption) (*EdgeRuntime, error) {
	return base.NewEdgeRuntime(cfg, opts...)
}

func WithCollector(col Collector) EdgeRuntimeOption {
	return base.WithCollector(col)
}

func WithSink(s Sink) EdgeRuntimeOption {
	return base.WithSink(s)
}

func WithJournal(j Journal) EdgeRuntimeOption {
	return base.WithJournal(j)
}

func WithObservability(obs Observability) EdgeRuntimeOption {
	return base.WithObservability(obs)
}

func WithLogger(l *slog.Logger) EdgeRuntimeOption {
	return base.WithLogger(l)
}

func WithClock(now func() time.Time) EdgeRuntimeOption {
	return base.WithClock(now)
}

// Sink adapters.
func NewCallbackSink(name string, fn SceneHandler) Sink {
	return base.NewCallbackSink(name, fn)
}

func NewChannelSink(name string, buffer int) (Sink, <-chan *Scene, func()) {
	return base.NewChannelSink(name, buffer)
}

// In-process telemetry source.
func NewPublisher(schema Schema) *Publisher {
	return base.NewPublisher(schema)
}
