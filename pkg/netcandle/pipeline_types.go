package netcandle

import (
	"github.com/ghalamif/NetCandle/internal/domain"
	"github.com/ghalamif/NetCandle/internal/ports"
)

// Record is an arity-checked telemetry line on its way to the renderer.
type Record = domain.Record

// Schema selects the 5-field or the legacy 4-field line layout.
type Schema = domain.Schema

const (
	Schema5 = domain.Schema5
	Schema4 = domain.Schema4
)

// Sample is one decoded telemetry reading.
type Sample = domain.Sample

// Scene is the visual description rebuilt after every accepted sample.
type Scene = domain.Scene

type (
	Candle = domain.Candle
	Wick   = domain.Wick
	Plane  = domain.Plane
)

// Alert is the latched anomaly.
type Alert = domain.Alert

// ControlOutcome describes one finished control script run.
type ControlOutcome = domain.ControlOutcome

// Collector streams records from any telemetry source into the render loop.
type Collector = ports.Collector

// Sink receives every rebuilt scene.
type Sink = ports.Sink

// Observability emits metrics and structured logs.
type Observability = ports.Observability

// Field is a structured log field used by Observability implementations.
type Field = ports.Field

// Journal persists latched alerts and control outcomes.
type Journal = ports.Journal

type (
	JournalEntry = domain.JournalEntry
	JournalStats = ports.JournalStats
	EntryID      = ports.EntryID
)

// Error taxonomy.
var (
	ErrMalformedLine     = domain.ErrMalformedLine
	ErrCoercion          = domain.ErrCoercion
	ErrSourceUnavailable = domain.ErrSourceUnavailable
	ErrBusy              = domain.ErrBusy
	ErrNotExecutable     = domain.ErrNotExecutable
)
