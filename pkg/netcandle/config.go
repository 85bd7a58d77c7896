package netcandle

import (
	"github.com/ghalamif/NetCandle/internal/adapters/control"
	"github.com/ghalamif/NetCandle/internal/adapters/fifo"
	"github.com/ghalamif/NetCandle/internal/adapters/natsrc"
	"github.com/ghalamif/NetCandle/internal/app/config"
	"github.com/ghalamif/NetCandle/internal/ports"
)

// Config re-exports the root configuration struct so downstream projects can
// construct or modify it programmatically.
type Config = config.Config

type (
	// Policy controls the window, cycle and anomaly thresholds.
	Policy = ports.Policy
	// SourceConfig describes the telemetry named pipe.
	SourceConfig = fifo.Config
	// NATSConfig enables the optional NATS telemetry source.
	NATSConfig = natsrc.Config
	// ControlConfig points at the backend control script.
	ControlConfig = control.Config
	// ActivityConfig configures the log tail behind the activity feed.
	ActivityConfig = config.ActivityConfig
	// JournalConfig configures the on-disk alert journal.
	JournalConfig = config.JournalConfig
	// TimescaleConfig configures the optional sample archive.
	TimescaleConfig = config.TimescaleConfig
	// MetricsConfig configures the HTTP server.
	MetricsConfig = config.MetricsConfig
	RasterConfig  = config.RasterConfig
	LogConfig     = config.LogConfig
)

// LoadConfig loads YAML from disk using the internal config reader.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}

// DefaultConfig returns a Config with every default applied.
func DefaultConfig() *Config {
	return config.Default()
}
