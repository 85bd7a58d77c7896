package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ghalamif/NetCandle/internal/adapters/activity"
	"github.com/ghalamif/NetCandle/internal/adapters/control"
	"github.com/ghalamif/NetCandle/internal/adapters/fifo"
	"github.com/ghalamif/NetCandle/internal/adapters/natsrc"
	"github.com/ghalamif/NetCandle/internal/adapters/tail"
	"github.com/ghalamif/NetCandle/internal/domain"
	"github.com/ghalamif/NetCandle/internal/ports"
)

type Config struct {
	Policy    ports.Policy    `yaml:"policy"`
	Source    fifo.Config     `yaml:"source"`
	NATS      natsrc.Config   `yaml:"nats"`
	Control   control.Config  `yaml:"control"`
	Activity  ActivityConfig  `yaml:"activity"`
	Journal   JournalConfig   `yaml:"journal"`
	Timescale TimescaleConfig `yaml:"timescale"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Raster    RasterConfig    `yaml:"raster"`
	Log       LogConfig       `yaml:"log"`
}

// TimescaleConfig enables the sample archive when ConnString is set.
type TimescaleConfig struct {
	ConnString  string `yaml:"conn_string"`
	Table       string `yaml:"table"`
	CreateTable bool   `yaml:"create_table"`
}

func (t TimescaleConfig) Enabled() bool { return t.ConnString != "" }

// MetricsConfig is the listen address of the HTTP surface (metrics, scene, control).
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

type ActivityConfig struct {
	Path     string `yaml:"path"`
	MaxLines int    `yaml:"max_lines"`
}

type JournalConfig struct {
	Dir string `yaml:"dir"`
}

type RasterConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

type LogConfig struct {
	Level   string `yaml:"level"`
	NoColor bool   `yaml:"no_color"`
}

func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var cfg Config
	cfg.ApplyDefaults()
	return &cfg
}

func (c *Config) ApplyDefaults() {
	if c.Policy.Schema == 0 {
		c.Policy.Schema = domain.Schema5
	}
	if c.Policy.WindowCapacity == 0 {
		c.Policy.WindowCapacity = 40
	}
	if c.Policy.CycleDuration == 0 {
		c.Policy.CycleDuration = 5 * time.Minute
	}
	if c.Policy.AnomalyThreshold == 0 {
		c.Policy.AnomalyThreshold = 250
	}
	if c.Policy.ScoreThreshold == 0 {
		c.Policy.ScoreThreshold = 80
	}
	if c.Policy.ChannelBuffer == 0 {
		c.Policy.ChannelBuffer = 256
	}
	if c.Control.Script == "" {
		c.Control.Script = control.DefaultScript
	}
	if c.Activity.Path == "" {
		c.Activity.Path = tail.DefaultPath
	}
	if c.Activity.MaxLines == 0 {
		c.Activity.MaxLines = activity.DefaultMaxLines
	}
	if c.Journal.Dir == "" {
		c.Journal.Dir = "./data/journal"
	}
	if c.Timescale.Table == "" {
		c.Timescale.Table = "netcandle_samples"
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9100"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	c.Source.ApplyDefaults()
	c.NATS.ApplyDefaults()
}

func (c *Config) Validate() error {
	if !c.Policy.Schema.Valid() {
		return fmt.Errorf("policy.schema must be 4 or 5, got %d", c.Policy.Schema)
	}
	if c.Policy.WindowCapacity < 1 {
		return fmt.Errorf("policy.window_capacity must be positive, got %d", c.Policy.WindowCapacity)
	}
	if c.Policy.CycleDuration < 0 {
		return fmt.Errorf("policy.cycle_duration must not be negative")
	}
	if c.Policy.AnomalyThreshold < 0 {
		return fmt.Errorf("policy.anomaly_threshold must not be negative")
	}
	if c.Policy.ChannelBuffer < 0 {
		return fmt.Errorf("policy.channel_buffer must not be negative")
	}
	if err := c.Source.Validate(); err != nil {
		return fmt.Errorf("source config: %w", err)
	}
	if err := c.NATS.Validate(); err != nil {
		return fmt.Errorf("nats config: %w", err)
	}
	if c.Control.Timeout < 0 {
		return fmt.Errorf("control.timeout must not be negative")
	}
	if c.Metrics.Addr == "" {
		return fmt.Errorf("metrics.addr is required")
	}
	if c.Journal.Dir == "" {
		return fmt.Errorf("journal.dir is required")
	}
	return nil
}
