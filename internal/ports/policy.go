package ports

import (
	"time"

	"github.com/ghalamif/NetCandle/internal/domain"
)

// Policy tunes the window and the hand-off between ingestor and renderer.
type Policy struct {
	Schema           domain.Schema `yaml:"schema"`
	WindowCapacity   int           `yaml:"window_capacity"`
	CycleDuration    time.Duration `yaml:"cycle_duration"`
	AnomalyThreshold float64       `yaml:"anomaly_threshold"`
	ScoreThreshold   float64       `yaml:"score_threshold"`
	ChannelBuffer    int           `yaml:"channel_buffer"`
}
