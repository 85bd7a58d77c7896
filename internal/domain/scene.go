package domain

import "time"

// Wick is the secondary marker drawn on anomalous candles.
type Wick struct {
	// Base is where the wick starts: the tip of the dominant bar.
	Base float64 `json:"base"`
	// Length is signed in the same direction as the bar it extends.
	Length   float64 `json:"length"`
	Severity float64 `json:"severity"`
}

// Candle is the visual encoding of one window slot.
type Candle struct {
	Index     int     `json:"index"`
	Seq       uint64  `json:"seq"`
	Timestamp string  `json:"ts"`
	TxBar     float64 `json:"tx_bar"`
	RxBar     float64 `json:"rx_bar"`
	Score     float64 `json:"score"`
	HasScore  bool    `json:"has_score"`
	AlertID   string  `json:"alert_id"`
	Anomalous bool    `json:"anomalous"`
	Wick      *Wick   `json:"wick,omitempty"`
}

// Plane is a static reference plane spanning the visible window.
type Plane struct {
	Level float64 `json:"level"`
	From  float64 `json:"from"`
	To    float64 `json:"to"`
}

// Scene is rebuilt from scratch from the window on every accepted sample.
type Scene struct {
	Cycle      uint64    `json:"cycle"`
	CycleID    string    `json:"cycle_id"`
	CycleStart time.Time `json:"cycle_start"`
	Capacity   int       `json:"capacity"`
	Candles    []Candle  `json:"candles"`
	Planes     []Plane   `json:"planes"`
	Trigger    Sample    `json:"trigger"`
	Reset      bool      `json:"reset"`
	BuiltAt    time.Time `json:"built_at"`
}
