package domain

import "time"

// NoAlert is the alert_id sentinel the backend writes when nothing is wrong.
const NoAlert = "NONE"

// Sample is one coerced telemetry record as emitted by the integrity backend.
type Sample struct {
	Seq            uint64    `json:"seq"`
	Timestamp      string    `json:"ts"`
	TxRate         float64   `json:"tx_rate"`
	RxRate         float64   `json:"rx_rate"`
	IntegrityScore float64   `json:"integrity_score"`
	HasScore       bool      `json:"has_score"`
	AlertID        string    `json:"alert_id"`
	ReceivedAt     time.Time `json:"received_at"`
}

// Alerting reports whether the backend tagged the sample with an anomaly class.
func (s Sample) Alerting() bool {
	return s.AlertID != NoAlert
}
