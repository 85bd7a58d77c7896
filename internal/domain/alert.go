package domain

import "time"

// Alert is the latched anomaly shown on the inspector surface. It stays in
// place until a newer alert supersedes it.
type Alert struct {
	ID        string    `json:"alert_id"`
	Seq       uint64    `json:"seq"`
	Timestamp string    `json:"ts"`
	Score     float64   `json:"integrity_score"`
	HasScore  bool      `json:"has_score"`
	RaisedAt  time.Time `json:"raised_at"`
}

func AlertFromSample(s Sample, at time.Time) Alert {
	return Alert{
		ID:        s.AlertID,
		Seq:       s.Seq,
		Timestamp: s.Timestamp,
		Score:     s.IntegrityScore,
		HasScore:  s.HasScore,
		RaisedAt:  at,
	}
}
