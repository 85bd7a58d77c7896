package render

import (
	"math"

	"github.com/ghalamif/NetCandle/internal/domain"
)

// wickFloor keeps the wick of a barely anomalous sample visible.
const wickFloor = 0.25

// IsAnomalous reports whether a sample gets an anomaly marker: either the
// backend tagged it, or its integrity score fell below scoreThreshold.
func IsAnomalous(s domain.Sample, scoreThreshold float64) bool {
	if s.Alerting() {
		return true
	}
	return s.HasScore && scoreThreshold > 0 && s.IntegrityScore < scoreThreshold
}

// Severity maps a sample to [0,1]. Scores below the threshold scale linearly
// towards 1 at score 0; a tagged sample without a usable score counts as 1.
func Severity(s domain.Sample, scoreThreshold float64) float64 {
	if s.HasScore && scoreThreshold > 0 {
		sev := (scoreThreshold - s.IntegrityScore) / scoreThreshold
		sev = math.Max(0, math.Min(1, sev))
		if sev == 0 && s.Alerting() {
			return 0.5
		}
		return sev
	}
	if s.Alerting() {
		return 1
	}
	return 0
}

// WickFor returns the wick of an anomalous sample, or nil. The wick grows out
// of the tip of the dominant bar, in that bar's direction.
func WickFor(s domain.Sample, scoreThreshold float64) *domain.Wick {
	if !IsAnomalous(s, scoreThreshold) {
		return nil
	}
	sev := Severity(s, scoreThreshold)

	magnitude := math.Max(s.TxRate, s.RxRate)
	if magnitude == 0 {
		magnitude = 1
	}
	length := magnitude * (wickFloor + sev)

	if s.TxRate >= s.RxRate {
		return &domain.Wick{Base: s.TxRate, Length: length, Severity: sev}
	}
	return &domain.Wick{Base: -s.RxRate, Length: -length, Severity: sev}
}
