package render

import (
	"time"

	"github.com/ghalamif/NetCandle/internal/domain"
)

// BuildScene recomputes every candle and reference plane from the window.
func BuildScene(st State, trigger domain.Sample, eff Effects, anomalyThreshold, scoreThreshold float64, now time.Time) *domain.Scene {
	samples := st.Window.Samples()

	candles := make([]domain.Candle, len(samples))
	for i, s := range samples {
		candles[i] = domain.Candle{
			Index:     i,
			Seq:       s.Seq,
			Timestamp: s.Timestamp,
			TxBar:     s.TxRate,
			RxBar:     -s.RxRate,
			Score:     s.IntegrityScore,
			HasScore:  s.HasScore,
			AlertID:   s.AlertID,
			Anomalous: IsAnomalous(s, scoreThreshold),
			Wick:      WickFor(s, scoreThreshold),
		}
	}

	var planes []domain.Plane
	if anomalyThreshold > 0 {
		width := float64(len(samples))
		planes = []domain.Plane{
			{Level: anomalyThreshold, From: 0, To: width},
			{Level: -anomalyThreshold, From: 0, To: width},
		}
	}

	return &domain.Scene{
		Cycle:      st.Cycle,
		CycleID:    st.CycleID.String(),
		CycleStart: st.CycleStart,
		Capacity:   st.Window.Cap(),
		Candles:    candles,
		Planes:     planes,
		Trigger:    trigger,
		Reset:      eff.Reset,
		BuiltAt:    now,
	}
}
