package render

import (
	"time"

	"github.com/ghalamif/NetCandle/internal/domain"
	"github.com/ghalamif/NetCandle/internal/ports"
)

// Renderer owns the render state and turns each sample into a fresh scene.
// It must only be driven from a single goroutine.
type Renderer struct {
	st               State
	anomalyThreshold float64
	scoreThreshold   float64
	now              func() time.Time
}

func NewRenderer(pol ports.Policy, now func() time.Time) *Renderer {
	if now == nil {
		now = time.Now
	}
	return &Renderer{
		st:               NewState(pol, now()),
		anomalyThreshold: pol.AnomalyThreshold,
		scoreThreshold:   pol.ScoreThreshold,
		now:              now,
	}
}

// Restore re-latches an alert recovered from the journal.
func (r *Renderer) Restore(a domain.Alert) {
	r.st.Latched = &a
}

// Apply runs one sample through reset, append and latch, then rebuilds the scene.
func (r *Renderer) Apply(s domain.Sample) (*domain.Scene, Effects) {
	now := r.now()
	eff := r.st.apply(s, now)
	return BuildScene(r.st, s, eff, r.anomalyThreshold, r.scoreThreshold, now), eff
}

func (r *Renderer) Latched() (domain.Alert, bool) {
	if r.st.Latched == nil {
		return domain.Alert{}, false
	}
	return *r.st.Latched, true
}

func (r *Renderer) WindowLen() int { return r.st.Window.Len() }
