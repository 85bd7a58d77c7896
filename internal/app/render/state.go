package render

import (
	"encoding/binary"
	"time"

	"github.com/google/uuid"

	"github.com/ghalamif/NetCandle/internal/domain"
	"github.com/ghalamif/NetCandle/internal/ports"
)

// State is everything the render loop owns: the window, the cycle clock and
// the latched alert.
type State struct {
	Window        *Window
	CycleDuration time.Duration
	CycleStart    time.Time
	Cycle         uint64
	CycleID       uuid.UUID
	Session       uuid.UUID
	Latched       *domain.Alert
}

// Effects describes what applying one sample did to the state.
type Effects struct {
	Reset   bool
	Evicted bool
	Alert   *domain.Alert
}

func NewState(pol ports.Policy, now time.Time) State {
	st := State{
		Window:        NewWindow(pol.WindowCapacity),
		CycleDuration: pol.CycleDuration,
		CycleStart:    now,
		Session:       uuid.New(),
	}
	st.CycleID = cycleID(st.Session, st.Cycle)
	return st
}

// ShouldReset reports whether the session cycle has elapsed at now.
func ShouldReset(st State, now time.Time) bool {
	if st.CycleDuration <= 0 {
		return false
	}
	return now.Sub(st.CycleStart) > st.CycleDuration
}

// ApplySample returns the state after s arrived at now. st is left untouched.
func ApplySample(st State, s domain.Sample, now time.Time) (State, Effects) {
	next := st
	next.Window = st.Window.Clone()
	if st.Latched != nil {
		a := *st.Latched
		next.Latched = &a
	}
	eff := next.apply(s, now)
	return next, eff
}

// apply mutates st in place; the render loop uses it to skip the copy.
func (st *State) apply(s domain.Sample, now time.Time) Effects {
	var eff Effects

	if ShouldReset(*st, now) {
		st.Window.Reset()
		st.CycleStart = now
		st.Cycle++
		st.CycleID = cycleID(st.Session, st.Cycle)
		eff.Reset = true
	}

	eff.Evicted = st.Window.Push(s)

	if s.Alerting() {
		a := domain.AlertFromSample(s, now)
		st.Latched = &a
		eff.Alert = &a
	}
	return eff
}

func cycleID(session uuid.UUID, cycle uint64) uuid.UUID {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], cycle)
	return uuid.NewSHA1(session, b[:])
}
