package render

import "github.com/ghalamif/NetCandle/internal/domain"

// WindowState is the fill state of a Window.
type WindowState int

const (
	Empty WindowState = iota
	Filling
	Full
)

func (s WindowState) String() string {
	switch s {
	case Empty:
		return "empty"
	case Filling:
		return "filling"
	case Full:
		return "full"
	default:
		return "unknown"
	}
}

// Window is a bounded FIFO of samples that evicts the oldest entry once full.
// It is owned by the render loop and is not safe for concurrent use.
type Window struct {
	data []domain.Sample
	cap  int
}

func NewWindow(capacity int) *Window {
	if capacity < 1 {
		capacity = 1
	}
	return &Window{
		data: make([]domain.Sample, 0, capacity),
		cap:  capacity,
	}
}

// Push appends s and reports whether the oldest sample had to be evicted.
func (w *Window) Push(s domain.Sample) bool {
	evicted := false
	if len(w.data) >= w.cap {
		w.data = append(w.data[:0], w.data[1:]...)
		evicted = true
	}
	w.data = append(w.data, s)
	return evicted
}

// Reset drops every sample at once.
func (w *Window) Reset() {
	w.data = w.data[:0]
}

// Samples returns the window contents, oldest first.
func (w *Window) Samples() []domain.Sample {
	out := make([]domain.Sample, len(w.data))
	copy(out, w.data)
	return out
}

func (w *Window) Len() int { return len(w.data) }

func (w *Window) Cap() int { return w.cap }

func (w *Window) State() WindowState {
	switch {
	case len(w.data) == 0:
		return Empty
	case len(w.data) < w.cap:
		return Filling
	default:
		return Full
	}
}

// Clone returns an independent copy.
func (w *Window) Clone() *Window {
	c := &Window{data: make([]domain.Sample, len(w.data), w.cap), cap: w.cap}
	copy(c.data, w.data)
	return c
}
