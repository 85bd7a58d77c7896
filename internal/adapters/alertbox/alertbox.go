package alertbox

import (
	"sync"

	"github.com/ghalamif/NetCandle/internal/domain"
	"github.com/ghalamif/NetCandle/internal/ports"
)

// Box holds the latched alert for readers outside the render loop.
type Box struct {
	mu      sync.RWMutex
	current *domain.Alert
	raised  uint64
}

func New() *Box { return &Box{} }

func (b *Box) Raise(a domain.Alert) {
	b.mu.Lock()
	b.current = &a
	b.raised++
	b.mu.Unlock()
}

// Current returns a copy of the latched alert, or nil if nothing was raised.
func (b *Box) Current() *domain.Alert {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.current == nil {
		return nil
	}
	a := *b.current
	return &a
}

func (b *Box) Raised() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.raised
}

var _ ports.AlertSurface = (*Box)(nil)
