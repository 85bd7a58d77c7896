package sink

import (
	"sync"

	"github.com/ghalamif/NetCandle/internal/domain"
	"github.com/ghalamif/NetCandle/internal/ports"
)

// Latest keeps the most recent scene for readers that poll, such as HTTP handlers.
type Latest struct {
	mu    sync.RWMutex
	scene *domain.Scene
}

func NewLatest() *Latest { return &Latest{} }

func (l *Latest) Name() string { return "latest" }

func (l *Latest) Publish(scene *domain.Scene) error {
	l.mu.Lock()
	l.scene = scene
	l.mu.Unlock()
	return nil
}

// Scene returns the last published scene or nil. Scenes are never mutated
// after publication, so callers may share the pointer.
func (l *Latest) Scene() *domain.Scene {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.scene
}

var _ ports.Sink = (*Latest)(nil)
