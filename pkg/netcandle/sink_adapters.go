package netcandle

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ghalamif/NetCandle/internal/domain"
)

// ErrChannelSinkClosed is returned when a channel sink is written to after being closed.
var ErrChannelSinkClosed = errors.New("netcandle: channel sink closed")

// SceneHandler is invoked with every rebuilt scene, in order.
type SceneHandler func(*Scene) error

// NewCallbackSink adapts a SceneHandler into a full Sink implementation so callers
// can plug arbitrary functions without defining structs.
func NewCallbackSink(name string, fn SceneHandler) Sink {
	if name == "" {
		name = "callback"
	}
	return &callbackSink{name: name, fn: fn}
}

// NewChannelSink exposes scenes via a channel; it returns the sink, the read-only channel,
// and a close function that the caller should invoke during shutdown. A full
// channel blocks the render loop, so size the buffer or drain it promptly.
func NewChannelSink(name string, buffer int) (Sink, <-chan *Scene, func()) {
	if name == "" {
		name = "channel"
	}
	if buffer < 0 {
		buffer = 0
	}
	ch := make(chan *Scene, buffer)
	s := &channelSink{
		name:   name,
		ch:     ch,
		closed: make(chan struct{}),
	}
	return s, ch, func() { s.close() }
}

type callbackSink struct {
	name string
	fn   SceneHandler
}

func (s *callbackSink) Publish(scene *domain.Scene) error {
	if s.fn == nil {
		return fmt.Errorf("callback sink %q: nil handler", s.name)
	}
	if scene == nil {
		return nil
	}
	return s.fn(scene)
}

func (s *callbackSink) Name() string { return s.name }

type channelSink struct {
	name   string
	ch     chan *Scene
	closed chan struct{}
	once   sync.Once
	mu     sync.RWMutex
	done   bool
}

func (s *channelSink) Publish(scene *domain.Scene) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.done {
		return ErrChannelSinkClosed
	}
	if scene == nil {
		return nil
	}

	select {
	case <-s.closed:
		return ErrChannelSinkClosed
	case s.ch <- scene:
		return nil
	}
}

func (s *channelSink) Name() string { return s.name }

func (s *channelSink) close() {
	s.once.Do(func() {
		// wake a Publish blocked on a full channel before taking the write lock
		close(s.closed)
		s.mu.Lock()
		s.done = true
		close(s.ch)
		s.mu.Unlock()
	})
}
