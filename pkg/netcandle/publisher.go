package netcandle

import (
	"context"
	"errors"
	"sync"

	"github.com/ghalamif/NetCandle/internal/adapters/lineproto"
	"github.com/ghalamif/NetCandle/internal/adapters/observability"
	"github.com/ghalamif/NetCandle/internal/domain"
	"github.com/ghalamif/NetCandle/internal/ports"
)

// ErrPublisherStopped is returned by Publish once the runtime stopped the publisher.
var ErrPublisherStopped = errors.New("netcandle: publisher stopped")

// Publisher is an in-process telemetry source. Lines passed to Publish go
// through the same arity check as lines read from the pipe.
type Publisher struct {
	sp  *lineproto.Splitter
	obs ports.Observability

	mu       sync.Mutex
	out      chan<- *domain.Record
	started  bool
	ready    chan struct{}
	stop     chan struct{}
	stopOnce sync.Once
}

func NewPublisher(schema Schema) *Publisher {
	return &Publisher{
		sp:    lineproto.NewSplitter(schema),
		obs:   observability.Nop{},
		ready: make(chan struct{}),
		stop:  make(chan struct{}),
	}
}

func (p *Publisher) Name() string { return "publisher" }

func (p *Publisher) Start(out chan<- *domain.Record) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return errors.New("publisher already started")
	}
	p.started = true
	p.out = out
	close(p.ready)
	return nil
}

func (p *Publisher) Stop() error {
	p.stopOnce.Do(func() { close(p.stop) })
	return nil
}

// Publish hands one line to the render loop. It waits for the runtime to start
// and for channel space, never for the scene rebuild itself.
func (p *Publisher) Publish(ctx context.Context, line string) error {
	select {
	case <-p.stop:
		return ErrPublisherStopped
	default:
	}

	select {
	case <-p.ready:
	case <-p.stop:
		return ErrPublisherStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	rec, err := p.sp.Split(line)
	if err != nil {
		p.obs.IncCounter("netcandle_lines_malformed_total", 1)
		p.obs.LogDebug("line_malformed", ports.Field{Key: "source", Value: p.Name()}, ports.Field{Key: "err", Value: err.Error()})
		return err
	}

	select {
	case p.out <- rec:
		p.obs.IncCounter("netcandle_records_accepted_total", 1)
		return nil
	case <-p.stop:
		return ErrPublisherStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// attach shares the runtime's splitter, so sequence numbers stay unique across
// sources, and its observability. It must run before Start.
func (p *Publisher) attach(sp *lineproto.Splitter, obs ports.Observability) {
	if sp != nil {
		p.sp = sp
	}
	if obs != nil {
		p.obs = obs
	}
}

var _ ports.Collector = (*Publisher)(nil)
