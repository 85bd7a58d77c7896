package natsrc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/ghalamif/NetCandle/internal/adapters/lineproto"
	"github.com/ghalamif/NetCandle/internal/domain"
	"github.com/ghalamif/NetCandle/internal/ports"
)

// Config points the collector at a NATS subject carrying telemetry lines.
type Config struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
	Queue   string `yaml:"queue"`
}

func (c *Config) Enabled() bool { return c.URL != "" }

func (c *Config) ApplyDefaults() {
	if c.Subject == "" {
		c.Subject = "lkim.telemetry"
	}
}

func (c *Config) Validate() error {
	if c.URL != "" && c.Subject == "" {
		return errors.New("subject is required")
	}
	return nil
}

// Collector subscribes to a subject; each message may hold several
// newline-separated lines. Messages are handled one at a time by the client's
// dispatcher, which keeps arrival order.
type Collector struct {
	cfg      Config
	splitter *lineproto.Splitter
	obs      ports.Observability

	mu      sync.Mutex
	nc      *nats.Conn
	sub     *nats.Subscription
	ctx     context.Context
	cancel  context.CancelFunc
	out     chan<- *domain.Record
	started bool
}

func NewCollector(cfg Config, sp *lineproto.Splitter, obs ports.Observability) (*Collector, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if sp == nil {
		return nil, errors.New("splitter is required")
	}
	return &Collector{cfg: cfg, splitter: sp, obs: obs}, nil
}

func (c *Collector) Name() string { return "nats:" + c.cfg.Subject }

func (c *Collector) Start(out chan<- *domain.Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return fmt.Errorf("nats collector already started")
	}

	nc, err := nats.Connect(c.cfg.URL,
		nats.Name("netcandle"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				c.obs.LogWarn("nats_disconnected", fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			c.obs.IncCounter("netcandle_source_retries_total", 1)
			c.obs.LogInfo("nats_reconnected", ports.Field{Key: "url", Value: nc.ConnectedUrl()})
		}),
	)
	if err != nil {
		return fmt.Errorf("nats connect: %w", err)
	}

	c.ctx, c.cancel = context.WithCancel(context.Background())
	c.out = out

	var sub *nats.Subscription
	if c.cfg.Queue != "" {
		sub, err = nc.QueueSubscribe(c.cfg.Subject, c.cfg.Queue, c.HandleMsg)
	} else {
		sub, err = nc.Subscribe(c.cfg.Subject, c.HandleMsg)
	}
	if err != nil {
		c.cancel()
		nc.Close()
		return fmt.Errorf("nats subscribe %q: %w", c.cfg.Subject, err)
	}

	c.nc = nc
	c.sub = sub
	c.started = true
	return nil
}

// HandleMsg feeds every line of a message through the shared line contract.
func (c *Collector) HandleMsg(msg *nats.Msg) {
	if msg == nil {
		return
	}
	c.mu.Lock()
	ctx, out := c.ctx, c.out
	c.mu.Unlock()
	if ctx == nil || out == nil {
		return
	}

	for _, line := range strings.SplitAfter(string(msg.Data), "\n") {
		if line == "" {
			continue
		}
		if !lineproto.Handle(ctx, c.splitter, line, out, c.obs, c.Name()) {
			return
		}
	}
}

func (c *Collector) Stop() error {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return nil
	}
	c.started = false
	cancel, sub, nc := c.cancel, c.sub, c.nc
	c.sub, c.nc = nil, nil
	c.mu.Unlock()

	cancel()
	var err error
	if sub != nil {
		if e := sub.Unsubscribe(); e != nil && !errors.Is(e, nats.ErrConnectionClosed) {
			err = errors.Join(err, e)
		}
	}
	if nc != nil {
		nc.Close()
	}
	return err
}

// bind wires ctx/out without a connection; used by tests.
func (c *Collector) bind(ctx context.Context, out chan<- *domain.Record) {
	c.mu.Lock()
	c.ctx, c.out = ctx, out
	c.mu.Unlock()
}

var _ ports.Collector = (*Collector)(nil)
