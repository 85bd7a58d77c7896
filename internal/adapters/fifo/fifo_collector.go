package fifo

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/ghalamif/NetCandle/internal/adapters/lineproto"
	"github.com/ghalamif/NetCandle/internal/domain"
	"github.com/ghalamif/NetCandle/internal/ports"
)

// Config describes the named pipe the backend writes telemetry to.
type Config struct {
	Path            string        `yaml:"path"`
	CreateIfMissing bool          `yaml:"create_fifo"`
	RetryBackoff    time.Duration `yaml:"retry_backoff"`
}

func (c *Config) ApplyDefaults() {
	if c.Path == "" {
		c.Path = "/tmp/lkim_telemetry.fifo"
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = 100 * time.Millisecond
	}
}

func (c *Config) Validate() error {
	if c.Path == "" {
		return errors.New("path is required")
	}
	return nil
}

// OpenFunc opens the telemetry source. It is swapped out in tests.
type OpenFunc func(path string) (io.ReadCloser, error)

type Option func(*Collector)

func WithOpener(open OpenFunc) Option {
	return func(c *Collector) {
		if open != nil {
			c.open = open
		}
	}
}

// Collector reads the named pipe line by line. When the pipe is missing or the
// writer goes away it waits RetryBackoff and opens it again, forever.
type Collector struct {
	cfg      Config
	splitter *lineproto.Splitter
	obs      ports.Observability
	open     OpenFunc

	mu      sync.Mutex
	cancel  context.CancelFunc
	current io.Closer
	started bool
	wg      sync.WaitGroup
}

func NewCollector(cfg Config, sp *lineproto.Splitter, obs ports.Observability, opts ...Option) (*Collector, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if sp == nil {
		return nil, errors.New("splitter is required")
	}
	c := &Collector{
		cfg:      cfg,
		splitter: sp,
		obs:      obs,
		open:     openReadOnly,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Collector) Name() string { return "fifo:" + c.cfg.Path }

func (c *Collector) Start(out chan<- *domain.Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return fmt.Errorf("fifo collector already started")
	}

	if c.cfg.CreateIfMissing {
		if err := ensureFIFO(c.cfg.Path); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.started = true

	c.wg.Add(1)
	go c.run(ctx, out)
	return nil
}

func (c *Collector) Stop() error {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return nil
	}
	c.started = false
	c.cancel()
	if c.current != nil {
		_ = c.current.Close()
	}
	c.mu.Unlock()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	// A reader blocked in open(2) on a FIFO only returns once a writer shows up.
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		unblockOpen(c.cfg.Path)
		select {
		case <-done:
			return nil
		case <-ticker.C:
		}
	}
}

func (c *Collector) run(ctx context.Context, out chan<- *domain.Record) {
	defer c.wg.Done()

	for ctx.Err() == nil {
		r, err := c.open(c.cfg.Path)
		if err != nil {
			c.reportOpenError(err)
			if !sleepCtx(ctx, c.cfg.RetryBackoff) {
				return
			}
			continue
		}
		if !c.track(r) {
			_ = r.Close()
			return
		}

		c.obs.LogDebug("fifo_opened", ports.Field{Key: "path", Value: c.cfg.Path})
		err = c.drain(ctx, r, out)
		c.untrack()
		_ = r.Close()

		if err != nil && ctx.Err() == nil {
			c.obs.LogWarn("fifo_read_failed", err, ports.Field{Key: "path", Value: c.cfg.Path})
		}
		if !sleepCtx(ctx, c.cfg.RetryBackoff) {
			return
		}
	}
}

// drain reads until EOF; a trailing line without a newline is still handled.
func (c *Collector) drain(ctx context.Context, r io.Reader, out chan<- *domain.Record) error {
	br := bufio.NewReaderSize(r, 64<<10)
	for {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			if !lineproto.Handle(ctx, c.splitter, line, out, c.obs, c.Name()) {
				return nil
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, os.ErrClosed) {
				return nil
			}
			return err
		}
	}
}

func (c *Collector) reportOpenError(err error) {
	c.obs.IncCounter("netcandle_source_retries_total", 1)
	if errors.Is(err, fs.ErrNotExist) {
		c.obs.LogDebug("source_unavailable",
			ports.Field{Key: "path", Value: c.cfg.Path},
			ports.Field{Key: "err", Value: fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err).Error()})
		return
	}
	c.obs.LogError("fifo_open_failed", fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err), ports.Field{Key: "path", Value: c.cfg.Path})
}

func (c *Collector) track(r io.Closer) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started {
		return false
	}
	c.current = r
	return true
}

func (c *Collector) untrack() {
	c.mu.Lock()
	c.current = nil
	c.mu.Unlock()
}

func openReadOnly(path string) (io.ReadCloser, error) {
	return os.OpenFile(path, os.O_RDONLY, 0)
}

func ensureFIFO(path string) error {
	info, err := os.Stat(path)
	if err == nil {
		if info.Mode()&fs.ModeNamedPipe == 0 {
			return fmt.Errorf("%s exists and is not a named pipe", path)
		}
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if err := unix.Mkfifo(path, 0o600); err != nil && !errors.Is(err, unix.EEXIST) {
		return fmt.Errorf("mkfifo %s: %w", path, err)
	}
	return nil
}

// unblockOpen briefly opens the write end so a pending read-side open returns.
// It fails harmlessly with ENXIO when no reader is waiting.
func unblockOpen(path string) {
	fd, err := unix.Open(path, unix.O_WRONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return
	}
	_ = unix.Close(fd)
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

var _ ports.Collector = (*Collector)(nil)
