// Package lineproto holds the tab-separated line contract shared by every
// telemetry source.
package lineproto

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/ghalamif/NetCandle/internal/domain"
	"github.com/ghalamif/NetCandle/internal/ports"
)

// Splitter arity-checks lines and stamps accepted ones with a sequence number.
// One Splitter may be shared by several sources so sequence numbers stay unique.
type Splitter struct {
	schema domain.Schema
	seq    atomic.Uint64
	now    func() time.Time
}

func NewSplitter(schema domain.Schema) *Splitter {
	if !schema.Valid() {
		schema = domain.Schema5
	}
	return &Splitter{schema: schema, now: time.Now}
}

func (s *Splitter) Schema() domain.Schema { return s.schema }

// Split returns a Record for a well-formed line or an error wrapping
// domain.ErrMalformedLine. Rejected lines do not consume a sequence number.
func (s *Splitter) Split(line string) (*domain.Record, error) {
	fields, err := domain.SplitLine(line, s.schema)
	if err != nil {
		return nil, err
	}
	return &domain.Record{
		Seq:        s.seq.Add(1),
		Schema:     s.schema,
		Fields:     fields,
		ReceivedAt: s.now(),
	}, nil
}

// Handle splits line and delivers the record to out. It returns false only
// when ctx was cancelled while waiting for room in out.
func Handle(ctx context.Context, sp *Splitter, line string, out chan<- *domain.Record, obs ports.Observability, source string) bool {
	rec, err := sp.Split(line)
	if err != nil {
		if errors.Is(err, domain.ErrMalformedLine) {
			obs.IncCounter("netcandle_lines_malformed_total", 1)
			obs.LogDebug("line_dropped", ports.Field{Key: "source", Value: source}, ports.Field{Key: "reason", Value: err.Error()})
		}
		return true
	}

	select {
	case <-ctx.Done():
		return false
	case out <- rec:
		obs.IncCounter("netcandle_records_accepted_total", 1)
		return true
	}
}
