package activity

import (
	"strings"
	"sync"
	"time"

	"github.com/ghalamif/NetCandle/internal/ports"
)

const DefaultMaxLines = 500

// Line is one entry of the operator activity feed. A Reset line carries no
// text and tells subscribers to drop what they hold for Source.
type Line struct {
	Seq    uint64    `json:"seq"`
	At     time.Time `json:"at"`
	Source string    `json:"source"`
	Level  string    `json:"level"`
	Text   string    `json:"text"`
	Reset  bool      `json:"reset,omitempty"`
}

// Feed keeps the most recent lines in memory and fans new ones out to
// subscribers. Slow subscribers miss lines instead of blocking writers.
type Feed struct {
	mu    sync.Mutex
	max   int
	lines []Line
	seq   uint64
	subs  map[int]chan Line
	next  int
	now   func() time.Time
}

func NewFeed(maxLines int) *Feed {
	if maxLines <= 0 {
		maxLines = DefaultMaxLines
	}
	return &Feed{
		max:  maxLines,
		subs: make(map[int]chan Line),
		now:  time.Now,
	}
}

func (f *Feed) Append(source, level, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.seq++
	l := Line{Seq: f.seq, At: f.now(), Source: source, Level: level, Text: text}
	f.lines = append(f.lines, l)
	if over := len(f.lines) - f.max; over > 0 {
		f.lines = append(f.lines[:0], f.lines[over:]...)
	}
	f.broadcast(l)
}

// Reset drops the lines held for source, e.g. after its log file was truncated.
func (f *Feed) Reset(source string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	kept := f.lines[:0]
	for _, l := range f.lines {
		if l.Source != source {
			kept = append(kept, l)
		}
	}
	f.lines = kept
	f.seq++
	f.broadcast(Line{Seq: f.seq, At: f.now(), Source: source, Reset: true})
}

func (f *Feed) Snapshot() []Line {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Line, len(f.lines))
	copy(out, f.lines)
	return out
}

// Text renders the snapshot one line per entry.
func (f *Feed) Text() string {
	var b strings.Builder
	for _, l := range f.Snapshot() {
		b.WriteString(l.Text)
		b.WriteByte('\n')
	}
	return b.String()
}

func (f *Feed) Subscribe(buf int) (<-chan Line, func()) {
	if buf <= 0 {
		buf = 64
	}
	ch := make(chan Line, buf)

	f.mu.Lock()
	id := f.next
	f.next++
	f.subs[id] = ch
	f.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, id)
			f.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

func (f *Feed) broadcast(l Line) {
	for _, ch := range f.subs {
		select {
		case ch <- l:
		default:
		}
	}
}

var _ ports.ActivityLog = (*Feed)(nil)
