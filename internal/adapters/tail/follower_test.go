package tail

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ghalamif/NetCandle/internal/adapters/observability"
	"github.com/ghalamif/NetCandle/internal/ports"
)

type event struct {
	level string
	text  string
	reset bool
}

type chanSink struct {
	ch chan event
}

func newChanSink() *chanSink { return &chanSink{ch: make(chan event, 64)} }

func (s *chanSink) Append(_, level, text string) { s.ch <- event{level: level, text: text} }
func (s *chanSink) Reset(string)                 { s.ch <- event{reset: true} }

func next(t *testing.T, s *chanSink) event {
	t.Helper()
	select {
	case e := <-s.ch:
		return e
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for tail event")
		return event{}
	}
}

func startFollower(t *testing.T, path string, sink LineSink) func() {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	f := NewFollower(path, sink, observability.Nop{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := f.Run(ctx); err != nil {
			t.Errorf("run: %v", err)
		}
	}()
	// let the watcher register before the test writes
	time.Sleep(50 * time.Millisecond)
	return func() {
		cancel()
		wg.Wait()
	}
}

func appendTo(t *testing.T, path, s string) {
	t.Helper()
	fh, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer fh.Close()
	if _, err := fh.WriteString(s); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestFollowerEmitsCompleteLinesOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "lkim.log")
	sink := newChanSink()
	stop := startFollower(t, path, sink)
	defer stop()

	if e := next(t, sink); e.text != WaitingLine(path) {
		t.Fatalf("expected waiting line for absent file, got %+v", e)
	}

	appendTo(t, path, "baseline saved\n[ALERT] drift in ")
	if e := next(t, sink); !e.reset {
		t.Fatalf("expected reset once the file appears, got %+v", e)
	}
	if e := next(t, sink); e.text != "baseline saved" || e.level != ports.LevelInfo {
		t.Fatalf("unexpected first line %+v", e)
	}

	select {
	case e := <-sink.ch:
		t.Fatalf("partial line must not be emitted, got %+v", e)
	case <-time.After(100 * time.Millisecond):
	}

	appendTo(t, path, "sys_call_table\r\n")
	if e := next(t, sink); e.text != "[ALERT] drift in sys_call_table" || e.level != ports.LevelAlert {
		t.Fatalf("unexpected completed line %+v", e)
	}
}

func TestFollowerReadsExistingContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lkim.log")
	appendTo(t, path, "one\ntwo\n")

	sink := newChanSink()
	stop := startFollower(t, path, sink)
	defer stop()

	if e := next(t, sink); e.text != "one" {
		t.Fatalf("expected one, got %+v", e)
	}
	if e := next(t, sink); e.text != "two" {
		t.Fatalf("expected two, got %+v", e)
	}
}

func TestFollowerResetsOnTruncation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lkim.log")
	appendTo(t, path, "a fairly long line written before truncation\n")

	sink := newChanSink()
	stop := startFollower(t, path, sink)
	defer stop()

	next(t, sink)

	if err := os.Truncate(path, 0); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	if e := next(t, sink); !e.reset {
		t.Fatalf("expected reset marker, got %+v", e)
	}

	appendTo(t, path, "fresh\n")
	if e := next(t, sink); e.text != "fresh" {
		t.Fatalf("expected fresh line from offset 0, got %+v", e)
	}
}

func drain(s *chanSink) []event {
	var out []event
	for {
		select {
		case e := <-s.ch:
			out = append(out, e)
		default:
			return out
		}
	}
}

func TestReadNewWaitsOnceForAbsentFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lkim.log")
	sink := newChanSink()
	f := NewFollower(path, sink, observability.Nop{})

	for i := 0; i < 3; i++ {
		if err := f.readNew(); err != nil {
			t.Fatalf("readNew: %v", err)
		}
	}
	got := drain(sink)
	if len(got) != 1 || got[0].text != WaitingLine(path) || got[0].level != ports.LevelInfo {
		t.Fatalf("expected a single waiting line, got %+v", got)
	}

	appendTo(t, path, "ready\n")
	if err := f.readNew(); err != nil {
		t.Fatalf("readNew: %v", err)
	}
	got = drain(sink)
	if len(got) != 2 || !got[0].reset || got[1].text != "ready" {
		t.Fatalf("expected reset then ready, got %+v", got)
	}
}

func TestReadNewDetectsRewriteInPlace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lkim.log")
	appendTo(t, path, "short\n")

	sink := newChanSink()
	f := NewFollower(path, sink, observability.Nop{})
	if err := f.readNew(); err != nil {
		t.Fatalf("readNew: %v", err)
	}
	drain(sink)

	// truncated and rewritten past the old offset before the next event
	if err := os.WriteFile(path, []byte("a much longer replacement line\n"), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	if err := f.readNew(); err != nil {
		t.Fatalf("readNew: %v", err)
	}
	got := drain(sink)
	if len(got) != 2 || !got[0].reset || got[1].text != "a much longer replacement line" {
		t.Fatalf("expected reset then full replacement line, got %+v", got)
	}
}

func TestReadNewDetectsReplacedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lkim.log")
	appendTo(t, path, "alpha\n")

	sink := newChanSink()
	f := NewFollower(path, sink, observability.Nop{})
	if err := f.readNew(); err != nil {
		t.Fatalf("readNew: %v", err)
	}
	drain(sink)

	// same leading bytes, different inode
	tmp := filepath.Join(dir, "lkim.log.new")
	if err := os.WriteFile(tmp, []byte("alpha\nbeta\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatalf("rename: %v", err)
	}
	if err := f.readNew(); err != nil {
		t.Fatalf("readNew: %v", err)
	}
	got := drain(sink)
	if len(got) != 3 || !got[0].reset || got[1].text != "alpha" || got[2].text != "beta" {
		t.Fatalf("expected reset and a full re-read, got %+v", got)
	}
}

func TestLevelOf(t *testing.T) {
	cases := map[string]string{
		"[ALERT] run-check exited with code 2": ports.LevelAlert,
		"[GUI ERROR] failed to start":          ports.LevelError,
		"[ERROR] x":                            ports.LevelError,
		"plain":                                ports.LevelInfo,
	}
	for line, want := range cases {
		if got := LevelOf(line); got != want {
			t.Fatalf("LevelOf(%q) = %s, want %s", line, got, want)
		}
	}
}
