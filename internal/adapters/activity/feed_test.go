package activity

import (
	"strings"
	"testing"
	"time"

	"github.com/ghalamif/NetCandle/internal/ports"
)

func TestFeedKeepsLastLines(t *testing.T) {
	f := NewFeed(3)
	for _, s := range []string{"a", "b", "c", "d", "e"} {
		f.Append("log", ports.LevelInfo, s)
	}

	got := f.Snapshot()
	if len(got) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(got))
	}
	if got[0].Text != "c" || got[2].Text != "e" {
		t.Fatalf("expected oldest lines to be dropped, got %+v", got)
	}
	if got[2].Seq != 5 {
		t.Fatalf("expected seq 5, got %d", got[2].Seq)
	}
	if f.Text() != "c\nd\ne\n" {
		t.Fatalf("unexpected text rendering %q", f.Text())
	}
}

func TestFeedResetDropsOnlySource(t *testing.T) {
	f := NewFeed(10)
	f.Append("log", ports.LevelInfo, "from file")
	f.Append("control", ports.LevelAlert, "[ALERT] run-check exited with code 2")

	ch, cancel := f.Subscribe(4)
	defer cancel()

	f.Reset("log")

	got := f.Snapshot()
	if len(got) != 1 || got[0].Source != "control" {
		t.Fatalf("expected only control line to survive, got %+v", got)
	}

	select {
	case l := <-ch:
		if !l.Reset || l.Source != "log" {
			t.Fatalf("expected reset marker for log, got %+v", l)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected reset marker")
	}
}

func TestFeedSlowSubscriberDoesNotBlock(t *testing.T) {
	f := NewFeed(100)
	ch, cancel := f.Subscribe(1)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 50; i++ {
			f.Append("log", ports.LevelInfo, "line")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("append blocked on a slow subscriber")
	}

	if l := <-ch; !strings.Contains(l.Text, "line") {
		t.Fatalf("unexpected line %+v", l)
	}
	cancel()
	cancel()
	if _, ok := <-ch; ok {
		t.Fatalf("expected channel closed after cancel")
	}
}
