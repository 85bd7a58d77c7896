package netcandle

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPublisherWaitsForStart(t *testing.T) {
	pub := NewPublisher(Schema4)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := pub.Publish(ctx, "t1\t100\t50\tNONE"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected publish to wait for start, got %v", err)
	}

	out := make(chan *Record, 1)
	if err := pub.Start(out); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := pub.Start(out); err == nil {
		t.Fatalf("expected second start to fail")
	}

	if err := pub.Publish(context.Background(), "t1\t100\t50\tNONE"); err != nil {
		t.Fatalf("publish: %v", err)
	}
	rec := <-out
	if rec.Schema != Schema4 || rec.Fields[1] != "100" {
		t.Fatalf("unexpected record %+v", rec)
	}

	if err := pub.Publish(context.Background(), "t1\t100\t50\t90\tNONE"); !errors.Is(err, ErrMalformedLine) {
		t.Fatalf("expected 5 fields to be malformed under the 4-field schema, got %v", err)
	}

	_ = pub.Stop()
	_ = pub.Stop()
	if err := pub.Publish(context.Background(), "t2\t1\t1\tNONE"); !errors.Is(err, ErrPublisherStopped) {
		t.Fatalf("expected ErrPublisherStopped, got %v", err)
	}
}
