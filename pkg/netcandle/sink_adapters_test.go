package netcandle

import (
	"errors"
	"testing"
	"time"
)

func TestNewCallbackSink(t *testing.T) {
	var received []*Scene
	sink := NewCallbackSink("cb", func(sc *Scene) error {
		received = append(received, sc)
		return nil
	})

	input := &Scene{Cycle: 2, Capacity: 40, Candles: []Candle{{Index: 0, TxBar: 100, RxBar: -50}}}

	if err := sink.Publish(input); err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if len(received) != 1 {
		t.Fatalf("expected 1 scene, got %d", len(received))
	}
	if received[0].Cycle != 2 || received[0].Candles[0].TxBar != 100 {
		t.Fatalf("mismatched scene payload: %+v", received[0])
	}
	if sink.Name() != "cb" {
		t.Fatalf("unexpected sink name %s", sink.Name())
	}
}

func TestNewCallbackSinkNilHandler(t *testing.T) {
	sink := NewCallbackSink("", nil)
	if err := sink.Publish(&Scene{}); err == nil {
		t.Fatalf("expected error when callback is nil")
	}
	if sink.Name() != "callback" {
		t.Fatalf("expected default name, got %s", sink.Name())
	}
}

func TestNewChannelSink(t *testing.T) {
	sink, ch, closeFn := NewChannelSink("chan", 0)
	defer closeFn()

	input := &Scene{Cycle: 7}
	errCh := make(chan error, 1)

	go func() {
		errCh <- sink.Publish(input)
	}()

	var got *Scene
	select {
	case got = <-ch:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for channel scene")
	}

	if err := <-errCh; err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if got.Cycle != 7 {
		t.Fatalf("unexpected scene: %+v", got)
	}

	closeFn()
	closeFn()
	if err := sink.Publish(input); !errors.Is(err, ErrChannelSinkClosed) {
		t.Fatalf("expected ErrChannelSinkClosed, got %v", err)
	}
	if _, ok := <-ch; ok {
		t.Fatalf("expected channel to be closed")
	}
}

func TestChannelSinkCloseUnblocksPublish(t *testing.T) {
	sink, _, closeFn := NewChannelSink("chan", 0)

	errCh := make(chan error, 1)
	go func() { errCh <- sink.Publish(&Scene{Cycle: 1}) }()

	time.Sleep(20 * time.Millisecond)
	closeFn()

	select {
	case err := <-errCh:
		if !errors.Is(err, ErrChannelSinkClosed) {
			t.Fatalf("expected ErrChannelSinkClosed, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("publish stayed blocked after close")
	}
}
