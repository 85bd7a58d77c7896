package natsrc

import (
	"context"
	"testing"

	"github.com/nats-io/nats.go"

	"github.com/ghalamif/NetCandle/internal/adapters/lineproto"
	"github.com/ghalamif/NetCandle/internal/adapters/observability"
	"github.com/ghalamif/NetCandle/internal/domain"
)

func TestHandleMsgSplitsMultiLinePayload(t *testing.T) {
	col, err := NewCollector(Config{URL: "nats://127.0.0.1:4222"}, lineproto.NewSplitter(domain.Schema5), observability.Nop{})
	if err != nil {
		t.Fatalf("new collector: %v", err)
	}
	out := make(chan *domain.Record, 4)
	col.bind(context.Background(), out)

	col.HandleMsg(&nats.Msg{Data: []byte("t1\t1\t2\t90\tNONE\nshort\nt2\t3\t4\t10\tCRIT1")})

	if len(out) != 2 {
		t.Fatalf("expected 2 records, got %d", len(out))
	}
	first, second := <-out, <-out
	if first.Fields[0] != "t1" || second.Fields[4] != "CRIT1" {
		t.Fatalf("unexpected records %v %v", first.Fields, second.Fields)
	}
}

func TestHandleMsgBeforeStartIsIgnored(t *testing.T) {
	col, _ := NewCollector(Config{URL: "nats://127.0.0.1:4222"}, lineproto.NewSplitter(domain.Schema5), observability.Nop{})
	col.HandleMsg(&nats.Msg{Data: []byte("t1\t1\t2\t90\tNONE")})
	col.HandleMsg(nil)
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}
	if cfg.Enabled() {
		t.Fatalf("empty URL must disable the collector")
	}
	cfg.ApplyDefaults()
	if cfg.Subject != "lkim.telemetry" {
		t.Fatalf("unexpected default subject %q", cfg.Subject)
	}
}

func TestStopWithoutStart(t *testing.T) {
	col, _ := NewCollector(Config{URL: "nats://127.0.0.1:4222"}, lineproto.NewSplitter(domain.Schema5), observability.Nop{})
	if err := col.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
}
