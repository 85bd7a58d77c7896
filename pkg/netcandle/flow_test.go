package netcandle

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestConfFromConfigAndStreamBuilder(t *testing.T) {
	cfg := testConfig(t)

	flow, err := ConfFromConfig(cfg)
	if err != nil {
		t.Fatalf("ConfFromConfig returned error: %v", err)
	}
	if flow.Config() != cfg {
		t.Fatalf("expected Config to be returned verbatim")
	}

	col := &stubCollector{}
	sink := &stubSink{}
	jr := &stubJournal{}

	rt, err := flow.
		StreamIN(
			StreamInCollector(col),
			StreamInJournal(jr),
			StreamInObservability(&stubObservability{}),
		).
		StreamOUT(
			StreamOutSink(sink),
			StreamOutCallback("cb", func(*Scene) error { return nil }),
			StreamOutObservability(&stubObservability{}),
		)
	if err != nil {
		t.Fatalf("StreamOUT returned error: %v", err)
	}
	if rt.collectors[0] != col {
		t.Fatalf("expected custom collector to be wired")
	}
	if rt.journal != jr {
		t.Fatalf("expected custom journal to be wired")
	}
	if n := len(rt.sinks); n < 2 || rt.sinks[n-2] != sink || rt.sinks[n-1].Name() != "cb" {
		t.Fatalf("expected custom and callback sinks to be appended")
	}
}

func TestConfLoadsYAML(t *testing.T) {
	base := testConfig(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "policy:\n  schema: 4\ncontrol:\n  script: " + base.Control.Script + "\njournal:\n  dir: " + base.Journal.Dir + "\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	flow, err := Conf(path, WithFlowOptions(WithObservability(&stubObservability{})))
	if err != nil {
		t.Fatalf("Conf returned error: %v", err)
	}
	if flow.Config().Policy.Schema != Schema4 {
		t.Fatalf("expected schema 4, got %d", flow.Config().Policy.Schema)
	}
	if len(flow.opts) != 1 {
		t.Fatalf("expected flow option to be recorded")
	}
}

func TestFlowRunUsesStreamOutOptions(t *testing.T) {
	cfg := testConfig(t)

	flow, err := ConfFromConfig(cfg)
	if err != nil {
		t.Fatalf("ConfFromConfig returned error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Stop immediately; nothing is published.
	cancel()
	if err := flow.StreamIN(
		StreamInPublisher(NewPublisher(Schema5)),
		StreamInObservability(&stubObservability{}),
	).Run(ctx,
		StreamOutSink(&stubSink{}),
		StreamOutObservability(&stubObservability{}),
	); err != nil && err != context.Canceled {
		t.Fatalf("Run returned unexpected error: %v", err)
	}
}
