package raster

import (
	"bytes"
	"testing"

	"github.com/ghalamif/NetCandle/internal/domain"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func TestRenderScene(t *testing.T) {
	scene := &domain.Scene{
		Capacity: 40,
		Candles: []domain.Candle{
			{Index: 0, TxBar: 100, RxBar: -50},
			{Index: 1, TxBar: 300, RxBar: -20, Anomalous: true, AlertID: "KERNEL_TAMPER",
				Wick: &domain.Wick{Base: 300, Length: 250, Severity: 0.875}},
		},
		Planes: []domain.Plane{{Level: 250, From: 0, To: 2}, {Level: -250, From: 0, To: 2}},
	}

	var buf bytes.Buffer
	if err := New(320, 200).Render(scene, &buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), pngMagic) {
		t.Fatalf("expected PNG output")
	}
}

func TestRenderEmptyScene(t *testing.T) {
	var buf bytes.Buffer
	if err := New(0, 0).Render(nil, &buf); err != nil {
		t.Fatalf("render empty: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), pngMagic) {
		t.Fatalf("expected PNG output for an empty scene")
	}
}
