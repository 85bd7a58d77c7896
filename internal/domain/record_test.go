package domain

import (
	"errors"
	"testing"
)

func TestSplitLineArity(t *testing.T) {
	cases := []struct {
		name   string
		line   string
		schema Schema
		ok     bool
	}{
		{"five fields", "t1\t100\t50\t90\tNONE\n", Schema5, true},
		{"four fields", "t1\t100\t50\tNONE", Schema4, true},
		{"four under five", "t1\t100\t50\tNONE", Schema5, false},
		{"five under four", "t1\t100\t50\t90\tNONE", Schema4, false},
		{"too many", "t1\t100\t50\t90\tNONE\textra", Schema5, false},
		{"empty", "\n", Schema5, false},
		{"crlf", "t1\t100\t50\tNONE\r\n", Schema4, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fields, err := SplitLine(tc.line, tc.schema)
			if tc.ok {
				if err != nil {
					t.Fatalf("expected line to be accepted, got %v", err)
				}
				if len(fields) != tc.schema.Arity() {
					t.Fatalf("expected %d fields, got %d", tc.schema.Arity(), len(fields))
				}
				return
			}
			if !errors.Is(err, ErrMalformedLine) {
				t.Fatalf("expected ErrMalformedLine, got %v", err)
			}
		})
	}
}

func TestDecodeFourFieldSchema(t *testing.T) {
	fields, err := SplitLine("t1\t100\t50\tNONE", Schema4)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	s, err := Decode(&Record{Seq: 1, Schema: Schema4, Fields: fields})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s.TxRate != 100 || s.RxRate != 50 {
		t.Fatalf("unexpected rates tx=%f rx=%f", s.TxRate, s.RxRate)
	}
	if s.HasScore {
		t.Fatalf("four-field schema must not carry a score")
	}
	if s.Alerting() {
		t.Fatalf("NONE must not be alerting")
	}
}

func TestDecodeFiveFieldSchema(t *testing.T) {
	fields, _ := SplitLine("t1\t100\t50\t90\tNONE", Schema5)
	s, err := Decode(&Record{Schema: Schema5, Fields: fields})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !s.HasScore || s.IntegrityScore != 90 {
		t.Fatalf("expected integrity score 90, got %f (has=%v)", s.IntegrityScore, s.HasScore)
	}

	fields, _ = SplitLine("t1\t100\t50\t10\tKERNEL_TAMPER", Schema5)
	s, err = Decode(&Record{Schema: Schema5, Fields: fields})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !s.Alerting() || s.AlertID != "KERNEL_TAMPER" {
		t.Fatalf("expected KERNEL_TAMPER alert, got %q", s.AlertID)
	}
}

func TestDecodeCoercionFailures(t *testing.T) {
	lines := []string{
		"t1\tfast\t50\t90\tNONE",
		"t1\t100\tslow\t90\tNONE",
		"t1\t100\t50\tgood\tNONE",
		"t1\t-1\t50\t90\tNONE",
		"t1\tNaN\t50\t90\tNONE",
		"t1\t100\t+Inf\t90\tNONE",
		"t1\t-Inf\t50\t90\tNONE",
		"t1\t100\t50\tNaN\tCRIT",
		"t1\t100\t50\tinf\tNONE",
	}
	for _, line := range lines {
		fields, err := SplitLine(line, Schema5)
		if err != nil {
			t.Fatalf("split %q: %v", line, err)
		}
		if _, err := Decode(&Record{Schema: Schema5, Fields: fields}); !errors.Is(err, ErrCoercion) {
			t.Fatalf("expected ErrCoercion for %q, got %v", line, err)
		}
	}
}
