package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Schema selects the tab-separated record layout written by the backend.
type Schema int

const (
	// Schema5 is timestamp, tx, rx, integrity score, alert id.
	Schema5 Schema = 5
	// Schema4 is timestamp, tx, rx, alert id.
	Schema4 Schema = 4
)

// Arity is the exact number of fields a line must split into.
func (s Schema) Arity() int { return int(s) }

func (s Schema) Valid() bool { return s == Schema4 || s == Schema5 }

// Record is an arity-checked line that has not been coerced to numbers yet.
type Record struct {
	Seq        uint64
	Schema     Schema
	Fields     []string
	ReceivedAt time.Time
}

// SplitLine strips the line terminator and splits on tabs. A field count other
// than the schema's arity yields ErrMalformedLine.
func SplitLine(line string, schema Schema) ([]string, error) {
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return nil, fmt.Errorf("%w: empty line", ErrMalformedLine)
	}
	fields := strings.Split(line, "\t")
	if len(fields) != schema.Arity() {
		return nil, fmt.Errorf("%w: got %d fields, want %d", ErrMalformedLine, len(fields), schema.Arity())
	}
	return fields, nil
}

// Decode coerces the record's fields into a Sample.
func Decode(r *Record) (Sample, error) {
	if r == nil {
		return Sample{}, fmt.Errorf("%w: nil record", ErrCoercion)
	}
	if len(r.Fields) != r.Schema.Arity() {
		return Sample{}, fmt.Errorf("%w: got %d fields, want %d", ErrMalformedLine, len(r.Fields), r.Schema.Arity())
	}

	tx, err := parseRate("tx_rate", r.Fields[1])
	if err != nil {
		return Sample{}, err
	}
	rx, err := parseRate("rx_rate", r.Fields[2])
	if err != nil {
		return Sample{}, err
	}

	s := Sample{
		Seq:        r.Seq,
		Timestamp:  r.Fields[0],
		TxRate:     tx,
		RxRate:     rx,
		ReceivedAt: r.ReceivedAt,
	}

	switch r.Schema {
	case Schema5:
		score, err := strconv.ParseFloat(strings.TrimSpace(r.Fields[3]), 64)
		if err != nil || !finite(score) {
			return Sample{}, fmt.Errorf("%w: integrity_score %q", ErrCoercion, r.Fields[3])
		}
		s.IntegrityScore = score
		s.HasScore = true
		s.AlertID = strings.TrimSpace(r.Fields[4])
	default:
		s.AlertID = strings.TrimSpace(r.Fields[3])
	}
	if s.AlertID == "" {
		s.AlertID = NoAlert
	}
	return s, nil
}

func parseRate(name, raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || !finite(v) {
		return 0, fmt.Errorf("%w: %s %q", ErrCoercion, name, raw)
	}
	if v < 0 {
		return 0, fmt.Errorf("%w: %s is negative (%g)", ErrCoercion, name, v)
	}
	return v, nil
}

// NaN and Inf parse as floats but cannot be plotted or encoded as JSON.
func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
