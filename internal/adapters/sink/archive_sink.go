package sink

import (
	"database/sql"
	"fmt"

	"github.com/ghalamif/NetCandle/internal/domain"
	"github.com/ghalamif/NetCandle/internal/ports"
)

// ArchiveSink stores the sample that triggered each scene in a Postgres or
// Timescale table. Re-delivered samples are ignored via the (ts_text, seq) key.
type ArchiveSink struct {
	db        *sql.DB
	tableName string
}

func NewArchiveSink(db *sql.DB, table string) *ArchiveSink {
	return &ArchiveSink{db: db, tableName: table}
}

func (a *ArchiveSink) Name() string { return "timescaledb" }

// EnsureTable creates the archive table if it does not exist yet.
func (a *ArchiveSink) EnsureTable() error {
	_, err := a.db.Exec(fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	seq BIGINT NOT NULL,
	ts_text TEXT NOT NULL,
	tx_rate DOUBLE PRECISION NOT NULL,
	rx_rate DOUBLE PRECISION NOT NULL,
	integrity_score DOUBLE PRECISION,
	alert_id TEXT NOT NULL,
	cycle BIGINT NOT NULL,
	received_at TIMESTAMPTZ NOT NULL,
	UNIQUE (ts_text, seq)
)`, a.tableName))
	if err != nil {
		return fmt.Errorf("ensure table %s: %w", a.tableName, err)
	}
	return nil
}

func (a *ArchiveSink) Publish(scene *domain.Scene) error {
	if scene == nil {
		return nil
	}
	s := scene.Trigger

	var score any
	if s.HasScore {
		score = s.IntegrityScore
	}

	_, err := a.db.Exec("INSERT INTO "+a.tableName+
		" (seq, ts_text, tx_rate, rx_rate, integrity_score, alert_id, cycle, received_at)"+
		" VALUES ($1,$2,$3,$4,$5,$6,$7,$8) ON CONFLICT (ts_text, seq) DO NOTHING",
		s.Seq, s.Timestamp, s.TxRate, s.RxRate, score, s.AlertID, scene.Cycle, s.ReceivedAt)
	if err != nil {
		return fmt.Errorf("archive sample %d: %w", s.Seq, err)
	}
	return nil
}

var _ ports.Sink = (*ArchiveSink)(nil)
