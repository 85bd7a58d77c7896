package domain

import "time"

// EntryKind discriminates journal entries.
type EntryKind string

const (
	EntryAlert   EntryKind = "alert"
	EntryControl EntryKind = "control"
)

// ControlOutcome describes one finished run of the control script.
type ControlOutcome struct {
	RunID    string        `json:"run_id"`
	Command  string        `json:"command"`
	ExitCode int           `json:"exit_code"`
	Err      string        `json:"err,omitempty"`
	Stdout   string        `json:"stdout,omitempty"`
	Stderr   string        `json:"stderr,omitempty"`
	Duration time.Duration `json:"duration"`
}

// JournalEntry is the durable unit written to the alert journal.
type JournalEntry struct {
	Kind    EntryKind       `json:"kind"`
	At      time.Time       `json:"at"`
	Alert   *Alert          `json:"alert,omitempty"`
	Control *ControlOutcome `json:"control,omitempty"`
}
