package domain

import "errors"

var (
	// ErrMalformedLine marks a line whose field count does not match the active schema.
	ErrMalformedLine = errors.New("netcandle: malformed line")
	// ErrCoercion marks a well-formed line carrying a non-numeric or negative rate/score.
	ErrCoercion = errors.New("netcandle: field coercion failed")
	// ErrSourceUnavailable marks a telemetry source that could not be opened yet.
	ErrSourceUnavailable = errors.New("netcandle: source unavailable")
	// ErrBusy is returned when a control command is requested while another one runs.
	ErrBusy = errors.New("netcandle: control command already running")
	// ErrNotExecutable is the fatal startup condition for the control script.
	ErrNotExecutable = errors.New("netcandle: control script not executable")
)
