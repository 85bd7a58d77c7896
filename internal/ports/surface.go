package ports

import "github.com/ghalamif/NetCandle/internal/domain"

// AlertSurface shows the latched alert.
type AlertSurface interface {
	Raise(a domain.Alert)
}

// Activity levels used by the activity feed.
const (
	LevelInfo  = "info"
	LevelAlert = "alert"
	LevelError = "error"
)

// ActivityLog is the operator-visible, append-only activity feed.
type ActivityLog interface {
	Append(source, level, text string)
}
