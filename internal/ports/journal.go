package ports

import "github.com/ghalamif/NetCandle/internal/domain"

type EntryID uint64

type Journal interface {
	Append(e *domain.JournalEntry) (EntryID, error)
	Iterate(from EntryID, fn func(id EntryID, e *domain.JournalEntry) error) error
	Flush() error
	Stats() JournalStats
	Close() error
}

type JournalStats struct {
	Latest    EntryID
	SizeBytes int64
}
