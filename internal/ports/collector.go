package ports

import "github.com/ghalamif/NetCandle/internal/domain"

// Collector pushes arity-checked records into out, in arrival order, until Stop.
type Collector interface {
	Start(out chan<- *domain.Record) error
	Stop() error
	Name() string
}
