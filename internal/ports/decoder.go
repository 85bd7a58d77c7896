package ports

import "github.com/ghalamif/NetCandle/internal/domain"

// Decoder coerces a raw record into a sample on the consumer side.
type Decoder interface {
	Decode(r *domain.Record) (domain.Sample, error)
}
