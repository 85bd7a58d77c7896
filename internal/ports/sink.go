package ports

import "github.com/ghalamif/NetCandle/internal/domain"

// Sink receives every rebuilt scene. Implementations must not retain or mutate
// the scene's slices after Publish returns unless they copy them.
type Sink interface {
	Publish(scene *domain.Scene) error
	Name() string
}
