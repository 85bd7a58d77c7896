package observability

import "github.com/ghalamif/NetCandle/internal/ports"

// Nop discards everything.
type Nop struct{}

func (Nop) LogDebug(string, ...ports.Field)           {}
func (Nop) LogInfo(string, ...ports.Field)            {}
func (Nop) LogWarn(string, error, ...ports.Field)     {}
func (Nop) LogError(string, error, ...ports.Field)    {}
func (Nop) LogCritical(string, error, ...ports.Field) {}
func (Nop) IncCounter(string, float64)                {}
func (Nop) ObserveLatency(string, float64)            {}
func (Nop) SetGauge(string, float64)                  {}

var _ ports.Observability = Nop{}
