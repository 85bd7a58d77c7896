package pipeline

import (
	"errors"
	"fmt"

	"github.com/ghalamif/NetCandle/internal/domain"
	"github.com/ghalamif/NetCandle/internal/ports"
)

// StartCollectors starts every collector on the shared ordered channel. If one
// fails to start, the ones already running are stopped again.
func StartCollectors(cols []ports.Collector, out chan<- *domain.Record, obs ports.Observability) error {
	if len(cols) == 0 {
		return errors.New("no telemetry source configured")
	}

	started := make([]ports.Collector, 0, len(cols))
	for _, col := range cols {
		if err := col.Start(out); err != nil {
			stopErr := StopCollectors(started, obs)
			return errors.Join(fmt.Errorf("start %s: %w", col.Name(), err), stopErr)
		}
		obs.LogInfo("collector_started", ports.Field{Key: "source", Value: col.Name()})
		started = append(started, col)
	}
	return nil
}

func StopCollectors(cols []ports.Collector, obs ports.Observability) error {
	var errs []error
	for _, col := range cols {
		if err := col.Stop(); err != nil {
			obs.LogWarn("collector_stop_failed", err, ports.Field{Key: "source", Value: col.Name()})
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
