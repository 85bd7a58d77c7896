package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ghalamif/NetCandle/internal/app/render"
	"github.com/ghalamif/NetCandle/internal/domain"
	"github.com/ghalamif/NetCandle/internal/ports"
)

// DecoderFunc adapts a function to ports.Decoder.
type DecoderFunc func(r *domain.Record) (domain.Sample, error)

func (f DecoderFunc) Decode(r *domain.Record) (domain.Sample, error) { return f(r) }

// RenderDeps are the collaborators of the single render consumer. Alerts,
// Activity and Journal may be nil.
type RenderDeps struct {
	Decoder  ports.Decoder
	Renderer *render.Renderer
	Sinks    []ports.Sink
	Alerts   ports.AlertSurface
	Activity ports.ActivityLog
	Journal  ports.Journal
	Obs      ports.Observability
}

// RunRenderPipeline consumes records in arrival order until ctx is done or in
// is closed. It owns the renderer; nothing else may touch it while it runs.
func RunRenderPipeline(ctx context.Context, in <-chan *domain.Record, d RenderDeps) error {
	if d.Renderer == nil {
		return errors.New("render pipeline: renderer is nil")
	}
	if d.Decoder == nil {
		d.Decoder = DecoderFunc(domain.Decode)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case rec, ok := <-in:
			if !ok {
				return nil
			}
			d.Obs.SetGauge("netcandle_channel_depth", float64(len(in)))
			handleRecord(d, rec)
		}
	}
}

func handleRecord(d RenderDeps, rec *domain.Record) *domain.Scene {
	s, err := d.Decoder.Decode(rec)
	if err != nil {
		d.Obs.IncCounter("netcandle_coercion_errors_total", 1)
		d.Obs.LogWarn("record_dropped", err,
			ports.Field{Key: "seq", Value: rec.Seq},
			ports.Field{Key: "fields", Value: rec.Fields})
		return nil
	}

	start := time.Now()
	scene, eff := d.Renderer.Apply(s)

	if eff.Reset {
		d.Obs.IncCounter("netcandle_cycle_resets_total", 1)
		d.Obs.LogInfo("cycle_reset",
			ports.Field{Key: "cycle", Value: scene.Cycle},
			ports.Field{Key: "cycle_id", Value: scene.CycleID})
	}
	if eff.Evicted {
		d.Obs.IncCounter("netcandle_samples_evicted_total", 1)
	}
	d.Obs.SetGauge("netcandle_window_length", float64(len(scene.Candles)))

	if eff.Alert != nil {
		raiseAlert(d, *eff.Alert)
	}

	for _, snk := range d.Sinks {
		if err := snk.Publish(scene); err != nil {
			d.Obs.IncCounter("netcandle_sink_errors_total", 1)
			d.Obs.LogError("sink_publish_failed", err, ports.Field{Key: "sink", Value: snk.Name()})
		}
	}
	d.Obs.ObserveLatency("netcandle_scene_rebuild_seconds", time.Since(start).Seconds())
	return scene
}

func raiseAlert(d RenderDeps, a domain.Alert) {
	d.Obs.IncCounter("netcandle_alerts_raised_total", 1)
	d.Obs.LogWarn("alert_latched", nil,
		ports.Field{Key: "alert_id", Value: a.ID},
		ports.Field{Key: "seq", Value: a.Seq},
		ports.Field{Key: "ts", Value: a.Timestamp})

	if d.Alerts != nil {
		d.Alerts.Raise(a)
	}
	if d.Activity != nil {
		d.Activity.Append("renderer", ports.LevelAlert, AlertLine(a))
	}
	if d.Journal != nil {
		if _, err := d.Journal.Append(&domain.JournalEntry{Kind: domain.EntryAlert, At: a.RaisedAt, Alert: &a}); err != nil {
			d.Obs.LogError("journal_append_failed", err, ports.Field{Key: "alert_id", Value: a.ID})
		}
	}
}

// AlertLine formats the activity line for a latched alert.
func AlertLine(a domain.Alert) string {
	score := "-"
	if a.HasScore {
		score = strconv.FormatFloat(a.Score, 'f', -1, 64)
	}
	return fmt.Sprintf("[ALERT] %s score=%s ts=%s", a.ID, score, a.Timestamp)
}
