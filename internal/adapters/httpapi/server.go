package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ghalamif/NetCandle/internal/adapters/observability"
	"github.com/ghalamif/NetCandle/internal/domain"
	"github.com/ghalamif/NetCandle/internal/ports"
)

type SceneSource interface {
	Scene() *domain.Scene
}

type AlertSource interface {
	Current() *domain.Alert
}

type ActivitySource interface {
	Text() string
}

type Rasterizer interface {
	Render(scene *domain.Scene, w io.Writer) error
}

// Controller starts a control run without waiting for it.
type Controller interface {
	Start(ctx context.Context, cmd string) (string, <-chan domain.ControlOutcome, error)
}

// Deps are the read-side views the HTTP surface serves. Nil members leave
// their endpoints unregistered, except Gatherer which falls back to the default registry.
type Deps struct {
	Gatherer prometheus.Gatherer
	Scenes   SceneSource
	Raster   Rasterizer
	Stream   http.Handler
	Alerts   AlertSource
	Activity ActivitySource
	Control  Controller
	// BaseContext bounds control runs started over HTTP; request contexts end too early.
	BaseContext context.Context
	Obs         ports.Observability
}

func NewMux(d Deps) *http.ServeMux {
	if d.Gatherer == nil {
		d.Gatherer = prometheus.DefaultGatherer
	}
	if d.BaseContext == nil {
		d.BaseContext = context.Background()
	}
	if d.Obs == nil {
		d.Obs = observability.Nop{}
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if d.Scenes != nil {
		mux.HandleFunc("GET /scene", func(w http.ResponseWriter, r *http.Request) {
			sc := d.Scenes.Scene()
			if sc == nil {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			writeJSON(w, http.StatusOK, sc)
		})
	}
	if d.Scenes != nil && d.Raster != nil {
		mux.HandleFunc("GET /scene.png", func(w http.ResponseWriter, r *http.Request) {
			var buf bytes.Buffer
			if err := d.Raster.Render(d.Scenes.Scene(), &buf); err != nil {
				d.Obs.LogWarn("scene_png_failed", err)
				http.Error(w, "render failed", http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(buf.Bytes())
		})
	}
	if d.Stream != nil {
		mux.Handle("/ws/scene", d.Stream)
	}
	if d.Alerts != nil {
		mux.HandleFunc("GET /alert", func(w http.ResponseWriter, r *http.Request) {
			a := d.Alerts.Current()
			if a == nil {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			writeJSON(w, http.StatusOK, a)
		})
	}
	if d.Activity != nil {
		mux.HandleFunc("GET /activity", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			_, _ = io.WriteString(w, d.Activity.Text())
		})
	}
	if d.Control != nil {
		mux.HandleFunc("POST /control/{cmd}", func(w http.ResponseWriter, r *http.Request) {
			cmd := r.PathValue("cmd")
			runID, _, err := d.Control.Start(d.BaseContext, cmd)
			switch {
			case errors.Is(err, domain.ErrBusy):
				writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
			case err != nil && runID == "":
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			case err != nil:
				writeJSON(w, http.StatusInternalServerError, map[string]string{"run_id": runID, "error": err.Error()})
			default:
				writeJSON(w, http.StatusAccepted, map[string]string{"run_id": runID, "command": cmd})
			}
		})
	}
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
