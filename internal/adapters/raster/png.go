package raster

import (
	"fmt"
	"io"
	"math"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/ghalamif/NetCandle/internal/domain"
)

var (
	txColor      = drawing.ColorFromHex("2e7d32")
	rxColor      = drawing.ColorFromHex("1565c0")
	anomalyColor = drawing.ColorFromHex("c62828")
	wickColor    = drawing.ColorFromHex("ef6c00")
	planeColor   = drawing.ColorFromHex("9e9e9e")
)

// Renderer draws a scene as a PNG: one vertical stem per rate, wicks on
// anomalous candles and dashed guide lines at the anomaly planes.
type Renderer struct {
	Width  int
	Height int
}

func New(width, height int) *Renderer {
	if width <= 0 {
		width = 960
	}
	if height <= 0 {
		height = 480
	}
	return &Renderer{Width: width, Height: height}
}

func (r *Renderer) Render(scene *domain.Scene, w io.Writer) error {
	if scene == nil {
		scene = &domain.Scene{}
	}

	series := make([]chart.Series, 0, len(scene.Candles)*3+len(scene.Planes))
	peak := 1.0
	for _, c := range scene.Candles {
		x := float64(c.Index)
		txCol, rxCol := txColor, rxColor
		if c.Anomalous {
			txCol, rxCol = anomalyColor, anomalyColor
		}
		series = append(series,
			stem(fmt.Sprintf("tx-%d", c.Index), x, 0, c.TxBar, txCol, 6),
			stem(fmt.Sprintf("rx-%d", c.Index), x, 0, c.RxBar, rxCol, 6),
		)
		peak = math.Max(peak, math.Max(math.Abs(c.TxBar), math.Abs(c.RxBar)))
		if c.Wick != nil {
			series = append(series, stem(fmt.Sprintf("wick-%d", c.Index), x, c.Wick.Base, c.Wick.Base+c.Wick.Length, wickColor, 2))
			peak = math.Max(peak, math.Abs(c.Wick.Base+c.Wick.Length))
		}
	}
	for _, p := range scene.Planes {
		series = append(series, chart.ContinuousSeries{
			Name:    fmt.Sprintf("plane-%g", p.Level),
			XValues: []float64{p.From, p.To},
			YValues: []float64{p.Level, p.Level},
			Style: chart.Style{
				StrokeColor:     planeColor,
				StrokeWidth:     1,
				StrokeDashArray: []float64{6, 4},
			},
		})
		peak = math.Max(peak, math.Abs(p.Level))
	}
	if len(series) == 0 {
		// go-chart refuses an empty chart
		series = append(series, stem("empty", 0, 0, 0, planeColor, 0))
	}

	xMax := float64(scene.Capacity)
	if xMax < float64(len(scene.Candles)) {
		xMax = float64(len(scene.Candles))
	}
	yMax := peak * 1.1

	ch := chart.Chart{
		Width:      r.Width,
		Height:     r.Height,
		Background: chart.Style{Padding: chart.Box{Top: 14, Left: 16, Right: 12, Bottom: 14}},
		XAxis: chart.XAxis{
			Name:  "sample",
			Range: &chart.ContinuousRange{Min: -1, Max: xMax},
		},
		YAxis: chart.YAxis{
			Name:  "rate",
			Range: &chart.ContinuousRange{Min: -yMax, Max: yMax},
		},
		Series: series,
	}
	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("raster: render cycle %d: %w", scene.Cycle, err)
	}
	return nil
}

func stem(name string, x, from, to float64, col drawing.Color, width float64) chart.ContinuousSeries {
	return chart.ContinuousSeries{
		Name:    name,
		XValues: []float64{x, x},
		YValues: []float64{from, to},
		Style:   chart.Style{StrokeColor: col, StrokeWidth: width},
	}
}
