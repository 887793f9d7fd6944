package monitor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/ribbon/internal/ribbon/stroke"
	"github.com/banshee-data/ribbon/internal/strokedb"
)

// StrokeLoader fetches the finished points of a stored stroke.
type StrokeLoader func(ctx context.Context, id string) ([]stroke.Point, error)

// StrokeChartHTML renders an interactive page with the per-point
// thickness profile and the top-down path of a stroke.
func StrokeChartHTML(w io.Writer, title string, points []stroke.Point) error {
	if len(points) == 0 {
		return ErrNoPoints
	}
	sum := stroke.Summarize(points)

	idx := make([]int, len(points))
	thick := make([]opts.LineData, len(points))
	path := make([]opts.ScatterData, len(points))
	for i, p := range points {
		idx[i] = i
		thick[i] = opts.LineData{Value: p.Thickness}
		path[i] = opts.ScatterData{Value: []interface{}{p.Position.X, p.Position.Z}}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "100%", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("points=%d length=%.3fm min=%.4g max=%.4g", sum.Points, sum.LengthMeters, sum.MinThickness, sum.MaxThickness)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Point", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Thickness (m)", NameLocation: "middle", NameGap: 45}),
	)
	line.SetXAxis(idx).AddSeries("thickness", thick)

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: "Path (top-down)"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: "X (m)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: "Z (m)", NameLocation: "middle", NameGap: 30}),
	)
	scatter.AddSeries("path", path, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 4}))

	page := components.NewPage()
	page.AddCharts(line, scatter)
	return page.Render(w)
}

// ChartHandler serves StrokeChartHTML for the stroke named by the "id"
// query parameter.
func ChartHandler(load StrokeLoader) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("id")
		if id == "" {
			http.Error(w, "missing id parameter", http.StatusBadRequest)
			return
		}
		points, err := load(r.Context(), id)
		if errors.Is(err, strokedb.ErrStrokeNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		if err != nil {
			opsf("chart %s: load failed: %v", id, err)
			http.Error(w, fmt.Sprintf("failed to load stroke: %v", err), http.StatusInternalServerError)
			return
		}

		var buf bytes.Buffer
		if err := StrokeChartHTML(&buf, "Stroke "+id, points); err != nil {
			http.Error(w, fmt.Sprintf("failed to render chart: %v", err), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(buf.Bytes())
	})
}

// DBLoader adapts a stroke database to a StrokeLoader.
func DBLoader(db *strokedb.DB) StrokeLoader {
	return func(ctx context.Context, id string) ([]stroke.Point, error) {
		rec, err := db.LoadStroke(ctx, id)
		if err != nil {
			return nil, err
		}
		return rec.Points, nil
	}
}
