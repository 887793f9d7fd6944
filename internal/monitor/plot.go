// Package monitor renders diagnostic views of finished strokes: static
// PNG plots for offline review, interactive HTML charts for the debug
// server, and live preview statistics.
package monitor

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"path/filepath"

	colorful "github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/ribbon/internal/fsutil"
	"github.com/banshee-data/ribbon/internal/ribbon/stroke"
	"github.com/banshee-data/ribbon/internal/security"
)

// ErrNoPoints is returned when asked to render an empty stroke.
var ErrNoPoints = errors.New("monitor: stroke has no points")

const (
	plotWidth  = 14 * vg.Inch
	plotHeight = 6 * vg.Inch
)

// PlotStroke writes <name>_thickness.png (thickness against arc length)
// and <name>_path.png (top-down XZ path) into dir and returns the paths
// written. name is sanitized before use.
func PlotStroke(fsys fsutil.FileSystem, dir, name string, points []stroke.Point) ([]string, error) {
	if len(points) == 0 {
		return nil, ErrNoPoints
	}
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create plot dir: %w", err)
	}

	name = security.SanitizeFilename(name)
	colors := generateColors(2)

	arc := make(plotter.XYs, len(points))
	path := make(plotter.XYs, len(points))
	var s float64
	for i, p := range points {
		if i > 0 {
			s += r3.Norm(r3.Sub(p.Position, points[i-1].Position))
		}
		arc[i] = plotter.XY{X: s, Y: p.Thickness}
		path[i] = plotter.XY{X: p.Position.X, Y: p.Position.Z}
	}

	pThick := plot.New()
	pThick.Title.Text = fmt.Sprintf("%s - Thickness", name)
	pThick.X.Label.Text = "Arc length (m)"
	pThick.Y.Label.Text = "Thickness (m)"
	if err := addLine(pThick, arc, colors[0], "thickness"); err != nil {
		return nil, err
	}

	pPath := plot.New()
	pPath.Title.Text = fmt.Sprintf("%s - Path (top-down)", name)
	pPath.X.Label.Text = "X (m)"
	pPath.Y.Label.Text = "Z (m)"
	if err := addLine(pPath, path, colors[1], "path"); err != nil {
		return nil, err
	}

	var written []string
	for _, out := range []struct {
		p      *plot.Plot
		suffix string
	}{
		{pThick, "thickness"},
		{pPath, "path"},
	} {
		file := filepath.Join(dir, fmt.Sprintf("%s_%s.png", name, out.suffix))
		if err := savePNG(fsys, out.p, file); err != nil {
			return written, err
		}
		written = append(written, file)
	}
	diagf("wrote %d plots for %s (%d points)", len(written), name, len(points))
	return written, nil
}

func addLine(p *plot.Plot, xys plotter.XYs, c color.Color, label string) error {
	line, err := plotter.NewLine(xys)
	if err != nil {
		return fmt.Errorf("failed to build %s line: %w", label, err)
	}
	line.Color = c
	line.Width = vg.Points(1)
	p.Add(line)
	p.Legend.Add(label, line)
	return nil
}

func savePNG(fsys fsutil.FileSystem, p *plot.Plot, file string) error {
	wt, err := p.WriterTo(plotWidth, plotHeight, "png")
	if err != nil {
		return fmt.Errorf("failed to render %s: %w", file, err)
	}
	f, err := fsys.Create(file)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", file, err)
	}
	if _, err := wt.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", file, err)
	}
	return f.Close()
}

// generateColors spreads n hues evenly around the wheel.
func generateColors(n int) []color.Color {
	colors := make([]color.Color, n)
	for i := range colors {
		colors[i] = colorful.Hsv(math.Mod(210+float64(i)*360/float64(n), 360), 0.7, 0.8).Clamped()
	}
	return colors
}
