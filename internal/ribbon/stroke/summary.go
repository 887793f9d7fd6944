package stroke

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Summary holds aggregate statistics for a finished stroke.
type Summary struct {
	Points       int
	LengthMeters float64
	DurationSecs float64
	MinThickness float64
	MaxThickness float64
}

// Summarize computes a Summary over points in stroke order. The first
// point's DeltaTime is not counted towards the duration.
func Summarize(points []Point) Summary {
	s := Summary{Points: len(points)}
	if len(points) == 0 {
		return s
	}
	s.MinThickness = math.Inf(1)
	s.MaxThickness = math.Inf(-1)
	for i, p := range points {
		if i > 0 {
			s.LengthMeters += r3.Norm(r3.Sub(p.Position, points[i-1].Position))
			s.DurationSecs += p.DeltaTime
		}
		s.MinThickness = math.Min(s.MinThickness, p.Thickness)
		s.MaxThickness = math.Max(s.MaxThickness, p.Thickness)
	}
	return s
}
