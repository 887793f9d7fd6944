package filters

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/ribbon/internal/ribbon/ring"
	"github.com/banshee-data/ribbon/internal/ribbon/stroke"
)

// PositionSmoothing replaces each point's position with the symmetric
// moving average of the raw positions around it.
//
// Near either end of the stream the radius shrinks to the number of raw
// neighbours available on both sides, so endpoints stay where they were
// drawn. Averages are always taken over raw input, never over previously
// smoothed output, so repeated passes do not compound. It must run before
// any other filter that moves positions.
type PositionSmoothing struct {
	radius int
	raw    *ring.Buffer[r3.Vec]
}

// NewPositionSmoothing returns a smoothing filter with the given radius.
// A radius of zero leaves positions untouched.
func NewPositionSmoothing(radius int) *PositionSmoothing {
	if radius < 0 {
		radius = 0
	}
	return &PositionSmoothing{
		radius: radius,
		raw:    ring.New[r3.Vec](2*radius + 1),
	}
}

// Radius returns the configured window radius.
func (f *PositionSmoothing) Radius() int { return f.radius }

// RequiredLookback reports the radius: a point's average is complete once
// radius newer samples exist.
func (f *PositionSmoothing) RequiredLookback() int { return f.radius }

// Reset drops the raw history.
func (f *PositionSmoothing) Reset() { f.raw.Clear() }

// Process records the newest raw position and revises the newest
// radius+1 points.
func (f *PositionSmoothing) Process(w *ring.Buffer[stroke.Point]) {
	if w.Len() == 0 {
		return
	}
	f.raw.Add(w.GetFromEnd(0).Position)
	if f.radius == 0 {
		return
	}

	n := f.raw.Len()
	span := min(f.radius, w.Len()-1)
	for k := 1; k <= span; k++ {
		r := min(f.radius, k, n-1-k)
		var sum r3.Vec
		for j := k - r; j <= k+r; j++ {
			sum = r3.Add(sum, f.raw.GetFromEnd(j))
		}
		w.AtFromEnd(k).Position = r3.Scale(1/float64(2*r+1), sum)
	}
}
