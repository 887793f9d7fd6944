package filters

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/ribbon/internal/ribbon/geom"
	"github.com/banshee-data/ribbon/internal/ribbon/ring"
	"github.com/banshee-data/ribbon/internal/ribbon/stroke"
)

// ThicknessAssignment stamps the current brush size onto the newest point.
type ThicknessAssignment struct {
	size float64
}

// NewThicknessAssignment returns an assignment filter for the given size.
func NewThicknessAssignment(size float64) *ThicknessAssignment {
	f := &ThicknessAssignment{size: 1}
	f.SetSize(size)
	return f
}

// SetSize changes the brush size used for subsequent samples. Non-positive
// or non-finite sizes are ignored.
func (f *ThicknessAssignment) SetSize(size float64) {
	if !(size > 0) || math.IsInf(size, 0) {
		diagf("ignoring invalid brush size %v, keeping %v", size, f.size)
		return
	}
	f.size = size
}

// Size returns the current brush size.
func (f *ThicknessAssignment) Size() float64 { return f.size }

// RequiredLookback is zero: only the newest point is written.
func (f *ThicknessAssignment) RequiredLookback() int { return 0 }

// Reset is a no-op; the brush size belongs to the caller, not the stroke.
func (f *ThicknessAssignment) Reset() {}

// Process sets the newest point's thickness.
func (f *ThicknessAssignment) Process(w *ring.Buffer[stroke.Point]) {
	if w.Len() == 0 {
		return
	}
	w.AtFromEnd(0).Thickness = f.size
}

// ThicknessConstraint limits each interior point's thickness so its
// cross-section cannot reach past a neighbour's cross-section plane, which
// would fold the ribbon over itself on sharp turns.
//
// For a neighbour j the ray p_i + s·binormal_i is intersected with the plane
// through p_j whose normal is tangent_j; the bound is the full width 2|s|.
// Both neighbours use their own plane. Thickness is only ever lowered and
// never drops below min(current, minThickness).
type ThicknessConstraint struct {
	lookback     int
	minThickness float64
	processed    int
}

// NewThicknessConstraint returns a constraint filter revisiting the newest
// lookback+1 points on each pass.
func NewThicknessConstraint(lookback int, minThickness float64) *ThicknessConstraint {
	if lookback < 1 {
		lookback = 1
	}
	if !(minThickness > 0) {
		minThickness = 0
	}
	return &ThicknessConstraint{lookback: lookback, minThickness: minThickness}
}

// RequiredLookback returns the configured lookback (at least 1, since a
// point needs its successor).
func (f *ThicknessConstraint) RequiredLookback() int { return f.lookback }

// Reset forgets the stream position.
func (f *ThicknessConstraint) Reset() { f.processed = 0 }

// Process clamps the thickness of interior points in the revisited span.
func (f *ThicknessConstraint) Process(w *ring.Buffer[stroke.Point]) {
	n := w.Len()
	if n == 0 {
		return
	}
	f.processed++
	streamStart := f.processed == n

	for i := n - min(n, f.lookback+1); i < n-1; i++ {
		if i == 0 && streamStart {
			continue // first point of the stroke is an endpoint
		}
		p := w.At(i)
		lateral := p.Binormal()
		bound := p.Thickness
		if i > 0 {
			bound = math.Min(bound, PlaneBound(p.Position, lateral, w.At(i-1)))
		}
		bound = math.Min(bound, PlaneBound(p.Position, lateral, w.At(i+1)))

		if floor := math.Min(p.Thickness, f.minThickness); bound < floor {
			bound = floor
		}
		p.Thickness = bound
	}
}

// PlaneBound returns the widest ribbon, centred on pos and spread along
// lateral, that stays on pos's side of neighbour's cross-section plane.
// It returns +Inf when the lateral axis runs parallel to that plane.
func PlaneBound(pos, lateral r3.Vec, neighbour *stroke.Point) float64 {
	normal := neighbour.Tangent()
	denom := r3.Dot(lateral, normal)
	if math.Abs(denom) < geom.ParallelEpsilon {
		return math.Inf(1)
	}
	s := r3.Dot(r3.Sub(neighbour.Position, pos), normal) / denom
	b := 2 * math.Abs(s)
	if math.IsNaN(b) {
		return math.Inf(1)
	}
	return b
}

// ThicknessSmoothing tapers thickness toward nearby thinner points. A point
// d samples away from a thinner point j may be at most
// t_j + (d/radius)·(t_i − t_j), so thin spots widen gradually over radius
// samples instead of stepping.
type ThicknessSmoothing struct {
	radius  int
	scratch []float64
}

// NewThicknessSmoothing returns a smoothing filter over the given radius.
func NewThicknessSmoothing(radius int) *ThicknessSmoothing {
	if radius < 0 {
		radius = 0
	}
	return &ThicknessSmoothing{radius: radius, scratch: make([]float64, 0, radius+1)}
}

// RequiredLookback returns the radius.
func (f *ThicknessSmoothing) RequiredLookback() int { return f.radius }

// Reset is a no-op; the scratch slice carries no stroke state between passes.
func (f *ThicknessSmoothing) Reset() {}

// Process ratchets every resident point down toward thinner neighbours.
// Limits are computed from a snapshot so the result does not depend on
// visiting order within a pass.
func (f *ThicknessSmoothing) Process(w *ring.Buffer[stroke.Point]) {
	n := w.Len()
	if n < 2 || f.radius == 0 {
		return
	}
	f.scratch = f.scratch[:0]
	for i := 0; i < n; i++ {
		f.scratch = append(f.scratch, w.At(i).Thickness)
	}

	radius := float64(f.radius)
	for i := 0; i < n; i++ {
		ti := f.scratch[i]
		allowed := ti
		for j := max(0, i-f.radius); j <= min(n-1, i+f.radius); j++ {
			tj := f.scratch[j]
			if j == i || tj >= allowed {
				continue
			}
			d := i - j
			if d < 0 {
				d = -d
			}
			if v := tj + float64(d)/radius*(ti-tj); v < allowed {
				allowed = v
			}
		}
		if allowed < ti {
			w.At(i).Thickness = allowed
		}
	}
}
