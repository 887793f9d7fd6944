// Package stroke defines the values that flow through the stroke pipeline:
// raw input samples and the oriented, sized points built from them.
package stroke

import (
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/ribbon/internal/ribbon/geom"
)

// Sample is one accepted pose update from the input layer.
type Sample struct {
	Position    r3.Vec
	Orientation quat.Number // device orientation, unit quaternion
	DeltaTime   float64     // seconds since the previous accepted sample
}

// Point is a single oriented, sized stroke point.
//
// Rotation and Normal are kept consistent through SetRotation; filters
// must not assign Rotation directly.
type Point struct {
	Position       r3.Vec
	Rotation       quat.Number
	Normal         r3.Vec
	RawOrientation quat.Number // device orientation at capture; never filtered
	DeltaTime      float64
	Thickness      float64
	Color          Color
}

// NewPoint builds a point from a sample, bootstrapping its frame from the
// device orientation.
func NewPoint(s Sample) Point {
	p := Point{
		Position:       s.Position,
		RawOrientation: s.Orientation,
		DeltaTime:      s.DeltaTime,
	}
	p.SetRotation(s.Orientation)
	return p
}

// SetRotation sets the frame rotation and derives the normal from it.
func (p *Point) SetRotation(q quat.Number) {
	p.Rotation = q
	p.Normal = geom.Normal(q)
}

// Tangent returns the frame's forward axis.
func (p *Point) Tangent() r3.Vec { return geom.Tangent(p.Rotation) }

// Binormal returns the frame's lateral axis, the direction the ribbon
// extends across.
func (p *Point) Binormal() r3.Vec { return geom.Binormal(p.Rotation) }

// IsFinite reports whether every numeric field is finite.
func (p *Point) IsFinite() bool {
	return geom.IsFiniteVec(p.Position) &&
		geom.IsFinite(p.Rotation) &&
		geom.IsFiniteVec(p.Normal) &&
		geom.IsFinite(p.RawOrientation)
}
