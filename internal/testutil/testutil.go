// Package testutil provides shared test fixtures for the stroke pipeline.
//
// This package centralises sample-stream generators and window builders so
// filter, pipeline and storage tests exercise the same geometry.
package testutil

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/ribbon/internal/ribbon/geom"
	"github.com/banshee-data/ribbon/internal/ribbon/ring"
	"github.com/banshee-data/ribbon/internal/ribbon/stroke"
)

// SampleInterval is the delta time used by the generated streams (90 Hz).
const SampleInterval = 1.0 / 90

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// DeviceFacingUp returns a device orientation whose up axis points along +Z,
// so strokes drawn in the XY plane get an in-plane lateral axis.
func DeviceFacingUp() quat.Number {
	return geom.AxisAngle(geom.Right, math.Pi/2)
}

// StraightStroke returns n samples spaced along +X with a constant
// orientation.
func StraightStroke(n int, spacing float64, orientation quat.Number) []stroke.Sample {
	out := make([]stroke.Sample, n)
	for i := range out {
		out[i] = stroke.Sample{
			Position:    r3.Vec{X: float64(i) * spacing},
			Orientation: orientation,
			DeltaTime:   SampleInterval,
		}
	}
	out[0].DeltaTime = 0
	return out
}

// TurnStroke returns three samples in the XY plane: an origin, a point
// spacing along +X, and a third point spacing further after the heading
// turns by turnDeg degrees.
func TurnStroke(turnDeg, spacing float64) []stroke.Sample {
	heading := geom.Radians(turnDeg)
	p1 := r3.Vec{X: spacing}
	p2 := r3.Add(p1, r3.Vec{X: spacing * math.Cos(heading), Y: spacing * math.Sin(heading)})
	q := DeviceFacingUp()
	return []stroke.Sample{
		{Position: r3.Vec{}, Orientation: q},
		{Position: p1, Orientation: q, DeltaTime: SampleInterval},
		{Position: p2, Orientation: q, DeltaTime: SampleInterval},
	}
}

// RandomUnitQuat returns a uniformly distributed unit quaternion.
func RandomUnitQuat(rng *rand.Rand) quat.Number {
	u1, u2, u3 := rng.Float64(), rng.Float64(), rng.Float64()
	a, b := math.Sqrt(1-u1), math.Sqrt(u1)
	return quat.Number{
		Real: a * math.Sin(2*math.Pi*u2),
		Imag: a * math.Cos(2*math.Pi*u2),
		Jmag: b * math.Sin(2*math.Pi*u3),
		Kmag: b * math.Cos(2*math.Pi*u3),
	}
}

// RandomWalk returns n samples whose consecutive segments have random
// directions and lengths in [minStep, maxStep), each with a random device
// orientation.
func RandomWalk(rng *rand.Rand, n int, minStep, maxStep float64) []stroke.Sample {
	out := make([]stroke.Sample, n)
	var pos r3.Vec
	for i := range out {
		if i > 0 {
			dir := r3.Unit(r3.Vec{X: rng.NormFloat64(), Y: rng.NormFloat64(), Z: rng.NormFloat64()})
			pos = r3.Add(pos, r3.Scale(minStep+rng.Float64()*(maxStep-minStep), dir))
		}
		out[i] = stroke.Sample{Position: pos, Orientation: RandomUnitQuat(rng), DeltaTime: SampleInterval}
	}
	return out
}

// Window builds a ring buffer holding points made from samples, oldest first.
// Capacity defaults to len(samples) when capacity is less than that.
func Window(capacity int, samples ...stroke.Sample) *ring.Buffer[stroke.Point] {
	if capacity < len(samples) {
		capacity = len(samples)
	}
	if capacity == 0 {
		capacity = 1
	}
	w := ring.New[stroke.Point](capacity)
	for _, s := range samples {
		w.Add(stroke.NewPoint(s))
	}
	return w
}

// Points returns the window contents, oldest first.
func Points(w *ring.Buffer[stroke.Point]) []stroke.Point {
	return w.AppendTo(nil)
}
