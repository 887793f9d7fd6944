// Package geom holds the vector and quaternion helpers used to build stroke
// frames. Vectors are gonum r3.Vec values and rotations are unit gonum
// quaternions (quat.Number); a frame's tangent is Forward, its normal is Up
// and its lateral (binormal) axis is Right, each rotated by the frame.
package geom

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// ParallelEpsilon is the cross-product magnitude below which two unit
// vectors are treated as parallel (or anti-parallel).
const ParallelEpsilon = 1e-9

// Canonical frame axes.
var (
	Right   = r3.Vec{X: 1}
	Up      = r3.Vec{Y: 1}
	Forward = r3.Vec{Z: 1}
)

// Identity returns the identity rotation.
func Identity() quat.Number { return quat.Number{Real: 1} }

// AxisAngle returns the rotation of angle radians about axis. A zero or
// non-finite axis yields the identity.
func AxisAngle(axis r3.Vec, angle float64) quat.Number {
	n := r3.Norm(axis)
	if n == 0 || !IsFiniteVec(axis) || angle == 0 || math.IsNaN(angle) || math.IsInf(angle, 0) {
		return Identity()
	}
	sin, cos := math.Sincos(0.5 * angle)
	s := sin / n
	return quat.Number{Real: cos, Imag: axis.X * s, Jmag: axis.Y * s, Kmag: axis.Z * s}
}

// Mul composes rotations so that the result applies b first, then a.
func Mul(a, b quat.Number) quat.Number { return quat.Mul(a, b) }

// Normalize scales q to unit length. It reports false and returns the
// identity when q has zero length or a non-finite component.
func Normalize(q quat.Number) (quat.Number, bool) {
	if !IsFinite(q) {
		return Identity(), false
	}
	n := quat.Abs(q)
	if n == 0 || math.IsInf(n, 0) {
		return Identity(), false
	}
	return quat.Scale(1/n, q), true
}

// IsFinite reports whether every component of q is finite.
func IsFinite(q quat.Number) bool {
	return !quat.IsNaN(q) && !quat.IsInf(q)
}

// IsFiniteVec reports whether every component of v is finite.
func IsFiniteVec(v r3.Vec) bool {
	return finite(v.X) && finite(v.Y) && finite(v.Z)
}

// IsUnit reports whether q has unit length within tol.
func IsUnit(q quat.Number, tol float64) bool {
	return IsFinite(q) && math.Abs(quat.Abs(q)-1) <= tol
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

// Rotate applies q to v.
func Rotate(q quat.Number, v r3.Vec) r3.Vec {
	return r3.Rotation(q).Rotate(v)
}

// Tangent returns the frame's forward axis.
func Tangent(q quat.Number) r3.Vec { return Rotate(q, Forward) }

// Normal returns the frame's up axis.
func Normal(q quat.Number) r3.Vec { return Rotate(q, Up) }

// Binormal returns the frame's lateral axis.
func Binormal(q quat.Number) r3.Vec { return Rotate(q, Right) }

// ClampUnit clamps x to [0, 1]. NaN maps to 0.
func ClampUnit(x float64) float64 {
	if !(x > 0) {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// AngleBetween returns the angle in [0, π] between unit vectors a and b,
// derived from asin of the clamped cross-product magnitude.
func AngleBetween(a, b r3.Vec) float64 {
	theta := math.Asin(ClampUnit(r3.Norm(r3.Cross(a, b))))
	if r3.Dot(a, b) < 0 {
		theta = math.Pi - theta
	}
	return theta
}

// FromTo returns the rotation carrying unit vector from onto unit vector to,
// scaled by fraction (1 = full rotation). For anti-parallel inputs the
// rotation is a half turn about fallback projected off from; when that is
// degenerate too, any axis perpendicular to from is used.
func FromTo(from, to, fallback r3.Vec, fraction float64) quat.Number {
	c := r3.Cross(from, to)
	s := r3.Norm(c)
	if s < ParallelEpsilon {
		if r3.Dot(from, to) >= 0 {
			return Identity()
		}
		return AxisAngle(Perpendicular(from, fallback), math.Pi*fraction)
	}
	theta := math.Asin(ClampUnit(s))
	if r3.Dot(from, to) < 0 {
		theta = math.Pi - theta
	}
	return AxisAngle(r3.Scale(1/s, c), theta*fraction)
}

// Perpendicular returns a unit vector perpendicular to unit vector v,
// preferring the component of hint orthogonal to v.
func Perpendicular(v, hint r3.Vec) r3.Vec {
	p := ProjectOnPlane(hint, v)
	if n := r3.Norm(p); n > ParallelEpsilon && IsFiniteVec(p) {
		return r3.Scale(1/n, p)
	}
	if math.Abs(v.X) > math.Abs(v.Z) {
		p = r3.Vec{X: -v.Y, Y: v.X}
	} else {
		p = r3.Vec{Y: -v.Z, Z: v.Y}
	}
	if n := r3.Norm(p); n > 0 {
		return r3.Scale(1/n, p)
	}
	return Right
}

// ProjectOnPlane removes from v its component along unit normal n.
func ProjectOnPlane(v, n r3.Vec) r3.Vec {
	return r3.Sub(v, r3.Scale(r3.Dot(v, n), n))
}

// Lerp linearly interpolates between a and b.
func Lerp(a, b r3.Vec, t float64) r3.Vec {
	return r3.Add(a, r3.Scale(t, r3.Sub(b, a)))
}

// Radians converts degrees to radians.
func Radians(deg float64) float64 { return deg * math.Pi / 180 }

// SmoothStep is the cubic Hermite ease on t clamped to [0, 1].
func SmoothStep(t float64) float64 {
	t = ClampUnit(t)
	return t * t * (3 - 2*t)
}
