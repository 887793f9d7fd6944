package filters

import (
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/ribbon/internal/ribbon/geom"
	"github.com/banshee-data/ribbon/internal/ribbon/ring"
	"github.com/banshee-data/ribbon/internal/ribbon/stroke"
)

// MinSegmentLength is the segment length below which a point keeps its
// predecessor's frame.
const MinSegmentLength = 1e-9

// FrameConfig tunes OrientationFramePropagation. Angles are in radians.
type FrameConfig struct {
	// Lookback is how many points behind the newest are re-derived on each
	// pass. It must cover every point an earlier filter can still move.
	Lookback int
	// RollDeadzone is the misalignment below which no roll correction is
	// applied.
	RollDeadzone float64
	// RollFullAngle is the misalignment at which roll correction reaches
	// RollGain. Between the deadzone and this angle strength follows a
	// smoothstep.
	RollFullAngle float64
	// RollGain scales the roll correction, in [0, 1].
	RollGain float64
}

// DefaultFrameConfig returns the production frame settings.
func DefaultFrameConfig() FrameConfig {
	return FrameConfig{
		Lookback:      3,
		RollDeadzone:  geom.Radians(2),
		RollFullAngle: geom.Radians(20),
		RollGain:      1,
	}
}

// OrientationFramePropagation derives each point's tangent/normal/binormal
// frame from its predecessor's frame, the segment joining them and the raw
// device orientation, by composing a pitch, a yaw and a damped roll
// correction.
type OrientationFramePropagation struct {
	cfg       FrameConfig
	processed int // samples seen since Reset
}

// NewOrientationFramePropagation returns a frame filter.
func NewOrientationFramePropagation(cfg FrameConfig) *OrientationFramePropagation {
	if cfg.Lookback < 0 {
		cfg.Lookback = 0
	}
	cfg.RollGain = geom.ClampUnit(cfg.RollGain)
	if cfg.RollFullAngle < cfg.RollDeadzone {
		cfg.RollFullAngle = cfg.RollDeadzone
	}
	return &OrientationFramePropagation{cfg: cfg}
}

// RequiredLookback returns the configured lookback.
func (f *OrientationFramePropagation) RequiredLookback() int { return f.cfg.Lookback }

// Reset forgets the stream position.
func (f *OrientationFramePropagation) Reset() { f.processed = 0 }

// Process re-derives the frames of the newest Lookback+1 resident points,
// anchored on the frame of the point just before them.
func (f *OrientationFramePropagation) Process(w *ring.Buffer[stroke.Point]) {
	n := w.Len()
	if n == 0 {
		return
	}
	f.processed++
	streamStart := f.processed == n // nothing evicted yet

	first := n - min(n, f.cfg.Lookback+1)
	for i := first; i < n; i++ {
		p := w.At(i)
		if i == 0 {
			if streamStart {
				f.bootstrap(p, w)
			}
			continue
		}
		prev := w.At(i - 1)
		p.SetRotation(f.propagate(prev.Rotation, prev.Position, p.Position, p.RawOrientation))
	}
}

// bootstrap sets the first point's frame: the raw device frame, fully
// aligned to the first segment once one exists.
func (f *OrientationFramePropagation) bootstrap(p *stroke.Point, w *ring.Buffer[stroke.Point]) {
	q := p.RawOrientation
	if w.Len() > 1 {
		next := w.At(1)
		if dir, ok := direction(p.Position, next.Position); ok {
			q = f.align(q, dir, p.RawOrientation, true)
		}
	}
	p.SetRotation(q)
}

// propagate returns the frame for a point reached from prevPos along the
// segment to pos.
func (f *OrientationFramePropagation) propagate(prevQ quat.Number, prevPos, pos r3.Vec, raw quat.Number) quat.Number {
	dir, ok := direction(prevPos, pos)
	if !ok {
		tracef("zero-length segment at %v, keeping previous frame", pos)
		return prevQ
	}
	return f.align(prevQ, dir, raw, false)
}

// align rotates q so its tangent follows dir, then rolls its normal toward
// the nearer of the device's up or down axis.
func (f *OrientationFramePropagation) align(q quat.Number, dir r3.Vec, raw quat.Number, fullRoll bool) quat.Number {
	start := q

	// Pitch: swing the tangent within the tangent/normal plane.
	t := geom.Tangent(q)
	b := geom.Binormal(q)
	inPlane := geom.ProjectOnPlane(dir, b)
	if n := r3.Norm(inPlane); n > geom.ParallelEpsilon {
		q = compose(geom.FromTo(t, r3.Scale(1/n, inPlane), b, 1), q)
	}

	// Yaw: take the tangent the rest of the way out of plane.
	q = compose(geom.FromTo(geom.Tangent(q), dir, geom.Normal(q), 1), q)

	// Roll: twist about the tangent toward the device's up/down axis.
	q = compose(f.roll(q, raw, fullRoll), q)

	if !geom.IsFinite(q) {
		opsf("non-finite frame for segment %v, keeping previous frame", dir)
		return start
	}
	return q
}

func (f *OrientationFramePropagation) roll(q, raw quat.Number, full bool) quat.Number {
	t := geom.Tangent(q)
	n := geom.Normal(q)
	up := geom.Normal(raw)
	if r3.Dot(up, n) < 0 {
		up = r3.Scale(-1, up)
	}
	target := geom.ProjectOnPlane(up, t)
	tn := r3.Norm(target)
	if !(tn > geom.ParallelEpsilon) {
		// Device up runs along the tangent: no roll reference.
		return geom.Identity()
	}
	target = r3.Scale(1/tn, target)

	strength := 1.0
	if !full {
		strength = f.rollStrength(geom.AngleBetween(n, target))
	}
	if strength == 0 {
		return geom.Identity()
	}
	return geom.FromTo(n, target, t, strength)
}

// rollStrength is the deadzone-then-damp curve: zero inside the deadzone,
// easing up to RollGain at RollFullAngle.
func (f *OrientationFramePropagation) rollStrength(angle float64) float64 {
	dz, full := f.cfg.RollDeadzone, f.cfg.RollFullAngle
	if angle <= dz {
		return 0
	}
	if full <= dz {
		return f.cfg.RollGain
	}
	return f.cfg.RollGain * geom.SmoothStep((angle-dz)/(full-dz))
}

// compose applies delta after q. An exact identity delta returns q
// unchanged so straight runs never accumulate rounding.
func compose(delta, q quat.Number) quat.Number {
	if delta == geom.Identity() {
		return q
	}
	out, ok := geom.Normalize(geom.Mul(delta, q))
	if !ok {
		return q
	}
	return out
}

func direction(from, to r3.Vec) (r3.Vec, bool) {
	seg := r3.Sub(to, from)
	l := r3.Norm(seg)
	if !(l > MinSegmentLength) || !geom.IsFiniteVec(seg) {
		return r3.Vec{}, false
	}
	return r3.Scale(1/l, seg), true
}
