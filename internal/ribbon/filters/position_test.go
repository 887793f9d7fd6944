package filters

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/ribbon/internal/ribbon/geom"
	"github.com/banshee-data/ribbon/internal/ribbon/stroke"
	"github.com/banshee-data/ribbon/internal/testutil"
)

func samplesAlongX(xs ...float64) []stroke.Sample {
	out := make([]stroke.Sample, len(xs))
	for i, x := range xs {
		out[i] = stroke.Sample{Position: r3.Vec{X: x}, Orientation: geom.Identity()}
	}
	return out
}

func TestPositionSmoothingRadiusZeroIsIdentity(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	samples := testutil.RandomWalk(rng, 50, 0.001, 0.05)

	out := drive(samples, NewPositionSmoothing(0))
	if len(out) != len(samples) {
		t.Fatalf("got %d points, want %d", len(out), len(samples))
	}
	for i := range samples {
		if out[i].Position != samples[i].Position {
			t.Errorf("point %d: position %v, want %v", i, out[i].Position, samples[i].Position)
		}
	}
}

func TestPositionSmoothing(t *testing.T) {
	tests := []struct {
		name   string
		radius int
		xs     []float64
		want   []float64
	}{
		{
			name:   "radius 1 averages raw positions",
			radius: 1,
			xs:     []float64{0, 1, 4, 9, 16},
			want:   []float64{0, 5.0 / 3, 14.0 / 3, 29.0 / 3, 16},
		},
		{
			// The radius shrinks symmetrically near both ends of the stream.
			name:   "radius 2 truncates at the ends",
			radius: 2,
			xs:     []float64{0, 10, 20, 100, 110, 120, 130},
			want: []float64{
				0,
				10,
				(0 + 10 + 20 + 100 + 110) / 5.0,
				(10 + 20 + 100 + 110 + 120) / 5.0,
				(20 + 100 + 110 + 120 + 130) / 5.0,
				120,
				130,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := drive(samplesAlongX(tt.xs...), NewPositionSmoothing(tt.radius))
			if len(out) != len(tt.want) {
				t.Fatalf("got %d points, want %d", len(out), len(tt.want))
			}
			for i, w := range tt.want {
				if got := out[i].Position.X; math.Abs(got-w) > 1e-12 {
					t.Errorf("point %d: x = %v, want %v", i, got, w)
				}
			}
		})
	}
}

func TestPositionSmoothingDoesNotCompound(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	samples := testutil.RandomWalk(rng, 40, 0.01, 0.02)
	const radius = 3

	// A window larger than the filter needs: points are handed to the filter
	// many more times but must settle on the same values.
	f := NewPositionSmoothing(radius)
	w := testutil.Window(12)
	for _, s := range samples[:12] {
		w.Add(stroke.NewPoint(s))
		f.Process(w)
	}

	got := testutil.Points(w)
	for i := radius; i < 12-radius; i++ {
		var sum r3.Vec
		for j := i - radius; j <= i+radius; j++ {
			sum = r3.Add(sum, samples[j].Position)
		}
		want := r3.Scale(1.0/(2*radius+1), sum)
		if d := vecDist(want, got[i].Position); d > 1e-12 {
			t.Errorf("point %d: off by %g from the raw average", i, d)
		}
	}
}

func TestPositionSmoothingReset(t *testing.T) {
	f := NewPositionSmoothing(2)
	w := testutil.Window(3, testutil.StraightStroke(3, 1, geom.Identity())...)
	f.Process(w)
	f.Reset()
	w.Clear()

	for _, s := range samplesAlongX(50, 60) {
		w.Add(stroke.NewPoint(s))
		f.Process(w)
	}
	if got := w.Get(0).Position.X; got != 50 {
		t.Errorf("x = %v after Reset, want 50 (no history from the previous stroke)", got)
	}
}

func TestPositionSmoothingNegativeRadius(t *testing.T) {
	f := NewPositionSmoothing(-4)
	if f.Radius() != 0 || f.RequiredLookback() != 0 {
		t.Errorf("radius %d lookback %d, want 0 and 0", f.Radius(), f.RequiredLookback())
	}
}
