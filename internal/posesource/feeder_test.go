package posesource

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/ribbon/internal/config"
	"github.com/banshee-data/ribbon/internal/ribbon/pipeline"
	"github.com/banshee-data/ribbon/internal/ribbon/stroke"
	"github.com/banshee-data/ribbon/internal/testutil"
)

func newFeeder(minSegment float64) (*Feeder, *[][]stroke.Point) {
	o, brush := pipeline.NewFromTuning(config.DefaultTuningConfig(), nil, nil)
	f := NewFeeder(o, brush, minSegment)
	var strokes [][]stroke.Point
	f.OnStroke = func(points []stroke.Point) { strokes = append(strokes, points) }
	return f, &strokes
}

func sampleEvent(x, dt float64) Event {
	return Event{Kind: EventSample, Sample: stroke.Sample{
		Position:    r3.Vec{X: x},
		Orientation: testutil.DeviceFacingUp(),
		DeltaTime:   dt,
	}}
}

// applyAll feeds events to f and fails the test on the first error.
func applyAll(t *testing.T, f *Feeder, events ...Event) {
	t.Helper()
	for i, ev := range events {
		if err := f.Apply(ev); err != nil {
			t.Fatalf("Apply(#%d %v): %v", i, ev.Kind, err)
		}
	}
}

func TestFeederRunsStrokes(t *testing.T) {
	f, strokes := newFeeder(0.001)
	green := stroke.Color{G: 1, A: 1}

	events := []Event{
		{Kind: EventBegin},
		{Kind: EventSize, Size: 0.03},
		{Kind: EventColor, Color: green},
	}
	for i := 0; i < 10; i++ {
		events = append(events, sampleEvent(0.01*float64(i), testutil.SampleInterval))
	}
	applyAll(t, f, append(events, Event{Kind: EventEnd})...)

	if len(*strokes) != 1 || len((*strokes)[0]) != 10 {
		t.Fatalf("got %d strokes, want one of 10 points", len(*strokes))
	}
	for i, p := range (*strokes)[0] {
		if p.Thickness != 0.03 || p.Color != green {
			t.Errorf("point %d: thickness %v color %+v, want 0.03 green", i, p.Thickness, p.Color)
		}
	}
	if got, want := f.Stats(), (Stats{Strokes: 1, Samples: 10, Accepted: 10}); got != want {
		t.Errorf("Stats() = %+v, want %+v", got, want)
	}
}

func TestFeederGatesShortSegments(t *testing.T) {
	f, strokes := newFeeder(0.005)

	applyAll(t, f,
		Event{Kind: EventBegin},
		sampleEvent(0, 0),
		sampleEvent(0.001, 0.01),
		sampleEvent(0.002, 0.01),
		sampleEvent(0.01, 0.01),
		Event{Kind: EventEnd},
	)

	points := (*strokes)[0]
	if len(points) != 2 {
		t.Fatalf("got %d points, want 2", len(points))
	}
	if got := points[1].DeltaTime; math.Abs(got-0.03) > 1e-12 {
		t.Errorf("DeltaTime = %v, want gated 0.03 carried forward", got)
	}
	if got := f.Stats().Gated; got != 2 {
		t.Errorf("Gated = %d, want 2", got)
	}
}

func TestFeederImplicitBeginAndInvalidSamples(t *testing.T) {
	f, strokes := newFeeder(0)

	bad := sampleEvent(0, 0)
	bad.Sample.Position.Y = math.Inf(1)
	applyAll(t, f, sampleEvent(0, 0), bad, sampleEvent(0.01, 0.01), Event{Kind: EventEnd})

	if len(*strokes) != 1 || len((*strokes)[0]) != 2 {
		t.Fatalf("got strokes %v, want one stroke of 2 points", *strokes)
	}
	if got := f.Stats().Invalid; got != 1 {
		t.Errorf("Invalid = %d, want 1", got)
	}
}

func TestFeederCarriesDeltaTimeOfInvalidSamples(t *testing.T) {
	tests := []struct {
		name   string
		badDT  float64
		wantDT float64
	}{
		{name: "invalid sample", badDT: 0.01, wantDT: 0.02},
		{name: "negative delta ignored", badDT: -0.5, wantDT: 0.01},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, strokes := newFeeder(0)
			bad := sampleEvent(0.005, tt.badDT)
			bad.Sample.Position.Y = math.Inf(1)

			applyAll(t, f, sampleEvent(0, 0), bad, sampleEvent(0.01, 0.01), Event{Kind: EventEnd})
			if len(*strokes) != 1 || len((*strokes)[0]) != 2 {
				t.Fatalf("got strokes %v, want one stroke of 2 points", *strokes)
			}
			if got := (*strokes)[0][1].DeltaTime; math.Abs(got-tt.wantDT) > 1e-12 {
				t.Errorf("accepted DeltaTime = %v, want %v", got, tt.wantDT)
			}
		})
	}
}

func TestFeederRunEndsOpenStroke(t *testing.T) {
	f, strokes := newFeeder(0.001)
	input := "begin\nbegin\n0 0 0 0 0 0 0 1\n0.01 0.01 0 0 0 0 0 1\nend\nend\n0 1 0 0 0 0 0 1\n0.01 1.01 0 0 0 0 0 1\n"

	events := make(chan Event)
	errc := make(chan error, 1)
	go func() {
		errc <- NewReader(strings.NewReader(input)).Run(context.Background(), events)
		close(events)
	}()

	if err := f.Run(context.Background(), events); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if err := <-errc; err != nil {
		t.Fatalf("reader: %v", err)
	}

	// Duplicate begin/end are ignored and the trailing stroke is closed.
	if len(*strokes) != 2 {
		t.Fatalf("got %d strokes, want 2", len(*strokes))
	}
	for i, s := range *strokes {
		if len(s) != 2 {
			t.Errorf("stroke %d has %d points, want 2", i, len(s))
		}
	}
}

func TestFeederRunCancelled(t *testing.T) {
	f, _ := newFeeder(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := f.Run(ctx, make(chan Event)); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() = %v, want context.Canceled", err)
	}
}
