package posesource

import (
	"context"
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/ribbon/internal/ribbon/pipeline"
	"github.com/banshee-data/ribbon/internal/ribbon/stroke"
)

// Stats counts what a Feeder did with its events.
type Stats struct {
	Strokes  int
	Samples  int // sample events seen
	Accepted int // samples handed to the pipeline
	Gated    int // samples dropped for being too close to the previous one
	Invalid  int // samples the pipeline rejected
}

// Feeder applies events to an orchestrator. It opens a stroke implicitly
// when a sample arrives with none open, and drops samples that moved less
// than the minimum segment length since the last accepted one, carrying
// their delta time forward.
type Feeder struct {
	o          *pipeline.Orchestrator
	brush      *pipeline.Brush
	minSegment float64

	// OnStroke, when set, receives the committed points of each finished
	// stroke.
	OnStroke func(points []stroke.Point)

	stats     Stats
	last      r3.Vec
	haveLast  bool
	pendingDT float64
}

// NewFeeder returns a feeder for o. brush may be nil, in which case color
// and size events are ignored.
func NewFeeder(o *pipeline.Orchestrator, brush *pipeline.Brush, minSegment float64) *Feeder {
	if !(minSegment >= 0) {
		minSegment = 0
	}
	return &Feeder{o: o, brush: brush, minSegment: minSegment}
}

// Stats returns the running counters.
func (f *Feeder) Stats() Stats { return f.stats }

// Apply handles one event.
func (f *Feeder) Apply(ev Event) error {
	switch ev.Kind {
	case EventBegin:
		return f.begin()
	case EventEnd:
		return f.end()
	case EventColor:
		if f.brush != nil {
			f.brush.SetColor(ev.Color)
		}
	case EventSize:
		if f.brush != nil {
			f.brush.SetSize(ev.Size)
		}
	case EventSample:
		return f.sample(ev)
	default:
		return fmt.Errorf("unknown event kind %v", ev.Kind)
	}
	return nil
}

func (f *Feeder) begin() error {
	if err := f.o.BeginStroke(); err != nil {
		return err
	}
	f.haveLast = false
	f.pendingDT = 0
	return nil
}

func (f *Feeder) end() error {
	points, err := f.o.EndStroke()
	if err != nil {
		return err
	}
	f.stats.Strokes++
	if f.OnStroke != nil {
		f.OnStroke(points)
	}
	return nil
}

func (f *Feeder) sample(ev Event) error {
	f.stats.Samples++
	if f.o.State() != pipeline.StateBuffering {
		tracef("line %d: sample with no open stroke, beginning one", ev.Line)
		if err := f.begin(); err != nil {
			return err
		}
	}

	s := ev.Sample
	if f.haveLast && r3.Norm(r3.Sub(s.Position, f.last)) < f.minSegment {
		f.stats.Gated++
		if s.DeltaTime > 0 {
			f.pendingDT += s.DeltaTime
		}
		return nil
	}
	s.DeltaTime += f.pendingDT

	if err := f.o.Ingest(s); err != nil {
		if errors.Is(err, pipeline.ErrInvalidSample) {
			f.stats.Invalid++
			if ev.Sample.DeltaTime > 0 {
				f.pendingDT += ev.Sample.DeltaTime
			}
			return nil
		}
		return err
	}
	f.pendingDT = 0
	f.last = s.Position
	f.haveLast = true
	f.stats.Accepted++
	return nil
}

// Run applies events until the channel closes or ctx is cancelled. A
// stroke still open when the channel closes is ended.
func (f *Feeder) Run(ctx context.Context, events <-chan Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				if f.o.State() == pipeline.StateBuffering {
					return f.end()
				}
				return nil
			}
			if err := f.Apply(ev); err != nil {
				if errors.Is(err, pipeline.ErrAlreadyBuffering) || errors.Is(err, pipeline.ErrNotBuffering) {
					opsf("line %d: %s ignored: %v", ev.Line, ev.Kind, err)
					continue
				}
				return fmt.Errorf("line %d: %w", ev.Line, err)
			}
		}
	}
}
