package pipeline

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/num/quat"

	"github.com/banshee-data/ribbon/internal/ribbon/geom"
	"github.com/banshee-data/ribbon/internal/ribbon/ring"
	"github.com/banshee-data/ribbon/internal/ribbon/stroke"
)

// unitTolerance is how far from unit length a captured orientation may be
// before it is renormalised.
const unitTolerance = 1e-12

// State is the orchestrator's stroke state.
type State int

const (
	// StateIdle means no stroke is open.
	StateIdle State = iota
	// StateBuffering means samples are being accepted.
	StateBuffering
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateBuffering:
		return "buffering"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Orchestrator drives samples through the registered filters and mirrors
// the live window into the committed output.
//
// The committed output is laid out as final entries followed by live
// entries; the live entries mirror the resident window from its oldest
// point, so evicting a point finalizes exactly one live entry.
type Orchestrator struct {
	filters     []Filter
	maxLookback int
	window      *ring.Buffer[stroke.Point]

	state      State
	committing bool

	commit  Renderer
	preview Renderer

	committed   []stroke.Point
	liveFrom    int // committed[:liveFrom] is final
	refreshFrom int // committed[refreshFrom:] not yet seen by the commit renderer

	previewScratch []stroke.Point
	lastRaw        quat.Number
	ingested       int
}

// New returns an idle orchestrator with no filters. Either renderer may be
// nil.
func New(commit, preview Renderer) *Orchestrator {
	o := &Orchestrator{
		committing: true,
		window:     ring.New[stroke.Point](1),
		lastRaw:    geom.Identity(),
	}
	if !isNilInterface(commit) {
		o.commit = commit
	}
	if !isNilInterface(preview) {
		o.preview = preview
	}
	return o
}

// AddFilter appends f to the filter chain and resizes the window to
// 1 + the largest lookback.
//
// Registering mid-stroke discards the resident points and resets every
// filter; points already committed are kept.
func (o *Orchestrator) AddFilter(f Filter) {
	if isNilInterface(f) {
		opsf("ignoring nil filter")
		return
	}
	if o.state == StateBuffering {
		opsf("WARNING: filter %T registered mid-stroke; discarding %d resident points", f, o.window.Len())
		o.liveFrom = len(o.committed)
		for _, existing := range o.filters {
			existing.Reset()
		}
		f.Reset()
	}
	o.filters = append(o.filters, f)
	o.maxLookback = max(o.maxLookback, f.RequiredLookback())
	o.window = ring.New[stroke.Point](o.Capacity())
	o.previewScratch = make([]stroke.Point, 0, o.Capacity())
	diagf("filter %T registered: lookback=%d capacity=%d", f, f.RequiredLookback(), o.Capacity())
}

// Capacity returns the window capacity, 1 + MaxLookback.
func (o *Orchestrator) Capacity() int { return 1 + o.maxLookback }

// MaxLookback returns the largest lookback over the registered filters.
func (o *Orchestrator) MaxLookback() int { return o.maxLookback }

// Len returns the number of resident points.
func (o *Orchestrator) Len() int { return o.window.Len() }

// State returns the current stroke state.
func (o *Orchestrator) State() State { return o.state }

// Committing reports whether ingestion copies into the committed output.
func (o *Orchestrator) Committing() bool { return o.committing }

// SetCommitting turns committed output on or off. Points ingested while
// committing is off never reach the committed output.
//
// Entries committed before the switch stay live: while committing is off
// each one takes the final value of its point when that point is evicted,
// and any still resident are settled from the window when committing comes
// back on or the stroke ends.
func (o *Orchestrator) SetCommitting(on bool) {
	if on && !o.committing && o.state == StateBuffering {
		o.settle()
	}
	o.committing = on
}

// Committed returns a copy of the committed output.
func (o *Orchestrator) Committed() []stroke.Point { return slices.Clone(o.committed) }

// FinalizedCount returns how many leading committed points are final.
func (o *Orchestrator) FinalizedCount() int { return o.liveFrom }

// Window returns a copy of the resident points, oldest first.
func (o *Orchestrator) Window() []stroke.Point { return o.window.AppendTo(nil) }

// BeginStroke opens a new stroke. It fails with ErrAlreadyBuffering, and
// leaves everything untouched, if a stroke is already open.
func (o *Orchestrator) BeginStroke() error {
	if o.state == StateBuffering {
		opsf("WARNING: BeginStroke while buffering %d points; ignored", o.window.Len())
		return ErrAlreadyBuffering
	}
	o.window.Clear()
	for _, f := range o.filters {
		f.Reset()
	}
	o.committed = nil
	o.liveFrom = 0
	o.refreshFrom = 0
	o.lastRaw = geom.Identity()
	o.ingested = 0
	o.state = StateBuffering

	if o.commit != nil {
		o.commit.Initialize()
	}
	if o.preview != nil {
		o.preview.Initialize()
	}
	diagf("stroke begun: filters=%d capacity=%d committing=%v", len(o.filters), o.Capacity(), o.committing)
	return nil
}

// Ingest pushes one sample through the filter chain.
//
// A sample with a non-finite position is dropped with ErrInvalidSample. A
// negative or non-finite delta time is clamped to zero, and an unusable
// orientation is replaced by the previous sample's.
func (o *Orchestrator) Ingest(s stroke.Sample) error {
	if o.state != StateBuffering {
		return ErrNotBuffering
	}
	if !geom.IsFiniteVec(s.Position) {
		opsf("dropping sample %d: non-finite position %v", o.ingested, s.Position)
		return fmt.Errorf("%w: non-finite position %v", ErrInvalidSample, s.Position)
	}
	if !(s.DeltaTime >= 0) || math.IsInf(s.DeltaTime, 0) {
		tracef("clamping delta time %v to 0", s.DeltaTime)
		s.DeltaTime = 0
	}
	if !geom.IsUnit(s.Orientation, unitTolerance) {
		if q, ok := geom.Normalize(s.Orientation); ok {
			s.Orientation = q
		} else {
			opsf("sample %d: unusable orientation %v, reusing previous", o.ingested, s.Orientation)
			s.Orientation = o.lastRaw
		}
	}
	o.lastRaw = s.Orientation

	if old, evicted := o.window.Add(stroke.NewPoint(s)); evicted && o.liveFrom < len(o.committed) {
		if !o.committing {
			o.committed[o.liveFrom] = old
			o.refreshFrom = min(o.refreshFrom, o.liveFrom)
		}
		o.liveFrom++
	}
	o.ingested++

	for _, f := range o.filters {
		f.Process(o.window)
	}

	n := o.window.Len()
	if o.committing {
		o.mirror()
		o.refreshCommit()
	}
	if o.preview != nil {
		o.previewScratch = o.window.AppendTo(o.previewScratch[:0])
		o.preview.Refresh(o.previewScratch, n)
	}
	tracef("ingested sample %d: resident=%d committed=%d final=%d", o.ingested-1, n, len(o.committed), o.liveFrom)
	return nil
}

// mirror overwrites the live committed entries with the resident window.
func (o *Orchestrator) mirror() {
	o.refreshFrom = min(o.refreshFrom, o.liveFrom)
	o.committed = o.window.AppendTo(o.committed[:o.liveFrom])
}

// settle copies resident points over the live entries they back, without
// adding entries for points ingested while committing was off.
func (o *Orchestrator) settle() {
	live := min(len(o.committed)-o.liveFrom, o.window.Len())
	if live <= 0 {
		return
	}
	for k := range live {
		o.committed[o.liveFrom+k] = o.window.Get(k)
	}
	o.refreshFrom = min(o.refreshFrom, o.liveFrom)
}

// refreshCommit hands the commit renderer every entry rewritten since its
// last refresh.
func (o *Orchestrator) refreshCommit() {
	if o.commit != nil && o.refreshFrom < len(o.committed) {
		o.commit.Refresh(o.committed, len(o.committed)-o.refreshFrom)
	}
	o.refreshFrom = len(o.committed)
}

// EndStroke flushes the resident points into the committed output (when
// committing), finalizes both renderers and returns the committed points.
// Renderer errors are logged, not returned.
func (o *Orchestrator) EndStroke() ([]stroke.Point, error) {
	if o.state != StateBuffering {
		return nil, ErrNotBuffering
	}
	switch {
	case o.committing && o.window.Len() > 0:
		o.mirror()
	case !o.committing:
		o.settle()
	}
	o.refreshCommit()
	o.liveFrom = len(o.committed)
	o.window.Clear()
	o.state = StateIdle

	if o.commit != nil {
		if err := o.commit.Finalize(); err != nil {
			opsf("commit renderer finalize failed: %v", err)
		}
	}
	if o.preview != nil {
		if err := o.preview.Finalize(); err != nil {
			opsf("preview renderer finalize failed: %v", err)
		}
	}

	sum := stroke.Summarize(o.committed)
	diagf("stroke ended: ingested=%d committed=%d length=%.4fm duration=%.3fs thickness=[%.5f, %.5f]",
		o.ingested, sum.Points, sum.LengthMeters, sum.DurationSecs, sum.MinThickness, sum.MaxThickness)
	return o.committed, nil
}
