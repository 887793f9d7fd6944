package pipeline

import (
	"errors"
	"fmt"

	"github.com/banshee-data/ribbon/internal/config"
	"github.com/banshee-data/ribbon/internal/ribbon/filters"
	"github.com/banshee-data/ribbon/internal/ribbon/geom"
	"github.com/banshee-data/ribbon/internal/ribbon/stroke"
)

// Brush exposes the caller-controlled filter inputs of a standard chain.
type Brush struct {
	size  *filters.ThicknessAssignment
	color *filters.ColorAssignment
}

// SetSize changes the brush size for subsequent samples.
func (b *Brush) SetSize(size float64) { b.size.SetSize(size) }

// Size returns the current brush size.
func (b *Brush) Size() float64 { return b.size.Size() }

// SetColor changes the brush color for subsequent samples.
func (b *Brush) SetColor(c stroke.Color) { b.color.SetColor(c) }

// Color returns the current brush color.
func (b *Brush) Color() stroke.Color { return b.color.Color() }

// NewFromTuning builds an orchestrator with the standard filter chain:
// position smoothing, frame propagation, thickness assignment, thickness
// constraint, thickness smoothing and color assignment.
func NewFromTuning(cfg *config.TuningConfig, commit, preview Renderer) (*Orchestrator, *Brush) {
	if cfg == nil {
		cfg = config.EmptyTuningConfig()
	}
	brush := &Brush{
		size:  filters.NewThicknessAssignment(cfg.GetBrushSize()),
		color: filters.NewColorAssignment(cfg.GetBrushColor()),
	}

	o := New(commit, preview)
	o.AddFilter(filters.NewPositionSmoothing(cfg.GetPositionSmoothingRadius()))
	o.AddFilter(filters.NewOrientationFramePropagation(filters.FrameConfig{
		Lookback:      cfg.GetOrientationLookback(),
		RollDeadzone:  geom.Radians(cfg.GetRollDeadzoneDeg()),
		RollFullAngle: geom.Radians(cfg.GetRollFullAngleDeg()),
		RollGain:      cfg.GetRollGain(),
	}))
	o.AddFilter(brush.size)
	// The constraint must see each point once more after smoothing and
	// frame propagation stop moving it.
	constraintLookback := max(cfg.GetConstraintLookback(), cfg.MinConstraintLookback())
	o.AddFilter(filters.NewThicknessConstraint(constraintLookback, cfg.GetMinThickness()))
	o.AddFilter(filters.NewThicknessSmoothing(cfg.GetThicknessSmoothingRadius()))
	o.AddFilter(brush.color)
	o.SetCommitting(cfg.GetCommit())
	return o, brush
}

// Replay runs samples through o as one complete stroke and returns the
// committed points. Invalid samples are skipped.
func Replay(o *Orchestrator, samples []stroke.Sample) ([]stroke.Point, error) {
	if err := o.BeginStroke(); err != nil {
		return nil, err
	}
	for i, s := range samples {
		if err := o.Ingest(s); err != nil {
			if errors.Is(err, ErrInvalidSample) {
				continue
			}
			return nil, fmt.Errorf("replay sample %d: %w", i, err)
		}
	}
	return o.EndStroke()
}
