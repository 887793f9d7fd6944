package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/banshee-data/ribbon/internal/ribbon/stroke"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig represents the root configuration for the stroke pipeline.
// Every field is optional; the Get* methods supply defaults for anything
// left out, so partial configs are safe.
type TuningConfig struct {
	// Position smoothing
	PositionSmoothingRadius *int `json:"position_smoothing_radius,omitempty"`

	// Frame propagation
	OrientationLookback *int     `json:"orientation_lookback,omitempty"` // 0 derives radius+1
	RollDeadzoneDeg     *float64 `json:"roll_deadzone_deg,omitempty"`
	RollFullAngleDeg    *float64 `json:"roll_full_angle_deg,omitempty"`
	RollGain            *float64 `json:"roll_gain,omitempty"`

	// Thickness
	ConstraintLookback       *int     `json:"constraint_lookback,omitempty"`
	MinThickness             *float64 `json:"min_thickness,omitempty"`
	ThicknessSmoothingRadius *int     `json:"thickness_smoothing_radius,omitempty"`

	// Brush
	BrushSize  *float64 `json:"brush_size,omitempty"`
	BrushColor *string  `json:"brush_color,omitempty"` // hex like "#ff8800"

	// Input gating and output
	MinSegment *float64 `json:"min_segment,omitempty"`
	Commit     *bool    `json:"commit,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from the defaults file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// DefaultTuningConfig returns a TuningConfig with every field populated
// from the built-in defaults.
func DefaultTuningConfig() *TuningConfig {
	return &TuningConfig{
		PositionSmoothingRadius:  ptrInt(2),
		OrientationLookback:      ptrInt(0),
		RollDeadzoneDeg:          ptrFloat64(2),
		RollFullAngleDeg:         ptrFloat64(20),
		RollGain:                 ptrFloat64(1),
		ConstraintLookback:       ptrInt(0),
		MinThickness:             ptrFloat64(0.0005),
		ThicknessSmoothingRadius: ptrInt(16),
		BrushSize:                ptrFloat64(0.01),
		BrushColor:               ptrString("#ffffff"),
		MinSegment:               ptrFloat64(0.001),
		Commit:                   ptrBool(true),
	}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
// Fields omitted from the JSON file fall back to defaults through the Get* methods.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,       // from internal/config/
		"../../../" + DefaultConfigPath,    // from internal/ribbon/pipeline/
		"../../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	nonNegInt := map[string]*int{
		"position_smoothing_radius":  c.PositionSmoothingRadius,
		"orientation_lookback":       c.OrientationLookback,
		"thickness_smoothing_radius": c.ThicknessSmoothingRadius,
	}
	for name, v := range nonNegInt {
		if v != nil && *v < 0 {
			return fmt.Errorf("%s must be non-negative, got %d", name, *v)
		}
	}

	if c.ConstraintLookback != nil && *c.ConstraintLookback != 0 {
		if lb, floor := *c.ConstraintLookback, c.MinConstraintLookback(); lb < floor {
			return fmt.Errorf("constraint_lookback must be 0 (derived) or at least %d to cover points still moved by smoothing and frame propagation, got %d", floor, lb)
		}
	}

	if c.RollDeadzoneDeg != nil {
		if !finite(*c.RollDeadzoneDeg) || *c.RollDeadzoneDeg < 0 || *c.RollDeadzoneDeg > 180 {
			return fmt.Errorf("roll_deadzone_deg must be between 0 and 180, got %f", *c.RollDeadzoneDeg)
		}
	}
	if c.RollFullAngleDeg != nil {
		if !finite(*c.RollFullAngleDeg) || *c.RollFullAngleDeg < 0 || *c.RollFullAngleDeg > 180 {
			return fmt.Errorf("roll_full_angle_deg must be between 0 and 180, got %f", *c.RollFullAngleDeg)
		}
	}
	if c.GetRollFullAngleDeg() < c.GetRollDeadzoneDeg() {
		return fmt.Errorf("roll_full_angle_deg (%f) must not be below roll_deadzone_deg (%f)",
			c.GetRollFullAngleDeg(), c.GetRollDeadzoneDeg())
	}
	if c.RollGain != nil {
		if !finite(*c.RollGain) || *c.RollGain < 0 || *c.RollGain > 1 {
			return fmt.Errorf("roll_gain must be between 0 and 1, got %f", *c.RollGain)
		}
	}

	positive := map[string]*float64{
		"min_thickness": c.MinThickness,
		"brush_size":    c.BrushSize,
	}
	for name, v := range positive {
		if v != nil && (!finite(*v) || *v <= 0) {
			return fmt.Errorf("%s must be positive, got %f", name, *v)
		}
	}

	if c.MinSegment != nil && (!finite(*c.MinSegment) || *c.MinSegment < 0) {
		return fmt.Errorf("min_segment must be non-negative, got %f", *c.MinSegment)
	}

	if c.BrushColor != nil && *c.BrushColor != "" {
		if _, err := stroke.ParseColor(*c.BrushColor); err != nil {
			return fmt.Errorf("invalid brush_color '%s': %w", *c.BrushColor, err)
		}
	}

	return nil
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

// GetPositionSmoothingRadius returns the position_smoothing_radius value or the default.
func (c *TuningConfig) GetPositionSmoothingRadius() int {
	if c.PositionSmoothingRadius == nil {
		return 2
	}
	return *c.PositionSmoothingRadius
}

// GetOrientationLookback returns the frame propagation lookback. Zero (or
// unset) derives it from the smoothing radius so every point smoothing can
// still move gets its frame recomputed.
func (c *TuningConfig) GetOrientationLookback() int {
	if c.OrientationLookback == nil || *c.OrientationLookback == 0 {
		return c.GetPositionSmoothingRadius() + 1
	}
	return *c.OrientationLookback
}

// GetRollDeadzoneDeg returns the roll_deadzone_deg value or the default.
func (c *TuningConfig) GetRollDeadzoneDeg() float64 {
	if c.RollDeadzoneDeg == nil {
		return 2
	}
	return *c.RollDeadzoneDeg
}

// GetRollFullAngleDeg returns the roll_full_angle_deg value or the default.
func (c *TuningConfig) GetRollFullAngleDeg() float64 {
	if c.RollFullAngleDeg == nil {
		return 20
	}
	return *c.RollFullAngleDeg
}

// GetRollGain returns the roll_gain value or the default.
func (c *TuningConfig) GetRollGain() float64 {
	if c.RollGain == nil {
		return 1
	}
	return *c.RollGain
}

// MinConstraintLookback is the smallest constraint lookback that revisits
// a point after its position and frame are final: one more than the
// larger of the smoothing radius and the orientation lookback.
func (c *TuningConfig) MinConstraintLookback() int {
	return max(c.GetPositionSmoothingRadius(), c.GetOrientationLookback()) + 1
}

// GetConstraintLookback returns the constraint_lookback value. Zero (or
// unset) derives MinConstraintLookback.
func (c *TuningConfig) GetConstraintLookback() int {
	if c.ConstraintLookback == nil || *c.ConstraintLookback == 0 {
		return c.MinConstraintLookback()
	}
	return *c.ConstraintLookback
}

// GetMinThickness returns the min_thickness value or the default.
func (c *TuningConfig) GetMinThickness() float64 {
	if c.MinThickness == nil {
		return 0.0005
	}
	return *c.MinThickness
}

// GetThicknessSmoothingRadius returns the thickness_smoothing_radius value or the default.
func (c *TuningConfig) GetThicknessSmoothingRadius() int {
	if c.ThicknessSmoothingRadius == nil {
		return 16
	}
	return *c.ThicknessSmoothingRadius
}

// GetBrushSize returns the brush_size value or the default.
func (c *TuningConfig) GetBrushSize() float64 {
	if c.BrushSize == nil {
		return 0.01
	}
	return *c.BrushSize
}

// GetBrushColor parses and returns the brush color, white when unset or
// unparseable.
func (c *TuningConfig) GetBrushColor() stroke.Color {
	if c.BrushColor == nil || *c.BrushColor == "" {
		return stroke.White
	}
	col, err := stroke.ParseColor(*c.BrushColor)
	if err != nil {
		return stroke.White // default on parse error
	}
	return col
}

// GetMinSegment returns the min_segment value or the default.
func (c *TuningConfig) GetMinSegment() float64 {
	if c.MinSegment == nil {
		return 0.001
	}
	return *c.MinSegment
}

// GetCommit returns the commit value or the default.
func (c *TuningConfig) GetCommit() bool {
	if c.Commit == nil {
		return true
	}
	return *c.Commit
}
