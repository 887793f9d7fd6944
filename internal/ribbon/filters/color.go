package filters

import (
	"github.com/banshee-data/ribbon/internal/ribbon/ring"
	"github.com/banshee-data/ribbon/internal/ribbon/stroke"
)

// ColorAssignment stamps the current brush color onto the newest point.
type ColorAssignment struct {
	color stroke.Color
}

// NewColorAssignment returns an assignment filter for c.
func NewColorAssignment(c stroke.Color) *ColorAssignment {
	return &ColorAssignment{color: c}
}

// SetColor changes the color used for subsequent samples.
func (f *ColorAssignment) SetColor(c stroke.Color) { f.color = c }

// Color returns the current brush color.
func (f *ColorAssignment) Color() stroke.Color { return f.color }

// RequiredLookback is zero.
func (f *ColorAssignment) RequiredLookback() int { return 0 }

// Reset is a no-op; the color belongs to the caller.
func (f *ColorAssignment) Reset() {}

// Process sets the newest point's color.
func (f *ColorAssignment) Process(w *ring.Buffer[stroke.Point]) {
	if w.Len() == 0 {
		return
	}
	w.AtFromEnd(0).Color = f.color
}
