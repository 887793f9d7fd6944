package monitor

import (
	"math"
	"sync"

	"github.com/banshee-data/ribbon/internal/ribbon/stroke"
)

// PreviewSnapshot is a copy of the counters kept by PreviewStats.
type PreviewSnapshot struct {
	Strokes      int
	Refreshes    int     // refreshes in the current or last stroke
	MaxWindow    int     // largest live window seen in the current or last stroke
	MinThickness float64 // thinnest live point seen; 0 when none
	Last         []stroke.Point
}

// PreviewStats is a preview renderer that tracks how the live window
// evolves. It is safe to read from other goroutines while the pipeline
// drives it.
type PreviewStats struct {
	mu   sync.Mutex
	snap PreviewSnapshot
}

// NewPreviewStats returns an empty PreviewStats.
func NewPreviewStats() *PreviewStats {
	return &PreviewStats{}
}

func (s *PreviewStats) Initialize() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Strokes++
	s.snap.Refreshes = 0
	s.snap.MaxWindow = 0
	s.snap.MinThickness = 0
	s.snap.Last = s.snap.Last[:0]
}

func (s *PreviewStats) Refresh(points []stroke.Point, touched int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Refreshes++
	s.snap.MaxWindow = max(s.snap.MaxWindow, len(points))
	for _, p := range points {
		if p.Thickness <= 0 || math.IsNaN(p.Thickness) {
			continue
		}
		if s.snap.MinThickness == 0 || p.Thickness < s.snap.MinThickness {
			s.snap.MinThickness = p.Thickness
		}
	}
	s.snap.Last = append(s.snap.Last[:0], points...)
	tracef("preview refresh %d: window=%d touched=%d", s.snap.Refreshes, len(points), touched)
}

func (s *PreviewStats) Finalize() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	diagf("preview stroke %d: refreshes=%d max_window=%d min_thickness=%.4g",
		s.snap.Strokes, s.snap.Refreshes, s.snap.MaxWindow, s.snap.MinThickness)
	return nil
}

// Snapshot returns a copy of the current counters.
func (s *PreviewStats) Snapshot() PreviewSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.snap
	out.Last = append([]stroke.Point(nil), s.snap.Last...)
	return out
}
