package strokedb

import (
	"context"
	"time"

	"github.com/banshee-data/ribbon/internal/ribbon/stroke"
)

// Recorder is a pipeline renderer that saves each finished stroke.
type Recorder struct {
	db      *DB
	source  string
	timeout time.Duration

	points []stroke.Point
	lastID string
}

// NewRecorder returns a recorder writing to db, tagging strokes with source.
func NewRecorder(db *DB, source string) *Recorder {
	return &Recorder{db: db, source: source, timeout: 10 * time.Second}
}

// Initialize starts a new stroke.
func (r *Recorder) Initialize() {
	r.points = r.points[:0]
}

// Refresh keeps a copy of the latest committed points. Only the trailing
// touched entries are copied; earlier entries are unchanged since the last
// call.
func (r *Recorder) Refresh(points []stroke.Point, touched int) {
	keep := len(points) - min(max(touched, 0), len(points))
	if keep > len(r.points) {
		keep = 0
	}
	r.points = append(r.points[:keep], points[keep:]...)
}

// Finalize saves the stroke. Empty strokes are skipped.
func (r *Recorder) Finalize() error {
	if len(r.points) == 0 {
		diagf("skipping empty stroke from %q", r.source)
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	id, err := r.db.SaveStroke(ctx, r.source, r.points)
	if err != nil {
		return err
	}
	r.lastID = id
	diagf("recorded stroke %s (%d points)", id, len(r.points))
	return nil
}

// LastID returns the ID of the most recently saved stroke.
func (r *Recorder) LastID() string { return r.lastID }
