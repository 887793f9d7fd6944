package strokedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/ribbon/internal/ribbon/stroke"
)

// ErrStrokeNotFound is returned when no stroke has the requested ID.
var ErrStrokeNotFound = errors.New("strokedb: stroke not found")

// StrokeInfo is the stored header of a stroke.
type StrokeInfo struct {
	ID        string
	Source    string
	CreatedAt time.Time
	Summary   stroke.Summary
}

// StrokeRecord is a stored stroke with its points.
type StrokeRecord struct {
	StrokeInfo
	Points []stroke.Point
}

// SaveStroke stores points as a new stroke and returns its ID.
func (db *DB) SaveStroke(ctx context.Context, source string, points []stroke.Point) (string, error) {
	id := uuid.NewString()
	sum := stroke.Summarize(points)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO strokes (stroke_id, source, created_unix_nanos, point_count,
			length_m, duration_s, min_thickness, max_thickness)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, source, db.clock.Now().UnixNano(), sum.Points,
		sum.LengthMeters, sum.DurationSecs, sum.MinThickness, sum.MaxThickness)
	if err != nil {
		return "", fmt.Errorf("failed to insert stroke: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO stroke_points (stroke_id, seq, px, py, pz, rw, rx, ry, rz,
			ow, ox, oy, oz, delta_time, thickness, color_r, color_g, color_b, color_a)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare point insert: %w", err)
	}
	defer stmt.Close()

	for i, p := range points {
		_, err := stmt.ExecContext(ctx, id, i,
			p.Position.X, p.Position.Y, p.Position.Z,
			p.Rotation.Real, p.Rotation.Imag, p.Rotation.Jmag, p.Rotation.Kmag,
			p.RawOrientation.Real, p.RawOrientation.Imag, p.RawOrientation.Jmag, p.RawOrientation.Kmag,
			p.DeltaTime, p.Thickness,
			p.Color.R, p.Color.G, p.Color.B, p.Color.A)
		if err != nil {
			return "", fmt.Errorf("failed to insert point %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit stroke: %w", err)
	}
	tracef("saved stroke %s: %d points from %q", id, len(points), source)
	return id, nil
}

// LoadStroke returns the stroke with the given ID. Normals are derived
// from the stored rotations.
func (db *DB) LoadStroke(ctx context.Context, id string) (*StrokeRecord, error) {
	rec := &StrokeRecord{}
	row := db.QueryRowContext(ctx, `
		SELECT stroke_id, source, created_unix_nanos, point_count,
			length_m, duration_s, min_thickness, max_thickness
		FROM strokes WHERE stroke_id = ?`, id)
	if err := scanInfo(row, &rec.StrokeInfo); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrStrokeNotFound, id)
		}
		return nil, fmt.Errorf("failed to load stroke %s: %w", id, err)
	}

	rows, err := db.QueryContext(ctx, `
		SELECT px, py, pz, rw, rx, ry, rz, ow, ox, oy, oz,
			delta_time, thickness, color_r, color_g, color_b, color_a
		FROM stroke_points WHERE stroke_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query points for %s: %w", id, err)
	}
	defer rows.Close()

	rec.Points = make([]stroke.Point, 0, rec.Summary.Points)
	for rows.Next() {
		var (
			pos    r3.Vec
			rot    quat.Number
			raw    quat.Number
			p      stroke.Point
			dt, th float64
		)
		if err := rows.Scan(&pos.X, &pos.Y, &pos.Z,
			&rot.Real, &rot.Imag, &rot.Jmag, &rot.Kmag,
			&raw.Real, &raw.Imag, &raw.Jmag, &raw.Kmag,
			&dt, &th, &p.Color.R, &p.Color.G, &p.Color.B, &p.Color.A); err != nil {
			return nil, fmt.Errorf("failed to scan point: %w", err)
		}
		p.Position = pos
		p.RawOrientation = raw
		p.DeltaTime = dt
		p.Thickness = th
		p.SetRotation(rot)
		rec.Points = append(rec.Points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read points for %s: %w", id, err)
	}
	return rec, nil
}

// ListStrokes returns stroke headers, newest first. A non-positive limit
// returns every stroke.
func (db *DB) ListStrokes(ctx context.Context, limit int) ([]StrokeInfo, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.QueryContext(ctx, `
		SELECT stroke_id, source, created_unix_nanos, point_count,
			length_m, duration_s, min_thickness, max_thickness
		FROM strokes ORDER BY created_unix_nanos DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list strokes: %w", err)
	}
	defer rows.Close()

	var out []StrokeInfo
	for rows.Next() {
		var info StrokeInfo
		if err := scanInfo(rows, &info); err != nil {
			return nil, fmt.Errorf("failed to scan stroke: %w", err)
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

// DeleteStroke removes a stroke and its points.
func (db *DB) DeleteStroke(ctx context.Context, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM strokes WHERE stroke_id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete stroke %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrStrokeNotFound, id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInfo(s scanner, info *StrokeInfo) error {
	var created int64
	if err := s.Scan(&info.ID, &info.Source, &created, &info.Summary.Points,
		&info.Summary.LengthMeters, &info.Summary.DurationSecs,
		&info.Summary.MinThickness, &info.Summary.MaxThickness); err != nil {
		return err
	}
	info.CreatedAt = time.Unix(0, created)
	return nil
}
