package monitor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/ribbon/internal/fsutil"
	"github.com/banshee-data/ribbon/internal/ribbon/pipeline"
	"github.com/banshee-data/ribbon/internal/ribbon/stroke"
	"github.com/banshee-data/ribbon/internal/strokedb"
	"github.com/banshee-data/ribbon/internal/testutil"
)

var _ pipeline.Renderer = (*PreviewStats)(nil)

func straightPoints(t *testing.T, n int) []stroke.Point {
	t.Helper()
	o, _ := pipeline.NewFromTuning(nil, nil, nil)
	out, err := pipeline.Replay(o, testutil.StraightStroke(n, 0.01, testutil.DeviceFacingUp()))
	require.NoError(t, err)
	require.Len(t, out, n)
	return out
}

func TestPlotStrokeWritesPNGs(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	points := straightPoints(t, 12)

	files, err := PlotStroke(mfs, "/plots/run", "stroke1", points)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join("/plots/run", "stroke1_thickness.png"),
		filepath.Join("/plots/run", "stroke1_path.png"),
	}, files)
	assert.True(t, mfs.Exists("/plots/run"))

	for _, f := range files {
		data, err := mfs.ReadFile(f)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")), "%s is not a PNG", f)
	}
}

func TestPlotStrokeRejectsEmpty(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	_, err := PlotStroke(mfs, "/plots", "empty", nil)
	assert.ErrorIs(t, err, ErrNoPoints)
	assert.Empty(t, mfs.Files("/plots"))
}

func TestGenerateColorsDistinct(t *testing.T) {
	colors := generateColors(4)
	require.Len(t, colors, 4)
	seen := map[[4]uint32]bool{}
	for _, c := range colors {
		r, g, b, a := c.RGBA()
		seen[[4]uint32{r, g, b, a}] = true
		assert.Equal(t, uint32(0xffff), a)
	}
	assert.Len(t, seen, 4)
}

func TestStrokeChartHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, StrokeChartHTML(&buf, "Test Stroke", straightPoints(t, 5)))
	html := buf.String()
	assert.Contains(t, html, "Test Stroke")
	assert.Contains(t, html, "thickness")
	assert.Contains(t, html, "points=5")

	assert.ErrorIs(t, StrokeChartHTML(&buf, "x", nil), ErrNoPoints)
}

func TestChartHandler(t *testing.T) {
	points := straightPoints(t, 4)
	load := func(ctx context.Context, id string) ([]stroke.Point, error) {
		switch id {
		case "abc":
			return points, nil
		case "boom":
			return nil, errors.New("disk on fire")
		case "empty":
			return nil, nil
		}
		return nil, fmt.Errorf("load %s: %w", id, strokedb.ErrStrokeNotFound)
	}
	h := ChartHandler(load)

	tests := []struct {
		query string
		code  int
	}{
		{"?id=abc", http.StatusOK},
		{"", http.StatusBadRequest},
		{"?id=nope", http.StatusNotFound},
		{"?id=boom", http.StatusInternalServerError},
		{"?id=empty", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/chart"+tt.query, nil))
			assert.Equal(t, tt.code, rec.Code)
			if tt.code == http.StatusOK {
				assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html"))
				assert.Contains(t, rec.Body.String(), "Stroke abc")
			}
		})
	}
}

func TestDBLoader(t *testing.T) {
	db, err := strokedb.NewDB(filepath.Join(t.TempDir(), "strokes.db"))
	require.NoError(t, err)
	defer db.Close()

	points := straightPoints(t, 6)
	id, err := db.SaveStroke(context.Background(), "test", points)
	require.NoError(t, err)

	got, err := DBLoader(db)(context.Background(), id)
	require.NoError(t, err)
	assert.Len(t, got, 6)

	_, err = DBLoader(db)(context.Background(), "missing")
	assert.ErrorIs(t, err, strokedb.ErrStrokeNotFound)
}

func TestPreviewStatsTracksWindow(t *testing.T) {
	stats := NewPreviewStats()
	o, _ := pipeline.NewFromTuning(nil, nil, stats)
	_, err := pipeline.Replay(o, testutil.StraightStroke(20, 0.01, testutil.DeviceFacingUp()))
	require.NoError(t, err)

	snap := stats.Snapshot()
	assert.Equal(t, 1, snap.Strokes)
	assert.Equal(t, 20, snap.Refreshes)
	assert.Equal(t, o.Capacity(), snap.MaxWindow)
	assert.InDelta(t, 0.01, snap.MinThickness, 1e-12)
	assert.Len(t, snap.Last, o.Capacity())

	_, err = pipeline.Replay(o, testutil.StraightStroke(3, 0.01, testutil.DeviceFacingUp()))
	require.NoError(t, err)
	snap = stats.Snapshot()
	assert.Equal(t, 2, snap.Strokes)
	assert.Equal(t, 3, snap.Refreshes)
	assert.Equal(t, 3, snap.MaxWindow)
}

func TestPreviewStatsSnapshotIsCopy(t *testing.T) {
	stats := NewPreviewStats()
	stats.Initialize()
	stats.Refresh([]stroke.Point{{Thickness: 0.02}}, 1)
	snap := stats.Snapshot()
	snap.Last[0].Thickness = 5
	assert.Equal(t, 0.02, stats.Snapshot().Last[0].Thickness)
	assert.NoError(t, stats.Finalize())
}

func TestPlotStrokeSanitizesName(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	files, err := PlotStroke(mfs, "/plots", "../evil name", straightPoints(t, 3))
	require.NoError(t, err)
	assert.Equal(t, []string{"/plots/evil_name_path.png", "/plots/evil_name_thickness.png"}, mfs.Files("/plots"))
	assert.Len(t, files, 2)
}
