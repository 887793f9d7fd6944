package posesource

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/ribbon/internal/ribbon/stroke"
)

// ErrMalformedLine is returned by ParseLine for text that is not an event.
var ErrMalformedLine = errors.New("posesource: malformed line")

// ParseLine parses one line. It returns ok == false for blank and comment
// lines.
func ParseLine(line string) (ev Event, ok bool, err error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return Event{}, false, nil
	}
	fields := strings.Fields(line)

	switch strings.ToLower(fields[0]) {
	case "begin":
		return Event{Kind: EventBegin}, true, nil
	case "end":
		return Event{Kind: EventEnd}, true, nil
	case "color":
		if len(fields) != 2 {
			return Event{}, false, fmt.Errorf("%w: color wants 1 argument, got %d", ErrMalformedLine, len(fields)-1)
		}
		c, err := stroke.ParseColor(fields[1])
		if err != nil {
			return Event{}, false, fmt.Errorf("%w: %w", ErrMalformedLine, err)
		}
		return Event{Kind: EventColor, Color: c}, true, nil
	case "size":
		if len(fields) != 2 {
			return Event{}, false, fmt.Errorf("%w: size wants 1 argument, got %d", ErrMalformedLine, len(fields)-1)
		}
		size, err := strconv.ParseFloat(fields[1], 64)
		if err != nil || !(size > 0) {
			return Event{}, false, fmt.Errorf("%w: invalid size %q", ErrMalformedLine, fields[1])
		}
		return Event{Kind: EventSize, Size: size}, true, nil
	}

	if len(fields) != 8 {
		return Event{}, false, fmt.Errorf("%w: sample wants 8 fields, got %d", ErrMalformedLine, len(fields))
	}
	var v [8]float64
	for i, f := range fields {
		if v[i], err = strconv.ParseFloat(f, 64); err != nil {
			return Event{}, false, fmt.Errorf("%w: field %d: %w", ErrMalformedLine, i+1, err)
		}
	}
	return Event{
		Kind: EventSample,
		Sample: stroke.Sample{
			DeltaTime:   v[0],
			Position:    r3.Vec{X: v[1], Y: v[2], Z: v[3]},
			Orientation: quat.Number{Real: v[7], Imag: v[4], Jmag: v[5], Kmag: v[6]},
		},
	}, true, nil
}

// FormatSample renders s in the sample line format.
func FormatSample(s stroke.Sample) string {
	q := s.Orientation
	return strings.Join([]string{
		fmtFloat(s.DeltaTime),
		fmtFloat(s.Position.X), fmtFloat(s.Position.Y), fmtFloat(s.Position.Z),
		fmtFloat(q.Imag), fmtFloat(q.Jmag), fmtFloat(q.Kmag), fmtFloat(q.Real),
	}, " ")
}

func fmtFloat(f float64) string { return strconv.FormatFloat(f, 'g', -1, 64) }
