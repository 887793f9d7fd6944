// Package posesource reads tracked pose samples and stroke control events
// from text streams (trace files, serial trackers) and feeds them to a
// stroke pipeline.
//
// The line format is one event per line:
//
//	begin
//	end
//	color #rrggbb[aa]
//	size <meters>
//	<dt> <px> <py> <pz> <qx> <qy> <qz> <qw>
//
// Blank lines and lines starting with '#' are ignored.
package posesource

import (
	"fmt"

	"github.com/banshee-data/ribbon/internal/ribbon/stroke"
)

// EventKind identifies the type of a parsed line.
type EventKind int

const (
	EventSample EventKind = iota
	EventBegin
	EventEnd
	EventColor
	EventSize
)

func (k EventKind) String() string {
	switch k {
	case EventSample:
		return "sample"
	case EventBegin:
		return "begin"
	case EventEnd:
		return "end"
	case EventColor:
		return "color"
	case EventSize:
		return "size"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is one parsed input line. Only the field matching Kind is set.
type Event struct {
	Kind   EventKind
	Line   int // 1-based source line, 0 when not read from a stream
	Sample stroke.Sample
	Color  stroke.Color
	Size   float64
}
