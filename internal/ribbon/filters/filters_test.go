package filters

import (
	"github.com/banshee-data/ribbon/internal/ribbon/ring"
	"github.com/banshee-data/ribbon/internal/ribbon/stroke"
)

// stage is the filter contract as the orchestrator consumes it.
type stage interface {
	RequiredLookback() int
	Process(w *ring.Buffer[stroke.Point])
	Reset()
}

// drive feeds samples through stages the way the orchestrator does and
// returns every point in its final state: evicted points as they leave the
// window, then whatever is still resident.
func drive(samples []stroke.Sample, stages ...stage) []stroke.Point {
	capacity := 1
	for _, s := range stages {
		s.Reset()
		capacity = max(capacity, 1+s.RequiredLookback())
	}
	w := ring.New[stroke.Point](capacity)
	out := make([]stroke.Point, 0, len(samples))
	for _, s := range samples {
		if old, evicted := w.Add(stroke.NewPoint(s)); evicted {
			out = append(out, old)
		}
		for _, st := range stages {
			st.Process(w)
		}
	}
	return w.AppendTo(out)
}
