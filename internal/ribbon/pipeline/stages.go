package pipeline

import (
	"errors"
	"reflect"

	"github.com/banshee-data/ribbon/internal/ribbon/ring"
	"github.com/banshee-data/ribbon/internal/ribbon/stroke"
)

// Filter is one stage of the pipeline. Process may revise any resident
// point; RequiredLookback is how many points behind the newest it may still
// change. Reset clears per-stroke state.
type Filter interface {
	RequiredLookback() int
	Process(window *ring.Buffer[stroke.Point])
	Reset()
}

// Renderer receives pipeline output.
//
// Refresh is called after every filter pass with the full point sequence
// and the number of trailing entries that changed. The slice is only valid
// for the duration of the call.
type Renderer interface {
	Initialize()
	Refresh(points []stroke.Point, touched int)
	Finalize() error
}

// isNilInterface checks if an interface value is nil or contains a nil pointer.
// This handles the Go interface nil pitfall where interface{} != nil but the underlying value is nil.
func isNilInterface(i interface{}) bool {
	if i == nil {
		return true
	}
	v := reflect.ValueOf(i)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		return v.IsNil()
	}
	return false
}

// Tee fans every call out to each non-nil renderer in order. Finalize
// errors are joined.
func Tee(renderers ...Renderer) Renderer {
	t := make(tee, 0, len(renderers))
	for _, r := range renderers {
		if !isNilInterface(r) {
			t = append(t, r)
		}
	}
	return t
}

type tee []Renderer

func (t tee) Initialize() {
	for _, r := range t {
		r.Initialize()
	}
}

func (t tee) Refresh(points []stroke.Point, touched int) {
	for _, r := range t {
		r.Refresh(points, touched)
	}
}

func (t tee) Finalize() error {
	var errs []error
	for _, r := range t {
		if err := r.Finalize(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
