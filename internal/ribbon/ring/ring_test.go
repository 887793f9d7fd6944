package ring

import (
	"slices"
	"testing"
)

// mustPanic fails the test unless fn panics.
func mustPanic(t *testing.T, name string, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Errorf("%s: expected panic", name)
		}
	}()
	fn()
}

func TestNewPanicsOnNonPositiveCapacity(t *testing.T) {
	mustPanic(t, "New(0)", func() { New[int](0) })
	mustPanic(t, "New(-3)", func() { New[int](-3) })
}

func TestAddEvictsOldest(t *testing.T) {
	b := New[int](3)

	for i := 1; i <= 3; i++ {
		if _, evicted := b.Add(i); evicted {
			t.Errorf("add %d evicted", i)
		}
	}
	if b.Len() != 3 || !b.Full() {
		t.Fatalf("Len() = %d, Full() = %v; want 3, true", b.Len(), b.Full())
	}

	old, evicted := b.Add(4)
	if !evicted || old != 1 {
		t.Errorf("Add(4) = %d, %v; want 1, true", old, evicted)
	}
	if b.Len() != 3 || b.Cap() != 3 {
		t.Errorf("Len() = %d, Cap() = %d; want 3, 3", b.Len(), b.Cap())
	}

	tests := []struct {
		name      string
		got, want int
	}{
		{"Get(0)", b.Get(0), 2},
		{"Get(2)", b.Get(2), 4},
		{"GetFromEnd(0)", b.GetFromEnd(0), 4},
		{"GetFromEnd(2)", b.GetFromEnd(2), 2},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %d, want %d", tt.name, tt.got, tt.want)
		}
	}
}

func TestSetAndSetFromEnd(t *testing.T) {
	b := New[string](4)
	for _, s := range []string{"a", "b", "c", "d", "e", "f"} {
		b.Add(s)
	}
	// retained: c d e f
	b.Set(0, "C")
	b.SetFromEnd(0, "F")
	b.SetFromEnd(2, "D")

	if got, want := b.AppendTo(nil), []string{"C", "D", "e", "F"}; !slices.Equal(got, want) {
		t.Errorf("contents = %v, want %v", got, want)
	}
	if b.Len() != 4 {
		t.Errorf("Len() = %d after Set, want 4", b.Len())
	}
}

func TestAtMutatesInPlace(t *testing.T) {
	type pt struct{ x int }
	b := New[pt](2)
	b.Add(pt{1})
	b.Add(pt{2})
	b.Add(pt{3})

	b.At(0).x = 20
	b.AtFromEnd(0).x = 30
	if got, want := b.AppendTo(nil), []pt{{20}, {30}}; !slices.Equal(got, want) {
		t.Errorf("contents = %v, want %v", got, want)
	}
}

func TestClearKeepsCapacity(t *testing.T) {
	b := New[int](5)
	for i := 0; i < 7; i++ {
		b.Add(i)
	}
	b.Clear()
	if b.Len() != 0 || b.Cap() != 5 {
		t.Errorf("after Clear: Len() = %d, Cap() = %d; want 0, 5", b.Len(), b.Cap())
	}

	b.Add(42)
	if b.Get(0) != 42 || b.GetFromEnd(0) != 42 {
		t.Errorf("after Add(42): Get(0) = %d, GetFromEnd(0) = %d", b.Get(0), b.GetFromEnd(0))
	}
}

func TestIndexOutOfRangePanics(t *testing.T) {
	b := New[int](3)
	b.Add(1)

	tests := []struct {
		name string
		fn   func()
	}{
		{"get negative", func() { b.Get(-1) }},
		{"get past size", func() { b.Get(1) }},
		{"get from end past size", func() { b.GetFromEnd(1) }},
		{"set past size", func() { b.Set(2, 0) }},
		{"set from end negative", func() { b.SetFromEnd(-1, 0) }},
		{"at on empty slot", func() { b.At(2) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mustPanic(t, tt.name, tt.fn)
		})
	}
}

func TestWrapAroundOrdering(t *testing.T) {
	b := New[int](4)
	for i := 0; i < 11; i++ {
		b.Add(i)
		n := b.Len()
		for k := 0; k < n; k++ {
			if got := b.GetFromEnd(k); got != i-k {
				t.Errorf("after %d adds: GetFromEnd(%d) = %d, want %d", i+1, k, got, i-k)
			}
			if got := b.Get(k); got != i-n+1+k {
				t.Errorf("after %d adds: Get(%d) = %d, want %d", i+1, k, got, i-n+1+k)
			}
		}
	}
}

func TestSteadyStateDoesNotAllocate(t *testing.T) {
	b := New[[4]float64](8)
	for i := 0; i < 8; i++ {
		b.Add([4]float64{})
	}
	allocs := testing.AllocsPerRun(100, func() {
		b.Add([4]float64{1, 2, 3, 4})
		v := b.Get(3)
		v[0]++
		b.Set(3, v)
		_ = b.GetFromEnd(0)
		b.SetFromEnd(1, v)
	})
	if allocs != 0 {
		t.Errorf("steady state allocated %v times per run, want 0", allocs)
	}
}
