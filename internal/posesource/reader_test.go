package posesource

import (
	"bytes"
	"context"
	"errors"
	"io"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"
)

const trace = `# two strokes
begin
size 0.02
0 0 0 0 0 0 0 1
0.01 0.01 0 0 0 0 0 1
not a line
end
color #00ff00
0 1 1 1 0 0 0 1
`

func TestReadAll(t *testing.T) {
	events, err := ReadAll(context.Background(), strings.NewReader(trace))
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}

	kinds := make([]EventKind, len(events))
	for i, ev := range events {
		kinds[i] = ev.Kind
	}
	want := []EventKind{EventBegin, EventSize, EventSample, EventSample, EventEnd, EventColor, EventSample}
	if !slices.Equal(kinds, want) {
		t.Fatalf("kinds = %v, want %v", kinds, want)
	}
	if events[0].Line != 2 || events[6].Line != 9 {
		t.Errorf("lines = %d, %d; want 2, 9", events[0].Line, events[6].Line)
	}
}

func TestReaderCountsMalformed(t *testing.T) {
	r := NewReader(strings.NewReader(trace))
	out := make(chan Event, 16)
	if err := r.Run(context.Background(), out); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if r.Malformed() != 1 || len(out) != 7 {
		t.Errorf("Malformed() = %d, events = %d; want 1, 7", r.Malformed(), len(out))
	}
}

func TestReaderStopsOnCancel(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan Event)
	done := make(chan error, 1)
	go func() { done <- NewReader(pr).Run(ctx, out) }()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

// fakePort is an in-memory SerialPorter.
type fakePort struct {
	mu      sync.Mutex
	in      io.Reader
	written bytes.Buffer
	closed  bool
	short   bool
}

func (p *fakePort) Read(b []byte) (int, error) { return p.in.Read(b) }

func (p *fakePort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.short {
		return len(b) - 1, nil
	}
	return p.written.Write(b)
}

func (p *fakePort) Close() error {
	p.closed = true
	return nil
}

func TestSerialSource(t *testing.T) {
	port := &fakePort{in: strings.NewReader("begin\n0 0 0 0 0 0 0 1\nend\n")}
	src := NewSerialSource(port)

	for _, cmd := range []string{"stream on", "rate 90\n"} {
		if err := src.SendCommand(cmd); err != nil {
			t.Fatalf("SendCommand(%q): %v", cmd, err)
		}
	}
	if got, want := port.written.String(), "stream on\nrate 90\n"; got != want {
		t.Errorf("written = %q, want %q", got, want)
	}

	out := make(chan Event, 8)
	if err := src.Run(context.Background(), out); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(out) != 3 || src.Malformed() != 0 {
		t.Errorf("events = %d, Malformed() = %d; want 3, 0", len(out), src.Malformed())
	}

	if err := src.Close(); err != nil || !port.closed {
		t.Errorf("Close() = %v, closed = %v", err, port.closed)
	}
}

func TestSerialSourceShortWrite(t *testing.T) {
	src := NewSerialSource(&fakePort{in: strings.NewReader(""), short: true})
	if err := src.SendCommand("ping"); !errors.Is(err, ErrWriteFailed) {
		t.Errorf("SendCommand() = %v, want ErrWriteFailed", err)
	}
}
