package posesource

import (
	"bufio"
	"context"
	"io"
)

// maxLineBytes bounds a single input line.
const maxLineBytes = 64 * 1024

// Reader turns a line stream into events.
type Reader struct {
	r io.Reader

	lines     int
	malformed int
}

// NewReader returns a Reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Malformed returns how many lines were skipped as unparseable.
func (r *Reader) Malformed() int { return r.malformed }

// Run sends parsed events to out until the stream ends, ctx is cancelled or
// a read fails. Malformed lines are logged and skipped. Run does not close
// out. A clean end of stream returns nil.
func (r *Reader) Run(ctx context.Context, out chan<- Event) error {
	scan := bufio.NewScanner(r.r)
	scan.Buffer(make([]byte, 0, 4096), maxLineBytes)

	lineChan := make(chan string)
	scanErrChan := make(chan error, 1)

	// The blocking scan runs on its own goroutine so cancellation is
	// observed even while a serial read is pending.
	go func() {
		defer close(lineChan)
		for scan.Scan() {
			select {
			case lineChan <- scan.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scan.Err(); err != nil {
			scanErrChan <- err
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case line, ok := <-lineChan:
			if !ok {
				select {
				case err := <-scanErrChan:
					return err
				default:
					return nil
				}
			}
			r.lines++
			ev, ok, err := ParseLine(line)
			if err != nil {
				r.malformed++
				opsf("line %d: %v", r.lines, err)
				continue
			}
			if !ok {
				continue
			}
			ev.Line = r.lines
			select {
			case out <- ev:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// ReadAll parses every event in r. Malformed lines are skipped.
func ReadAll(ctx context.Context, r io.Reader) ([]Event, error) {
	out := make(chan Event)
	errc := make(chan error, 1)
	go func() {
		errc <- NewReader(r).Run(ctx, out)
		close(out)
	}()

	var events []Event
	for ev := range out {
		events = append(events, ev)
	}
	return events, <-errc
}
