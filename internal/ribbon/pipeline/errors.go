package pipeline

import "errors"

var (
	// ErrAlreadyBuffering is returned by BeginStroke while a stroke is open.
	ErrAlreadyBuffering = errors.New("pipeline: stroke already in progress")
	// ErrNotBuffering is returned by Ingest and EndStroke with no open stroke.
	ErrNotBuffering = errors.New("pipeline: no stroke in progress")
	// ErrInvalidSample is returned by Ingest for a sample that cannot be used.
	ErrInvalidSample = errors.New("pipeline: invalid sample")
)
