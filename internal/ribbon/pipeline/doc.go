// Package pipeline turns a live stream of pose samples into finalized
// stroke points.
//
// An Orchestrator owns a fixed-capacity window of recent points and an
// ordered list of filters. Each ingested sample is pushed into the window,
// every filter revises the window in registration order, and the result is
// mirrored into the committed output and handed to the renderer sinks.
// Points leave the window oldest first; once evicted they are final.
//
// The orchestrator is synchronous: renderers are called inline with
// ingestion, so a slow renderer stalls the producer. One Orchestrator
// serves one stroke source and is not safe for concurrent use.
package pipeline
