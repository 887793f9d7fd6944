// Package filters implements the stages of the stroke pipeline.
//
// Every filter works on the live window held by the pipeline orchestrator,
// oldest point first, and may revise any resident point. Filters are run in
// registration order on each ingested sample, so a filter sees the window
// as left by the filters registered before it. The standard order is
//
//	PositionSmoothing → OrientationFramePropagation → ThicknessAssignment →
//	ThicknessConstraint → ThicknessSmoothing → ColorAssignment
//
// Filters keep their own scratch state and are not safe for concurrent use.
package filters
