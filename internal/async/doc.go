// Package async runs parts of a build concurrently and joins them back.
//
// An Engine is scoped to one build run. Fork registers a uniquely named unit
// and starts its body on a new goroutine; the body writes its build output
// into the unit, which buffers it. Join waits for a unit, replays the
// buffered output into the joining sink in its original order and returns
// the unit's failure, if any. A unit is joined at most once: later joins of
// the same unit are silent no-ops.
//
// Failures inside a body, including panics, never escape the goroutine.
// They are kept on the unit and surface only when it is joined.
package async
