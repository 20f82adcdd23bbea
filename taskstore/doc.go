// Package taskstore implements the client-side event-sourced projection of
// task state. A Store consumes the ordered lifecycle event stream and applies
// a deterministic reducer to maintain one TrackedTask snapshot per task key.
//
// The reducer is a pure function of (current projection, event): no hidden
// clock, no I/O. Any number of Store instances fed the same event prefix
// converge to the same state, which is what lets multiple windows project the
// same run independently.
//
// Each task retains a bounded ring of the raw events it received, a
// debugging and replay aid rather than the source of truth for status.
package taskstore
