// Package runner implements the run coordination layer for Inkfold.
//
// The Runner drives one agent invocation per logical run: it resolves the
// agent by name, owns the run's cancellation context, drains the agent's
// emit channel and forwards each lifecycle event through the configured
// event sink (broadcast by default, unicast when a target observer was
// supplied at start). It is the sole boundary that converts agent errors
// into `error` lifecycle events; nothing downstream ever receives a raw
// error value.
//
// Cancellation is cooperative. Cancel signals the run's context; the agent
// is expected to observe the signal between yields and stop. An agent that
// ignores the signal runs to completion and terminates as `completed`.
//
// See runner.go for the operational implementation details.
package runner
