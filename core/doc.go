// Package core provides the foundational domain types, interfaces and
// execution contexts used by Inkfold. It defines the core abstractions for:
//
//   - Agents (cancellable units of AI-backed background work)
//   - TaskEvents (the closed set of immutable lifecycle event variants)
//   - RunContext (scoped execution state handed to an agent's Run method)
//   - EventSink (the delivery boundary between the runner and observers)
//
// The package intentionally keeps implementation concerns (concrete agents,
// run orchestration, the observer hub, the client-side projection) out of
// scope, exposing small interfaces to enable custom backends and extensions.
package core
