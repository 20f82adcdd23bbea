// Package engine provides the submission boundary a UI or IPC layer binds
// to. It wires the agent registry, run coordinator, event hub and the
// producer-side task projection into one facade:
//
//   - Submit maps a job onto an agent invocation, assigns the task id and
//     priority, enforces the admission cap and emits the queued event before
//     the run starts, so observers always see queued before started.
//   - Cancel, List and Agents delegate to the coordinator.
//   - AttachObserver / DetachObserver manage event delivery endpoints.
//   - TaskSnapshots exposes the producer-side projection so an observer that
//     attaches mid-run can seed its local store; missed events are not
//     redelivered.
//
// The engine itself adds only policy (ids, priority, admission). All
// lifecycle semantics live in the runner and the store.
package engine
