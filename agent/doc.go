// Package agent contains first-class agent implementations for Inkfold. The
// package focuses on two concerns:
//
//  1. Identity plumbing shared by all agents (BaseAgent)
//  2. Concrete implementations: FuncAgent for arbitrary job bodies and
//     ChatAgent for model-backed token streaming
//
// Design principles:
//   - Embed BaseAgent; only implement Run plus any custom API
//   - Agents surface failures by returning errors; the run coordinator owns
//     the translation into lifecycle events
//   - Cancellation is observed between yields via the run context
package agent
