// Package model defines the provider-agnostic text generation abstraction
// agents use to produce tokens.
//
// Core goals:
//   - Unify streaming and non-streaming generation behind one interface
//   - Keep request/response shapes minimal and transport independent
//   - Facilitate lightweight mocking for tests (MockModel)
//
// Providers (OpenAI, Anthropic) implement the Model interface from this
// package so agents remain decoupled from vendor SDKs.
package model
