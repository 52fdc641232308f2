// Package orchestrator coordinates one dispatch end to end: it records the
// inbound user message, classifies it against recent thread context,
// resolves the chosen agent through the registry, invokes it synchronously
// or as a stream, and records the response. Classification and invocation
// are never retried; a failure at either step is surfaced to the caller and
// only the user message is guaranteed recorded.
package orchestrator
