// Package agent contains first-class agent implementations built on the
// core.Agent contract. The package covers three kinds of responders:
//
//  1. FuncAgent, a deterministic agent backed by a plain Go function
//  2. ModelAgent, a conversational agent backed by a model.Model
//  3. RemoteAgent, a client for an agent served over HTTP by another relay
//
// All implementations embed BaseAgent for identity and guarantee the
// streaming contract: fragment channels are finite, mid-stream failures are
// encoded as a final error-marker fragment, and no error ever escapes the
// channel itself.
package agent
