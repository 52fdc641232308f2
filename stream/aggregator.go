// Package stream converts raw model text fragments into word-boundary-safe
// output units. Upstream providers chunk text arbitrarily, often mid-word;
// forwarding those chunks verbatim makes incremental renderers flicker half
// words. The Aggregator buffers fragments and releases only whole
// whitespace-delimited words, holding back the possibly-incomplete trailing
// token until more input or end of stream.
package stream

import "strings"

// Aggregator accumulates fragments and emits whole-word units. The zero
// value is ready to use. It is not safe for concurrent use; each streaming
// dispatch owns its own Aggregator.
//
// Consumers concatenate emitted units in delivery order to reconstruct the
// full text. Whitespace runs inside a unit are normalized to single spaces,
// so the reconstruction is not guaranteed byte-identical to the
// non-streamed text beyond word content and order.
type Aggregator struct {
	pending string
}

// Push appends a fragment to the accumulator. When the accumulated text
// contains more than one whitespace-delimited token, all tokens except the
// last are returned as one unit (space-joined, trailing space) and the last
// token is retained. Otherwise ok is false and nothing is emitted. Empty
// fragments are tolerated and never terminate the stream.
func (a *Aggregator) Push(fragment string) (unit string, ok bool) {
	acc := a.pending + fragment
	tokens := strings.Fields(acc)
	if len(tokens) <= 1 {
		a.pending = acc
		return "", false
	}
	a.pending = tokens[len(tokens)-1]
	return strings.Join(tokens[:len(tokens)-1], " ") + " ", true
}

// Flush releases the held-back trailing token, if any, and resets the
// accumulator. Call it on stream end, including error-terminated and
// cancelled streams.
func (a *Aggregator) Flush() (unit string, ok bool) {
	tail := strings.TrimSpace(a.pending)
	a.pending = ""
	if tail == "" {
		return "", false
	}
	return tail, true
}
