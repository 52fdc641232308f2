// Package classifier selects which registered agent should handle an inbound
// message. Two pluggable strategies are provided: Keyword, a deterministic
// rule matcher with no external calls, and LLM, which delegates the decision
// to a designated classifier agent and validates its answer against the
// registry before trusting it.
package classifier
