// Package model defines the minimal language-model contract agents are built
// on, plus a deterministic MockModel for tests and demos. Vendor adapters
// live in subpackages (openai, anthropic) and normalize their SDK envelopes
// into the shared Request/Response shapes.
package model
