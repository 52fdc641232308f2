// Package core defines the shared data model and contracts of the relay:
// conversation messages and threads, the Agent capability interface, the
// ThreadRepository and Classifier contracts, and the typed error taxonomy
// used across package boundaries.
//
// Concrete implementations live in their own packages (memory, registry,
// classifier, agent); core itself has no internal dependencies.
package core
