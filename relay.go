// Package agentrelay provides a high-level façade over the orchestrator and
// its supporting services (conversation memory, agent registry, classifier
// and logging) for routing messages between users and agents. Most
// applications interact with this package by:
//  1. Creating a Relay via New() (optionally overriding default in-memory services)
//  2. Registering one or more agents (model-backed, func, remote, custom)
//  3. Dispatching messages synchronously (Dispatch) or streamed (DispatchStream)
//
// The façade delegates routing to orchestrator.Orchestrator while keeping
// setup and usage ergonomics concise. All defaults are safe for local
// development and testing; production deployments typically supply a durable
// repository implementation and a structured logger.
package agentrelay

import (
	"context"

	"github.com/hupe1980/agentrelay/core"
	"github.com/hupe1980/agentrelay/logging"
	"github.com/hupe1980/agentrelay/memory"
	"github.com/hupe1980/agentrelay/orchestrator"
	"github.com/hupe1980/agentrelay/registry"
)

// Options configures the Relay instance.
type Options struct {
	// Repository stores conversation threads (defaults to in-memory).
	Repository core.ThreadRepository

	// Registry holds the registered agents (defaults to a fresh registry).
	// Supply one when a delegated classifier needs the registry before the
	// relay is constructed.
	Registry *registry.Registry

	// Classifier selects the responding agent for each message. When nil
	// every message resolves to DefaultAgent.
	Classifier core.Classifier

	// DefaultAgent names the fallback agent used when classification
	// yields no match.
	DefaultAgent string

	// ContextWindow is the number of prior messages rendered as history
	// for classification and invocation.
	ContextWindow int

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Relay is the high-level façade aggregating the orchestrator and services.
type Relay struct {
	opts         Options
	repository   core.ThreadRepository
	registry     *registry.Registry
	orchestrator *orchestrator.Orchestrator
}

// defaultClassifier resolves everything to the orchestrator's default agent.
type defaultClassifier struct{}

func (defaultClassifier) Classify(context.Context, string, string) (string, error) {
	return core.NoMatch, nil
}

// New creates a new Relay instance with optional overrides. Any unset
// service is initialized with an in-memory implementation.
func New(optFns ...func(o *Options)) *Relay {
	opts := Options{
		Repository:    memory.NewInMemoryRepository(),
		ContextWindow: core.SummaryWindow,
		Logger:        logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Classifier == nil {
		opts.Classifier = defaultClassifier{}
	}

	reg := opts.Registry
	if reg == nil {
		reg = registry.New()
	}

	orc := orchestrator.New(opts.Repository, opts.Classifier, reg, func(o *orchestrator.Options) {
		o.DefaultAgent = opts.DefaultAgent
		o.ContextWindow = opts.ContextWindow
		o.Logger = opts.Logger
	})

	return &Relay{
		opts:         opts,
		repository:   opts.Repository,
		registry:     reg,
		orchestrator: orc,
	}
}

// RegisterAgent adds an agent to the underlying registry, replacing any
// agent previously registered under the same name.
func (r *Relay) RegisterAgent(a core.Agent) { r.registry.Register(a) }

// Agents returns the descriptors of all registered agents.
func (r *Relay) Agents() []core.Descriptor { return r.registry.List() }

// Registry exposes the underlying agent registry, e.g. for wiring a
// delegated classifier.
func (r *Relay) Registry() *registry.Registry { return r.registry }

// Dispatch routes a message through classification to an agent and returns
// the complete response.
func (r *Relay) Dispatch(ctx context.Context, threadID, message string) (string, error) {
	return r.orchestrator.Dispatch(ctx, threadID, message)
}

// DispatchStream routes a message to an agent and streams the response as
// word-boundary units.
func (r *Relay) DispatchStream(ctx context.Context, threadID, message string) (<-chan string, error) {
	return r.orchestrator.DispatchStream(ctx, threadID, message)
}

// StoreMessage records a message on a thread without dispatching it.
func (r *Relay) StoreMessage(ctx context.Context, threadID, sender, content string, metadata map[string]any) (core.Message, error) {
	return r.repository.StoreMessage(ctx, threadID, sender, content, metadata)
}

// GetLastN returns the most recent n messages of a thread in order.
func (r *Relay) GetLastN(threadID string, n int) ([]core.Message, error) {
	return r.repository.GetLastN(threadID, n)
}

// Summarize returns a newline-joined digest of a thread's recent messages.
func (r *Relay) Summarize(threadID string) (string, error) {
	return r.repository.Summarize(threadID)
}
