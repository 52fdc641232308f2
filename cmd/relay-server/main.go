// relay-server runs the HTTP relay: it loads a YAML configuration, builds
// the configured agents and classifier and serves /chat, /chat/stream and
// /health until interrupted.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/joho/godotenv"

	"github.com/hupe1980/agentrelay/agent"
	"github.com/hupe1980/agentrelay/classifier"
	"github.com/hupe1980/agentrelay/config"
	"github.com/hupe1980/agentrelay/core"
	"github.com/hupe1980/agentrelay/logging"
	"github.com/hupe1980/agentrelay/memory"
	"github.com/hupe1980/agentrelay/model"
	"github.com/hupe1980/agentrelay/model/anthropic"
	"github.com/hupe1980/agentrelay/model/openai"
	"github.com/hupe1980/agentrelay/orchestrator"
	"github.com/hupe1980/agentrelay/registry"
	"github.com/hupe1980/agentrelay/server"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", defaultConfigPath(), "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger := logging.NewLogger(&logging.LoggerConfig{
		Level:     logging.ParseLevel(cfg.Logging.Level),
		Format:    cfg.Logging.Format,
		Output:    os.Stderr,
		Component: "relay-server",
	})

	repo := memory.NewInMemoryRepository(func(o *memory.Options) {
		o.MaxMessagesPerThread = cfg.Relay.MaxMessagesPerThread
	})

	reg := registry.New()
	for _, ac := range cfg.Agents {
		a, err := buildAgent(ac)
		if err != nil {
			log.Fatalf("building agent %q: %v", ac.Name, err)
		}
		reg.Register(a)
		logger.Info("registered agent", "name", ac.Name, "provider", ac.Provider)
	}

	clf, err := buildClassifier(cfg, reg)
	if err != nil {
		log.Fatalf("building classifier: %v", err)
	}

	orc := orchestrator.New(repo, clf, reg, func(o *orchestrator.Options) {
		o.DefaultAgent = cfg.Relay.DefaultAgent
		o.ContextWindow = cfg.Relay.ContextWindow
		o.Logger = logger
	})

	srv := server.New(orc, func(o *server.Options) {
		o.AuthToken = cfg.Server.AuthToken
		o.ReadTimeout = cfg.Server.ReadTimeout
		o.WriteTimeout = cfg.Server.WriteTimeout
		o.Logger = logger
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.ListenAndServe(ctx, cfg.Server.HTTPAddr); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}

func defaultConfigPath() string {
	if path := os.Getenv("RELAY_CONFIG"); path != "" {
		return path
	}
	return "config.yaml"
}

func buildAgent(ac config.AgentConfig) (core.Agent, error) {
	switch ac.Provider {
	case "openai":
		m := openai.NewModel(func(o *openai.Options) {
			if ac.Model != "" {
				o.Model = ac.Model
			}
		})
		return newModelAgent(ac, m), nil
	case "anthropic":
		m := anthropic.NewModel(func(o *anthropic.Options) {
			if ac.Model != "" {
				o.Model = anthropicsdk.Model(ac.Model)
			}
			o.APIKey = ac.APIKey
		})
		return newModelAgent(ac, m), nil
	case "mock":
		return newModelAgent(ac, model.NewMockModel(ac.Name)), nil
	case "remote":
		return agent.NewRemoteAgent(ac.Name, ac.BaseURL, func(o *agent.RemoteAgentOptions) {
			o.Description = ac.Description
			o.AuthToken = ac.AuthToken
		}), nil
	default:
		return nil, fmt.Errorf("unsupported provider %q", ac.Provider)
	}
}

func newModelAgent(ac config.AgentConfig, m model.Model) core.Agent {
	return agent.NewModelAgent(ac.Name, m, func(o *agent.ModelAgentOptions) {
		if ac.Instructions != "" {
			o.Instructions = ac.Instructions
		}
		if ac.Description != "" {
			o.Description = ac.Description
		}
	})
}

func buildClassifier(cfg *config.Config, reg *registry.Registry) (core.Classifier, error) {
	switch cfg.Classifier.Type {
	case "keyword":
		rules, err := buildRules(cfg.Classifier.Rules)
		if err != nil {
			return nil, err
		}
		return classifier.NewKeyword(rules, cfg.Relay.DefaultAgent), nil
	case "llm":
		a, err := reg.Lookup(cfg.Classifier.Agent)
		if err != nil {
			return nil, err
		}
		return classifier.NewLLM(a, reg, func(o *classifier.LLMOptions) {
			o.DefaultAgent = cfg.Relay.DefaultAgent
		}), nil
	default:
		return nil, fmt.Errorf("unsupported classifier type %q", cfg.Classifier.Type)
	}
}

func buildRules(rcs []config.RuleConfig) ([]classifier.Rule, error) {
	rules := make([]classifier.Rule, 0, len(rcs))
	for _, rc := range rcs {
		rule, err := classifier.NewRule(rc.Pattern, rc.Keywords, rc.Agent)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}
