// Package svc wires the service dependencies together. Handlers and logic
// reach everything through the ServiceContext; nothing here is a package
// global.
package svc

import (
	"time"

	"github.com/finsightlab/finsight/internal/agent/ai"
	"github.com/finsightlab/finsight/internal/agent/executor"
	"github.com/finsightlab/finsight/internal/agent/orchestrator"
	"github.com/finsightlab/finsight/internal/agent/planner"
	"github.com/finsightlab/finsight/internal/agent/session"
	"github.com/finsightlab/finsight/internal/config"
	"github.com/finsightlab/finsight/internal/memory"
	"github.com/finsightlab/finsight/internal/tools"
)

type ServiceContext struct {
	Config config.Config

	Store        *session.Store
	History      *memory.History
	Registry     *tools.Registry
	Chain        *ai.Chain
	Orchestrator *orchestrator.Orchestrator
}

// NewServiceContext builds the full dependency graph from configuration.
// Providers are optional: with none configured the chain is empty and every
// turn takes the deterministic path.
func NewServiceContext(c config.Config) *ServiceContext {
	var generators []ai.Generator
	if c.Providers.OpenAI.APIKey != "" {
		generators = append(generators, ai.NewOpenAIGenerator(c.Providers.OpenAI.APIKey, c.Providers.OpenAI.Model))
	}
	if c.Providers.Anthropic.APIKey != "" {
		generators = append(generators, ai.NewAnthropicGenerator(c.Providers.Anthropic.APIKey, c.Providers.Anthropic.Model))
	}
	if c.Providers.Ollama.Enabled {
		generators = append(generators, ai.NewOllamaGenerator(c.Providers.Ollama.BaseURL, c.Providers.Ollama.Model))
	}
	chain := ai.NewChain(time.Duration(c.Agent.ProviderTimeoutSeconds)*time.Second, generators...)

	store := session.NewStore()
	history := memory.NewHistory()
	registry := tools.NewRegistry()
	pl := planner.New(chain, c.Agent.ClarificationLimit)
	ex := executor.New(registry, history, chain)

	return &ServiceContext{
		Config:       c,
		Store:        store,
		History:      history,
		Registry:     registry,
		Chain:        chain,
		Orchestrator: orchestrator.New(store, pl, ex, history),
	}
}
