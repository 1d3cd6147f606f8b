package main

import (
	"fmt"
	"strings"

	"github.com/hupe1980/genmesh"
	"github.com/hupe1980/genmesh/artifact"
	"github.com/hupe1980/genmesh/capability"
	"github.com/hupe1980/genmesh/config"
	"github.com/hupe1980/genmesh/core"
	"github.com/hupe1980/genmesh/expander"
	"github.com/hupe1980/genmesh/logging"
	"github.com/hupe1980/genmesh/memory"
	"github.com/hupe1980/genmesh/model"
	"github.com/hupe1980/genmesh/model/anthropic"
	"github.com/hupe1980/genmesh/model/ollama"
	"github.com/hupe1980/genmesh/model/openai"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
)

// buildLogger returns the configured logger and a flush function.
func buildLogger(cfg config.LogConfig) (logging.Logger, func(), error) {
	level := logging.ParseLevel(cfg.Level)
	switch cfg.Backend {
	case config.LogBackendZap:
		zl, err := logging.NewZapLogger(level, cfg.Format)
		if err != nil {
			return nil, nil, fmt.Errorf("build zap logger: %w", err)
		}
		adapter := logging.NewZapAdapter(zl)
		return adapter, func() { _ = adapter.Sync() }, nil
	default:
		pl := logging.NewSlogLogger(level, cfg.Format, false).WithComponent("genmesh")
		return pl, func() {}, nil
	}
}

// buildModel selects the expansion backend.
func buildModel(cfg config.ExpanderConfig) (model.Model, error) {
	switch cfg.Provider {
	case config.ProviderOllama:
		return ollama.NewModel(func(o *ollama.Options) {
			o.Model = cfg.Model
			if cfg.BaseURL != "" {
				o.BaseURL = cfg.BaseURL
			}
		}), nil
	case config.ProviderOpenAI:
		return openai.NewModel(func(o *openai.Options) {
			o.Model = cfg.Model
			o.APIKey = cfg.APIKey
			o.BaseURL = cfg.BaseURL
		}), nil
	case config.ProviderAnthropic:
		return anthropic.NewModel(func(o *anthropic.Options) {
			o.Model = anthropicsdk.Model(cfg.Model)
			o.APIKey = cfg.APIKey
			o.BaseURL = cfg.BaseURL
		}), nil
	default:
		return nil, fmt.Errorf("unsupported expander provider %q", cfg.Provider)
	}
}

// buildLedger opens the long-term store.
func buildLedger(cfg config.StorageConfig, logger logging.Logger) (core.LongTermStore, error) {
	switch cfg.LedgerBackend {
	case config.LedgerSQLite:
		return memory.NewSQLiteStore(cfg.LedgerPath)
	case config.LedgerJSON:
		return memory.NewJSONFileStore(cfg.LedgerPath, func(o *memory.JSONFileOptions) { o.Logger = logger }), nil
	default:
		return nil, fmt.Errorf("unsupported ledger backend %q", cfg.LedgerBackend)
	}
}

// endpointResolver turns an endpoint template into a resolver. An empty
// template keeps the default https://{id}/execution.
func endpointResolver(template string) func(string) string {
	if template == "" {
		return capability.DefaultEndpoint
	}
	return func(id string) string { return strings.ReplaceAll(template, "{id}", id) }
}

// buildMesh wires a GenMesh from cfg.
func buildMesh(cfg *config.Config, logger logging.Logger) (*genmesh.GenMesh, error) {
	m, err := buildModel(cfg.Expander)
	if err != nil {
		return nil, err
	}
	exp, err := expander.New(m, func(o *expander.Options) {
		o.Template = cfg.Expander.Template
		o.Logger = logger
	})
	if err != nil {
		return nil, err
	}

	ledger, err := buildLedger(cfg.Storage, logger)
	if err != nil {
		return nil, err
	}

	caps := capability.New(func(o *capability.Options) {
		o.Endpoint = endpointResolver(cfg.Capabilities.EndpointTemplate)
		if cfg.Capabilities.CallerHeader != "" {
			o.CallerHeader = cfg.Capabilities.CallerHeader
		}
		o.Logger = logger
	})

	mesh, err := genmesh.New(func(o *genmesh.Options) {
		o.Expander = exp
		o.Capabilities = caps
		o.Artifacts = artifact.NewFileStore(cfg.Storage.ArtifactDir)
		o.LongTerm = ledger
		o.TextToImageID = cfg.Capabilities.TextToImage
		o.ImageTo3DID = cfg.Capabilities.ImageTo3D
		o.ExpandTimeout = cfg.Timeouts.Expand
		o.CapabilityTimeout = cfg.Timeouts.Capability
		o.Logger = logger
	})
	if err != nil {
		return nil, err
	}
	mesh.ConfigureAll(cfg.Users)
	return mesh, nil
}
