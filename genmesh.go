// Package genmesh provides a high-level façade over the generation pipeline
// and its services (configuration registry, artifact store, session and
// long-term memory, logging). Most applications interact with this package
// by:
//  1. Creating a GenMesh via New() (optionally overriding default services)
//  2. Provisioning caller identities with Configure
//  3. Running generations with Execute
//
// Defaults write artifacts below datastore/generatedImages, keep the
// long-term ledger in datastore/long_term_memory.json, hold session memory in
// process and expand prompts with a local Ollama daemon.
package genmesh

import (
	"context"
	"io"
	"time"

	"github.com/hupe1980/genmesh/artifact"
	"github.com/hupe1980/genmesh/capability"
	"github.com/hupe1980/genmesh/core"
	"github.com/hupe1980/genmesh/expander"
	"github.com/hupe1980/genmesh/logging"
	"github.com/hupe1980/genmesh/memory"
	"github.com/hupe1980/genmesh/model/ollama"
	"github.com/hupe1980/genmesh/pipeline"
	"github.com/hupe1980/genmesh/registry"
	"github.com/hupe1980/genmesh/session"
)

// Options configures the GenMesh instance.
type Options struct {
	// Expander elaborates prompts (defaults to Ollama with deepseek-r1:7b).
	Expander core.Expander
	// Capabilities invokes remote generation services (defaults to HTTP).
	Capabilities core.CapabilityClient

	// Registry maps caller identities to capability sets.
	Registry *registry.Registry

	// Stores (defaults: file artifacts, JSON ledger, in-memory sessions)
	Artifacts core.ArtifactStore
	Sessions  core.SessionStore
	LongTerm  core.LongTermStore

	// Pipeline settings; zero values keep the pipeline defaults. A negative
	// timeout disables the bound.
	TextToImageID     string
	ImageTo3DID       string
	ExpandTimeout     time.Duration
	CapabilityTimeout time.Duration
	Clock             func() time.Time

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// GenMesh aggregates the pipeline and the services it runs against.
type GenMesh struct {
	opts     Options
	pipeline *pipeline.Orchestrator
}

// New creates a GenMesh. Any unset service is initialized with its default.
func New(optFns ...func(o *Options)) (*GenMesh, error) {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.Registry == nil {
		opts.Registry = registry.New(func(o *registry.Options) { o.Logger = opts.Logger })
	}
	if opts.Artifacts == nil {
		opts.Artifacts = artifact.NewFileStore(artifact.DefaultDir)
	}
	if opts.Sessions == nil {
		opts.Sessions = session.NewInMemoryStore()
	}
	if opts.LongTerm == nil {
		opts.LongTerm = memory.NewJSONFileStore(memory.DefaultPath, func(o *memory.JSONFileOptions) { o.Logger = opts.Logger })
	}
	if opts.Capabilities == nil {
		opts.Capabilities = capability.New(func(o *capability.Options) { o.Logger = opts.Logger })
	}
	if opts.Expander == nil {
		exp, err := expander.New(ollama.NewModel(), func(o *expander.Options) { o.Logger = opts.Logger })
		if err != nil {
			return nil, err
		}
		opts.Expander = exp
	}

	p := pipeline.New(opts.Expander, opts.Capabilities, func(o *pipeline.Options) {
		o.Config = opts.Registry
		o.Artifacts = opts.Artifacts
		o.Sessions = opts.Sessions
		o.LongTerm = opts.LongTerm
		o.Logger = opts.Logger
		if opts.TextToImageID != "" {
			o.TextToImageID = opts.TextToImageID
		}
		if opts.ImageTo3DID != "" {
			o.ImageTo3DID = opts.ImageTo3DID
		}
		if opts.ExpandTimeout != 0 {
			o.ExpandTimeout = opts.ExpandTimeout
		}
		if opts.CapabilityTimeout != 0 {
			o.CapabilityTimeout = opts.CapabilityTimeout
		}
		if opts.Clock != nil {
			o.Clock = opts.Clock
		}
	})

	return &GenMesh{opts: opts, pipeline: p}, nil
}

// Configure provisions identity with cfg, replacing any previous entry.
func (g *GenMesh) Configure(identity string, cfg core.UserConfig) {
	g.opts.Registry.Set(identity, cfg)
}

// ConfigureAll applies a configuration event for several identities.
func (g *GenMesh) ConfigureAll(configs map[string]core.UserConfig) {
	g.opts.Registry.SetAll(configs)
}

// Execute runs one generation. It never fails; inspect the outcome.
func (g *GenMesh) Execute(ctx context.Context, req core.GenerationRequest) core.Outcome {
	return g.pipeline.Execute(ctx, req)
}

// SessionMemory returns the session-scoped records of sessionID in append
// order. An unknown session yields an empty list.
func (g *GenMesh) SessionMemory(sessionID string) ([]core.GenerationRecord, error) {
	sess, err := g.opts.Sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.GetRecords(), nil
}

// LongTermMemory returns every record of the durable ledger.
func (g *GenMesh) LongTermMemory(ctx context.Context) ([]core.GenerationRecord, error) {
	return g.opts.LongTerm.Load(ctx)
}

// Registry exposes the configuration registry.
func (g *GenMesh) Registry() *registry.Registry { return g.opts.Registry }

// Close releases stores holding external resources.
func (g *GenMesh) Close() error {
	if c, ok := g.opts.LongTerm.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
