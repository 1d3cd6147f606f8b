package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/genmesh/artifact"
	"github.com/hupe1980/genmesh/core"
	"github.com/hupe1980/genmesh/logging"
	"github.com/hupe1980/genmesh/memory"
	"github.com/hupe1980/genmesh/registry"
	"github.com/hupe1980/genmesh/session"
)

// Default capability identifiers of the text-to-image and image-to-3D
// services.
const (
	DefaultTextToImageID = "c25dcd829d134ea98f5ae4dd311d13bc.node3.openfabric.network"
	DefaultImageTo3DID   = "f0b5f319156c4819b9827000b17e511a.node3.openfabric.network"
)

// Payload keys sent to the capabilities.
const (
	PromptKey     = "prompt"
	InputImageKey = "input_image"
)

// Options configure an Orchestrator. Zero values are replaced by in-memory
// defaults in New.
type Options struct {
	// Config resolves a caller's capability set.
	Config core.ConfigSource
	// Artifacts persists generated binaries.
	Artifacts core.ArtifactStore
	// Sessions holds session-scoped records.
	Sessions core.SessionStore
	// LongTerm is the durable generation ledger.
	LongTerm core.LongTermStore
	// Logger receives stage diagnostics.
	Logger logging.Logger

	TextToImageID string
	ImageTo3DID   string

	// ExpandTimeout bounds prompt expansion (default 2m). Setting it to zero
	// or a negative value disables the bound.
	ExpandTimeout time.Duration
	// CapabilityTimeout bounds each capability call (default 5m). Setting it
	// to zero or a negative value disables the bound.
	CapabilityTimeout time.Duration

	// Clock supplies the time used for artifact stamps and created_at.
	Clock func() time.Time
}

// Orchestrator runs generations. It holds no per-request state and is safe
// for concurrent use as long as its collaborators are.
type Orchestrator struct {
	expander     core.Expander
	capabilities core.CapabilityClient
	opts         Options
}

// New creates an Orchestrator.
func New(expander core.Expander, capabilities core.CapabilityClient, optFns ...func(o *Options)) *Orchestrator {
	opts := Options{
		TextToImageID:     DefaultTextToImageID,
		ImageTo3DID:       DefaultImageTo3DID,
		ExpandTimeout:     2 * time.Minute,
		CapabilityTimeout: 5 * time.Minute,
		Clock:             time.Now,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.Config == nil {
		opts.Config = registry.New()
	}
	if opts.Artifacts == nil {
		opts.Artifacts = artifact.NewInMemoryStore()
	}
	if opts.Sessions == nil {
		opts.Sessions = session.NewInMemoryStore()
	}
	if opts.LongTerm == nil {
		opts.LongTerm = memory.NewInMemoryStore()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Orchestrator{expander: expander, capabilities: capabilities, opts: opts}
}

// stageLogger is implemented by loggers with dedicated stage records, such
// as *logging.PipelineLogger.
type stageLogger interface {
	LogStage(stage string, dur time.Duration, success bool, err error)
}

// run carries the per-execution state threaded through the stages.
type run struct {
	req      core.GenerationRequest
	id       string
	log      logging.Logger
	logArgs  []any
	caller   core.CapabilityCaller
	expanded string
	image    core.Payload
	model    core.Payload
	record   core.GenerationRecord
}

// Execute runs one generation and returns its outcome.
func (o *Orchestrator) Execute(ctx context.Context, req core.GenerationRequest) core.Outcome {
	r := &run{req: req, id: core.NewID()}
	if pl, ok := o.opts.Logger.(*logging.PipelineLogger); ok {
		r.log = pl.WithComponent("pipeline").WithSession(req.Session(), r.id)
	} else {
		r.log = o.opts.Logger
		r.logArgs = []any{"invocation_id", r.id, "session_id", req.Session()}
	}

	r.info("Pipeline started", "user_id", req.CallerID)

	stages := []struct {
		stage core.Stage
		fn    func(context.Context, *run) (string, error)
	}{
		{core.StageConfig, o.resolve},
		{core.StageExpand, o.expand},
		{core.StageTextToImage, o.textToImage},
		{core.StageImageTo3D, o.imageTo3D},
		{core.StagePersist, o.persist},
		{core.StageRecord, o.recordGeneration},
	}

	for _, s := range stages {
		start := time.Now()
		msg, err := s.fn(ctx, r)
		logStage(r, s.stage, time.Since(start), err)
		if err != nil {
			return core.Outcome{
				Message:        msg,
				ExpandedPrompt: r.expanded,
				Stage:          s.stage,
				Err:            err,
			}
		}
	}

	r.info("Pipeline completed", "image_file", r.record.ImageFile, "model_file", r.record.ModelFile)

	rec := r.record
	return core.Outcome{
		Message:        SuccessMessage(r.expanded),
		ExpandedPrompt: r.expanded,
		Stage:          core.StageDone,
		Record:         &rec,
	}
}

// resolve scopes the capability client to the caller's configured set. An
// unknown caller gets an empty set; the failure surfaces at the first call.
func (o *Orchestrator) resolve(_ context.Context, r *run) (string, error) {
	caps := o.opts.Config.Capabilities(r.req.CallerID)
	if len(caps) == 0 {
		r.warn("No capabilities configured for user", "user_id", r.req.CallerID)
	}
	r.caller = o.capabilities.Scope(caps)
	return "", nil
}

func (o *Orchestrator) expand(ctx context.Context, r *run) (string, error) {
	ctx, cancel := withTimeout(ctx, o.opts.ExpandTimeout)
	defer cancel()

	expanded, err := o.expander.Expand(ctx, r.req.Prompt)
	if err != nil {
		return MsgExpandFailed, err
	}
	r.expanded = expanded
	return "", nil
}

func (o *Orchestrator) textToImage(ctx context.Context, r *run) (string, error) {
	ctx, cancel := withTimeout(ctx, o.opts.CapabilityTimeout)
	defer cancel()

	res := r.caller.Call(ctx, o.opts.TextToImageID, map[string]any{PromptKey: r.expanded}, r.req.CallerID)
	img, err := res.Image()
	if err != nil {
		return MsgImageFailed, fmt.Errorf("text-to-image %s: %w", o.opts.TextToImageID, err)
	}
	r.image = img
	return "", nil
}

func (o *Orchestrator) imageTo3D(ctx context.Context, r *run) (string, error) {
	ctx, cancel := withTimeout(ctx, o.opts.CapabilityTimeout)
	defer cancel()

	res := r.caller.Call(ctx, o.opts.ImageTo3DID, map[string]any{InputImageKey: r.image.Encoded()}, r.req.CallerID)
	mdl, err := res.Model()
	if err != nil {
		return MsgModelFailed, fmt.Errorf("image-to-3d %s: %w", o.opts.ImageTo3DID, err)
	}
	r.model = mdl
	return "", nil
}

// persist writes both artifacts under one stamp. An encoded payload that
// does not decode to a recognized file of its kind is not written; its derived
// path is recorded instead. When a write fails, artifacts already written
// under the stamp are removed.
func (o *Orchestrator) persist(ctx context.Context, r *run) (string, error) {
	store := o.opts.Artifacts

	stamp, err := store.Reserve(o.opts.Clock())
	if err != nil {
		return MsgPersistFailed, err
	}

	paths := make(map[core.ArtifactKind]string, 2)
	var written []core.ArtifactKind
	placeholder := false
	for _, a := range []struct {
		kind    core.ArtifactKind
		payload core.Payload
	}{
		{core.KindImage, r.image},
		{core.KindModel, r.model},
	} {
		data, err := artifactBytes(a.kind, a.payload)
		if err != nil {
			path := store.Path(a.kind, stamp)
			r.warn("Artifact payload is not binary, recording placeholder path",
				"kind", a.kind, "path", path, "error", err)
			paths[a.kind] = path
			placeholder = true
			continue
		}
		path, err := store.Save(ctx, a.kind, stamp, data)
		if err != nil {
			o.discard(ctx, r, stamp, written)
			store.Release(stamp)
			return MsgPersistFailed, err
		}
		written = append(written, a.kind)
		paths[a.kind] = path
	}

	// A placeholder path names a file that was never written, so its stamp
	// stays reserved for the lifetime of the store.
	if !placeholder {
		store.Release(stamp)
	}

	r.record = core.GenerationRecord{
		Prompt:         r.req.Prompt,
		ExpandedPrompt: r.expanded,
		ImageFile:      paths[core.KindImage],
		ModelFile:      paths[core.KindModel],
	}
	return "", nil
}

// artifactBytes returns the bytes to write for payload. Raw payloads are
// written as received.
func artifactBytes(kind core.ArtifactKind, payload core.Payload) ([]byte, error) {
	data, err := payload.Bytes()
	if err != nil {
		return nil, err
	}
	if !payload.IsRaw() && !kind.Recognizes(data) {
		return nil, fmt.Errorf("decoded payload is not a %s file", kind.Extension())
	}
	return data, nil
}

// discard removes artifacts written before a failed save.
func (o *Orchestrator) discard(ctx context.Context, r *run, stamp string, kinds []core.ArtifactKind) {
	ctx = context.WithoutCancel(ctx)
	for _, kind := range kinds {
		if err := o.opts.Artifacts.Delete(ctx, kind, stamp); err != nil {
			r.warn("Failed to remove partial artifact", "kind", kind, "stamp", stamp, "error", err)
		}
	}
}

// recordGeneration appends the long-term record first so a ledger failure
// leaves session memory untouched.
func (o *Orchestrator) recordGeneration(ctx context.Context, r *run) (string, error) {
	if err := o.opts.LongTerm.Append(ctx, r.record.WithCreatedAt(o.opts.Clock())); err != nil {
		return MsgRecordFailed, err
	}
	if err := o.opts.Sessions.Append(r.req.Session(), r.record); err != nil {
		return MsgRecordFailed, err
	}
	return "", nil
}

func logStage(r *run, stage core.Stage, dur time.Duration, err error) {
	if sl, ok := r.log.(stageLogger); ok {
		sl.LogStage(string(stage), dur, err == nil, err)
		return
	}
	if err != nil {
		r.log.Error("Stage failed", r.args("stage", stage, "duration", dur, "error", err)...)
		return
	}
	r.log.Debug("Stage completed", r.args("stage", stage, "duration", dur)...)
}

// args prefixes kv with the run's correlation fields.
func (r *run) args(kv ...any) []any {
	out := make([]any, 0, len(r.logArgs)+len(kv))
	out = append(out, r.logArgs...)
	return append(out, kv...)
}

func (r *run) info(msg string, kv ...any) { r.log.Info(msg, r.args(kv...)...) }

func (r *run) warn(msg string, kv ...any) { r.log.Warn(msg, r.args(kv...)...) }

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
