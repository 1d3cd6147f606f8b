package pipeline

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hupe1980/genmesh/artifact"
	"github.com/hupe1980/genmesh/capability"
	"github.com/hupe1980/genmesh/core"
	"github.com/hupe1980/genmesh/expander"
	"github.com/hupe1980/genmesh/logging"
	"github.com/hupe1980/genmesh/memory"
	"github.com/hupe1980/genmesh/model"
	"github.com/hupe1980/genmesh/registry"
	"github.com/hupe1980/genmesh/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	tti = "tti.example"
	i3d = "i3d.example"
)

var (
	fixedNow   = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	imageBytes = []byte("\x89PNG fake image")
	modelBytes = []byte("glTF fake model")
)

type expanderFunc func(ctx context.Context, prompt string) (string, error)

func (f expanderFunc) Expand(ctx context.Context, prompt string) (string, error) { return f(ctx, prompt) }

type fixture struct {
	registry  *registry.Registry
	model     *model.MockModel
	caps      *capability.FuncClient
	artifacts *artifact.InMemoryStore
	sessions  *session.InMemoryStore
	longTerm  *memory.InMemoryStore

	mu         sync.Mutex
	ttiCalls   int
	i3dCalls   int
	i3dPayload map[string]any
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		registry:  registry.New(),
		model:     model.NewMockModel("mock"),
		artifacts: artifact.NewInMemoryStore(),
		sessions:  session.NewInMemoryStore(),
		longTerm:  memory.NewInMemoryStore(),
	}
	f.registry.Set("alice", core.UserConfig{AppIDs: []string{tti, i3d}})
	f.model.AddResponse("Interpret and expand this prompt for visual generation: a cat", "a fluffy cat")
	f.caps = capability.NewFuncClient(map[string]capability.Func{
		tti: func(context.Context, map[string]any, string) core.Result {
			f.mu.Lock()
			f.ttiCalls++
			f.mu.Unlock()
			return core.NewResult(map[string]any{core.KeyImage: core.RawPayload(imageBytes)})
		},
		i3d: func(_ context.Context, p map[string]any, _ string) core.Result {
			f.mu.Lock()
			f.i3dCalls++
			f.i3dPayload = p
			f.mu.Unlock()
			return core.NewResult(map[string]any{core.KeyModel: core.RawPayload(modelBytes)})
		},
	})
	return f
}

func (f *fixture) orchestrator(t *testing.T, optFns ...func(o *Options)) *Orchestrator {
	t.Helper()
	exp, err := expander.New(f.model)
	require.NoError(t, err)
	base := func(o *Options) {
		o.Config = f.registry
		o.Artifacts = f.artifacts
		o.Sessions = f.sessions
		o.LongTerm = f.longTerm
		o.TextToImageID = tti
		o.ImageTo3DID = i3d
		o.Clock = func() time.Time { return fixedNow }
	}
	return New(exp, f.caps, append([]func(o *Options){base}, optFns...)...)
}

func (f *fixture) assertNoSideEffects(t *testing.T) {
	t.Helper()
	names, err := f.artifacts.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, names)

	records, err := f.longTerm.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)

	sess, err := f.sessions.Get("alice")
	require.NoError(t, err)
	assert.Empty(t, sess.GetRecords())
}

func TestExecute_Success(t *testing.T) {
	f := newFixture(t)
	o := f.orchestrator(t)

	out := o.Execute(context.Background(), core.GenerationRequest{CallerID: "alice", Prompt: "a cat"})

	require.True(t, out.Succeeded(), "err: %v", out.Err)
	assert.Equal(t, "Prompt expanded: a fluffy cat\nImage and 3D model generated successfully.", out.Message)
	assert.Equal(t, "a fluffy cat", out.ExpandedPrompt)
	assert.Equal(t, core.StageDone, out.Stage)

	want := core.GenerationRecord{
		Prompt:         "a cat",
		ExpandedPrompt: "a fluffy cat",
		ImageFile:      "output_image_20240102_030405.png",
		ModelFile:      "output_model_20240102_030405.glb",
	}
	require.NotNil(t, out.Record)
	assert.Equal(t, want, *out.Record)

	sess, err := f.sessions.Get("alice")
	require.NoError(t, err)
	assert.Equal(t, []core.GenerationRecord{want}, sess.GetRecords())

	records, err := f.longTerm.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "2024-01-02T03:04:05", records[0].CreatedAt)
	records[0].CreatedAt = ""
	assert.Equal(t, want, records[0])

	img, err := f.artifacts.Get(context.Background(), core.KindImage, "20240102_030405")
	require.NoError(t, err)
	assert.Equal(t, imageBytes, img)

	mdl, err := f.artifacts.Get(context.Background(), core.KindModel, "20240102_030405")
	require.NoError(t, err)
	assert.Equal(t, modelBytes, mdl)
}

func TestExecute_RawImageIsBase64Encoded(t *testing.T) {
	f := newFixture(t)
	o := f.orchestrator(t)

	out := o.Execute(context.Background(), core.GenerationRequest{CallerID: "alice", Prompt: "a cat"})
	require.True(t, out.Succeeded())

	assert.Equal(t, base64.StdEncoding.EncodeToString(imageBytes), f.i3dPayload[InputImageKey])
}

func TestExecute_EncodedImagePassesThrough(t *testing.T) {
	f := newFixture(t)
	encoded := base64.StdEncoding.EncodeToString(imageBytes)
	f.caps.Register(tti, func(context.Context, map[string]any, string) core.Result {
		return core.NewResult(map[string]any{core.KeyImage: encoded})
	})
	o := f.orchestrator(t)

	out := o.Execute(context.Background(), core.GenerationRequest{CallerID: "alice", Prompt: "a cat"})
	require.True(t, out.Succeeded())
	assert.Equal(t, encoded, f.i3dPayload[InputImageKey])

	img, err := f.artifacts.Get(context.Background(), core.KindImage, "20240102_030405")
	require.NoError(t, err)
	assert.Equal(t, imageBytes, img)
}

func TestExecute_ImageFailures(t *testing.T) {
	tests := []struct {
		name   string
		result core.Result
	}{
		{name: "absent result", result: core.NoResult(errors.New("unreachable"))},
		{name: "missing key", result: core.NewResult(map[string]any{"other": "x"})},
		{name: "empty payload", result: core.NewResult(map[string]any{core.KeyImage: ""})},
		{name: "wrong type", result: core.NewResult(map[string]any{core.KeyImage: 42})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.caps.Register(tti, func(context.Context, map[string]any, string) core.Result { return tt.result })
			o := f.orchestrator(t)

			out := o.Execute(context.Background(), core.GenerationRequest{CallerID: "alice", Prompt: "a cat"})

			assert.False(t, out.Succeeded())
			assert.Equal(t, MsgImageFailed, out.Message)
			assert.Equal(t, core.StageTextToImage, out.Stage)
			assert.Error(t, out.Err)
			assert.Equal(t, 0, f.i3dCalls)
			f.assertNoSideEffects(t)
		})
	}
}

func TestExecute_ModelFailure(t *testing.T) {
	f := newFixture(t)
	f.caps.Register(i3d, func(context.Context, map[string]any, string) core.Result {
		return core.NewResult(map[string]any{"result": "not a model"})
	})
	o := f.orchestrator(t)

	out := o.Execute(context.Background(), core.GenerationRequest{CallerID: "alice", Prompt: "a cat"})

	assert.Equal(t, MsgModelFailed, out.Message)
	assert.Equal(t, core.StageImageTo3D, out.Stage)
	var missing *core.MissingArtifactError
	assert.ErrorAs(t, out.Err, &missing)
	f.assertNoSideEffects(t)
}

func TestExecute_UnknownIdentity(t *testing.T) {
	f := newFixture(t)
	o := f.orchestrator(t)

	out := o.Execute(context.Background(), core.GenerationRequest{CallerID: "mallory", Prompt: "a cat"})

	assert.Equal(t, MsgImageFailed, out.Message)
	assert.Equal(t, 0, f.ttiCalls)
	assert.ErrorIs(t, out.Err, core.ErrNoResult)
	f.assertNoSideEffects(t)
}

func TestExecute_ExpansionFailure(t *testing.T) {
	f := newFixture(t)
	f.model.FailWith(&core.TransportError{Op: "ollama", Err: errors.New("connection refused")})
	o := f.orchestrator(t)

	out := o.Execute(context.Background(), core.GenerationRequest{CallerID: "alice", Prompt: "a cat"})

	assert.Equal(t, MsgExpandFailed, out.Message)
	assert.Equal(t, core.StageExpand, out.Stage)
	assert.Empty(t, out.ExpandedPrompt)
	var terr *core.TransportError
	assert.ErrorAs(t, out.Err, &terr)
	assert.Equal(t, 0, f.ttiCalls)
	f.assertNoSideEffects(t)
}

func TestExecute_ExpansionTimeout(t *testing.T) {
	f := newFixture(t)
	blocking := expanderFunc(func(ctx context.Context, _ string) (string, error) {
		<-ctx.Done()
		return "", &core.TransportError{Op: "expand", Err: ctx.Err()}
	})
	o := New(blocking, f.caps, func(o *Options) {
		o.Config = f.registry
		o.Artifacts = f.artifacts
		o.Sessions = f.sessions
		o.LongTerm = f.longTerm
		o.ExpandTimeout = 20 * time.Millisecond
	})

	out := o.Execute(context.Background(), core.GenerationRequest{CallerID: "alice", Prompt: "a cat"})

	assert.Equal(t, MsgExpandFailed, out.Message)
	assert.ErrorIs(t, out.Err, context.DeadlineExceeded)
	f.assertNoSideEffects(t)
}

func TestExecute_CapabilityTimeout(t *testing.T) {
	f := newFixture(t)
	f.caps.Register(tti, func(ctx context.Context, _ map[string]any, _ string) core.Result {
		<-ctx.Done()
		return core.NoResult(&core.TransportError{Op: tti, Err: ctx.Err()})
	})
	o := f.orchestrator(t, func(o *Options) { o.CapabilityTimeout = 20 * time.Millisecond })

	out := o.Execute(context.Background(), core.GenerationRequest{CallerID: "alice", Prompt: "a cat"})

	assert.Equal(t, MsgImageFailed, out.Message)
	assert.ErrorIs(t, out.Err, context.DeadlineExceeded)
	f.assertNoSideEffects(t)
}

func TestExecute_SameSecondRunsDoNotCollide(t *testing.T) {
	f := newFixture(t)
	o := f.orchestrator(t)

	first := o.Execute(context.Background(), core.GenerationRequest{CallerID: "alice", Prompt: "a cat"})
	second := o.Execute(context.Background(), core.GenerationRequest{CallerID: "alice", Prompt: "a cat"})

	require.True(t, first.Succeeded())
	require.True(t, second.Succeeded())
	assert.Equal(t, "output_image_20240102_030405.png", first.Record.ImageFile)
	assert.Equal(t, "output_image_20240102_030405_1.png", second.Record.ImageFile)
	assert.Equal(t, "output_model_20240102_030405_1.glb", second.Record.ModelFile)

	names, err := f.artifacts.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, names, 4)
}

func TestExecute_UndecodablePayloadRecordsPlaceholder(t *testing.T) {
	f := newFixture(t)
	f.caps.Register(i3d, func(context.Context, map[string]any, string) core.Result {
		return core.NewResult(map[string]any{core.KeyModel: "not base64!"})
	})
	o := f.orchestrator(t)

	out := o.Execute(context.Background(), core.GenerationRequest{CallerID: "alice", Prompt: "a cat"})

	require.True(t, out.Succeeded())
	assert.Equal(t, "output_model_20240102_030405.glb", out.Record.ModelFile)

	_, err := f.artifacts.Get(context.Background(), core.KindModel, "20240102_030405")
	assert.ErrorIs(t, err, artifact.ErrNotFound)

	records, err := f.longTerm.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

type mockArtifactStore struct {
	mock.Mock
}

func (m *mockArtifactStore) Reserve(t time.Time) (string, error) {
	args := m.Called(t)
	return args.String(0), args.Error(1)
}

func (m *mockArtifactStore) Save(ctx context.Context, kind core.ArtifactKind, stamp string, data []byte) (string, error) {
	args := m.Called(ctx, kind, stamp, data)
	return args.String(0), args.Error(1)
}

func (m *mockArtifactStore) Release(stamp string) {
	m.Called(stamp)
}

func (m *mockArtifactStore) Delete(ctx context.Context, kind core.ArtifactKind, stamp string) error {
	return m.Called(ctx, kind, stamp).Error(0)
}

func (m *mockArtifactStore) Path(kind core.ArtifactKind, stamp string) string {
	return kind.FileName(stamp)
}

func (m *mockArtifactStore) Get(ctx context.Context, kind core.ArtifactKind, stamp string) ([]byte, error) {
	args := m.Called(ctx, kind, stamp)
	return nil, args.Error(1)
}

func (m *mockArtifactStore) List(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return nil, args.Error(1)
}

func TestExecute_PersistenceFailure(t *testing.T) {
	f := newFixture(t)
	store := &mockArtifactStore{}
	store.On("Reserve", fixedNow).Return("20240102_030405", nil)
	store.On("Save", mock.Anything, core.KindImage, "20240102_030405", imageBytes).
		Return("", &core.PersistenceError{Op: "write artifact", Err: errors.New("disk full")})
	store.On("Release", "20240102_030405").Return()
	o := f.orchestrator(t, func(o *Options) { o.Artifacts = store })

	out := o.Execute(context.Background(), core.GenerationRequest{CallerID: "alice", Prompt: "a cat"})

	assert.Equal(t, MsgPersistFailed, out.Message)
	assert.Equal(t, core.StagePersist, out.Stage)
	var perr *core.PersistenceError
	assert.ErrorAs(t, out.Err, &perr)
	store.AssertExpectations(t)
	store.AssertNotCalled(t, "Save", mock.Anything, core.KindModel, mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
	f.assertNoSideEffects(t)
}

func TestExecute_ModelSaveFailureRemovesImage(t *testing.T) {
	f := newFixture(t)
	store := &mockArtifactStore{}
	store.On("Reserve", fixedNow).Return("20240102_030405", nil)
	store.On("Save", mock.Anything, core.KindImage, "20240102_030405", imageBytes).
		Return("output_image_20240102_030405.png", nil)
	store.On("Save", mock.Anything, core.KindModel, "20240102_030405", modelBytes).
		Return("", &core.PersistenceError{Op: "write artifact", Err: errors.New("disk full")})
	store.On("Delete", mock.Anything, core.KindImage, "20240102_030405").Return(nil)
	store.On("Release", "20240102_030405").Return()
	o := f.orchestrator(t, func(o *Options) { o.Artifacts = store })

	out := o.Execute(context.Background(), core.GenerationRequest{CallerID: "alice", Prompt: "a cat"})

	assert.Equal(t, MsgPersistFailed, out.Message)
	store.AssertExpectations(t)
	f.assertNoSideEffects(t)
}

func TestExecute_PartialArtifactRemovedFromDisk(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()
	store := artifact.NewFileStore(dir)
	o := f.orchestrator(t, func(o *Options) {
		o.Artifacts = &racingStore{FileStore: store, dir: dir}
	})

	out := o.Execute(context.Background(), core.GenerationRequest{CallerID: "alice", Prompt: "a cat"})

	assert.Equal(t, MsgPersistFailed, out.Message)
	assert.ErrorIs(t, out.Err, artifact.ErrExists)
	names, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"output_model_20240102_030405.glb"}, names)

	records, err := f.longTerm.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

// racingStore writes a foreign model file right after reserving a stamp.
type racingStore struct {
	*artifact.FileStore
	dir string
}

func (s *racingStore) Reserve(t time.Time) (string, error) {
	stamp, err := s.FileStore.Reserve(t)
	if err != nil {
		return "", err
	}
	return stamp, os.WriteFile(filepath.Join(s.dir, core.KindModel.FileName(stamp)), []byte("foreign"), 0o644)
}

func TestExecute_EncodedTextThatIsNotAnArtifact(t *testing.T) {
	f := newFixture(t)
	f.caps.Register(tti, func(context.Context, map[string]any, string) core.Result {
		return core.NewResult(map[string]any{core.KeyImage: "abcd"})
	})
	f.caps.Register(i3d, func(context.Context, map[string]any, string) core.Result {
		return core.NewResult(map[string]any{core.KeyModel: "abcd"})
	})
	o := f.orchestrator(t)

	out := o.Execute(context.Background(), core.GenerationRequest{CallerID: "alice", Prompt: "a cat"})
	require.True(t, out.Succeeded())
	assert.Equal(t, "output_image_20240102_030405.png", out.Record.ImageFile)
	assert.Equal(t, "output_model_20240102_030405.glb", out.Record.ModelFile)

	names, err := f.artifacts.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, names)

	// Placeholder paths keep their stamp reserved.
	f.model.AddResponse("Interpret and expand this prompt for visual generation: a dog", "a dog")
	f.caps.Register(tti, func(context.Context, map[string]any, string) core.Result {
		return core.NewResult(map[string]any{core.KeyImage: core.RawPayload(imageBytes)})
	})
	f.caps.Register(i3d, func(context.Context, map[string]any, string) core.Result {
		return core.NewResult(map[string]any{core.KeyModel: core.RawPayload(modelBytes)})
	})
	next := o.Execute(context.Background(), core.GenerationRequest{CallerID: "alice", Prompt: "a dog"})
	require.True(t, next.Succeeded())
	assert.Equal(t, "output_image_20240102_030405_1.png", next.Record.ImageFile)
	assert.Equal(t, "output_model_20240102_030405_1.glb", next.Record.ModelFile)
}

type mockLongTermStore struct {
	mock.Mock
}

func (m *mockLongTermStore) Load(ctx context.Context) ([]core.GenerationRecord, error) {
	args := m.Called(ctx)
	return args.Get(0).([]core.GenerationRecord), args.Error(1)
}

func (m *mockLongTermStore) Append(ctx context.Context, record core.GenerationRecord) error {
	return m.Called(ctx, record).Error(0)
}

func TestExecute_LedgerFailure(t *testing.T) {
	f := newFixture(t)
	ledger := &mockLongTermStore{}
	ledger.On("Append", mock.Anything, mock.MatchedBy(func(r core.GenerationRecord) bool {
		return r.CreatedAt == "2024-01-02T03:04:05"
	})).Return(errors.New("read-only file system"))
	o := f.orchestrator(t, func(o *Options) { o.LongTerm = ledger })

	out := o.Execute(context.Background(), core.GenerationRequest{CallerID: "alice", Prompt: "a cat"})

	assert.Equal(t, MsgRecordFailed, out.Message)
	assert.Equal(t, core.StageRecord, out.Stage)
	ledger.AssertExpectations(t)

	sess, err := f.sessions.Get("alice")
	require.NoError(t, err)
	assert.Empty(t, sess.GetRecords())
}

func TestExecute_SessionOverride(t *testing.T) {
	f := newFixture(t)
	o := f.orchestrator(t)

	out := o.Execute(context.Background(), core.GenerationRequest{CallerID: "alice", SessionID: "s-1", Prompt: "a cat"})
	require.True(t, out.Succeeded())

	sess, err := f.sessions.Get("s-1")
	require.NoError(t, err)
	assert.Len(t, sess.GetRecords(), 1)

	other, err := f.sessions.Get("alice")
	require.NoError(t, err)
	assert.Empty(t, other.GetRecords())
}

func TestExecute_ConcurrentRunsOnDisk(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()
	arts := artifact.NewFileStore(filepath.Join(dir, "generatedImages"))
	ledger := memory.NewJSONFileStore(filepath.Join(dir, "long_term_memory.json"))
	o := f.orchestrator(t, func(o *Options) {
		o.Artifacts = arts
		o.LongTerm = ledger
	})

	const runs = 10
	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
	)
	for i := 0; i < runs; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out := o.Execute(context.Background(), core.GenerationRequest{
				CallerID:  "alice",
				SessionID: fmt.Sprintf("s-%d", i),
				Prompt:    "a cat",
			})
			if out.Succeeded() {
				succeeded.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(runs), succeeded.Load())

	records, err := ledger.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, runs)

	names, err := arts.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, names, 2*runs)
}

func TestExecute_LogsStagesWithPipelineLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewLogger(&logging.LoggerConfig{Level: logging.LogLevelDebug, Format: "json", Output: &buf})
	f := newFixture(t)
	o := f.orchestrator(t, func(o *Options) { o.Logger = logger })

	out := o.Execute(context.Background(), core.GenerationRequest{CallerID: "mallory", Prompt: "a cat"})
	require.False(t, out.Succeeded())

	logs := buf.String()
	assert.Contains(t, logs, `"component":"pipeline"`)
	assert.Contains(t, logs, `"session_id":"mallory"`)
	assert.Contains(t, logs, `"msg":"Stage failed"`)
	assert.Contains(t, logs, `"stage":"text_to_image"`)
}
