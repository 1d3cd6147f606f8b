package core

// UserConfig is the configuration a caller identity is provisioned with. The
// capability identifiers are kept in the order they were supplied.
type UserConfig struct {
	AppIDs []string `json:"app_ids" yaml:"app_ids"`
}

// Clone returns a copy whose AppIDs slice is independent of the receiver.
func (c UserConfig) Clone() UserConfig {
	ids := make([]string, len(c.AppIDs))
	copy(ids, c.AppIDs)
	return UserConfig{AppIDs: ids}
}

// GenerationRequest is the immutable input of one pipeline run.
type GenerationRequest struct {
	// CallerID identifies the user the generation runs on behalf of. It is
	// passed through to remote capabilities untouched.
	CallerID string `json:"user_id"`
	// SessionID scopes session memory. Empty means CallerID.
	SessionID string `json:"session_id,omitempty"`
	// Prompt is the raw, unexpanded user prompt.
	Prompt string `json:"prompt"`
}

// Session returns the effective session identifier.
func (r GenerationRequest) Session() string {
	if r.SessionID != "" {
		return r.SessionID
	}
	return r.CallerID
}

// Stage names a step of the generation pipeline.
type Stage string

const (
	StageConfig      Stage = "config"
	StageExpand      Stage = "expand"
	StageTextToImage Stage = "text_to_image"
	StageImageTo3D   Stage = "image_to_3d"
	StagePersist     Stage = "persist"
	StageRecord      Stage = "record"
	StageDone        Stage = "done"
)

// Outcome is the user-facing result of a pipeline run. It is returned to the
// caller and never persisted.
type Outcome struct {
	// Message is the human readable status line.
	Message string `json:"message"`
	// ExpandedPrompt is set once prompt expansion succeeded.
	ExpandedPrompt string `json:"expanded_prompt,omitempty"`
	// Stage is the last stage reached; StageDone on success.
	Stage Stage `json:"stage"`
	// Record is the session record appended on success.
	Record *GenerationRecord `json:"record,omitempty"`
	// Err is the cause of a failed run. It is for logs and metrics only.
	Err error `json:"-"`
}

// Succeeded reports whether the pipeline ran to completion.
func (o Outcome) Succeeded() bool { return o.Stage == StageDone && o.Err == nil }
