// Package ollama provides an implementation of model.Model using the native
// Ollama /api/generate endpoint in non-streaming mode.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hupe1980/genmesh/core"
	"github.com/hupe1980/genmesh/model"
)

// DefaultBaseURL is the address of a local Ollama daemon.
const DefaultBaseURL = "http://localhost:11434"

// DefaultModel is the model identifier used when none is configured.
const DefaultModel = "deepseek-r1:7b"

// maxErrorBody bounds how much of an error response is kept for messages.
const maxErrorBody = 512

// Options configure the Ollama model adapter.
type Options struct {
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

// Model wraps the Ollama generate API behind the generic model.Model interface.
type Model struct {
	client *http.Client
	opts   Options
}

// NewModel creates a new Ollama model.
func NewModel(optFns ...func(o *Options)) *Model {
	opts := Options{
		BaseURL:    DefaultBaseURL,
		Model:      DefaultModel,
		HTTPClient: &http.Client{Timeout: 5 * time.Minute},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	return &Model{client: opts.HTTPClient, opts: opts}
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	System string `json:"system,omitempty"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Model           string  `json:"model"`
	Response        *string `json:"response"`
	Done            bool    `json:"done"`
	DoneReason      string  `json:"done_reason"`
	PromptEvalCount int     `json:"prompt_eval_count"`
	EvalCount       int     `json:"eval_count"`
}

// Generate implements model.Model. Streaming requests are served
// non-streaming: the whole completion is emitted as one final response.
func (m *Model) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response, 1)
	errCh := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errCh)
		resp, err := m.generate(ctx, req)
		if err != nil {
			errCh <- err
			return
		}
		out <- resp
	}()
	return out, errCh
}

func (m *Model) generate(ctx context.Context, req model.Request) (model.Response, error) {
	op := "ollama " + m.opts.Model
	body, err := json.Marshal(generateRequest{
		Model:  m.opts.Model,
		Prompt: req.Prompt,
		System: req.Instructions,
		Stream: false,
	})
	if err != nil {
		return model.Response{}, fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.opts.BaseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return model.Response{}, &core.TransportError{Op: op, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := m.client.Do(httpReq)
	if err != nil {
		return model.Response{}, &core.TransportError{Op: op, Err: err}
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(httpResp.Body, maxErrorBody))
		return model.Response{}, &core.TransportError{
			Op:         op,
			StatusCode: httpResp.StatusCode,
			Err:        errors.New(strings.TrimSpace(string(snippet))),
		}
	}

	var decoded generateResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&decoded); err != nil {
		return model.Response{}, &core.MalformedResponseError{Op: op, Err: err}
	}
	if decoded.Response == nil {
		return model.Response{}, &core.MalformedResponseError{Op: op, Field: "response", Err: errors.New("missing")}
	}

	finish := decoded.DoneReason
	if finish == "" {
		finish = "stop"
	}
	return model.Response{
		Text:         *decoded.Response,
		FinishReason: finish,
		Usage: &model.TokenUsage{
			PromptTokens:     decoded.PromptEvalCount,
			CompletionTokens: decoded.EvalCount,
			TotalTokens:      decoded.PromptEvalCount + decoded.EvalCount,
		},
	}, nil
}

// Info returns metadata describing this Ollama model implementation.
func (m *Model) Info() model.Info {
	return model.Info{Name: m.opts.Model, Provider: "ollama"}
}
