package capability

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
	"github.com/hupe1980/genmesh/logging"
)

// DefaultCallerHeader carries the caller identity on every request.
const DefaultCallerHeader = "X-Caller-ID"

// maxErrorBody bounds how much of an error response is kept for messages.
const maxErrorBody = 512

// DefaultEndpoint resolves a capability identifier to its execution URL.
func DefaultEndpoint(capabilityID string) string {
	if strings.HasPrefix(capabilityID, "http://") || strings.HasPrefix(capabilityID, "https://") {
		return strings.TrimRight(capabilityID, "/") + "/execution"
	}
	return "https://" + capabilityID + "/execution"
}

// Options configure the HTTP capability client.
type Options struct {
	// Endpoint maps a capability identifier to the URL requests are posted to.
	Endpoint func(capabilityID string) string
	// CallerHeader names the header carrying the caller identity.
	CallerHeader string
	// HTTPClient performs the requests.
	HTTPClient *http.Client
	// Logger receives per-call diagnostics.
	Logger logging.Logger
}

// remoteCallLogger is implemented by loggers with dedicated remote call
// records, such as *logging.PipelineLogger.
type remoteCallLogger interface {
	LogRemoteCall(target string, dur time.Duration, success bool, err error)
}

// Client invokes capabilities over HTTP with a JSON request and response.
type Client struct {
	opts Options
}

var (
	_ core.CapabilityClient = (*Client)(nil)
	_ core.CapabilityCaller = (*Client)(nil)
)

// New creates an HTTP capability client.
func New(optFns ...func(o *Options)) *Client {
	opts := Options{
		Endpoint:     DefaultEndpoint,
		CallerHeader: DefaultCallerHeader,
		HTTPClient:   &http.Client{Timeout: 10 * time.Minute},
		Logger:       logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Client{opts: opts}
}

// Scope returns a caller restricted to capabilities.
func (c *Client) Scope(capabilities []string) core.CapabilityCaller {
	return Restrict(c, capabilities)
}

// Call posts payload to the capability endpoint and decodes the JSON object
// it answers with.
func (c *Client) Call(ctx context.Context, capabilityID string, payload map[string]any, callerID string) core.Result {
	start := time.Now()
	result := c.call(ctx, capabilityID, payload, callerID)
	if rl, ok := c.opts.Logger.(remoteCallLogger); ok {
		rl.LogRemoteCall(capabilityID, time.Since(start), result.Present(), result.Err())
		return result
	}
	if result.Present() {
		c.opts.Logger.Debug("Capability call completed",
			"capability", capabilityID, "duration", time.Since(start), "keys", result.Keys())
	} else {
		c.opts.Logger.Warn("Capability call returned no result",
			"capability", capabilityID, "duration", time.Since(start), "error", result.Err())
	}
	return result
}

func (c *Client) call(ctx context.Context, capabilityID string, payload map[string]any, callerID string) core.Result {
	body, err := json.Marshal(payload)
	if err != nil {
		return core.NoResult(fmt.Errorf("encode payload for %s: %w", capabilityID, err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.Endpoint(capabilityID), bytes.NewReader(body))
	if err != nil {
		return core.NoResult(&core.TransportError{Op: capabilityID, Err: err})
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if callerID != "" {
		req.Header.Set(c.opts.CallerHeader, callerID)
	}

	resp, err := c.opts.HTTPClient.Do(req)
	if err != nil {
		return core.NoResult(&core.TransportError{Op: capabilityID, Err: err})
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return core.NoResult(&core.TransportError{
			Op:         capabilityID,
			StatusCode: resp.StatusCode,
			Err:        errors.New(strings.TrimSpace(string(snippet))),
		})
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return core.NoResult(&core.TransportError{Op: capabilityID, Err: err})
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return core.NoResult(fmt.Errorf("%s: empty response: %w", capabilityID, core.ErrNoResult))
	}

	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return core.NoResult(&core.MalformedResponseError{Op: capabilityID, Err: err})
	}
	if decoded == nil {
		return core.NoResult(fmt.Errorf("%s: null response: %w", capabilityID, core.ErrNoResult))
	}

	return core.NewResult(decoded)
}
