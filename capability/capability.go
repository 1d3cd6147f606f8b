package capability

import (
	"context"
	"sync"

	"github.com/hupe1980/genmesh/core"
)

// Func is an in-process capability implementation.
type Func func(ctx context.Context, payload map[string]any, callerID string) core.Result

// FuncClient serves capabilities from registered Funcs. It is used by tests,
// examples and the offline CLI mode.
type FuncClient struct {
	mu    sync.RWMutex
	funcs map[string]Func
}

var _ core.CapabilityClient = (*FuncClient)(nil)

// NewFuncClient creates a FuncClient seeded with funcs.
func NewFuncClient(funcs map[string]Func) *FuncClient {
	c := &FuncClient{funcs: make(map[string]Func, len(funcs))}
	for id, fn := range funcs {
		c.funcs[id] = fn
	}
	return c
}

// Register adds or replaces the implementation of a capability.
func (c *FuncClient) Register(capabilityID string, fn Func) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.funcs[capabilityID] = fn
}

// Call invokes the Func registered for capabilityID. Unknown identifiers
// yield an absent result.
func (c *FuncClient) Call(ctx context.Context, capabilityID string, payload map[string]any, callerID string) core.Result {
	c.mu.RLock()
	fn, ok := c.funcs[capabilityID]
	c.mu.RUnlock()
	if !ok {
		return core.NoResult(&UnknownCapabilityError{ID: capabilityID})
	}
	if err := ctx.Err(); err != nil {
		return core.NoResult(&core.TransportError{Op: capabilityID, Err: err})
	}
	return fn(ctx, payload, callerID)
}

// Scope returns a caller restricted to capabilities.
func (c *FuncClient) Scope(capabilities []string) core.CapabilityCaller {
	return Restrict(c, capabilities)
}

// Restrict wraps caller so that identifiers outside capabilities yield an
// absent result without reaching the underlying caller.
func Restrict(caller core.CapabilityCaller, capabilities []string) core.CapabilityCaller {
	allowed := make(map[string]struct{}, len(capabilities))
	for _, id := range capabilities {
		allowed[id] = struct{}{}
	}
	return &scoped{caller: caller, allowed: allowed}
}

type scoped struct {
	caller  core.CapabilityCaller
	allowed map[string]struct{}
}

func (s *scoped) Call(ctx context.Context, capabilityID string, payload map[string]any, callerID string) core.Result {
	if _, ok := s.allowed[capabilityID]; !ok {
		return core.NoResult(&NotEnabledError{ID: capabilityID, CallerID: callerID})
	}
	return s.caller.Call(ctx, capabilityID, payload, callerID)
}
