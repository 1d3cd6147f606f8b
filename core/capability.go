package core

import "context"

// CapabilityCaller invokes remote generation capabilities on behalf of a
// caller identity. Implementations never return an error: any failure is an
// absent Result carrying its cause.
type CapabilityCaller interface {
	Call(ctx context.Context, capabilityID string, payload map[string]any, callerID string) Result
}

// CapabilityClient produces callers restricted to a capability set.
type CapabilityClient interface {
	Scope(capabilities []string) CapabilityCaller
}

// Expander turns a terse prompt into an elaborated description.
type Expander interface {
	Expand(ctx context.Context, prompt string) (string, error)
}

// ConfigSource resolves the capability set configured for an identity. An
// unknown identity yields an empty set.
type ConfigSource interface {
	Capabilities(identity string) []string
}
