// Package logging provides a minimal logging interface and adapters for genmesh.
//
// The Logger interface defines the key/value logging methods (Debug, Info,
// Warn, Error) that the pipeline and its stores use for observability. This
// package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - ZapAdapter wrapping a *zap.Logger
//   - PipelineLogger with component/session helpers and stage timing
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	mesh := genmesh.New(func(o *genmesh.Options) { o.Logger = logger })
package logging
