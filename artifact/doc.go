// Package artifact contains concrete implementations of core.ArtifactStore.
//
// The canonical ArtifactStore interface lives in the core package to avoid
// dependency cycles and keep domain contracts central. FileStore writes into a
// content directory on local disk; InMemoryStore keeps artifacts in process
// and is useful for tests and examples.
//
// Both stores share the naming scheme output_<kind>_<stamp>.<ext>. A stamp is
// the second-granularity time YYYYmmdd_HHMMSS, suffixed with _N when an
// earlier generation already claimed the same second, so two generations
// completing within one second never overwrite each other.
package artifact
