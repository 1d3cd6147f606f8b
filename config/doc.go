// Package config loads genmesh configuration.
//
// Values are resolved in order: built-in defaults, then an optional YAML
// file, then GENMESH_* environment variables:
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("genmesh.yaml").
//	    WithEnvPrefix("GENMESH").
//	    Load()
//
// Nested fields map to environment variables by joining env tags with "_",
// e.g. GENMESH_EXPANDER_MODEL or GENMESH_TIMEOUTS_CAPABILITY=90s.
package config
