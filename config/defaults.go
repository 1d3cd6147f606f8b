package config

import (
	"path/filepath"
	"time"

	"github.com/hupe1980/genmesh/core"
)

// Expander providers.
const (
	ProviderOllama    = "ollama"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Ledger backends.
const (
	LedgerJSON   = "json"
	LedgerSQLite = "sqlite"
)

// Log backends.
const (
	LogBackendSlog = "slog"
	LogBackendZap  = "zap"
)

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    15 * time.Minute,
			ShutdownTimeout: 30 * time.Second,
		},
		Expander: ExpanderConfig{
			Provider: ProviderOllama,
			Model:    "deepseek-r1:7b",
			BaseURL:  "http://localhost:11434",
			Template: "Interpret and expand this prompt for visual generation: {{.prompt}}",
		},
		Capabilities: CapabilitiesConfig{
			TextToImage:  "c25dcd829d134ea98f5ae4dd311d13bc.node3.openfabric.network",
			ImageTo3D:    "f0b5f319156c4819b9827000b17e511a.node3.openfabric.network",
			CallerHeader: "X-Caller-ID",
		},
		Timeouts: TimeoutsConfig{
			Expand:     2 * time.Minute,
			Capability: 5 * time.Minute,
		},
		Storage: StorageConfig{
			ArtifactDir:   filepath.Join("datastore", "generatedImages"),
			LedgerBackend: LedgerJSON,
			LedgerPath:    filepath.Join("datastore", "long_term_memory.json"),
		},
		Log: LogConfig{
			Level:   "info",
			Format:  "json",
			Backend: LogBackendSlog,
		},
		Users: map[string]core.UserConfig{},
	}
}
