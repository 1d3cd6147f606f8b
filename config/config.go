package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/genmesh/core"
)

// Config is the complete genmesh configuration.
type Config struct {
	Server       ServerConfig       `yaml:"server" env:"SERVER"`
	Expander     ExpanderConfig     `yaml:"expander" env:"EXPANDER"`
	Capabilities CapabilitiesConfig `yaml:"capabilities" env:"CAPABILITIES"`
	Timeouts     TimeoutsConfig     `yaml:"timeouts" env:"TIMEOUTS"`
	Storage      StorageConfig      `yaml:"storage" env:"STORAGE"`
	Log          LogConfig          `yaml:"log" env:"LOG"`

	// Users provisions caller identities at startup. Further configuration
	// arrives through the server's /config endpoint.
	Users map[string]core.UserConfig `yaml:"users" env:"-"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr            string        `yaml:"addr" env:"ADDR"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
}

// ExpanderConfig selects and configures the prompt expansion backend.
type ExpanderConfig struct {
	// Provider is one of ollama, openai or anthropic.
	Provider string `yaml:"provider" env:"PROVIDER"`
	Model    string `yaml:"model" env:"MODEL"`
	BaseURL  string `yaml:"base_url" env:"BASE_URL"`
	APIKey   string `yaml:"api_key" env:"API_KEY"`
	// Template is the instruction template; {{.prompt}} is the raw prompt.
	Template string `yaml:"template" env:"TEMPLATE"`
}

// CapabilitiesConfig names the remote generation services.
type CapabilitiesConfig struct {
	TextToImage string `yaml:"text_to_image" env:"TEXT_TO_IMAGE"`
	ImageTo3D   string `yaml:"image_to_3d" env:"IMAGE_TO_3D"`
	// EndpointTemplate overrides how identifiers resolve to URLs; "{id}" is
	// replaced by the capability identifier.
	EndpointTemplate string `yaml:"endpoint_template" env:"ENDPOINT_TEMPLATE"`
	CallerHeader     string `yaml:"caller_header" env:"CALLER_HEADER"`
}

// TimeoutsConfig bounds remote calls. Zero keeps the default; a negative
// duration such as -1s leaves the call unbounded.
type TimeoutsConfig struct {
	Expand     time.Duration `yaml:"expand" env:"EXPAND"`
	Capability time.Duration `yaml:"capability" env:"CAPABILITY"`
}

// StorageConfig locates artifacts and the long-term ledger.
type StorageConfig struct {
	ArtifactDir string `yaml:"artifact_dir" env:"ARTIFACT_DIR"`
	// LedgerBackend is json or sqlite.
	LedgerBackend string `yaml:"ledger_backend" env:"LEDGER_BACKEND"`
	LedgerPath    string `yaml:"ledger_path" env:"LEDGER_PATH"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level" env:"LEVEL"`
	// Format is json or text.
	Format string `yaml:"format" env:"FORMAT"`
	// Backend is slog or zap.
	Backend string `yaml:"backend" env:"BACKEND"`
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	switch c.Expander.Provider {
	case ProviderOllama, ProviderOpenAI, ProviderAnthropic:
	default:
		errs = append(errs, fmt.Errorf("expander.provider: unsupported %q", c.Expander.Provider))
	}
	if c.Expander.Model == "" {
		errs = append(errs, errors.New("expander.model: required"))
	}
	if c.Capabilities.TextToImage == "" {
		errs = append(errs, errors.New("capabilities.text_to_image: required"))
	}
	if c.Capabilities.ImageTo3D == "" {
		errs = append(errs, errors.New("capabilities.image_to_3d: required"))
	}
	switch c.Storage.LedgerBackend {
	case LedgerJSON, LedgerSQLite:
	default:
		errs = append(errs, fmt.Errorf("storage.ledger_backend: unsupported %q", c.Storage.LedgerBackend))
	}
	if c.Storage.ArtifactDir == "" {
		errs = append(errs, errors.New("storage.artifact_dir: required"))
	}
	if c.Storage.LedgerPath == "" {
		errs = append(errs, errors.New("storage.ledger_path: required"))
	}
	switch c.Log.Backend {
	case LogBackendSlog, LogBackendZap:
	default:
		errs = append(errs, fmt.Errorf("log.backend: unsupported %q", c.Log.Backend))
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("log.format: unsupported %q", c.Log.Format))
	}

	return errors.Join(errs...)
}
