// Package config provides configuration loading for remedyd.
//
// Configuration is assembled once at startup and passed by reference into
// each component's constructor. Components never read the environment
// themselves.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// placeholderStateID is the value shipped in example configuration for the
// "awaiting user info" state. It must be replaced with the real state ID of
// the ticketing instance before the daemon will start.
const placeholderStateID = "your_awaiting_user_info_state_id"

// TicketingConfig configures access to the incident ticketing backend.
type TicketingConfig struct {
	// URL is the base URL of the incident table API
	// (e.g. https://example.service-now.com/api/now/table/incident).
	URL string `koanf:"url"`

	// Reporter selects incidents by caller name. Only the most recent
	// incident filed by this reporter is ever considered.
	Reporter string `koanf:"reporter"`

	// Username and Password are the basic-auth credentials for the backend.
	Username string `koanf:"username"`
	Password Secret `koanf:"password"`

	// AwaitingStateID is the backend's state identifier for
	// "awaiting user info". There is no universal default; instances
	// assign their own IDs.
	AwaitingStateID string `koanf:"awaiting_state_id"`

	// RequestTimeout bounds each HTTP call to the backend.
	RequestTimeout Duration `koanf:"request_timeout"`
}

// LLMConfig configures the generative provider.
type LLMConfig struct {
	// BaseURL is the OpenAI-compatible API base URL. Pointing this at a
	// self-hosted gateway works the same way it does for the OpenAI API.
	BaseURL string `koanf:"base_url"`

	// Model is the completion model to use.
	Model string `koanf:"model"`

	// APIKey authenticates against the provider.
	APIKey Secret `koanf:"api_key"`

	// RequestTimeout bounds each completion call.
	RequestTimeout Duration `koanf:"request_timeout"`
}

// CatalogConfig configures the reference repository of known playbooks.
type CatalogConfig struct {
	// RepoURL is the HTTPS clone URL of the playbook catalog.
	RepoURL string `koanf:"repo_url"`

	// CloneTimeout bounds the catalog clone.
	CloneTimeout Duration `koanf:"clone_timeout"`
}

// PublishConfig configures the review repository that receives generated
// playbooks.
type PublishConfig struct {
	// RemoteURL is the clone URL of the target repository (typically SSH).
	RemoteURL string `koanf:"remote_url"`

	// Owner and Repo identify the repository for pull-request creation.
	Owner string `koanf:"owner"`
	Repo  string `koanf:"repo"`

	// BaseBranch is the branch pull requests are opened against.
	BaseBranch string `koanf:"base_branch"`

	// FilePath is the path within the repository where generated playbooks
	// are written.
	FilePath string `koanf:"file_path"`

	// Token authenticates pull-request creation.
	Token Secret `koanf:"token"`

	// CloneTimeout bounds the clone/push of the target repository.
	CloneTimeout Duration `koanf:"clone_timeout"`
}

// LoopConfig configures workflow loop timing.
type LoopConfig struct {
	// PollInterval is the fixed sleep between cycles.
	PollInterval Duration `koanf:"poll_interval"`

	// ErrorBackoffMultiplier scales the sleep after a failed cycle so that
	// failure storms can be throttled independently of steady-state
	// polling. A multiplier of 1 keeps the fixed interval.
	ErrorBackoffMultiplier float64 `koanf:"error_backoff_multiplier"`
}

// ServerConfig configures the ops HTTP server (health, metrics).
type ServerConfig struct {
	Port            int      `koanf:"port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `koanf:"level"`

	// Format selects the encoder: "json" or "console".
	Format string `koanf:"format"`
}

// Config is the full remedyd configuration.
type Config struct {
	Ticketing TicketingConfig `koanf:"ticketing"`
	LLM       LLMConfig       `koanf:"llm"`
	Catalog   CatalogConfig   `koanf:"catalog"`
	Publish   PublishConfig   `koanf:"publish"`
	Loop      LoopConfig      `koanf:"loop"`
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// Load builds configuration from an optional YAML file overridden by
// environment variables.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (TICKETING_URL, LLM_API_KEY, ...)
//  2. YAML config file (path given by configPath, skipped when empty or
//     missing)
//  3. Defaults
//
// Environment variables map to config keys by splitting on the first
// underscore: TICKETING_AWAITING_STATE_ID -> ticketing.awaiting_state_id.
//
// The conventional credential variables OPENAI_API_KEY, GITHUB_TOKEN,
// SN_USERNAME and SN_PASSWORD are honored as fallbacks when the
// corresponding keys are unset.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath != "" {
		content, err := os.ReadFile(configPath)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
			}
		} else {
			if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
			}
		}
	}

	if err := k.Load(env.Provider("", ".", func(s string) string {
		// Split on first underscore only: section.field_name pattern.
		// TICKETING_AWAITING_STATE_ID -> ticketing.awaiting_state_id
		lower := strings.ToLower(s)
		parts := strings.SplitN(lower, "_", 2)
		if len(parts) == 1 {
			return lower
		}
		return parts[0] + "." + parts[1]
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyCredentialFallbacks(&cfg)
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// applyCredentialFallbacks fills credentials from the conventional
// environment variables when the config keys are unset.
func applyCredentialFallbacks(cfg *Config) {
	if !cfg.LLM.APIKey.IsSet() {
		cfg.LLM.APIKey = Secret(os.Getenv("OPENAI_API_KEY"))
	}
	if !cfg.Publish.Token.IsSet() {
		cfg.Publish.Token = Secret(os.Getenv("GITHUB_TOKEN"))
	}
	if cfg.Ticketing.Username == "" {
		cfg.Ticketing.Username = os.Getenv("SN_USERNAME")
	}
	if !cfg.Ticketing.Password.IsSet() {
		cfg.Ticketing.Password = Secret(os.Getenv("SN_PASSWORD"))
	}
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Ticketing.RequestTimeout == 0 {
		cfg.Ticketing.RequestTimeout = Duration(15 * time.Second)
	}

	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gpt-3.5-turbo"
	}
	if cfg.LLM.RequestTimeout == 0 {
		cfg.LLM.RequestTimeout = Duration(60 * time.Second)
	}

	if cfg.Catalog.CloneTimeout == 0 {
		cfg.Catalog.CloneTimeout = Duration(2 * time.Minute)
	}

	if cfg.Publish.BaseBranch == "" {
		cfg.Publish.BaseBranch = "main"
	}
	if cfg.Publish.FilePath == "" {
		cfg.Publish.FilePath = "generated_playbook.yml"
	}
	if cfg.Publish.CloneTimeout == 0 {
		cfg.Publish.CloneTimeout = Duration(2 * time.Minute)
	}

	if cfg.Loop.PollInterval == 0 {
		cfg.Loop.PollInterval = Duration(5 * time.Second)
	}
	if cfg.Loop.ErrorBackoffMultiplier == 0 {
		cfg.Loop.ErrorBackoffMultiplier = 1.0
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 9090
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = Duration(10 * time.Second)
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

// Validate checks that the configuration is complete enough to start.
func (c *Config) Validate() error {
	if c.Ticketing.URL == "" {
		return fmt.Errorf("ticketing.url is required")
	}
	if c.Ticketing.Reporter == "" {
		return fmt.Errorf("ticketing.reporter is required")
	}
	if c.Ticketing.AwaitingStateID == "" {
		return fmt.Errorf("ticketing.awaiting_state_id is required")
	}
	if c.Ticketing.AwaitingStateID == placeholderStateID {
		return fmt.Errorf("ticketing.awaiting_state_id still has the placeholder value; set the real state ID for your instance")
	}
	if c.Catalog.RepoURL == "" {
		return fmt.Errorf("catalog.repo_url is required")
	}
	if c.Publish.RemoteURL == "" {
		return fmt.Errorf("publish.remote_url is required")
	}
	if c.Publish.Owner == "" || c.Publish.Repo == "" {
		return fmt.Errorf("publish.owner and publish.repo are required")
	}
	if c.Loop.ErrorBackoffMultiplier < 1.0 {
		return fmt.Errorf("loop.error_backoff_multiplier must be >= 1")
	}
	return nil
}
