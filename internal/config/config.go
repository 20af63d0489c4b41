package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/shinji-kodama/notesync/internal/model"
)

// Environment variable names.
const (
	EnvZendeskSubdomain  = "ZENDESK_SUBDOMAIN"
	EnvZendeskEmail      = "ZENDESK_EMAIL"
	EnvZendeskAPIToken   = "ZENDESK_API_TOKEN"
	EnvShopifyStore      = "SHOPIFY_STORE"
	EnvShopifyAdminToken = "SHOPIFY_ADMIN_TOKEN"
	EnvShopifyAPIVersion = "SHOPIFY_API_VERSION"

	EnvConfigPath  = "NOTESYNC_CONFIG"
	EnvHTTPTimeout = "NOTESYNC_HTTP_TIMEOUT"
	EnvLogLevel    = "NOTESYNC_LOG_LEVEL"
	EnvLogFile     = "NOTESYNC_LOG_FILE"
	EnvEnvironment = "NOTESYNC_ENV"
	EnvSentryDSN   = "SENTRY_DSN"
)

// DefaultShopifyAPIVersion is the Admin API version used when none is set.
const DefaultShopifyAPIVersion = "2024-01"

// Config is the root configuration for notesync.
type Config struct {
	Zendesk ZendeskConfig `yaml:"zendesk" json:"zendesk"`
	Shopify ShopifyConfig `yaml:"shopify" json:"shopify"`
	HTTP    HTTPConfig    `yaml:"http" json:"http"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// ZendeskConfig holds the ticket system credentials.
type ZendeskConfig struct {
	Subdomain string `yaml:"subdomain" json:"subdomain"`
	Email     string `yaml:"email" json:"email"`
	APIToken  string `yaml:"api_token" json:"api_token"`
	BaseURL   string `yaml:"base_url" json:"base_url"` // overrides the subdomain URL
}

// ShopifyConfig holds the commerce platform credentials.
type ShopifyConfig struct {
	Store      string `yaml:"store" json:"store"`
	AdminToken string `yaml:"admin_token" json:"admin_token"`
	APIVersion string `yaml:"api_version" json:"api_version"`
	BaseURL    string `yaml:"base_url" json:"base_url"` // overrides the store URL
}

// HTTPConfig tunes outbound API calls.
type HTTPConfig struct {
	// Timeout is a Go duration string such as "30s".
	Timeout string `yaml:"timeout" json:"timeout"`
}

// LoggingConfig controls the logging package.
type LoggingConfig struct {
	Level       string `yaml:"level" json:"level"`
	File        string `yaml:"file" json:"file"`
	SentryDSN   string `yaml:"sentry_dsn" json:"sentry_dsn"`
	Environment string `yaml:"environment" json:"environment"`
}

// Default returns a config with every optional setting filled in.
func Default() *Config {
	return &Config{
		Shopify: ShopifyConfig{APIVersion: DefaultShopifyAPIVersion},
		HTTP:    HTTPConfig{Timeout: "30s"},
		Logging: LoggingConfig{Level: "info", Environment: "production"},
	}
}

// Load builds the configuration from defaults, the file at path, and the
// environment as seen through getenv.
//
// When path is empty, $NOTESYNC_CONFIG is used, then
// ~/.config/notesync/config.yaml if it exists; with none of those, only
// defaults and the environment apply. An explicit path that does not exist
// is an error.
//
// The returned config is non-nil even when validation fails, so callers
// can still display what was resolved. All errors are *model.ConfigError.
func Load(path string, getenv func(string) string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = getenv(EnvConfigPath)
	}
	if path == "" {
		path = defaultPathIfExists()
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return cfg, &model.ConfigError{Err: err}
		}
		cfg.expandEnvVars(getenv)
	}

	cfg.applyEnv(getenv)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// DefaultPath returns the per-user config file location.
func DefaultPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".config", "notesync", "config.yaml")
}

func defaultPathIfExists() string {
	p := DefaultPath()
	if p == "" {
		return ""
	}
	if _, err := os.Stat(p); err != nil {
		return ""
	}
	return p
}

// loadFile decodes a YAML (.yaml, .yml) or JSON-with-comments (.json, .jsonc)
// file over the current values.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		// Strip // and /* */ comments and trailing commas first.
		if err := json.Unmarshal(jsonc.ToJSON(data), c); err != nil {
			return fmt.Errorf("parse config file %s: %w", path, err)
		}
	case ".yaml", ".yml", "":
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parse config file %s: %w", path, err)
		}
	default:
		return fmt.Errorf("unsupported config file type %q (use .yaml, .yml, .json or .jsonc)", filepath.Ext(path))
	}
	return nil
}

// expandEnvVars resolves ${VAR} references in secret fields, so a config
// file can be committed without its tokens.
func (c *Config) expandEnvVars(getenv func(string) string) {
	c.Zendesk.Email = os.Expand(c.Zendesk.Email, getenv)
	c.Zendesk.APIToken = os.Expand(c.Zendesk.APIToken, getenv)
	c.Shopify.AdminToken = os.Expand(c.Shopify.AdminToken, getenv)
	c.Logging.SentryDSN = os.Expand(c.Logging.SentryDSN, getenv)
}

// applyEnv overrides file values with any non-empty environment variables.
func (c *Config) applyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&c.Zendesk.Subdomain, EnvZendeskSubdomain)
	set(&c.Zendesk.Email, EnvZendeskEmail)
	set(&c.Zendesk.APIToken, EnvZendeskAPIToken)
	set(&c.Shopify.Store, EnvShopifyStore)
	set(&c.Shopify.AdminToken, EnvShopifyAdminToken)
	set(&c.Shopify.APIVersion, EnvShopifyAPIVersion)
	set(&c.HTTP.Timeout, EnvHTTPTimeout)
	set(&c.Logging.Level, EnvLogLevel)
	set(&c.Logging.File, EnvLogFile)
	set(&c.Logging.SentryDSN, EnvSentryDSN)
	set(&c.Logging.Environment, EnvEnvironment)
}

// Validate reports missing required settings, named by their environment
// variables in a fixed order, and malformed optional ones.
func (c *Config) Validate() error {
	var missing []string
	if c.Zendesk.Subdomain == "" && c.Zendesk.BaseURL == "" {
		missing = append(missing, EnvZendeskSubdomain)
	}
	if c.Zendesk.Email == "" {
		missing = append(missing, EnvZendeskEmail)
	}
	if c.Zendesk.APIToken == "" {
		missing = append(missing, EnvZendeskAPIToken)
	}
	if c.Shopify.Store == "" && c.Shopify.BaseURL == "" {
		missing = append(missing, EnvShopifyStore)
	}
	if c.Shopify.AdminToken == "" {
		missing = append(missing, EnvShopifyAdminToken)
	}
	if len(missing) > 0 {
		return &model.ConfigError{Missing: missing}
	}

	if _, err := c.HTTPTimeout(); err != nil {
		return &model.ConfigError{Err: err}
	}
	return nil
}

// HTTPTimeout parses the configured request timeout. Zero disables it.
func (c *Config) HTTPTimeout() (time.Duration, error) {
	if c.HTTP.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.HTTP.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid http timeout %q: %w", c.HTTP.Timeout, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid http timeout %q: must not be negative", c.HTTP.Timeout)
	}
	return d, nil
}

// Redacted returns a copy safe to print: secrets are masked.
func (c *Config) Redacted() Config {
	out := *c
	out.Zendesk.APIToken = mask(out.Zendesk.APIToken)
	out.Shopify.AdminToken = mask(out.Shopify.AdminToken)
	out.Logging.SentryDSN = mask(out.Logging.SentryDSN)
	return out
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	return "********"
}
