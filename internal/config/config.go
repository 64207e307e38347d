package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Viper keys and the environment variables bound to them
const (
	keyLogLevel             = "log_level"
	keyPort                 = "port"
	keyEnableAuthentication = "enable_authentication"
	keyBearerToken          = "bearer_token"
	keyRedisURL             = "redis_url"
	keyJournalTTL           = "journal_ttl"
	keyRedmineSkipTLS       = "redmine_skip_tls_verify"
	keyRedmineTimeout       = "redmine_timeout"
	keyRetryMaxAttempts     = "retry_max_attempts"
	keyRetryDelay           = "retry_delay"
	keyPluginName           = "its_plugin_name"
)

// DefaultPluginName names the plugin section when ITS_PLUGIN_NAME is unset
const DefaultPluginName = "its-redmine"

// Config holds application configuration
type Config struct {
	// Logging configuration
	LogLevel string

	// Authentication configuration
	EnableAuthentication bool
	BearerToken          string

	// Redis configuration, journal is disabled without a URL
	RedisURL   string
	JournalTTL time.Duration

	// Redmine transport configuration
	RedmineSkipTLS bool
	RedmineTimeout time.Duration

	// Retry configuration
	RetryMaxAttempts int
	RetryDelay       time.Duration

	// Plugin configuration
	PluginName string
	ConfigFile string

	// Server configuration
	Port string

	v *viper.Viper
}

// LoadConfig loads configuration from the file named by ITS_CONFIG_FILE and the environment
func LoadConfig() (*Config, error) {
	return Load(os.Getenv("ITS_CONFIG_FILE"))
}

// Load reads the optional YAML file at path, then applies environment overrides. A missing file
// yields the defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	v.SetDefault(keyLogLevel, "info")
	v.SetDefault(keyPort, "8080")
	v.SetDefault(keyEnableAuthentication, false)
	v.SetDefault(keyBearerToken, "")
	v.SetDefault(keyRedisURL, "")
	v.SetDefault(keyJournalTTL, 30*24*time.Hour)
	v.SetDefault(keyRedmineSkipTLS, false)
	v.SetDefault(keyRedmineTimeout, 30*time.Second)
	v.SetDefault(keyRetryMaxAttempts, 3)
	v.SetDefault(keyRetryDelay, time.Duration(0))
	v.SetDefault(keyPluginName, DefaultPluginName)

	for _, key := range []string{
		keyLogLevel, keyPort, keyEnableAuthentication, keyBearerToken, keyRedisURL, keyJournalTTL,
		keyRedmineSkipTLS, keyRedmineTimeout, keyRetryMaxAttempts, keyRetryDelay, keyPluginName,
	} {
		if err := v.BindEnv(key, strings.ToUpper(key)); err != nil {
			return nil, fmt.Errorf("binding %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		}
	}

	cfg := &Config{
		LogLevel:             v.GetString(keyLogLevel),
		EnableAuthentication: v.GetBool(keyEnableAuthentication),
		BearerToken:          v.GetString(keyBearerToken),
		RedisURL:             v.GetString(keyRedisURL),
		JournalTTL:           v.GetDuration(keyJournalTTL),
		RedmineSkipTLS:       v.GetBool(keyRedmineSkipTLS),
		RedmineTimeout:       v.GetDuration(keyRedmineTimeout),
		RetryMaxAttempts:     v.GetInt(keyRetryMaxAttempts),
		RetryDelay:           v.GetDuration(keyRetryDelay),
		PluginName:           strings.TrimSpace(v.GetString(keyPluginName)),
		ConfigFile:           path,
		Port:                 v.GetString(keyPort),
		v:                    v,
	}

	// Plugin-scoped settings stay in viper so lookups see environment changes
	if cfg.PluginName != "" {
		_ = v.BindEnv(cfg.PluginName+".url", "REDMINE_URL")
		_ = v.BindEnv(cfg.PluginName+".apiKey", "REDMINE_API_KEY")
	}

	return cfg, nil
}

// PluginString returns the plugin-scoped value of key, or "" when unset
func (c *Config) PluginString(key string) string {
	if c.v == nil || c.PluginName == "" {
		return ""
	}
	return strings.TrimSpace(c.v.GetString(c.PluginName + "." + key))
}

// IsConfigured reports whether a Redmine URL is set for the plugin
func (c *Config) IsConfigured() bool {
	return c.PluginString("url") != ""
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.PluginName == "" {
		return &ConfigError{Field: "ITS_PLUGIN_NAME", Message: "Plugin name must not be empty"}
	}

	if c.EnableAuthentication && c.BearerToken == "" {
		return &ConfigError{Field: "BEARER_TOKEN", Message: "Bearer token is required when authentication is enabled"}
	}

	if c.RetryMaxAttempts < 1 {
		return &ConfigError{Field: "RETRY_MAX_ATTEMPTS", Message: "At least one attempt is required"}
	}

	if c.RetryDelay < 0 {
		return &ConfigError{Field: "RETRY_DELAY", Message: "Retry delay must not be negative"}
	}

	if c.RedmineTimeout <= 0 {
		return &ConfigError{Field: "REDMINE_TIMEOUT", Message: "Timeout must be positive"}
	}

	return nil
}

// GetLogLevel returns the slog.Level for the configured log level
func (c *Config) GetLogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ConfigError represents a configuration validation error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "Configuration error for " + e.Field + ": " + e.Message
}

// CommentLink describes how issue references in commit messages are recognized and rendered
type CommentLink struct {
	Match       string
	HTML        string
	Association string
}

// PluginSection is what the setup wizard persists for a plugin
type PluginSection struct {
	URL         string
	APIKey      string
	CommentLink *CommentLink
}

// SavePluginSection writes section into the YAML file at path under the plugin's name, keeping
// any other settings already stored there.
func SavePluginSection(path, plugin string, section PluginSection) error {
	if plugin == "" {
		return &ConfigError{Field: "ITS_PLUGIN_NAME", Message: "Plugin name must not be empty"}
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &notFound) {
			return fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	v.Set(plugin+".url", section.URL)
	v.Set(plugin+".apiKey", section.APIKey)
	if link := section.CommentLink; link != nil {
		v.Set("commentlink."+plugin+".match", link.Match)
		v.Set("commentlink."+plugin+".html", link.HTML)
		v.Set("commentlink."+plugin+".association", link.Association)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// CommentLink returns the stored comment-link section of the plugin, or nil when none is stored
func (c *Config) CommentLink() *CommentLink {
	if c.v == nil || c.PluginName == "" {
		return nil
	}
	prefix := "commentlink." + c.PluginName + "."
	match := c.v.GetString(prefix + "match")
	if match == "" {
		return nil
	}
	return &CommentLink{
		Match:       match,
		HTML:        c.v.GetString(prefix + "html"),
		Association: c.v.GetString(prefix + "association"),
	}
}
