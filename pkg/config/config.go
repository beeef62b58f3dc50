package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the harvester
type Config struct {
	// Platform API credentials and endpoints
	Platforms PlatformsConfig `yaml:"platforms" json:"platforms"`

	// Rate limiting configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Retry policy for fetch outcomes
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Postgres connection settings
	Database DatabaseConfig `yaml:"database" json:"database"`

	// Pipeline behaviour
	Pipeline PipelineConfig `yaml:"pipeline" json:"pipeline"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// PlatformsConfig holds per-platform credentials
type PlatformsConfig struct {
	Instagram InstagramConfig `yaml:"instagram" json:"instagram"`
	TikTok    TikTokConfig    `yaml:"tiktok" json:"tiktok"`
	YouTube   YouTubeConfig   `yaml:"youtube" json:"youtube"`
	X         XConfig         `yaml:"x" json:"x"`
}

// InstagramConfig holds Graph API business discovery settings
type InstagramConfig struct {
	AccessToken    string        `yaml:"access_token" json:"access_token"`
	BusinessID     string        `yaml:"business_id" json:"business_id"`
	PageID         string        `yaml:"page_id" json:"page_id"`
	APIVersion     string        `yaml:"api_version" json:"api_version"`
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
}

// TikTokConfig holds profile page scrape settings
type TikTokConfig struct {
	UserAgent      string        `yaml:"user_agent" json:"user_agent"`
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
}

// YouTubeConfig holds Data API v3 settings
type YouTubeConfig struct {
	APIKey         string        `yaml:"api_key" json:"api_key"`
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
}

// XConfig holds X API v2 settings
type XConfig struct {
	BearerToken    string        `yaml:"bearer_token" json:"bearer_token"`
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
	BurstSize         int `yaml:"burst_size" json:"burst_size"`
}

// RetryConfig holds the uniform retry policy applied to every fetcher
type RetryConfig struct {
	MaxRateLimitRetries int           `yaml:"max_rate_limit_retries" json:"max_rate_limit_retries"`
	MaxTransientRetries int           `yaml:"max_transient_retries" json:"max_transient_retries"`
	RateLimitBaseDelay  time.Duration `yaml:"rate_limit_base_delay" json:"rate_limit_base_delay"`
	BackoffMultiplier   float64       `yaml:"backoff_multiplier" json:"backoff_multiplier"`
	TransientDelay      time.Duration `yaml:"transient_delay" json:"transient_delay"`
}

// DatabaseConfig holds Postgres connection settings
type DatabaseConfig struct {
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	Name     string `yaml:"name" json:"name"`
	User     string `yaml:"user" json:"user"`
	Password string `yaml:"password" json:"password"`
	SSLMode  string `yaml:"ssl_mode" json:"ssl_mode"`
}

// DSN renders the pgx connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		d.Host, d.Port, d.Name, d.User, d.Password, d.SSLMode)
}

// PipelineConfig holds batch run behaviour
type PipelineConfig struct {
	Workers         int    `yaml:"workers" json:"workers"`
	MinFollowers    int64  `yaml:"min_followers" json:"min_followers"`
	PostsPerProfile int    `yaml:"posts_per_profile" json:"posts_per_profile"`
	IdentifierFile  string `yaml:"identifier_file" json:"identifier_file"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Platforms: PlatformsConfig{
			Instagram: InstagramConfig{
				APIVersion:     "v19.0",
				RequestTimeout: 30 * time.Second,
			},
			TikTok: TikTokConfig{
				UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
				RequestTimeout: 60 * time.Second,
			},
			YouTube: YouTubeConfig{
				RequestTimeout: 30 * time.Second,
			},
			X: XConfig{
				RequestTimeout: 30 * time.Second,
			},
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 60,
			BurstSize:         10,
		},
		Retry: RetryConfig{
			MaxRateLimitRetries: 4,
			MaxTransientRetries: 2,
			RateLimitBaseDelay:  60 * time.Second,
			BackoffMultiplier:   2.0,
			TransientDelay:      5 * time.Second,
		},
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    5432,
			SSLMode: "require",
		},
		Pipeline: PipelineConfig{
			Workers:         2,
			MinFollowers:    50000,
			PostsPerProfile: 10,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables.
// SOCIALHARVEST_* names take precedence; the bare names the original
// ingestion scripts used (DB_HOST, fb_token, YOUTUBE_API_KEY, ...) are
// honored as fallbacks.
func (c *Config) LoadFromEnv() error {
	setStr := func(dst *string, names ...string) {
		for _, name := range names {
			if v := os.Getenv(name); v != "" {
				*dst = v
				return
			}
		}
	}
	setInt := func(dst *int, names ...string) {
		for _, name := range names {
			if v := os.Getenv(name); v != "" {
				var val int
				fmt.Sscanf(v, "%d", &val)
				if val > 0 {
					*dst = val
				}
				return
			}
		}
	}

	// Platform credentials
	setStr(&c.Platforms.Instagram.AccessToken, "SOCIALHARVEST_FB_TOKEN", "fb_token")
	setStr(&c.Platforms.Instagram.BusinessID, "SOCIALHARVEST_IG_BUSINESS_ID", "ig_business_id")
	setStr(&c.Platforms.Instagram.PageID, "SOCIALHARVEST_FB_PAGE_ID", "FB_PAGE_ID")
	setStr(&c.Platforms.YouTube.APIKey, "SOCIALHARVEST_YOUTUBE_API_KEY", "YOUTUBE_API_KEY")
	setStr(&c.Platforms.X.BearerToken, "SOCIALHARVEST_X_BEARER_TOKEN", "x_bearer_token")
	setStr(&c.Platforms.TikTok.UserAgent, "SOCIALHARVEST_TIKTOK_USER_AGENT")

	// Database
	setStr(&c.Database.Host, "SOCIALHARVEST_DB_HOST", "DB_HOST")
	setStr(&c.Database.Name, "SOCIALHARVEST_DB_NAME", "DB_NAME")
	setStr(&c.Database.User, "SOCIALHARVEST_DB_USER", "DB_USERNAME")
	setStr(&c.Database.Password, "SOCIALHARVEST_DB_PASSWORD", "DB_PASS", "DB_PASSWORD")
	setStr(&c.Database.SSLMode, "SOCIALHARVEST_DB_SSLMODE")
	setInt(&c.Database.Port, "SOCIALHARVEST_DB_PORT", "DB_PORT")

	// Rate limiting and pipeline
	setInt(&c.RateLimit.RequestsPerMinute, "SOCIALHARVEST_REQUESTS_PER_MINUTE")
	setInt(&c.Pipeline.Workers, "SOCIALHARVEST_WORKERS")
	if v := os.Getenv("SOCIALHARVEST_MIN_FOLLOWERS"); v != "" {
		var val int64
		fmt.Sscanf(v, "%d", &val)
		if val >= 0 {
			c.Pipeline.MinFollowers = val
		}
	}
	setStr(&c.Pipeline.IdentifierFile, "SOCIALHARVEST_IDENTIFIER_FILE")

	// Logging
	setStr(&c.Logging.Level, "SOCIALHARVEST_LOG_LEVEL")
	setStr(&c.Logging.File, "SOCIALHARVEST_LOG_FILE")

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	// Check in order of precedence
	locations := []string{
		".socialharvest.yaml",
		".socialharvest.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "socialharvest", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "socialharvest", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".socialharvest.yaml"),
		filepath.Join(os.Getenv("HOME"), ".socialharvest.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	// Validate rate limiting
	if c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}
	if c.RateLimit.BurstSize <= 0 {
		errs = append(errs, errors.New("burst size must be positive"))
	}

	// Validate retry policy
	if c.Retry.MaxRateLimitRetries < 1 {
		errs = append(errs, errors.New("max rate limit retries must be at least 1"))
	}
	if c.Retry.MaxTransientRetries < 0 {
		errs = append(errs, errors.New("max transient retries cannot be negative"))
	}
	if c.Retry.RateLimitBaseDelay <= 0 {
		errs = append(errs, errors.New("rate limit base delay must be positive"))
	}
	if c.Retry.BackoffMultiplier < 1 {
		errs = append(errs, errors.New("backoff multiplier must be at least 1"))
	}

	// Validate pipeline settings
	if c.Pipeline.Workers < 2 {
		errs = append(errs, errors.New("workers must be at least 2"))
	}
	if c.Pipeline.Workers > 20 {
		errs = append(errs, errors.New("workers should not exceed 20"))
	}
	if c.Pipeline.MinFollowers < 0 {
		errs = append(errs, errors.New("min followers cannot be negative"))
	}
	if c.Pipeline.PostsPerProfile <= 0 {
		errs = append(errs, errors.New("posts per profile must be positive"))
	}

	// Validate database settings
	if c.Database.Host == "" {
		errs = append(errs, errors.New("database host is required"))
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		errs = append(errs, errors.New("database port must be between 1 and 65535"))
	}
	validSSLModes := map[string]bool{
		"disable": true, "allow": true, "prefer": true,
		"require": true, "verify-ca": true, "verify-full": true,
	}
	if !validSSLModes[c.Database.SSLMode] {
		errs = append(errs, errors.New("invalid database ssl mode"))
	}

	// Validate logging
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// ValidatePlatform checks that credentials for one platform are present.
// Called per run so a missing YouTube key does not block an X run.
func (c *Config) ValidatePlatform(platform string) error {
	var errs []error

	switch platform {
	case "instagram":
		if c.Platforms.Instagram.AccessToken == "" {
			errs = append(errs, errors.New("instagram access token is required"))
		}
		if c.Platforms.Instagram.BusinessID == "" {
			errs = append(errs, errors.New("instagram business account id is required"))
		}
	case "tiktok":
		// Scrape only, no credentials needed
	case "youtube":
		if c.Platforms.YouTube.APIKey == "" {
			errs = append(errs, errors.New("youtube api key is required"))
		}
	case "x":
		if c.Platforms.X.BearerToken == "" {
			errs = append(errs, errors.New("x bearer token is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown platform: %s", platform))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if workers, ok := flags["workers"].(int); ok && workers > 0 {
		c.Pipeline.Workers = workers
	}
	if minFollowers, ok := flags["min-followers"].(int64); ok && minFollowers >= 0 {
		c.Pipeline.MinFollowers = minFollowers
	}
	if file, ok := flags["identifiers"].(string); ok && file != "" {
		c.Pipeline.IdentifierFile = file
	}
	if rpm, ok := flags["requests-per-minute"].(int); ok && rpm > 0 {
		c.RateLimit.RequestsPerMinute = rpm
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
	if dbHost, ok := flags["db-host"].(string); ok && dbHost != "" {
		c.Database.Host = dbHost
	}
	if dbName, ok := flags["db-name"].(string); ok && dbName != "" {
		c.Database.Name = dbName
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".env"))
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".socialharvest.env"))

	// Start with defaults
	config := DefaultConfig()

	// Load from config file
	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Override with command line flags
	config.MergeCommandLineFlags(flags)

	// Validate final configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
