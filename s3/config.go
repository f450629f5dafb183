package s3

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the storage configuration.
type Config struct {
	// Bucket is the bucket name.
	Bucket string `mapstructure:"bucket" yaml:"bucket"`

	// Region is the AWS region.
	Region string `mapstructure:"region" yaml:"region"`

	// Endpoint is a custom endpoint URL (MinIO, LocalStack).
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// UsePathStyle forces path-style addressing, required by most
	// S3-compatible services.
	UsePathStyle bool `mapstructure:"use_path_style" yaml:"use_path_style"`

	// AccessKey and SecretKey are static credentials.
	AccessKey string `mapstructure:"access_key" yaml:"access_key"`
	SecretKey string `mapstructure:"secret_key" yaml:"secret_key"`

	// SessionToken is an optional temporary session token.
	SessionToken string `mapstructure:"session_token" yaml:"session_token"`

	// Profile selects a shared credentials profile.
	Profile string `mapstructure:"profile" yaml:"profile"`

	// UseSDKDefaults allows the SDK default credential chain (env,
	// shared config, instance profile) when no explicit credentials
	// are provided.
	UseSDKDefaults bool `mapstructure:"use_sdk_defaults" yaml:"use_sdk_defaults"`

	// RoleARN, when set, assumes this role via STS using the resolved
	// credentials as the source.
	RoleARN string `mapstructure:"role_arn" yaml:"role_arn"`

	// ExternalID is passed to STS AssumeRole.
	ExternalID string `mapstructure:"external_id" yaml:"external_id"`

	// RequestTimeout bounds individual requests.
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`

	// MaxRetries is the maximum number of attempts per request.
	MaxRetries int `mapstructure:"max_retries" yaml:"max_retries"`

	// BackoffInitial and BackoffMax bound the retry delays.
	BackoffInitial time.Duration `mapstructure:"backoff_initial" yaml:"backoff_initial"`
	BackoffMax     time.Duration `mapstructure:"backoff_max" yaml:"backoff_max"`

	// PartSize is the default multipart part size.
	PartSize int64 `mapstructure:"part_size" yaml:"part_size"`

	// Parallel is the default multipart concurrency.
	Parallel int `mapstructure:"parallel" yaml:"parallel"`

	// BasePrefix is prepended to every object key.
	BasePrefix string `mapstructure:"base_prefix" yaml:"base_prefix"`

	// DisableSSL switches scheme-less endpoints to http.
	DisableSSL bool `mapstructure:"disable_ssl" yaml:"disable_ssl"`
}

// minPartSize is the S3 lower bound for non-final multipart parts.
const minPartSize = 5 << 20

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Region:         "us-east-1",
		RequestTimeout: 30 * time.Second,
		MaxRetries:     3,
		BackoffInitial: 200 * time.Millisecond,
		BackoffMax:     5 * time.Second,
		PartSize:       8 << 20,
		Parallel:       4,
	}
}

// Sanitize trims whitespace and normalizes the prefix.
func (c *Config) Sanitize() *Config {
	c.Bucket = strings.TrimSpace(c.Bucket)
	c.Region = strings.TrimSpace(c.Region)
	c.Endpoint = strings.TrimSpace(c.Endpoint)
	c.BasePrefix = strings.Trim(strings.TrimSpace(c.BasePrefix), "/")
	return c
}

// Validate checks the configuration for obvious mistakes.
func (c *Config) Validate() error {
	if c.Bucket == "" {
		return fmt.Errorf("%w: bucket is required", ErrInvalidConfig)
	}
	if (c.AccessKey == "") != (c.SecretKey == "") {
		return fmt.Errorf("%w: access_key and secret_key must be set together", ErrInvalidConfig)
	}
	if !c.UseSDKDefaults && c.AccessKey == "" && c.Profile == "" {
		return fmt.Errorf("%w: no credentials (set access_key/secret_key, profile or use_sdk_defaults)", ErrInvalidConfig)
	}
	if c.PartSize != 0 && c.PartSize < minPartSize {
		return fmt.Errorf("%w: part_size must be at least 5MB", ErrInvalidConfig)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("%w: max_retries must be positive", ErrInvalidConfig)
	}
	return nil
}

// EndpointURL returns the endpoint with an explicit scheme, or "" when
// no custom endpoint is configured.
func (c *Config) EndpointURL() string {
	if c.Endpoint == "" {
		return ""
	}
	if strings.HasPrefix(c.Endpoint, "http://") || strings.HasPrefix(c.Endpoint, "https://") {
		return c.Endpoint
	}
	scheme := "https"
	if c.DisableSSL {
		scheme = "http"
	}
	return fmt.Sprintf("%s://%s", scheme, c.Endpoint)
}

// MultipartConfig derives the default multipart settings.
func (c *Config) MultipartConfig() *MultipartConfig {
	return &MultipartConfig{PartSize: c.PartSize, Concurrency: c.Parallel}
}

// String returns a safe representation (secrets redacted).
func (c *Config) String() string {
	return fmt.Sprintf("Config{Bucket:%s, Region:%s, Endpoint:%s, UsePathStyle:%v}",
		c.Bucket, c.Region, c.Endpoint, c.UsePathStyle)
}

// NewConfig builds a Config from the "s3" section of the given viper
// instance, on top of the defaults.
func NewConfig(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()
	if v != nil {
		if sub := v.Sub("s3"); sub != nil {
			if err := sub.Unmarshal(cfg); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
			}
		}
	}
	cfg.Sanitize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
