package s3

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/cenkalti/backoff/v4"

	"github.com/Tracktor/tracktolib/logs"
)

// Client wraps the AWS S3 client and its presign client for a single
// bucket.
type Client struct {
	api     *awss3.Client
	presign *awss3.PresignClient
	cfg     *Config
	keys    KeyBuilder
	logger  logs.Logger
	clock   func() time.Time
}

// New creates a Client from the configuration, resolves credentials
// and verifies bucket access.
func New(ctx context.Context, cfg *Config, options ...Option) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil config", ErrInvalidConfig)
	}
	cfg.Sanitize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts := buildOptions(cfg, options...)

	awsCfg, credSource, err := loadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	opts.logger.Debug("s3 credentials resolved", "source", credSource, "bucket", cfg.Bucket)

	api := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		if cfg.UsePathStyle {
			o.UsePathStyle = true
		}
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL())
		}
		o.RetryMaxAttempts = cfg.MaxRetries
		o.RetryMode = aws.RetryModeAdaptive
		o.HTTPClient = &http.Client{Timeout: cfg.RequestTimeout}
	})

	c := &Client{
		api:     api,
		presign: awss3.NewPresignClient(api),
		cfg:     cfg,
		keys:    opts.keyBuilder,
		logger:  opts.logger,
		clock:   opts.clock,
	}

	if err := c.Ping(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// loadAWSConfig resolves the credential chain: static keys, then a
// shared profile, then the SDK default chain when allowed, optionally
// topped by an STS assume-role.
func loadAWSConfig(ctx context.Context, cfg *Config) (aws.Config, string, error) {
	var options []func(*awsconfig.LoadOptions) error
	credSource := "sdk-default"

	if cfg.Region != "" {
		options = append(options, awsconfig.WithRegion(cfg.Region))
	}

	switch {
	case cfg.AccessKey != "" && cfg.SecretKey != "":
		options = append(options, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, cfg.SessionToken)))
		credSource = "static"
	case cfg.Profile != "":
		options = append(options, awsconfig.WithSharedConfigProfile(cfg.Profile))
		credSource = "profile"
	case !cfg.UseSDKDefaults:
		return aws.Config{}, credSource, fmt.Errorf(
			"%w: no explicit credentials and use_sdk_defaults is off", ErrInvalidConfig)
	}

	options = append(options, awsconfig.WithRetryer(func() aws.Retryer {
		return retry.NewStandard(func(o *retry.StandardOptions) {
			o.MaxAttempts = cfg.MaxRetries
			o.MaxBackoff = cfg.BackoffMax
			o.Backoff = backoffDelayer(cfg)
		})
	}))

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, options...)
	if err != nil {
		return aws.Config{}, credSource, fmt.Errorf("s3: load aws config: %w", err)
	}

	if cfg.RoleARN != "" {
		provider := stscreds.NewAssumeRoleProvider(sts.NewFromConfig(awsCfg), cfg.RoleARN,
			func(o *stscreds.AssumeRoleOptions) {
				if cfg.ExternalID != "" {
					o.ExternalID = aws.String(cfg.ExternalID)
				}
				o.RoleSessionName = "tracktolib-s3"
			})
		awsCfg.Credentials = aws.NewCredentialsCache(provider)
		credSource = "assumed-role"
	}

	return awsCfg, credSource, nil
}

// backoffDelayer drives SDK retry delays with an exponential backoff.
func backoffDelayer(cfg *Config) retry.BackoffDelayerFunc {
	return func(attempt int, err error) (time.Duration, error) {
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = cfg.BackoffInitial
		b.MaxInterval = cfg.BackoffMax
		b.MaxElapsedTime = 0
		b.Reset()

		var delay time.Duration
		for i := 0; i < attempt; i++ {
			delay = b.NextBackOff()
			if delay == backoff.Stop {
				break
			}
		}
		return delay, nil
	}
}

// Ping verifies the bucket is reachable with the resolved credentials.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.api.HeadBucket(ctx, &awss3.HeadBucketInput{Bucket: aws.String(c.cfg.Bucket)})
	if err != nil {
		return mapError(err, "ping", "")
	}
	return nil
}

// Bucket returns the configured bucket name.
func (c *Client) Bucket() string { return c.cfg.Bucket }

// Config returns the client configuration.
func (c *Client) Config() *Config { return c.cfg }

// API exposes the underlying SDK client.
func (c *Client) API() *awss3.Client { return c.api }

// Presign exposes the underlying presign client.
func (c *Client) Presign() *awss3.PresignClient { return c.presign }

// BucketExists reports whether the configured bucket exists.
func (c *Client) BucketExists(ctx context.Context) (bool, error) {
	_, err := c.api.HeadBucket(ctx, &awss3.HeadBucketInput{Bucket: aws.String(c.cfg.Bucket)})
	if err != nil {
		mapped := mapError(err, "head_bucket", "")
		if errors.Is(mapped, ErrNotFound) {
			return false, nil
		}
		return false, mapped
	}
	return true, nil
}

// EnsureBucket creates the configured bucket when it does not exist.
func (c *Client) EnsureBucket(ctx context.Context) error {
	exists, err := c.BucketExists(ctx)
	if err != nil || exists {
		return err
	}

	input := &awss3.CreateBucketInput{Bucket: aws.String(c.cfg.Bucket)}
	if c.cfg.Region != "" && c.cfg.Region != "us-east-1" {
		input.CreateBucketConfiguration = &s3types.CreateBucketConfiguration{
			LocationConstraint: s3types.BucketLocationConstraint(c.cfg.Region),
		}
	}
	if _, err := c.api.CreateBucket(ctx, input); err != nil {
		mapped := mapError(err, "create_bucket", "")
		if errors.Is(mapped, ErrConflict) {
			return nil
		}
		return mapped
	}
	c.logger.Info("s3 bucket created", "bucket", c.cfg.Bucket)
	return nil
}
