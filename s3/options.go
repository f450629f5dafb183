package s3

import (
	"time"

	"github.com/Tracktor/tracktolib/logs"
)

// Options holds the optional collaborators of a Client.
type Options struct {
	logger     logs.Logger
	keyBuilder KeyBuilder
	clock      func() time.Time
}

// Option customizes a Client.
type Option func(*Options)

// WithLogger sets the logger.
func WithLogger(logger logs.Logger) Option {
	return func(o *Options) { o.logger = logger }
}

// WithKeyBuilder sets the key building strategy.
func WithKeyBuilder(kb KeyBuilder) Option {
	return func(o *Options) { o.keyBuilder = kb }
}

// WithClock sets the time source, useful in tests.
func WithClock(clock func() time.Time) Option {
	return func(o *Options) { o.clock = clock }
}

func buildOptions(cfg *Config, options ...Option) *Options {
	opts := &Options{}
	for _, opt := range options {
		opt(opts)
	}
	if opts.logger == nil {
		opts.logger = logs.NewNopLogger()
	}
	if opts.keyBuilder == nil {
		if cfg != nil && cfg.BasePrefix != "" {
			opts.keyBuilder = NewPrefixKeyBuilder(cfg.BasePrefix)
		} else {
			opts.keyBuilder = NopKeyBuilder{}
		}
	}
	if opts.clock == nil {
		opts.clock = time.Now
	}
	return opts
}
