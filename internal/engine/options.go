package engine

import (
	"log/slog"
	"time"
)

type options struct {
	name            string
	defaultTTL      time.Duration
	cleanupInterval time.Duration
	now             func() time.Time
	logger          *slog.Logger
}

func defaultOptions() options {
	return options{
		name:   "default",
		now:    time.Now,
		logger: slog.New(slog.DiscardHandler),
	}
}

// Option configures New.
type Option func(*options)

// WithName labels the cache in log output.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithDefaultTTL sets the TTL applied by Put and by PutWithTTL with a zero
// ttl. Zero means entries never expire, except under the TTL policy, which
// falls back to policy.DefaultTTL.
func WithDefaultTTL(d time.Duration) Option {
	return func(o *options) {
		o.defaultTTL = d
	}
}

// WithCleanupInterval starts a background sweep of expired entries every d.
// Zero disables it; lazy expiration on Get and ContainsKey still applies.
func WithCleanupInterval(d time.Duration) Option {
	return func(o *options) {
		o.cleanupInterval = d
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLogger sets the structured logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
