// Package retry decorates an upload function with exponential backoff and a
// per-attempt timeout.
//
// Retries happen inside a single upload call, so the worker pool still sees
// exactly one outcome per task.
package retry

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/input-output-hk/catalyst-forge-libs/release/errors"
	"github.com/input-output-hk/catalyst-forge-libs/release/releasetypes"
)

// Default backoff bounds.
const (
	DefaultInitialInterval = 500 * time.Millisecond
	DefaultMaxInterval     = 10 * time.Second
)

// Config controls the retry decorator.
type Config struct {
	// MaxRetries is the number of retries after the first attempt; 0 disables retrying
	MaxRetries int

	InitialInterval time.Duration
	MaxInterval     time.Duration

	Logger *slog.Logger
}

// Wrap returns an upload function that retries upload on transient errors.
// Permanent errors (see errors.IsPermanent) and context cancellation end
// the retry loop immediately.
func Wrap(upload releasetypes.UploadFunc, cfg Config) releasetypes.UploadFunc {
	if cfg.MaxRetries <= 0 {
		return upload
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = DefaultInitialInterval
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = DefaultMaxInterval
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return func(ctx context.Context, bucket, key, sourcePath string) error {
		policy := backoff.NewExponentialBackOff()
		policy.InitialInterval = cfg.InitialInterval
		policy.MaxInterval = cfg.MaxInterval
		policy.MaxElapsedTime = 0

		b := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(cfg.MaxRetries)), ctx)

		attempt := 0
		operation := func() error {
			attempt++
			err := upload(ctx, bucket, key, sourcePath)
			if err != nil && errors.IsPermanent(err) {
				return backoff.Permanent(err)
			}
			return err
		}

		notify := func(err error, wait time.Duration) {
			logger.Warn("upload attempt failed, retrying",
				"bucket", bucket,
				"key", key,
				"attempt", attempt,
				"wait", wait,
				"error", err)
		}

		return backoff.RetryNotify(operation, b, notify)
	}
}

// WithTimeout bounds every call of upload by timeout. A zero timeout
// returns upload unchanged.
func WithTimeout(upload releasetypes.UploadFunc, timeout time.Duration) releasetypes.UploadFunc {
	if timeout <= 0 {
		return upload
	}
	return func(ctx context.Context, bucket, key, sourcePath string) error {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return upload(ctx, bucket, key, sourcePath)
	}
}
