package backend

import (
	"context"
	"io"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/mwantia/contentfs/data"
)

// RetryPolicy bounds the retries applied to idempotent reads.
type RetryPolicy struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration

	// Notify is called before every retry, e.g. to log the failure.
	Notify func(err error, next time.Duration)
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:      3,
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     2 * time.Second,
	}
}

// RetryingStorage retries OpenRead, List, Stat and Exists when they fail
// with a transient error. Mutating calls are passed through exactly once.
type RetryingStorage struct {
	Storage
	policy RetryPolicy
}

// NewRetrying wraps storage with bounded exponential retries for reads.
func NewRetrying(storage Storage, policy RetryPolicy) *RetryingStorage {
	if policy.InitialInterval <= 0 {
		policy.InitialInterval = DefaultRetryPolicy().InitialInterval
	}
	if policy.MaxInterval <= 0 {
		policy.MaxInterval = DefaultRetryPolicy().MaxInterval
	}

	return &RetryingStorage{
		Storage: storage,
		policy:  policy,
	}
}

func (rs *RetryingStorage) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = rs.policy.InitialInterval
	b.MaxInterval = rs.policy.MaxInterval
	b.MaxElapsedTime = 0

	return backoff.WithContext(backoff.WithMaxRetries(b, rs.policy.MaxRetries), ctx)
}

func retry[T any](ctx context.Context, rs *RetryingStorage, op func() (T, error)) (T, error) {
	return backoff.RetryNotifyWithData(func() (T, error) {
		result, err := op()
		if err != nil && !data.IsTransient(err) {
			return result, backoff.Permanent(err)
		}
		return result, err
	}, rs.backOff(ctx), rs.policy.Notify)
}

func (rs *RetryingStorage) OpenRead(ctx context.Context, path string) (io.ReadCloser, error) {
	return retry(ctx, rs, func() (io.ReadCloser, error) {
		return rs.Storage.OpenRead(ctx, path)
	})
}

func (rs *RetryingStorage) List(ctx context.Context, path string) ([]*data.FileStat, error) {
	return retry(ctx, rs, func() ([]*data.FileStat, error) {
		return rs.Storage.List(ctx, path)
	})
}

func (rs *RetryingStorage) Stat(ctx context.Context, path string) (*data.FileStat, error) {
	return retry(ctx, rs, func() (*data.FileStat, error) {
		return rs.Storage.Stat(ctx, path)
	})
}

func (rs *RetryingStorage) Exists(ctx context.Context, path string) (bool, error) {
	return retry(ctx, rs, func() (bool, error) {
		return rs.Storage.Exists(ctx, path)
	})
}

// Unwrap returns the wrapped storage.
func (rs *RetryingStorage) Unwrap() Storage {
	return rs.Storage
}
