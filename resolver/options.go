package resolver

import (
	"time"

	"github.com/mwantia/contentfs/backend"
)

type ResolveOption func(*ResolveOptions) error

type ResolveOptions struct {
	// SkipOpen leaves the connectivity test to the caller
	SkipOpen bool
	// RetryPolicy is the base policy for the retries= option
	RetryPolicy backend.RetryPolicy
}

func newDefaultResolveOptions() *ResolveOptions {
	return &ResolveOptions{
		RetryPolicy: backend.DefaultRetryPolicy(),
	}
}

// WithSkipOpen returns the adapter without opening it.
func WithSkipOpen() ResolveOption {
	return func(ro *ResolveOptions) error {
		ro.SkipOpen = true
		return nil
	}
}

// WithRetryNotify is called before every retry of a wrapped adapter.
func WithRetryNotify(notify func(err error, next time.Duration)) ResolveOption {
	return func(ro *ResolveOptions) error {
		ro.RetryPolicy.Notify = notify
		return nil
	}
}

// WithRetryInterval changes the backoff intervals used by the retries= option.
func WithRetryInterval(initial, max time.Duration) ResolveOption {
	return func(ro *ResolveOptions) error {
		ro.RetryPolicy.InitialInterval = initial
		ro.RetryPolicy.MaxInterval = max
		return nil
	}
}
