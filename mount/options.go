package mount

import (
	"fmt"

	"github.com/mwantia/contentfs/backend"
)

type MountOptions struct {
	Address string // Connection URI with credentials masked.
	Root    string // Location inside the backend.

	ReadOnly        bool   // Whether the mount is read-only.
	Retries         uint64 // Retries for idempotent reads, 0 disables the decorator.
	RetryPolicy     backend.RetryPolicy
	HideCheckpoints bool // Whether checkpoint directories are hidden from listings.
}

type MountOption func(*MountOptions) error

func newDefaultMountOptions() *MountOptions {
	return &MountOptions{
		RetryPolicy:     backend.DefaultRetryPolicy(),
		HideCheckpoints: true,
	}
}

// WithAddress records the connection URI and root the storage was resolved from.
func WithAddress(address, root string) MountOption {
	return func(mo *MountOptions) error {
		mo.Address = address
		mo.Root = root
		return nil
	}
}

// AsReadOnly specifies, if this mount is in a readonly state.
func AsReadOnly() MountOption {
	return func(mo *MountOptions) error {
		mo.ReadOnly = true
		return nil
	}
}

// WithRetries wraps the storage with the retry decorator.
func WithRetries(retries uint64) MountOption {
	return func(mo *MountOptions) error {
		if retries > 100 {
			return fmt.Errorf("retries must not exceed 100, got %d", retries)
		}
		mo.Retries = retries
		return nil
	}
}

// WithRetryPolicy replaces the base policy used by WithRetries.
func WithRetryPolicy(policy backend.RetryPolicy) MountOption {
	return func(mo *MountOptions) error {
		mo.RetryPolicy = policy
		return nil
	}
}

// ShowCheckpoints makes checkpoint directories visible in listings.
func ShowCheckpoints() MountOption {
	return func(mo *MountOptions) error {
		mo.HideCheckpoints = false
		return nil
	}
}
