package contentfs

import (
	"context"

	"github.com/mwantia/contentfs/config"
	"github.com/mwantia/contentfs/log"
	"github.com/mwantia/contentfs/mount"
)

// NewFromConfig builds a manager and mounts every configured resource.
// Already mounted resources are released when a later mount fails.
func NewFromConfig(ctx context.Context, cfg *config.Config, opts ...ManagerOption) (*Manager, error) {
	logger, err := log.NewLoggerFromConfig("contentfs", cfg.Logging)
	if err != nil {
		return nil, err
	}

	options := append([]ManagerOption{
		WithLogger(logger),
		WithOperationTimeout(cfg.Manager.OperationTimeout),
		WithCopyConcurrency(cfg.Manager.CopyConcurrency),
		WithMaxCheckpoints(cfg.Manager.MaxCheckpoints),
	}, opts...)

	m, err := New(options...)
	if err != nil {
		return nil, err
	}

	for _, mc := range cfg.Mounts {
		var mountOpts []mount.MountOption
		if mc.ReadOnly {
			mountOpts = append(mountOpts, mount.AsReadOnly())
		}
		if mc.Retries > 0 {
			mountOpts = append(mountOpts, mount.WithRetries(mc.Retries))
		}
		if mc.ShowCheckpoints {
			mountOpts = append(mountOpts, mount.ShowCheckpoints())
		}

		if _, err := m.Mount(ctx, mc.Prefix, mc.Address, mountOpts...); err != nil {
			m.Shutdown(ctx)
			return nil, err
		}
	}

	return m, nil
}
