package contentfs

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/mwantia/contentfs/backend"
	"github.com/mwantia/contentfs/data"
	"github.com/mwantia/contentfs/log"
	"github.com/mwantia/contentfs/mount"
	"github.com/mwantia/contentfs/resolver"
)

// Manager is the contents manager used by the notebook server. It routes
// every operation to the mounted resource owning the virtual path.
type Manager struct {
	mu      sync.RWMutex
	log     *log.Logger
	options *ManagerOptions

	// mounts is sorted longest prefix first and replaced on every change
	mounts []*mount.Mount
}

func New(opts ...ManagerOption) (*Manager, error) {
	options := newDefaultManagerOptions()
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}

	logger := options.Logger
	if logger == nil {
		logger = log.NewLogger("contentfs", options.LogLevel, options.LogFile, options.NoTerminalLog)
	}

	return &Manager{
		log:     logger,
		options: options,
	}, nil
}

// Mount resolves address and attaches the resulting resource at prefix.
func (m *Manager) Mount(ctx context.Context, prefix, address string, opts ...mount.MountOption) (*mount.Mount, error) {
	ctx, cancel := m.operationContext(ctx)
	defer cancel()

	prefix, err := CleanPath(prefix)
	if err != nil {
		return nil, m.fail("mount", prefix, err)
	}
	if err := m.checkPrefix(prefix); err != nil {
		return nil, m.fail("mount", prefix, err)
	}

	resolved, err := resolver.ParseBackendAddress(ctx, address, resolver.WithRetryNotify(m.retryNotify(prefix)))
	if err != nil {
		return nil, m.fail("mount", prefix, err)
	}

	opts = append([]mount.MountOption{mount.WithAddress(resolved.Address, resolved.Root)}, opts...)
	if resolved.ReadOnly {
		opts = append(opts, mount.AsReadOnly())
	}

	mnt, err := m.attach(ctx, prefix, resolved.Storage, false, opts...)
	if err != nil {
		resolved.Storage.Close(ctx)
		return nil, m.fail("mount", prefix, err)
	}
	return mnt, nil
}

// MountStorage attaches an adapter that was constructed by the caller.
// The adapter is opened before it becomes visible.
func (m *Manager) MountStorage(ctx context.Context, prefix string, storage backend.Storage, opts ...mount.MountOption) (*mount.Mount, error) {
	ctx, cancel := m.operationContext(ctx)
	defer cancel()

	prefix, err := CleanPath(prefix)
	if err != nil {
		return nil, m.fail("mount", prefix, err)
	}

	mnt, err := m.attach(ctx, prefix, storage, true, opts...)
	if err != nil {
		return nil, m.fail("mount", prefix, err)
	}
	return mnt, nil
}

func (m *Manager) attach(ctx context.Context, prefix string, storage backend.Storage, open bool, opts ...mount.MountOption) (*mount.Mount, error) {
	mnt, err := mount.NewMount(prefix, storage, opts...)
	if err != nil {
		return nil, err
	}

	if open {
		if err := mnt.Open(ctx); err != nil {
			mnt.Close(ctx)
			return nil, err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkPrefixLocked(prefix); err != nil {
		return nil, err
	}

	mounts := append(slices.Clone(m.mounts), mnt)
	sortMounts(mounts)
	m.mounts = mounts

	m.log.Info("Mounted '%s' at '/%s'", storage.Name(), prefix)
	return mnt, nil
}

func (m *Manager) checkPrefix(prefix string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.checkPrefixLocked(prefix)
}

// Must be called with lock held.
func (m *Manager) checkPrefixLocked(prefix string) error {
	for _, mnt := range m.mounts {
		if mnt.Path == prefix {
			return fmt.Errorf("%w: '/%s' is already mounted", data.ErrAlreadyExists, prefix)
		}
	}
	return nil
}

// Unmount detaches and closes the resource at prefix. Nested mounts below
// prefix refuse the unmount unless force is set, which detaches them too.
func (m *Manager) Unmount(ctx context.Context, prefix string, force bool) error {
	ctx, cancel := m.operationContext(ctx)
	defer cancel()

	prefix, err := CleanPath(prefix)
	if err != nil {
		return m.fail("unmount", prefix, err)
	}

	m.mu.Lock()

	index := slices.IndexFunc(m.mounts, func(mnt *mount.Mount) bool {
		return mnt.Path == prefix
	})
	if index < 0 {
		m.mu.Unlock()
		return m.fail("unmount", prefix, fmt.Errorf("%w: '/%s' is not mounted", data.ErrNoSuchMount, prefix))
	}

	var detached, kept []*mount.Mount
	for _, mnt := range m.mounts {
		switch {
		case mnt.Path == prefix:
			detached = append(detached, mnt)
		case data.HasPrefix(mnt.Path, prefix):
			if !force {
				m.mu.Unlock()
				return m.fail("unmount", prefix, fmt.Errorf("%w: nested mount '/%s'", data.ErrAlreadyExists, mnt.Path))
			}
			detached = append(detached, mnt)
		default:
			kept = append(kept, mnt)
		}
	}
	m.mounts = kept
	m.mu.Unlock()

	errs := data.Errors{}
	// Sorted deepest first, so nested mounts close before their parents
	sortMounts(detached)
	for _, mnt := range detached {
		if err := mnt.Close(ctx); err != nil {
			errs.Add(fmt.Errorf("close '/%s': %w", mnt.Path, err))
		}
		m.log.Info("Unmounted '%s' from '/%s'", mnt.Storage.Name(), mnt.Path)
	}

	return m.fail("unmount", prefix, errs.Errors())
}

// Mounts returns information about all mounted resources, longest prefix first.
func (m *Manager) Mounts() []mount.Info {
	mounts := m.snapshot()

	infos := make([]mount.Info, 0, len(mounts))
	for _, mnt := range mounts {
		infos = append(infos, mnt.Info())
	}
	return infos
}

// Shutdown unmounts all mounted resources and releases them.
// Mounts are closed deepest first and every close error is reported.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	mounts := m.mounts
	m.mounts = nil
	m.mu.Unlock()

	errs := data.Errors{}
	for _, mnt := range mounts {
		if err := mnt.Close(ctx); err != nil {
			errs.Add(fmt.Errorf("close '/%s': %w", mnt.Path, err))
		}
	}

	if err := errs.Errors(); err != nil {
		m.log.Error("Shutdown finished with errors: %v", err)
		return err
	}

	m.log.Info("Shutdown completed, %d mount(s) closed", len(mounts))
	return nil
}

// operationContext applies the operation timeout when ctx has no deadline.
func (m *Manager) operationContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok || m.options.OperationTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, m.options.OperationTimeout)
}

func (m *Manager) retryNotify(prefix string) func(error, time.Duration) {
	logger := m.log.Named("retry")
	return func(err error, next time.Duration) {
		logger.Debug("Retrying read on '/%s' in %s after: %v", prefix, next, err)
	}
}
