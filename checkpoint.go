package contentfs

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/mwantia/contentfs/backend"
	"github.com/mwantia/contentfs/data"
)

// Checkpoints of a document live beside it in the same resource:
// <dir>/.ipynb_checkpoints/<name>/<checkpoint-id>
const checkpointDirName = ".ipynb_checkpoints"

func checkpointDir(native string) string {
	return data.JoinPath(data.ParentPath(native), checkpointDirName, data.BaseName(native))
}

func checkpointPath(native, id string) string {
	return data.JoinPath(checkpointDir(native), id)
}

func isCheckpointPath(p string) bool {
	return slices.Contains(strings.Split(p, "/"), checkpointDirName)
}

// createCheckpoint snapshots the live bytes of rt.
func (m *Manager) createCheckpoint(ctx context.Context, rt *route) (*data.Checkpoint, error) {
	storage := rt.mount.Storage

	stat, err := storage.Stat(ctx, rt.native)
	if err != nil {
		return nil, err
	}
	if stat.IsDir() {
		return nil, fmt.Errorf("%w: cannot checkpoint directory '%s'", data.ErrInvalidContent, rt.path)
	}

	id := data.NewCheckpointID()
	target := checkpointPath(rt.native, id)
	if err := ensureParents(ctx, storage, target); err != nil {
		return nil, err
	}
	if _, err := copyFile(ctx, storage, rt.native, storage, target); err != nil {
		return nil, err
	}

	checkpoint := &data.Checkpoint{
		ID:   id,
		Path: rt.path,
	}
	if cpStat, err := storage.Stat(ctx, target); err == nil {
		checkpoint.LastModified = cpStat.ModifyTime
	}

	if max := m.options.MaxCheckpoints; max > 0 {
		if err := m.pruneCheckpoints(ctx, rt, max); err != nil {
			m.log.Warn("Unable to prune checkpoints of '%s': %v", rt.path, err)
		}
	}

	return checkpoint, nil
}

// listCheckpoints returns the checkpoints of rt, most recent first.
func (m *Manager) listCheckpoints(ctx context.Context, rt *route) ([]*data.Checkpoint, error) {
	stats, err := rt.mount.Storage.List(ctx, checkpointDir(rt.native))
	if err != nil {
		if isNotFound(err) {
			return []*data.Checkpoint{}, nil
		}
		return nil, err
	}

	checkpoints := make([]*data.Checkpoint, 0, len(stats))
	for _, stat := range stats {
		if stat.IsDir() || !data.IsCheckpointID(stat.Name()) {
			continue
		}
		checkpoints = append(checkpoints, &data.Checkpoint{
			ID:           stat.Name(),
			Path:         rt.path,
			LastModified: stat.ModifyTime,
		})
	}

	// Version 7 ids sort by creation time
	slices.SortFunc(checkpoints, func(a, b *data.Checkpoint) int {
		if c := strings.Compare(b.ID, a.ID); c != 0 {
			return c
		}
		return b.LastModified.Compare(a.LastModified)
	})
	return checkpoints, nil
}

// restoreCheckpoint copies the checkpoint bytes onto the live document.
func (m *Manager) restoreCheckpoint(ctx context.Context, rt *route, id string) error {
	source, err := m.checkpointSource(ctx, rt, id)
	if err != nil {
		return err
	}

	_, err = copyFile(ctx, rt.mount.Storage, source, rt.mount.Storage, rt.native)
	return err
}

func (m *Manager) deleteCheckpoint(ctx context.Context, rt *route, id string) error {
	source, err := m.checkpointSource(ctx, rt, id)
	if err != nil {
		return err
	}
	if err := rt.mount.Storage.Remove(ctx, source); err != nil {
		return err
	}

	m.cleanupCheckpointDirs(ctx, rt.mount.Storage, rt.native)
	return nil
}

func (m *Manager) checkpointSource(ctx context.Context, rt *route, id string) (string, error) {
	if !data.IsCheckpointID(id) {
		return "", fmt.Errorf("%w: checkpoint '%s' of '%s'", data.ErrNotFound, id, rt.path)
	}

	source := checkpointPath(rt.native, id)
	stat, err := rt.mount.Storage.Stat(ctx, source)
	if err != nil {
		if isNotFound(err) {
			return "", fmt.Errorf("%w: checkpoint '%s' of '%s'", data.ErrNotFound, id, rt.path)
		}
		return "", err
	}
	if stat.IsDir() {
		return "", fmt.Errorf("%w: checkpoint '%s' of '%s'", data.ErrNotFound, id, rt.path)
	}
	return source, nil
}

func (m *Manager) pruneCheckpoints(ctx context.Context, rt *route, keep int) error {
	checkpoints, err := m.listCheckpoints(ctx, rt)
	if err != nil {
		return err
	}

	for _, checkpoint := range checkpoints[min(keep, len(checkpoints)):] {
		if err := rt.mount.Storage.Remove(ctx, checkpointPath(rt.native, checkpoint.ID)); err != nil && !isNotFound(err) {
			return err
		}
	}
	return nil
}

// purgeCheckpoints removes every checkpoint of the document at native.
func (m *Manager) purgeCheckpoints(ctx context.Context, storage backend.Storage, native string) error {
	dir := checkpointDir(native)

	stats, err := storage.List(ctx, dir)
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		return err
	}

	for _, stat := range stats {
		if err := storage.Remove(ctx, data.JoinPath(dir, stat.Name())); err != nil && !isNotFound(err) {
			return err
		}
	}

	m.cleanupCheckpointDirs(ctx, storage, native)
	return nil
}

// cleanupCheckpointDirs removes the checkpoint directories of native once they are empty.
func (m *Manager) cleanupCheckpointDirs(ctx context.Context, storage backend.Storage, native string) {
	dir := checkpointDir(native)
	for _, p := range []string{dir, data.ParentPath(dir)} {
		stats, err := storage.List(ctx, p)
		if isNotFound(err) {
			continue
		}
		if err != nil || len(stats) > 0 {
			return
		}
		if err := storage.Remove(ctx, p); err != nil && !isNotFound(err) {
			m.log.Debug("Unable to remove empty checkpoint directory '%s': %v", p, err)
			return
		}
	}
}

// moveCheckpoints relocates the checkpoints of a renamed document, across
// resources when needed. Ids are preserved.
func (m *Manager) moveCheckpoints(ctx context.Context, src, dst *route) error {
	checkpoints, err := m.listCheckpoints(ctx, src)
	if err != nil || len(checkpoints) == 0 {
		return err
	}

	srcStorage := src.mount.Storage
	srcDir, dstDir := checkpointDir(src.native), checkpointDir(dst.native)

	if src.mount == dst.mount && srcStorage.GetCapabilities().Contains(backend.CapabilityRename) {
		if err := ensureParents(ctx, srcStorage, dstDir); err != nil {
			return err
		}
		err := srcStorage.Rename(ctx, srcDir, dstDir)
		if err == nil {
			m.cleanupCheckpointDirs(ctx, srcStorage, src.native)
			return nil
		}
		// Fall back to copying, e.g. when stale checkpoints exist at the destination
		if kind := data.KindOf(err); kind != data.KindUnsupported && kind != data.KindAlreadyExists {
			return err
		}
	}

	if err := m.copyCheckpoints(ctx, src, dst); err != nil {
		return err
	}
	return m.purgeCheckpoints(ctx, srcStorage, src.native)
}
