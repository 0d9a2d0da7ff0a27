package ephemeral

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mwantia/contentfs/backend/objectfs"
	"github.com/mwantia/contentfs/data"
)

func (eb *EphemeralBackend) Get(ctx context.Context, key string) (io.ReadCloser, *objectfs.Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	eb.mu.RLock()
	defer eb.mu.RUnlock()

	e, exists := eb.objects.Get(key)
	if !exists {
		return nil, nil, fmt.Errorf("%w: key '%s'", data.ErrNotFound, key)
	}

	obj := e.object
	return io.NopCloser(bytes.NewReader(e.content)), &obj, nil
}

func (eb *EphemeralBackend) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	content, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if int64(len(content)) != size {
		return fmt.Errorf("%w: expected %d bytes for '%s', got %d", data.ErrInvalidContent, size, key, len(content))
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	sum := md5.Sum(content)

	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.objects.Set(key, &entry{
		content: content,
		object: objectfs.Object{
			Key:         key,
			Size:        size,
			ModifyTime:  time.Now(),
			ContentType: contentType,
			ETag:        hex.EncodeToString(sum[:]),
		},
	})
	return nil
}

func (eb *EphemeralBackend) Head(ctx context.Context, key string) (*objectfs.Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	eb.mu.RLock()
	defer eb.mu.RUnlock()

	e, exists := eb.objects.Get(key)
	if !exists {
		return nil, fmt.Errorf("%w: key '%s'", data.ErrNotFound, key)
	}

	obj := e.object
	return &obj, nil
}

func (eb *EphemeralBackend) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.objects.Delete(key)
	return nil
}

func (eb *EphemeralBackend) Copy(ctx context.Context, src, dst string) error {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	e, exists := eb.objects.Get(src)
	if !exists {
		return fmt.Errorf("%w: key '%s'", data.ErrNotFound, src)
	}

	clone := &entry{
		content: bytes.Clone(e.content),
		object:  e.object,
	}
	clone.object.Key = dst
	clone.object.ModifyTime = time.Now()

	eb.objects.Set(dst, clone)
	return nil
}

func (eb *EphemeralBackend) Scan(ctx context.Context, prefix string, recursive bool) ([]*objectfs.Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	eb.mu.RLock()
	defer eb.mu.RUnlock()

	var result []*objectfs.Object
	eb.objects.Ascend(prefix, func(key string, e *entry) bool {
		if !strings.HasPrefix(key, prefix) {
			return false
		}
		obj := e.object
		result = append(result, &obj)
		return true
	})

	if recursive {
		return result, nil
	}
	return objectfs.Collapse(prefix, result), nil
}
