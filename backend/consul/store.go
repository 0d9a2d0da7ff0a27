package consul

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/consul/api"
	"github.com/mwantia/contentfs/backend"
	"github.com/mwantia/contentfs/backend/objectfs"
	"github.com/mwantia/contentfs/data"
)

func translate(err error) error {
	if err == nil {
		return nil
	}

	var statusErr api.StatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.Code == http.StatusNotFound:
			return data.Wrap(data.ErrNotFound, err)
		case statusErr.Code == http.StatusForbidden, statusErr.Code == http.StatusUnauthorized:
			return data.Wrap(data.ErrPermissionDenied, err)
		case statusErr.Code == http.StatusRequestEntityTooLarge:
			return data.Wrap(backend.ErrTooLarge, err)
		case statusErr.Code >= 500:
			return data.Wrap(data.ErrBackendUnavailable, err)
		}
	}

	return backend.Translate(err)
}

func (cb *ConsulBackend) toObject(pair *api.KVPair) *objectfs.Object {
	return &objectfs.Object{
		Key:        cb.relativeKey(pair.Key),
		Size:       int64(len(pair.Value)),
		ModifyTime: time.Unix(int64(pair.Flags), 0),
		ETag:       fmt.Sprintf("%d", pair.ModifyIndex),
	}
}

func (cb *ConsulBackend) get(ctx context.Context, key string) (*api.KVPair, error) {
	cb.mu.RLock()
	defer cb.mu.RUnlock()

	pair, _, err := cb.kv.Get(cb.buildKey(key), (&api.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return nil, translate(err)
	}
	if pair == nil {
		return nil, fmt.Errorf("%w: key '%s'", data.ErrNotFound, key)
	}
	return pair, nil
}

func (cb *ConsulBackend) Get(ctx context.Context, key string) (io.ReadCloser, *objectfs.Object, error) {
	pair, err := cb.get(ctx, key)
	if err != nil {
		return nil, nil, err
	}
	return io.NopCloser(bytes.NewReader(pair.Value)), cb.toObject(pair), nil
}

func (cb *ConsulBackend) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	value, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if int64(len(value)) != size {
		return fmt.Errorf("%w: expected %d bytes for '%s', got %d", data.ErrInvalidContent, size, key, len(value))
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()

	_, err = cb.kv.Put(&api.KVPair{
		Key:   cb.buildKey(key),
		Value: value,
		Flags: uint64(time.Now().Unix()),
	}, (&api.WriteOptions{}).WithContext(ctx))
	return translate(err)
}

func (cb *ConsulBackend) Head(ctx context.Context, key string) (*objectfs.Object, error) {
	pair, err := cb.get(ctx, key)
	if err != nil {
		return nil, err
	}
	return cb.toObject(pair), nil
}

func (cb *ConsulBackend) Delete(ctx context.Context, key string) error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	_, err := cb.kv.Delete(cb.buildKey(key), (&api.WriteOptions{}).WithContext(ctx))
	return translate(err)
}

func (cb *ConsulBackend) Copy(ctx context.Context, src, dst string) error {
	pair, err := cb.get(ctx, src)
	if err != nil {
		return err
	}
	return cb.Put(ctx, dst, bytes.NewReader(pair.Value), int64(len(pair.Value)), "")
}

func (cb *ConsulBackend) Scan(ctx context.Context, prefix string, recursive bool) ([]*objectfs.Object, error) {
	cb.mu.RLock()
	defer cb.mu.RUnlock()

	pairs, _, err := cb.kv.List(cb.buildKey(prefix), (&api.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return nil, translate(err)
	}

	result := make([]*objectfs.Object, 0, len(pairs))
	for _, pair := range pairs {
		result = append(result, cb.toObject(pair))
	}

	if recursive {
		return result, nil
	}
	return objectfs.Collapse(prefix, result), nil
}
