package s3

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/minio/minio-go/v7"
	"github.com/mwantia/contentfs/backend"
	"github.com/mwantia/contentfs/backend/objectfs"
	"github.com/mwantia/contentfs/data"
)

// translate converts minio error responses into the error taxonomy.
func translate(err error) error {
	if err == nil {
		return nil
	}

	errResp := minio.ToErrorResponse(err)
	switch errResp.Code {
	case "NoSuchKey", "NoSuchBucket", "NotFound":
		return data.Wrap(data.ErrNotFound, err)
	case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch":
		return data.Wrap(data.ErrPermissionDenied, err)
	case "SlowDown", "ServiceUnavailable", "InternalError", "XMinioServerNotInitialized":
		return data.Wrap(data.ErrBackendUnavailable, err)
	case "RequestTimeout":
		return data.Wrap(data.ErrTimeout, err)
	case "EntityTooLarge":
		return data.Wrap(backend.ErrTooLarge, err)
	}

	switch errResp.StatusCode {
	case http.StatusNotFound:
		return data.Wrap(data.ErrNotFound, err)
	case http.StatusForbidden:
		return data.Wrap(data.ErrPermissionDenied, err)
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return data.Wrap(data.ErrBackendUnavailable, err)
	}

	return backend.Translate(err)
}

func (sb *S3Backend) toObject(info minio.ObjectInfo) *objectfs.Object {
	return &objectfs.Object{
		Key:         sb.relativeKey(info.Key),
		Size:        info.Size,
		ModifyTime:  info.LastModified,
		ContentType: info.ContentType,
		ETag:        info.ETag,
	}
}

func (sb *S3Backend) Get(ctx context.Context, key string) (io.ReadCloser, *objectfs.Object, error) {
	obj, err := sb.client.GetObject(ctx, sb.config.Bucket, sb.objectKey(key), minio.GetObjectOptions{})
	if err != nil {
		return nil, nil, translate(err)
	}

	// GetObject is lazy; Stat issues the request and surfaces missing keys.
	info, err := obj.Stat()
	if err != nil {
		obj.Close()
		return nil, nil, translate(err)
	}

	return obj, sb.toObject(info), nil
}

func (sb *S3Backend) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	_, err := sb.client.PutObject(ctx, sb.config.Bucket, sb.objectKey(key), r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	return translate(err)
}

func (sb *S3Backend) Head(ctx context.Context, key string) (*objectfs.Object, error) {
	info, err := sb.client.StatObject(ctx, sb.config.Bucket, sb.objectKey(key), minio.StatObjectOptions{})
	if err != nil {
		return nil, translate(err)
	}
	return sb.toObject(info), nil
}

func (sb *S3Backend) Delete(ctx context.Context, key string) error {
	err := sb.client.RemoveObject(ctx, sb.config.Bucket, sb.objectKey(key), minio.RemoveObjectOptions{})
	return translate(err)
}

func (sb *S3Backend) Copy(ctx context.Context, src, dst string) error {
	_, err := sb.client.CopyObject(ctx,
		minio.CopyDestOptions{Bucket: sb.config.Bucket, Object: sb.objectKey(dst)},
		minio.CopySrcOptions{Bucket: sb.config.Bucket, Object: sb.objectKey(src)},
	)
	return translate(err)
}

func (sb *S3Backend) Scan(ctx context.Context, prefix string, recursive bool) ([]*objectfs.Object, error) {
	var result []*objectfs.Object
	for info := range sb.client.ListObjects(ctx, sb.config.Bucket, minio.ListObjectsOptions{
		Prefix:    sb.objectKey(prefix),
		Recursive: recursive,
	}) {
		if info.Err != nil {
			return nil, fmt.Errorf("list '%s': %w", prefix, translate(info.Err))
		}
		result = append(result, sb.toObject(info))
	}

	return result, nil
}
