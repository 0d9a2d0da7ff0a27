package awss3

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/mwantia/contentfs/backend"
	"github.com/mwantia/contentfs/backend/objectfs"
	"github.com/mwantia/contentfs/data"
)

// translate converts AWS API errors into the error taxonomy.
func translate(err error) error {
	if err == nil {
		return nil
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NoSuchBucket", "NotFound":
			return data.Wrap(data.ErrNotFound, err)
		case "AccessDenied", "Forbidden", "InvalidAccessKeyId", "SignatureDoesNotMatch":
			return data.Wrap(data.ErrPermissionDenied, err)
		case "SlowDown", "ServiceUnavailable", "InternalError":
			return data.Wrap(data.ErrBackendUnavailable, err)
		case "RequestTimeout":
			return data.Wrap(data.ErrTimeout, err)
		case "EntityTooLarge":
			return data.Wrap(backend.ErrTooLarge, err)
		}
	}

	var statusErr interface{ HTTPStatusCode() int }
	if errors.As(err, &statusErr) {
		switch statusErr.HTTPStatusCode() {
		case http.StatusNotFound:
			return data.Wrap(data.ErrNotFound, err)
		case http.StatusForbidden:
			return data.Wrap(data.ErrPermissionDenied, err)
		case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
			return data.Wrap(data.ErrBackendUnavailable, err)
		}
	}

	return backend.Translate(err)
}

func copySource(bucket, key string) string {
	segments := strings.Split(key, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return bucket + "/" + strings.Join(segments, "/")
}

func (ab *AWSBackend) Get(ctx context.Context, key string) (io.ReadCloser, *objectfs.Object, error) {
	out, err := ab.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(ab.config.Bucket),
		Key:    aws.String(ab.objectKey(key)),
	})
	if err != nil {
		return nil, nil, translate(err)
	}

	return out.Body, &objectfs.Object{
		Key:         key,
		Size:        aws.ToInt64(out.ContentLength),
		ModifyTime:  aws.ToTime(out.LastModified),
		ContentType: aws.ToString(out.ContentType),
		ETag:        strings.Trim(aws.ToString(out.ETag), `"`),
	}, nil
}

func (ab *AWSBackend) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket:        aws.String(ab.config.Bucket),
		Key:           aws.String(ab.objectKey(key)),
		Body:          r,
		ContentLength: aws.Int64(size),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	_, err := ab.client.PutObject(ctx, input)
	return translate(err)
}

func (ab *AWSBackend) Head(ctx context.Context, key string) (*objectfs.Object, error) {
	out, err := ab.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(ab.config.Bucket),
		Key:    aws.String(ab.objectKey(key)),
	})
	if err != nil {
		return nil, translate(err)
	}

	return &objectfs.Object{
		Key:         key,
		Size:        aws.ToInt64(out.ContentLength),
		ModifyTime:  aws.ToTime(out.LastModified),
		ContentType: aws.ToString(out.ContentType),
		ETag:        strings.Trim(aws.ToString(out.ETag), `"`),
	}, nil
}

func (ab *AWSBackend) Delete(ctx context.Context, key string) error {
	_, err := ab.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(ab.config.Bucket),
		Key:    aws.String(ab.objectKey(key)),
	})
	return translate(err)
}

func (ab *AWSBackend) Copy(ctx context.Context, src, dst string) error {
	_, err := ab.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(ab.config.Bucket),
		Key:        aws.String(ab.objectKey(dst)),
		CopySource: aws.String(copySource(ab.config.Bucket, ab.objectKey(src))),
	})
	return translate(err)
}

func (ab *AWSBackend) Scan(ctx context.Context, prefix string, recursive bool) ([]*objectfs.Object, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(ab.config.Bucket),
		Prefix: aws.String(ab.objectKey(prefix)),
	}
	if !recursive {
		input.Delimiter = aws.String("/")
	}

	var result []*objectfs.Object
	paginator := s3.NewListObjectsV2Paginator(ab.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, translate(err)
		}

		for _, obj := range page.Contents {
			result = append(result, &objectfs.Object{
				Key:        ab.relativeKey(aws.ToString(obj.Key)),
				Size:       aws.ToInt64(obj.Size),
				ModifyTime: aws.ToTime(obj.LastModified),
				ETag:       strings.Trim(aws.ToString(obj.ETag), `"`),
			})
		}
		for _, common := range page.CommonPrefixes {
			result = append(result, &objectfs.Object{
				Key:         ab.relativeKey(aws.ToString(common.Prefix)),
				ContentType: objectfs.DirectoryContentType,
			})
		}
	}

	if recursive {
		return result, nil
	}
	return objectfs.Collapse(prefix, result), nil
}
