package minio

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"resumegen/internal/shared/storage/object"
)

// Options configures a MinIO-backed store.
type Options struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Region          string
	UseSSL          bool
	// AutoCreateBucket creates the bucket on startup when it is missing.
	// Convenient for development, usually off in production.
	AutoCreateBucket bool
}

// Store implements ObjectStore against a MinIO (or any S3-compatible)
// endpoint.
type Store struct {
	client *minio.Client
	bucket string
}

// New initializes the client and verifies the target bucket exists.
func New(ctx context.Context, opts Options) (*Store, error) {
	if opts.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}
	if opts.Bucket == "" {
		return nil, fmt.Errorf("minio bucket is required")
	}

	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKeyID, opts.SecretAccessKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(checkCtx, opts.Bucket)
	if err != nil {
		return nil, classify("check bucket", err, fmt.Errorf("check bucket %q: %w", opts.Bucket, err))
	}
	if !exists {
		if !opts.AutoCreateBucket {
			return nil, &object.ConfigError{Op: "check bucket", Err: fmt.Errorf("bucket %q does not exist", opts.Bucket)}
		}
		if err := client.MakeBucket(checkCtx, opts.Bucket, minio.MakeBucketOptions{Region: opts.Region}); err != nil {
			return nil, classify("make bucket", err, fmt.Errorf("make bucket %q: %w", opts.Bucket, err))
		}
	}

	return &Store{client: client, bucket: opts.Bucket}, nil
}

// Put uploads the object under key, overwriting any previous version.
func (s *Store) Put(ctx context.Context, key string, in object.PutInput) error {
	opts := minio.PutObjectOptions{
		ContentType:        in.ContentType,
		ContentDisposition: in.ContentDisposition,
		UserMetadata:       in.Metadata,
	}
	if _, err := s.client.PutObject(ctx, s.bucket, key, in.Body, in.Size, opts); err != nil {
		return classify("put", err, fmt.Errorf("put object %q: %w", key, err))
	}
	return nil
}

// Presign returns a time-limited GET URL for the stored object.
func (s *Store) Presign(ctx context.Context, key string, expiry time.Duration) (string, error) {
	presignedURL, err := s.client.PresignedGetObject(ctx, s.bucket, key, expiry, url.Values{})
	if err != nil {
		return "", classify("presign", err, fmt.Errorf("presign object %q: %w", key, err))
	}
	return presignedURL.String(), nil
}

// List returns metadata for every object under prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]object.ObjectMeta, error) {
	objCh := s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})

	var metas []object.ObjectMeta
	for obj := range objCh {
		if obj.Err != nil {
			return nil, classify("list", obj.Err, fmt.Errorf("list objects under %q: %w", prefix, obj.Err))
		}
		metas = append(metas, object.ObjectMeta{
			Key:          obj.Key,
			Size:         obj.Size,
			LastModified: obj.LastModified,
		})
	}
	return metas, nil
}

// Delete removes the object. A missing key counts as success.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		reason := strings.ToLower(err.Error())
		if strings.Contains(reason, "nosuchkey") || strings.Contains(reason, "not found") {
			return nil
		}
		return classify("delete", err, fmt.Errorf("remove object %q: %w", key, err))
	}
	return nil
}

// classify inspects the raw client error, which ToErrorResponse cannot
// unwrap, and returns the wrapped error either as-is or marked as a
// configuration problem.
func classify(op string, raw, wrapped error) error {
	resp := minio.ToErrorResponse(raw)
	switch resp.Code {
	case "AccessDenied", "NoSuchBucket", "InvalidAccessKeyId", "SignatureDoesNotMatch":
		return &object.ConfigError{Op: op, Err: wrapped}
	}
	return wrapped
}

var _ object.ObjectStore = (*Store)(nil)
