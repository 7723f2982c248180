package minio

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"resumind/internal/shared/storage/object"
)

// Options configures a MinIO-backed store.
type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Store implements ObjectStore against any S3-compatible MinIO endpoint.
type Store struct {
	client *minio.Client
	bucket string
}

// New connects to MinIO and makes sure the bucket exists.
func New(ctx context.Context, opts Options) (*Store, error) {
	if opts.Endpoint == "" || opts.Bucket == "" {
		return nil, fmt.Errorf("minio endpoint and bucket are required")
	}
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", opts.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, opts.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", opts.Bucket, err)
		}
	}
	return &Store{client: client, bucket: opts.Bucket}, nil
}

// Save streams the reader into the bucket under the owner's namespace.
func (s *Store) Save(ctx context.Context, owner string, fileName string, r io.Reader) (object.Object, error) {
	key, err := object.NewKey(owner, fileName)
	if err != nil {
		return object.Object{}, err
	}
	contentType, body, err := object.Sniff(r)
	if err != nil {
		return object.Object{}, err
	}

	info, err := s.client.PutObject(ctx, s.bucket, key, body, -1, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return object.Object{}, fmt.Errorf("minio put object bucket=%s key=%s: %w", s.bucket, key, err)
	}
	return object.Object{Key: key, Size: info.Size, ContentType: contentType}, nil
}

// Open returns the object body. GetObject is lazy, so the object is stat'ed
// first to surface a missing key as ErrNotFound.
func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("minio get object bucket=%s key=%s: %w", s.bucket, key, err)
	}
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", object.ErrNotFound, key)
		}
		return nil, fmt.Errorf("minio stat object bucket=%s key=%s: %w", s.bucket, key, err)
	}
	return obj, nil
}

// Delete removes the object. Missing keys are not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("minio remove object bucket=%s key=%s: %w", s.bucket, key, err)
	}
	return nil
}

func isNotFound(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NoSuchObject"
}

var _ object.ObjectStore = (*Store)(nil)
