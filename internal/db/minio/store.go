// Package minio stores blobs as objects in an S3-compatible bucket.
package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/resumeqa/resumeqa/internal/db"
)

// Compile-time check: Store implements db.BlobStore.
var _ db.BlobStore = (*Store)(nil)

// Config holds connection parameters for an S3-compatible endpoint.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	Prefix    string
	UseSSL    bool
}

// Store implements db.BlobStore over one bucket. PutObject is atomic per
// object, so readers never see a partial snapshot.
type Store struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewStore creates a client. The bucket is not checked until Ping or
// EnsureBucket.
func NewStore(cfg Config) (*Store, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return &Store{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

// EnsureBucket creates the bucket when it does not exist yet.
func (s *Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return &db.Error{Op: db.OpBucket, Err: err}
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return &db.Error{Op: db.OpBucket, Err: err}
	}
	return nil
}

// Ping checks that the bucket is reachable.
func (s *Store) Ping(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	if !exists {
		return &db.Error{Op: db.OpPing, Err: fmt.Errorf("bucket %q does not exist", s.bucket)}
	}
	return nil
}

// Get downloads the object for key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, s.key(key), minio.GetObjectOptions{})
	if err != nil {
		return nil, mapErr(db.OpGetObject, err)
	}
	defer obj.Close() //nolint:errcheck // read-only object

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, mapErr(db.OpGetObject, err)
	}
	return data, nil
}

// Set uploads value as the object for key.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, s.key(key), bytes.NewReader(value), int64(len(value)),
		minio.PutObjectOptions{ContentType: "application/zstd"})
	if err != nil {
		return &db.Error{Op: db.OpPutObject, Err: err}
	}
	return nil
}

// Close is a no-op; the minio client holds no long-lived connections of its own.
func (s *Store) Close() {}

func (s *Store) key(k string) string {
	if s.prefix == "" {
		return k
	}
	return path.Join(s.prefix, k)
}

func mapErr(op string, err error) error {
	if isNotFound(err) {
		return db.ErrKeyNotFound
	}
	return &db.Error{Op: op, Err: err}
}

func isNotFound(err error) bool {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NotFound":
		return true
	}
	return false
}
