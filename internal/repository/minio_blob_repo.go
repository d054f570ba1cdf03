package repository

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/parisxmas/juridoc/internal/apperror"
)

// S3Config holds the settings for an S3-compatible attachment bucket.
type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
}

// MinioBlobStore keeps blobs as objects in an S3-compatible bucket.
type MinioBlobStore struct {
	client  *minio.Client
	bucket  string
	prefix  string
	timeout time.Duration
}

// normaliseEndpoint accepts "host:port" or an http(s) URL without a path.
func normaliseEndpoint(raw string) (endpoint string, secure bool, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false, fmt.Errorf("empty endpoint")
	}
	if !strings.Contains(raw, "://") {
		return raw, false, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", false, err
	}
	if u.Host == "" {
		return "", false, fmt.Errorf("invalid endpoint")
	}
	if u.Path != "" && u.Path != "/" {
		return "", false, fmt.Errorf("endpoint must not contain a path")
	}
	return u.Host, u.Scheme == "https", nil
}

// NewMinioBlobStore connects to the bucket and checks that it exists.
func NewMinioBlobStore(ctx context.Context, cfg S3Config) (*MinioBlobStore, error) {
	if cfg.Endpoint == "" || cfg.AccessKey == "" || cfg.SecretKey == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 configuration incomplete")
	}
	endpoint, secure, err := normaliseEndpoint(cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("s3 endpoint: %w", err)
	}
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("s3 client: %w", err)
	}
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("s3 bucket check: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("s3 bucket does not exist: %s", cfg.Bucket)
	}
	return &MinioBlobStore{
		client:  client,
		bucket:  cfg.Bucket,
		prefix:  strings.Trim(cfg.Prefix, "/"),
		timeout: 5 * time.Minute,
	}, nil
}

func (s *MinioBlobStore) objectKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return path.Join(s.prefix, key)
}

func (s *MinioBlobStore) Put(ctx context.Context, key string, data []byte, contentType string) (BlobInfo, error) {
	if !validKey(key) {
		return BlobInfo{}, apperror.Validation("invalid blob key %q", key)
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	objectKey := s.objectKey(key)
	_, err := s.client.PutObject(ctx, s.bucket, objectKey, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return BlobInfo{}, apperror.Internal(err, "failed to store file")
	}
	return BlobInfo{
		Key:         key,
		Size:        int64(len(data)),
		ContentType: contentType,
		Path:        "s3://" + s.bucket + "/" + objectKey,
	}, nil
}

func (s *MinioBlobStore) Get(ctx context.Context, key string) (io.ReadSeekCloser, BlobInfo, error) {
	if !validKey(key) {
		return nil, BlobInfo{}, apperror.NotFound("file %q not found", key)
	}
	objectKey := s.objectKey(key)
	obj, err := s.client.GetObject(ctx, s.bucket, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, BlobInfo{}, apperror.Internal(err, "failed to open file")
	}
	// GetObject is lazy; Stat surfaces a missing key.
	st, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, BlobInfo{}, apperror.NotFound("file %q not found", key)
		}
		return nil, BlobInfo{}, apperror.Internal(err, "failed to open file")
	}
	return obj, BlobInfo{
		Key:         key,
		Size:        st.Size,
		ContentType: st.ContentType,
		Path:        "s3://" + s.bucket + "/" + objectKey,
	}, nil
}

func (s *MinioBlobStore) Delete(ctx context.Context, key string) error {
	if !validKey(key) {
		return apperror.NotFound("file %q not found", key)
	}
	if err := s.client.RemoveObject(ctx, s.bucket, s.objectKey(key), minio.RemoveObjectOptions{}); err != nil {
		return apperror.Internal(err, "failed to remove file")
	}
	return nil
}
