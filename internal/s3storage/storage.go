package s3storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/dharsanguruparan/RagDrop/internal/apperr"
	"github.com/dharsanguruparan/RagDrop/internal/config"
)

// Storage wraps MinIO/S3 interactions for uploaded files.
type Storage struct {
	client     *minio.Client
	bucket     string
	region     string
	publicBase string
}

// New creates a MinIO client from the Config.
func New(cfg *config.Config) (*Storage, error) {
	client, err := minio.New(cfg.S3Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		Secure: cfg.S3UseSSL,
		Region: cfg.S3Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}
	return &Storage{
		client:     client,
		bucket:     cfg.Bucket,
		region:     cfg.S3Region,
		publicBase: publicBase(cfg),
	}, nil
}

// publicBase is MINIO_PUBLIC_URL, else the endpoint with the matching scheme.
func publicBase(cfg *config.Config) string {
	if cfg.S3PublicURL != "" {
		return strings.TrimRight(cfg.S3PublicURL, "/")
	}
	scheme := "http"
	if cfg.S3UseSSL {
		scheme = "https"
	}
	return scheme + "://" + cfg.S3Endpoint
}

// EnsureContainer makes sure the bucket exists before use.
func (s *Storage) EnsureContainer(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
			return fmt.Errorf("make bucket %s: %w", s.bucket, err)
		}
	}
	return nil
}

// Put uploads size bytes from reader and returns the object's URL.
func (s *Storage) Put(ctx context.Context, location string, reader io.Reader, size int64, contentType string) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	opts := minio.PutObjectOptions{ContentType: contentType}
	if _, err := s.client.PutObject(ctx, s.bucket, location, reader, size, opts); err != nil {
		return "", apperr.Wrap(apperr.StorageWriteFailed, "storage upload failed", err)
	}
	return ObjectURL(s.publicBase, s.bucket, location), nil
}

// Delete removes the object. Missing objects are not an error.
func (s *Storage) Delete(ctx context.Context, location string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, location, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %s: %w", location, err)
	}
	return nil
}

// PresignGet returns a signed GET URL for the object.
func (s *Storage) PresignGet(ctx context.Context, location string, ttl time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, location, ttl, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign object: %w", err)
	}
	return u.String(), nil
}

// ObjectURL joins base, bucket and location into a plain object URL.
func ObjectURL(base, bucket, location string) string {
	return strings.TrimRight(base, "/") + "/" + bucket + "/" + strings.TrimLeft(location, "/")
}
