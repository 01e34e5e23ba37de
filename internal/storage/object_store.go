// Package storage keeps uploaded loan images in MinIO or any S3-compatible
// object store.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const presignExpiry = 7 * 24 * time.Hour

type ImageStore interface {
	// PutImage stores the object under a fresh key and returns a URL clients
	// can fetch it from.
	PutImage(ctx context.Context, r io.Reader, size int64, contentType string) (string, error)
}

type MinioStore struct {
	client     *minio.Client
	bucket     string
	publicBase string
}

// NewMinioStore connects and creates the bucket when it is missing.
func NewMinioStore(ctx context.Context, endpoint, accessKey, secretKey, bucket string, useSSL bool, publicBase string) (*MinioStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}
	return &MinioStore{client: client, bucket: bucket, publicBase: strings.TrimRight(publicBase, "/")}, nil
}

func (m *MinioStore) PutImage(ctx context.Context, r io.Reader, size int64, contentType string) (string, error) {
	key := ObjectKey(contentType)
	if _, err := m.client.PutObject(ctx, m.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType}); err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}
	if m.publicBase != "" {
		return PublicURL(m.publicBase, key), nil
	}
	u, err := m.client.PresignedGetObject(ctx, m.bucket, key, presignExpiry, nil)
	if err != nil {
		return "", fmt.Errorf("presign get: %w", err)
	}
	return u.String(), nil
}

// ObjectKey is a random, date-prefixed key carrying an extension that
// matches the content type.
func ObjectKey(contentType string) string {
	return path.Join("images", time.Now().UTC().Format("2006/01/02"), uuid.NewString()+extension(contentType))
}

func PublicURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}

func extension(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	}
	return ""
}
