// Package storage keeps user profile photos in MinIO.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"sowp-lms/pkg/apierr"
	"sowp-lms/pkg/logger"
)

const MaxPhotoSize = 5 << 20

var photoTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

type Photos interface {
	// Put stores the photo and returns its object key.
	Put(ctx context.Context, email string, r io.Reader, size int64, contentType string) (string, error)
	Get(ctx context.Context, key string) (io.ReadCloser, string, error)
}

type MinioPhotos struct {
	client *minio.Client
	bucket string
	log    *logger.Logger
}

func NewMinioClient(endpoint, accessKey, secretKey string) (*minio.Client, error) {
	return minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: false,
	})
}

func NewMinioPhotos(client *minio.Client, bucket string, log *logger.Logger) *MinioPhotos {
	return &MinioPhotos{client: client, bucket: bucket, log: log.With("component", "storage")}
}

// EnsureBucket creates the bucket on first start.
func (p *MinioPhotos) EnsureBucket(ctx context.Context) error {
	ok, err := p.client.BucketExists(ctx, p.bucket)
	if err != nil {
		return apierr.Network(fmt.Errorf("check bucket %s: %w", p.bucket, err))
	}
	if ok {
		return nil
	}
	if err := p.client.MakeBucket(ctx, p.bucket, minio.MakeBucketOptions{}); err != nil {
		return apierr.Network(fmt.Errorf("create bucket %s: %w", p.bucket, err))
	}
	p.log.Info("bucket created", "bucket", p.bucket)
	return nil
}

func (p *MinioPhotos) Put(ctx context.Context, email string, r io.Reader, size int64, contentType string) (string, error) {
	key, err := PhotoKey(email, contentType, size)
	if err != nil {
		return "", err
	}
	_, err = p.client.PutObject(ctx, p.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", apierr.Network(fmt.Errorf("upload %s: %w", key, err))
	}
	return key, nil
}

func (p *MinioPhotos) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	obj, err := p.client.GetObject(ctx, p.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, "", apierr.Network(fmt.Errorf("download %s: %w", key, err))
	}
	info, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, "", apierr.NotFound("photo %s not found", key)
		}
		return nil, "", apierr.Network(fmt.Errorf("stat %s: %w", key, err))
	}
	return obj, info.ContentType, nil
}

// PhotoKey validates the upload and names the object after the user.
func PhotoKey(email, contentType string, size int64) (string, error) {
	ext, ok := photoTypes[strings.ToLower(strings.TrimSpace(contentType))]
	if !ok {
		return "", apierr.Validation("unsupported photo type", map[string]string{"file": "must be a jpeg, png or webp image"})
	}
	if size <= 0 || size > MaxPhotoSize {
		return "", apierr.Validation("photo too large", map[string]string{"file": fmt.Sprintf("must be at most %d bytes", MaxPhotoSize)})
	}
	if strings.TrimSpace(email) == "" {
		return "", apierr.Validation("email is required", map[string]string{"email": "is required"})
	}
	return path.Join("users", url.PathEscape(strings.ToLower(email)), "profile"+ext), nil
}
