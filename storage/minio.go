// Package storage provides the media upload service backed by MinIO.
// Avatars and cover images are uploaded from a local scratch path and
// served back through a public URL.
package storage

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ViewTube/config"
	"ViewTube/logger"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Uploader is the media upload contract the account flows depend on.
// Upload stores the file at localPath under the given folder and returns
// the public URL of the stored object.
type Uploader interface {
	Upload(ctx context.Context, localPath, folder string) (string, error)
}

// MinioClient wraps the MinIO SDK client together with the target bucket.
type MinioClient struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

// NewMinioClient creates a MinIO client and ensures the bucket exists.
func NewMinioClient(cfg *config.Config) (*MinioClient, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{Region: cfg.MinioRegion}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
		logger.Info("created bucket", logger.String("bucket", cfg.MinioBucket))
	}

	return &MinioClient{
		client:    client,
		bucket:    cfg.MinioBucket,
		publicURL: strings.TrimRight(cfg.MinioPublicURL, "/"),
	}, nil
}

// Upload streams the file at localPath into the bucket under folder and
// returns the public URL. Object keys get a uuid prefix so repeated uploads
// of the same filename never collide.
func (m *MinioClient) Upload(ctx context.Context, localPath, folder string) (string, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open upload file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to stat upload file: %w", err)
	}

	ext := filepath.Ext(localPath)
	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	objectName := fmt.Sprintf("%s/%s%s", strings.Trim(folder, "/"), uuid.NewString(), ext)

	_, err = m.client.PutObject(ctx, m.bucket, objectName, file, info.Size(), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object %s: %w", objectName, err)
	}

	logger.Debug("uploaded object",
		logger.String("object", objectName),
		logger.Int64("size", info.Size()))

	return m.publicURL + "/" + objectName, nil
}

// Stat returns object count, total size and newest modification time for a
// prefix. Used by the minio maintenance subcommand.
func (m *MinioClient) Stat(ctx context.Context, prefix string) (int64, int64, time.Time, error) {
	var count, size int64
	var last time.Time

	objectCh := m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})
	for object := range objectCh {
		if object.Err != nil {
			return 0, 0, time.Time{}, fmt.Errorf("failed to list objects: %w", object.Err)
		}
		count++
		size += object.Size
		if object.LastModified.After(last) {
			last = object.LastModified
		}
	}
	return count, size, last, nil
}
