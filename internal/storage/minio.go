package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/schizophrenicman/Food-Waste-Management/internal/config"
	"github.com/schizophrenicman/Food-Waste-Management/pkg/logger"
)

// DocumentStore holds receiver verification documents. It is optional:
// when no MinIO endpoint is configured the server keeps documents
// inline in the database instead.
type DocumentStore struct {
	client *minio.Client
	bucket string
}

func NewDocumentStore(cfg config.MinIOConfig) (*DocumentStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, err
	}

	return &DocumentStore{
		client: client,
		bucket: cfg.Bucket,
	}, nil
}

func (s *DocumentStore) Upload(ctx context.Context, objectName string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		logger.Error("document_upload_failed", err, map[string]interface{}{
			"object_name":  objectName,
			"size":         len(data),
			"content_type": contentType,
			"bucket":       s.bucket,
		})
		return err
	}

	logger.Info("document_upload_success", map[string]interface{}{
		"object_name":  objectName,
		"size":         len(data),
		"content_type": contentType,
		"bucket":       s.bucket,
	})
	return nil
}

func (s *DocumentStore) Delete(ctx context.Context, objectName string) error {
	err := s.client.RemoveObject(ctx, s.bucket, objectName, minio.RemoveObjectOptions{})
	if err != nil {
		logger.Error("document_delete_failed", err, map[string]interface{}{
			"object_name": objectName,
			"bucket":      s.bucket,
		})
	}
	return err
}

func (s *DocumentStore) PresignedGetURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	urlValue, err := s.client.PresignedGetObject(ctx, s.bucket, objectName, expiry, nil)
	if err != nil {
		return "", err
	}
	return urlValue.String(), nil
}

func (s *DocumentStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed creating bucket %s: %w", s.bucket, err)
	}
	return nil
}
