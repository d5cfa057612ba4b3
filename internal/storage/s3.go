package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/myblogsite/myblog/pkg/logging"
)

// S3Config configures the S3-compatible backend
type S3Config struct {
	Endpoint         string
	AccessKey        string
	SecretKey        string
	UseSSL           bool
	Bucket           string
	PublicURL        string
	DefaultImagePath string
}

// S3 stores uploads as objects in a bucket
type S3 struct {
	cfg    S3Config
	client *minio.Client
	logger *zap.Logger
}

// NewS3 connects to the object store and creates the bucket when missing
func NewS3(ctx context.Context, cfg S3Config) (*S3, error) {
	endpoint := strings.TrimPrefix(strings.TrimPrefix(cfg.Endpoint, "http://"), "https://")
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create s3 client: %w", ErrStorage, err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to check bucket %s: %w", ErrStorage, cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("%w: failed to create bucket %s: %w", ErrStorage, cfg.Bucket, err)
		}
	}

	if cfg.PublicURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		cfg.PublicURL = fmt.Sprintf("%s://%s/%s", scheme, endpoint, cfg.Bucket)
	}

	return &S3{
		cfg:    cfg,
		client: client,
		logger: logging.WithComponent("storage"),
	}, nil
}

// Store uploads the image as an object named after the original file
func (s *S3) Store(ctx context.Context, upload *Upload) (string, error) {
	if upload.Empty() {
		return s.cfg.DefaultImagePath, nil
	}

	name := FileName(upload.Name)
	info, err := s.client.PutObject(ctx, s.cfg.Bucket, name, upload.Content, upload.Size, minio.PutObjectOptions{
		ContentType: upload.ContentType,
	})
	if err != nil {
		return "", fmt.Errorf("%w: failed to put object %s: %w", ErrStorage, name, err)
	}

	s.logger.Debug("Stored upload",
		zap.String("bucket", s.cfg.Bucket),
		zap.String("key", name),
		zap.Int64("bytes", info.Size))
	return strings.TrimRight(s.cfg.PublicURL, "/") + "/" + name, nil
}
