package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lsm-recorder/backend/pkg/apperr"
)

const (
	// FolderVideos is the object key prefix for corpus videos.
	FolderVideos = "videos"

	// UploadURLExpiry is the lifetime of presigned PUT URLs.
	UploadURLExpiry = 5 * time.Minute
	// DownloadURLExpiry is the lifetime of presigned GET URLs.
	DownloadURLExpiry = time.Hour
)

// S3Config holds S3/MinIO client configuration.
type S3Config struct {
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
}

// S3 wraps a bucket with presigned URL generation and direct uploads.
// All state is configuration; every call is independent.
type S3 struct {
	client   *s3.Client
	presign  *s3.PresignClient
	uploader *manager.Uploader
	cfg      S3Config
	logger   *zap.Logger
}

// NewS3 creates an S3 client against a MinIO-compatible endpoint using
// static credentials. Path-style addressing is required for MinIO.
func NewS3(ctx context.Context, cfg S3Config, logger *zap.Logger) (*S3, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return nil, apperr.Config("object storage credentials not configured")
	}
	if cfg.Bucket == "" {
		return nil, apperr.Config("object storage bucket not configured")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID, cfg.SecretAccessKey, "",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = true
	})
	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = 5 * 1024 * 1024
	})
	return &S3{
		client:   client,
		presign:  s3.NewPresignClient(client),
		uploader: uploader,
		cfg:      cfg,
		logger:   logger,
	}, nil
}

// CheckConfig validates the storage configuration at boot. A HeadBucket
// round trip is unreliable behind some proxies, so only configuration is
// verified here.
func (s *S3) CheckConfig() error {
	if s.cfg.Bucket == "" {
		return apperr.Config("object storage bucket not configured")
	}
	if s.cfg.Endpoint == "" {
		return apperr.Config("object storage endpoint not configured")
	}
	s.logger.Info("object storage configured",
		zap.String("bucket", s.cfg.Bucket),
		zap.String("endpoint", s.cfg.Endpoint),
	)
	return nil
}

// Bucket returns the configured bucket name.
func (s *S3) Bucket() string { return s.cfg.Bucket }

// VideoKey builds an object key videos/<epoch-millis>-<8 char random>.<ext>.
// The millisecond timestamp plus random suffix makes collisions practically
// impossible without a coordination round trip; no collision check is done.
func VideoKey(ext string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s/%d-%s.%s", FolderVideos, time.Now().UnixMilli(), suffix, ext)
}

// ExtensionOf returns the lowercase extension of fileName without the dot,
// or "webm" when the name has none.
func ExtensionOf(fileName string) string {
	if i := strings.LastIndex(fileName, "."); i >= 0 && i < len(fileName)-1 {
		return strings.ToLower(fileName[i+1:])
	}
	return "webm"
}

// GenerateUploadURL returns a presigned PUT URL and the key it uploads to.
// The key extension is taken from fileName, defaulting to webm.
func (s *S3) GenerateUploadURL(ctx context.Context, fileName, mimeType string) (uploadURL, key string, err error) {
	key = VideoKey(ExtensionOf(fileName))
	req, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		ContentType: aws.String(mimeType),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = UploadURLExpiry
	})
	if err != nil {
		return "", "", apperr.Storagef(err, "failed to generate upload URL")
	}
	return req.URL, key, nil
}

// GenerateDownloadURL returns a presigned GET URL for an existing key.
// The key is not verified to exist.
func (s *S3) GenerateDownloadURL(ctx context.Context, key string) (string, error) {
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = DownloadURLExpiry
	})
	if err != nil {
		return "", apperr.Storagef(err, "failed to generate download URL")
	}
	return req.URL, nil
}

// UploadBuffer uploads a buffer directly to the bucket and returns the key.
// Proxy-uploaded videos always get an mp4 extension regardless of the
// original filename. Not retried on failure.
func (s *S3) UploadBuffer(ctx context.Context, buf []byte, fileName, contentType string) (string, error) {
	key := VideoKey("mp4")
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", apperr.Storagef(err, "failed to upload to storage")
	}
	s.logger.Info("object uploaded", zap.String("key", key), zap.Int("size", len(buf)))
	return key, nil
}

// DeleteObject removes an object. Callers in delete flows treat a failure
// here as non-fatal and only log it.
func (s *S3) DeleteObject(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return apperr.Storagef(err, "failed to delete object")
	}
	return nil
}
