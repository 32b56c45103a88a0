// Package storage handles recipe and feed image persistence
package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/forkfeed/forkfeed/pkg/observability"
)

// ErrEmptyImage is returned when no image payload was provided
var ErrEmptyImage = errors.New("empty image payload")

// ImageStore persists uploaded images and returns public URLs
type ImageStore interface {
	// UploadBase64 decodes a base64 image (optionally a data URI) and
	// stores it under a generated name, returning the public URL.
	UploadBase64(ctx context.Context, data string) (string, error)
	Delete(ctx context.Context, imageURL string) error
}

// S3Config holds object storage settings
type S3Config struct {
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	Prefix    string `mapstructure:"prefix"`
	Endpoint  string `mapstructure:"endpoint"`
	PublicURL string `mapstructure:"public_url"`
}

// S3Store implements ImageStore on S3-compatible object storage
type S3Store struct {
	config   S3Config
	client   *s3.Client
	uploader *manager.Uploader
	logger   observability.Logger
}

// NewS3Store creates an S3-backed image store
func NewS3Store(ctx context.Context, cfg S3Config, logger observability.Logger) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("S3 bucket is required")
	}
	if logger == nil {
		logger = observability.NewNoopLogger()
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Store{
		config:   cfg,
		client:   client,
		uploader: manager.NewUploader(client),
		logger:   logger,
	}, nil
}

// UploadBase64 stores a decoded image and returns its public URL
func (s *S3Store) UploadBase64(ctx context.Context, data string) (string, error) {
	raw, err := decodeImage(data)
	if err != nil {
		return "", err
	}

	contentType := http.DetectContentType(raw)
	key := s.objectKey(uuid.New().String(), contentType)

	start := time.Now()
	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.config.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(raw),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}

	s.logger.Debug("Image uploaded", map[string]interface{}{
		"key":         key,
		"bytes":       len(raw),
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return s.publicURL(key), nil
}

// Delete removes a previously uploaded image. Unknown URLs are ignored.
func (s *S3Store) Delete(ctx context.Context, imageURL string) error {
	key := s.keyFromURL(imageURL)
	if key == "" {
		return nil
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.config.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}

func (s *S3Store) objectKey(name, contentType string) string {
	ext := ".bin"
	switch contentType {
	case "image/jpeg":
		ext = ".jpg"
	case "image/png":
		ext = ".png"
	case "image/gif":
		ext = ".gif"
	case "image/webp":
		ext = ".webp"
	}
	if s.config.Prefix != "" {
		return strings.TrimSuffix(s.config.Prefix, "/") + "/" + name + ext
	}
	return name + ext
}

func (s *S3Store) publicURL(key string) string {
	if s.config.PublicURL != "" {
		return strings.TrimSuffix(s.config.PublicURL, "/") + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s",
		s.config.Bucket, s.config.Region, key)
}

func (s *S3Store) keyFromURL(imageURL string) string {
	base := s.publicURL("")
	if !strings.HasPrefix(imageURL, base) {
		return ""
	}
	return strings.TrimPrefix(imageURL, base)
}

// decodeImage accepts raw base64 or a data URI and returns the bytes
func decodeImage(data string) ([]byte, error) {
	data = strings.TrimSpace(data)
	if data == "" {
		return nil, ErrEmptyImage
	}
	if idx := strings.Index(data, ";base64,"); idx >= 0 && strings.HasPrefix(data, "data:") {
		data = data[idx+len(";base64,"):]
	}
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 image data: %w", err)
	}
	if len(raw) == 0 {
		return nil, ErrEmptyImage
	}
	return raw, nil
}
