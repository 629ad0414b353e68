// Package storage issues upload URLs for product images.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	adminapp "github.com/minimart/storefront/internal/application/admin"
	"github.com/minimart/storefront/internal/infrastructure/config"
)

var _ adminapp.ImageStorage = (*S3ImageStorage)(nil)

// S3ImageStorage presigns PUT URLs against any S3-compatible store.
type S3ImageStorage struct {
	presignClient     *s3.PresignClient
	bucket            string
	endpoint          string
	publicURL         string
	usePathStyle      bool
	presignExpiration time.Duration
	logger            *zap.Logger
}

// Option configures S3ImageStorage
type Option func(*S3ImageStorage)

// WithLogger sets a custom logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *S3ImageStorage) {
		s.logger = logger
	}
}

// NewS3ImageStorage creates an S3ImageStorage from configuration.
func NewS3ImageStorage(ctx context.Context, cfg *config.StorageConfig, opts ...Option) (*S3ImageStorage, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, errors.New("storage access key and secret key are required")
	}

	endpoint := cfg.Endpoint
	if endpoint != "" && !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		if cfg.UseSSL {
			endpoint = "https://" + endpoint
		} else {
			endpoint = "http://" + endpoint
		}
	}
	if endpoint != "" {
		if _, err := url.Parse(endpoint); err != nil {
			return nil, fmt.Errorf("invalid storage endpoint: %w", err)
		}
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	s := &S3ImageStorage{
		presignClient:     s3.NewPresignClient(client),
		bucket:            cfg.Bucket,
		endpoint:          endpoint,
		publicURL:         strings.TrimSuffix(cfg.PublicURL, "/"),
		usePathStyle:      cfg.UsePathStyle,
		presignExpiration: cfg.PresignExpiration,
		logger:            zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.presignExpiration <= 0 {
		s.presignExpiration = 15 * time.Minute
	}
	return s, nil
}

// GenerateUploadURL presigns a PUT of storageKey with contentType.
func (s *S3ImageStorage) GenerateUploadURL(ctx context.Context, storageKey, contentType string, expiresIn time.Duration) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, errors.New("storage key is required")
	}
	if expiresIn <= 0 {
		expiresIn = s.presignExpiration
	}

	req, err := s.presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(storageKey),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(expiresIn))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate upload URL: %w", err)
	}

	s.logger.Debug("Presigned image upload", zap.String("key", storageKey))
	return req.URL, time.Now().Add(expiresIn), nil
}

// PublicURL returns the URL under which storageKey is served once uploaded.
func (s *S3ImageStorage) PublicURL(storageKey string) string {
	switch {
	case s.publicURL != "":
		return s.publicURL + "/" + storageKey
	case s.endpoint != "" && s.usePathStyle:
		return strings.TrimSuffix(s.endpoint, "/") + "/" + s.bucket + "/" + storageKey
	case s.endpoint != "":
		u, err := url.Parse(s.endpoint)
		if err != nil {
			return storageKey
		}
		u.Host = s.bucket + "." + u.Host
		u.Path = "/" + storageKey
		return u.String()
	default:
		return "https://" + s.bucket + ".s3.amazonaws.com/" + storageKey
	}
}
