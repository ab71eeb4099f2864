package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Archiver uploads copies of the durable SNR log to object storage
type Archiver interface {
	ArchiveLog(ctx context.Context, path string) (*Archive, error)
	DownloadFile(ctx context.Context, key string) ([]byte, error)
}

// Archive describes an uploaded log copy
type Archive struct {
	Key         string
	DownloadURL string
	ExpiresIn   time.Duration
}

type s3Archiver struct {
	client    *s3.Client
	bucket    string
	prefix    string
	urlExpiry time.Duration
	now       func() time.Time
}

// S3Config holds configuration for the archive
type S3Config struct {
	Bucket    string
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
}

// NewS3Archiver creates an archiver for AWS S3, or MinIO when Endpoint is set
func NewS3Archiver(ctx context.Context, cfg S3Config) (Archiver, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("S3_BUCKET is required")
	}

	region := cfg.Region
	if region == "" || cfg.Endpoint != "" {
		region = "us-east-1" // MinIO doesn't care about region
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var client *s3.Client
	if cfg.Endpoint != "" {
		endpoint := cfg.Endpoint
		if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
			endpoint = "http://" + endpoint
		}
		client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.BaseEndpoint = &endpoint
			o.UsePathStyle = true // MinIO requires path-style URLs
		})
	} else {
		client = s3.NewFromConfig(awsCfg)
	}

	return &s3Archiver{
		client:    client,
		bucket:    cfg.Bucket,
		prefix:    "snr-logs/",
		urlExpiry: 24 * time.Hour,
		now:       time.Now,
	}, nil
}

// ArchiveLog uploads the file at path and returns a pre-signed download URL
func (s *s3Archiver) ArchiveLog(ctx context.Context, path string) (*Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log for archiving: %w", err)
	}
	defer f.Close()

	key := ArchiveKey(s.prefix, s.now())
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String("text/plain; charset=utf-8"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload log: %w", err)
	}
	log.Info().Str("bucket", s.bucket).Str("key", key).Msg("SNR log archived")

	presignClient := s3.NewPresignClient(s.client)
	request, err := presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = s.urlExpiry
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate download URL: %w", err)
	}

	return &Archive{Key: key, DownloadURL: request.URL, ExpiresIn: s.urlExpiry}, nil
}

// DownloadFile downloads an archived object
func (s *s3Archiver) DownloadFile(ctx context.Context, key string) ([]byte, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	defer result.Body.Close()

	return io.ReadAll(result.Body)
}

// ArchiveKey builds a unique object key such as "snr-logs/20240101T000000Z-<uuid>.log"
func ArchiveKey(prefix string, at time.Time) string {
	return fmt.Sprintf("%s%s-%s.log", prefix, at.UTC().Format("20060102T150405Z"), uuid.New())
}
