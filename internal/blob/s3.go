package blob

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	appconfig "github.com/calderaweb/pressroom/internal/config"
)

// S3Store implements Store against any S3-compatible endpoint
// (Cloudflare R2 in production).
type S3Store struct {
	client     *s3.Client
	bucket     string
	publicHost string
}

func NewS3Store(cfg *appconfig.Config) (*S3Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.BlobAccessKey, cfg.BlobSecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load blob storage config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.BlobEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BlobEndpoint)
		}
	})

	return &S3Store{
		client:     client,
		bucket:     cfg.BlobBucket,
		publicHost: cfg.BlobPublicHost,
	}, nil
}

func (s *S3Store) Store(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return fmt.Sprintf("https://%s/%s", s.publicHost, key), nil
}

func (s *S3Store) Delete(ctx context.Context, rawURL string) error {
	key, err := s.keyFromURL(rawURL)
	if err != nil {
		return err
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// keyFromURL recovers the object key from a public URL issued by Store.
func (s *S3Store) keyFromURL(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid blob URL %q: %w", rawURL, err)
	}
	key := strings.TrimPrefix(parsed.Path, "/")
	if key == "" {
		return "", fmt.Errorf("blob URL %q has no object key", rawURL)
	}
	return key, nil
}
