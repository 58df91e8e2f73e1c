package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Storage abstracts the object store media is copied to.
type Storage interface {
	// Put writes the object, overwriting any previous version under key.
	Put(ctx context.Context, bucket, key, contentType string, body []byte) error
	PublicURL(bucket, key string) string
}

// s3API is the part of *s3.Client used here.
type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Config struct {
	Region        string
	PublicBaseURL string
	Timeout       time.Duration
}

// S3Storage stores media in S3 (or any S3-compatible service).
type S3Storage struct {
	api s3API
	cfg S3Config
}

func NewS3Storage(api s3API, cfg S3Config) (*S3Storage, error) {
	if api == nil {
		return nil, errors.New("media: s3 api must not be nil")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")
	return &S3Storage{api: api, cfg: cfg}, nil
}

func (s *S3Storage) Put(ctx context.Context, bucket, key, contentType string, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	_, err := s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", bucket, key, err)
	}
	return nil
}

// PublicURL returns {public_base_url}/{bucket}/{key} when a base is
// configured, the virtual-hosted S3 URL otherwise.
func (s *S3Storage) PublicURL(bucket, key string) string {
	escaped := (&url.URL{Path: key}).EscapedPath()
	if s.cfg.PublicBaseURL != "" {
		return fmt.Sprintf("%s/%s/%s", s.cfg.PublicBaseURL, bucket, escaped)
	}
	region := s.cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket, region, escaped)
}
