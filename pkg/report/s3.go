package report

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/dmitrymomot/courier/pkg/dispatch"
)

// DefaultRegion is used when S3Config.Region is empty.
const DefaultRegion = "us-east-1"

// S3Config configures upload of the report to S3-compatible storage.
type S3Config struct {
	Bucket    string `yaml:"bucket" env:"BUCKET"`
	AccessKey string `yaml:"access_key" env:"ACCESS_KEY"`
	SecretKey string `yaml:"secret_key" env:"SECRET_KEY"`
	// Endpoint is a custom endpoint URL, for MinIO or other S3-compatible services.
	Endpoint string `yaml:"endpoint" env:"ENDPOINT"`
	Region   string `yaml:"region" env:"REGION"`
	// Prefix is prepended to object keys.
	Prefix string `yaml:"prefix" env:"PREFIX"`
	// Format is csv or xlsx. Default: xlsx.
	Format    Format `yaml:"format" env:"FORMAT"`
	PathStyle bool   `yaml:"path_style" env:"PATH_STYLE"`
}

// Enabled reports whether a bucket is configured.
func (c S3Config) Enabled() bool { return c.Bucket != "" }

func (c *S3Config) applyDefaults() {
	if c.Region == "" {
		c.Region = DefaultRegion
	}
	if c.Format == "" {
		c.Format = FormatXLSX
	}
}

func (c S3Config) validate() error {
	switch {
	case c.Bucket == "":
		return fmt.Errorf("%w: bucket is required", ErrInvalidConfig)
	case c.AccessKey == "" || c.SecretKey == "":
		return fmt.Errorf("%w: access key and secret key are required", ErrInvalidConfig)
	case c.Format != FormatCSV && c.Format != FormatXLSX:
		return fmt.Errorf("%w: %w: %q", ErrInvalidConfig, ErrUnsupportedFormat, c.Format)
	}
	return nil
}

// putObjectAPI is the subset of the S3 client used by S3Sink.
type putObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Sink uploads each report as a new object.
type S3Sink struct {
	client putObjectAPI
	now    func() time.Time
	cfg    S3Config

	mu      sync.Mutex
	lastKey string
}

// NewS3Sink creates a sink from cfg.
func NewS3Sink(cfg S3Config) (*S3Sink, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	opts := []func(*s3.Options){
		func(o *s3.Options) {
			o.Region = cfg.Region
			o.Credentials = credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
		},
	}
	if cfg.Endpoint != "" {
		opts = append(opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = cfg.PathStyle
		})
	}

	return newS3Sink(s3.New(s3.Options{}, opts...), cfg), nil
}

func newS3Sink(client putObjectAPI, cfg S3Config) *S3Sink {
	cfg.applyDefaults()
	return &S3Sink{client: client, cfg: cfg, now: time.Now}
}

// WriteFailures implements dispatch.FailureSink.
func (s *S3Sink) WriteFailures(ctx context.Context, entries []dispatch.FailureEntry) error {
	var buf bytes.Buffer
	if err := Encode(&buf, s.cfg.Format, entries); err != nil {
		return err
	}

	key := s.key()
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.cfg.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(buf.Bytes()),
		ContentLength: aws.Int64(int64(buf.Len())),
		ContentType:   aws.String(s.cfg.Format.ContentType()),
	})
	if err != nil {
		return wrapS3Error(err)
	}

	s.mu.Lock()
	s.lastKey = key
	s.mu.Unlock()
	return nil
}

// key builds {prefix}/failed_emails_{timestamp}_{uuid}.{ext}.
func (s *S3Sink) key() string {
	name := fmt.Sprintf("failed_emails_%s_%s%s",
		s.now().UTC().Format("20060102T150405Z"),
		uuid.NewString(),
		s.cfg.Format.Extension(),
	)
	prefix := strings.Trim(s.cfg.Prefix, "/")
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

// String returns the location of the last uploaded report.
func (s *S3Sink) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastKey == "" {
		return "s3://" + s.cfg.Bucket
	}
	return "s3://" + s.cfg.Bucket + "/" + s.lastKey
}
