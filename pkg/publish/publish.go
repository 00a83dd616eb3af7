// Package publish mirrors written artifacts to an S3 bucket (or any
// S3-compatible store such as MinIO) so a CDN can serve them.
package publish

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"mime"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/platinummonkey/cssprep/pkg/config"
	"github.com/platinummonkey/cssprep/pkg/observability"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrUploadFailed is returned when an upload fails
var ErrUploadFailed = errors.New("upload failed")

// ObjectPutter is the subset of the S3 client the publisher needs
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Publisher uploads artifacts under a key prefix
type Publisher struct {
	client ObjectPutter
	bucket string
	prefix string
	log    logrus.FieldLogger
}

// New creates a publisher from configuration. Static credentials are used
// when both keys are set; otherwise the default AWS credential chain applies.
func New(ctx context.Context, cfg config.PublishConfig, log logrus.FieldLogger) (*Publisher, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("publish bucket is required")
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsConfig, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		if cfg.UsePathStyle {
			o.UsePathStyle = true
		}
	})

	return NewWithClient(client, cfg.Bucket, cfg.Prefix, log), nil
}

// NewWithClient creates a publisher around an existing client
func NewWithClient(client ObjectPutter, bucket, prefix string, log logrus.FieldLogger) *Publisher {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Publisher{
		client: client,
		bucket: bucket,
		prefix: prefix,
		log:    log,
	}
}

// Key returns the object key for a path relative to the output root
func (p *Publisher) Key(relPath string) string {
	return path.Join(strings.TrimSuffix(p.prefix, "/"), strings.TrimPrefix(relPath, "/"))
}

// Publish uploads content for relPath
func (p *Publisher) Publish(ctx context.Context, relPath string, content []byte) error {
	key := p.Key(relPath)
	contentType := contentTypeFor(relPath)

	ctx, span := observability.Tracer().Start(ctx, "S3.PutObject",
		trace.WithAttributes(
			attribute.String("s3.operation", "PutObject"),
			attribute.String("s3.bucket", p.bucket),
			attribute.String("s3.key", key),
			attribute.String("content.type", contentType),
			attribute.Int("content.size", len(content)),
		),
	)
	defer span.End()

	hash := sha256.Sum256(content)

	_, err := p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(content),
		ContentType: aws.String(contentType),
		Metadata: map[string]string{
			"checksum-sha256": hex.EncodeToString(hash[:]),
		},
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to upload to s3")
		return fmt.Errorf("%w: %s: %v", ErrUploadFailed, key, err)
	}

	span.SetStatus(codes.Ok, "object uploaded successfully")
	p.log.WithFields(logrus.Fields{
		"bucket": p.bucket,
		"key":    key,
	}).Debug("Artifact published")
	return nil
}

func contentTypeFor(name string) string {
	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
