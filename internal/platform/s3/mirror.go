package s3

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"
	"github.com/kenyilewis/imgtask/internal/config"
	"github.com/kenyilewis/imgtask/internal/transform"
)

// objectPutter is the subset of the S3 client used by Mirror.
type objectPutter interface {
	PutObject(ctx context.Context, in *awss3.PutObjectInput, optFns ...func(*awss3.Options)) (*awss3.PutObjectOutput, error)
}

// Mirror uploads variants to a bucket. It implements transform.Sink.
type Mirror struct {
	client   objectPutter
	bucket   string
	prefix   string
	region   string
	endpoint string
	logger   *slog.Logger
}

var _ transform.Sink = (*Mirror)(nil)

// NewMirror builds an S3 client from cfg. Static credentials are used when
// an access key is configured, otherwise the default AWS credential chain.
// A custom endpoint switches the client to path-style addressing when
// cfg.UsePathStyle is set.
func NewMirror(ctx context.Context, cfg config.S3Config, log *slog.Logger) (*Mirror, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	m := newMirror(client, cfg, log)
	m.logger.Info("S3 mirror enabled",
		slog.String("bucket", cfg.Bucket),
		slog.String("region", cfg.Region),
		slog.String("endpoint", cfg.Endpoint))
	return m, nil
}

func newMirror(client objectPutter, cfg config.S3Config, log *slog.Logger) *Mirror {
	if log == nil {
		log = slog.Default()
	}
	return &Mirror{
		client:   client,
		bucket:   cfg.Bucket,
		prefix:   strings.Trim(cfg.Prefix, "/"),
		region:   cfg.Region,
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		logger:   log.With(slog.String("component", "s3_mirror")),
	}
}

// Key returns the object key for a variant stored at rel.
func (m *Mirror) Key(rel string) string {
	rel = strings.TrimLeft(rel, "/")
	if m.prefix == "" {
		return rel
	}
	return path.Join(m.prefix, rel)
}

// Store implements transform.Sink.
func (m *Mirror) Store(ctx context.Context, key string, v transform.Variant) error {
	objectKey := m.Key(key)
	contentType := mimetype.Detect(v.Bytes).String()

	_, err := m.client.PutObject(ctx, &awss3.PutObjectInput{
		Bucket:      aws.String(m.bucket),
		Key:         aws.String(objectKey),
		Body:        bytes.NewReader(v.Bytes),
		ContentType: aws.String(contentType),
		Metadata: map[string]string{
			"md5":        v.MD5,
			"resolution": v.Resolution,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s to S3: %w", objectKey, err)
	}

	m.logger.Debug("variant mirrored",
		slog.String("key", objectKey),
		slog.String("content_type", contentType))
	return nil
}

// URL returns the public URL for key.
func (m *Mirror) URL(key string) string {
	objectKey := m.Key(key)
	if m.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", m.endpoint, m.bucket, objectKey)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", m.bucket, m.region, objectKey)
}
