// Package s3 implements S3-based content storage.
//
// Each inode's content is one object whose key is the optional key prefix
// followed by the decimal inode number (e.g. "workspacefs/content/42").
package s3

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/auditforge/workspacefs/pkg/store/content"
	"github.com/auditforge/workspacefs/pkg/vfs"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3ContentStore implements content.Store using Amazon S3 or S3-compatible
// storage.
//
// S3 Characteristics:
//   - Whole-object PutObject replaces content atomically
//   - No local caching (every read hits S3)
//   - Supports custom endpoints for S3-compatible storage (MinIO, Localstack)
//
// Thread Safety:
// Safe for concurrent use. Concurrent writes to the same inode resolve to
// last-write-wins.
type S3ContentStore struct {
	client    *s3.Client
	bucket    string
	keyPrefix string
	maxSize   int64
}

// S3ContentStoreConfig contains configuration for S3 content store.
type S3ContentStoreConfig struct {
	// Client is the configured S3 client
	Client *s3.Client

	// Bucket is the S3 bucket name
	Bucket string

	// KeyPrefix is an optional prefix for all object keys
	// Example: "workspacefs/content/" results in keys like "workspacefs/content/42"
	KeyPrefix string

	// MaxSize rejects writes larger than this many bytes. 0 means unlimited.
	MaxSize int64
}

// NewS3ContentStore creates a new S3-based content store.
//
// The bucket must already exist; access is verified with HeadBucket.
//
// Parameters:
//   - ctx: Context for cancellation and timeouts
//   - cfg: S3 configuration
//
// Returns:
//   - *S3ContentStore: Initialized S3 content store
//   - error: Returns error if bucket access fails or context is cancelled
func NewS3ContentStore(ctx context.Context, cfg S3ContentStoreConfig) (*S3ContentStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if cfg.Client == nil {
		return nil, fmt.Errorf("S3 client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	if cfg.MaxSize < 0 {
		return nil, fmt.Errorf("max size must not be negative, got %d", cfg.MaxSize)
	}

	_, err := cfg.Client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(cfg.Bucket),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to access bucket %q: %w: %w", cfg.Bucket, content.ErrUnavailable, err)
	}

	return &S3ContentStore{
		client:    cfg.Client,
		bucket:    cfg.Bucket,
		keyPrefix: cfg.KeyPrefix,
		maxSize:   cfg.MaxSize,
	}, nil
}

// NewS3ClientFromConfig builds an S3 client from explicit settings.
//
// Empty credentials fall back to the default AWS credential chain. A
// non-empty endpoint targets an S3-compatible service; forcePathStyle is
// usually required for those.
func NewS3ClientFromConfig(
	ctx context.Context,
	endpoint, region, accessKeyID, secretAccessKey string,
	forcePathStyle bool,
) (*s3.Client, error) {
	opts := []func(*awsConfig.LoadOptions) error{
		awsConfig.WithRegion(region),
		awsConfig.WithRetryer(func() aws.Retryer {
			return retry.AddWithMaxAttempts(retry.NewStandard(), 5)
		}),
	}

	if accessKeyID != "" && secretAccessKey != "" {
		opts = append(opts, awsConfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, ""),
		))
	}

	cfg, err := awsConfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = forcePathStyle
	}), nil
}

// getObjectKey returns the full S3 object key for ino.
func (s *S3ContentStore) getObjectKey(ino vfs.Ino) string {
	return s.keyPrefix + strconv.FormatUint(uint64(ino), 10)
}

// parseObjectKey maps an object key back to an inode.
func (s *S3ContentStore) parseObjectKey(key string) (vfs.Ino, bool) {
	rest, ok := strings.CutPrefix(key, s.keyPrefix)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseUint(rest, 10, 64)
	if err != nil {
		return 0, false
	}
	return vfs.Ino(n), true
}
