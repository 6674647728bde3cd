package s3

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/auditforge/workspacefs/pkg/store/content"
	"github.com/auditforge/workspacefs/pkg/vfs"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// Read downloads the object for ino. A missing object yields empty content.
func (s *S3ContentStore) Read(ctx context.Context, ino vfs.Ino) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.getObjectKey(ino)),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return []byte{}, nil
		}
		return nil, fmt.Errorf("failed to read content %d from S3: %w", ino, err)
	}
	defer func() { _ = result.Body.Close() }()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read content %d body: %w", ino, err)
	}

	return data, nil
}

// List returns every inode with an object under the key prefix.
func (s *S3ContentStore) List(ctx context.Context) ([]vfs.Ino, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var inos []vfs.Ino

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.keyPrefix),
	})

	for paginator.HasMorePages() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}

		for _, obj := range page.Contents {
			if obj.Key == nil {
				continue
			}
			if ino, ok := s.parseObjectKey(*obj.Key); ok {
				inos = append(inos, ino)
			}
		}
	}

	return inos, nil
}

// GetStorageStats lists the key prefix and sums object sizes.
func (s *S3ContentStore) GetStorageStats(ctx context.Context) (*content.StorageStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var count, used uint64

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.keyPrefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}

		for _, obj := range page.Contents {
			if obj.Key == nil {
				continue
			}
			if _, ok := s.parseObjectKey(*obj.Key); !ok {
				continue
			}
			count++
			if obj.Size != nil {
				used += uint64(*obj.Size)
			}
		}
	}

	return content.NewStorageStats(count, used), nil
}
