package s3

import (
	"bytes"
	"context"
	"fmt"

	"github.com/auditforge/workspacefs/pkg/store/content"
	"github.com/auditforge/workspacefs/pkg/vfs"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Write uploads data as the object for ino with a single PutObject.
func (s *S3ContentStore) Write(ctx context.Context, ino vfs.Ino, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if s.maxSize > 0 && int64(len(data)) > s.maxSize {
		return fmt.Errorf("write content %d (%d bytes): %w", ino, len(data), content.ErrTooLarge)
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.getObjectKey(ino)),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return fmt.Errorf("failed to write content %d to S3: %w", ino, err)
	}

	return nil
}

// Delete removes the object for ino. S3 DeleteObject succeeds for missing
// keys, so this is idempotent.
func (s *S3ContentStore) Delete(ctx context.Context, ino vfs.Ino) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.getObjectKey(ino)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete content %d from S3: %w", ino, err)
	}

	return nil
}
