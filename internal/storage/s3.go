package storage

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"golang.org/x/crypto/blake2b"
)

// ObjectUploader is the part of the s3 upload manager the mirror uses.
type ObjectUploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3Mirror copies pinned media to Amazon S3 (or compatible APIs).
type S3Mirror struct {
	uploader  ObjectUploader
	bucket    string
	keyPrefix string
}

func NewS3Mirror(client *s3.Client, bucket, keyPrefix string) *S3Mirror {
	return newS3Mirror(manager.NewUploader(client), bucket, keyPrefix)
}

func newS3Mirror(uploader ObjectUploader, bucket, keyPrefix string) *S3Mirror {
	return &S3Mirror{
		uploader:  uploader,
		bucket:    bucket,
		keyPrefix: strings.Trim(keyPrefix, "/"),
	}
}

// Key is content addressed so re-uploads of the same bytes overwrite one object.
func (m *S3Mirror) Key(name string, data []byte) string {
	sum := blake2b.Sum256(data)
	key := hex.EncodeToString(sum[:]) + strings.ToLower(filepath.Ext(name))
	if m.keyPrefix != "" {
		key = m.keyPrefix + "/" + key
	}
	return key
}

func (m *S3Mirror) Put(ctx context.Context, name, contentType string, data []byte) (string, error) {
	if m.bucket == "" {
		return "", fmt.Errorf("storage bucket is required")
	}

	key := m.Key(name, data)
	input := &s3.PutObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
		ACL:    types.ObjectCannedACLPrivate,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := m.uploader.Upload(ctx, input); err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}

	return fmt.Sprintf("s3://%s/%s", m.bucket, key), nil
}

var _ Mirror = (*S3Mirror)(nil)
