package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	s3aws "bitwise74/finance-api/aws"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3 keeps blobs in a bucket. URL is the public base the bucket is served
// from, for example a CDN or an R2 custom domain.
type S3 struct {
	bucket   *s3aws.Bucket
	uploader *manager.Uploader
	URL      string
}

func NewS3(b *s3aws.Bucket, url string) *S3 {
	return &S3{
		bucket:   b,
		uploader: manager.NewUploader(b.C),
		URL:      strings.TrimSuffix(url, "/"),
	}
}

func (s *S3) Put(ctx context.Context, key string, r io.Reader, _ int64, contentType string) (string, error) {
	if !validKey(key) {
		return "", fmt.Errorf("invalid key %q", key)
	}

	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket.Name),
		Key:         aws.String(key),
		Body:        r,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object, %w", err)
	}

	return s.URL + "/" + key, nil
}

func (s *S3) Delete(ctx context.Context, key string) error {
	_, err := s.bucket.C.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket.Name),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object, %w", err)
	}

	return nil
}

func (s *S3) KeyFromURL(url string) (string, bool) {
	return keyFromURL(s.URL, url)
}
