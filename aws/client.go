// Package aws defines functions used to interact with the AWS API
package aws

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/spf13/viper"
)

// Bucket is an S3 client bound to the bucket avatars live in
type Bucket struct {
	C    *s3.Client
	Name string
}

// NewS3 connects to the AWS bucket configured under aws.*. Static keys are
// used when set, otherwise the default credential chain applies.
func NewS3(ctx context.Context) (*Bucket, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(viper.GetString("aws.region")),
	}

	if key := viper.GetString("aws.access_key"); key != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			key,
			viper.GetString("aws.secret_access_key"),
			"",
		)))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config, %w", err)
	}

	b := &Bucket{
		C:    s3.NewFromConfig(cfg),
		Name: viper.GetString("aws.bucket"),
	}

	if err := b.Check(ctx); err != nil {
		return nil, err
	}

	return b, nil
}

// Check makes sure the bucket exists and is reachable with the configured
// credentials
func (b *Bucket) Check(ctx context.Context) error {
	_, err := b.C.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(b.Name),
	})
	if err != nil {
		var apiErr smithy.APIError

		if errors.As(err, &apiErr) {
			if apiErr.ErrorCode() == "NotFound" {
				return fmt.Errorf("bucket '%s' does not exist", b.Name)
			}
		}

		return fmt.Errorf("failed to check if bucket exists, %w", err)
	}

	return nil
}
