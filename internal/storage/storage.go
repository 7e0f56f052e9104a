// Package storage keeps avatar blobs on local disk or in an S3 compatible
// bucket
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"bitwise74/finance-api/aws"
	"bitwise74/finance-api/cloudflare"

	"github.com/spf13/viper"
)

// Blob stores opaque objects under keys and hands out public URLs for them
type Blob interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (url string, err error)
	Delete(ctx context.Context, key string) error

	// KeyFromURL returns the key behind a URL this store handed out. ok is
	// false for foreign URLs, which must never be deleted.
	KeyFromURL(url string) (key string, ok bool)
}

// New builds the store selected by storage.type
func New(ctx context.Context) (Blob, error) {
	publicURL := viper.GetString("storage.public_url")

	switch viper.GetString("storage.type") {
	case "local":
		return NewLocal(viper.GetString("storage.local_dir"), publicURL)
	case "s3":
		b, err := aws.NewS3(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3 client, %w", err)
		}

		return NewS3(b, publicURL), nil
	case "r2":
		b, err := cloudflare.NewR2(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize R2 client, %w", err)
		}

		return NewS3(b, publicURL), nil
	default:
		return nil, fmt.Errorf("unknown storage type %q", viper.GetString("storage.type"))
	}
}

func keyFromURL(prefix, url string) (string, bool) {
	prefix = strings.TrimSuffix(prefix, "/") + "/"

	key, ok := strings.CutPrefix(url, prefix)
	if !ok || !validKey(key) {
		return "", false
	}

	return key, true
}

// validKey rejects anything that could escape the storage root
func validKey(key string) bool {
	return key != "" && !strings.Contains(key, "/") && !strings.Contains(key, `\`) && !strings.HasPrefix(key, ".")
}
