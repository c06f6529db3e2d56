// Package storage saves uploaded images either on local disk or in S3.
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// ObjectStore saves and removes uploaded objects by key.
type ObjectStore interface {
	// Put stores r under key and returns its public URL.
	Put(ctx context.Context, key string, r io.ReadSeeker, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	// KeyFromURL maps a URL returned by Put back to its key.
	KeyFromURL(url string) (string, bool)
}

// ProfilePhotoKey is profile-photos/{user}/{uuid}.{ext}.
func ProfilePhotoKey(userID, ext string) string {
	return fmt.Sprintf("profile-photos/%s/%s.%s", userID, uuid.NewString(), normalizeExt(ext))
}

// ProductImageKey is products/{user}/{name-slug}-{uuid}.{ext}.
func ProductImageKey(userID, productName, ext string) string {
	name := slug.Make(productName)
	if name == "" {
		name = "product"
	}
	return fmt.Sprintf("products/%s/%s-%s.%s", userID, name, uuid.NewString(), normalizeExt(ext))
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

func validKey(key string) bool {
	if key == "" || strings.HasPrefix(key, "/") {
		return false
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return false
		}
	}
	return true
}
