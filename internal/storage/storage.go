// Package storage provides file storage for user uploads.
//
// Implementations:
// - LocalStorage: File system storage for development
// - R2Storage: Cloudflare R2 (S3-compatible) storage for production
//
// Every object a user uploads lives under that user's prefix
// (users/{userID}/), so deleting an account purges one prefix.
package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Interface Definition
// =============================================================================

// Storage defines the interface for file storage operations.
// All methods are context-aware for timeout and cancellation support.
type Storage interface {
	// Put stores data at the specified key with the given options.
	// Returns ErrKeyExists if the key already exists and opts.Overwrite is false.
	Put(ctx context.Context, key string, data io.Reader, opts PutOptions) error

	// Get retrieves the data at the specified key. The caller must close
	// the reader. Returns ErrNotFound if the key doesn't exist.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)

	// Delete removes the object at the specified key. Idempotent.
	Delete(ctx context.Context, key string) error

	// DeletePrefix removes every object whose key starts with prefix and
	// returns how many were removed. Idempotent.
	DeletePrefix(ctx context.Context, prefix string) (int, error)

	// URL returns a URL for accessing the object at the specified key.
	// Public objects get a permanent URL, private ones a presigned URL
	// valid for expires.
	URL(ctx context.Context, key string, expires time.Duration) (string, error)

	// Exists checks if an object exists at the specified key.
	Exists(ctx context.Context, key string) (bool, error)
}

// =============================================================================
// Data Types
// =============================================================================

// PutOptions configures how an object is stored.
type PutOptions struct {
	// ContentType is the MIME type. Detected from the key when empty.
	ContentType string

	// MaxSize is the maximum allowed size in bytes; 0 means no limit.
	MaxSize int64

	// Overwrite allows replacing an existing object at the same key.
	Overwrite bool

	// Public makes the object publicly readable (R2 only).
	Public bool
}

// ObjectInfo contains metadata about a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
	ETag         string
}

// =============================================================================
// Configuration Types
// =============================================================================

// LocalConfig holds configuration for local filesystem storage.
type LocalConfig struct {
	// BasePath is the root directory where files are stored.
	BasePath string

	// BaseURL is the public URL prefix for accessing files.
	// Example: "http://localhost:8080/files"
	BaseURL string
}

// R2Config holds configuration for Cloudflare R2 storage.
type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string

	// PublicURL is the public URL for the bucket (custom domain). If empty,
	// presigned URLs are used for all access.
	PublicURL string

	// Region is required by the AWS SDK. R2 ignores it. Default: "auto"
	Region string
}

const (
	// ProviderLocal identifies the local filesystem storage provider.
	ProviderLocal = "local"

	// ProviderR2 identifies the Cloudflare R2 storage provider.
	ProviderR2 = "r2"
)

// =============================================================================
// Key Generation Helpers
// =============================================================================

// UserPrefix is the prefix holding every object owned by a user.
// Format: users/{userID}/
func UserPrefix(userID uuid.UUID) string {
	return fmt.Sprintf("users/%s/", userID)
}

// TemplateAssetKey generates a key for an image uploaded to a template.
// Format: users/{userID}/templates/{templateID}/assets/{uuid}.{ext}
func TemplateAssetKey(userID, templateID uuid.UUID, filename string) string {
	return fmt.Sprintf("%stemplates/%s/assets/%s%s", UserPrefix(userID), templateID, uuid.New(), extension(filename))
}

// TemplateThumbnailKey generates the key of the thumbnail for an asset key.
// Format: users/{userID}/templates/{templateID}/thumbnails/{uuid}.jpg
func TemplateThumbnailKey(assetKey string) string {
	dir, file := filepath.Split(assetKey)
	dir = strings.TrimSuffix(dir, "assets/") + "thumbnails/"
	return dir + strings.TrimSuffix(file, filepath.Ext(file)) + ".jpg"
}

func extension(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

// checkKey rejects empty keys and keys that climb out of their prefix.
func checkKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") {
		return ErrInvalidKey
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == ".." {
			return ErrInvalidKey
		}
	}
	return nil
}

// checkPrefix also requires a trailing slash so "users/1" cannot match
// "users/10/".
func checkPrefix(prefix string) error {
	if err := checkKey(prefix); err != nil || !strings.HasSuffix(prefix, "/") {
		return ErrInvalidKey
	}
	return nil
}

// cappedReader fails with ErrTooLarge once more than max bytes were read.
type cappedReader struct {
	r        io.Reader
	max      int64
	read     int64
	exceeded bool
}

func capReader(r io.Reader, max int64) *cappedReader {
	return &cappedReader{r: r, max: max}
}

func (c *cappedReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.read += int64(n)
	if c.max > 0 && c.read > c.max {
		c.exceeded = true
		return n, ErrTooLarge
	}
	return n, err
}
