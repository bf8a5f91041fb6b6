// Package objstore reads and lists objects in remote storage addressed by
// s3:// URIs.
package objstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Scheme prefixes every remote path.
const Scheme = "s3://"

// ErrUnavailable is returned when object storage support is compiled out.
var ErrUnavailable = errors.New("object storage support is not included in this build")

// Config holds optional client overrides. Zero values use the AWS defaults
// (environment, shared config files, instance metadata).
type Config struct {
	Region    string
	Endpoint  string
	PathStyle bool
}

// Entry is one item in a listing.
type Entry struct {
	Name string
	URI  string
	Dir  bool
	Size int64
}

// Store reads and lists remote objects.
type Store interface {
	Open(ctx context.Context, uri string) (io.ReadCloser, error)
	List(ctx context.Context, uri string) ([]Entry, error)
}

// factory is set by the S3 implementation when it is compiled in.
var factory func(ctx context.Context, cfg Config, logger *slog.Logger) (Store, error)

// Available reports whether an object storage client is compiled in.
func Available() bool {
	return factory != nil
}

// New creates the object storage client.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (Store, error) {
	if factory == nil {
		return nil, ErrUnavailable
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return factory(ctx, cfg, logger)
}

// IsRemote reports whether path is an object storage URI.
func IsRemote(path string) bool {
	return strings.HasPrefix(path, Scheme)
}

// ParseURI splits s3://bucket/key into bucket and key. The key may be empty.
func ParseURI(uri string) (bucket, key string, err error) {
	if !IsRemote(uri) {
		return "", "", fmt.Errorf("not an %s URI: %s", Scheme, uri)
	}
	rest := strings.TrimPrefix(uri, Scheme)
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("missing bucket in %s", uri)
	}
	return bucket, key, nil
}

// Join builds a URI from a bucket and key.
func Join(bucket, key string) string {
	return Scheme + bucket + "/" + key
}

// Parent returns the URI one level above uri, or uri itself at a bucket root.
func Parent(uri string) string {
	bucket, key, err := ParseURI(uri)
	if err != nil {
		return uri
	}
	key = strings.TrimSuffix(key, "/")
	if key == "" {
		return Join(bucket, "")
	}
	idx := strings.LastIndex(key, "/")
	if idx < 0 {
		return Join(bucket, "")
	}
	return Join(bucket, key[:idx+1])
}
