// Package storage keeps uploaded bytes on local disk or in an S3-compatible
// object store.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	ProviderLocal = "local"
	ProviderS3    = "s3"
	ProviderMinio = "minio"
)

var ErrNotFound = errors.New("storage: object not found")

// Store saves and reads back upload bytes. Keys are relative, slash
// separated paths produced by ObjectKey.
type Store interface {
	Name() string
	Put(ctx context.Context, key string, data []byte, contentType string) (url string, err error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes key; a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// ObjectKey builds a unique key of the form 2006/01/02/<uuid>_<name> for an
// already sanitized file name.
func ObjectKey(fileName string, now time.Time) string {
	name := strings.ReplaceAll(strings.TrimSpace(fileName), "/", "_")
	if name == "" || name == "." || name == ".." {
		name = "file"
	}
	return fmt.Sprintf("%s/%s_%s", now.Format("2006/01/02"), uuid.NewString(), name)
}

func joinURL(base string, parts ...string) string {
	out := strings.TrimRight(base, "/")
	for _, p := range parts {
		out += "/" + strings.Trim(p, "/")
	}
	return out
}
