package verification

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/yash-flix/VeriDoc-Ai/models"
)

const (
	DefaultDownloadTimeout = 30 * time.Second
	DefaultMaxDownloadSize = 25 << 20
)

var ErrTooLarge = errors.New("file exceeds download limit")

// Fetcher returns the raw bytes of an upload.
type Fetcher interface {
	Fetch(ctx context.Context, u *models.Upload) ([]byte, error)
}

// BlobGetter opens a stored object by key. storage backends satisfy it.
type BlobGetter interface {
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}

// StoreFetcher reads uploads from the storage backend that holds them and
// falls back to an HTTP GET of the public URL.
type StoreFetcher struct {
	Stores     map[string]BlobGetter // keyed by Upload.StorageProvider
	HTTPClient *http.Client
	Timeout    time.Duration
	MaxBytes   int64
}

func (f *StoreFetcher) Fetch(ctx context.Context, u *models.Upload) ([]byte, error) {
	timeout := f.Timeout
	if timeout <= 0 {
		timeout = DefaultDownloadTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if store, ok := f.Stores[u.StorageProvider]; ok && u.StorageID != "" {
		rc, err := store.Get(ctx, u.StorageID)
		if err != nil {
			return nil, fmt.Errorf("open %s object %s: %w", u.StorageProvider, u.StorageID, err)
		}
		defer rc.Close()
		return f.readLimited(rc)
	}

	if u.FileURL == "" {
		return nil, errors.New("upload has no storage object and no url")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.FileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build download request: %w", err)
	}
	client := f.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", u.FileURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download %s: unexpected status %d", u.FileURL, resp.StatusCode)
	}
	return f.readLimited(resp.Body)
}

func (f *StoreFetcher) readLimited(r io.Reader) ([]byte, error) {
	limit := f.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxDownloadSize
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w of %d bytes", ErrTooLarge, limit)
	}
	return data, nil
}
