package verification

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yash-flix/VeriDoc-Ai/models"
)

type mapStore map[string][]byte

func (m mapStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	b, ok := m[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func TestStoreFetcher_PrefersStore(t *testing.T) {
	t.Parallel()

	f := &StoreFetcher{Stores: map[string]BlobGetter{"local": mapStore{"abc_id.png": []byte("stored")}}}
	data, err := f.Fetch(context.Background(), &models.Upload{
		StorageProvider: "local",
		StorageID:       "abc_id.png",
		FileURL:         "http://127.0.0.1:1/unreachable",
	})
	require.NoError(t, err)
	assert.Equal(t, "stored", string(data))

	_, err = f.Fetch(context.Background(), &models.Upload{StorageProvider: "local", StorageID: "missing"})
	assert.Error(t, err)
}

func TestStoreFetcher_HTTP(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			_, _ = w.Write([]byte("remote bytes"))
		case "/big":
			_, _ = w.Write(bytes.Repeat([]byte("a"), 64))
		case "/slow":
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := &StoreFetcher{HTTPClient: srv.Client(), Timeout: 100 * time.Millisecond, MaxBytes: 32}

	data, err := f.Fetch(context.Background(), &models.Upload{StorageProvider: "s3", FileURL: srv.URL + "/ok"})
	require.NoError(t, err)
	assert.Equal(t, "remote bytes", string(data))

	_, err = f.Fetch(context.Background(), &models.Upload{FileURL: srv.URL + "/missing"})
	assert.ErrorContains(t, err, "unexpected status 404")

	_, err = f.Fetch(context.Background(), &models.Upload{FileURL: srv.URL + "/big"})
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = f.Fetch(context.Background(), &models.Upload{FileURL: srv.URL + "/slow"})
	assert.Error(t, err)

	_, err = f.Fetch(context.Background(), &models.Upload{})
	assert.Error(t, err)
}
