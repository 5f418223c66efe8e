package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectKey(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC)
	k1 := ObjectKey("passport.png", now)
	k2 := ObjectKey("passport.png", now)
	assert.True(t, strings.HasPrefix(k1, "2024/03/09/"), k1)
	assert.True(t, strings.HasSuffix(k1, "_passport.png"), k1)
	assert.NotEqual(t, k1, k2)

	assert.True(t, strings.HasSuffix(ObjectKey("", now), "_file"))
	assert.True(t, strings.HasSuffix(ObjectKey("a/b.png", now), "_a_b.png"))
}

func TestLocalStore_RoundTrip(t *testing.T) {
	t.Parallel()

	s, err := NewLocalStore(t.TempDir(), "http://localhost:3000/static/uploads/")
	require.NoError(t, err)
	assert.Equal(t, ProviderLocal, s.Name())

	url, err := s.Put(context.Background(), "2024/03/09/abc_id.png", []byte("png bytes"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3000/static/uploads/2024/03/09/abc_id.png", url)

	rc, err := s.Get(context.Background(), "2024/03/09/abc_id.png")
	require.NoError(t, err)
	defer rc.Close()
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "png bytes", string(b))
}

func TestLocalStore_Errors(t *testing.T) {
	t.Parallel()

	s, err := NewLocalStore(t.TempDir(), "/static/uploads")
	require.NoError(t, err)

	_, err = s.Get(context.Background(), "nope.png")
	assert.ErrorIs(t, err, ErrNotFound)

	for _, key := range []string{"../escape.txt", "a/../../escape.txt", "", "/etc/passwd"} {
		_, err = s.Put(context.Background(), key, []byte("x"), "")
		assert.Error(t, err, key)
		assert.Error(t, s.Delete(context.Background(), key), key)
	}
}

func TestLocalStore_Delete(t *testing.T) {
	t.Parallel()

	s, err := NewLocalStore(t.TempDir(), "/static/uploads")
	require.NoError(t, err)

	key := "2024/03/09/abc_id.png"
	_, err = s.Put(context.Background(), key, []byte("png bytes"), "image/png")
	require.NoError(t, err)

	require.NoError(t, s.Delete(context.Background(), key))
	_, err = s.Get(context.Background(), key)
	assert.ErrorIs(t, err, ErrNotFound)

	// already gone
	assert.NoError(t, s.Delete(context.Background(), key))
}

// fakeS3 is a tiny path-style S3 endpoint that keeps objects in memory.
func fakeS3(t *testing.T) *httptest.Server {
	t.Helper()
	var mu sync.Mutex
	objects := map[string][]byte{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		switch r.Method {
		case http.MethodPut:
			b, _ := io.ReadAll(r.Body)
			objects[r.URL.Path] = b
			w.Header().Set("ETag", `"etag"`)
			w.WriteHeader(http.StatusOK)
		case http.MethodGet:
			b, ok := objects[r.URL.Path]
			if !ok {
				w.Header().Set("Content-Type", "application/xml")
				w.WriteHeader(http.StatusNotFound)
				_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`)
				return
			}
			_, _ = w.Write(b)
		case http.MethodDelete:
			delete(objects, r.URL.Path)
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestS3Store_RoundTrip(t *testing.T) {
	t.Parallel()

	srv := fakeS3(t)
	s, err := NewS3Store(S3Config{
		Endpoint:  srv.URL,
		Region:    "us-east-1",
		Bucket:    "uploads",
		AccessKey: "key",
		SecretKey: "secret",
	})
	require.NoError(t, err)
	assert.Equal(t, ProviderS3, s.Name())

	url, err := s.Put(context.Background(), "2024/01/02/x_doc.png", []byte("hello"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/uploads/2024/01/02/x_doc.png", url)

	rc, err := s.Get(context.Background(), "2024/01/02/x_doc.png")
	require.NoError(t, err)
	b, _ := io.ReadAll(rc)
	_ = rc.Close()
	assert.Equal(t, "hello", string(b))

	_, err = s.Get(context.Background(), "missing.png")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Delete(context.Background(), "2024/01/02/x_doc.png"))
	_, err = s.Get(context.Background(), "2024/01/02/x_doc.png")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestS3Store_URLs(t *testing.T) {
	t.Parallel()

	s, err := NewS3Store(S3Config{Region: "eu-west-1", Bucket: "b"})
	require.NoError(t, err)
	assert.Equal(t, "https://b.s3.eu-west-1.amazonaws.com/k.png", s.url("k.png"))

	s, err = NewS3Store(S3Config{Region: "eu-west-1", Bucket: "b", PublicURL: "https://cdn.example.com/"})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/k.png", s.url("k.png"))

	_, err = NewS3Store(S3Config{})
	assert.Error(t, err)
}

func TestNewMinioStore_Validation(t *testing.T) {
	t.Parallel()

	_, err := NewMinioStore(S3Config{Bucket: "b"})
	assert.Error(t, err)

	s, err := NewMinioStore(S3Config{Endpoint: "localhost:9000", Bucket: "b", AccessKey: "k", SecretKey: "s"})
	require.NoError(t, err)
	assert.Equal(t, ProviderMinio, s.Name())
}
