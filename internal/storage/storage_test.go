package storage

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/twonumberfortyfives/e-commerce-shop/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalSink_Write(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "static")
	s, err := NewLocalSink(dir, "http://localhost:8080/static/")
	require.NoError(t, err)

	err = s.Write(context.Background(), "profile_images/abc.png", strings.NewReader("png-bytes"), "image/png")
	require.NoError(t, err)

	got, err := os.ReadFile(filepath.Join(dir, "profile_images", "abc.png"))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(got))

	assert.Equal(t, "http://localhost:8080/static/profile_images/abc.png", s.URL("profile_images/abc.png"))

	// nothing but the file itself is left behind
	entries, err := os.ReadDir(filepath.Join(dir, "profile_images"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLocalSink_Delete(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalSink(dir, "http://x")
	require.NoError(t, err)

	require.NoError(t, s.Write(context.Background(), "profile_images/abc.png", strings.NewReader("x"), "image/png"))
	require.NoError(t, s.Delete(context.Background(), "profile_images/abc.png"))

	_, err = os.Stat(filepath.Join(dir, "profile_images", "abc.png"))
	assert.True(t, os.IsNotExist(err))

	// deleting twice is fine
	assert.NoError(t, s.Delete(context.Background(), "profile_images/abc.png"))
	assert.Error(t, s.Delete(context.Background(), "../escape.png"))
}

func TestLocalSink_RejectsEscapingKeys(t *testing.T) {
	s, err := NewLocalSink(t.TempDir(), "http://x")
	require.NoError(t, err)

	for _, key := range []string{"", "../evil.png", "a/../../evil.png", "/abs.png", "a//b.png"} {
		err := s.Write(context.Background(), key, strings.NewReader("x"), "image/png")
		assert.Error(t, err, key)
	}
}

func TestLocalSink_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalSink(dir, "http://x")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = s.Write(ctx, "a.png", strings.NewReader("x"), "image/png")
	assert.ErrorIs(t, err, context.Canceled)

	_, err = os.Stat(filepath.Join(dir, "a.png"))
	assert.True(t, os.IsNotExist(err))
}

type fakeS3 struct {
	mu      sync.Mutex
	puts    map[string][]byte
	ctypes  map[string]string
	buckets map[string]bool
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	parts := strings.SplitN(strings.TrimPrefix(r.URL.Path, "/"), "/", 2)

	switch r.Method {
	case http.MethodHead:
		if !f.buckets[parts[0]] {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	case http.MethodDelete:
		delete(f.puts, r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.puts[r.URL.Path] = body
		f.ctypes[r.URL.Path] = r.Header.Get("Content-Type")
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func TestS3Sink(t *testing.T) {
	fake := &fakeS3{
		puts:    map[string][]byte{},
		ctypes:  map[string]string{},
		buckets: map[string]bool{"avatars": true},
	}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	cfg := config.AWS{
		AccessKey:       "key",
		SecretAccessKey: "secret",
		Region:          "us-east-1",
		Bucket:          "avatars",
		Endpoint:        srv.URL,
	}

	s, err := NewS3Sink(context.Background(), cfg, "")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/avatars/profile_images/a.jpg", s.URL("profile_images/a.jpg"))

	payload := []byte("jpeg-bytes")
	require.NoError(t, s.Write(context.Background(), "profile_images/a.jpg", bytes.NewReader(payload), "image/jpeg"))

	fake.mu.Lock()
	assert.Contains(t, string(fake.puts["/avatars/profile_images/a.jpg"]), string(payload))
	assert.Equal(t, "image/jpeg", fake.ctypes["/avatars/profile_images/a.jpg"])
	fake.mu.Unlock()

	require.NoError(t, s.Delete(context.Background(), "profile_images/a.jpg"))

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.NotContains(t, fake.puts, "/avatars/profile_images/a.jpg")
}

func TestS3Sink_MissingBucket(t *testing.T) {
	srv := httptest.NewServer(&fakeS3{buckets: map[string]bool{}})
	t.Cleanup(srv.Close)

	_, err := NewS3Sink(context.Background(), config.AWS{
		AccessKey:       "key",
		SecretAccessKey: "secret",
		Region:          "us-east-1",
		Bucket:          "nope",
		Endpoint:        srv.URL,
	}, "")
	assert.Error(t, err)
}

func TestBucketURL(t *testing.T) {
	assert.Equal(t, "https://b.s3.eu-west-1.amazonaws.com", bucketURL(config.AWS{Bucket: "b"}, "eu-west-1"))
	assert.Equal(t, "https://acc.r2.cloudflarestorage.com/b", bucketURL(config.AWS{Bucket: "b", Endpoint: "https://acc.r2.cloudflarestorage.com/"}, "auto"))
}
