package repository

import (
	"bufio"
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parisxmas/juridoc/internal/apperror"
)

// fakeS3 answers the path-style S3 calls MinioBlobStore makes, keeping
// objects in memory.
type fakeS3 struct {
	bucket string

	mu      sync.Mutex
	objects map[string]fakeObject
}

type fakeObject struct {
	data        []byte
	contentType string
}

func newFakeS3(t *testing.T, bucket string) (*fakeS3, *httptest.Server) {
	t.Helper()
	f := &fakeS3{bucket: bucket, objects: map[string]fakeObject{}}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	bucket, key, _ := strings.Cut(strings.TrimPrefix(r.URL.Path, "/"), "/")
	if bucket != f.bucket {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if key == "" {
		if _, ok := r.URL.Query()["location"]; ok {
			w.Header().Set("Content-Type", "application/xml")
			_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?>`+
				`<LocationConstraint xmlns="http://s3.amazonaws.com/doc/2006-03-01/">us-east-1</LocationConstraint>`)
			return
		}
		w.WriteHeader(http.StatusOK)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	switch r.Method {
	case http.MethodPut:
		data, err := readS3Body(r)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.objects[key] = fakeObject{data: data, contentType: r.Header.Get("Content-Type")}
		w.Header().Set("ETag", etag(data))
		w.WriteHeader(http.StatusOK)
	case http.MethodHead, http.MethodGet:
		obj, ok := f.objects[key]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("ETag", etag(obj.data))
		w.Header().Set("Content-Type", obj.contentType)
		w.Header().Set("Content-Length", strconv.Itoa(len(obj.data)))
		w.Header().Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodGet {
			_, _ = w.Write(obj.data)
		}
	case http.MethodDelete:
		delete(f.objects, key)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *fakeS3) object(key string) (fakeObject, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.objects[key]
	return obj, ok
}

func etag(data []byte) string {
	sum := md5.Sum(data)
	return `"` + hex.EncodeToString(sum[:]) + `"`
}

// readS3Body returns the payload of a PUT, undoing aws-chunked framing
// when the client streamed a signed body.
func readS3Body(r *http.Request) ([]byte, error) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	if r.Header.Get("X-Amz-Decoded-Content-Length") == "" {
		return raw, nil
	}
	var out bytes.Buffer
	br := bufio.NewReader(bytes.NewReader(raw))
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			return nil, err
		}
		sizeHex, _, _ := strings.Cut(strings.TrimSpace(line), ";")
		size, err := strconv.ParseInt(sizeHex, 16, 64)
		if err != nil {
			return nil, fmt.Errorf("chunk size %q: %w", sizeHex, err)
		}
		if size == 0 {
			return out.Bytes(), nil
		}
		if _, err := io.CopyN(&out, br, size); err != nil {
			return nil, err
		}
		if _, err := br.Discard(2); err != nil {
			return nil, err
		}
	}
}

func newTestMinioStore(t *testing.T) (*MinioBlobStore, *fakeS3) {
	t.Helper()
	fake, srv := newFakeS3(t, "juridoc-test")
	store, err := NewMinioBlobStore(context.Background(), S3Config{
		Endpoint:  srv.URL,
		AccessKey: "access",
		SecretKey: "secret-key",
		Bucket:    "juridoc-test",
		Prefix:    "uploads",
	})
	require.NoError(t, err)
	return store, fake
}

func TestMinioBlobStore_PutGetDelete(t *testing.T) {
	store, fake := newTestMinioStore(t)
	ctx := context.Background()
	data := []byte("%PDF-1.4\nobject storage\n")

	info, err := store.Put(ctx, "1-a.pdf", data, "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), info.Size)
	assert.Equal(t, "s3://juridoc-test/uploads/1-a.pdf", info.Path)

	obj, ok := fake.object("uploads/1-a.pdf")
	require.True(t, ok)
	assert.Equal(t, data, obj.data)
	assert.Equal(t, "application/pdf", obj.contentType)

	rc, got, err := store.Get(ctx, "1-a.pdf")
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, data, body)
	assert.Equal(t, int64(len(data)), got.Size)
	assert.Equal(t, "application/pdf", got.ContentType)

	require.NoError(t, store.Delete(ctx, "1-a.pdf"))
	_, ok = fake.object("uploads/1-a.pdf")
	assert.False(t, ok)
}

func TestMinioBlobStore_MissingKeyIsNotFound(t *testing.T) {
	store, _ := newTestMinioStore(t)

	_, _, err := store.Get(context.Background(), "missing.pdf")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, _, err = store.Get(context.Background(), "../secret")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestMinioBlobStore_PutRejectsBadKey(t *testing.T) {
	store, _ := newTestMinioStore(t)
	_, err := store.Put(context.Background(), "a/b.pdf", []byte("x"), "application/pdf")
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestNewMinioBlobStore_MissingBucket(t *testing.T) {
	_, srv := newFakeS3(t, "other")
	_, err := NewMinioBlobStore(context.Background(), S3Config{
		Endpoint:  srv.URL,
		AccessKey: "access",
		SecretKey: "secret-key",
		Bucket:    "juridoc-test",
	})
	assert.Error(t, err)
}
