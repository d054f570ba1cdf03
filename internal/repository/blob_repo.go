package repository

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/parisxmas/juridoc/internal/apperror"
)

// BlobInfo describes a stored object.
type BlobInfo struct {
	Key         string
	Size        int64
	ContentType string
	Path        string
}

// BlobStore persists attachment bytes under generated keys.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (BlobInfo, error)
	Get(ctx context.Context, key string) (io.ReadSeekCloser, BlobInfo, error)
	Delete(ctx context.Context, key string) error
}

// validKey rejects keys that could escape the storage area.
func validKey(key string) bool {
	if key == "" || key == "." || key == ".." {
		return false
	}
	if strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return false
	}
	return !strings.ContainsRune(key, 0)
}

// DiskBlobStore keeps blobs as flat files in one directory.
type DiskBlobStore struct {
	dir string
}

func NewDiskBlobStore(dir string) *DiskBlobStore {
	return &DiskBlobStore{dir: dir}
}

func (s *DiskBlobStore) Dir() string { return s.dir }

// Put writes data to dir/key, creating dir if needed. The file is written
// to a temp name first and renamed so readers never see a partial file.
func (s *DiskBlobStore) Put(ctx context.Context, key string, data []byte, contentType string) (BlobInfo, error) {
	if !validKey(key) {
		return BlobInfo{}, apperror.Validation("invalid blob key %q", key)
	}
	if err := ctx.Err(); err != nil {
		return BlobInfo{}, err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return BlobInfo{}, apperror.Internal(err, "failed to create storage directory")
	}

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return BlobInfo{}, apperror.Internal(err, "failed to create file")
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return BlobInfo{}, apperror.Internal(err, "failed to write file")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return BlobInfo{}, apperror.Internal(err, "failed to write file")
	}

	path := filepath.Join(s.dir, key)
	if _, err := os.Stat(path); err == nil {
		_ = os.Remove(tmpName)
		return BlobInfo{}, apperror.Internal(os.ErrExist, "stored name collision")
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return BlobInfo{}, apperror.Internal(err, "failed to store file")
	}

	return BlobInfo{
		Key:         key,
		Size:        int64(len(data)),
		ContentType: contentType,
		Path:        filepath.ToSlash(path),
	}, nil
}

func (s *DiskBlobStore) Get(ctx context.Context, key string) (io.ReadSeekCloser, BlobInfo, error) {
	if !validKey(key) {
		return nil, BlobInfo{}, apperror.NotFound("file %q not found", key)
	}
	path := filepath.Join(s.dir, key)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, BlobInfo{}, apperror.NotFound("file %q not found", key)
		}
		return nil, BlobInfo{}, apperror.Internal(err, "failed to open file")
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, BlobInfo{}, apperror.Internal(err, "failed to stat file")
	}
	if st.IsDir() {
		_ = f.Close()
		return nil, BlobInfo{}, apperror.NotFound("file %q not found", key)
	}
	return f, BlobInfo{Key: key, Size: st.Size(), Path: filepath.ToSlash(path)}, nil
}

func (s *DiskBlobStore) Delete(ctx context.Context, key string) error {
	if !validKey(key) {
		return apperror.NotFound("file %q not found", key)
	}
	err := os.Remove(filepath.Join(s.dir, key))
	if errors.Is(err, os.ErrNotExist) {
		return apperror.NotFound("file %q not found", key)
	}
	if err != nil {
		return apperror.Internal(err, "failed to remove file")
	}
	return nil
}
