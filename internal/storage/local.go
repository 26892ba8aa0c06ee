package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// LocalService stores blobs as files below a root directory.
type LocalService struct {
	fs afero.Fs
}

// NewLocalService roots a LocalService at dir on the OS filesystem.
func NewLocalService(dir string) (*LocalService, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return NewLocalServiceFs(afero.NewBasePathFs(afero.NewOsFs(), dir)), nil
}

// NewLocalServiceFs uses fsys as the storage root.
func NewLocalServiceFs(fsys afero.Fs) *LocalService {
	return &LocalService{fs: fsys}
}

func (s *LocalService) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	if !validKey(key) {
		return fmt.Errorf("invalid storage key %q", key)
	}
	if err := s.fs.MkdirAll(filepath.Dir(filepath.FromSlash(key)), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", key, err)
	}

	f, err := s.fs.OpenFile(filepath.FromSlash(key), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", key, err)
	}
	_, err = io.Copy(f, contextReader{ctx: ctx, r: body})
	closeErr := f.Close()
	if err != nil {
		_ = s.fs.Remove(filepath.FromSlash(key))
		return fmt.Errorf("write %s: %w", key, err)
	}
	if closeErr != nil {
		return fmt.Errorf("close %s: %w", key, closeErr)
	}
	return nil
}

func (s *LocalService) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if !validKey(key) {
		return nil, ErrObjectNotFound
	}
	f, err := s.fs.Open(filepath.FromSlash(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", key, ErrObjectNotFound)
		}
		return nil, fmt.Errorf("open %s: %w", key, err)
	}
	return f, nil
}

func (s *LocalService) Delete(ctx context.Context, key string) error {
	if !validKey(key) {
		return fmt.Errorf("invalid storage key %q", key)
	}
	if err := s.fs.Remove(filepath.FromSlash(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (s *LocalService) ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	var objects []ObjectInfo
	err := afero.Walk(s.fs, string(filepath.Separator), func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			if errors.Is(walkErr, fs.ErrNotExist) {
				return nil
			}
			return walkErr
		}
		if info.IsDir() {
			return nil
		}
		key := strings.TrimPrefix(filepath.ToSlash(path), "/")
		if !strings.HasPrefix(key, prefix) {
			return nil
		}
		modified := info.ModTime()
		objects = append(objects, ObjectInfo{
			Key:          key,
			Size:         info.Size(),
			LastModified: &modified,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list objects: %w", err)
	}
	return objects, nil
}

// contextReader stops a copy once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

var _ Service = (*LocalService)(nil)
