package local

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"resumegen/internal/shared/storage/object"
)

// Store implements ObjectStore on the local filesystem. Meant for
// development and tests; Presign returns a plain URL and the expiry is
// not enforced.
type Store struct {
	baseDir string
	baseURL string
}

// New creates a local object store rooted at baseDir. baseURL, when set,
// is the public prefix presigned URLs are built from; otherwise file://
// URLs are returned.
func New(baseDir, baseURL string) *Store {
	return &Store{baseDir: baseDir, baseURL: strings.TrimRight(baseURL, "/")}
}

// Put writes the object to disk under key, overwriting any previous file.
func (s *Store) Put(ctx context.Context, key string, in object.PutInput) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	clean, err := s.cleanKey(key)
	if err != nil {
		return err
	}

	fullPath := filepath.Join(s.baseDir, clean)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	f, err := os.OpenFile(fullPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, in.Body); err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	return nil
}

// Presign returns a URL for the stored object.
func (s *Store) Presign(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	clean, err := s.cleanKey(key)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(filepath.Join(s.baseDir, clean)); err != nil {
		return "", fmt.Errorf("stat object %q: %w", clean, err)
	}

	if s.baseURL != "" {
		return s.baseURL + "/" + filepath.ToSlash(clean), nil
	}
	abs, err := filepath.Abs(filepath.Join(s.baseDir, clean))
	if err != nil {
		return "", fmt.Errorf("resolve path: %w", err)
	}
	return (&url.URL{Scheme: "file", Path: abs}).String(), nil
}

// List returns metadata for every object under prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]object.ObjectMeta, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var metas []object.ObjectMeta
	err := filepath.WalkDir(s.baseDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(s.baseDir, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		metas = append(metas, object.ObjectMeta{
			Key:          key,
			Size:         info.Size(),
			LastModified: info.ModTime(),
		})
		return nil
	})
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("walk %q: %w", s.baseDir, err)
	}
	return metas, nil
}

// Delete removes the object. A missing key counts as success.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	clean, err := s.cleanKey(key)
	if err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.baseDir, clean)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove object %q: %w", clean, err)
	}
	return nil
}

func (s *Store) cleanKey(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return clean, nil
}

var _ object.ObjectStore = (*Store)(nil)
