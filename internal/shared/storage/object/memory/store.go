package memory

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"resumegen/internal/shared/storage/object"
)

type storedObject struct {
	data         []byte
	contentType  string
	metadata     map[string]string
	lastModified time.Time
}

// Store is an in-memory ObjectStore for tests.
type Store struct {
	mu      sync.Mutex
	objects map[string]storedObject

	// PutErr and PresignErr, when set, are returned by the corresponding
	// operation. Tests use them to script store failures.
	PutErr     error
	PresignErr error
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{objects: map[string]storedObject{}}
}

func (s *Store) Put(ctx context.Context, key string, in object.PutInput) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.PutErr != nil {
		return s.PutErr
	}

	data, err := io.ReadAll(in.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}

	meta := make(map[string]string, len(in.Metadata))
	for k, v := range in.Metadata {
		meta[k] = v
	}
	s.objects[key] = storedObject{
		data:         data,
		contentType:  in.ContentType,
		metadata:     meta,
		lastModified: time.Now().UTC(),
	}
	return nil
}

func (s *Store) Presign(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.PresignErr != nil {
		return "", s.PresignErr
	}
	if _, ok := s.objects[key]; !ok {
		return "", fmt.Errorf("object %q not found", key)
	}
	return fmt.Sprintf("https://store.test/%s?expires=%d", key, int64(expiry.Seconds())), nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]object.ObjectMeta, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var metas []object.ObjectMeta
	for key, obj := range s.objects {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		metas = append(metas, object.ObjectMeta{
			Key:          key,
			Size:         int64(len(obj.data)),
			LastModified: obj.lastModified,
		})
	}
	sort.Slice(metas, func(i, j int) bool { return metas[i].Key < metas[j].Key })
	return metas, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

// Len reports how many objects the store holds.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

// Object returns a stored object's data, content type and metadata.
func (s *Store) Object(key string) (data []byte, contentType string, metadata map[string]string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[key]
	if !ok {
		return nil, "", nil, false
	}
	return obj.data, obj.contentType, obj.metadata, true
}

// SetLastModified backdates an object, letting tests exercise age-based
// cleanup.
func (s *Store) SetLastModified(key string, t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if obj, ok := s.objects[key]; ok {
		obj.lastModified = t
		s.objects[key] = obj
	}
}

var _ object.ObjectStore = (*Store)(nil)
