package object

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// PutInput describes one object write.
type PutInput struct {
	Body               io.Reader
	Size               int64
	ContentType        string
	ContentDisposition string
	Metadata           map[string]string
}

// ObjectMeta describes a stored object.
type ObjectMeta struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// ObjectStore defines the contract for publishing and managing binary
// artifacts. Put with an existing key overwrites it; Delete of a missing
// key succeeds.
type ObjectStore interface {
	Put(ctx context.Context, key string, in PutInput) error
	Presign(ctx context.Context, key string, expiry time.Duration) (string, error)
	List(ctx context.Context, prefix string) ([]ObjectMeta, error)
	Delete(ctx context.Context, key string) error
}

// ConfigError marks a store failure caused by deployment configuration,
// such as rejected credentials or a missing bucket. Retrying cannot fix it.
type ConfigError struct {
	Op  string
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("object store misconfigured (%s): %v", e.Op, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// IsConfig reports whether err originates from store misconfiguration.
func IsConfig(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
