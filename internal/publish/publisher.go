package publish

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"time"

	"resumegen/internal/latex"
	"resumegen/internal/shared/retry"
	"resumegen/internal/shared/storage/object"
	"resumegen/internal/shared/telemetry"
)

// keyPrefix namespaces all published artifacts in the bucket.
const keyPrefix = "resumes/"

// PublishedArtifact is the outcome of a successful publish.
type PublishedArtifact struct {
	URL       string
	Key       string
	SizeBytes int64
	ExpiresAt time.Time
}

// Publisher uploads compiled artifacts to an object store and hands out
// time-limited download URLs. Keys are deterministic per run identifier,
// so re-publishing the same run overwrites rather than duplicates.
type Publisher struct {
	store  object.ObjectStore
	expiry time.Duration
	policy retry.Policy
}

// NewPublisher constructs a Publisher. expiry bounds the lifetime of
// presigned URLs; maxRetries bounds additional attempts after a transient
// upload failure.
func NewPublisher(store object.ObjectStore, expiry time.Duration, maxRetries int) *Publisher {
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	return &Publisher{
		store:  store,
		expiry: expiry,
		policy: retry.Policy{
			MaxAttempts: maxRetries + 1,
			Initial:     250 * time.Millisecond,
			Max:         3 * time.Second,
			OnRetry: func(attempt int, delay time.Duration, err error) {
				telemetry.Warn("publish.retry", map[string]any{
					"attempt": attempt,
					"delay":   delay.String(),
					"error":   err.Error(),
				})
			},
		},
	}
}

// Key returns the storage key for a run identifier.
func Key(id string) string {
	return keyPrefix + id + ".pdf"
}

// Publish uploads the artifact under its deterministic key and returns a
// presigned download URL. Transient store failures are retried with
// backoff; configuration failures are surfaced immediately.
func (p *Publisher) Publish(ctx context.Context, id string, artifact latex.Artifact, generatedAt time.Time) (PublishedArtifact, error) {
	key := Key(id)
	input := object.PutInput{
		Size:               artifact.SizeBytes,
		ContentType:        artifact.MimeType,
		ContentDisposition: `inline; filename="resume.pdf"`,
		Metadata: map[string]string{
			"artifact-id":  id,
			"generated-at": generatedAt.UTC().Format(time.RFC3339),
			"size-bytes":   strconv.FormatInt(artifact.SizeBytes, 10),
		},
	}

	err := retry.Do(ctx, p.policy, retryableStoreError, func(ctx context.Context) error {
		// Fresh reader per attempt; a failed upload may have consumed part
		// of the previous one.
		input.Body = bytes.NewReader(artifact.Data)
		return p.store.Put(ctx, key, input)
	})
	if err != nil {
		return PublishedArtifact{}, fmt.Errorf("upload artifact: %w", err)
	}

	var url string
	err = retry.Do(ctx, p.policy, retryableStoreError, func(ctx context.Context) error {
		var presignErr error
		url, presignErr = p.store.Presign(ctx, key, p.expiry)
		return presignErr
	})
	if err != nil {
		return PublishedArtifact{}, fmt.Errorf("presign artifact: %w", err)
	}

	return PublishedArtifact{
		URL:       url,
		Key:       key,
		SizeBytes: artifact.SizeBytes,
		// Anchored to the generation timestamp, not the upload completion,
		// so retries and backoff never widen the link lifetime.
		ExpiresAt: generatedAt.UTC().Add(p.expiry),
	}, nil
}

// CleanupOlderThan deletes published artifacts whose last modification is
// older than maxAge. Returns the number of objects removed.
func (p *Publisher) CleanupOlderThan(ctx context.Context, maxAge time.Duration) (int, error) {
	metas, err := p.store.List(ctx, keyPrefix)
	if err != nil {
		return 0, fmt.Errorf("list artifacts: %w", err)
	}

	cutoff := time.Now().UTC().Add(-maxAge)
	removed := 0
	for _, meta := range metas {
		if meta.LastModified.After(cutoff) {
			continue
		}
		if err := p.store.Delete(ctx, meta.Key); err != nil {
			return removed, fmt.Errorf("delete stale artifact %q: %w", meta.Key, err)
		}
		removed++
	}
	if removed > 0 {
		telemetry.Info("publish.cleanup", map[string]any{"removed": removed, "max_age": maxAge.String()})
	}
	return removed, nil
}

// retryableStoreError retries transient faults only. Misconfiguration
// (denied credentials, missing bucket) fails on the first attempt.
func retryableStoreError(err error) bool {
	if object.IsConfig(err) {
		return false
	}
	return retry.Transient(err)
}
