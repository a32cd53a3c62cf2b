package publish

import (
	"context"
	"errors"
	"testing"
	"time"

	"resumegen/internal/latex"
	"resumegen/internal/shared/storage/object"
	"resumegen/internal/shared/storage/object/memory"
)

// flakyStore wraps the in-memory store, failing Put a scripted number of
// times and counting attempts.
type flakyStore struct {
	*memory.Store
	putFailures int
	putErr      error
	putCalls    int
}

func (f *flakyStore) Put(ctx context.Context, key string, in object.PutInput) error {
	f.putCalls++
	if f.putCalls <= f.putFailures {
		return f.putErr
	}
	return f.Store.Put(ctx, key, in)
}

func testArtifact() latex.Artifact {
	data := []byte("%PDF-1.4 fake resume")
	return latex.Artifact{Data: data, MimeType: "application/pdf", SizeBytes: int64(len(data))}
}

func TestPublishStoresArtifactWithMetadata(t *testing.T) {
	store := memory.New()
	p := NewPublisher(store, time.Hour, 2)
	generatedAt := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	result, err := p.Publish(context.Background(), "run-1", testArtifact(), generatedAt)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if result.Key != "resumes/run-1.pdf" {
		t.Fatalf("unexpected key %q", result.Key)
	}
	if result.URL == "" {
		t.Fatal("expected presigned URL")
	}
	if got := result.ExpiresAt.Sub(generatedAt); got != time.Hour {
		t.Fatalf("expiry offset = %s, want exactly 1h", got)
	}

	data, contentType, metadata, ok := store.Object("resumes/run-1.pdf")
	if !ok {
		t.Fatal("artifact not stored")
	}
	if string(data) != "%PDF-1.4 fake resume" {
		t.Fatal("stored bytes differ from artifact")
	}
	if contentType != "application/pdf" {
		t.Fatalf("content type = %q", contentType)
	}
	if metadata["artifact-id"] != "run-1" {
		t.Fatalf("artifact-id metadata = %q", metadata["artifact-id"])
	}
	if metadata["generated-at"] != "2026-03-14T09:30:00Z" {
		t.Fatalf("generated-at metadata = %q", metadata["generated-at"])
	}
}

// slowStore wraps the in-memory store, delaying Put so tests can observe
// what upload latency does to reported timestamps.
type slowStore struct {
	*memory.Store
	delay time.Duration
}

func (s *slowStore) Put(ctx context.Context, key string, in object.PutInput) error {
	time.Sleep(s.delay)
	return s.Store.Put(ctx, key, in)
}

func TestPublishExpiryUnaffectedByUploadLatency(t *testing.T) {
	store := &slowStore{Store: memory.New(), delay: 150 * time.Millisecond}
	p := NewPublisher(store, time.Hour, 0)
	generatedAt := time.Now().UTC()

	result, err := p.Publish(context.Background(), "run-1", testArtifact(), generatedAt)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if got := result.ExpiresAt.Sub(generatedAt); got != time.Hour {
		t.Fatalf("expiry offset = %s, want exactly 1h regardless of upload time", got)
	}
}

func TestPublishSameIDOverwrites(t *testing.T) {
	store := memory.New()
	p := NewPublisher(store, time.Hour, 0)

	for i := 0; i < 2; i++ {
		if _, err := p.Publish(context.Background(), "run-1", testArtifact(), time.Now()); err != nil {
			t.Fatalf("Publish #%d: %v", i+1, err)
		}
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 stored object, got %d", store.Len())
	}
}

func TestPublishRetriesTransientFailures(t *testing.T) {
	store := &flakyStore{
		Store:       memory.New(),
		putFailures: 2,
		putErr:      errors.New("dial tcp: i/o timeout"),
	}
	p := NewPublisher(store, time.Hour, 2)
	p.policy.Initial = time.Millisecond
	p.policy.Max = time.Millisecond

	if _, err := p.Publish(context.Background(), "run-1", testArtifact(), time.Now()); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if store.putCalls != 3 {
		t.Fatalf("expected 3 put attempts, got %d", store.putCalls)
	}
}

func TestPublishDoesNotRetryMisconfiguration(t *testing.T) {
	store := &flakyStore{
		Store:       memory.New(),
		putFailures: 10,
		putErr:      &object.ConfigError{Op: "put", Err: errors.New("AccessDenied")},
	}
	p := NewPublisher(store, time.Hour, 5)
	p.policy.Initial = time.Millisecond

	_, err := p.Publish(context.Background(), "run-1", testArtifact(), time.Now())
	if !object.IsConfig(err) {
		t.Fatalf("expected config error, got %v", err)
	}
	if store.putCalls != 1 {
		t.Fatalf("misconfiguration retried: %d put attempts", store.putCalls)
	}
}

func TestCleanupOlderThanRemovesStaleArtifactsOnly(t *testing.T) {
	store := memory.New()
	p := NewPublisher(store, time.Hour, 0)
	ctx := context.Background()

	if _, err := p.Publish(ctx, "stale", testArtifact(), time.Now()); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if _, err := p.Publish(ctx, "fresh", testArtifact(), time.Now()); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	store.SetLastModified("resumes/stale.pdf", time.Now().Add(-48*time.Hour))

	removed, err := p.CleanupOlderThan(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("CleanupOlderThan: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if _, _, _, ok := store.Object("resumes/fresh.pdf"); !ok {
		t.Fatal("fresh artifact removed")
	}
	if _, _, _, ok := store.Object("resumes/stale.pdf"); ok {
		t.Fatal("stale artifact still present")
	}
}
