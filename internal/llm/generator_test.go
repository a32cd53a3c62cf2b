package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"resumegen/internal/profile"
)

type scriptedClient struct {
	responses []string
	errs      []error
	calls     int
	strict    []bool
}

func (s *scriptedClient) GenerateResume(ctx context.Context, input GenerateInput) (string, error) {
	i := s.calls
	s.calls++
	s.strict = append(s.strict, StrictPromptFromContext(ctx))
	if i < len(s.errs) && s.errs[i] != nil {
		return "", s.errs[i]
	}
	if i < len(s.responses) {
		return s.responses[i], nil
	}
	return "", fmt.Errorf("unexpected call %d", i)
}

func testInput() GenerateInput {
	return GenerateInput{
		Profile: profile.CandidateProfile{
			PersonalInfo: profile.PersonalInfo{Name: "Ada Lovelace", Email: "ada@example.com"},
			Skills:       []string{"Math"},
		},
		JobDescription: "Research mathematician role",
		TemplateStyle:  profile.StyleModern,
	}
}

func newTestGenerator(c Client) *Generator {
	g := NewGenerator(c, time.Second, 2)
	g.policy.Initial = time.Millisecond
	g.policy.Max = 2 * time.Millisecond
	g.policy.OnRetry = nil
	return g
}

func TestGenerateReturnsExtractedDocument(t *testing.T) {
	client := &scriptedClient{responses: []string{"```latex\n" + sampleDoc + "\n```"}}
	g := newTestGenerator(client)

	doc, err := g.Generate(context.Background(), testInput())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if doc != sampleDoc {
		t.Fatalf("unexpected document:\n%s", doc)
	}
	if client.calls != 1 {
		t.Fatalf("expected 1 call, got %d", client.calls)
	}
}

func TestGenerateCorrectiveRetryOnMalformedOutput(t *testing.T) {
	client := &scriptedClient{responses: []string{
		"I cannot produce a resume.",
		sampleDoc,
	}}
	g := newTestGenerator(client)

	doc, err := g.Generate(context.Background(), testInput())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if doc != sampleDoc {
		t.Fatalf("unexpected document:\n%s", doc)
	}
	if client.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", client.calls)
	}
	if client.strict[0] || !client.strict[1] {
		t.Fatalf("expected strict prompt only on corrective retry, got %v", client.strict)
	}
}

func TestGenerateFailsAfterSingleCorrectiveRetry(t *testing.T) {
	client := &scriptedClient{responses: []string{
		"not latex",
		"still not latex",
	}}
	g := newTestGenerator(client)

	_, err := g.Generate(context.Background(), testInput())
	if !errors.Is(err, ErrMalformedOutput) {
		t.Fatalf("expected ErrMalformedOutput, got %v", err)
	}
	if client.calls != 2 {
		t.Fatalf("expected exactly 2 calls, got %d", client.calls)
	}
}

func TestGenerateRetriesTransientErrors(t *testing.T) {
	client := &scriptedClient{
		errs:      []error{errors.New("openai: http status 503"), nil},
		responses: []string{"", sampleDoc},
	}
	g := newTestGenerator(client)

	doc, err := g.Generate(context.Background(), testInput())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if doc != sampleDoc {
		t.Fatalf("unexpected document:\n%s", doc)
	}
	if client.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", client.calls)
	}
}

func TestGenerateSurfacesRateLimitAfterRetries(t *testing.T) {
	limited := fmt.Errorf("openai: %w", ErrRateLimited)
	client := &scriptedClient{errs: []error{limited, limited, limited}}
	g := newTestGenerator(client)

	_, err := g.Generate(context.Background(), testInput())
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if client.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", client.calls)
	}
}
