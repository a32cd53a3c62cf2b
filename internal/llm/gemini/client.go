package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"resumegen/internal/llm"
)

// Client implements llm.Client using the Gemini API.
type Client struct {
	client    *genai.Client
	model     string
	maxTokens int
}

// NewClient constructs a new Gemini client.
func NewClient(ctx context.Context, apiKey, model string, maxTokens int) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("LLM_API_KEY is required for Gemini")
	}
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("LLM_MODEL is required for Gemini")
	}
	if maxTokens <= 0 {
		maxTokens = 2048
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  strings.TrimSpace(apiKey),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &Client{
		client:    client,
		model:     strings.TrimSpace(model),
		maxTokens: maxTokens,
	}, nil
}

// GenerateResume sends one generation request and returns the raw model text.
func (c *Client) GenerateResume(ctx context.Context, input llm.GenerateInput) (string, error) {
	messages := llm.BuildMessages(input, llm.StrictPromptFromContext(ctx))

	var system, user strings.Builder
	for _, m := range messages {
		if m.Role == "system" {
			if system.Len() > 0 {
				system.WriteString("\n\n")
			}
			system.WriteString(m.Content)
			continue
		}
		if user.Len() > 0 {
			user.WriteString("\n\n")
		}
		user.WriteString(m.Content)
	}

	resp, err := c.client.Models.GenerateContent(
		ctx,
		c.model,
		genai.Text(user.String()),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(system.String(), genai.RoleUser),
			CandidateCount:    1,
			Temperature:       genai.Ptr[float32](0.2),
			MaxOutputTokens:   int32(c.maxTokens),
		},
	)
	if err != nil {
		return "", classifyErr(err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("gemini response empty content")
	}
	return text, nil
}

func classifyErr(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == 429 {
			return fmt.Errorf("gemini: %w", llm.ErrRateLimited)
		}
		if apiErr.Code/100 == 5 {
			return fmt.Errorf("gemini: http status %d", apiErr.Code)
		}
	}
	return err
}

var _ llm.Client = (*Client)(nil)
