package llm

import (
	"fmt"
	"strings"
)

// ExtractDocument strips any conversational wrapper and markdown fences from
// a model response and returns the bare LaTeX document. It fails with
// ErrMalformedOutput when no \documentclass declaration is present.
func ExtractDocument(raw string) (string, error) {
	text := stripCodeFences(strings.TrimSpace(raw))

	start := strings.Index(text, `\documentclass`)
	if start < 0 {
		return "", fmt.Errorf("no \\documentclass declaration in response: %w", ErrMalformedOutput)
	}
	text = text[start:]

	const endMarker = `\end{document}`
	if end := strings.LastIndex(text, endMarker); end >= 0 {
		text = text[:end+len(endMarker)]
	}

	return strings.TrimSpace(text), nil
}

// stripCodeFences removes a surrounding ```latex / ``` fence if present.
func stripCodeFences(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}

	body := text
	if idx := strings.Index(body, "\n"); idx >= 0 {
		body = body[idx+1:]
	} else {
		return text
	}
	if idx := strings.LastIndex(body, "```"); idx >= 0 {
		body = body[:idx]
	}
	return strings.TrimSpace(body)
}
