package util

import (
	"regexp"
	"strings"
)

var (
	// Matches "Bearer <token>" (JWTs and opaque tokens). Provider error bodies
	// occasionally echo request headers back.
	bearerTokenRe = regexp.MustCompile(`(?i)\bBearer\s+[^\s"']+`)

	// Common key=value formats that sometimes leak in error strings.
	apiKeyKVRe = regexp.MustCompile(`(?i)\b(api[_-]?key|access[_-]?key|secret[_-]?access[_-]?key)\b\s*[:=]\s*[^\s"']+`)

	// Absolute filesystem paths from compiler diagnostics.
	tmpPathRe = regexp.MustCompile(`/[\w./-]*resumegen-[\w-]+/`)
)

// SanitizeMessage flattens an error or diagnostic message to a single line,
// strips secret-bearing substrings and workspace paths, and truncates it to
// maxLen. Safe to call on upstream error strings and compiler output.
func SanitizeMessage(msg string, maxLen int) string {
	if msg == "" {
		return ""
	}
	out := strings.ReplaceAll(msg, "\n", " ")
	out = strings.ReplaceAll(out, "\r", " ")
	out = bearerTokenRe.ReplaceAllString(out, "Bearer <redacted>")
	out = apiKeyKVRe.ReplaceAllString(out, "<redacted>")
	out = tmpPathRe.ReplaceAllString(out, "<workspace>/")
	out = strings.TrimSpace(out)
	if maxLen > 0 && len(out) > maxLen {
		out = out[:maxLen]
	}
	return out
}

// SanitizeError is SanitizeMessage over err.Error() with the default cap.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return SanitizeMessage(err.Error(), 500)
}
