package latex

import (
	"os"
	"strings"
)

// maxDiagnostics bounds the diagnostic text attached to a SyntaxError so a
// runaway log cannot bloat error payloads.
const maxDiagnostics = 2000

// collectDiagnostics extracts the meaningful error lines from the
// toolchain's combined output and its log file, truncated to a bounded
// length.
func collectDiagnostics(output []byte, ws *Workspace) string {
	text := string(output)
	if logData, err := os.ReadFile(ws.Path("resume.log")); err == nil {
		text += "\n" + string(logData)
	}

	var lines []string
	seen := map[string]struct{}{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "!") && !strings.Contains(line, "Error") {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		lines = append(lines, line)
	}

	diag := strings.Join(lines, "; ")
	if diag == "" {
		// No recognizable error lines; fall back to the tail of the raw output.
		diag = strings.TrimSpace(text)
		if len(diag) > maxDiagnostics {
			diag = diag[len(diag)-maxDiagnostics:]
		}
	}
	if len(diag) > maxDiagnostics {
		diag = diag[:maxDiagnostics]
	}
	if diag == "" {
		diag = "unknown compilation error"
	}
	return diag
}
