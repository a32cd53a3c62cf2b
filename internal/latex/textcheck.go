package latex

import (
	"bytes"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// HasTextLayer reports whether the compiled PDF carries extractable text.
// Applicant-tracking parsers depend on a text layer, so a scan-like PDF is
// worth flagging even though it compiled cleanly. A parse failure counts as
// no text layer; this check never fails a run.
func HasTextLayer(data []byte) (ok bool) {
	defer func() {
		// The pdf package panics on some malformed inputs.
		if recover() != nil {
			ok = false
		}
	}()

	reader := bytes.NewReader(data)
	pdfReader, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return false
	}
	plain, err := pdfReader.GetPlainText()
	if err != nil {
		return false
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.LimitReader(plain, 4096)); err != nil {
		return false
	}
	return strings.TrimSpace(buf.String()) != ""
}
