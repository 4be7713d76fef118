package content

import (
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"supportly-be/pkg/rag"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
)

// ExtractFile sniffs an uploaded document and returns its text.
// Supported: PDF, HTML and any text/* payload.
func ExtractFile(name string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", rag.ExtractionError("extract file", fmt.Errorf("empty file %q", name))
	}

	detected := mimetype.Detect(data)
	switch {
	case isKind(detected, "application/pdf"):
		return extractPDF(data)
	case isKind(detected, "text/html"):
		return ExtractHTML(data), nil
	case isKind(detected, "text/plain"):
		if !utf8.Valid(data) {
			return "", rag.ExtractionError("extract file", fmt.Errorf("%q is not valid utf-8", name))
		}
		return Normalize(string(data)), nil
	}
	return "", rag.ExtractionError("extract file", fmt.Errorf("unsupported file type %s for %q", detected.String(), name))
}

// isKind walks the detected type's ancestry so text/csv and friends count
// as text/plain.
func isKind(m *mimetype.MIME, want string) bool {
	for ; m != nil; m = m.Parent() {
		if m.Is(want) {
			return true
		}
	}
	return false
}

func extractPDF(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", rag.ExtractionError("pdf reader", err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", rag.ExtractionError("pdf plaintext", err)
	}
	b, err := io.ReadAll(plain)
	if err != nil {
		return "", rag.ExtractionError("pdf read", err)
	}
	return Normalize(string(b)), nil
}
