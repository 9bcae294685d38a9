package extract

import (
	"bytes"
	"io"
	"path"
	"strings"
	"unicode/utf8"

	"curriculum-rag-be/internal/pkg/apperror"

	"github.com/ledongthuc/pdf"
)

// Extractor turns a downloaded source document into plain text.
type Extractor interface {
	Extract(name string, data []byte) (string, error)
}

type extractor struct{}

func NewExtractor() Extractor {
	return &extractor{}
}

// Extract dispatches on the file extension. Whitespace-only results are
// reported as NoTextExtracted so callers can skip the document.
func (e *extractor) Extract(name string, data []byte) (string, error) {
	var (
		text string
		err  error
	)

	switch strings.ToLower(path.Ext(name)) {
	case ".pdf":
		text, err = extractPDF(data)
	case ".txt", ".md", ".markdown":
		text, err = extractPlain(data)
	default:
		return "", apperror.Newf(apperror.KindNoTextExtracted, "unsupported document type %q", path.Ext(name))
	}
	if err != nil {
		return "", err
	}

	text = normalizeNewlines(text)
	if strings.TrimSpace(text) == "" {
		return "", apperror.New(apperror.KindNoTextExtracted, "no text extracted")
	}
	return text, nil
}

func extractPDF(data []byte) (text string, err error) {
	// The pdf package panics on some malformed content streams.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = apperror.Newf(apperror.KindNoTextExtracted, "pdf parser panic: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", apperror.Wrap(apperror.KindNoTextExtracted, err, "open pdf")
	}

	// Page by page so paragraph boundaries survive between pages.
	var out strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if strings.TrimSpace(content) == "" {
			continue
		}
		out.WriteString(content)
		out.WriteString("\n\n")
	}
	if out.Len() > 0 {
		return out.String(), nil
	}

	// Some producers only work through the document-level reader.
	reader, err := r.GetPlainText()
	if err != nil {
		return "", apperror.Wrap(apperror.KindNoTextExtracted, err, "read pdf text")
	}
	b, err := io.ReadAll(reader)
	if err != nil {
		return "", apperror.Wrap(apperror.KindNoTextExtracted, err, "read pdf text")
	}
	return string(b), nil
}

func extractPlain(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", apperror.New(apperror.KindNoTextExtracted, "document is not valid UTF-8")
	}
	return string(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))), nil
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
