package documents

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"
)

// TextExtractor decodes a document into plain text.
type TextExtractor interface {
	Text(ctx context.Context, r io.Reader) (string, error)
}

// PDFText extracts text from PDF bytes.
type PDFText struct {
	// MaxBytes bounds how much input is buffered.
	MaxBytes int64
}

// Text reads r fully and returns the concatenated page text.
func (p PDFText) Text(ctx context.Context, r io.Reader) (text string, err error) {
	limit := p.MaxBytes
	if limit <= 0 {
		limit = 10 << 20
	}
	raw, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return "", fmt.Errorf("read pdf: %w", err)
	}
	if int64(len(raw)) > limit {
		return "", fmt.Errorf("read pdf: exceeds %d bytes", limit)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	// The parser panics on some malformed inputs.
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("decode pdf: %v", rec)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", fmt.Errorf("decode pdf: %w", err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("decode pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("decode pdf text: %w", err)
	}
	return buf.String(), nil
}
