package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"

	"resumind/internal/shared/storage/object"
)

// MaxPDFBytes caps how much of a stored PDF is read into memory.
const MaxPDFBytes = 20 << 20

var (
	// ErrNotPDF is returned when the payload lacks the PDF header.
	ErrNotPDF = errors.New("not a PDF document")
	// ErrNoPages is returned for PDFs that parse but contain no pages.
	ErrNoPages = errors.New("PDF has no pages")
)

// IsPDF reports whether data starts with the PDF magic header.
func IsPDF(data []byte) bool {
	return bytes.HasPrefix(data, []byte("%PDF-"))
}

// ReadObject loads a stored object fully into memory, refusing anything larger
// than MaxPDFBytes.
func ReadObject(ctx context.Context, store object.ObjectStore, key string) ([]byte, error) {
	body, err := store.Open(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("open key=%s: %w", key, err)
	}
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, MaxPDFBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read key=%s: %w", key, err)
	}
	if len(data) > MaxPDFBytes {
		return nil, fmt.Errorf("read key=%s: object exceeds %d bytes", key, MaxPDFBytes)
	}
	return data, nil
}

// Text pulls plain text from a PDF held in the object store.
// Library used: github.com/ledongthuc/pdf.
func Text(ctx context.Context, store object.ObjectStore, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := ReadObject(ctx, store, key)
	if err != nil {
		return "", fmt.Errorf("extract text: %w", err)
	}
	text, err := PDFText(data)
	if err != nil {
		return "", fmt.Errorf("extract text key=%s: %w", key, err)
	}
	return text, nil
}

// PDFText extracts the plain text of an in-memory PDF.
func PDFText(data []byte) (string, error) {
	r, err := open(data)
	if err != nil {
		return "", err
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// PageCount parses the document and returns its page count.
func PageCount(data []byte) (n int, err error) {
	r, err := open(data)
	if err != nil {
		return 0, err
	}
	n = r.NumPage()
	if n < 1 {
		return 0, ErrNoPages
	}
	return n, nil
}

// open guards the parser, which panics on some malformed inputs.
func open(data []byte) (r *pdf.Reader, err error) {
	if !IsPDF(data) {
		return nil, ErrNotPDF
	}
	defer func() {
		if rec := recover(); rec != nil {
			r = nil
			err = fmt.Errorf("parse pdf: %v", rec)
		}
	}()
	r, err = pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse pdf: %w", err)
	}
	return r, nil
}
