package extract

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"resumind/internal/extract/extracttest"
	"resumind/internal/shared/storage/object/local"
)

func TestPDFTextReadsPage(t *testing.T) {
	data := extracttest.PDF("Hello Resume", "Senior Engineer")

	text, err := PDFText(data)
	if err != nil {
		t.Fatalf("PDFText: %v", err)
	}
	if !strings.Contains(text, "Hello") {
		t.Fatalf("expected extracted text to contain Hello, got %q", text)
	}
}

func TestPageCount(t *testing.T) {
	n, err := PageCount(extracttest.PDF("one page"))
	if err != nil {
		t.Fatalf("PageCount: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 page, got %d", n)
	}
}

func TestRejectsNonPDF(t *testing.T) {
	if _, err := PageCount([]byte("PK\x03\x04 zip file")); !errors.Is(err, ErrNotPDF) {
		t.Fatalf("expected ErrNotPDF, got %v", err)
	}
	if _, err := PDFText(nil); !errors.Is(err, ErrNotPDF) {
		t.Fatalf("expected ErrNotPDF, got %v", err)
	}
}

func TestCorruptPDFReturnsError(t *testing.T) {
	if _, err := PageCount([]byte("%PDF-1.4\ngarbage without xref")); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestTextFromStore(t *testing.T) {
	store := local.New(t.TempDir())
	ctx := context.Background()
	obj, err := store.Save(ctx, "owner", "cv.pdf", bytes.NewReader(extracttest.PDF("Stored Resume")))
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	text, err := Text(ctx, store, obj.Key)
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	if !strings.Contains(text, "Stored") {
		t.Fatalf("unexpected text %q", text)
	}
}
