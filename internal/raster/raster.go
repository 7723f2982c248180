// Package raster renders the first page of a PDF to a PNG preview.
package raster

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"resumind/internal/extract"
	"resumind/internal/shared/util"
)

const contentTypePNG = "image/png"

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

// Image is a rendered preview.
type Image struct {
	Name        string
	ContentType string
	Data        []byte
}

// Rasterizer renders the first page of a PDF.
type Rasterizer interface {
	FirstPage(ctx context.Context, name string, pdf []byte) (Image, error)
}

// Error is a conversion failure. Reason is safe to show to users.
type Error struct {
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Reason
	}
	return e.Reason + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// Poppler shells out to pdftoppm. There is no pure Go PDF renderer we can
// depend on, so the poppler binary must be installed on the host.
type Poppler struct {
	Path string
	DPI  int
}

// NewPoppler returns a rasterizer using the binary at path.
func NewPoppler(path string, dpi int) *Poppler {
	if strings.TrimSpace(path) == "" {
		path = "pdftoppm"
	}
	if dpi <= 0 {
		dpi = 110
	}
	return &Poppler{Path: path, DPI: dpi}
}

// Check verifies the binary can be found.
func (p *Poppler) Check() error {
	if _, err := exec.LookPath(p.Path); err != nil {
		return fmt.Errorf("pdftoppm not available at %q: %w", p.Path, err)
	}
	return nil
}

// FirstPage validates the PDF and renders page one as PNG. The image is named
// after the source file with a .png extension.
func (p *Poppler) FirstPage(ctx context.Context, name string, pdf []byte) (Image, error) {
	if _, err := extract.PageCount(pdf); err != nil {
		return Image{}, &Error{Reason: "The file is not a readable PDF", Err: err}
	}

	in, err := os.CreateTemp("", "raster-*.pdf")
	if err != nil {
		return Image{}, &Error{Reason: "Failed to convert PDF to image", Err: err}
	}
	defer os.Remove(in.Name())
	if _, err := in.Write(pdf); err != nil {
		in.Close()
		return Image{}, &Error{Reason: "Failed to convert PDF to image", Err: err}
	}
	if err := in.Close(); err != nil {
		return Image{}, &Error{Reason: "Failed to convert PDF to image", Err: err}
	}

	// With no output root pdftoppm writes the single page to stdout.
	cmd := exec.CommandContext(ctx, p.Path,
		"-png", "-singlefile",
		"-f", "1", "-l", "1",
		"-r", strconv.Itoa(p.DPI),
		in.Name(),
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Image{}, ctxErr
		}
		return Image{}, &Error{
			Reason: "Failed to convert PDF to image",
			Err:    fmt.Errorf("pdftoppm: %w: %s", err, strings.TrimSpace(stderr.String())),
		}
	}

	out := stdout.Bytes()
	if len(out) == 0 {
		return Image{}, &Error{Reason: "Failed to convert PDF to image", Err: errors.New("pdftoppm produced no output")}
	}
	if !bytes.HasPrefix(out, pngMagic) {
		return Image{}, &Error{Reason: "Failed to convert PDF to image", Err: errors.New("pdftoppm output is not a PNG")}
	}

	return Image{
		Name:        util.SwapExtension(name, ".png"),
		ContentType: contentTypePNG,
		Data:        out,
	}, nil
}

var _ Rasterizer = (*Poppler)(nil)
