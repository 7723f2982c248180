package util

import (
	"errors"
	"testing"
)

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "plain", in: "resume.pdf", want: "resume.pdf"},
		{name: "separators", in: "a/b\\c.pdf", want: "a_b_c.pdf"},
		{name: "control chars", in: "cv\x00\n.pdf", want: "cv.pdf"},
		{name: "traversal", in: "../etc/passwd", wantErr: true},
		{name: "blank", in: "   ", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeFileName(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidFileName) {
					t.Fatalf("expected ErrInvalidFileName, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %q want %q", got, tt.want)
			}
		})
	}
}

func TestSwapExtension(t *testing.T) {
	cases := map[string]string{
		"resume.pdf":   "resume.png",
		"my.cv.v2.pdf": "my.cv.v2.png",
		"noext":        "noext.png",
		".pdf":         "file.png",
	}
	for in, want := range cases {
		if got := SwapExtension(in, ".png"); got != want {
			t.Fatalf("SwapExtension(%q) = %q, want %q", in, got, want)
		}
	}
}
