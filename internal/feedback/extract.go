package feedback

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
)

var fencePattern = regexp.MustCompile("(?s)```(?i:json)?\\s*(.*?)```")

// Extract recovers a Result from raw model output that may wrap the payload in
// prose or a fenced code block. It returns nil when no complete payload can be
// parsed; a partially decoded result is never returned.
func Extract(raw string) *Result {
	text := strings.TrimSpace(raw)

	if m := fencePattern.FindStringSubmatch(text); m != nil {
		text = strings.TrimSpace(m[1])
	}

	start := strings.IndexByte(text, '{')
	if start < 0 {
		return nil
	}
	if end := matchingBrace(text, start); end >= 0 {
		text = text[start : end+1]
	}

	return decode(text)
}

// matchingBrace returns the index of the brace closing the one at start, or -1
// when the payload is unbalanced. Braces inside string literals do not count.
func matchingBrace(text string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func decode(text string) *Result {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &probe); err != nil {
		return nil
	}
	score, ok := probe["overallScore"]
	if !ok || bytes.Equal(bytes.TrimSpace(score), []byte("null")) {
		return nil
	}

	var out Result
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return nil
	}
	return &out
}
