package quiz

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/alnah/go-lecturequiz/internal/format"
)

// rawPreviewLen bounds the raw text kept on a MalformedResponseError.
const rawPreviewLen = 500

var (
	// ErrMalformedResponse matches every MalformedResponseError.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrUnexpectedShape indicates parsed data is neither an array nor an
	// object with an "items" array.
	ErrUnexpectedShape = errors.New("unexpected payload shape")
)

// MalformedResponseError reports generated text with no decodable payload.
type MalformedResponseError struct {
	Raw string // first 500 characters of the response
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("%v: no structured data in %d-character preview", ErrMalformedResponse, len([]rune(e.Raw)))
}

// Is reports ErrMalformedResponse as a match.
func (e *MalformedResponseError) Is(target error) bool {
	return target == ErrMalformedResponse
}

var (
	fencePattern         = regexp.MustCompile("(?is)```(?:json)?[ \t]*\\r?\\n?(.*?)```")
	trailingCommaPattern = regexp.MustCompile(`,\s*([\]}])`)
	quoteReplacer        = strings.NewReplacer("“", `"`, "”", `"`, "„", `"`, "‘", "'", "’", "'")
)

// Decode extracts the item list from loosely formatted generated text.
// First success wins:
//  1. the whole text;
//  2. the content of a fenced code block;
//  3. each balanced top-level array or object in order, then the span from
//     the first opening bracket to the last matching closing one.
//
// Candidates from steps 2 and 3 are parsed as is and then repaired (curly
// quotes straightened, trailing commas removed). A candidate only counts
// when it is an array, bare or under an "items" key, that is empty or holds
// at least one object. Non-object elements are kept for the normalizers to
// drop. Otherwise Decode returns a *MalformedResponseError.
func Decode(raw string) ([]any, error) {
	if items, ok := parseItems(strings.TrimSpace(raw)); ok {
		return items, nil
	}
	for _, candidate := range candidates(raw) {
		if items, ok := parseItems(candidate); ok {
			return items, nil
		}
		if items, ok := parseItems(repair(candidate)); ok {
			return items, nil
		}
	}
	return nil, &MalformedResponseError{Raw: format.Truncate(raw, rawPreviewLen)}
}

// Items returns the element list of a parsed payload.
func Items(payload any) ([]any, error) {
	switch v := payload.(type) {
	case []any:
		return v, nil
	case map[string]any:
		if items, ok := v["items"].([]any); ok {
			return items, nil
		}
	}
	return nil, ErrUnexpectedShape
}

func parseItems(s string) ([]any, bool) {
	if s == "" {
		return nil, false
	}
	var payload any
	if err := json.Unmarshal([]byte(s), &payload); err != nil {
		return nil, false
	}
	items, err := Items(payload)
	if err != nil {
		return nil, false
	}
	if len(items) == 0 {
		return items, true
	}
	for _, it := range items {
		if _, ok := it.(map[string]any); ok {
			return items, true
		}
	}
	return nil, false
}

// candidates lists substrings of raw that may hold the payload, in the
// order they are tried.
func candidates(raw string) []string {
	var out []string
	if m := fencePattern.FindStringSubmatch(raw); m != nil {
		out = append(out, strings.TrimSpace(m[1]))
	}
	out = append(out, balanced(raw)...)
	if s, ok := greedy(raw); ok {
		out = append(out, s)
	}
	return out
}

// balanced returns the top-level arrays and objects of raw whose brackets
// close, in order, skipping brackets inside string literals.
func balanced(raw string) []string {
	var (
		out      []string
		stack    []byte
		start    int
		inString bool
		escaped  bool
	)
	for i := 0; i < len(raw); i++ {
		c := raw[i]
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
			inString = len(stack) > 0
		case '[', '{':
			if len(stack) == 0 {
				start = i
			}
			stack = append(stack, closerOf(c))
		case ']', '}':
			if len(stack) == 0 {
				continue
			}
			if stack[len(stack)-1] != c {
				stack = stack[:0]
				continue
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				out = append(out, raw[start:i+1])
			}
		}
	}
	return out
}

func closerOf(opener byte) byte {
	if opener == '{' {
		return '}'
	}
	return ']'
}

// greedy returns the span from the first opening bracket to the last
// matching closing bracket.
func greedy(raw string) (string, bool) {
	start := strings.IndexAny(raw, "[{")
	if start < 0 {
		return "", false
	}
	end := strings.LastIndexByte(raw, closerOf(raw[start]))
	if end <= start {
		return "", false
	}
	return raw[start : end+1], true
}

// repair straightens typographic quotes and drops trailing commas.
func repair(s string) string {
	s = quoteReplacer.Replace(s)
	return trailingCommaPattern.ReplaceAllString(s, "$1")
}
