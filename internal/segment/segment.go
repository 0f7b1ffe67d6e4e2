// Package segment splits long transcripts into sentence-aligned segments
// that fit the text-generation service's input budget.
//
// All lengths are counted in characters (runes), not bytes, so Chinese and
// Latin text are bounded alike.
package segment

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Default segment bounds.
const (
	DefaultMinLength = 300
	DefaultMaxLength = 1000
)

// Split packs the sentences of text into segments.
//
// Text no longer than maxLength (after trimming) is returned whole, and
// empty text yields no segments. Otherwise sentences are appended greedily
// while the segment stays within maxLength; when the next sentence does not
// fit, the segment is emitted only if it already holds minLength
// characters, else the sentence is appended anyway and the segment
// overshoots. The final segment is always emitted, however short.
// Segments are trimmed. The result is a pure function of its inputs.
func Split(text string, minLength, maxLength int) []string {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	minLength = min(max(minLength, 0), maxLength)

	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if utf8.RuneCountInString(text) <= maxLength {
		return []string{text}
	}

	// curLen counts the raw accumulator, separators included, and bounds
	// maxLength; the minLength check is made on the trimmed text that
	// flush actually emits.
	var (
		segments []string
		cur      strings.Builder
		curLen   int
	)
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			segments = append(segments, s)
		}
		cur.Reset()
		curLen = 0
	}
	trimmedLen := func() int {
		return utf8.RuneCountInString(strings.TrimSpace(cur.String()))
	}

	for _, sentence := range Sentences(text) {
		n := utf8.RuneCountInString(sentence)
		if curLen+n > maxLength && curLen > 0 && trimmedLen() >= minLength {
			flush()
		}
		cur.WriteString(sentence)
		curLen += n
	}
	flush()

	return segments
}

// Sentences splits text after sentence terminators. Full-width terminators
// (。！？) always end a sentence; ASCII ones (.!?) only when followed by
// whitespace or the end of text, so "3.14" and "e.g.x" stay whole. Closing
// quotes and brackets right after a terminator, and the whitespace after
// that, stay with the sentence they close. Concatenating the result gives
// back text unchanged.
func Sentences(text string) []string {
	var (
		out   []string
		start int
	)
	runes := []rune(text)
	i := 0
	for i < len(runes) {
		i++
		if !endsSentence(runes, i-1) {
			continue
		}
		for i < len(runes) && (isTerminator(runes[i]) || isCloser(runes[i])) {
			i++
		}
		for i < len(runes) && unicode.IsSpace(runes[i]) {
			i++
		}
		out = append(out, string(runes[start:i]))
		start = i
	}
	if start < len(runes) {
		out = append(out, string(runes[start:]))
	}
	return out
}

// endsSentence reports whether runes[i] terminates a sentence.
func endsSentence(runes []rune, i int) bool {
	switch runes[i] {
	case '。', '！', '？':
		return true
	case '.', '!', '?':
		next := i + 1
		for next < len(runes) && isCloser(runes[next]) {
			next++
		}
		return next == len(runes) || unicode.IsSpace(runes[next])
	}
	return false
}

func isTerminator(r rune) bool {
	switch r {
	case '。', '！', '？', '.', '!', '?':
		return true
	}
	return false
}

func isCloser(r rune) bool {
	switch r {
	case '」', '』', '）', ')', '"', '\'', '”', '’':
		return true
	}
	return false
}
