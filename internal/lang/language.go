// Package lang validates the language codes used for transcription hints
// and for the output language of summaries and quizzes.
package lang

import (
	"fmt"
	"strings"
)

// baseLanguages lists ISO 639-1 codes accepted by the transcription API.
var baseLanguages = map[string]string{
	"ar": "Arabic",
	"da": "Danish",
	"de": "German",
	"el": "Greek",
	"en": "English",
	"es": "Spanish",
	"fi": "Finnish",
	"fr": "French",
	"he": "Hebrew",
	"hi": "Hindi",
	"id": "Indonesian",
	"it": "Italian",
	"ja": "Japanese",
	"ko": "Korean",
	"ms": "Malay",
	"nl": "Dutch",
	"no": "Norwegian",
	"pl": "Polish",
	"pt": "Portuguese",
	"ru": "Russian",
	"sv": "Swedish",
	"th": "Thai",
	"tr": "Turkish",
	"uk": "Ukrainian",
	"vi": "Vietnamese",
	"zh": "Chinese",
}

// regionalNames overrides the display name for locales whose script or
// variant matters to the text-generation service.
var regionalNames = map[string]string{
	"en-us": "American English",
	"en-gb": "British English",
	"pt-br": "Brazilian Portuguese",
	"zh-cn": "Simplified Chinese",
	"zh-tw": "Traditional Chinese",
	"zh-hk": "Traditional Chinese",
}

// Language is a validated language code such as "en" or "zh-TW".
// The zero value means "not specified".
type Language struct {
	code string // normalized: lowercase, hyphen separator
}

// Compile-time interface compliance check.
var _ fmt.Stringer = Language{}

// Normalize normalizes a language code to lowercase with hyphen separator.
// Accepts: "zh-TW", "zh_TW", "ZH-tw" -> "zh-tw"
func Normalize(code string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(code), "_", "-"))
}

// Parse validates code. Empty input yields the zero Language.
func Parse(code string) (Language, error) {
	normalized := Normalize(code)
	if normalized == "" {
		return Language{}, nil
	}
	base, _, _ := strings.Cut(normalized, "-")
	if _, ok := baseLanguages[base]; !ok {
		return Language{}, fmt.Errorf("invalid language code %q (use ISO 639-1 codes like 'en', 'zh-TW'): %w",
			code, ErrInvalid)
	}
	return Language{code: normalized}, nil
}

// MustParse parses code, panicking if invalid.
// Use only for compile-time constants and tests.
func MustParse(code string) Language {
	l, err := Parse(code)
	if err != nil {
		panic(err)
	}
	return l
}

// String returns the normalized code.
func (l Language) String() string { return l.code }

// IsZero reports whether no language was specified.
func (l Language) IsZero() bool { return l.code == "" }

// BaseCode returns the ISO 639-1 part, which is all the transcription API accepts.
func (l Language) BaseCode() string {
	base, _, _ := strings.Cut(l.code, "-")
	return base
}

// IsEnglish reports whether l is any English variant.
func (l Language) IsEnglish() bool {
	return l.BaseCode() == "en"
}

// DisplayName returns a human-readable name for prompts.
func (l Language) DisplayName() string {
	if name, ok := regionalNames[l.code]; ok {
		return name
	}
	if name, ok := baseLanguages[l.BaseCode()]; ok {
		return name
	}
	return l.code
}

// Instruction returns the prompt line that pins the response language,
// or "" when l is zero or English (the prompts are written in English).
func (l Language) Instruction() string {
	if l.IsZero() || l.IsEnglish() {
		return ""
	}
	return fmt.Sprintf("Respond in %s.", l.DisplayName())
}
