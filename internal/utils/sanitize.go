package utils

import (
	"errors"
	"html"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

const (
	MinPromptLength = 3
	MaxPromptLength = 1000
)

var (
	ErrPromptTooShort  = errors.New("prompt must contain at least 3 characters")
	ErrPromptTooLong   = errors.New("prompt must not exceed 1000 characters")
	ErrPromptForbidden = errors.New("prompt contains forbidden characters")
	strictPolicy       = bluemonday.StrictPolicy()
)

// SanitizePrompt strips markup from a user prompt and checks its length.
func SanitizePrompt(prompt string) (string, error) {
	for _, r := range prompt {
		if unicode.IsControl(r) && r != '\n' && r != '\t' && r != '\r' {
			return "", ErrPromptForbidden
		}
	}

	cleaned := html.UnescapeString(strictPolicy.Sanitize(prompt))
	cleaned = strings.TrimSpace(cleaned)

	n := utf8.RuneCountInString(cleaned)
	if n < MinPromptLength {
		return "", ErrPromptTooShort
	}
	if n > MaxPromptLength {
		return "", ErrPromptTooLong
	}
	return cleaned, nil
}
