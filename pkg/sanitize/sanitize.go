// Package sanitize turns free-form model answers into digit transcripts.
package sanitize

import (
	"regexp"
	"strings"

	"github.com/m-mizutani/digitnote/pkg/model"
)

// refusalPhrases are matched case-insensitively anywhere in the answer. The
// model is told to answer exactly NONE, but it sometimes answers in prose.
var refusalPhrases = []string{
	"none",
	"no number",
	"no handwritten",
}

// nonDigit matches everything outside of ASCII digits, space and newline
var nonDigit = regexp.MustCompile(`[^0-9 \n]+`)

// Digits validates a raw model answer and returns the digits it contains with
// the original line layout. It returns model.ErrEmptyResponse for blank input
// and model.ErrNoDigitsFound when the answer is a refusal or has no digits.
func Digits(raw string) (string, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", model.ErrEmptyResponse
	}

	if IsRefusal(text) {
		return "", model.ErrNoDigitsFound
	}

	cleaned := strings.TrimSpace(nonDigit.ReplaceAllString(text, ""))
	if cleaned == "" {
		return "", model.ErrNoDigitsFound
	}

	return cleaned, nil
}

// IsRefusal reports whether text contains one of the "no result" signals.
// A response such as "NONE OF THESE, BUT 5" is still a refusal.
func IsRefusal(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range refusalPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
