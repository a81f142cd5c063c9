// Package recognizer extracts handwritten digits from an image, either by
// calling the model directly or through the relay server.
package recognizer

import (
	"context"
	_ "embed"
	"strings"
)

//go:embed prompt/digits.md
var digitsPrompt string

// Prompt returns the fixed instruction sent with every image
func Prompt() string {
	return strings.TrimSpace(digitsPrompt)
}

// Recognizer returns the sanitized digit transcript of an image given as a
// data URI. Failures are *model.Failure values.
type Recognizer interface {
	Recognize(ctx context.Context, image string) (string, error)
}

type Mode string

const (
	ModeDirect Mode = "direct"
	ModeRelay  Mode = "relay"
)

func (m Mode) Validate() bool {
	return m == ModeDirect || m == ModeRelay
}
