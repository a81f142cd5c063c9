package model

import (
	"errors"
	"fmt"
)

// DefaultErrorMessage is shown when an error carries no user-facing text
const DefaultErrorMessage = "An unexpected error occurred. Please try again."

type FailureKind string

const (
	FailureEmptyResponse     FailureKind = "empty_response"
	FailureNoDigitsFound     FailureKind = "no_digits_found"
	FailureRecognitionFailed FailureKind = "recognition_failed"
	FailureImageDecode       FailureKind = "image_decode"
	FailureInvalidRequest    FailureKind = "invalid_request"
)

// Failure is a terminal error of a single user action. Message is safe to show
// to the user as is.
type Failure struct {
	Kind    FailureKind
	Message string
	// Status is the upstream HTTP status if the failure came from a provider
	Status int
	Err    error
}

var (
	ErrEmptyResponse     = &Failure{Kind: FailureEmptyResponse, Message: "No response from AI"}
	ErrNoDigitsFound     = &Failure{Kind: FailureNoDigitsFound, Message: "No handwritten numbers found in the image"}
	ErrRecognitionFailed = &Failure{Kind: FailureRecognitionFailed, Message: "Failed to analyze image"}
	ErrImageDecode       = &Failure{Kind: FailureImageDecode, Message: "Failed to process image"}
	ErrInvalidRequest    = &Failure{Kind: FailureInvalidRequest, Message: "Invalid request"}
)

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %v", f.Message, f.Err)
	}
	return f.Message
}

func (f *Failure) Unwrap() error { return f.Err }

// Is matches any Failure of the same kind
func (f *Failure) Is(target error) bool {
	t, ok := target.(*Failure)
	return ok && t.Kind == f.Kind
}

func (f *Failure) UserMessage() string { return f.Message }

// RecognitionFailed builds a RecognitionFailed failure. An empty message falls
// back to the generic one.
func RecognitionFailed(message string, status int) *Failure {
	if message == "" {
		message = ErrRecognitionFailed.Message
	}
	return &Failure{Kind: FailureRecognitionFailed, Message: message, Status: status}
}

// ImageDecodeError wraps a decoder error
func ImageDecodeError(err error) *Failure {
	return &Failure{Kind: FailureImageDecode, Message: ErrImageDecode.Message, Err: err}
}

// InvalidRequest builds a validation failure with a user-facing message
func InvalidRequest(message string) *Failure {
	return &Failure{Kind: FailureInvalidRequest, Message: message}
}

type userMessager interface {
	UserMessage() string
}

// DisplayMessage returns the user-facing text of err. Raw provider details are
// never returned; unknown errors get DefaultErrorMessage.
func DisplayMessage(err error) string {
	if err == nil {
		return ""
	}
	var um userMessager
	if errors.As(err, &um) {
		if msg := um.UserMessage(); msg != "" {
			return msg
		}
	}
	return DefaultErrorMessage
}
