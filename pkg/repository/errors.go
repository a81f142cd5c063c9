package repository

import (
	"errors"
	"strings"

	"github.com/m-mizutani/digitnote/pkg/model"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	CodePermissionDenied   = "permission-denied"
	CodeUnavailable        = "unavailable"
	CodeNotFound           = "not-found"
	CodeAlreadyExists      = "already-exists"
	CodeResourceExhausted  = "resource-exhausted"
	CodeFailedPrecondition = "failed-precondition"
	CodeAborted            = "aborted"
	CodeDeadlineExceeded   = "deadline-exceeded"
	CodeUnauthenticated    = "unauthenticated"
	CodeUnknown            = "unknown"
)

const indexNotReadyMessage = "History feature is being set up. Please try again in a few minutes."

var messages = map[string]string{
	CodePermissionDenied:   "You do not have permission to perform this action.",
	CodeUnavailable:        "Service is temporarily unavailable. Please try again.",
	CodeNotFound:           "The requested data was not found.",
	CodeAlreadyExists:      "This entry already exists.",
	CodeResourceExhausted:  "Too many requests. Please try again later.",
	CodeFailedPrecondition: "Operation failed. Please try again.",
	CodeAborted:            "Operation was cancelled. Please try again.",
	CodeDeadlineExceeded:   "Request timed out. Please try again.",
	CodeUnauthenticated:    "Please sign in to continue.",
}

var grpcCodes = map[codes.Code]string{
	codes.PermissionDenied:   CodePermissionDenied,
	codes.Unavailable:        CodeUnavailable,
	codes.NotFound:           CodeNotFound,
	codes.AlreadyExists:      CodeAlreadyExists,
	codes.ResourceExhausted:  CodeResourceExhausted,
	codes.FailedPrecondition: CodeFailedPrecondition,
	codes.Aborted:            CodeAborted,
	codes.DeadlineExceeded:   CodeDeadlineExceeded,
	codes.Unauthenticated:    CodeUnauthenticated,
}

// StorageError is a persistence failure identified by a store code
type StorageError struct {
	Code string
	// ProviderMessage is the store's own text, used for unknown codes
	ProviderMessage string
	// Message overrides the table entry
	Message string
	Err     error
}

func (e *StorageError) Error() string {
	msg := "storage error: " + e.Code
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	if msg, ok := messages[e.Code]; ok {
		return msg
	}
	if e.ProviderMessage != "" {
		return e.ProviderMessage
	}
	return model.DefaultErrorMessage
}

// toStorageError converts a Firestore (gRPC) error to *StorageError
func toStorageError(err error) *StorageError {
	if err == nil {
		return nil
	}

	var se *StorageError
	if errors.As(err, &se) {
		return se
	}

	st, ok := status.FromError(err)
	if !ok {
		return &StorageError{Code: CodeUnknown, Err: err}
	}

	code, known := grpcCodes[st.Code()]
	if !known {
		code = strings.ToLower(strings.ReplaceAll(st.Code().String(), "_", "-"))
	}
	return &StorageError{Code: code, ProviderMessage: st.Message(), Err: err}
}

// toListError is toStorageError plus the missing composite index case, which
// happens while a fresh deployment is still building its indexes
func toListError(err error) *StorageError {
	se := toStorageError(err)
	if se != nil && se.Code == CodeFailedPrecondition && strings.Contains(strings.ToLower(se.ProviderMessage), "index") {
		se.Message = indexNotReadyMessage
	}
	return se
}
