package identity

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strings"

	"github.com/m-mizutani/digitnote/pkg/model"
	"google.golang.org/api/googleapi"
)

const (
	CodeEmailAlreadyInUse         = "auth/email-already-in-use"
	CodeInvalidEmail              = "auth/invalid-email"
	CodeOperationNotAllowed       = "auth/operation-not-allowed"
	CodeWeakPassword              = "auth/weak-password"
	CodeUserDisabled              = "auth/user-disabled"
	CodeUserNotFound              = "auth/user-not-found"
	CodeWrongPassword             = "auth/wrong-password"
	CodeInvalidCredential         = "auth/invalid-credential"
	CodeInvalidLoginCredentials   = "auth/invalid-login-credentials"
	CodePopupClosedByUser         = "auth/popup-closed-by-user"
	CodePopupBlocked              = "auth/popup-blocked"
	CodeCancelledPopupRequest     = "auth/cancelled-popup-request"
	CodeAccountExistsWithOtherIdp = "auth/account-exists-with-different-credential"
	CodeNetworkRequestFailed      = "auth/network-request-failed"
	CodeTooManyRequests           = "auth/too-many-requests"
	CodeTimeout                   = "auth/timeout"
	CodeMissingEmail              = "auth/missing-email"
	CodeInternalError             = "auth/internal-error"
	CodeRequiresRecentLogin       = "auth/requires-recent-login"
	CodeNoCurrentUser             = "auth/no-current-user"
)

var messages = map[string]string{
	CodeEmailAlreadyInUse:   "This email is already registered. Please sign in instead.",
	CodeInvalidEmail:        "Please enter a valid email address.",
	CodeOperationNotAllowed: "Email/password sign up is not enabled. Please contact support.",
	CodeWeakPassword:        "Password is too weak. Please use at least 6 characters.",

	CodeUserDisabled:            "This account has been disabled. Please contact support.",
	CodeUserNotFound:            "No account found with this email address.",
	CodeWrongPassword:           "Incorrect password. Please try again.",
	CodeInvalidCredential:       "Invalid email or password. Please try again.",
	CodeInvalidLoginCredentials: "Invalid email or password. Please try again.",

	CodePopupClosedByUser:         "Sign-in was cancelled. Please try again.",
	CodePopupBlocked:              "Sign-in popup was blocked. Please allow popups for this site.",
	CodeCancelledPopupRequest:     "Sign-in was cancelled.",
	CodeAccountExistsWithOtherIdp: "An account already exists with this email using a different sign-in method.",

	CodeNetworkRequestFailed: "Network error. Please check your internet connection.",
	CodeTooManyRequests:      "Too many attempts. Please try again later.",
	CodeTimeout:              "Request timed out. Please try again.",

	CodeMissingEmail: "Please enter your email address.",

	CodeInternalError:       "An unexpected error occurred. Please try again.",
	CodeRequiresRecentLogin: "Please sign in again to continue.",
	CodeNoCurrentUser:       "No user logged in",
}

// providerCodes maps Identity Toolkit error strings to client codes
var providerCodes = map[string]string{
	"EMAIL_EXISTS":                   CodeEmailAlreadyInUse,
	"INVALID_EMAIL":                  CodeInvalidEmail,
	"OPERATION_NOT_ALLOWED":          CodeOperationNotAllowed,
	"PASSWORD_LOGIN_DISABLED":        CodeOperationNotAllowed,
	"WEAK_PASSWORD":                  CodeWeakPassword,
	"USER_DISABLED":                  CodeUserDisabled,
	"EMAIL_NOT_FOUND":                CodeUserNotFound,
	"USER_NOT_FOUND":                 CodeUserNotFound,
	"INVALID_PASSWORD":               CodeWrongPassword,
	"INVALID_IDP_RESPONSE":           CodeInvalidCredential,
	"INVALID_LOGIN_CREDENTIALS":      CodeInvalidLoginCredentials,
	"TOO_MANY_ATTEMPTS_TRY_LATER":    CodeTooManyRequests,
	"MISSING_EMAIL":                  CodeMissingEmail,
	"INVALID_ID_TOKEN":               CodeRequiresRecentLogin,
	"TOKEN_EXPIRED":                  CodeRequiresRecentLogin,
	"CREDENTIAL_TOO_OLD_LOGIN_AGAIN": CodeRequiresRecentLogin,
	"INTERNAL_ERROR":                 CodeInternalError,
}

// AuthError is an identity provider failure identified by a client code
type AuthError struct {
	Code string
	// ProviderMessage is the provider's own text, used for unknown codes
	ProviderMessage string
	// Message overrides the table entry for a specific operation
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	msg := "auth error: " + e.Code
	if e.ProviderMessage != "" {
		msg += " (" + e.ProviderMessage + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AuthError) Unwrap() error { return e.Err }

// UserMessage looks the code up in the fixed table, then falls back to the
// provider message and finally to the generic text
func (e *AuthError) UserMessage() string {
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

// Message returns the user-facing text for a client code
func Message(code string) string {
	if msg, ok := messages[code]; ok {
		return msg
	}
	return model.DefaultErrorMessage
}

// ErrNoCurrentUser is returned by operations that require a session
var ErrNoCurrentUser = &AuthError{Code: CodeNoCurrentUser}

// toAuthError converts an Identity Toolkit or transport error to *AuthError
func toAuthError(err error) *AuthError {
	if err == nil {
		return nil
	}

	var ae *AuthError
	if errors.As(err, &ae) {
		return ae
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		code, msg := parseProviderMessage(gerr.Message)
		if mapped, ok := providerCodes[code]; ok {
			return &AuthError{Code: mapped, ProviderMessage: msg, Err: err}
		}
		if code == "" {
			code = "auth/unknown"
		}
		return &AuthError{Code: code, ProviderMessage: gerr.Message, Err: err}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &AuthError{Code: CodeTimeout, Err: err}
	}

	var urlErr *url.Error
	var netErr net.Error
	if errors.As(err, &urlErr) || errors.As(err, &netErr) {
		return &AuthError{Code: CodeNetworkRequestFailed, Err: err}
	}

	return &AuthError{Code: CodeInternalError, Err: err}
}

// parseProviderMessage splits "WEAK_PASSWORD : Password should be..." into
// the code and the optional detail
func parseProviderMessage(s string) (string, string) {
	code, detail, _ := strings.Cut(s, ":")
	return strings.TrimSpace(code), strings.TrimSpace(detail)
}
