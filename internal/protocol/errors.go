package protocol

import "errors"

// Sentinels for the gateway's error taxonomy. Matched with errors.Is so
// call sites never inspect codes directly.
var (
	ErrInvalidMessageFormat = errors.New("invalid message format")
	ErrInvalidTarget        = errors.New("invalid target")
	ErrAuthentication       = errors.New("authentication failed")
	ErrInternal             = errors.New("internal")
)

const internalErrorMessage = "Could not fulfill request due to an unexpected server error."

// AppError is a client-safe error: its code and message may be written to
// the wire. Anything that is not an AppError is sanitized before it gets
// anywhere near a socket.
type AppError struct {
	Err     error
	Code    int
	Message string
}

func (e *AppError) Error() string { return e.Message }
func (e *AppError) Unwrap() error { return e.Err }

// NewAppError wraps a sentinel with a wire code and message.
func NewAppError(sentinel error, code int, message string) *AppError {
	return &AppError{Err: sentinel, Code: code, Message: message}
}

// InvalidMessageFormat reports a malformed or mistyped client message.
func InvalidMessageFormat(message string) *AppError {
	if message == "" {
		message = "Request is formatted incorrectly."
	}
	return NewAppError(ErrInvalidMessageFormat, CodeInvalidInput, message)
}

// InvalidTarget reports a message whose target has no registered handler.
func InvalidTarget(message string) *AppError {
	if message == "" {
		message = "Target not found."
	}
	return NewAppError(ErrInvalidTarget, CodeInvalidTarget, message)
}

// AuthenticationError reports an upgrade-time token failure.
func AuthenticationError(message string) *AppError {
	if message == "" {
		message = "Access denied."
	}
	return NewAppError(ErrAuthentication, CodeAuthError, message)
}

// InternalError is the catch-all. Its message is fixed; the original
// error's detail never reaches a client.
func InternalError() *AppError {
	return NewAppError(ErrInternal, CodeInternalError, internalErrorMessage)
}

// Sanitize returns err unchanged when it already is an AppError, and a
// generic InternalError otherwise. This is the single choke point keeping
// internal exception text off the wire; callers log the original err
// server-side before or after calling Sanitize.
func Sanitize(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return InternalError()
}
