package errors

import "fmt"

type ErrorCode string

const (
	// Generic transport codes
	ErrInvalidInput       ErrorCode = "INVALID_INPUT"
	ErrInvalidRequestData ErrorCode = "INVALID_REQUEST_DATA"
	ErrUnauthorized       ErrorCode = "UNAUTHORIZED"
	ErrForbidden          ErrorCode = "FORBIDDEN"
	ErrNotFound           ErrorCode = "NOT_FOUND"
	ErrAlreadyExists      ErrorCode = "ALREADY_EXISTS"
	ErrInternalServer     ErrorCode = "INTERNAL_SERVER"

	// Credential lifecycle
	ErrAuthCancelled ErrorCode = "AUTH_CANCELLED"
	ErrAuthBlocked   ErrorCode = "AUTH_BLOCKED"
	ErrAuthFailure   ErrorCode = "AUTH_FAILURE"
	ErrAuthExpired   ErrorCode = "AUTH_EXPIRED"

	// Calendar sync
	ErrNetworkFailure ErrorCode = "NETWORK_FAILURE"
	ErrRemoteRejected ErrorCode = "REMOTE_REJECTED"
	ErrSyncInProgress ErrorCode = "SYNC_IN_PROGRESS"

	// Notification dispatch
	ErrChannelUnconfigured ErrorCode = "CHANNEL_UNCONFIGURED"
	ErrChannelFailure      ErrorCode = "CHANNEL_FAILURE"

	// Configuration
	ErrMissingCredential ErrorCode = "MISSING_CREDENTIAL"
)

type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches on the error code so callers can compare against sentinel kinds
// with errors.Is regardless of message or wrapped cause.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// CodeOf extracts the ErrorCode from err, or ErrInternalServer when err is not
// an AppError.
func CodeOf(err error) ErrorCode {
	if ae, ok := err.(*AppError); ok && ae != nil {
		return ae.Code
	}
	return ErrInternalServer
}
