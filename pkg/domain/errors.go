package domain

import (
	"errors"
	"fmt"
)

var (
	ErrAdapterNotFound = errors.New("provider adapter not found")
	ErrStateNotFound   = errors.New("authorization state not found")
	ErrAccountNotFound = errors.New("connected account not found")
	ErrContentNotFound = errors.New("content not found")
	ErrTeamNotFound    = errors.New("team not found")
)

type ErrorCode string

const (
	ErrorCode_Unauthorized        ErrorCode = "unauthorized"
	ErrorCode_Forbidden           ErrorCode = "forbidden"
	ErrorCode_MissingParams       ErrorCode = "missing_params"
	ErrorCode_InvalidState        ErrorCode = "invalid_state"
	ErrorCode_StateExpired        ErrorCode = "state_expired"
	ErrorCode_TokenExchangeFailed ErrorCode = "token_exchange_failed"
	ErrorCode_StorageFailed       ErrorCode = "storage_failed"
	ErrorCode_NotConfigured       ErrorCode = "not_configured"
	ErrorCode_PopupBlocked        ErrorCode = "popup_blocked"
	ErrorCode_PopupClosed         ErrorCode = "popup_closed"
	ErrorCode_NotFound            ErrorCode = "not_found"
)

// FlowError is the error shape crossing the service boundary. Controllers map
// the code to an HTTP status; raw provider error bodies never reach clients.
type FlowError struct {
	Code    ErrorCode
	Message string
}

func (e *FlowError) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewFlowError(code ErrorCode, message string) *FlowError {
	return &FlowError{Code: code, Message: message}
}

// CodeOf extracts the error code from err, defaulting to storage_failed for
// unclassified failures.
func CodeOf(err error) ErrorCode {
	var flowErr *FlowError
	if errors.As(err, &flowErr) {
		return flowErr.Code
	}
	return ErrorCode_StorageFailed
}

// HTTPStatusOf maps an error code to the status the HTTP surface responds with.
func HTTPStatusOf(code ErrorCode) int {
	switch code {
	case ErrorCode_Unauthorized:
		return 401
	case ErrorCode_Forbidden:
		return 403
	case ErrorCode_NotFound:
		return 404
	case ErrorCode_MissingParams, ErrorCode_InvalidState, ErrorCode_StateExpired:
		return 400
	default:
		return 500
	}
}
