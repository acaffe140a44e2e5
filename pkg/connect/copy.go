package connect

import (
	"strings"

	"github.com/publora/publora/pkg/domain"
)

var errorCopy = map[domain.ErrorCode]string{
	domain.ErrorCode_Unauthorized:        "You need to sign in before connecting an account.",
	domain.ErrorCode_Forbidden:           "You don't have permission to connect accounts for this team.",
	domain.ErrorCode_MissingParams:       "Something was missing from the connection request. Please try again.",
	domain.ErrorCode_InvalidState:        "The connection attempt could not be verified. Please start over.",
	domain.ErrorCode_StateExpired:        "The connection attempt expired. Please start over.",
	domain.ErrorCode_TokenExchangeFailed: "The provider rejected the connection. Please try again.",
	domain.ErrorCode_StorageFailed:       "We couldn't save the connection. Please try again.",
	domain.ErrorCode_NotConfigured:       "This provider isn't configured on this deployment.",
	domain.ErrorCode_PopupBlocked:        "Your browser blocked the connection window. Redirecting instead.",
	domain.ErrorCode_PopupClosed:         "The connection window was closed before finishing.",
	domain.ErrorCode_NotFound:            "We couldn't find what the connection request referred to.",
}

// HumanMessage maps an error code to user-facing copy. Unknown codes fall
// back to substring matching so unanticipated provider strings still render
// something actionable.
func HumanMessage(code domain.ErrorCode, detail string) string {
	if msg, ok := errorCopy[code]; ok {
		return msg
	}

	haystack := strings.ToLower(string(code) + " " + detail)

	switch {
	case strings.Contains(haystack, "scope"), strings.Contains(haystack, "permission"):
		return "The provider didn't grant the permissions we need. Please reconnect and approve all requested permissions."
	case strings.Contains(haystack, "denied"), strings.Contains(haystack, "cancel"):
		return "The connection was cancelled on the provider's page."
	case strings.Contains(haystack, "rate"), strings.Contains(haystack, "too many"):
		return "The provider is rate limiting us. Please wait a moment and try again."
	case strings.Contains(haystack, "expire"):
		return "The connection attempt expired. Please start over."
	}

	return "Connecting the account failed. Please try again."
}

// ConnectError carries the code and the mapped copy back to the caller.
type ConnectError struct {
	Code    domain.ErrorCode
	Message string
}

func (e *ConnectError) Error() string {
	return e.Message
}

func newConnectError(code domain.ErrorCode, detail string) *ConnectError {
	return &ConnectError{Code: code, Message: HumanMessage(code, detail)}
}
