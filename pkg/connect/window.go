package connect

import (
	"errors"

	"github.com/publora/publora/pkg/domain"
)

// ErrPopupBlocked is returned by a WindowOpener when the runtime refused to
// open the popup. The connector falls back to a full redirect.
var ErrPopupBlocked = errors.New("popup window was blocked")

// ResultMessageType tags completion messages so they can be told apart from
// unrelated cross-window traffic. It matches the type the callback handler
// embeds in its HTML termination document.
const ResultMessageType = "platform_oauth_result"

// ResultMessage is the completion message a popup posts back to its opener.
// The wire shape matches what the callback handler embeds in its HTML
// termination document.
type ResultMessage struct {
	Type    string        `json:"type"`
	Payload ResultPayload `json:"payload"`
}

type ResultPayload struct {
	Status     string              `json:"status"`
	Provider   domain.ProviderType `json:"provider"`
	Error      domain.ErrorCode    `json:"error,omitempty"`
	ReturnPath string              `json:"returnPath"`
}

const (
	ResultStatus_Success = "success"
	ResultStatus_Error   = "error"
)

// Window is an open popup. Messages delivers same-origin completion messages
// posted by the callback document; the channel stays open until Close.
type Window interface {
	Closed() bool
	Messages() <-chan ResultMessage
	Close()
}

// WindowOpener opens a centered popup for the authorization URL.
type WindowOpener interface {
	OpenCentered(url string) (Window, error)
}

// Navigator performs a full-page navigation of the current window.
type Navigator interface {
	Navigate(url string) error
}
