package oauth

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/publora/publora/pkg/domain"
)

// CompletionResult is what a finished handshake reports back to the
// requesting browser context, success or failure alike.
type CompletionResult struct {
	Status     string              `json:"status"`
	Provider   domain.ProviderType `json:"provider"`
	Error      string              `json:"error,omitempty"`
	ReturnPath string              `json:"returnPath"`
}

const (
	CompletionStatus_Success = "success"
	CompletionStatus_Error   = "error"
)

// OAuthResultMessageType tags the cross-window message so the opener's
// listener can ignore unrelated postMessage traffic.
const OAuthResultMessageType = "platform_oauth_result"

type TerminationKind string

const (
	TerminationKind_Redirect TerminationKind = "redirect"
	TerminationKind_HTML     TerminationKind = "html"
)

// Termination describes the HTTP response that ends a handshake. Keeping it
// as data rather than writing to the response here lets the handshake logic
// stay independent of the HTTP framework.
type Termination struct {
	Kind     TerminationKind
	Location string
	HTML     string
}

// CompletionChannel turns a handshake result into a termination response for
// one delivery mode.
type CompletionChannel interface {
	Terminate(result CompletionResult) Termination
}

// RedirectChannel ends the flow by sending the browser back to the return
// path with the outcome in query parameters.
type RedirectChannel struct{}

func (RedirectChannel) Terminate(result CompletionResult) Termination {
	location := result.ReturnPath

	separator := "?"
	if u, err := url.Parse(location); err == nil && u.RawQuery != "" {
		separator = "&"
	}

	if result.Status == CompletionStatus_Success {
		location += separator + "connected=" + url.QueryEscape(string(result.Provider))
	} else {
		location += separator + "error=" + url.QueryEscape(result.Error)
	}

	return Termination{Kind: TerminationKind_Redirect, Location: location}
}

// MessageChannel ends the flow with a minimal HTML document that posts the
// result to the opener window, restricted to the application's own origin,
// then closes itself.
type MessageChannel struct {
	AppOrigin string
}

type oauthResultMessage struct {
	Type    string           `json:"type"`
	Payload CompletionResult `json:"payload"`
}

func (c MessageChannel) Terminate(result CompletionResult) Termination {
	message := oauthResultMessage{
		Type:    OAuthResultMessageType,
		Payload: result,
	}

	// encoding/json escapes <, > and & by default, so the marshaled message
	// cannot break out of the script element.
	messageJSON, err := json.Marshal(message)
	if err != nil {
		messageJSON = []byte(`{"type":"platform_oauth_result","payload":{"status":"error","error":"storage_failed"}}`)
	}

	originJSON, _ := json.Marshal(c.AppOrigin)

	html := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Connecting…</title></head>
<body>
<script>
(function() {
  if (window.opener) {
    window.opener.postMessage(%s, %s);
  }
  window.close();
})();
</script>
<p>You can close this window.</p>
</body>
</html>`, messageJSON, originJSON)

	return Termination{Kind: TerminationKind_HTML, HTML: html}
}
