// Package connect orchestrates the client side of the account connection
// flow: it initiates the handshake, hands control to the provider through a
// redirect or popup, and settles exactly once with the outcome.
package connect

import (
	"context"
	"errors"
	"time"

	"github.com/publora/publora/pkg/clients/publora"
	"github.com/publora/publora/pkg/domain"

	"github.com/rs/zerolog/log"
)

const closedPollInterval = 300 * time.Millisecond

// ConfirmFunc asks the user to confirm an action. A nil hook means confirmed.
type ConfirmFunc func(prompt string) bool

type ConnectorDependencies struct {
	API          *publora.Client
	Navigator    Navigator
	WindowOpener WindowOpener
	Cache        *AccountCache
	Confirm      ConfirmFunc
}

type Connector struct {
	api          *publora.Client
	navigator    Navigator
	windowOpener WindowOpener
	cache        *AccountCache
	confirm      ConfirmFunc
}

func NewConnector(deps ConnectorDependencies) *Connector {
	cache := deps.Cache
	if cache == nil {
		cache = NewAccountCache()
	}

	return &Connector{
		api:          deps.API,
		navigator:    deps.Navigator,
		windowOpener: deps.WindowOpener,
		cache:        cache,
		confirm:      deps.Confirm,
	}
}

type ConnectParams struct {
	Provider     domain.ProviderType
	TeamID       string
	TeamSlug     string
	ReturnPath   string
	DeliveryMode domain.DeliveryMode
}

// ConnectResult reports how the flow settled. Redirected means control was
// handed to a full-page navigation and the outcome arrives with the next
// page load. Account is set only on the sandbox path, where the account is
// fabricated without leaving the page.
type ConnectResult struct {
	Provider   domain.ProviderType
	Account    *domain.ConnectedAccount
	Redirected bool
	ReturnPath string
}

// Connect runs the connection flow end to end and settles exactly once.
func (conn *Connector) Connect(ctx context.Context, params ConnectParams) (*ConnectResult, error) {
	conn.recordEvent(params, string(domain.EventType_ConnectClicked))

	resp, err := conn.api.InitiateConnection(ctx, &publora.InitiateConnectionRequest{
		Provider:     string(params.Provider),
		TeamID:       params.TeamID,
		TeamSlug:     params.TeamSlug,
		ReturnPath:   params.ReturnPath,
		DeliveryMode: string(params.DeliveryMode),
	})
	if err != nil {
		var apiErr *publora.APIError
		if errors.As(err, &apiErr) {
			return nil, newConnectError(apiErr.Code, apiErr.Message)
		}
		return nil, newConnectError(domain.ErrorCode_StorageFailed, err.Error())
	}

	if resp.Sandbox {
		return conn.completeSandbox(ctx, params, resp.AuthorizationURL)
	}

	if params.DeliveryMode != domain.DeliveryMode_Popup {
		if err := conn.navigator.Navigate(resp.AuthorizationURL); err != nil {
			return nil, newConnectError(domain.ErrorCode_StorageFailed, err.Error())
		}
		return &ConnectResult{Provider: params.Provider, Redirected: true}, nil
	}

	return conn.awaitPopup(ctx, params, resp.AuthorizationURL)
}

// completeSandbox fetches the short-circuit URL directly; no window opens.
func (conn *Connector) completeSandbox(ctx context.Context, params ConnectParams, sandboxURL string) (*ConnectResult, error) {
	if conn.confirm != nil && !conn.confirm("Sandbox mode creates a mock account instead of connecting a real one. Continue?") {
		return nil, newConnectError(domain.ErrorCode_PopupClosed, "sandbox connection declined")
	}

	resp, err := conn.api.CompleteSandboxConnection(ctx, sandboxURL)
	if err != nil {
		var apiErr *publora.APIError
		if errors.As(err, &apiErr) {
			return nil, newConnectError(apiErr.Code, apiErr.Message)
		}
		return nil, newConnectError(domain.ErrorCode_StorageFailed, err.Error())
	}

	account := resp.Account
	conn.cache.Remember(account.TeamID, account)
	conn.recordEvent(params, string(domain.EventType_AccountConnected))

	return &ConnectResult{Provider: params.Provider, Account: &account}, nil
}

// awaitPopup opens the popup and races the completion message against the
// closed poll. Exactly one of the two settles the flow; when both signals
// arrive in the same poll window the message wins.
func (conn *Connector) awaitPopup(ctx context.Context, params ConnectParams, authorizationURL string) (*ConnectResult, error) {
	window, err := conn.windowOpener.OpenCentered(authorizationURL)
	if err != nil {
		if !errors.Is(err, ErrPopupBlocked) {
			return nil, newConnectError(domain.ErrorCode_PopupBlocked, err.Error())
		}

		// Blocked popup: fall back to a full redirect and settle immediately.
		if navErr := conn.navigator.Navigate(authorizationURL); navErr != nil {
			return nil, newConnectError(domain.ErrorCode_PopupBlocked, navErr.Error())
		}
		return &ConnectResult{Provider: params.Provider, Redirected: true}, nil
	}
	defer window.Close()

	ticker := time.NewTicker(closedPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, newConnectError(domain.ErrorCode_PopupClosed, ctx.Err().Error())

		case msg := <-window.Messages():
			if msg.Type != ResultMessageType {
				continue
			}
			return conn.settleMessage(params, msg)

		case <-ticker.C:
			if !window.Closed() {
				continue
			}

			// The completion message may have landed in the same poll
			// window as the closure; drain it first so it takes precedence.
			select {
			case msg := <-window.Messages():
				if msg.Type == ResultMessageType {
					return conn.settleMessage(params, msg)
				}
			default:
			}

			return nil, newConnectError(domain.ErrorCode_PopupClosed, "popup closed before completing")
		}
	}
}

func (conn *Connector) settleMessage(params ConnectParams, msg ResultMessage) (*ConnectResult, error) {
	if msg.Payload.Status != ResultStatus_Success {
		return nil, newConnectError(msg.Payload.Error, "")
	}

	conn.recordEvent(params, string(domain.EventType_AccountConnected))

	return &ConnectResult{
		Provider:   msg.Payload.Provider,
		ReturnPath: msg.Payload.ReturnPath,
	}, nil
}

// recordEvent is fire-and-forget; telemetry never blocks or fails the flow.
func (conn *Connector) recordEvent(params ConnectParams, eventType string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		err := conn.api.RecordTelemetryEvent(ctx, &publora.TelemetryEventRequest{
			Type:     eventType,
			TeamID:   params.TeamID,
			Provider: string(params.Provider),
		})
		if err != nil {
			log.Debug().Err(err).Str("event_type", eventType).Msg("Telemetry event dropped")
		}
	}()
}
