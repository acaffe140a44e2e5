package connect

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/publora/publora/pkg/clients/publora"
	"github.com/publora/publora/pkg/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWindow struct {
	mu     sync.Mutex
	closed bool
	msgs   chan ResultMessage
}

func newFakeWindow() *fakeWindow {
	return &fakeWindow{msgs: make(chan ResultMessage, 4)}
}

func (w *fakeWindow) Closed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

func (w *fakeWindow) Messages() <-chan ResultMessage { return w.msgs }

func (w *fakeWindow) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
}

type fakeOpener struct {
	window    *fakeWindow
	err       error
	openedURL string
}

func (o *fakeOpener) OpenCentered(url string) (Window, error) {
	o.openedURL = url
	if o.err != nil {
		return nil, o.err
	}
	return o.window, nil
}

type fakeNavigator struct {
	navigatedTo string
}

func (n *fakeNavigator) Navigate(url string) error {
	n.navigatedTo = url
	return nil
}

// apiFixture is a stand-in API server; tests mutate the response fields
// before calling Connect.
type apiFixture struct {
	server *httptest.Server

	initiateStatus  int
	initiateBody    any
	sandboxAccount  domain.ConnectedAccount
	telemetryEvents []string
	mu              sync.Mutex
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	f := &apiFixture{initiateStatus: http.StatusOK}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/connections/initiate", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.initiateStatus)
		json.NewEncoder(w).Encode(f.initiateBody)
	})
	mux.HandleFunc("GET /oauth/sandbox/complete", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"account": f.sandboxAccount})
	})
	mux.HandleFunc("POST /api/v1/telemetry/events", func(w http.ResponseWriter, r *http.Request) {
		var event struct {
			Type string `json:"type"`
		}
		json.NewDecoder(r.Body).Decode(&event)

		f.mu.Lock()
		f.telemetryEvents = append(f.telemetryEvents, event.Type)
		f.mu.Unlock()

		w.WriteHeader(http.StatusAccepted)
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)

	return f
}

func (f *apiFixture) client() *publora.Client {
	return publora.NewClient(publora.WithBaseURL(f.server.URL))
}

func TestConnect_PopupSuccess(t *testing.T) {
	api := newAPIFixture(t)
	api.initiateBody = map[string]any{"authorization_url": "https://provider.example.com/auth?state=abc"}

	window := newFakeWindow()
	window.msgs <- ResultMessage{
		Type: "platform_oauth_result",
		Payload: ResultPayload{
			Status:     ResultStatus_Success,
			Provider:   domain.ProviderType_X,
			ReturnPath: "/connections",
		},
	}

	opener := &fakeOpener{window: window}
	connector := NewConnector(ConnectorDependencies{
		API:          api.client(),
		Navigator:    &fakeNavigator{},
		WindowOpener: opener,
	})

	result, err := connector.Connect(context.Background(), ConnectParams{
		Provider:     domain.ProviderType_X,
		TeamID:       "team-1",
		DeliveryMode: domain.DeliveryMode_Popup,
	})
	require.NoError(t, err)

	assert.Equal(t, "https://provider.example.com/auth?state=abc", opener.openedURL)
	assert.Equal(t, domain.ProviderType_X, result.Provider)
	assert.Equal(t, "/connections", result.ReturnPath)
	assert.False(t, result.Redirected)
}

func TestConnect_UnrelatedMessagesAreIgnored(t *testing.T) {
	api := newAPIFixture(t)
	api.initiateBody = map[string]any{"authorization_url": "https://provider.example.com/auth"}

	// Cross-window traffic with the wrong type must not settle the flow;
	// only the tagged completion message does.
	window := newFakeWindow()
	window.msgs <- ResultMessage{
		Type:    "analytics_ping",
		Payload: ResultPayload{Status: ResultStatus_Error, Error: domain.ErrorCode_TokenExchangeFailed},
	}
	window.msgs <- ResultMessage{
		Type: ResultMessageType,
		Payload: ResultPayload{
			Status:     ResultStatus_Success,
			Provider:   domain.ProviderType_X,
			ReturnPath: "/connections",
		},
	}

	connector := NewConnector(ConnectorDependencies{
		API:          api.client(),
		Navigator:    &fakeNavigator{},
		WindowOpener: &fakeOpener{window: window},
	})

	result, err := connector.Connect(context.Background(), ConnectParams{
		Provider:     domain.ProviderType_X,
		TeamID:       "team-1",
		DeliveryMode: domain.DeliveryMode_Popup,
	})
	require.NoError(t, err)
	assert.Equal(t, "/connections", result.ReturnPath)
}

func TestConnect_MessageTakesPrecedenceOverClosure(t *testing.T) {
	api := newAPIFixture(t)
	api.initiateBody = map[string]any{"authorization_url": "https://provider.example.com/auth"}

	// Both signals are present before the race starts: the popup posted its
	// result and closed itself. The message must win and win exactly once.
	window := newFakeWindow()
	window.msgs <- ResultMessage{
		Type: "platform_oauth_result",
		Payload: ResultPayload{
			Status:     ResultStatus_Success,
			Provider:   domain.ProviderType_X,
			ReturnPath: "/connections",
		},
	}
	window.Close()

	connector := NewConnector(ConnectorDependencies{
		API:          api.client(),
		Navigator:    &fakeNavigator{},
		WindowOpener: &fakeOpener{window: window},
	})

	result, err := connector.Connect(context.Background(), ConnectParams{
		Provider:     domain.ProviderType_X,
		TeamID:       "team-1",
		DeliveryMode: domain.DeliveryMode_Popup,
	})
	require.NoError(t, err)
	assert.Equal(t, "/connections", result.ReturnPath)
}

func TestConnect_PopupClosedWithoutCompleting(t *testing.T) {
	api := newAPIFixture(t)
	api.initiateBody = map[string]any{"authorization_url": "https://provider.example.com/auth"}

	window := newFakeWindow()
	window.Close()

	connector := NewConnector(ConnectorDependencies{
		API:          api.client(),
		Navigator:    &fakeNavigator{},
		WindowOpener: &fakeOpener{window: window},
	})

	started := time.Now()
	_, err := connector.Connect(context.Background(), ConnectParams{
		Provider:     domain.ProviderType_X,
		TeamID:       "team-1",
		DeliveryMode: domain.DeliveryMode_Popup,
	})
	require.Error(t, err)

	var connectErr *ConnectError
	require.ErrorAs(t, err, &connectErr)
	assert.Equal(t, domain.ErrorCode_PopupClosed, connectErr.Code)
	assert.GreaterOrEqual(t, time.Since(started), closedPollInterval, "closure is detected by the poll, not immediately")
}

func TestConnect_PopupErrorMessage(t *testing.T) {
	api := newAPIFixture(t)
	api.initiateBody = map[string]any{"authorization_url": "https://provider.example.com/auth"}

	window := newFakeWindow()
	window.msgs <- ResultMessage{
		Type: "platform_oauth_result",
		Payload: ResultPayload{
			Status:   ResultStatus_Error,
			Provider: domain.ProviderType_X,
			Error:    domain.ErrorCode_TokenExchangeFailed,
		},
	}

	connector := NewConnector(ConnectorDependencies{
		API:          api.client(),
		Navigator:    &fakeNavigator{},
		WindowOpener: &fakeOpener{window: window},
	})

	_, err := connector.Connect(context.Background(), ConnectParams{
		Provider:     domain.ProviderType_X,
		TeamID:       "team-1",
		DeliveryMode: domain.DeliveryMode_Popup,
	})
	require.Error(t, err)

	var connectErr *ConnectError
	require.ErrorAs(t, err, &connectErr)
	assert.Equal(t, domain.ErrorCode_TokenExchangeFailed, connectErr.Code)
	assert.Equal(t, HumanMessage(domain.ErrorCode_TokenExchangeFailed, ""), connectErr.Message)
}

func TestConnect_BlockedPopupFallsBackToRedirect(t *testing.T) {
	api := newAPIFixture(t)
	api.initiateBody = map[string]any{"authorization_url": "https://provider.example.com/auth"}

	navigator := &fakeNavigator{}
	connector := NewConnector(ConnectorDependencies{
		API:          api.client(),
		Navigator:    navigator,
		WindowOpener: &fakeOpener{err: ErrPopupBlocked},
	})

	result, err := connector.Connect(context.Background(), ConnectParams{
		Provider:     domain.ProviderType_X,
		TeamID:       "team-1",
		DeliveryMode: domain.DeliveryMode_Popup,
	})
	require.NoError(t, err)

	assert.True(t, result.Redirected)
	assert.Equal(t, "https://provider.example.com/auth", navigator.navigatedTo)
}

func TestConnect_RedirectMode(t *testing.T) {
	api := newAPIFixture(t)
	api.initiateBody = map[string]any{"authorization_url": "https://provider.example.com/auth"}

	navigator := &fakeNavigator{}
	connector := NewConnector(ConnectorDependencies{
		API:          api.client(),
		Navigator:    navigator,
		WindowOpener: &fakeOpener{},
	})

	result, err := connector.Connect(context.Background(), ConnectParams{
		Provider:     domain.ProviderType_X,
		TeamID:       "team-1",
		DeliveryMode: domain.DeliveryMode_Redirect,
	})
	require.NoError(t, err)

	assert.True(t, result.Redirected)
	assert.Equal(t, "https://provider.example.com/auth", navigator.navigatedTo)
}

func TestConnect_SandboxShortCircuit(t *testing.T) {
	api := newAPIFixture(t)
	api.initiateBody = map[string]any{
		"authorization_url": api.server.URL + "/oauth/sandbox/complete?state=abc",
		"sandbox":           true,
	}
	api.sandboxAccount = domain.ConnectedAccount{
		ID:             "acc-1",
		TeamID:         "team-1",
		Provider:       domain.ProviderType_Demo,
		DisplayName:    "Demo Demo Account",
		ConnectionMode: domain.ConnectionMode_LocalSandbox,
	}

	confirmed := false
	cache := NewAccountCache()
	connector := NewConnector(ConnectorDependencies{
		API:          api.client(),
		Navigator:    &fakeNavigator{},
		WindowOpener: &fakeOpener{},
		Cache:        cache,
		Confirm: func(prompt string) bool {
			confirmed = true
			return true
		},
	})

	result, err := connector.Connect(context.Background(), ConnectParams{
		Provider:     domain.ProviderType_Demo,
		TeamID:       "team-1",
		DeliveryMode: domain.DeliveryMode_Popup,
	})
	require.NoError(t, err)

	assert.True(t, confirmed)
	require.NotNil(t, result.Account)
	assert.Equal(t, domain.ConnectionMode_LocalSandbox, result.Account.ConnectionMode)

	cached := cache.ListTeam("team-1")
	require.Len(t, cached, 1)
	assert.Equal(t, "acc-1", cached[0].ID)
}

func TestConnect_SandboxDeclined(t *testing.T) {
	api := newAPIFixture(t)
	api.initiateBody = map[string]any{
		"authorization_url": api.server.URL + "/oauth/sandbox/complete?state=abc",
		"sandbox":           true,
	}

	connector := NewConnector(ConnectorDependencies{
		API:          api.client(),
		Navigator:    &fakeNavigator{},
		WindowOpener: &fakeOpener{},
		Confirm:      func(prompt string) bool { return false },
	})

	_, err := connector.Connect(context.Background(), ConnectParams{
		Provider:     domain.ProviderType_Demo,
		TeamID:       "team-1",
		DeliveryMode: domain.DeliveryMode_Popup,
	})
	require.Error(t, err)
}

func TestConnect_InitiateFailureIsMappedToCopy(t *testing.T) {
	api := newAPIFixture(t)
	api.initiateStatus = http.StatusForbidden
	api.initiateBody = map[string]any{"error": "forbidden", "message": "not a member of this team"}

	connector := NewConnector(ConnectorDependencies{
		API:          api.client(),
		Navigator:    &fakeNavigator{},
		WindowOpener: &fakeOpener{},
	})

	_, err := connector.Connect(context.Background(), ConnectParams{
		Provider:     domain.ProviderType_X,
		TeamID:       "team-1",
		DeliveryMode: domain.DeliveryMode_Popup,
	})
	require.Error(t, err)

	var connectErr *ConnectError
	require.ErrorAs(t, err, &connectErr)
	assert.Equal(t, domain.ErrorCode_Forbidden, connectErr.Code)
	assert.Equal(t, HumanMessage(domain.ErrorCode_Forbidden, ""), connectErr.Message)
}
