package linkedinprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/publora/publora/pkg/domain"
	"github.com/publora/publora/pkg/providers/catalog"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const maxShareLength = 3000

type LinkedInAdapterDependencies struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Endpoints    catalog.Endpoints
	HTTPClient   *http.Client
}

// LinkedInAdapter publishes to a professional-network platform. The provider
// takes a single text payload; multi-part content arrives pre-joined from the
// orchestrator and is truncated to the share limit before sending.
type LinkedInAdapter struct {
	oauthConfig *oauth2.Config
	endpoints   catalog.Endpoints
	httpClient  *http.Client
}

func NewLinkedInAdapter(deps LinkedInAdapterDependencies) *LinkedInAdapter {
	httpClient := deps.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &LinkedInAdapter{
		oauthConfig: &oauth2.Config{
			ClientID:     deps.ClientID,
			ClientSecret: deps.ClientSecret,
			RedirectURL:  deps.RedirectURL,
			Scopes:       deps.Endpoints.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  deps.Endpoints.AuthURL,
				TokenURL: deps.Endpoints.TokenURL,
			},
		},
		endpoints:  deps.Endpoints,
		httpClient: httpClient,
	}
}

func (a *LinkedInAdapter) SupportsThreads() bool { return false }

func (a *LinkedInAdapter) MaxTextLength() int { return maxShareLength }

// UsesPKCE is false: the provider's token endpoint rejects unknown
// parameters, so the challenge is omitted from the authorization request
// entirely rather than sent empty.
func (a *LinkedInAdapter) UsesPKCE() bool { return false }

func (a *LinkedInAdapter) ExchangeAuthorizationCode(ctx context.Context, code, codeVerifier string) (domain.TokenResult, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)

	token, err := a.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return domain.TokenResult{}, fmt.Errorf("exchange authorization code: %w", err)
	}

	result := domain.TokenResult{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
	}

	if !token.Expiry.IsZero() {
		expiry := token.Expiry
		result.ExpiresAt = &expiry
	}

	if scope, ok := token.Extra("scope").(string); ok {
		result.Scope = scope
	}

	return result, nil
}

func (a *LinkedInAdapter) FetchAccountIdentity(ctx context.Context, accessToken string) (domain.AccountIdentity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.endpoints.ProfileURL, nil)
	if err != nil {
		return domain.AccountIdentity{}, nil
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		log.Warn().Err(err).Msg("linkedin profile lookup failed, connecting with blank identity")
		return domain.AccountIdentity{}, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Warn().Int("status", resp.StatusCode).Msg("linkedin profile lookup rejected, connecting with blank identity")
		return domain.AccountIdentity{}, nil
	}

	var body struct {
		Sub     string `json:"sub"`
		Name    string `json:"name"`
		Email   string `json:"email"`
		Picture string `json:"picture"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		log.Warn().Err(err).Msg("linkedin profile response unreadable, connecting with blank identity")
		return domain.AccountIdentity{}, nil
	}

	return domain.AccountIdentity{
		ExternalAccountID: body.Sub,
		DisplayName:       body.Name,
	}, nil
}

func (a *LinkedInAdapter) Publish(ctx context.Context, account domain.ConnectedAccount, payload domain.PublishPayload) domain.PublishResult {
	text := truncate(strings.Join(nonEmptyParts(payload.Parts), "\n\n"), maxShareLength)
	if text == "" {
		return domain.PublishResult{Success: false, Error: "no text to publish"}
	}

	reqBody := map[string]any{
		"author":         "urn:li:person:" + account.ExternalAccountID,
		"lifecycleState": "PUBLISHED",
		"specificContent": map[string]any{
			"com.linkedin.ugc.ShareContent": map[string]any{
				"shareCommentary":    map[string]any{"text": text},
				"shareMediaCategory": "NONE",
			},
		},
		"visibility": map[string]any{
			"com.linkedin.ugc.MemberNetworkVisibility": "PUBLIC",
		},
	}

	raw, err := json.Marshal(reqBody)
	if err != nil {
		return domain.PublishResult{Success: false, Error: fmt.Sprintf("encode share: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoints.PublishURL, bytes.NewReader(raw))
	if err != nil {
		return domain.PublishResult{Success: false, Error: fmt.Sprintf("build share request: %v", err)}
	}
	req.Header.Set("Authorization", "Bearer "+account.AccessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Restli-Protocol-Version", "2.0.0")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return domain.PublishResult{Success: false, Error: fmt.Sprintf("share request failed: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.PublishResult{Success: false, Error: "linkedin rejected share: " + readableAPIError(resp)}
	}

	var body struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		// The share landed; an unreadable response body only costs the ID.
		return domain.PublishResult{Success: true}
	}

	return domain.PublishResult{Success: true, PostID: body.ID}
}

func readableAPIError(resp *http.Response) string {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err == nil {
		var body struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(raw, &body); err == nil && body.Message != "" {
			return body.Message
		}
	}

	return fmt.Sprintf("request failed with status %d", resp.StatusCode)
}

func nonEmptyParts(parts []string) []string {
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func truncate(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max])
}
