package xprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/publora/publora/pkg/domain"
	"github.com/publora/publora/pkg/providers/catalog"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const maxPostLength = 280

type XAdapterDependencies struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Endpoints    catalog.Endpoints
	HTTPClient   *http.Client
}

// XAdapter publishes to a short-form feed platform. Multi-part payloads are
// posted as a reply chain (thread); the returned post ID is the chain head.
type XAdapter struct {
	oauthConfig *oauth2.Config
	endpoints   catalog.Endpoints
	httpClient  *http.Client
}

func NewXAdapter(deps XAdapterDependencies) *XAdapter {
	httpClient := deps.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &XAdapter{
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

func (a *XAdapter) SupportsThreads() bool { return true }

func (a *XAdapter) MaxTextLength() int { return maxPostLength }

func (a *XAdapter) UsesPKCE() bool { return true }

func (a *XAdapter) ExchangeAuthorizationCode(ctx context.Context, code, codeVerifier string) (domain.TokenResult, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)

	token, err := a.oauthConfig.Exchange(ctx, code, oauth2.VerifierOption(codeVerifier))
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

func (a *XAdapter) FetchAccountIdentity(ctx context.Context, accessToken string) (domain.AccountIdentity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.endpoints.ProfileURL, nil)
	if err != nil {
		return domain.AccountIdentity{}, nil
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		log.Warn().Err(err).Msg("x profile lookup failed, connecting with blank identity")
		return domain.AccountIdentity{}, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Warn().Int("status", resp.StatusCode).Msg("x profile lookup rejected, connecting with blank identity")
		return domain.AccountIdentity{}, nil
	}

	var body struct {
		Data struct {
			ID       string `json:"id"`
			Name     string `json:"name"`
			Username string `json:"username"`
		} `json:"data"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		log.Warn().Err(err).Msg("x profile response unreadable, connecting with blank identity")
		return domain.AccountIdentity{}, nil
	}

	return domain.AccountIdentity{
		ExternalAccountID: body.Data.ID,
		DisplayName:       body.Data.Name,
		Handle:            body.Data.Username,
	}, nil
}

type createPostRequest struct {
	Text  string           `json:"text"`
	Reply *createPostReply `json:"reply,omitempty"`
}

type createPostReply struct {
	InReplyToPostID string `json:"in_reply_to_tweet_id"`
}

func (a *XAdapter) Publish(ctx context.Context, account domain.ConnectedAccount, payload domain.PublishPayload) domain.PublishResult {
	if payload.IsEmpty() {
		return domain.PublishResult{Success: false, Error: "no text to publish"}
	}

	var headPostID string
	var previousPostID string

	for _, part := range payload.Parts {
		if part == "" {
			continue
		}

		postID, err := a.createPost(ctx, account.AccessToken, truncate(part, maxPostLength), previousPostID)
		if err != nil {
			return domain.PublishResult{Success: false, Error: err.Error()}
		}

		if headPostID == "" {
			headPostID = postID
		}
		previousPostID = postID
	}

	return domain.PublishResult{Success: true, PostID: headPostID}
}

func (a *XAdapter) createPost(ctx context.Context, accessToken, text, inReplyTo string) (string, error) {
	reqBody := createPostRequest{Text: text}
	if inReplyTo != "" {
		reqBody.Reply = &createPostReply{InReplyToPostID: inReplyTo}
	}

	raw, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("encode post: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoints.PublishURL, bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("build post request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("post request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("x rejected post: %s", readableAPIError(resp))
	}

	var body struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode post response: %w", err)
	}

	return body.Data.ID, nil
}

// readableAPIError condenses a provider error response into a short
// human-readable string without leaking the raw payload.
func readableAPIError(resp *http.Response) string {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err == nil {
		var body struct {
			Title  string `json:"title"`
			Detail string `json:"detail"`
		}
		if err := json.Unmarshal(raw, &body); err == nil {
			if body.Detail != "" {
				return body.Detail
			}
			if body.Title != "" {
				return body.Title
			}
		}
	}

	return fmt.Sprintf("request failed with status %d", resp.StatusCode)
}

func truncate(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max])
}
