// Package auth exchanges the static platform credential for a short-lived
// bearer token and the base API URI that goes with it.
package auth

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Token is the short-lived credential returned by the auth service.
// It is obtained fresh per use and never cached.
type Token struct {
	AccessToken string `json:"access_token"`
	BaseURI     string `json:"resource_server_base_uri"`
}

// AuthError reports a failed or malformed token exchange.
type AuthError struct {
	Status int
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("auth: status=%d %s", e.Status, e.Reason)
	}
	return "auth: " + e.Reason
}

func (e *AuthError) Unwrap() error { return e.Err }

type grantRequest struct {
	GrantType string `json:"grant_type"`
	Username  string `json:"username"`
	Password  string `json:"password"`
}

// Provider performs the password-grant token exchange. The basic-auth header
// value is computed once at construction from the three credential parts.
type Provider struct {
	client    *http.Client
	tokenURL  string
	basicAuth string
	username  string
	password  string
}

func NewProvider(client *http.Client, tokenURL, appName, vendorName, appSecret, username, password string) *Provider {
	cred := base64.StdEncoding.EncodeToString([]byte(appName + "@" + vendorName + ":" + appSecret))
	return &Provider{
		client:    client,
		tokenURL:  tokenURL,
		basicAuth: "basic " + cred,
		username:  username,
		password:  password,
	}
}

// GetToken performs one token exchange. Every call hits the auth service;
// the pipeline re-authenticates per job.
func (p *Provider) GetToken(ctx context.Context) (Token, error) {
	payload, _ := json.Marshal(grantRequest{
		GrantType: "password",
		Username:  p.username,
		Password:  p.password,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.tokenURL, bytes.NewReader(payload))
	if err != nil {
		return Token{}, &AuthError{Reason: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", p.basicAuth)

	resp, err := p.client.Do(req)
	if err != nil {
		return Token{}, &AuthError{Reason: "token request failed", Err: err}
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Token{}, &AuthError{Status: resp.StatusCode, Reason: string(body)}
	}

	var tok Token
	if err := json.Unmarshal(body, &tok); err != nil {
		return Token{}, &AuthError{Reason: fmt.Sprintf("json decode error: %v body=%s", err, string(body)), Err: err}
	}
	if tok.AccessToken == "" || tok.BaseURI == "" {
		return Token{}, &AuthError{Reason: "token response missing access_token or resource_server_base_uri"}
	}
	return tok, nil
}
