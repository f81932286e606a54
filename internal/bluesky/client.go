package bluesky

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"
)

const (
	defaultPDS     = "https://bsky.social"
	defaultAppView = "https://public.api.bsky.app"

	createSessionPath  = "/xrpc/com.atproto.server.createSession"
	refreshSessionPath = "/xrpc/com.atproto.server.refreshSession"
)

// Client is a minimal BlueSky/AT Protocol API client for searching posts.
//
// Before Login, requests go unauthenticated to the public AppView. After
// Login they go to the PDS with the session token, which proxies app.bsky
// queries to the AppView on the user's behalf. An expired access token is
// exchanged for a new session once and the request retried.
//
// A Client is safe for concurrent use.
type Client struct {
	pds        string
	appView    string
	httpClient *http.Client

	// populated after Login, guarded by mu
	mu         sync.Mutex
	accessJwt  string
	refreshJwt string
	did        string
	handle     string
}

// Option configures a Client.
type Option func(*Client)

// WithAppView sets the AppView used for unauthenticated requests.
func WithAppView(appView string) Option {
	return func(c *Client) {
		if appView != "" {
			c.appView = appView
		}
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient creates a new BlueSky API client. If pds is empty, it defaults to
// https://bsky.social.
func NewClient(pds string, opts ...Option) *Client {
	if pds == "" {
		pds = defaultPDS
	}
	c := &Client{
		pds:     pds,
		appView: defaultAppView,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Login authenticates with the PDS and stores the session token. Use an App
// Password, not your account password.
func (c *Client) Login(ctx context.Context, identifier, password string) error {
	body := map[string]string{
		"identifier": identifier,
		"password":   password,
	}

	var resp sessionResponse
	if err := c.post(ctx, createSessionPath, "", body, &resp); err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.setSession(resp)
	return nil
}

// refreshSession replaces the session using the refresh token. stale is the
// access token the server rejected; when another caller has already replaced
// it nothing is sent.
func (c *Client) refreshSession(ctx context.Context, stale string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessJwt != stale {
		return nil
	}
	if c.refreshJwt == "" {
		return errors.New("refresh session: no refresh token")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.pds+refreshSessionPath, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	var resp sessionResponse
	if err := c.do(req, c.refreshJwt, &resp); err != nil {
		return fmt.Errorf("refresh session: %w", err)
	}

	c.setSession(resp)
	return nil
}

// setSession stores a session response. The caller holds mu.
func (c *Client) setSession(resp sessionResponse) {
	c.accessJwt = resp.AccessJwt
	c.refreshJwt = resp.RefreshJwt
	if resp.DID != "" {
		c.did = resp.DID
	}
	if resp.Handle != "" {
		c.handle = resp.Handle
	}
}

func (c *Client) token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessJwt
}

// DID returns the authenticated user's DID. Only valid after Login.
func (c *Client) DID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.did
}

// Handle returns the authenticated user's handle. Only valid after Login.
func (c *Client) Handle() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handle
}

// Authenticated reports whether Login has succeeded.
func (c *Client) Authenticated() bool {
	return c.token() != ""
}

// APIError is a non-2xx response from an XRPC endpoint.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Body)
}

// Code returns the XRPC error name from the response body, e.g.
// "ExpiredToken", or "" when the body carries none.
func (e *APIError) Code() string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal([]byte(e.Body), &body); err != nil {
		return ""
	}
	return body.Error
}

func isExpiredToken(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return (apiErr.StatusCode == http.StatusBadRequest || apiErr.StatusCode == http.StatusUnauthorized) &&
		apiErr.Code() == "ExpiredToken"
}

func (c *Client) post(ctx context.Context, path, token string, body any, result any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.pds+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, token, result)
}

func (c *Client) get(ctx context.Context, path string, params url.Values, result any) error {
	token := c.token()
	err := c.getWithToken(ctx, token, path, params, result)
	if token == "" || !isExpiredToken(err) {
		return err
	}

	if err := c.refreshSession(ctx, token); err != nil {
		return err
	}
	return c.getWithToken(ctx, c.token(), path, params, result)
}

func (c *Client) getWithToken(ctx context.Context, token, path string, params url.Values, result any) error {
	base := c.appView
	if token != "" {
		base = c.pds
	}

	u := base + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	return c.do(req, token, result)
}

func (c *Client) do(req *http.Request, token string, result any) error {
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}

	return nil
}

// sessionResponse is the body of createSession and refreshSession.
type sessionResponse struct {
	AccessJwt  string `json:"accessJwt"`
	RefreshJwt string `json:"refreshJwt"`
	DID        string `json:"did"`
	Handle     string `json:"handle"`
}
