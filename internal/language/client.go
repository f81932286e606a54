// Package language is a sentiment oracle backed by the Google Cloud Natural
// Language REST API.
package language

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2/google"

	"github.com/blackmichael/bluesense/internal/domain"
)

const (
	defaultEndpoint    = "https://language.googleapis.com/v1"
	cloudLanguageScope = "https://www.googleapis.com/auth/cloud-language"

	// unsupportedMarker appears in the 400 message returned for text in a
	// language the sentiment model does not cover.
	unsupportedMarker = "not supported for document_sentiment analysis"
)

// Client calls documents:analyzeSentiment. It authenticates with an API key
// when one is set and with Google application default credentials otherwise.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoint overrides the API base URL.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		if endpoint != "" {
			c.endpoint = strings.TrimRight(endpoint, "/")
		}
	}
}

// WithAPIKey authenticates requests with an API key.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithHTTPClient replaces the HTTP client. No credentials are added to it
// beyond the API key, if any.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a Natural Language client. Without an API key or an
// explicit HTTP client it looks up application default credentials, which
// fails when none are configured.
func NewClient(ctx context.Context, opts ...Option) (*Client, error) {
	c := &Client{endpoint: defaultEndpoint}
	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient != nil {
		return c, nil
	}
	if c.apiKey != "" {
		c.httpClient = &http.Client{Timeout: 30 * time.Second}
		return c, nil
	}

	hc, err := google.DefaultClient(ctx, cloudLanguageScope)
	if err != nil {
		return nil, fmt.Errorf("find default credentials: %w", err)
	}
	hc.Timeout = 30 * time.Second
	c.httpClient = hc
	return c, nil
}

// APIError is a non-2xx response from the Natural Language API.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("API error (status %d %s): %s", e.StatusCode, e.Status, e.Message)
	}
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Message)
}

// AnalyzeSentiment scores the document sentiment of text. It returns an error
// wrapping domain.ErrUnsupportedLanguage when the API rejects the text's
// language.
func (c *Client) AnalyzeSentiment(ctx context.Context, text string) (domain.SentimentResult, error) {
	body := analyzeSentimentRequest{
		Document: document{
			Type:    "PLAIN_TEXT",
			Content: text,
		},
		EncodingType: "UTF8",
	}

	var resp analyzeSentimentResponse
	if err := c.post(ctx, "/documents:analyzeSentiment", body, &resp); err != nil {
		return domain.SentimentResult{}, fmt.Errorf("analyze sentiment: %w", err)
	}

	return domain.SentimentResult{
		Score:     resp.DocumentSentiment.Score,
		Magnitude: resp.DocumentSentiment.Magnitude,
	}, nil
}

func (c *Client) post(ctx context.Context, path string, body any, result any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	u := c.endpoint + path
	if c.apiKey != "" {
		u += "?" + url.Values{"key": {c.apiKey}}.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

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
		return decodeError(resp.StatusCode, respBody)
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

func decodeError(statusCode int, body []byte) error {
	apiErr := &APIError{StatusCode: statusCode, Message: string(body)}

	var er errorResponse
	if err := json.Unmarshal(body, &er); err == nil && er.Error.Message != "" {
		apiErr.Status = er.Error.Status
		apiErr.Message = er.Error.Message
	}

	if statusCode == http.StatusBadRequest && strings.Contains(apiErr.Message, unsupportedMarker) {
		return fmt.Errorf("%w: %w", domain.ErrUnsupportedLanguage, apiErr)
	}
	return apiErr
}

type analyzeSentimentRequest struct {
	Document     document `json:"document"`
	EncodingType string   `json:"encodingType"`
}

type document struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

type analyzeSentimentResponse struct {
	DocumentSentiment sentiment `json:"documentSentiment"`
	Language          string    `json:"language"`
}

type sentiment struct {
	Score     float64 `json:"score"`
	Magnitude float64 `json:"magnitude"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}
