// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for communicating with the chat backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/jeranaias/parley/internal/auth"
	"github.com/jeranaias/parley/internal/model"
)

// Configuration constants for the backend API.
const (
	// DefaultBaseURL is the backend base URL when none is configured.
	DefaultBaseURL = "http://localhost:8000"

	// DefaultTimeout bounds every request so a hung backend can never leave
	// the session stuck in a pending state.
	DefaultTimeout = 30 * time.Second

	// MaxResponseSize is the maximum allowed response body size.
	MaxResponseSize = 4 * 1024 * 1024 // 4MB

	// FallbackText is the synthesized assistant reply when the chat call fails.
	FallbackText = "Backend unavailable or returned an error."

	// ConversationUnknown is the conversation ID carried by synthesized
	// error responses.
	ConversationUnknown = "unknown"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeConnection
	ErrTypeTimeout
	ErrTypeHTTP
	ErrTypeUnauthorized
	ErrTypeInvalidResponse
)

// ClientError represents a failure talking to the backend. It never crosses
// the SendChat or SendFeedback boundaries; those convert it to error-shaped
// response values.
type ClientError struct {
	Type       ErrorType
	StatusCode int // HTTP status, 0 for transport failures
	Message    string
	Cause      error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// Is matches on error type so sentinel comparisons work with errors.Is.
func (e *ClientError) Is(target error) bool {
	t, ok := target.(*ClientError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// Sentinel errors for easy checking.
var (
	ErrConnection   = &ClientError{Type: ErrTypeConnection, Message: "backend unreachable"}
	ErrTimeout      = &ClientError{Type: ErrTypeTimeout, Message: "request timed out"}
	ErrUnauthorized = &ClientError{Type: ErrTypeUnauthorized, StatusCode: http.StatusUnauthorized, Message: "authentication failed"}
)

// wrap derives a concrete error from a sentinel, carrying the underlying
// cause. errors.Is against the sentinel still matches.
func wrap(sentinel *ClientError, cause error) *ClientError {
	return &ClientError{
		Type:       sentinel.Type,
		StatusCode: sentinel.StatusCode,
		Message:    sentinel.Message,
		Cause:      cause,
	}
}

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the backend client.
type ClientConfig struct {
	// BaseURL is the backend base URL (default: http://localhost:8000)
	BaseURL string

	// Timeout for requests (default: 30s)
	Timeout time.Duration

	// UserID is an optional stable client identifier sent with chat requests.
	UserID string

	// RequestsPerSecond paces outgoing requests; 0 disables pacing.
	RequestsPerSecond float64
}

// DefaultClientConfig returns the default client configuration.
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL: DefaultBaseURL,
		Timeout: DefaultTimeout,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client handles communication with the chat backend.
//
// The auth session is injected rather than read from package state so that
// multiple sessions can coexist in tests. The client reads the token on
// every call; it never writes it.
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
	session    *auth.Session
	limiter    *rate.Limiter
}

// NewClient creates a backend client with default configuration.
func NewClient(session *auth.Session) *Client {
	return NewClientWithConfig(DefaultClientConfig(), session)
}

// NewClientWithConfig creates a backend client with custom configuration.
func NewClientWithConfig(config *ClientConfig, session *auth.Session) *Client {
	if config == nil {
		config = DefaultClientConfig()
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	config.BaseURL = strings.TrimSuffix(config.BaseURL, "/")
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}

	var limiter *rate.Limiter
	if config.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 1)
	}

	return &Client{
		config:  config,
		session: session,
		limiter: limiter,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// =============================================================================
// CHAT
// =============================================================================

// SendChat posts a chat turn and returns the backend's reply.
//
// This call never fails: any transport or HTTP error is swallowed into a
// synthesized error-status response carrying FallbackText, so callers only
// branch on the response status. The response envelope's message_id is
// normalized onto the embedded message before return.
func (c *Client) SendChat(ctx context.Context, req ChatRequest) ChatResponse {
	// The non-streaming request path is the only one implemented.
	req.Stream = false
	if req.UserID == "" {
		req.UserID = c.config.UserID
	}

	var resp ChatResponse
	if err := c.post(ctx, "/chat", req, &resp); err != nil {
		log.Printf("api: chat request failed: %v", err)
		return fallbackChatResponse()
	}

	// The envelope and the embedded message may disagree on where the id
	// lives; treat both as the same identifier and prefer whichever is set.
	if resp.MessageID != 0 && resp.Response.ID == 0 {
		resp.Response.ID = resp.MessageID
	}
	resp.Response.Timestamp = time.Now()
	return resp
}

// fallbackChatResponse builds the error-shaped response for a failed chat call.
func fallbackChatResponse() ChatResponse {
	return ChatResponse{
		ConversationID: ConversationUnknown,
		Status:         StatusError,
		Response:       model.NewAssistantMessage(FallbackText),
	}
}

// =============================================================================
// FEEDBACK
// =============================================================================

// SendFeedback posts feedback for one assistant message. Failures collapse
// to an error-status response; callers only branch on the status.
func (c *Client) SendFeedback(ctx context.Context, req FeedbackRequest) FeedbackResponse {
	if err := req.Validate(); err != nil {
		log.Printf("api: rejecting feedback request: %v", err)
		return FeedbackResponse{Status: StatusError}
	}

	var resp FeedbackResponse
	if err := c.post(ctx, "/feedback", req, &resp); err != nil {
		log.Printf("api: feedback request failed: %v", err)
		return FeedbackResponse{Status: StatusError}
	}
	return resp
}

// =============================================================================
// AUTH
// =============================================================================

// Login exchanges credentials for a bearer token. A nil response means the
// attempt failed; a non-nil response always carries a token.
func (c *Client) Login(ctx context.Context, creds Credentials) (*AuthResponse, error) {
	return c.authenticate(ctx, "/auth/login", creds)
}

// Register creates an account and returns its bearer token.
func (c *Client) Register(ctx context.Context, creds Credentials) (*AuthResponse, error) {
	return c.authenticate(ctx, "/auth/register", creds)
}

func (c *Client) authenticate(ctx context.Context, path string, creds Credentials) (*AuthResponse, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	var resp AuthResponse
	if err := c.post(ctx, path, creds, &resp); err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "auth response missing access token"}
	}
	return &resp, nil
}

// =============================================================================
// TRANSPORT
// =============================================================================

// post performs one JSON POST against the backend and decodes the response
// body into out. All failure modes return a *ClientError.
func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return &ClientError{Type: ErrTypeConnection, Message: "request cancelled", Cause: err}
		}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to marshal request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil || strings.Contains(err.Error(), "Client.Timeout") {
			return wrap(ErrTimeout, err)
		}
		return wrap(ErrConnection, err)
	}
	defer resp.Body.Close()

	data, err := readResponse(resp)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return httpError(resp.StatusCode, data)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode response", Cause: err}
	}
	return nil
}

// setHeaders sets the standard headers, attaching the bearer credential
// when one is held.
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "parley/0.1.0")

	if token, ok := c.session.Token(); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// readResponse reads the response body with a size limit.
func readResponse(resp *http.Response) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return nil, &ClientError{Type: ErrTypeConnection, Message: "failed to read response", Cause: err}
	}
	if int64(len(data)) == MaxResponseSize {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "response exceeded maximum size"}
	}
	return data, nil
}

// httpError converts a non-2xx response to a typed error, extracting the
// backend's detail message when the body carries one.
func httpError(statusCode int, body []byte) *ClientError {
	message := "request failed: " + http.StatusText(statusCode)

	var detail struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &detail); err == nil && detail.Detail != "" {
		message = detail.Detail
	}

	errType := ErrTypeHTTP
	if statusCode == http.StatusUnauthorized {
		errType = ErrTypeUnauthorized
	}

	return &ClientError{Type: errType, StatusCode: statusCode, Message: message}
}
