// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jeranaias/parley/internal/auth"
	"github.com/jeranaias/parley/internal/model"
)

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	cfg := DefaultClientConfig()
	cfg.BaseURL = url
	return NewClientWithConfig(cfg, auth.NewSession(""))
}

func TestSendChatSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat" {
			t.Errorf("path = %q, want /chat", r.URL.Path)
		}
		var req ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Stream {
			t.Error("stream should always be false")
		}
		json.NewEncoder(w).Encode(ChatResponse{
			ConversationID: "conv-1",
			Status:         StatusOK,
			MessageID:      42,
			Response:       model.Message{Role: model.RoleAssistant, Content: "hello there"},
		})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	resp := client.SendChat(context.Background(), ChatRequest{
		Messages: []model.Message{model.NewUserMessage("hi")},
	})

	if !resp.OK() {
		t.Fatalf("status = %q, want ok", resp.Status)
	}
	if resp.ConversationID != "conv-1" {
		t.Errorf("conversation id = %q, want conv-1", resp.ConversationID)
	}
	if resp.Response.Content != "hello there" {
		t.Errorf("content = %q", resp.Response.Content)
	}
}

func TestSendChatNormalizesMessageID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The envelope carries the id; the embedded message does not.
		json.NewEncoder(w).Encode(ChatResponse{
			ConversationID: "conv-1",
			Status:         StatusOK,
			MessageID:      42,
			Response:       model.Message{Role: model.RoleAssistant, Content: "reply"},
		})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	resp := client.SendChat(context.Background(), ChatRequest{})

	if resp.Response.ID != 42 {
		t.Errorf("message id = %d, want 42 (backfilled from envelope)", resp.Response.ID)
	}
}

func TestSendChatKeepsEmbeddedID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ChatResponse{
			ConversationID: "conv-1",
			Status:         StatusOK,
			MessageID:      99,
			Response:       model.Message{ID: 7, Role: model.RoleAssistant, Content: "reply"},
		})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	resp := client.SendChat(context.Background(), ChatRequest{})

	if resp.Response.ID != 7 {
		t.Errorf("message id = %d, want embedded id 7 to win", resp.Response.ID)
	}
}

func TestSendChatHTTPErrorFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"boom"}`, http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	resp := client.SendChat(context.Background(), ChatRequest{})

	if resp.OK() {
		t.Fatal("expected error status")
	}
	if resp.ConversationID != ConversationUnknown {
		t.Errorf("conversation id = %q, want %q", resp.ConversationID, ConversationUnknown)
	}
	if resp.Response.Role != model.RoleAssistant {
		t.Errorf("fallback role = %q, want assistant", resp.Response.Role)
	}
	if resp.Response.Content != FallbackText {
		t.Errorf("fallback content = %q", resp.Response.Content)
	}
}

func TestSendChatTransportFailureFallback(t *testing.T) {
	// Point at a server that has already been shut down.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := newTestClient(t, server.URL)
	resp := client.SendChat(context.Background(), ChatRequest{})

	if resp.OK() {
		t.Fatal("expected error status")
	}
	if resp.Response.Content != FallbackText {
		t.Errorf("fallback content = %q", resp.Response.Content)
	}
}

func TestSendChatAttachesBearerToken(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(ChatResponse{Status: StatusOK})
	}))
	defer server.Close()

	session := auth.NewSession("")
	session.Set("tok-123")

	cfg := DefaultClientConfig()
	cfg.BaseURL = server.URL
	client := NewClientWithConfig(cfg, session)
	client.SendChat(context.Background(), ChatRequest{})

	if gotAuth != "Bearer tok-123" {
		t.Errorf("authorization = %q, want Bearer tok-123", gotAuth)
	}
}

func TestSendChatNoTokenNoHeader(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(ChatResponse{Status: StatusOK})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	client.SendChat(context.Background(), ChatRequest{})

	if gotAuth != "" {
		t.Errorf("authorization = %q, want empty", gotAuth)
	}
}

func TestSendFeedbackSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/feedback" {
			t.Errorf("path = %q, want /feedback", r.URL.Path)
		}
		var req FeedbackRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.MessageID != 42 {
			t.Errorf("message_id = %d, want 42", req.MessageID)
		}
		if len(req.Tags) != 1 || req.Tags[0] != "perfect" {
			t.Errorf("tags = %v, want [perfect]", req.Tags)
		}
		json.NewEncoder(w).Encode(FeedbackResponse{Status: StatusOK})
	}))
	defer server.Close()

	req, err := NewFeedbackRequest(42, RatingThumbsUp, "perfect", "")
	if err != nil {
		t.Fatalf("NewFeedbackRequest: %v", err)
	}

	client := newTestClient(t, server.URL)
	resp := client.SendFeedback(context.Background(), req)
	if !resp.OK() {
		t.Errorf("status = %q, want ok", resp.Status)
	}
}

func TestSendFeedbackErrorCollapses(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer server.Close()

	req, _ := NewFeedbackRequest(1, RatingThumbsDown, "", "")
	client := newTestClient(t, server.URL)
	resp := client.SendFeedback(context.Background(), req)

	if resp.Status != StatusError {
		t.Errorf("status = %q, want error", resp.Status)
	}
}

func TestSendFeedbackRejectsInvalid(t *testing.T) {
	// No server: an invalid request must be rejected before any I/O.
	client := newTestClient(t, "http://127.0.0.1:0")
	resp := client.SendFeedback(context.Background(), FeedbackRequest{MessageID: 1, Rating: "meh"})
	if resp.Status != StatusError {
		t.Errorf("status = %q, want error", resp.Status)
	}
}

func TestLoginSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login" {
			t.Errorf("path = %q, want /auth/login", r.URL.Path)
		}
		json.NewEncoder(w).Encode(AuthResponse{AccessToken: "tok-abc", TokenType: "bearer"})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	resp, err := client.Login(context.Background(), Credentials{Username: "alice", Password: "s3cret"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if resp.AccessToken != "tok-abc" {
		t.Errorf("token = %q", resp.AccessToken)
	}
}

func TestLoginUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"Invalid credentials"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	resp, err := client.Login(context.Background(), Credentials{Username: "alice", Password: "wrong"})
	if resp != nil {
		t.Error("expected nil response on auth failure")
	}
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("err = %v, want unauthorized", err)
	}
	var ce *ClientError
	if !errors.As(err, &ce) || ce.Message != "Invalid credentials" {
		t.Errorf("detail message not surfaced: %v", err)
	}
}

func TestLoginConnectionFailureMatchesSentinel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.Login(context.Background(), Credentials{Username: "alice", Password: "s3cret"})
	if !errors.Is(err, ErrConnection) {
		t.Errorf("err = %v, want connection failure", err)
	}
	var ce *ClientError
	if !errors.As(err, &ce) || ce.Cause == nil {
		t.Errorf("transport cause not preserved: %v", err)
	}
}

func TestLoginEmptyCredentials(t *testing.T) {
	client := newTestClient(t, "http://127.0.0.1:0")
	_, err := client.Login(context.Background(), Credentials{})
	if !errors.Is(err, ErrEmptyCredentials) {
		t.Errorf("err = %v, want ErrEmptyCredentials", err)
	}
}

func TestRegisterSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/register" {
			t.Errorf("path = %q, want /auth/register", r.URL.Path)
		}
		json.NewEncoder(w).Encode(AuthResponse{AccessToken: "tok-new", TokenType: "bearer"})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	resp, err := client.Register(context.Background(), Credentials{Username: "bob", Password: "hunter2"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if resp.AccessToken != "tok-new" {
		t.Errorf("token = %q", resp.AccessToken)
	}
}

func TestClientTimeoutProducesFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		json.NewEncoder(w).Encode(ChatResponse{Status: StatusOK})
	}))
	defer server.Close()

	cfg := DefaultClientConfig()
	cfg.BaseURL = server.URL
	cfg.Timeout = 50 * time.Millisecond
	client := NewClientWithConfig(cfg, auth.NewSession(""))

	resp := client.SendChat(context.Background(), ChatRequest{})
	if resp.OK() {
		t.Fatal("expected error status from timeout")
	}
	if resp.Response.Content != FallbackText {
		t.Errorf("fallback content = %q", resp.Response.Content)
	}
}

func TestConfigDefaults(t *testing.T) {
	client := NewClientWithConfig(&ClientConfig{}, auth.NewSession(""))
	if client.config.BaseURL != DefaultBaseURL {
		t.Errorf("base url = %q, want default", client.config.BaseURL)
	}
	if client.config.Timeout != DefaultTimeout {
		t.Errorf("timeout = %v, want default", client.config.Timeout)
	}
}
