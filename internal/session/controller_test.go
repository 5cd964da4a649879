// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jeranaias/parley/internal/api"
	"github.com/jeranaias/parley/internal/model"
)

// fakeSender records requests and replays canned responses.
type fakeSender struct {
	mu        sync.Mutex
	requests  []api.ChatRequest
	responses []api.ChatResponse
	delay     time.Duration
	release   chan struct{} // when set, SendChat blocks until closed
}

func (f *fakeSender) SendChat(ctx context.Context, req api.ChatRequest) api.ChatResponse {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	var resp api.ChatResponse
	if len(f.responses) > 0 {
		resp = f.responses[0]
		f.responses = f.responses[1:]
	} else {
		resp = okResponse("conv-1", "reply")
	}
	f.mu.Unlock()

	if f.release != nil {
		<-f.release
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return resp
}

func (f *fakeSender) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func okResponse(conversationID, content string) api.ChatResponse {
	return api.ChatResponse{
		ConversationID: conversationID,
		Status:         api.StatusOK,
		Response:       model.NewAssistantMessage(content),
	}
}

func errResponse() api.ChatResponse {
	return api.ChatResponse{
		ConversationID: api.ConversationUnknown,
		Status:         api.StatusError,
		Response:       model.NewAssistantMessage(api.FallbackText),
	}
}

func TestNewControllerSeedsWelcome(t *testing.T) {
	ctrl := NewController(&fakeSender{})
	history := ctrl.History()
	if len(history) != 1 {
		t.Fatalf("history length = %d, want 1", len(history))
	}
	if history[0].Content != model.WelcomeText {
		t.Errorf("seed content = %q", history[0].Content)
	}
	if history[0].Role != model.RoleAssistant {
		t.Errorf("seed role = %q, want assistant", history[0].Role)
	}
	if ctrl.ConversationID() != "" {
		t.Errorf("conversation id = %q, want empty", ctrl.ConversationID())
	}
}

func TestSubmitAppendsUserAndReply(t *testing.T) {
	sender := &fakeSender{responses: []api.ChatResponse{okResponse("conv-1", "hi back")}}
	ctrl := NewController(sender)

	if !ctrl.Submit(context.Background(), "hello") {
		t.Fatal("Submit returned false")
	}

	history := ctrl.History()
	if len(history) != 3 {
		t.Fatalf("history length = %d, want 3", len(history))
	}
	if history[1].Role != model.RoleUser || history[1].Content != "hello" {
		t.Errorf("user message = %+v", history[1])
	}
	if history[2].Role != model.RoleAssistant || history[2].Content != "hi back" {
		t.Errorf("assistant message = %+v", history[2])
	}
	if ctrl.ConversationID() != "conv-1" {
		t.Errorf("conversation id = %q, want conv-1", ctrl.ConversationID())
	}
	if ctrl.Pending() {
		t.Error("pending should be released after the exchange")
	}
}

func TestSubmitSendsOnlyNewestTurn(t *testing.T) {
	sender := &fakeSender{}
	ctrl := NewController(sender)
	ctrl.Submit(context.Background(), "first")
	ctrl.Submit(context.Background(), "second")

	sender.mu.Lock()
	defer sender.mu.Unlock()
	got := sender.requests[1]
	// Context lives server-side; only the new turn goes over the wire.
	if len(got.Messages) != 1 {
		t.Fatalf("payload length = %d, want 1", len(got.Messages))
	}
	if got.Messages[0].Content != "second" {
		t.Errorf("payload message = %q", got.Messages[0].Content)
	}
	if got.ConversationID != "conv-1" {
		t.Errorf("conversation id = %q, want conv-1 carried forward", got.ConversationID)
	}
}

func TestSubmitBlankIsNoOp(t *testing.T) {
	sender := &fakeSender{}
	ctrl := NewController(sender)

	for _, input := range []string{"", "   ", "\n\t "} {
		if ctrl.Submit(context.Background(), input) {
			t.Errorf("Submit(%q) ran an exchange", input)
		}
	}
	if sender.requestCount() != 0 {
		t.Errorf("request count = %d, want 0", sender.requestCount())
	}
	if len(ctrl.History()) != 1 {
		t.Errorf("history length = %d, want 1", len(ctrl.History()))
	}
}

func TestSubmitTrimsInput(t *testing.T) {
	sender := &fakeSender{}
	ctrl := NewController(sender)
	ctrl.Submit(context.Background(), "  hello  ")
	if got := ctrl.History()[1].Content; got != "hello" {
		t.Errorf("stored content = %q, want trimmed", got)
	}
}

func TestSubmitDropsWhilePending(t *testing.T) {
	release := make(chan struct{})
	sender := &fakeSender{release: release}
	ctrl := NewController(sender)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ctrl.Submit(context.Background(), "first")
	}()

	// Wait for the first exchange to be in flight.
	deadline := time.After(time.Second)
	for sender.requestCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("first exchange never started")
		default:
			time.Sleep(time.Millisecond)
		}
	}
	if !ctrl.Pending() {
		t.Fatal("pending should be set while in flight")
	}

	if ctrl.Submit(context.Background(), "second") {
		t.Error("second submit should be dropped while pending")
	}

	close(release)
	wg.Wait()

	if sender.requestCount() != 1 {
		t.Errorf("request count = %d, want 1", sender.requestCount())
	}
	history := ctrl.History()
	for _, m := range history {
		if m.Content == "second" {
			t.Error("dropped input leaked into history")
		}
	}
	if ctrl.Pending() {
		t.Error("pending should be released")
	}

	// The guard must be released, not stuck: a fresh submit runs.
	if !ctrl.Submit(context.Background(), "third") {
		t.Error("submit after release should run")
	}
}

func TestErrorReplyAppendsFallback(t *testing.T) {
	sender := &fakeSender{responses: []api.ChatResponse{
		okResponse("conv-1", "ok"),
		errResponse(),
	}}
	ctrl := NewController(sender)

	ctrl.Submit(context.Background(), "first")
	ctrl.Submit(context.Background(), "second")

	// The identifier tracks the last response, failed ones included.
	if ctrl.ConversationID() != api.ConversationUnknown {
		t.Errorf("conversation id = %q, want %q after failure", ctrl.ConversationID(), api.ConversationUnknown)
	}
	history := ctrl.History()
	last := history[len(history)-1]
	if last.Content != api.FallbackText {
		t.Errorf("fallback reply = %q", last.Content)
	}
	if ctrl.Pending() {
		t.Error("pending should be released after a failed exchange")
	}
}

func TestReset(t *testing.T) {
	ctrl := NewController(&fakeSender{})
	ctrl.Submit(context.Background(), "hello")
	ctrl.Reset()

	history := ctrl.History()
	if len(history) != 1 || history[0].Content != model.WelcomeText {
		t.Errorf("history after reset = %+v", history)
	}
	if ctrl.ConversationID() != "" {
		t.Errorf("conversation id = %q, want cleared", ctrl.ConversationID())
	}
}

func TestRestore(t *testing.T) {
	ctrl := NewController(&fakeSender{})
	saved := []model.Message{
		model.NewUserMessage("old question"),
		model.NewAssistantMessage("old answer"),
	}
	ctrl.Restore("conv-9", saved)

	if ctrl.ConversationID() != "conv-9" {
		t.Errorf("conversation id = %q", ctrl.ConversationID())
	}
	history := ctrl.History()
	if len(history) != 2 || history[0].Content != "old question" {
		t.Errorf("restored history = %+v", history)
	}

	// The restored slice is a copy; mutating the input must not leak.
	saved[0].Content = "mutated"
	if ctrl.History()[0].Content != "old question" {
		t.Error("restore aliased the caller's slice")
	}
}

func TestOnChangeFires(t *testing.T) {
	var calls atomic.Int64
	ctrl := NewController(&fakeSender{})
	ctrl.OnChange(func() { calls.Add(1) })

	ctrl.Submit(context.Background(), "hello")
	// user append, reply append, pending release
	if calls.Load() < 2 {
		t.Errorf("onChange calls = %d, want at least 2", calls.Load())
	}

	before := calls.Load()
	ctrl.Reset()
	if calls.Load() != before+1 {
		t.Errorf("Reset should fire onChange once, got %d", calls.Load()-before)
	}
}
