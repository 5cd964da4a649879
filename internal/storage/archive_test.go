// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/jeranaias/parley/internal/model"
)

func openTestArchive(t *testing.T, maxSessions int) *Archive {
	t.Helper()
	arc, err := Open(filepath.Join(t.TempDir(), "parley.db"), maxSessions)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { arc.Close() })
	return arc
}

func sampleHistory() []model.Message {
	reply := model.NewAssistantMessage("the answer")
	reply.ID = 42
	return []model.Message{
		model.WelcomeMessage(),
		model.NewUserMessage("what is the question"),
		reply,
	}
}

func TestSaveAndLoadTranscript(t *testing.T) {
	arc := openTestArchive(t, 0)
	ctx := context.Background()

	if err := arc.SaveTranscript(ctx, "conv-1", sampleHistory()); err != nil {
		t.Fatalf("SaveTranscript: %v", err)
	}

	history, err := arc.LoadTranscript(ctx, "conv-1")
	if err != nil {
		t.Fatalf("LoadTranscript: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("history length = %d, want 3", len(history))
	}
	if history[1].Role != model.RoleUser || history[1].Content != "what is the question" {
		t.Errorf("message 1 = %+v", history[1])
	}
	if history[2].ID != 42 {
		t.Errorf("remote id = %d, want 42 preserved", history[2].ID)
	}
}

func TestSaveReplacesSnapshot(t *testing.T) {
	arc := openTestArchive(t, 0)
	ctx := context.Background()

	arc.SaveTranscript(ctx, "conv-1", sampleHistory())

	longer := append(sampleHistory(),
		model.NewUserMessage("followup"),
		model.NewAssistantMessage("more"))
	if err := arc.SaveTranscript(ctx, "conv-1", longer); err != nil {
		t.Fatalf("SaveTranscript: %v", err)
	}

	history, err := arc.LoadTranscript(ctx, "conv-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 5 {
		t.Errorf("history length = %d, want 5 (snapshot replaced)", len(history))
	}

	metas, _ := arc.List(ctx)
	if len(metas) != 1 {
		t.Errorf("conversation count = %d, want 1", len(metas))
	}
}

func TestLoadMissing(t *testing.T) {
	arc := openTestArchive(t, 0)
	_, err := arc.LoadTranscript(context.Background(), "nope")
	if !errors.Is(err, ErrTranscriptNotFound) {
		t.Errorf("err = %v, want ErrTranscriptNotFound", err)
	}
}

func TestListNewestFirst(t *testing.T) {
	arc := openTestArchive(t, 0)
	ctx := context.Background()

	// Same-second timestamps: ordering falls out of updated_at which is
	// coarse, so just verify both rows and the derived titles.
	arc.SaveTranscript(ctx, "conv-a", []model.Message{model.NewUserMessage("about apples")})
	arc.SaveTranscript(ctx, "conv-b", []model.Message{model.NewUserMessage("about oranges")})

	metas, err := arc.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(metas) != 2 {
		t.Fatalf("count = %d, want 2", len(metas))
	}
	for _, m := range metas {
		if m.MessageCount != 1 {
			t.Errorf("message count = %d, want 1", m.MessageCount)
		}
		if m.Title == "" {
			t.Error("title empty")
		}
	}
}

func TestSearch(t *testing.T) {
	arc := openTestArchive(t, 0)
	ctx := context.Background()

	arc.SaveTranscript(ctx, "conv-a", []model.Message{
		model.NewUserMessage("tell me about gophers"),
		model.NewAssistantMessage("gophers are burrowing rodents"),
	})
	arc.SaveTranscript(ctx, "conv-b", []model.Message{
		model.NewUserMessage("weather today"),
	})

	hits, err := arc.Search(ctx, "GOPHER")
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].ConversationID != "conv-a" {
		t.Errorf("hits = %+v", hits)
	}

	hits, _ = arc.Search(ctx, "nothing-matches")
	if len(hits) != 0 {
		t.Errorf("hits = %+v, want none", hits)
	}
}

func TestSearchMatchesLikeMetacharactersLiterally(t *testing.T) {
	arc := openTestArchive(t, 0)
	ctx := context.Background()

	arc.SaveTranscript(ctx, "conv-pct", []model.Message{
		model.NewUserMessage("we hit 100% coverage"),
	})
	arc.SaveTranscript(ctx, "conv-snake", []model.Message{
		model.NewUserMessage("rename max_sessions please"),
	})
	arc.SaveTranscript(ctx, "conv-plain", []model.Message{
		model.NewUserMessage("nothing special here"),
	})

	hits, err := arc.Search(ctx, "100%")
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].ConversationID != "conv-pct" {
		t.Errorf("hits = %+v, want only conv-pct", hits)
	}

	// A bare wildcard must not match every transcript.
	hits, _ = arc.Search(ctx, "%")
	if len(hits) != 1 || hits[0].ConversationID != "conv-pct" {
		t.Errorf("hits = %+v, want only the literal %% transcript", hits)
	}

	hits, _ = arc.Search(ctx, "max_sessions")
	if len(hits) != 1 || hits[0].ConversationID != "conv-snake" {
		t.Errorf("hits = %+v, want only conv-snake", hits)
	}
}

func TestRetentionCap(t *testing.T) {
	arc := openTestArchive(t, 2)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("conv-%d", i)
		if err := arc.SaveTranscript(ctx, id, []model.Message{model.NewUserMessage("hello")}); err != nil {
			t.Fatalf("SaveTranscript %s: %v", id, err)
		}
	}

	metas, err := arc.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(metas) != 2 {
		t.Errorf("retained = %d, want 2", len(metas))
	}
}

func TestDelete(t *testing.T) {
	arc := openTestArchive(t, 0)
	ctx := context.Background()

	arc.SaveTranscript(ctx, "conv-1", sampleHistory())
	if err := arc.Delete(ctx, "conv-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := arc.LoadTranscript(ctx, "conv-1"); !errors.Is(err, ErrTranscriptNotFound) {
		t.Errorf("load after delete: %v", err)
	}
	if err := arc.Delete(ctx, "conv-1"); !errors.Is(err, ErrTranscriptNotFound) {
		t.Errorf("double delete: %v", err)
	}
}

func TestClear(t *testing.T) {
	arc := openTestArchive(t, 0)
	ctx := context.Background()

	arc.SaveTranscript(ctx, "conv-1", sampleHistory())
	arc.SaveTranscript(ctx, "conv-2", sampleHistory())
	if err := arc.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	metas, _ := arc.List(ctx)
	if len(metas) != 0 {
		t.Errorf("count after clear = %d", len(metas))
	}
}

func TestSaveRequiresConversationID(t *testing.T) {
	arc := openTestArchive(t, 0)
	if err := arc.SaveTranscript(context.Background(), "", sampleHistory()); err == nil {
		t.Error("expected error for empty conversation id")
	}
}
