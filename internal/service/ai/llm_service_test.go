package ai

import (
	"testing"

	"github.com/cloudwego/eino/schema"

	"github.com/kielo-labs/kielo/internal/model/convo"
)

func TestBuildHistoryMessagesMapsRoles(t *testing.T) {
	history := buildHistoryMessages([]convo.Message{
		{Role: convo.RoleUser, Content: "moi"},
		{Role: convo.RoleAssistant, Content: "Moi! Mitä kuuluu?"},
		{Role: convo.RoleSystem, Content: "must be skipped"},
	})

	if len(history) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(history))
	}
	if history[0].Role != schema.User || history[0].Content != "moi" {
		t.Fatalf("unexpected first message: %+v", history[0])
	}
	if history[1].Role != schema.Assistant {
		t.Fatalf("unexpected second role: %v", history[1].Role)
	}
}

func TestBuildHistoryMessagesEmpty(t *testing.T) {
	if got := buildHistoryMessages(nil); got != nil {
		t.Fatalf("expected nil for empty history, got %v", got)
	}
}
