package chat_test

import (
	"testing"

	modelchat "github.com/freshpick/smartshop/backend/internal/model/chat"
	chat "github.com/freshpick/smartshop/backend/internal/service/chat"
)

func TestAppendAndRecentPreserveOrder(t *testing.T) {
	svc := chat.NewService()

	svc.Append("s1", modelchat.RoleUser, "first")
	svc.Append("s1", modelchat.RoleAssistant, "second")
	svc.Append("s1", modelchat.RoleUser, "third")

	turns := svc.Recent("s1", 10)
	if len(turns) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(turns))
	}
	if turns[0].Content != "first" || turns[2].Content != "third" {
		t.Fatalf("turns out of order: %v", turns)
	}
	if turns[1].Role != modelchat.RoleAssistant {
		t.Fatalf("unexpected role on second turn: %s", turns[1].Role)
	}
}

func TestRecentBoundsHistory(t *testing.T) {
	svc := chat.NewService()
	contents := []string{"a", "b", "c", "d", "e"}
	for _, c := range contents {
		svc.Append("s1", modelchat.RoleUser, c)
	}

	turns := svc.Recent("s1", 3)
	if len(turns) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(turns))
	}
	if turns[0].Content != "c" || turns[2].Content != "e" {
		t.Fatalf("expected suffix [c d e], got %v", turns)
	}
}

func TestRecentUnknownSession(t *testing.T) {
	svc := chat.NewService()

	if turns := svc.Recent("missing", 5); len(turns) != 0 {
		t.Fatalf("expected empty history, got %d turns", len(turns))
	}
}

func TestRecentDoesNotAliasInternalState(t *testing.T) {
	svc := chat.NewService()
	svc.Append("s1", modelchat.RoleUser, "original")

	turns := svc.Recent("s1", 1)
	turns[0].Content = "mutated"

	if got := svc.Recent("s1", 1)[0].Content; got != "original" {
		t.Fatalf("stored turn mutated through Recent result: %s", got)
	}
}

func TestClearThenRecent(t *testing.T) {
	svc := chat.NewService()
	svc.Append("s1", modelchat.RoleUser, "hello")

	svc.Clear("s1")

	if turns := svc.Recent("s1", 5); len(turns) != 0 {
		t.Fatalf("expected empty history after clear, got %d turns", len(turns))
	}
}

func TestClearUnknownSessionIsNoOp(t *testing.T) {
	svc := chat.NewService()
	svc.Clear("never-existed")
}
