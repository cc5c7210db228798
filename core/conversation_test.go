package core

import "testing"

func TestConversation_AppendAndClone(t *testing.T) {
	c := NewConversation("s1")

	id := c.AppendTurn(RoleUser, "hi")
	if id == "" {
		t.Fatal("expected generated turn id")
	}
	c.AppendTurn(RoleAssistant, "hello")

	clone := c.Clone()
	if clone == c {
		t.Error("Clone should be a different pointer")
	}

	clone.AppendTurn(RoleUser, "again")
	if c.Len() != 2 {
		t.Errorf("original should not see clone's new turn, got %d turns", c.Len())
	}
	if clone.Len() != 3 {
		t.Errorf("clone should have 3 turns, got %d", clone.Len())
	}
}

func TestConversation_GetTurnsCopies(t *testing.T) {
	c := NewConversation("s2")
	c.AppendTurn(RoleUser, "one")
	c.AppendTurn(RoleAssistant, "two")

	turns := c.GetTurns()
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[0].Role != RoleUser || turns[1].Role != RoleAssistant {
		t.Errorf("unexpected order: %+v", turns)
	}

	turns[0].Content = "changed"
	if c.GetTurns()[0].Content != "one" {
		t.Error("turn slice should be copied on read")
	}
}
