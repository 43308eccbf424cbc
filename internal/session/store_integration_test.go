//go:build integration
// +build integration

package session

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/jurigo/jurigo/internal/log"
	"github.com/jurigo/jurigo/internal/testutil"
)

func TestStore_ConversationLifecycle_Integration(t *testing.T) {
	dbc, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	store := New(dbc.Pool, log.NewNop())
	ctx := context.Background()

	conv, err := store.CreateConversation(ctx, "alice", "Responsabilité civile")
	if err != nil {
		t.Fatalf("CreateConversation() error: %v", err)
	}
	if conv.ID == uuid.Nil {
		t.Fatal("conversation ID not assigned")
	}
	if conv.UserID != "alice" || conv.Title != "Responsabilité civile" {
		t.Errorf("conversation = %+v", conv)
	}

	got, err := store.GetConversation(ctx, conv.ID)
	if err != nil {
		t.Fatalf("GetConversation() error: %v", err)
	}
	if got.ID != conv.ID || got.UserID != "alice" {
		t.Errorf("got %+v, want %+v", got, conv)
	}

	untitled, err := store.CreateConversation(ctx, "alice", "")
	if err != nil {
		t.Fatalf("CreateConversation() without title: %v", err)
	}
	if untitled.Title != "" {
		t.Errorf("untitled conversation has title %q", untitled.Title)
	}
}

func TestStore_ListConversations_ScopedToUser_Integration(t *testing.T) {
	dbc, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	store := New(dbc.Pool, log.NewNop())
	ctx := context.Background()

	first, err := store.CreateConversation(ctx, "alice", "Première")
	if err != nil {
		t.Fatalf("CreateConversation() error: %v", err)
	}
	second, err := store.CreateConversation(ctx, "alice", "Seconde")
	if err != nil {
		t.Fatalf("CreateConversation() error: %v", err)
	}
	if _, err := store.CreateConversation(ctx, "bob", "Autre utilisateur"); err != nil {
		t.Fatalf("CreateConversation() error: %v", err)
	}

	// Touch the first conversation so it becomes the most recently updated.
	err = store.AppendMessages(ctx, first.ID, []Message{
		{Role: RoleUser, Content: "Bonjour"},
	})
	if err != nil {
		t.Fatalf("AppendMessages() error: %v", err)
	}

	convs, err := store.ListConversations(ctx, "alice", 10, 0)
	if err != nil {
		t.Fatalf("ListConversations() error: %v", err)
	}
	if len(convs) != 2 {
		t.Fatalf("got %d conversations, want 2", len(convs))
	}
	if convs[0].ID != first.ID || convs[1].ID != second.ID {
		t.Errorf("order = [%s %s], want most recently updated first", convs[0].ID, convs[1].ID)
	}
}

func TestStore_AppendMessages_SequenceNumbers_Integration(t *testing.T) {
	dbc, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	store := New(dbc.Pool, log.NewNop())
	ctx := context.Background()

	conv, err := store.CreateConversation(ctx, "alice", "")
	if err != nil {
		t.Fatalf("CreateConversation() error: %v", err)
	}

	err = store.AppendMessages(ctx, conv.ID, []Message{
		{Role: RoleUser, Content: "Qu'est-ce que l'article 1240 ?"},
		{Role: RoleAssistant, Content: "Il fonde la responsabilité du fait personnel."},
	})
	if err != nil {
		t.Fatalf("first AppendMessages() error: %v", err)
	}

	// A second batch must continue the numbering, not restart it.
	err = store.AppendMessages(ctx, conv.ID, []Message{
		{Role: RoleUser, Content: "Et l'article 1241 ?"},
	})
	if err != nil {
		t.Fatalf("second AppendMessages() error: %v", err)
	}

	msgs, err := store.Messages(ctx, conv.ID, 10, 0)
	if err != nil {
		t.Fatalf("Messages() error: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("got %d messages, want 3", len(msgs))
	}
	for i, m := range msgs {
		if want := int32(i + 1); m.SequenceNumber != want {
			t.Errorf("message %d: sequence_number = %d, want %d", i, m.SequenceNumber, want)
		}
	}
	if msgs[0].Role != RoleUser || msgs[1].Role != RoleAssistant || msgs[2].Role != RoleUser {
		t.Errorf("roles = [%s %s %s]", msgs[0].Role, msgs[1].Role, msgs[2].Role)
	}
}

func TestStore_AppendMessages_RejectsInvalidRole_Integration(t *testing.T) {
	dbc, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	store := New(dbc.Pool, log.NewNop())
	ctx := context.Background()

	conv, err := store.CreateConversation(ctx, "alice", "")
	if err != nil {
		t.Fatalf("CreateConversation() error: %v", err)
	}

	err = store.AppendMessages(ctx, conv.ID, []Message{
		{Role: RoleUser, Content: "valide"},
		{Role: "system", Content: "invalide"},
	})
	if err == nil {
		t.Fatal("expected an error for an invalid role")
	}

	// The whole batch is transactional: the valid message must not persist.
	msgs, err := store.Messages(ctx, conv.ID, 10, 0)
	if err != nil {
		t.Fatalf("Messages() error: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("got %d messages after failed append, want 0", len(msgs))
	}
}

func TestStore_AppendMessages_UnknownConversation_Integration(t *testing.T) {
	dbc, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	store := New(dbc.Pool, log.NewNop())

	err := store.AppendMessages(context.Background(), uuid.New(), []Message{
		{Role: RoleUser, Content: "perdu"},
	})
	if err == nil {
		t.Fatal("expected an error for an unknown conversation")
	}
}
