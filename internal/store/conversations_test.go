// ABOUTME: Tests for the conversation repository
// ABOUTME: Covers password generation, FK enforcement, ordering, and deletes

package store

import (
	"context"
	"errors"
	"testing"
)

func TestConversationCreate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	uow := begin(t, s)
	user := createTestUser(t, uow, "owner@example.com")
	st := createTestStack(t, uow, user.ID)

	conv, err := uow.Conversations.Create(ctx, st.ID)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if got, want := conv.ID[:5], "conv_"; got != want {
		t.Errorf("ID prefix = %q, want %q", got, want)
	}
	if conv.Password == "" {
		t.Error("expected generated password")
	}

	other, err := uow.Conversations.Create(ctx, st.ID)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if other.Password == conv.Password {
		t.Error("passwords should be unique per conversation")
	}
}

func TestConversationCreate_WrongStackID(t *testing.T) {
	s := newTestStore(t)

	uow := begin(t, s)
	_, err := uow.Conversations.Create(context.Background(), "st_missing")
	var dbErr *DatabaseError
	if !errors.As(err, &dbErr) {
		t.Fatalf("expected DatabaseError for missing stack, got %v", err)
	}
}

func TestConversationIsAccessibleByUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	uow := begin(t, s)
	owner := createTestUser(t, uow, "owner@example.com")
	other := createTestUser(t, uow, "other@example.com")
	st := createTestStack(t, uow, owner.ID)
	conv, err := uow.Conversations.Create(ctx, st.ID)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	ok, err := uow.Conversations.IsAccessibleByUser(ctx, conv.ID, owner.ID)
	if err != nil {
		t.Fatalf("IsAccessibleByUser failed: %v", err)
	}
	if !ok {
		t.Error("owner should have access")
	}

	ok, err = uow.Conversations.IsAccessibleByUser(ctx, conv.ID, other.ID)
	if err != nil {
		t.Fatalf("IsAccessibleByUser failed: %v", err)
	}
	if ok {
		t.Error("other user should not have access")
	}
}

func TestConversationGetByUserID_NewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	uow := begin(t, s)
	owner := createTestUser(t, uow, "owner@example.com")
	other := createTestUser(t, uow, "other@example.com")
	stackA := createTestStack(t, uow, owner.ID)
	stackB := createTestStack(t, uow, owner.ID)
	foreign := createTestStack(t, uow, other.ID)

	first, err := uow.Conversations.Create(ctx, stackA.ID)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	second, err := uow.Conversations.Create(ctx, stackB.ID)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := uow.Conversations.Create(ctx, foreign.ID); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	conversations, err := uow.Conversations.GetByUserID(ctx, owner.ID)
	if err != nil {
		t.Fatalf("GetByUserID failed: %v", err)
	}
	if len(conversations) != 2 {
		t.Fatalf("got %d conversations, want 2", len(conversations))
	}
	if conversations[0].ID != second.ID || conversations[1].ID != first.ID {
		t.Errorf("order mismatch: got [%s, %s], want newest first [%s, %s]",
			conversations[0].ID, conversations[1].ID, second.ID, first.ID)
	}
}

func TestConversationGetByID_NotFound(t *testing.T) {
	s := newTestStore(t)

	uow := begin(t, s)
	if _, err := uow.Conversations.GetByID(context.Background(), "conv_missing"); !IsNotFound(err) {
		t.Errorf("expected not-found, got %v", err)
	}
}

func TestConversationDelete_RemovesMessages(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	uow := begin(t, s)
	user := createTestUser(t, uow, "owner@example.com")
	st := createTestStack(t, uow, user.ID)
	conv, err := uow.Conversations.Create(ctx, st.ID)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := uow.Messages.CreateMessage(ctx, conv.ID, "hi"); err != nil {
		t.Fatalf("creating message: %v", err)
	}
	keep, err := uow.Conversations.Create(ctx, st.ID)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := uow.Messages.CreateMessage(ctx, keep.ID, "stays"); err != nil {
		t.Fatalf("creating message: %v", err)
	}
	commit(t, uow)

	del := begin(t, s)
	if err := del.Conversations.Delete(ctx, conv.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	commit(t, del)

	check := begin(t, s)
	if _, err := check.Conversations.GetByID(ctx, conv.ID); !IsNotFound(err) {
		t.Errorf("conversation should be gone, got %v", err)
	}
	remaining, err := check.Messages.GetByConversation(ctx, keep.ID)
	if err != nil {
		t.Fatalf("GetByConversation failed: %v", err)
	}
	if len(remaining) != 1 {
		t.Errorf("sibling conversation lost messages: got %d, want 1", len(remaining))
	}
	n, err := check.Messages.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 1 {
		t.Errorf("message count = %d, want 1", n)
	}
}

func TestConversationDelete_NotFound(t *testing.T) {
	s := newTestStore(t)

	uow := begin(t, s)
	if err := uow.Conversations.Delete(context.Background(), "conv_missing"); !IsNotFound(err) {
		t.Errorf("expected not-found, got %v", err)
	}
}
