// ABOUTME: Unit tests for AuthContext propagation via context.Context
// ABOUTME: Tests WithAuth/FromContext/MustFromContext behavior

package auth

import (
	"context"
	"testing"
)

func TestWithAuth_FromContext(t *testing.T) {
	authCtx := &AuthContext{UserID: "usr_abc", IsSuperuser: true}
	ctx := WithAuth(context.Background(), authCtx)

	got := FromContext(ctx)
	if got == nil {
		t.Fatal("FromContext() returned nil")
	}
	if got.UserID != "usr_abc" {
		t.Errorf("UserID = %q, want %q", got.UserID, "usr_abc")
	}
	if !got.IsSuperuser {
		t.Error("IsSuperuser = false, want true")
	}
}

func TestFromContext_Missing(t *testing.T) {
	if got := FromContext(context.Background()); got != nil {
		t.Errorf("FromContext() = %v, want nil", got)
	}
}

func TestMustFromContext_Panics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("MustFromContext() should panic without auth context")
		}
	}()
	MustFromContext(context.Background())
}
