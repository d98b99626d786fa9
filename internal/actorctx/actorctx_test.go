package actorctx

import (
	"context"
	"testing"
)

func TestActorRoundTrip(t *testing.T) {
	ctx := With(context.Background(), Actor{UserID: "u1", Role: "user"})

	id, ok := UserIDFrom(ctx)
	if !ok || id != "u1" {
		t.Fatalf("expected u1, got %q ok=%v", id, ok)
	}

	if _, ok := UserIDFrom(context.Background()); ok {
		t.Fatalf("expected no actor on empty context")
	}
}
