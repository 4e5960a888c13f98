package auditctx

import (
	"context"
	"testing"
)

func TestActorRoundTrip(t *testing.T) {
	ctx := WithActor(context.Background(), Actor{IPAddress: "203.0.113.9", RequestID: "01HX"})

	actor, ok := FromContext(ctx)
	if !ok {
		t.Fatal("expected actor in context")
	}
	if actor.IPAddress != "203.0.113.9" || actor.RequestID != "01HX" {
		t.Fatalf("unexpected actor %+v", actor)
	}

	if _, ok := FromContext(context.Background()); ok {
		t.Fatal("expected no actor in empty context")
	}
	if _, ok := FromContext(nil); ok {
		t.Fatal("expected no actor for nil context")
	}
}
