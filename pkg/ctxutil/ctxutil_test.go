package ctxutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestWithJobID_And_JobIDFromCtx(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	ctx := WithJobID(context.Background(), id)

	got, ok := JobIDFromCtx(ctx)
	if !ok {
		t.Fatal("expected ok=true for valid UUID")
	}
	if got != id {
		t.Fatalf("expected %s, got %s", id, got)
	}
}

func TestJobIDFromCtx_EmptyContext(t *testing.T) {
	t.Parallel()

	got, ok := JobIDFromCtx(context.Background())
	if ok {
		t.Fatal("expected ok=false for empty context")
	}
	if got != uuid.Nil {
		t.Fatalf("expected uuid.Nil, got %s", got)
	}
}

func TestJobIDFromCtx_NilUUID(t *testing.T) {
	t.Parallel()

	ctx := WithJobID(context.Background(), uuid.Nil)

	got, ok := JobIDFromCtx(ctx)
	if ok {
		t.Fatal("expected ok=false for uuid.Nil")
	}
	if got != uuid.Nil {
		t.Fatalf("expected uuid.Nil, got %s", got)
	}
}

func TestJobIDFromCtx_WrongType(t *testing.T) {
	t.Parallel()

	ctx := context.WithValue(context.Background(), ctxKey("job_id"), "not-a-uuid")

	got, ok := JobIDFromCtx(ctx)
	if ok {
		t.Fatal("expected ok=false for wrong type")
	}
	if got != uuid.Nil {
		t.Fatalf("expected uuid.Nil, got %s", got)
	}
}

func TestWithRequestID_And_RequestIDFromCtx(t *testing.T) {
	t.Parallel()

	ctx := WithRequestID(context.Background(), "req-123")

	got := RequestIDFromCtx(ctx)
	if got != "req-123" {
		t.Fatalf("expected req-123, got %s", got)
	}
}

func TestRequestIDFromCtx_EmptyContext(t *testing.T) {
	t.Parallel()

	got := RequestIDFromCtx(context.Background())
	if got != "" {
		t.Fatalf("expected empty string, got %s", got)
	}
}

func TestRequestIDFromCtx_WrongType(t *testing.T) {
	t.Parallel()

	ctx := context.WithValue(context.Background(), ctxKey("request_id"), 12345)

	got := RequestIDFromCtx(ctx)
	if got != "" {
		t.Fatalf("expected empty string, got %s", got)
	}
}
