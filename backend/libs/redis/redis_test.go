package redis

import (
	"context"
	"testing"
)

func TestNewRedisClientValidatesInput(t *testing.T) {
	ctx := context.Background()
	if _, err := NewRedisClient(ctx, "", "", 0); err == nil {
		t.Fatalf("expected error for empty addr")
	}
	if _, err := NewRedisClient(ctx, "localhost:6379", "", -1); err == nil {
		t.Fatalf("expected error for negative db")
	}
}
