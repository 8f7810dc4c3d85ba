package db

import (
	"context"
	"testing"
)

func TestNewPostgresDBRejectsEmptyDSN(t *testing.T) {
	if _, err := NewPostgresDB(context.Background(), "  ", PoolOptions{}); err == nil {
		t.Fatalf("expected error for empty DSN")
	}
}
