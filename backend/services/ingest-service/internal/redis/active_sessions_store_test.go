package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestKey(t *testing.T) {
	if got := Key("abc"); got != "eis:sessions:active:abc" {
		t.Fatalf("Key = %q", got)
	}
}

func TestStoreReportsUnreachableServer(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()
	store := NewStore(client, time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := store.Save(ctx, ActiveSession{SessionID: "s1"}); err == nil {
		t.Fatalf("expected save error")
	}
	if err := store.Delete(ctx, "s1"); err == nil {
		t.Fatalf("expected delete error")
	}
}
