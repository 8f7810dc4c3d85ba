package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ActiveSession mirrors a running ingestion session so other tools can see it.
type ActiveSession struct {
	SessionID string    `json:"session_id"`
	BatteryID string    `json:"battery_id"`
	TestID    string    `json:"test_id"`
	SoC       int       `json:"soc"`
	StartedAt time.Time `json:"started_at"`
}

// Store manages active session cache.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore returns redis-backed store.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

// Key returns the redis key for a session id.
func Key(sessionID string) string {
	return fmt.Sprintf("eis:sessions:active:%s", sessionID)
}

// Save caches session.
func (s *Store) Save(ctx context.Context, session ActiveSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, Key(session.SessionID), data, s.ttl).Err()
}

// Delete removes cached session.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, Key(sessionID)).Err()
}
