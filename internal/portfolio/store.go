package portfolio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const snapshotTTL = time.Hour

// KV is the slice of the Redis client the store needs. Both the plain
// and the instrumented client satisfy it.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Store keeps the latest snapshot per chat in Redis so consecutive
// Telegram updates render from the same consistent view.
type Store struct {
	client KV
}

// NewStore constructs a snapshot store backed by the provided client.
func NewStore(client KV) *Store {
	return &Store{client: client}
}

// Get fetches the stored snapshot if one exists, nil otherwise.
func (s *Store) Get(ctx context.Context, chatID int64) (*Snapshot, error) {
	if s == nil || s.client == nil {
		return nil, nil
	}

	data, err := s.client.Get(ctx, snapshotKey(chatID))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal([]byte(data), &snapshot); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}

	return &snapshot, nil
}

// Set replaces the stored snapshot for the chat.
func (s *Store) Set(ctx context.Context, chatID int64, snapshot *Snapshot) error {
	if s == nil || s.client == nil || snapshot == nil {
		return nil
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	if err := s.client.Set(ctx, snapshotKey(chatID), payload, snapshotTTL); err != nil {
		return fmt.Errorf("set snapshot: %w", err)
	}

	return nil
}

// Invalidate removes the stored snapshot if it exists.
func (s *Store) Invalidate(ctx context.Context, chatID int64) error {
	if s == nil || s.client == nil {
		return nil
	}

	if err := s.client.Delete(ctx, snapshotKey(chatID)); err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}

	return nil
}

func snapshotKey(chatID int64) string {
	return fmt.Sprintf("portfolio:snapshot:%d", chatID)
}
