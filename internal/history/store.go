// Package history persists executed swap records, newest first, capped
// per user.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/uswap-new/uiuswap.github.io/internal/types"
)

// PlaceholderTxID marks a counterpart transaction id recorded before
// per-transaction ids were tracked. Terminal records carrying it are
// re-queried once to backfill the real id.
const PlaceholderTxID = "unknown"

// ErrRecordNotFound is returned by Update when no record matches.
var ErrRecordNotFound = errors.New("history: record not found")

// Store is the persisted swap history. Records are ordered newest first
// and evicted oldest first past the cap.
type Store interface {
	List(ctx context.Context, username string) ([]types.SwapRecord, error)
	Append(ctx context.Context, rec types.SwapRecord) error
	Update(ctx context.Context, rec types.SwapRecord) error
}

// RedisStore keeps each user's history as one JSON-encoded array under a
// single scoped key.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
	cap    int
}

func NewRedisStore(rdb *redis.Client, prefix string, cap int) *RedisStore {
	if cap <= 0 {
		cap = 10
	}
	return &RedisStore{rdb: rdb, prefix: prefix, cap: cap}
}

func (s *RedisStore) key(username string) string { return s.prefix + username }

func (s *RedisStore) List(ctx context.Context, username string) ([]types.SwapRecord, error) {
	raw, err := s.rdb.Get(ctx, s.key(username)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("history: load %s: %w", username, err)
	}
	var recs []types.SwapRecord
	if err := json.Unmarshal([]byte(raw), &recs); err != nil {
		return nil, fmt.Errorf("history: decode %s: %w", username, err)
	}
	return recs, nil
}

func (s *RedisStore) save(ctx context.Context, username string, recs []types.SwapRecord) error {
	b, err := json.Marshal(recs)
	if err != nil {
		return fmt.Errorf("history: encode %s: %w", username, err)
	}
	if err := s.rdb.Set(ctx, s.key(username), b, 0).Err(); err != nil {
		return fmt.Errorf("history: save %s: %w", username, err)
	}
	return nil
}

// Append prepends rec and evicts the oldest entries past the cap.
func (s *RedisStore) Append(ctx context.Context, rec types.SwapRecord) error {
	recs, err := s.List(ctx, rec.Username)
	if err != nil {
		return err
	}
	recs = append([]types.SwapRecord{rec}, recs...)
	if len(recs) > s.cap {
		recs = recs[:s.cap]
	}
	return s.save(ctx, rec.Username, recs)
}

// Update rewrites the record matching rec.TxIDSent in place.
func (s *RedisStore) Update(ctx context.Context, rec types.SwapRecord) error {
	recs, err := s.List(ctx, rec.Username)
	if err != nil {
		return err
	}
	for i := range recs {
		if recs[i].TxIDSent == rec.TxIDSent {
			recs[i] = rec
			return s.save(ctx, rec.Username, recs)
		}
	}
	return ErrRecordNotFound
}
