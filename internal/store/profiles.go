// Package store persists per-sender user profiles in Redis. Values are
// JSON-serialized UserProfile records keyed by sender id; a missing key is
// a new user. Updates use optimistic WATCH/MULTI so concurrent messages
// from the same sender cannot lose counter increments or pagination state
// to a read-modify-write race.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/clinicline/go-sms-backend/internal/domain"
)

const (
	// defaultProfileTTL ages out dormant senders instead of letting the
	// keyspace grow without bound. Every write refreshes it.
	defaultProfileTTL = 90 * 24 * time.Hour

	// dedupeTTL covers the provider's webhook retry horizon.
	dedupeTTL = 24 * time.Hour

	// maxUpdateRetries bounds the optimistic-concurrency retry loop.
	maxUpdateRetries = 5
)

// ErrConflict is returned when an Update keeps losing the optimistic
// concurrency race; callers should treat it as a transient store failure.
var ErrConflict = errors.New("store: too many concurrent profile updates")

// ProfileStore is the Redis-backed persistence layer for user profiles.
type ProfileStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// New creates a ProfileStore on the given client. ttl == 0 disables the
// dormant-profile expiry (profiles persist forever); a negative ttl selects
// the default.
func New(rdb *redis.Client, ttl time.Duration) *ProfileStore {
	if rdb == nil {
		panic("store: redis client cannot be nil")
	}
	if ttl < 0 {
		ttl = defaultProfileTTL
	}
	return &ProfileStore{rdb: rdb, ttl: ttl}
}

// Ping verifies the Redis connection; used by the startup readiness gate.
func (s *ProfileStore) Ping(ctx context.Context) error {
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("store: ping: %w", err)
	}
	return nil
}

// Get loads the profile for id. A missing key returns (nil, nil).
func (s *ProfileStore) Get(ctx context.Context, id string) (*domain.UserProfile, error) {
	data, err := s.rdb.Get(ctx, profileKey(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: get profile %s: %w", id, err)
	}
	var p domain.UserProfile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("store: decode profile %s: %w", id, err)
	}
	return &p, nil
}

// Update applies fn to the profile for id under optimistic concurrency and
// persists the result, refreshing the expiry. fn receives a zero-valued
// profile when the sender is new. The update is retried on WATCH conflicts;
// persistent contention surfaces as ErrConflict.
func (s *ProfileStore) Update(ctx context.Context, id string, fn func(*domain.UserProfile)) (*domain.UserProfile, error) {
	key := profileKey(id)
	var result *domain.UserProfile

	txn := func(tx *redis.Tx) error {
		var p domain.UserProfile
		data, err := tx.Get(ctx, key).Bytes()
		switch {
		case err == redis.Nil:
			// new user
		case err != nil:
			return err
		default:
			if err := json.Unmarshal(data, &p); err != nil {
				return err
			}
		}

		fn(&p)

		buf, err := json.Marshal(&p)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, buf, s.ttl)
			return nil
		})
		if err != nil {
			return err
		}
		result = &p
		return nil
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := s.rdb.Watch(ctx, txn, key)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue // lost the race, reload and retry
		}
		return nil, fmt.Errorf("store: update profile %s: %w", id, err)
	}
	return nil, ErrConflict
}

// MarkSeen records a provider message SID and reports whether this is the
// first time it was seen. Webhook retries for an already-handled message
// come back false so the handler can answer with an empty envelope.
func (s *ProfileStore) MarkSeen(ctx context.Context, messageSID string) (bool, error) {
	first, err := s.rdb.SetNX(ctx, seenKey(messageSID), 1, dedupeTTL).Result()
	if err != nil {
		return false, fmt.Errorf("store: mark seen %s: %w", messageSID, err)
	}
	return first, nil
}

func profileKey(id string) string { return "profile:" + id }

func seenKey(sid string) string { return "seen:" + sid }
