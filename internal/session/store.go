package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"worldfolio/internal/identity"
)

const snapshotKeyPrefix = "session:snapshot:"

// SnapshotStore persists the last known session per browser client so it
// can be shown before the provider confirms state.
type SnapshotStore interface {
	// Load returns nil when no snapshot exists.
	Load(ctx context.Context, clientID string) (*identity.Session, error)
	Save(ctx context.Context, clientID string, session identity.Session) error
	Delete(ctx context.Context, clientID string) error
}

// InMemorySnapshotStore keeps snapshots in process memory.
type InMemorySnapshotStore struct {
	mu        sync.RWMutex
	snapshots map[string]identity.Session
}

func NewInMemorySnapshotStore() *InMemorySnapshotStore {
	return &InMemorySnapshotStore{snapshots: make(map[string]identity.Session)}
}

func (s *InMemorySnapshotStore) Load(_ context.Context, clientID string) (*identity.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if snap, ok := s.snapshots[clientID]; ok {
		return &snap, nil
	}
	return nil, nil
}

func (s *InMemorySnapshotStore) Save(_ context.Context, clientID string, session identity.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[clientID] = session
	return nil
}

func (s *InMemorySnapshotStore) Delete(_ context.Context, clientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, clientID)
	return nil
}

// RedisSnapshotStore keeps snapshots as JSON under session:snapshot:<client>.
type RedisSnapshotStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisSnapshotStore(client redis.Cmdable, ttl time.Duration) *RedisSnapshotStore {
	return &RedisSnapshotStore{client: client, ttl: ttl}
}

func (s *RedisSnapshotStore) Load(ctx context.Context, clientID string) (*identity.Session, error) {
	raw, err := s.client.Get(ctx, snapshotKeyPrefix+clientID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var snap identity.Session
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (s *RedisSnapshotStore) Save(ctx context.Context, clientID string, session identity.Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, snapshotKeyPrefix+clientID, raw, s.ttl).Err()
}

func (s *RedisSnapshotStore) Delete(ctx context.Context, clientID string) error {
	return s.client.Del(ctx, snapshotKeyPrefix+clientID).Err()
}
