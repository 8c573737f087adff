package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// codeGrace keeps an expired entry readable for a short while so the verifier can
// answer "expired" rather than "not found".
const codeGrace = time.Minute

// CodeEntry is the pending verification code for one email. Only the hash is stored.
type CodeEntry struct {
	Hash      string    `json:"hash"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the code is past its expiry at now.
func (e CodeEntry) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// CodeStore keeps pending verification codes keyed by lowercased email.
type CodeStore interface {
	Put(ctx context.Context, email string, entry CodeEntry) error
	// Get returns nil, nil when no entry exists.
	Get(ctx context.Context, email string) (*CodeEntry, error)
	Delete(ctx context.Context, email string) error
	SweepExpired(ctx context.Context, now time.Time) error
}

type codeBackend interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	VerificationCodeKey(email string) string
}

// RedisCodeStore persists codes in Redis and lets key TTLs do the sweeping.
type RedisCodeStore struct {
	backend codeBackend
	now     func() time.Time
}

// NewRedisCodeStore binds a code store to the shared Redis client.
func NewRedisCodeStore(backend codeBackend, now func() time.Time) (*RedisCodeStore, error) {
	if backend == nil {
		return nil, fmt.Errorf("redis backend is required")
	}
	if now == nil {
		now = time.Now
	}
	return &RedisCodeStore{backend: backend, now: now}, nil
}

func (s *RedisCodeStore) Put(ctx context.Context, email string, entry CodeEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode code entry: %w", err)
	}
	ttl := entry.ExpiresAt.Sub(s.now()) + codeGrace
	if ttl <= 0 {
		ttl = codeGrace
	}
	return s.backend.Set(ctx, s.backend.VerificationCodeKey(email), string(payload), ttl)
}

func (s *RedisCodeStore) Get(ctx context.Context, email string) (*CodeEntry, error) {
	raw, err := s.backend.Get(ctx, s.backend.VerificationCodeKey(email))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var entry CodeEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return nil, fmt.Errorf("decode code entry: %w", err)
	}
	return &entry, nil
}

func (s *RedisCodeStore) Delete(ctx context.Context, email string) error {
	return s.backend.Del(ctx, s.backend.VerificationCodeKey(email))
}

// SweepExpired is a no-op: Redis expires keys on its own.
func (s *RedisCodeStore) SweepExpired(context.Context, time.Time) error {
	return nil
}

// MemoryCodeStore is a process-local store for single-instance and dev deployments.
type MemoryCodeStore struct {
	mu      sync.Mutex
	entries map[string]CodeEntry
}

func NewMemoryCodeStore() *MemoryCodeStore {
	return &MemoryCodeStore{entries: map[string]CodeEntry{}}
}

func (s *MemoryCodeStore) Put(_ context.Context, email string, entry CodeEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[memoryKey(email)] = entry
	return nil
}

func (s *MemoryCodeStore) Get(_ context.Context, email string) (*CodeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[memoryKey(email)]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

func (s *MemoryCodeStore) Delete(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, memoryKey(email))
	return nil
}

// SweepExpired drops every entry whose grace period has elapsed.
func (s *MemoryCodeStore) SweepExpired(_ context.Context, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, entry := range s.entries {
		if entry.Expired(now.Add(-codeGrace)) {
			delete(s.entries, key)
		}
	}
	return nil
}

// Len returns the number of held entries.
func (s *MemoryCodeStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func memoryKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
