package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// ErrCacheMiss is returned by KVStore.Get when a key is absent or expired
var ErrCacheMiss = errors.New("cache miss")

// KVStore is the key-value surface shared by Redis and the in-process fallback
type KVStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	SAdd(ctx context.Context, key string, ttl time.Duration, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)
	SRem(ctx context.Context, key string, members ...string) error
	Ping(ctx context.Context) error
}

type localEntry struct {
	value     string
	members   map[string]struct{}
	hits      int64
	expiresAt time.Time
}

func (e localEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// LocalKV is an in-process KVStore used when Redis is unavailable. Entries
// live at most maxTTL regardless of the TTL they were written with.
type LocalKV struct {
	mu  sync.Mutex
	lru *expirable.LRU[string, localEntry]
	now func() time.Time
}

var _ KVStore = (*LocalKV)(nil)

// NewLocalKV creates a bounded in-process store
func NewLocalKV(size int, maxTTL time.Duration) *LocalKV {
	return &LocalKV{
		lru: expirable.NewLRU[string, localEntry](size, nil, maxTTL),
		now: time.Now,
	}
}

func (s *LocalKV) deadline(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return s.now().Add(ttl)
}

func (s *LocalKV) live(key string) (localEntry, bool) {
	e, ok := s.lru.Get(key)
	if !ok {
		return localEntry{}, false
	}
	if e.expired(s.now()) {
		s.lru.Remove(key)
		return localEntry{}, false
	}
	return e, true
}

func (s *LocalKV) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(key)
	if !ok || e.members != nil {
		return "", ErrCacheMiss
	}
	return e.value, nil
}

func (s *LocalKV) Set(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lru.Add(key, localEntry{value: value, expiresAt: s.deadline(ttl)})
	return nil
}

func (s *LocalKV) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		s.lru.Remove(k)
	}
	return nil
}

func (s *LocalKV) SAdd(_ context.Context, key string, ttl time.Duration, members ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(key)
	if !ok || e.members == nil {
		e = localEntry{members: make(map[string]struct{})}
	}
	for _, m := range members {
		e.members[m] = struct{}{}
	}
	e.expiresAt = s.deadline(ttl)
	s.lru.Add(key, e)
	return nil
}

func (s *LocalKV) SMembers(_ context.Context, key string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(key)
	if !ok {
		return nil, nil
	}
	out := make([]string, 0, len(e.members))
	for m := range e.members {
		out = append(out, m)
	}
	return out, nil
}

func (s *LocalKV) SRem(_ context.Context, key string, members ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(key)
	if !ok {
		return nil
	}
	for _, m := range members {
		delete(e.members, m)
	}
	return nil
}

func (s *LocalKV) Ping(context.Context) error { return nil }

// RateLimit is the in-process counterpart of RedisDB.RateLimit: a fixed
// window counter whose window starts at the first hit.
func (s *LocalKV) RateLimit(_ context.Context, key string, limit int64, window time.Duration) (bool, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(key)
	if !ok {
		e = localEntry{expiresAt: s.deadline(window)}
	}
	e.hits++
	s.lru.Add(key, e)

	remaining := limit - e.hits
	if remaining < 0 {
		remaining = 0
	}
	return e.hits <= limit, remaining, nil
}

// Cache stores JSON values under a key prefix with a fixed TTL
type Cache struct {
	store  KVStore
	prefix string
	ttl    time.Duration
}

// NewCache creates a new cache
func NewCache(store KVStore, prefix string, ttl time.Duration) *Cache {
	return &Cache{store: store, prefix: prefix, ttl: ttl}
}

// GetJSON decodes the cached value into dest and reports whether it was found
func (c *Cache) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	raw, err := c.store.Get(ctx, c.prefix+key)
	if errors.Is(err, ErrCacheMiss) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return false, fmt.Errorf("failed to decode cached %s: %w", key, err)
	}
	return true, nil
}

// SetJSON encodes value and stores it with the cache TTL
func (c *Cache) SetJSON(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return c.store.Set(ctx, c.prefix+key, string(raw), c.ttl)
}

// Delete deletes a cached value
func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.store.Del(ctx, c.prefix+key)
}
