// Package kv is the byte-value key store behind the demo mirror and the
// exchange-rate cache. Memory is the default; Redis is used when configured.
package kv

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNotFound is returned by Get for missing or expired keys.
var ErrNotFound = errors.New("kv: key not found")

// Storage is a minimal key-value store.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value; a zero ttl never expires.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Memory is an in-process Storage.
type Memory struct {
	mu    sync.RWMutex
	items map[string]memItem
	now   func() time.Time
}

type memItem struct {
	value     []byte
	expiresAt time.Time
}

// NewMemory returns an empty in-process store.
func NewMemory() *Memory {
	return &Memory{items: make(map[string]memItem), now: time.Now}
}

func (it memItem) expired(now time.Time) bool {
	return !it.expiresAt.IsZero() && !now.Before(it.expiresAt)
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	it, ok := m.items[key]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	if now := m.now(); it.expired(now) {
		m.mu.Lock()
		if cur, ok := m.items[key]; ok && cur.expired(now) {
			delete(m.items, key)
		}
		m.mu.Unlock()
		return nil, ErrNotFound
	}
	out := make([]byte, len(it.value))
	copy(out, it.value)
	return out, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	it := memItem{value: append([]byte(nil), value...)}
	if ttl > 0 {
		it.expiresAt = m.now().Add(ttl)
	}
	m.mu.Lock()
	m.items[key] = it
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.items, key)
	m.mu.Unlock()
	return nil
}

// Purge removes expired keys and returns how many were dropped.
func (m *Memory) Purge() int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k, it := range m.items {
		if it.expired(now) {
			delete(m.items, k)
			n++
		}
	}
	return n
}

// Len is the number of stored keys, expired ones included.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}
