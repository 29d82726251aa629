package identity

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a KeyValueStore that lives as long as the process.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key], nil
}

func (m *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// MemoryCookieJar is an in-process CookieJar.
type MemoryCookieJar struct {
	mu  sync.Mutex
	set *cookieSet
	now func() time.Time
}

func NewMemoryCookieJar() *MemoryCookieJar {
	return &MemoryCookieJar{set: newCookieSet(), now: time.Now}
}

func (j *MemoryCookieJar) Cookie() (string, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.set.String(), nil
}

func (j *MemoryCookieJar) SetCookie(cookie string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.set.apply(cookie, j.now())
}
