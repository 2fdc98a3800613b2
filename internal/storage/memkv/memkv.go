// Package memkv is an in-process storage backend. A Backend is the shared
// map; each Session is one handle onto it, the way a browser tab sees the
// origin's local storage. Sessions are notified of writes made by the others.
package memkv

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/diewo77/freelance-pro/internal/storage"
)

// Backend holds the shared data. The zero value is not usable; call New.
type Backend struct {
	mu       sync.RWMutex
	data     map[string]string
	quota    int // bytes over keys and values, 0 means unlimited
	used     int
	nextID   int
	watchers map[int]watcher
}

type watcher struct {
	session int
	fn      func(string)
}

type Option func(*Backend)

// WithQuota caps the total size of keys and values, like the browser quota.
func WithQuota(bytes int) Option {
	return func(b *Backend) { b.quota = bytes }
}

func New(opts ...Option) *Backend {
	b := &Backend{data: make(map[string]string), watchers: make(map[int]watcher)}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Session opens a new handle onto the backend.
func (b *Backend) Session() *Session {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	return &Session{b: b, id: b.nextID}
}

// Len returns the number of stored keys.
func (b *Backend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.data)
}

// Session implements storage.Storage and storage.Watcher.
type Session struct {
	b  *Backend
	id int
}

var (
	_ storage.Storage = (*Session)(nil)
	_ storage.Watcher = (*Session)(nil)
)

func (s *Session) Driver() storage.Driver { return storage.DriverMemory }

func (s *Session) Get(_ context.Context, key string) (string, bool, error) {
	s.b.mu.RLock()
	defer s.b.mu.RUnlock()
	v, ok := s.b.data[key]
	return v, ok, nil
}

func (s *Session) Set(_ context.Context, key, value string) error {
	b := s.b
	b.mu.Lock()
	old, had := b.data[key]
	if had && old == value {
		b.mu.Unlock()
		return nil
	}
	used := b.used + len(value)
	if had {
		used -= len(old)
	} else {
		used += len(key)
	}
	if b.quota > 0 && used > b.quota {
		b.mu.Unlock()
		return storage.ErrQuotaExceeded
	}
	b.data[key] = value
	b.used = used
	fns := b.othersLocked(s.id)
	b.mu.Unlock()

	notify(fns, key)
	return nil
}

func (s *Session) Remove(_ context.Context, key string) error {
	b := s.b
	b.mu.Lock()
	old, had := b.data[key]
	if !had {
		b.mu.Unlock()
		return nil
	}
	delete(b.data, key)
	b.used -= len(key) + len(old)
	fns := b.othersLocked(s.id)
	b.mu.Unlock()

	notify(fns, key)
	return nil
}

func (s *Session) Keys(_ context.Context, prefix string) ([]string, error) {
	s.b.mu.RLock()
	defer s.b.mu.RUnlock()
	var keys []string
	for k := range s.b.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Watch reports keys written or removed by other sessions. fn runs on the
// writer's goroutine after the write is visible.
func (s *Session) Watch(fn func(key string)) func() {
	b := s.b
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.watchers[id] = watcher{session: s.id, fn: fn}
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.watchers, id)
			b.mu.Unlock()
		})
	}
}

func (b *Backend) othersLocked(session int) []func(string) {
	var fns []func(string)
	for _, w := range b.watchers {
		if w.session != session {
			fns = append(fns, w.fn)
		}
	}
	return fns
}

func notify(fns []func(string), key string) {
	for _, fn := range fns {
		fn(key)
	}
}
