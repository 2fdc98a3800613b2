// Package filekv stores the key-value map in a single JSON file. Several
// processes may share the file; each Store polls it to notice their writes.
package filekv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/diewo77/freelance-pro/internal/storage"
)

const defaultPollInterval = time.Second

// Store is a handle onto one JSON file. Writes replace the file atomically.
type Store struct {
	path     string
	interval time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	known   map[string]string // file content as of the last poll or own write
	pending []string          // foreign changes noticed while writing

	wmu      sync.Mutex
	nextID   int
	watchers map[int]func(string)
	stopPoll chan struct{}
}

var (
	_ storage.Storage = (*Store)(nil)
	_ storage.Watcher = (*Store)(nil)
)

type Option func(*Store)

func WithPollInterval(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.interval = d
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// New opens the file at path, creating its directory if needed. A missing
// file is an empty map.
func New(path string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("filekv mkdir: %w", err)
	}
	s := &Store{
		path:     path,
		interval: defaultPollInterval,
		logger:   slog.Default(),
		watchers: make(map[int]func(string)),
	}
	for _, o := range opts {
		o(s)
	}
	m, err := s.load()
	if err != nil {
		return nil, err
	}
	s.known = m
	return s, nil
}

func (s *Store) Driver() storage.Driver { return storage.DriverFile }

func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.load()
	if err != nil {
		return "", false, err
	}
	v, ok := m[key]
	return v, ok, nil
}

func (s *Store) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.load()
	if err != nil {
		return err
	}
	if old, ok := m[key]; ok && old == value {
		return nil
	}
	s.notePending(m)
	m[key] = value
	if err := s.save(m); err != nil {
		return err
	}
	s.known = m
	return nil
}

func (s *Store) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := m[key]; !ok {
		return nil
	}
	s.notePending(m)
	delete(m, key)
	if err := s.save(m); err != nil {
		return err
	}
	s.known = m
	return nil
}

func (s *Store) Keys(_ context.Context, prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.load()
	if err != nil {
		return nil, err
	}
	var keys []string
	for k := range m {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Watch polls the file and reports keys changed by other processes or
// other Store handles. One poller serves all watchers of a Store.
func (s *Store) Watch(fn func(key string)) func() {
	s.mu.Lock()
	s.wmu.Lock()
	s.nextID++
	id := s.nextID
	s.watchers[id] = fn
	if s.stopPoll == nil {
		if m, err := s.load(); err == nil {
			s.known = m
		}
		s.pending = nil
		s.stopPoll = make(chan struct{})
		go s.poll(s.stopPoll)
	}
	s.wmu.Unlock()
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.wmu.Lock()
			defer s.wmu.Unlock()
			delete(s.watchers, id)
			if len(s.watchers) == 0 && s.stopPoll != nil {
				close(s.stopPoll)
				s.stopPoll = nil
			}
		})
	}
}

func (s *Store) poll(stop <-chan struct{}) {
	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			changed := s.refresh()
			if len(changed) == 0 {
				continue
			}
			s.wmu.Lock()
			fns := make([]func(string), 0, len(s.watchers))
			for _, fn := range s.watchers {
				fns = append(fns, fn)
			}
			s.wmu.Unlock()
			for _, k := range changed {
				for _, fn := range fns {
					fn(k)
				}
			}
		}
	}
}

func (s *Store) refresh() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.load()
	if err != nil {
		s.logger.Warn("filekv poll failed", "path", s.path, "err", err)
		return nil
	}
	changed := append(s.pending, diff(s.known, m)...)
	s.pending = nil
	s.known = m
	return changed
}

// notePending remembers foreign changes found in m before an own write
// overwrites the snapshot. Caller holds mu; wmu is always taken after mu.
func (s *Store) notePending(m map[string]string) {
	s.wmu.Lock()
	watching := s.stopPoll != nil
	s.wmu.Unlock()
	if watching {
		s.pending = append(s.pending, diff(s.known, m)...)
	}
}

func (s *Store) load() (map[string]string, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("filekv read: %w", err)
	}
	m := map[string]string{}
	if len(b) == 0 {
		return m, nil
	}
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("filekv decode %s: %w", s.path, err)
	}
	return m, nil
}

func (s *Store) save(m map[string]string) error {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("filekv encode: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("filekv temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("filekv write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("filekv close: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("filekv rename: %w", err)
	}
	return nil
}

// diff returns the keys whose presence or value differs between a and b.
func diff(a, b map[string]string) []string {
	var keys []string
	for k, v := range a {
		if w, ok := b[k]; !ok || w != v {
			keys = append(keys, k)
		}
	}
	for k := range b {
		if _, ok := a[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}
