// Package cache implements the override-merge record store: a fixed seed
// catalog shadowed by per-record overrides and an index of member ids, all
// kept in a shared key-value storage.
//
// The store never returns errors. Storage failures, unreadable values and
// unavailable storage are logged and turned into misses or false results.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/diewo77/freelance-pro/internal/events"
	"github.com/diewo77/freelance-pro/internal/ids"
	"github.com/diewo77/freelance-pro/internal/metrics"
	"github.com/diewo77/freelance-pro/internal/models"
	"github.com/diewo77/freelance-pro/internal/seed"
	"github.com/diewo77/freelance-pro/internal/storage"
	"github.com/diewo77/freelance-pro/validation"
)

// Record is implemented by pointers to the model types.
type Record interface {
	GetMeta() *models.Meta
	Validate() validation.Violations
}

// Deriver is implemented by records with computed fields, refreshed on
// every create and update.
type Deriver interface {
	Derive()
}

// Outcome of a mutation.
type Outcome int

const (
	OK Outcome = iota
	NotFound
	Invalid
	NotPersisted
)

func (o Outcome) String() string {
	switch o {
	case OK:
		return metrics.OutcomeOK
	case NotFound:
		return metrics.OutcomeNotFound
	case Invalid:
		return metrics.OutcomeInvalid
	default:
		return metrics.OutcomeNotPersisted
	}
}

// Options carries the collaborators shared by all stores. Zero values get
// defaults: a private bus, UUID ids, time.Now, slog.Default and no metrics.
type Options struct {
	Bus     *events.Bus
	IDs     ids.Generator
	Clock   func() time.Time
	Logger  *slog.Logger
	Metrics *metrics.Recorder
}

// Store is the record store of one domain.
type Store[T any, P interface {
	*T
	Record
}] struct {
	// mu orders the mutators of this store; each one reads the membership
	// and writes it back as a unit.
	mu sync.Mutex

	domain  Domain
	seed    *seed.Catalog[T]
	storage storage.Storage
	bus     *events.Bus
	ids     ids.Generator
	clock   func() time.Time
	logger  *slog.Logger
	metrics *metrics.Recorder
}

// New creates the store of domain. A nil storage behaves as unavailable
// storage: reads fall back to the seed and writes fail.
func New[T any, P interface {
	*T
	Record
}](domain Domain, catalog *seed.Catalog[T], st storage.Storage, opts Options) *Store[T, P] {
	if st == nil {
		st = storage.Unavailable{}
	}
	if opts.Bus == nil {
		opts.Bus = events.NewBus()
	}
	if opts.IDs == nil {
		opts.IDs = ids.UUID{}
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Store[T, P]{
		domain:  domain,
		seed:    catalog,
		storage: st,
		bus:     opts.Bus,
		ids:     opts.IDs,
		clock:   opts.Clock,
		logger:  opts.Logger.With("domain", domain.Plural),
		metrics: opts.Metrics,
	}
}

func (s *Store[T, P]) Domain() Domain { return s.domain }

// Topic implements the change-notifier contract used by the event stream.
func (s *Store[T, P]) Topic() string { return s.domain.Topic() }

func (s *Store[T, P]) Driver() storage.Driver { return s.storage.Driver() }

// List returns the effective collection: index order when an index exists,
// seed order otherwise, each id resolved override first, then seed. Ids
// resolving to nothing are dropped.
func (s *Store[T, P]) List(ctx context.Context) []T {
	order, ok := s.readIndex(ctx)
	if !ok {
		order = s.seed.IDs()
	}
	out := make([]T, 0, len(order))
	for _, id := range order {
		if rec, ok := s.resolve(ctx, id); ok {
			out = append(out, rec)
		}
	}
	return out
}

// Get resolves id the same way List does. Once an index exists, ids missing
// from it are deleted and absent even when the seed still has them.
func (s *Store[T, P]) Get(ctx context.Context, id string) (T, bool) {
	if order, ok := s.readIndex(ctx); ok && !slices.Contains(order, id) {
		var zero T
		return zero, false
	}
	return s.resolve(ctx, id)
}

// resolve returns the override when present and readable, else the seed.
func (s *Store[T, P]) resolve(ctx context.Context, id string) (T, bool) {
	if rec, ok := s.readOverride(ctx, id); ok {
		return rec, true
	}
	return s.seed.Find(id)
}

// Create assigns id, owner and timestamps, recomputes derived fields and
// persists rec at the front of the collection. The record is returned even
// when it could not be persisted; ok reports whether it was.
func (s *Store[T, P]) Create(ctx context.Context, rec T) (T, bool) {
	s.mu.Lock()
	rec, ok := s.create(ctx, rec)
	s.mu.Unlock()
	if ok {
		s.bus.Publish(s.domain.Topic())
	}
	return rec, ok
}

func (s *Store[T, P]) create(ctx context.Context, rec T) (T, bool) {
	p := P(&rec)
	m := p.GetMeta()
	m.ID = s.ids.NewID(s.domain.IDPrefix)
	if m.UserID == "" {
		m.UserID = models.PlaceholderUserID
	}
	now := s.now()
	m.CreatedAt, m.UpdatedAt = now, now
	derive(p)

	if v := p.Validate(); !v.Empty() {
		s.logger.Info("create rejected", "id", m.ID, "violations", v)
		s.metrics.Op(s.domain.Plural, "create", Invalid.String())
		return rec, false
	}
	if !s.writeOverride(ctx, m.ID, rec) {
		s.metrics.Op(s.domain.Plural, "create", NotPersisted.String())
		return rec, false
	}

	members := slices.DeleteFunc(s.memberIDs(ctx), func(id string) bool { return id == m.ID })
	if !s.writeIndex(ctx, append([]string{m.ID}, members...)) {
		s.metrics.Op(s.domain.Plural, "create", NotPersisted.String())
		return rec, false
	}
	s.metrics.Op(s.domain.Plural, "create", OK.String())
	return rec, true
}

// Update merges patch over the current record of id and persists it. ok is
// false when id does not resolve (absent) or the merged record is invalid.
// ok does not mean durable: when the write fails the merged record is still
// returned with ok so the caller can keep showing it, and the stored state
// is unchanged. Use Patch to tell NotPersisted from OK.
func (s *Store[T, P]) Update(ctx context.Context, id string, patch map[string]json.RawMessage) (T, bool) {
	rec, outcome := s.Patch(ctx, id, patch)
	return rec, outcome == OK || outcome == NotPersisted
}

// Patch is Update reporting the detailed outcome.
func (s *Store[T, P]) Patch(ctx context.Context, id string, patch map[string]json.RawMessage) (T, Outcome) {
	s.mu.Lock()
	rec, outcome := s.patch(ctx, id, patch)
	s.mu.Unlock()
	if outcome == OK {
		s.bus.Publish(s.domain.Topic())
	}
	return rec, outcome
}

func (s *Store[T, P]) patch(ctx context.Context, id string, patch map[string]json.RawMessage) (T, Outcome) {
	var zero T
	cur, ok := s.Get(ctx, id)
	if !ok {
		s.metrics.Op(s.domain.Plural, "update", NotFound.String())
		return zero, NotFound
	}
	prev := P(&cur).GetMeta()

	next, err := Merge(cur, patch)
	if err != nil {
		s.logger.Info("update rejected", "id", id, "err", err)
		s.metrics.Op(s.domain.Plural, "update", Invalid.String())
		return zero, Invalid
	}
	p := P(&next)
	m := p.GetMeta()
	m.ID, m.UserID, m.CreatedAt = prev.ID, prev.UserID, prev.CreatedAt
	m.UpdatedAt = s.now()
	if !m.UpdatedAt.After(prev.UpdatedAt) {
		m.UpdatedAt = prev.UpdatedAt.Add(time.Nanosecond)
	}
	derive(p)
	if v := p.Validate(); !v.Empty() {
		s.logger.Info("update rejected", "id", id, "violations", v)
		s.metrics.Op(s.domain.Plural, "update", Invalid.String())
		return zero, Invalid
	}

	if !s.writeOverride(ctx, id, next) {
		s.metrics.Op(s.domain.Plural, "update", NotPersisted.String())
		return next, NotPersisted
	}
	s.metrics.Op(s.domain.Plural, "update", OK.String())
	return next, OK
}

// Delete removes id from the collection. The membership is computed before
// the override is removed and written back without id, so seed records stay
// deleted. Deleting an absent id succeeds. False means a storage failure.
func (s *Store[T, P]) Delete(ctx context.Context, id string) bool {
	s.mu.Lock()
	ok := s.delete(ctx, id)
	s.mu.Unlock()
	if ok {
		s.bus.Publish(s.domain.Topic())
	}
	return ok
}

func (s *Store[T, P]) delete(ctx context.Context, id string) bool {
	members := s.memberIDs(ctx)
	if err := s.storage.Remove(ctx, s.domain.OverrideKey(id)); err != nil {
		s.storageError("remove", s.domain.OverrideKey(id), err)
		s.metrics.Op(s.domain.Plural, "delete", metrics.OutcomeFailed)
		return false
	}
	members = slices.DeleteFunc(members, func(m string) bool { return m == id })
	if !s.writeIndex(ctx, members) {
		s.metrics.Op(s.domain.Plural, "delete", metrics.OutcomeFailed)
		return false
	}
	s.metrics.Op(s.domain.Plural, "delete", OK.String())
	return true
}

// Reset removes the index and every override of the domain, returning the
// collection to exactly the seed catalog.
func (s *Store[T, P]) Reset(ctx context.Context) bool {
	s.mu.Lock()
	ok := s.reset(ctx)
	s.mu.Unlock()
	if ok {
		s.bus.Publish(s.domain.Topic())
	}
	return ok
}

func (s *Store[T, P]) reset(ctx context.Context) bool {
	keys, err := s.storage.Keys(ctx, s.domain.OverridePrefix())
	if err != nil {
		s.storageError("keys", s.domain.OverridePrefix(), err)
		s.metrics.Op(s.domain.Plural, "reset", metrics.OutcomeFailed)
		return false
	}
	ok := true
	for _, k := range append(keys, s.domain.IndexKey()) {
		if err := s.storage.Remove(ctx, k); err != nil {
			s.storageError("remove", k, err)
			ok = false
		}
	}
	if !ok {
		s.metrics.Op(s.domain.Plural, "reset", metrics.OutcomeFailed)
		return false
	}
	s.metrics.Op(s.domain.Plural, "reset", OK.String())
	return true
}

// OnChanged calls fn after every mutation made through any store sharing
// the bus, and after changes to this domain's keys made by other storage
// sessions when the backend reports them. fn carries no payload; re-read.
func (s *Store[T, P]) OnChanged(fn func()) (stop func()) {
	unsubscribe := s.bus.Subscribe(s.domain.Topic(), func() {
		s.metrics.Notification(s.domain.Plural, "bus")
		fn()
	})
	unwatch := func() {}
	if w, ok := s.storage.(storage.Watcher); ok {
		unwatch = w.Watch(func(key string) {
			if key != s.domain.IndexKey() && !strings.HasPrefix(key, s.domain.OverridePrefix()) {
				return
			}
			s.metrics.Notification(s.domain.Plural, "storage")
			fn()
		})
	}
	return func() {
		unsubscribe()
		unwatch()
	}
}

func (s *Store[T, P]) now() time.Time { return s.clock().UTC() }

func (s *Store[T, P]) memberIDs(ctx context.Context) []string {
	recs := s.List(ctx)
	out := make([]string, len(recs))
	for i := range recs {
		out[i] = P(&recs[i]).GetMeta().ID
	}
	return out
}

func (s *Store[T, P]) readIndex(ctx context.Context) ([]string, bool) {
	key := s.domain.IndexKey()
	raw, ok, err := s.storage.Get(ctx, key)
	if err != nil {
		s.storageError("get", key, err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var order []string
	if err := json.Unmarshal([]byte(raw), &order); err != nil {
		s.corrupt(key, err)
		return nil, false
	}
	return order, true
}

func (s *Store[T, P]) writeIndex(ctx context.Context, order []string) bool {
	if order == nil {
		order = []string{}
	}
	b, err := json.Marshal(order)
	if err != nil {
		return false
	}
	key := s.domain.IndexKey()
	if err := s.storage.Set(ctx, key, string(b)); err != nil {
		s.storageError("set", key, err)
		return false
	}
	return true
}

func (s *Store[T, P]) readOverride(ctx context.Context, id string) (T, bool) {
	var zero T
	key := s.domain.OverrideKey(id)
	raw, ok, err := s.storage.Get(ctx, key)
	if err != nil {
		s.storageError("get", key, err)
		return zero, false
	}
	if !ok {
		return zero, false
	}
	var rec T
	if err := decodeStrict([]byte(raw), &rec); err != nil {
		s.corrupt(key, err)
		return zero, false
	}
	p := P(&rec)
	if got := p.GetMeta().ID; got != id {
		s.corrupt(key, errors.New("id mismatch: "+got))
		return zero, false
	}
	if v := p.Validate(); !v.Empty() {
		s.corrupt(key, errors.New("invalid record"), "violations", v)
		return zero, false
	}
	return rec, true
}

func (s *Store[T, P]) writeOverride(ctx context.Context, id string, rec T) bool {
	b, err := json.Marshal(rec)
	if err != nil {
		s.logger.Error("encode record", "id", id, "err", err)
		return false
	}
	key := s.domain.OverrideKey(id)
	if err := s.storage.Set(ctx, key, string(b)); err != nil {
		s.storageError("set", key, err)
		return false
	}
	return true
}

// storageError logs a failed storage call. Unavailable storage is the
// expected state of a seed-only deployment and only logged at debug level.
func (s *Store[T, P]) storageError(call, key string, err error) {
	if errors.Is(err, storage.ErrUnavailable) {
		s.logger.Debug("storage unavailable", "call", call, "key", key)
		return
	}
	s.logger.Warn("storage call failed", "call", call, "key", key, "err", err)
	s.metrics.StorageFailure(s.domain.Plural, call)
}

func (s *Store[T, P]) corrupt(key string, err error, attrs ...any) {
	s.logger.Warn("ignoring unreadable stored value", append([]any{"key", key, "err", err}, attrs...)...)
	s.metrics.CorruptEntry(s.domain.Plural)
}

func derive(rec any) {
	if d, ok := rec.(Deriver); ok {
		d.Derive()
	}
}
