// Package sqlkv keeps the key-value map in a SQL table through gorm, so the
// same data can live in SQLite for a single host or PostgreSQL for several.
// Every write also appends to a change feed that other handles poll.
package sqlkv

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/diewo77/freelance-pro/internal/storage"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Entry is one stored key.
type Entry struct {
	Key       string         `gorm:"column:kv_key;primaryKey;size:255"`
	Value     datatypes.JSON `gorm:"not null"`
	UpdatedAt time.Time
}

func (Entry) TableName() string { return "kv_entries" }

// Change records that a key was written or removed by the handle Origin.
// Rows older than the retention window are pruned by watching handles.
type Change struct {
	ID        uint      `gorm:"primaryKey"`
	Key       string    `gorm:"column:kv_key;size:255;not null"`
	Origin    string    `gorm:"size:64;index;not null"`
	CreatedAt time.Time `gorm:"index"`
}

func (Change) TableName() string { return "kv_changes" }

// Models lists the tables sqlkv needs, for AutoMigrate.
func Models() []any { return []any{&Entry{}, &Change{}} }

type Store struct {
	db        *gorm.DB
	driver    storage.Driver
	origin    string
	interval  time.Duration
	overlap   time.Duration
	retention time.Duration
	logger    *slog.Logger
	now       func() time.Time
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

// WithOverlap sets how far back each poll looks before the newest change
// already seen. Ids are assigned at insert and rows become visible at
// commit, so on PostgreSQL a lower id can appear after a higher one; any
// row committed within the overlap of its timestamp is still reported.
// Hosts writing to the same database should keep their clocks within it.
func WithOverlap(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.overlap = d
		}
	}
}

// WithRetention sets how long change rows are kept. It is raised to at
// least twice the overlap. A watcher stopped for longer than the retention
// misses the pruned changes.
func WithRetention(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.retention = d
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

// New wraps db. The tables must exist (see db.Migrate).
func New(db *gorm.DB, opts ...Option) *Store {
	driver := storage.DriverSQLite
	if db.Dialector != nil && db.Dialector.Name() == "postgres" {
		driver = storage.DriverPostgres
	}
	s := &Store{
		db:        db,
		driver:    driver,
		origin:    uuid.NewString(),
		interval:  time.Second,
		overlap:   5 * time.Second,
		retention: 10 * time.Minute,
		logger:    slog.Default(),
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(s)
	}
	s.retention = max(s.retention, 2*s.overlap)
	return s
}

func (s *Store) Driver() storage.Driver { return s.driver }

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	var e Entry
	err := s.db.WithContext(ctx).Where("kv_key = ?", key).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("sqlkv get %s: %w", key, err)
	}
	return string(e.Value), true, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cur Entry
		err := tx.Where("kv_key = ?", key).First(&cur).Error
		if err == nil && string(cur.Value) == value {
			return nil
		}
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		e := Entry{Key: key, Value: datatypes.JSON(value), UpdatedAt: s.now()}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "kv_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).Create(&e).Error; err != nil {
			return err
		}
		return tx.Create(&Change{Key: key, Origin: s.origin, CreatedAt: s.now()}).Error
	})
	if err != nil {
		return fmt.Errorf("sqlkv set %s: %w", key, err)
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, key string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("kv_key = ?", key).Delete(&Entry{})
		if res.Error != nil || res.RowsAffected == 0 {
			return res.Error
		}
		return tx.Create(&Change{Key: key, Origin: s.origin, CreatedAt: s.now()}).Error
	})
	if err != nil {
		return fmt.Errorf("sqlkv remove %s: %w", key, err)
	}
	return nil
}

func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := s.db.WithContext(ctx).Model(&Entry{}).
		Where("kv_key LIKE ?", prefix+"%").
		Order("kv_key").
		Pluck("kv_key", &keys).Error
	if err != nil {
		return nil, fmt.Errorf("sqlkv keys %s: %w", prefix, err)
	}
	// LIKE treats _ and % in prefix as wildcards
	out := keys[:0]
	for _, k := range keys {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	return out, nil
}

// Prune deletes change rows created before cutoff and returns how many
// were removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Where("created_at < ?", cutoff.UTC()).Delete(&Change{})
	if res.Error != nil {
		return 0, fmt.Errorf("sqlkv prune: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// feed tracks which change rows a watcher has already reported. Rows are
// selected by timestamp with an overlap and deduplicated by id, so a row
// whose id is lower than one already seen is still delivered.
type feed struct {
	since time.Time
	seen  map[uint]time.Time
}

func (s *Store) poll(f *feed, fn func(key string)) error {
	var changes []Change
	err := s.db.Where("created_at > ? AND origin <> ?", f.since.Add(-s.overlap), s.origin).
		Order("created_at, id").Find(&changes).Error
	if err != nil {
		return err
	}
	for _, c := range changes {
		if _, ok := f.seen[c.ID]; ok {
			continue
		}
		f.seen[c.ID] = c.CreatedAt
		if c.CreatedAt.After(f.since) {
			f.since = c.CreatedAt
		}
		if fn != nil {
			fn(c.Key)
		}
	}
	for id, at := range f.seen {
		if at.Before(f.since.Add(-s.overlap)) {
			delete(f.seen, id)
		}
	}
	return nil
}

// Watch polls the change feed for rows written by other handles and prunes
// rows older than the retention window.
func (s *Store) Watch(fn func(key string)) func() {
	f := &feed{since: s.now(), seen: make(map[uint]time.Time)}
	// rows already in the window predate the watch
	if err := s.poll(f, nil); err != nil {
		s.logger.Warn("sqlkv poll failed", "err", err)
	}

	stop := make(chan struct{})
	go func() {
		t := time.NewTicker(s.interval)
		defer t.Stop()
		var pruned time.Time
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				if err := s.poll(f, fn); err != nil {
					s.logger.Warn("sqlkv poll failed", "err", err)
					continue
				}
				if now := s.now(); now.Sub(pruned) >= s.retention/2 {
					n, err := s.Prune(context.Background(), now.Add(-s.retention))
					if err != nil {
						s.logger.Warn("sqlkv prune failed", "err", err)
						continue
					}
					pruned = now
					if n > 0 {
						s.logger.Debug("sqlkv pruned change feed", "rows", n)
					}
				}
			}
		}
	}()

	var once sync.Once
	return func() { once.Do(func() { close(stop) }) }
}
