// Package ids generates record ids of the form "<prefix>-<value>".
package ids

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
)

// Generator returns a new id for the given domain prefix ("client", "ct", ...).
type Generator interface {
	NewID(prefix string) string
}

// GeneratorFunc adapts a plain function to Generator.
type GeneratorFunc func(prefix string) string

func (f GeneratorFunc) NewID(prefix string) string { return f(prefix) }

// UUID generates "<prefix>-<random uuid v4>".
type UUID struct{}

func (UUID) NewID(prefix string) string { return prefix + "-" + uuid.NewString() }

// Snowflake generates time-ordered "<prefix>-<snowflake>" ids; node keeps
// several processes apart.
type Snowflake struct {
	node *snowflake.Node
}

func NewSnowflake(node int64) (*Snowflake, error) {
	n, err := snowflake.NewNode(node)
	if err != nil {
		return nil, fmt.Errorf("snowflake node %d: %w", node, err)
	}
	return &Snowflake{node: n}, nil
}

func (s *Snowflake) NewID(prefix string) string { return prefix + "-" + s.node.Generate().String() }

// Timestamp generates "<prefix>-<unix millis>", the legacy format. Ids
// issued within the same millisecond are bumped so one process never
// repeats itself; separate processes may still collide.
type Timestamp struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func NewTimestamp() *Timestamp { return &Timestamp{now: time.Now} }

func (t *Timestamp) NewID(prefix string) string {
	t.mu.Lock()
	ms := t.now().UnixMilli()
	if ms <= t.last {
		ms = t.last + 1
	}
	t.last = ms
	t.mu.Unlock()
	return prefix + "-" + strconv.FormatInt(ms, 10)
}

// New returns the generator for strategy: uuid (default), snowflake or timestamp.
func New(strategy string, node int64) (Generator, error) {
	switch strategy {
	case "", "uuid":
		return UUID{}, nil
	case "snowflake":
		return NewSnowflake(node)
	case "timestamp":
		return NewTimestamp(), nil
	default:
		return nil, fmt.Errorf("unknown id strategy %q", strategy)
	}
}
