// Package seed holds the baseline records every store starts from. The data
// ships inside the binary as YAML and never changes at run time.
package seed

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"

	"github.com/diewo77/freelance-pro/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed data/*.yaml
var files embed.FS

// Catalog is an immutable ordered list of records keyed by id. Every call
// hands out fresh copies, so callers may modify what they receive.
type Catalog[T any] struct {
	raw   []json.RawMessage
	ids   []string
	index map[string]int
}

// Load decodes data/<name>.yaml into a catalog of T. Each document must
// decode into T without unknown fields and carry a unique non-empty id.
func Load[T any](name string) (*Catalog[T], error) {
	b, err := files.ReadFile("data/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("seed %s: %w", name, err)
	}
	var docs []map[string]any
	if err := yaml.Unmarshal(b, &docs); err != nil {
		return nil, fmt.Errorf("seed %s: %w", name, err)
	}
	raw := make([]json.RawMessage, 0, len(docs))
	for i, d := range docs {
		j, err := json.Marshal(d)
		if err != nil {
			return nil, fmt.Errorf("seed %s[%d]: %w", name, i, err)
		}
		raw = append(raw, j)
	}
	return fromRaw[T](name, raw)
}

// MustLoad is Load for package initialisation; a broken embedded file is a
// build defect.
func MustLoad[T any](name string) *Catalog[T] {
	c, err := Load[T](name)
	if err != nil {
		panic(err)
	}
	return c
}

// FromRecords builds a catalog from in-memory records, mainly for tests.
func FromRecords[T any](records ...T) (*Catalog[T], error) {
	raw := make([]json.RawMessage, 0, len(records))
	for _, r := range records {
		j, err := json.Marshal(r)
		if err != nil {
			return nil, err
		}
		raw = append(raw, j)
	}
	return fromRaw[T]("records", raw)
}

func fromRaw[T any](name string, raw []json.RawMessage) (*Catalog[T], error) {
	c := &Catalog[T]{raw: raw, index: make(map[string]int, len(raw))}
	for i, r := range raw {
		var v T
		if err := decodeStrict(r, &v); err != nil {
			return nil, fmt.Errorf("seed %s[%d]: %w", name, i, err)
		}
		var head struct {
			ID string `json:"id"`
		}
		_ = json.Unmarshal(r, &head)
		if head.ID == "" {
			return nil, fmt.Errorf("seed %s[%d]: missing id", name, i)
		}
		if _, dup := c.index[head.ID]; dup {
			return nil, fmt.Errorf("seed %s: duplicate id %s", name, head.ID)
		}
		c.index[head.ID] = i
		c.ids = append(c.ids, head.ID)
	}
	return c, nil
}

func decodeStrict(b []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func (c *Catalog[T]) decode(i int) T {
	var v T
	// validated in fromRaw
	_ = json.Unmarshal(c.raw[i], &v)
	return v
}

// List returns every record in seed order.
func (c *Catalog[T]) List() []T {
	out := make([]T, len(c.raw))
	for i := range c.raw {
		out[i] = c.decode(i)
	}
	return out
}

func (c *Catalog[T]) Find(id string) (T, bool) {
	i, ok := c.index[id]
	if !ok {
		var zero T
		return zero, false
	}
	return c.decode(i), true
}

// IDs returns the record ids in seed order.
func (c *Catalog[T]) IDs() []string {
	return append([]string(nil), c.ids...)
}

func (c *Catalog[T]) Len() int { return len(c.raw) }

func Clients() *Catalog[models.Client] { return MustLoad[models.Client]("clients") }
func Contracts() *Catalog[models.Contract] { return MustLoad[models.Contract]("contracts") }
func Invoices() *Catalog[models.Invoice] { return MustLoad[models.Invoice]("invoices") }
func Projects() *Catalog[models.Project] { return MustLoad[models.Project]("projects") }
func Categories() *Catalog[models.Category] { return MustLoad[models.Category]("categories") }
