package filekv

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreCRUD(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "kv.json")
	s, err := New(path)
	require.NoError(t, err)

	_, ok, err := s.Get(ctx, "freelance-pro-clients")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "freelance-pro-clients", `["client-1"]`))
	require.NoError(t, s.Set(ctx, "client-override-client-1", `{"id":"client-1"}`))

	// a second handle on the same file sees the data
	other, err := New(path)
	require.NoError(t, err)
	v, ok, err := other.Get(ctx, "freelance-pro-clients")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `["client-1"]`, v)

	keys, err := other.Keys(ctx, "client-override-")
	require.NoError(t, err)
	assert.Equal(t, []string{"client-override-client-1"}, keys)

	require.NoError(t, s.Remove(ctx, "client-override-client-1"))
	require.NoError(t, s.Remove(ctx, "client-override-client-1"))
	_, ok, _ = other.Get(ctx, "client-override-client-1")
	assert.False(t, ok)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := New(path)
	assert.Error(t, err)
}

func TestWatchReportsForeignWritesOnly(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "kv.json")
	a, err := New(path, WithPollInterval(10*time.Millisecond))
	require.NoError(t, err)
	b, err := New(path, WithPollInterval(10*time.Millisecond))
	require.NoError(t, err)

	var mu sync.Mutex
	var seen []string
	stop := a.Watch(func(k string) {
		mu.Lock()
		seen = append(seen, k)
		mu.Unlock()
	})
	defer stop()

	require.NoError(t, a.Set(ctx, "own", "1"))
	require.NoError(t, b.Set(ctx, "foreign", "1"))
	// own write after the foreign one must not hide it
	require.NoError(t, a.Set(ctx, "own", "2"))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) > 0
	}, 2*time.Second, 10*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"foreign"}, seen)
}

func TestDiff(t *testing.T) {
	a := map[string]string{"x": "1", "y": "2", "z": "3"}
	b := map[string]string{"x": "1", "y": "changed", "w": "4"}
	assert.Equal(t, []string{"w", "y", "z"}, diff(a, b))
	assert.Empty(t, diff(a, a))
}
