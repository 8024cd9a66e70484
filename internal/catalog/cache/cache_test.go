package cache

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/boqlca/internal/catalog"
)

func TestEntry(t *testing.T) {
	entry := NewEntry("k", json.RawMessage(`{"a":1}`), 60)
	assert.False(t, entry.IsExpired())
	assert.LessOrEqual(t, entry.Age(), time.Second)

	encoded, err := json.Marshal(entry)
	require.NoError(t, err)

	var decoded Entry
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	assert.Equal(t, entry.Key, decoded.Key)
	assert.Equal(t, entry.ExpiresAt.Format(time.RFC3339), decoded.ExpiresAt.Format(time.RFC3339))

	entry.ExpiresAt = time.Now().Add(-time.Second)
	assert.True(t, entry.IsExpired())
}

func TestFileStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	store, err := NewFileStore(dir, true, 60)
	require.NoError(t, err)

	_, err = store.Get(Key("x"))
	require.ErrorIs(t, err, ErrCacheNotFound)

	require.NoError(t, store.Set(Key("x"), json.RawMessage(`"payload"`)))
	entry, err := store.Get(Key("x"))
	require.NoError(t, err)
	assert.JSONEq(t, `"payload"`, string(entry.Data))

	require.NoError(t, store.Delete(Key("x")))
	require.NoError(t, store.Delete(Key("x")))

	require.NoError(t, store.Set(Key("y"), json.RawMessage(`1`)))
	require.NoError(t, store.Clear())
	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, files)

	_, err = store.Get("")
	require.ErrorIs(t, err, ErrInvalidCacheKey)
}

func TestFileStoreExpired(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), true, 0)
	require.NoError(t, err)

	require.NoError(t, store.Set(Key("old"), json.RawMessage(`1`)))
	time.Sleep(1100 * time.Millisecond)

	_, err = store.Get(Key("old"))
	require.ErrorIs(t, err, ErrCacheExpired)
	_, err = store.Get(Key("old"))
	require.ErrorIs(t, err, ErrCacheNotFound)
}

func TestDisabledStore(t *testing.T) {
	store, err := NewFileStore("", false, 60)
	require.NoError(t, err)
	assert.False(t, store.IsEnabled())

	_, err = store.Get("k")
	require.ErrorIs(t, err, ErrCacheDisabled)
	require.ErrorIs(t, store.Set("k", nil), ErrCacheDisabled)
}

func TestParseTTL(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: "3600", want: 3600},
		{in: "30m", want: 1800},
		{in: "1h30m", want: 5400},
		{in: "5", wantErr: true},
		{in: "30d", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTTL(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv(EnvTTLSeconds, "120")
	t.Setenv(EnvCacheEnabled, "false")
	assert.Equal(t, 120, TTLFromEnv(DefaultTTLSeconds))
	assert.False(t, EnabledFromEnv(true))

	t.Setenv(EnvTTLSeconds, "nonsense")
	t.Setenv(EnvCacheEnabled, "maybe")
	assert.Equal(t, DefaultTTLSeconds, TTLFromEnv(DefaultTTLSeconds))
	assert.True(t, EnabledFromEnv(true))
}

type countingProvider struct {
	calls int
	fail  bool
}

func (p *countingProvider) Name() string { return "counting" }

func (p *countingProvider) Snapshot(_ context.Context) (*catalog.Snapshot, error) {
	p.calls++
	if p.fail {
		return nil, errors.New("down")
	}
	return &catalog.Snapshot{
		SchemaVersion: catalog.CurrentSchemaVersion,
		Entries:       []catalog.Entry{{ID: "a", Name: "Concrete", Density: catalog.Float(2400)}},
	}, nil
}

func TestCachedProvider(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), true, 60)
	require.NoError(t, err)

	inner := &countingProvider{}
	p := NewCachedProvider(inner, store)
	assert.Equal(t, "counting", p.Name())

	for range 3 {
		snap, snapErr := p.Snapshot(context.Background())
		require.NoError(t, snapErr)
		require.Len(t, snap.Entries, 1)
		assert.InDelta(t, 2400.0, snap.Entries[0].DensityValue(), 1e-9)
	}
	assert.Equal(t, 1, inner.calls)

	require.NoError(t, p.Invalidate())
	inner.fail = true
	_, err = p.Snapshot(context.Background())
	require.Error(t, err)
	assert.Equal(t, 2, inner.calls)
}
