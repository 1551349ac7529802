package kv

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestBadger(t *testing.T) *Badger {
	t.Helper()
	db, err := OpenBadger(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestStores(t *testing.T) {
	stores := map[string]func(t *testing.T) Store{
		"memory": func(*testing.T) Store { return NewMemory(nil) },
		"badger": func(t *testing.T) Store { return openTestBadger(t) },
	}
	for name, open := range stores {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			ctx := context.Background()

			_, err := s.Get(ctx, "settings_speed")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Set(ctx, "settings_speed", "1.5"))
			got, err := s.Get(ctx, "settings_speed")
			require.NoError(t, err)
			assert.Equal(t, "1.5", got)

			require.NoError(t, s.Set(ctx, "settings_speed", "0.2"))
			got, err = s.Get(ctx, "settings_speed")
			require.NoError(t, err)
			assert.Equal(t, "0.2", got)
		})
	}
}

func TestBadgerPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	db, err := OpenBadger(dir)
	require.NoError(t, err)
	require.NoError(t, db.Set(ctx, "settings_theme", "dark"))
	require.NoError(t, db.Close())

	db, err = OpenBadger(dir)
	require.NoError(t, err)
	defer db.Close()

	got, err := db.Get(ctx, "settings_theme")
	require.NoError(t, err)
	assert.Equal(t, "dark", got)
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := NewMemory(map[string]string{"k": "v"})
	_, err := m.Get(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, m.Set(ctx, "k", "w"), context.Canceled)
	assert.Equal(t, map[string]string{"k": "v"}, m.Snapshot())
}
