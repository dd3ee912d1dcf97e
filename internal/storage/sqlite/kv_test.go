package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contable/internal/core"
	"contable/internal/storage"
)

func openTemp(t *testing.T) (*KV, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "contable.db")
	kv, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { kv.Close() })
	return kv, path
}

func TestKVGetPut(t *testing.T) {
	ctx := context.Background()
	kv, _ := openTemp(t)

	_, err := kv.Get(ctx, "missing")
	require.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, kv.Put(ctx, "k", []byte(`[1]`)))
	require.NoError(t, kv.Put(ctx, "k", []byte(`[1,2]`)))
	got, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `[1,2]`, string(got))
	assert.NoError(t, kv.Ping(ctx))
}

func TestKVSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	kv, path := openTemp(t)
	repo := storage.NewRepository(kv, storage.DefaultKeyPrefix, nil)
	exp := []core.Expense{{ID: "e1", Category: core.CategoryOther, Description: "Alquiler", Amount: core.Money{Cents: 30000}, Date: core.NewDate(2024, 5, 1)}}
	require.NoError(t, repo.SaveExpenses(ctx, exp))
	require.NoError(t, kv.Close())

	// migrations must be idempotent on an existing database
	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()
	got := storage.NewRepository(reopened, storage.DefaultKeyPrefix, nil).LoadExpenses(ctx)
	assert.Equal(t, exp, got)
}
