package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contable/internal/core"
)

type failingKV struct{ err error }

func (f failingKV) Get(context.Context, string) ([]byte, error) { return nil, f.err }
func (f failingKV) Put(context.Context, string, []byte) error   { return f.err }
func (f failingKV) Close() error                                { return nil }

func TestRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	repo := NewRepository(kv, DefaultKeyPrefix, nil)

	items := []core.InventoryItem{{ID: "a", Name: "Shirt", Cost: core.Money{Cents: 500}, BasePrice: core.Money{Cents: 2000}, Stock: 7}}
	sales := []core.Sale{{ID: "s", ItemID: "a", ItemName: "Shirt", Quantity: 3, PricePerUnit: core.Money{Cents: 2000}, TotalPrice: core.Money{Cents: 6000}, Date: core.NewDate(2024, 3, 2)}}
	expenses := []core.Expense{{ID: "e", Category: core.CategoryOther, Description: "x", Amount: core.Money{Cents: 5000}, Date: core.NewDate(2024, 1, 1)}}

	require.NoError(t, repo.SaveInventory(ctx, items))
	require.NoError(t, repo.SaveSales(ctx, sales))
	require.NoError(t, repo.SaveExpenses(ctx, expenses))

	assert.Equal(t, items, repo.LoadInventory(ctx))
	assert.Equal(t, sales, repo.LoadSales(ctx))
	assert.Equal(t, expenses, repo.LoadExpenses(ctx))

	raw, err := kv.Get(ctx, "accounting_sales")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"s","itemId":"a","itemName":"Shirt","quantity":3,"pricePerUnit":20.00,"totalPrice":60.00,"date":"2024-03-02"}]`, string(raw))
}

func TestRepositoryMissingKeyIsEmpty(t *testing.T) {
	repo := NewRepository(NewMemoryKV(), "", nil)
	got := repo.LoadInventory(context.Background())
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestRepositoryMalformedFallsBackToEmpty(t *testing.T) {
	ctx := context.Background()
	cases := map[string]string{
		"garbage":     `{not json`,
		"wrong shape": `{"id":"a"}`,
		"null":        `null`,
		"bad money":   `[{"id":"s","totalPrice":"abc"}]`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			kv := NewMemoryKV()
			require.NoError(t, kv.Put(ctx, "accounting_sales", []byte(doc)))
			repo := NewRepository(kv, DefaultKeyPrefix, nil)
			got := repo.LoadSales(ctx)
			assert.NotNil(t, got)
			assert.Empty(t, got)
		})
	}
}

func TestRepositoryBackendErrors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	repo := NewRepository(failingKV{err: boom}, DefaultKeyPrefix, nil)

	assert.Empty(t, repo.LoadExpenses(ctx))
	err := repo.SaveExpenses(ctx, nil)
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "accounting_expenses")
	assert.NoError(t, repo.Ping(ctx))
}

func TestRepositoryNilSliceSavesEmptyArray(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	repo := NewRepository(kv, "", nil)
	require.NoError(t, repo.SaveInventory(ctx, nil))
	raw, err := kv.Get(ctx, "inventory")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))
}

func TestMemoryKVCopiesValues(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	buf := []byte("abc")
	require.NoError(t, kv.Put(ctx, "k", buf))
	buf[0] = 'z'
	got, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))

	_, err = kv.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
