package backup

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"balcao/internal/core/types"
	"balcao/internal/domain/catalog/product"
)

type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type memStore struct {
	snap *Snapshot
}

func (m *memStore) Export(_ context.Context) (*Snapshot, error) {
	return m.snap, nil
}

func (m *memStore) Import(_ context.Context, snap *Snapshot) error {
	m.snap = snap
	return nil
}

func TestExportImportRoundTrip(t *testing.T) {
	rice := product.New("7891000100103", "Arroz 5kg", product.UnitUN)
	rice.RetailPrice = types.MustMoney("10.00")
	rice.Stock = types.NewQuantityFromFloat64(12.5)

	source := &memStore{snap: &Snapshot{Products: []*product.Product{rice}}}
	target := &memStore{snap: &Snapshot{}}

	var buf bytes.Buffer
	require.NoError(t, NewService(source, fakeTxManager{}).Export(context.Background(), &buf))
	require.NoError(t, NewService(target, fakeTxManager{}).Import(context.Background(), &buf))

	require.Len(t, target.snap.Products, 1)
	got := target.snap.Products[0]
	assert.Equal(t, rice.ID, got.ID)
	assert.Equal(t, "Arroz 5kg", got.Name)
	assert.True(t, got.RetailPrice.Equal(types.MustMoney("10.00")))
	assert.Equal(t, types.NewQuantityFromFloat64(12.5), got.Stock)
}

func TestImportRejectsGarbage(t *testing.T) {
	target := &memStore{}
	err := NewService(target, fakeTxManager{}).Import(context.Background(), bytes.NewBufferString("not a backup"))
	require.Error(t, err)
	assert.Nil(t, target.snap)
}
