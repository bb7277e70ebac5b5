package costing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"balcao/internal/core/entity"
	"balcao/internal/core/id"
	"balcao/internal/core/types"
)

func newBatch(qty int64, cost string, daysAgo int) *entity.StockBatch {
	b := entity.NewStockBatch(
		id.New(),
		types.NewQuantityFromInt(qty),
		types.MustMoney(cost),
		time.Now().AddDate(0, 0, -daysAgo),
	)
	return &b
}

func TestDrainFIFO_OldestFirst(t *testing.T) {
	old := newBatch(10, "5.00", 30)
	recent := newBatch(10, "6.00", 5)
	batches := []*entity.StockBatch{old, recent}

	cs, shortfall := drainFIFO(batches, types.NewQuantityFromInt(12))

	assert.True(t, shortfall.IsZero())
	require.Len(t, cs, 2)

	assert.Equal(t, old.ID, *cs[0].BatchID)
	assert.Equal(t, types.NewQuantityFromInt(10), cs[0].Quantity)
	assert.True(t, cs[0].UnitCost.Equal(types.MustMoney("5.00")))

	assert.Equal(t, recent.ID, *cs[1].BatchID)
	assert.Equal(t, types.NewQuantityFromInt(2), cs[1].Quantity)
	assert.True(t, cs[1].UnitCost.Equal(types.MustMoney("6.00")))

	assert.True(t, old.IsExhausted())
	assert.Equal(t, types.NewQuantityFromInt(8), recent.QtyRemaining)

	// 10*5.00 + 2*6.00 = 62.00
	assert.True(t, TotalCost(cs).Equal(types.MustMoney("62.00")))
}

func TestDrainFIFO_PartialFromSingleBatch(t *testing.T) {
	b := newBatch(10, "4.50", 1)

	cs, shortfall := drainFIFO([]*entity.StockBatch{b}, types.NewQuantityFromInt(3))

	assert.True(t, shortfall.IsZero())
	require.Len(t, cs, 1)
	assert.Equal(t, types.NewQuantityFromInt(3), cs[0].Quantity)
	assert.Equal(t, types.NewQuantityFromInt(7), b.QtyRemaining)
}

func TestDrainFIFO_SkipsExhaustedLayers(t *testing.T) {
	spent := newBatch(10, "5.00", 30)
	spent.QtyRemaining = 0
	live := newBatch(10, "6.00", 5)

	cs, shortfall := drainFIFO([]*entity.StockBatch{spent, live}, types.NewQuantityFromInt(4))

	assert.True(t, shortfall.IsZero())
	require.Len(t, cs, 1)
	assert.Equal(t, live.ID, *cs[0].BatchID)
}

func TestDrainFIFO_Shortfall(t *testing.T) {
	b := newBatch(5, "5.00", 10)

	cs, shortfall := drainFIFO([]*entity.StockBatch{b}, types.NewQuantityFromInt(8))

	require.Len(t, cs, 1)
	assert.Equal(t, types.NewQuantityFromInt(5), cs[0].Quantity)
	assert.Equal(t, types.NewQuantityFromInt(3), shortfall)
	assert.True(t, b.IsExhausted())
}

func TestDrainFIFO_NoBatches(t *testing.T) {
	cs, shortfall := drainFIFO(nil, types.NewQuantityFromInt(2))

	assert.Empty(t, cs)
	assert.Equal(t, types.NewQuantityFromInt(2), shortfall)
}

func TestDrainFIFO_FractionalQuantities(t *testing.T) {
	// 2 liter bottle consumed in 40ml pours.
	b := newBatch(2, "30.00", 1)

	cs, shortfall := drainFIFO([]*entity.StockBatch{b}, types.NewQuantityFromFloat64(0.04))

	assert.True(t, shortfall.IsZero())
	require.Len(t, cs, 1)
	// 0.04 * 30.00 = 1.20
	assert.True(t, cs[0].Cost().Equal(types.MustMoney("1.20")), "got %s", cs[0].Cost())
	assert.Equal(t, types.NewQuantityFromFloat64(1.96), b.QtyRemaining)
}
