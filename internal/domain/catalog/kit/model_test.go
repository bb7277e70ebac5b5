package kit

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"balcao/internal/core/id"
	"balcao/internal/core/types"
)

func TestDerivedStock(t *testing.T) {
	cachaca := id.New()
	limao := id.New()

	k := New("KIT001", "Caipirinha", types.MustMoney("15.00"))
	k.AddComponent(cachaca, types.NewQuantityFromFloat64(0.02)) // 40 ml of a 2 l bottle
	k.AddComponent(limao, types.NewQuantityFromInt(2))

	tests := []struct {
		name   string
		stocks map[id.ID]types.Quantity
		want   int64
	}{
		{
			name: "limited by bottle",
			stocks: map[id.ID]types.Quantity{
				cachaca: types.NewQuantityFromInt(1), // 50 pours
				limao:   types.NewQuantityFromInt(200),
			},
			want: 50,
		},
		{
			name: "limited by lemons",
			stocks: map[id.ID]types.Quantity{
				cachaca: types.NewQuantityFromInt(10),
				limao:   types.NewQuantityFromInt(5),
			},
			want: 2,
		},
		{
			name: "missing component makes kit unavailable",
			stocks: map[id.ID]types.Quantity{
				cachaca: types.NewQuantityFromInt(10),
			},
			want: 0,
		},
		{
			name: "zero stock on one component",
			stocks: map[id.ID]types.Quantity{
				cachaca: 0,
				limao:   types.NewQuantityFromInt(100),
			},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, k.DerivedStock(tt.stocks))
		})
	}
}

func TestDerivedStockNoComponents(t *testing.T) {
	k := New("KIT002", "Vazio", types.MustMoney("1.00"))
	assert.Equal(t, int64(0), k.DerivedStock(map[id.ID]types.Quantity{}))
}
