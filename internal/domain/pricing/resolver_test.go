package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"balcao/internal/core/types"
	"balcao/internal/domain/catalog/product"
	"balcao/internal/domain/promotion"
)

func saoPaulo(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)
	return loc
}

func newTestProduct() *product.Product {
	p := product.New("7891000100103", "Arroz 5kg", product.UnitUN)
	p.RetailPrice = types.MustMoney("10.00")
	p.WholesalePrice = types.MustMoney("8.00")
	p.WholesaleMinQty = types.NewQuantityFromInt(10)
	return p
}

func TestResolveUnitPrice_Tiering(t *testing.T) {
	p := newTestProduct()
	now := time.Now()

	tests := []struct {
		name string
		qty  types.Quantity
		want string
	}{
		{"retail below tier", types.NewQuantityFromInt(5), "10.00"},
		{"wholesale at tier", types.NewQuantityFromInt(10), "8.00"},
		{"wholesale above tier", types.NewQuantityFromInt(12), "8.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveUnitPrice(p, tt.qty, nil, now)
			assert.True(t, got.Equal(types.MustMoney(tt.want)), "got %s", got)
		})
	}
}

func TestResolveUnitPrice_PromotionOverridesWholesale(t *testing.T) {
	loc := saoPaulo(t)
	p := newTestProduct()

	promo := promotion.New("Semana do Arroz", p.ID, types.MustMoney("7.50"),
		time.Date(2024, 6, 1, 0, 0, 0, 0, loc),
		time.Date(2024, 6, 7, 0, 0, 0, 0, loc),
	)

	now := time.Date(2024, 6, 3, 12, 0, 0, 0, loc)

	// Even above the wholesale tier the promotion wins.
	got := ResolveUnitPrice(p, types.NewQuantityFromInt(20), []*promotion.Promotion{promo}, now)
	assert.True(t, got.Equal(types.MustMoney("7.50")), "got %s", got)
}

func TestResolveUnitPrice_PromotionDateBoundaries(t *testing.T) {
	loc := saoPaulo(t)
	p := newTestProduct()

	promo := promotion.New("Semana do Arroz", p.ID, types.MustMoney("7.50"),
		time.Date(2024, 6, 1, 0, 0, 0, 0, loc),
		time.Date(2024, 6, 7, 0, 0, 0, 0, loc),
	)
	promos := []*promotion.Promotion{promo}

	tests := []struct {
		name string
		now  time.Time
		want string
	}{
		{"last second of final day", time.Date(2024, 6, 7, 23, 59, 59, 0, loc), "7.50"},
		{"just past final day", time.Date(2024, 6, 8, 0, 0, 1, 0, loc), "10.00"},
		{"first moment of first day", time.Date(2024, 6, 1, 0, 0, 0, 0, loc), "7.50"},
		{"day before start", time.Date(2024, 5, 31, 23, 59, 59, 0, loc), "10.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveUnitPrice(p, types.NewQuantityFromInt(1), promos, tt.now)
			assert.True(t, got.Equal(types.MustMoney(tt.want)), "got %s", got)
		})
	}
}

func TestResolveUnitPrice_InactivePromotionIgnored(t *testing.T) {
	loc := saoPaulo(t)
	p := newTestProduct()

	promo := promotion.New("Desativada", p.ID, types.MustMoney("1.00"),
		time.Date(2024, 6, 1, 0, 0, 0, 0, loc),
		time.Date(2024, 6, 7, 0, 0, 0, 0, loc),
	)
	promo.Active = false

	now := time.Date(2024, 6, 3, 12, 0, 0, 0, loc)
	got := ResolveUnitPrice(p, types.NewQuantityFromInt(1), []*promotion.Promotion{promo}, now)
	assert.True(t, got.Equal(types.MustMoney("10.00")), "got %s", got)
}

func TestDiscountApply(t *testing.T) {
	tests := []struct {
		name     string
		discount Discount
		price    string
		want     string
	}{
		{"twenty percent", Discount{DiscountPercent, types.MustMoney("20")}, "10.00", "8.00"},
		{"flat value", Discount{DiscountFlat, types.MustMoney("1.50")}, "10.00", "8.50"},
		{"flat exceeding price floors at zero", Discount{DiscountFlat, types.MustMoney("15.00")}, "10.00", "0.00"},
		{"hundred percent", Discount{DiscountPercent, types.MustMoney("100")}, "10.00", "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.discount.Apply(types.MustMoney(tt.price))
			assert.True(t, got.Equal(types.MustMoney(tt.want)), "got %s", got)
		})
	}
}

// Crossing the wholesale tier must reprice from the new standard price and
// re-apply the discount percentage, not keep the stale discounted price.
func TestDiscountIdempotentUnderRepricing(t *testing.T) {
	p := newTestProduct()
	now := time.Now()
	d := Discount{DiscountPercent, types.MustMoney("20")}

	// qty=5: retail 10.00, 20% off => 8.00
	std := ResolveUnitPrice(p, types.NewQuantityFromInt(5), nil, now)
	assert.True(t, d.Apply(std).Equal(types.MustMoney("8.00")))

	// qty raised to 12: wholesale 8.00, 20% off => 6.40
	std = ResolveUnitPrice(p, types.NewQuantityFromInt(12), nil, now)
	assert.True(t, d.Apply(std).Equal(types.MustMoney("6.40")), "got %s", d.Apply(std))
}

func TestDiscountAsPercentOf(t *testing.T) {
	// R$30 off a R$200 cart is a 15% blended discount on every line.
	d := Discount{DiscountFlat, types.MustMoney("30.00")}
	blended := d.AsPercentOf(types.MustMoney("200.00"))

	assert.Equal(t, DiscountPercent, blended.Kind)
	assert.True(t, blended.Value.Equal(types.MustMoney("15")), "got %s", blended.Value)

	// Applying the blended percent to a line reproduces the proportional cut.
	assert.True(t, blended.Apply(types.MustMoney("50.00")).Equal(types.MustMoney("42.50")))

	// Oversized flat discount caps at 100%.
	big := Discount{DiscountFlat, types.MustMoney("500.00")}.AsPercentOf(types.MustMoney("200.00"))
	assert.True(t, big.Value.Equal(types.MustMoney("100")))

	// Percent discounts pass through.
	pct := Discount{DiscountPercent, types.MustMoney("10")}.AsPercentOf(types.MustMoney("200.00"))
	assert.True(t, pct.Value.Equal(types.MustMoney("10")))
}

func TestAllocateRevenue(t *testing.T) {
	// Kit sold at 15.00; component retail values 12.00 and 6.00.
	shares := AllocateRevenue(types.MustMoney("15.00"), []types.Money{
		types.MustMoney("12.00"),
		types.MustMoney("6.00"),
	})

	require.Len(t, shares, 2)
	assert.True(t, shares[0].Equal(types.MustMoney("10.00")), "got %s", shares[0])
	assert.True(t, shares[1].Equal(types.MustMoney("5.00")), "got %s", shares[1])
}

func TestAllocateRevenue_ResidualGoesToLast(t *testing.T) {
	// 10.00 across three equal weights: 3.33 + 3.33 + 3.34.
	shares := AllocateRevenue(types.MustMoney("10.00"), []types.Money{
		types.MustMoney("1.00"),
		types.MustMoney("1.00"),
		types.MustMoney("1.00"),
	})

	require.Len(t, shares, 3)
	sum := types.ZeroMoney()
	for _, s := range shares {
		sum = sum.Add(s)
	}
	assert.True(t, sum.Equal(types.MustMoney("10.00")), "shares must conserve the total, got %s", sum)
	assert.True(t, shares[2].Equal(types.MustMoney("3.34")), "got %s", shares[2])
}

func TestAllocateRevenue_ZeroWeights(t *testing.T) {
	shares := AllocateRevenue(types.MustMoney("9.00"), []types.Money{
		types.ZeroMoney(),
		types.ZeroMoney(),
		types.ZeroMoney(),
	})

	require.Len(t, shares, 3)
	sum := types.ZeroMoney()
	for _, s := range shares {
		sum = sum.Add(s)
	}
	assert.True(t, sum.Equal(types.MustMoney("9.00")))
}
