package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuantityParsing(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Quantity
	}{
		{"integer", `3`, NewQuantityFromInt(3)},
		{"fractional", `0.02`, Quantity(200)},
		{"four digits", `1.2345`, Quantity(12345)},
		{"truncates extra digits", `1.23456`, Quantity(12345)},
		{"negative", `-2.5`, Quantity(-25000)},
		{"string form", `"12.75"`, Quantity(127500)},
		{"null", `null`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var q Quantity
			require.NoError(t, json.Unmarshal([]byte(tt.in), &q))
			assert.Equal(t, tt.want, q)
		})
	}
}

func TestQuantityRoundTrip(t *testing.T) {
	q := NewQuantityFromFloat64(40.0 / 2000.0) // 40 ml pour from a 2 l bottle

	data, err := json.Marshal(q)
	require.NoError(t, err)
	assert.Equal(t, "0.0200", string(data))

	var back Quantity
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, q, back)
}

func TestQuantityMul(t *testing.T) {
	perKit := NewQuantityFromFloat64(0.02)
	kitsSold := NewQuantityFromInt(3)

	assert.Equal(t, NewQuantityFromFloat64(0.06), perKit.Mul(kitsSold))
	assert.Equal(t, "0.0600", perKit.Mul(kitsSold).String())
}

func TestQuantityDecimal(t *testing.T) {
	q := NewQuantityFromFloat64(2.5)
	price := MustMoney("10.00")

	assert.True(t, price.Mul(q.Decimal()).Equal(MustMoney("25.00")))
}
