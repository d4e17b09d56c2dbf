package service

import (
	"regexp"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testShippingPolicy() ShippingPolicy {
	return ShippingPolicy{
		FreeThreshold: decimal.RequireFromString("500"),
		Cost:          decimal.RequireFromString("29.90"),
	}
}

func TestShippingPolicy_BelowThreshold(t *testing.T) {
	shipping, total := testShippingPolicy().Totals(decimal.RequireFromString("499.99"))

	assert.Equal(t, "29.9", shipping.String())
	assert.Equal(t, "529.89", total.String())
}

func TestShippingPolicy_AtThresholdIsFree(t *testing.T) {
	shipping, total := testShippingPolicy().Totals(decimal.RequireFromString("500"))

	assert.True(t, shipping.IsZero())
	assert.Equal(t, "500", total.String())
}

func TestNewOrderCode(t *testing.T) {
	now := time.Date(2024, 10, 19, 12, 0, 0, 0, time.UTC)
	pattern := regexp.MustCompile(`^OT241019[ABCDEFGHJKLMNPQRSTUVWXYZ23456789]{6}$`)

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		code, err := NewOrderCode(now)
		require.NoError(t, err)
		assert.Regexp(t, pattern, code)
		assert.Len(t, code, 14)
		seen[code] = true
	}
	assert.Greater(t, len(seen), 45)
}
