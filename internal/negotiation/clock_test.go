package negotiation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMarketContextAt(t *testing.T) {
	qEnd := MarketContextAt(time.Date(2025, 9, 27, 12, 0, 0, 0, time.UTC))
	assert.True(t, qEnd.EndOfQuarter)
	assert.True(t, qEnd.EndOfMonth)
	assert.True(t, qEnd.Weekend)
	assert.True(t, qEnd.HighSeason)

	mid := MarketContextAt(fixedNow)
	assert.Equal(t, MarketContext{HighSeason: true}, mid)

	assert.False(t, MarketContextAt(time.Date(2025, 8, 28, 0, 0, 0, 0, time.UTC)).EndOfQuarter)
}

func TestPolicyValidate(t *testing.T) {
	assert.NoError(t, DefaultPolicy().Validate())

	broken := DefaultPolicy()
	broken.DefaultDuration = 0
	assert.ErrorIs(t, broken.Validate(), ErrInvalidPolicy)

	broken = DefaultPolicy()
	broken.CostPlusMinAggression = 0.5
	assert.ErrorContains(t, broken.Validate(), "cost_plus_aggression")
}
