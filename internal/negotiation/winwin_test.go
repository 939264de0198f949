package negotiation

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

// A deal at the 10% target margin with a customer at 0.8 satisfaction lands in the balanced bucket.
func TestScoreWinWinTargetMargin(t *testing.T) {
	got := ScoreWinWin(WinWinInput{
		Monthly:        110000.0 / 60,
		Duration:       60,
		Cash:           true,
		DealerCost:     100000,
		CustomerBudget: 2500,
		Sentiment:      0,
	})

	assert.InDelta(t, 10.0, got.DealerMargin, 0.05)
	assert.InDelta(t, 70.0, got.DealerScore, 0.1)
	assert.InDelta(t, 0.8, got.Satisfaction, 1e-9)
	assert.InDelta(t, 70.0, got.CustomerScore, 0.1)
	assert.InDelta(t, 70.0, got.Total, 0.1)
	assert.Equal(t, RecommendationBalanced, got.Recommendation)
	assert.True(t, got.IsBalanced)
}

func TestScoreWinWinDealerScoreRamp(t *testing.T) {
	tests := []struct {
		margin float64
		want   float64
	}{
		{-0.2, 0},
		{0, 0},
		{0.025, 15},
		{0.05, 30},
		{0.075, 50},
		{0.125, 85},
		{0.15, 100},
		{0.4, 100},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, dealerScore(tt.margin), 1e-9, "margin %.3f", tt.margin)
	}
}

func TestScoreWinWinImbalancePenalty(t *testing.T) {
	// margin far above target: dealer 100, customer 40
	got := ScoreWinWin(WinWinInput{
		Monthly:        3000,
		Duration:       60,
		Cash:           true,
		DealerCost:     100000,
		CustomerBudget: 1500,
		Sentiment:      0,
	})
	assert.InDelta(t, 100.0, got.DealerScore, 1e-9)
	// budget fit 0, emotion 0.5 -> satisfaction 0.2 -> 10 + 30
	assert.InDelta(t, 40.0, got.CustomerScore, 1e-9)
	// sqrt(4000) - 0.5 * (60 - 20)
	assert.InDelta(t, 43.2, got.Total, 0.05)
	assert.Equal(t, RecommendationNeedsWork, got.Recommendation)
	assert.False(t, got.IsBalanced)
}

func TestScoreWinWinTradeInPremium(t *testing.T) {
	base := WinWinInput{Monthly: 1800, Duration: 60, Cash: true, DealerCost: 100000, CustomerBudget: 2000, Sentiment: 0.2}

	fair := base
	fair.TradeInValue = 20000
	fair.TradeInMarketValue = 20000

	generous := fair
	generous.TradeInMarketValue = 15000

	stingy := fair
	stingy.TradeInMarketValue = 30000

	assert.Greater(t, ScoreWinWin(generous).CustomerScore, ScoreWinWin(fair).CustomerScore)
	assert.Less(t, ScoreWinWin(stingy).CustomerScore, ScoreWinWin(fair).CustomerScore)
}

func TestScoreWinWinFatigue(t *testing.T) {
	in := WinWinInput{Monthly: 110000.0 / 60, Duration: 60, Cash: true, DealerCost: 100000, CustomerBudget: 2500}
	fresh := ScoreWinWin(in)
	in.Rounds = 8
	tired := ScoreWinWin(in)
	assert.InDelta(t, 6.0, tired.FatiguePenalty, 1e-9)
	assert.InDelta(t, fresh.Total-6, tired.Total, 0.11)
}

func TestScoreWinWinAlwaysInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 2000; i++ {
		in := WinWinInput{
			Monthly:            rng.Float64() * 20000,
			Duration:           rng.Intn(96) - 12,
			Cash:               rng.Intn(2) == 0,
			DealerCost:         rng.Float64()*400000 - 20000,
			TradeInValue:       rng.Float64() * 100000,
			TradeInMarketValue: rng.Float64() * 100000,
			CustomerBudget:     rng.Float64()*10000 - 1000,
			Sentiment:          rng.Float64()*4 - 2,
			Rounds:             rng.Intn(30),
		}
		got := ScoreWinWin(in)
		assert.GreaterOrEqual(t, got.Total, 0.0)
		assert.LessOrEqual(t, got.Total, 100.0)
		assert.GreaterOrEqual(t, got.CustomerScore, 0.0)
		assert.LessOrEqual(t, got.CustomerScore, 100.0)
	}
}

func TestRecommendationFor(t *testing.T) {
	assert.Equal(t, RecommendationPoor, RecommendationFor(12))
	assert.Equal(t, RecommendationNeedsWork, RecommendationFor(30))
	assert.Equal(t, RecommendationBalanced, RecommendationFor(50))
	assert.Equal(t, RecommendationBalanced, RecommendationFor(70))
	assert.Equal(t, RecommendationGenerous, RecommendationFor(70.1))
}
