package negotiation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Ananth-NQI/carnego-backend/internal/models"
)

var (
	allIntents = []models.Intent{
		models.IntentGreeting, models.IntentInquiry, models.IntentBudgetMention,
		models.IntentVehicleInterest, models.IntentCounterOffer, models.IntentAccept,
		models.IntentReject, models.IntentRequestInfo, models.IntentExpressConcern,
		models.IntentRequestAlternative,
	}
	allEmotions = []models.Emotion{
		models.EmotionNeutral, models.EmotionHappy, models.EmotionFrustrated,
		models.EmotionExcited, models.EmotionWorried, models.EmotionBudgetStressed,
		models.EmotionConfused, models.EmotionSatisfied, models.EmotionStressed,
		models.EmotionAngry,
	}
)

func TestSelectStrategyCoversEveryPair(t *testing.T) {
	for _, intent := range allIntents {
		for _, emotion := range allEmotions {
			want := StrategyValueBased
			switch {
			case emotion == models.EmotionFrustrated || emotion == models.EmotionStressed ||
				emotion == models.EmotionAngry || emotion == models.EmotionWorried:
				want = StrategyEmpathetic
			case intent == models.IntentCounterOffer || intent == models.IntentBudgetMention ||
				emotion == models.EmotionBudgetStressed:
				want = StrategyCostPlus
			}
			got := SelectStrategy(intent, emotion).Kind()
			assert.Equal(t, want, got, "intent=%s emotion=%s", intent, emotion)
		}
	}
}

func TestStrategyTableIsComplete(t *testing.T) {
	for _, ic := range []IntentCategory{IntentOther, IntentPriceFocused} {
		for _, ec := range []EmotionCategory{EmotionCalm, EmotionBudgetFocused, EmotionDistressed} {
			_, ok := strategyTable[strategyKey{ic, ec}]
			assert.True(t, ok, "missing entry for intent=%d emotion=%d", ic, ec)
		}
	}
}

func TestStrategyMoves(t *testing.T) {
	p := DefaultPolicy()
	in := MoveInput{CurrentMonthly: 4000, FloorMonthly: 3000, Aggression: 0.3, Sentiment: 0.5, Policy: p}

	assert.InDelta(t, 250.0, StrategyFor(StrategyEmpathetic).NextMove(in).Concession, 1e-9)
	assert.InDelta(t, 300.0, StrategyFor(StrategyCostPlus).NextMove(in).Concession, 1e-9)
	assert.Zero(t, StrategyFor(StrategyValueBased).NextMove(in).Concession)

	quarterEnd := in
	quarterEnd.Market.EndOfQuarter = true
	assert.InDelta(t, 400.0, StrategyFor(StrategyCostPlus).NextMove(quarterEnd).Concession, 1e-9)

	gloomy := quarterEnd
	gloomy.Sentiment = 0.1
	// 0.3 + 0.1 + 0.1 is clamped to 0.4
	move := StrategyFor(StrategyCostPlus).NextMove(gloomy)
	assert.InDelta(t, 0.40, move.Aggression, 1e-9)

	timid := in
	timid.Aggression = 0
	assert.InDelta(t, 0.05, StrategyFor(StrategyCostPlus).NextMove(timid).Aggression, 1e-9)

	below := in
	below.CurrentMonthly = 2500
	assert.Zero(t, StrategyFor(StrategyEmpathetic).NextMove(below).Concession)
}
