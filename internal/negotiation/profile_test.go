package negotiation

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Ananth-NQI/carnego-backend/internal/models"
)

func newProfile() models.CustomerProfile {
	return models.NewNegotiationSession("s", "c", fixedNow).Profile
}

func TestUpdateProfileConcernsAndSensitivity(t *testing.T) {
	p := UpdateProfile(newProfile(), ProfileSignals{
		Message: "C'est trop cher pour ma famille, il faut une bonne garantie",
		Emotion: models.EmotionWorried,
		Intent:  models.IntentExpressConcern,
	})

	assert.Equal(t, []string{"price concern", "family needs", "warranty interest"}, p.MentionedConcerns)
	assert.Equal(t, "High", p.PriceSensitivity)
	assert.InDelta(t, 0.55, p.Confidence, 1e-9)
	assert.Empty(t, p.ObjectionsRaised)
	assert.Empty(t, p.PositiveReactions)
}

func TestUpdateProfileObjectionsAndReactions(t *testing.T) {
	long := strings.Repeat("é", 150)
	p := UpdateProfile(newProfile(), ProfileSignals{Message: long, Intent: models.IntentCounterOffer, Emotion: models.EmotionExcited})

	if assert.Len(t, p.ObjectionsRaised, 1) {
		assert.Equal(t, 100, len([]rune(p.ObjectionsRaised[0])))
	}
	if assert.Len(t, p.PositiveReactions, 1) {
		assert.Equal(t, 50, len([]rune(p.PositiveReactions[0])))
	}
}

func TestUpdateProfileListsStayBounded(t *testing.T) {
	p := newProfile()
	for i := 0; i < 25; i++ {
		p = UpdateProfile(p, ProfileSignals{
			Message: fmt.Sprintf("non, %d c'est mon dernier mot", i),
			Intent:  models.IntentReject,
			Emotion: models.EmotionSatisfied,
		})
	}
	assert.Len(t, p.ObjectionsRaised, 10)
	assert.Len(t, p.PositiveReactions, 10)
	assert.InDelta(t, 0.95, p.Confidence, 1e-9)
}

func TestUpdateProfileDoesNotAliasInput(t *testing.T) {
	before := newProfile()
	before.MentionedConcerns = make([]string, 1, 10)
	before.MentionedConcerns[0] = "fuel economy"

	after := UpdateProfile(before, ProfileSignals{Message: "budget serré"})
	assert.Len(t, before.MentionedConcerns, 1)
	assert.Equal(t, []string{"fuel economy", "budget constraint"}, after.MentionedConcerns)
}

func TestUpdateProfileBudgetAndPriorities(t *testing.T) {
	p := UpdateProfile(newProfile(), ProfileSignals{
		NeedFlags: map[string]bool{"family": true, "economic": true, "sport": false},
		Budget:    3200,
	})
	assert.Equal(t, 3200.0, p.InferredBudget)
	assert.Equal(t, []string{"fuel_economy", "space"}, p.Priorities)
	assert.Equal(t, "Budget", p.Segment)
}

func TestDetectPaymentPreference(t *testing.T) {
	assert.Equal(t, models.PaymentCash, DetectPaymentPreference("Je paie comptant"))
	assert.Equal(t, models.PaymentCash, DetectPaymentPreference("I'd rather pay CASH"))
	assert.Equal(t, models.PaymentCredit, DetectPaymentPreference("Quel financement proposez-vous ?"))
	assert.Equal(t, models.PaymentUnset, DetectPaymentPreference("Bonjour"))
}
