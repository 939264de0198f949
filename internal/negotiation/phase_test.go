package negotiation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Ananth-NQI/carnego-backend/internal/models"
)

func TestNextPhase(t *testing.T) {
	tests := []struct {
		name string
		in   PhaseInput
		want models.Phase
	}{
		{"accept closes", PhaseInput{Current: models.PhaseDiscovery, Intent: models.IntentAccept}, models.PhaseClosing},
		{"reject closes", PhaseInput{Current: models.PhaseNegotiation, Intent: models.IntentReject}, models.PhaseClosing},
		{"counter offer negotiates", PhaseInput{Current: models.PhaseDiscovery, Intent: models.IntentCounterOffer}, models.PhaseNegotiation},
		{"budget negotiates", PhaseInput{Current: models.PhaseDiscovery, Intent: models.IntentBudgetMention}, models.PhaseNegotiation},
		{"price keyword", PhaseInput{Current: models.PhaseDiscovery, Intent: models.IntentRequestInfo, Message: "C'est combien par mois ?"}, models.PhaseNegotiation},
		{"darija keyword", PhaseInput{Current: models.PhaseDiscovery, Intent: models.IntentInquiry, Message: "bchhal had tomobil"}, models.PhaseNegotiation},
		{"vehicle interest", PhaseInput{Current: models.PhaseDiscovery, Intent: models.IntentVehicleInterest, Round: 1}, models.PhaseNegotiation},
		{"second round", PhaseInput{Current: models.PhaseDiscovery, Intent: models.IntentGreeting, Round: 2}, models.PhaseNegotiation},
		{"first round stays", PhaseInput{Current: models.PhaseDiscovery, Intent: models.IntentGreeting, Round: 1}, models.PhaseDiscovery},
		{"negotiation stays", PhaseInput{Current: models.PhaseNegotiation, Intent: models.IntentRequestInfo, Round: 5}, models.PhaseNegotiation},
		{"closing is absorbing", PhaseInput{Current: models.PhaseClosing, Intent: models.IntentGreeting}, models.PhaseClosing},
		{"closing ignores price talk", PhaseInput{Current: models.PhaseClosing, Intent: models.IntentCounterOffer}, models.PhaseClosing},
		{"unknown phase restarts", PhaseInput{Current: "greeting", Intent: models.IntentGreeting}, models.PhaseDiscovery},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextPhase(tt.in))
		})
	}
}

func TestNextPhaseNeverMovesBackward(t *testing.T) {
	phases := []models.Phase{models.PhaseDiscovery, models.PhaseNegotiation, models.PhaseClosing}
	for _, cur := range phases {
		for _, intent := range allIntents {
			for round := 0; round < 4; round++ {
				got := NextPhase(PhaseInput{Current: cur, Intent: intent, Round: round})
				assert.GreaterOrEqual(t, phaseOrder[got], phaseOrder[cur], "from %s with %s", cur, intent)
			}
		}
	}
}

func TestCanRegress(t *testing.T) {
	assert.True(t, CanRegress(models.PhaseNegotiation, models.PhaseDiscovery))
	assert.False(t, CanRegress(models.PhaseClosing, models.PhaseNegotiation))
	assert.False(t, CanRegress(models.PhaseDiscovery, models.PhaseClosing))
}

func TestDiscoveryReadiness(t *testing.T) {
	s := models.NewNegotiationSession("s", "c", fixedNow)
	assert.Zero(t, DiscoveryReadiness(s))

	s.Needs.Flags = map[string]bool{"family": true, "suv": true, "used": false}
	s.RoundNumber = 2
	s.Needs.StatedBudget = 3000
	// 2 needs * 0.15 + 2 rounds * 0.1 + budget 0.2
	assert.InDelta(t, 0.7, DiscoveryReadiness(s), 1e-9)

	s.Needs.Flags = map[string]bool{"a": true, "b": true, "c": true, "d": true, "e": true}
	s.RoundNumber = 10
	assert.InDelta(t, 1.0, DiscoveryReadiness(s), 1e-9)
}
