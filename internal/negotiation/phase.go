package negotiation

import (
	"strings"

	"github.com/Ananth-NQI/carnego-backend/internal/models"
)

// priceKeywords are the price-inquiry words that pull a conversation into negotiation
var priceKeywords = []string{
	"prix", "combien", "mensualité", "mensualite", "tarif",
	"price", "cost", "how much", "monthly",
	"chhal", "bchhal", "ch7al",
}

// phaseOrder ranks phases; the machine only ever advances along it
var phaseOrder = map[models.Phase]int{
	models.PhaseDiscovery:   0,
	models.PhaseNegotiation: 1,
	models.PhaseClosing:     2,
}

// allowedRegressions lists the manual backward moves a caller may request
var allowedRegressions = map[models.Phase][]models.Phase{
	models.PhaseNegotiation: {models.PhaseDiscovery},
}

// PhaseInput is what the phase machine looks at for one turn
type PhaseInput struct {
	Current models.Phase
	Intent  models.Intent
	Message string
	Round   int
}

// NextPhase evaluates the transition rules in order; the first match wins.
//
//  1. Accept or Reject            -> Closing
//  2. CounterOffer/BudgetMention  -> Negotiation
//  3. price-inquiry keyword       -> Negotiation
//  4. Discovery and (round >= 2 or VehicleInterest) -> Negotiation
//  5. otherwise stay
//
// Closing is absorbing and a result never ranks below the current phase.
func NextPhase(in PhaseInput) models.Phase {
	current := in.Current
	if _, ok := phaseOrder[current]; !ok {
		current = models.PhaseDiscovery
	}
	if current == models.PhaseClosing {
		return models.PhaseClosing
	}

	next := current
	switch {
	case in.Intent.IsFinal():
		next = models.PhaseClosing
	case in.Intent.IsPriceFocused():
		next = models.PhaseNegotiation
	case MentionsPrice(in.Message):
		next = models.PhaseNegotiation
	case current == models.PhaseDiscovery && (in.Round >= 2 || in.Intent == models.IntentVehicleInterest):
		next = models.PhaseNegotiation
	}

	if phaseOrder[next] < phaseOrder[current] {
		return current
	}
	return next
}

// MentionsPrice reports whether a message asks about price
func MentionsPrice(message string) bool {
	if message == "" {
		return false
	}
	lower := strings.ToLower(message)
	for _, kw := range priceKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// CanRegress reports whether a manual backward move is allowed
func CanRegress(from, to models.Phase) bool {
	for _, target := range allowedRegressions[from] {
		if target == to {
			return true
		}
	}
	return false
}

// DiscoveryReadiness scores 0..1 how much we know about the customer
func DiscoveryReadiness(s *models.NegotiationSession) float64 {
	score := 0.0
	needs := 0
	for _, v := range s.Needs.Flags {
		if v {
			needs++
		}
	}
	score += minf(float64(needs)*0.15, 0.5)
	score += minf(float64(s.RoundNumber)*0.1, 0.3)
	if s.Needs.StatedBudget > 0 {
		score += 0.2
	}
	return minf(score, 1.0)
}
