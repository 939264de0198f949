package negotiation

import (
	"sort"
	"strings"

	"github.com/Ananth-NQI/carnego-backend/internal/models"
)

const (
	maxProfileEntries = 10
	objectionChars    = 100
	reactionChars     = 50
	confidenceStep    = 0.05
	maxConfidence     = 0.95
)

// concernKeywords maps message keywords to the concern they reveal
var concernKeywords = []struct {
	keyword string
	concern string
}{
	{"cher", "price concern"},
	{"expensive", "price concern"},
	{"budget", "budget constraint"},
	{"famille", "family needs"},
	{"family", "family needs"},
	{"sécurité", "safety priority"},
	{"safety", "safety priority"},
	{"consommation", "fuel economy"},
	{"fuel", "fuel economy"},
	{"fiabilité", "reliability concern"},
	{"reliab", "reliability concern"},
	{"garantie", "warranty interest"},
	{"warranty", "warranty interest"},
}

var (
	highSensitivityWords = []string{"trop cher", "dépasse", "budget serré", "too expensive", "tight budget"}
	lowSensitivityWords  = []string{"qualité", "meilleur", "premium", "quality", "best"}

	cashWords   = []string{"cash", "comptant", "une fois", "payer tout", "lump sum", "pay in full"}
	creditWords = []string{"mensuel", "crédit", "credit", "financement", "monthly", "loan"}
)

// priorityForNeed turns a need flag into a profile priority
var priorityForNeed = map[string]string{
	"family":   "space",
	"suv":      "space",
	"economic": "fuel_economy",
	"sport":    "performance",
	"new":      "condition",
	"used":     "price",
	"budget":   "price",
}

// ProfileSignals is what one customer turn tells us about the customer
type ProfileSignals struct {
	Message   string
	Emotion   models.Emotion
	Intent    models.Intent
	NeedFlags map[string]bool
	Budget    float64
}

// UpdateProfile folds one turn into the profile and returns the new profile.
// Every list stays bounded and confidence only grows, up to its cap.
func UpdateProfile(p models.CustomerProfile, sig ProfileSignals) models.CustomerProfile {
	next := p
	next.MentionedConcerns = cloneStrings(p.MentionedConcerns)
	next.ObjectionsRaised = cloneStrings(p.ObjectionsRaised)
	next.PositiveReactions = cloneStrings(p.PositiveReactions)
	next.Priorities = cloneStrings(p.Priorities)

	lower := strings.ToLower(sig.Message)
	for _, ck := range concernKeywords {
		if strings.Contains(lower, ck.keyword) {
			next.MentionedConcerns = appendUnique(next.MentionedConcerns, ck.concern)
		}
	}

	switch {
	case containsAny(lower, highSensitivityWords):
		next.PriceSensitivity = "High"
	case containsAny(lower, lowSensitivityWords):
		next.PriceSensitivity = "Low"
	}

	if (sig.Intent == models.IntentCounterOffer || sig.Intent == models.IntentReject) && sig.Message != "" {
		next.ObjectionsRaised = appendBounded(next.ObjectionsRaised, truncate(sig.Message, objectionChars))
	}
	if sig.Emotion.IsPositive() && sig.Message != "" {
		next.PositiveReactions = appendBounded(next.PositiveReactions, truncate(sig.Message, reactionChars))
	}

	needs := make([]string, 0, len(sig.NeedFlags))
	for need, on := range sig.NeedFlags {
		if on {
			needs = append(needs, need)
		}
	}
	sort.Strings(needs)
	for _, need := range needs {
		if prio, ok := priorityForNeed[need]; ok {
			next.Priorities = appendUnique(next.Priorities, prio)
		}
	}

	if sig.Budget > 0 {
		next.InferredBudget = sig.Budget
		if next.PriceSensitivity == "Medium" {
			next.Segment = "Budget"
		}
	}
	if next.Segment == "" || next.Segment == "Unknown" {
		switch {
		case sig.NeedFlags["family"]:
			next.Segment = "Family"
		case next.PriceSensitivity == "Low":
			next.Segment = "Premium"
		}
	}

	next.Confidence = minf(maxConfidence, p.Confidence+confidenceStep)
	return next
}

// DetectPaymentPreference reads a cash or credit preference from a message
func DetectPaymentPreference(message string) models.PaymentPreference {
	lower := strings.ToLower(message)
	switch {
	case containsAny(lower, cashWords):
		return models.PaymentCash
	case containsAny(lower, creditWords):
		return models.PaymentCredit
	}
	return models.PaymentUnset
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func appendUnique(list []string, v string) []string {
	for _, x := range list {
		if x == v {
			return list
		}
	}
	return appendBounded(list, v)
}

func appendBounded(list []string, v string) []string {
	if len(list) >= maxProfileEntries {
		return list
	}
	return append(list, v)
}

// truncate cuts to n runes so multi-byte text is never split
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}
