package models

import "strings"

// Intent is the structured intent code supplied by the upstream classifier
type Intent string

const (
	IntentGreeting           Intent = "greeting"
	IntentInquiry            Intent = "inquiry"
	IntentBudgetMention      Intent = "budget_mention"
	IntentVehicleInterest    Intent = "vehicle_interest"
	IntentCounterOffer       Intent = "counter_offer"
	IntentAccept             Intent = "accept"
	IntentReject             Intent = "reject"
	IntentRequestInfo        Intent = "request_info"
	IntentExpressConcern     Intent = "express_concern"
	IntentRequestAlternative Intent = "request_alternative"
)

// intentAliases maps classifier labels that have no dedicated code onto the closest one
var intentAliases = map[string]Intent{
	"price_objection":   IntentBudgetMention,
	"vehicle_rejection": IntentRequestAlternative,
	"question":          IntentRequestInfo,
	"share_needs":       IntentVehicleInterest,
	"hesitation":        IntentExpressConcern,
	"unclear":           IntentInquiry,
}

// ParseIntent normalizes a caller-supplied intent code. Unknown codes become Inquiry.
func ParseIntent(raw string) Intent {
	code := strings.ToLower(strings.TrimSpace(raw))
	switch Intent(code) {
	case IntentGreeting, IntentInquiry, IntentBudgetMention, IntentVehicleInterest,
		IntentCounterOffer, IntentAccept, IntentReject, IntentRequestInfo,
		IntentExpressConcern, IntentRequestAlternative:
		return Intent(code)
	}
	if alias, ok := intentAliases[code]; ok {
		return alias
	}
	return IntentInquiry
}

// IsPriceFocused reports whether the intent is about the price itself
func (i Intent) IsPriceFocused() bool {
	return i == IntentCounterOffer || i == IntentBudgetMention
}

// IsFinal reports whether the intent is an accept/reject signal
func (i Intent) IsFinal() bool {
	return i == IntentAccept || i == IntentReject
}

// Emotion is the primary emotion supplied by the upstream classifier
type Emotion string

const (
	EmotionNeutral        Emotion = "neutral"
	EmotionHappy          Emotion = "happy"
	EmotionFrustrated     Emotion = "frustrated"
	EmotionExcited        Emotion = "excited"
	EmotionWorried        Emotion = "worried"
	EmotionBudgetStressed Emotion = "budget_stressed"
	EmotionConfused       Emotion = "confused"
	EmotionSatisfied      Emotion = "satisfied"
	EmotionStressed       Emotion = "stressed"
	EmotionAngry          Emotion = "angry"
)

// ParseEmotion normalizes a caller-supplied emotion code. Unknown codes become Neutral.
func ParseEmotion(raw string) Emotion {
	code := Emotion(strings.ToLower(strings.TrimSpace(raw)))
	switch code {
	case EmotionNeutral, EmotionHappy, EmotionFrustrated, EmotionExcited, EmotionWorried,
		EmotionBudgetStressed, EmotionConfused, EmotionSatisfied, EmotionStressed, EmotionAngry:
		return code
	}
	return EmotionNeutral
}

// IsDistressed reports whether the emotion calls for an empathetic approach
func (e Emotion) IsDistressed() bool {
	switch e {
	case EmotionFrustrated, EmotionStressed, EmotionAngry, EmotionWorried:
		return true
	}
	return false
}

// IsBudgetFocused reports whether the emotion itself is about money
func (e Emotion) IsBudgetFocused() bool {
	return strings.Contains(string(e), "budget")
}

// IsPositive reports whether the emotion counts as a positive reaction
func (e Emotion) IsPositive() bool {
	return e == EmotionHappy || e == EmotionExcited || e == EmotionSatisfied
}
