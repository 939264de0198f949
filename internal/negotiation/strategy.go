package negotiation

import "github.com/Ananth-NQI/carnego-backend/internal/models"

// StrategyKind names one of the three concession policies
type StrategyKind string

const (
	StrategyValueBased StrategyKind = "value_based"
	StrategyCostPlus   StrategyKind = "cost_plus"
	StrategyEmpathetic StrategyKind = "empathetic"
)

// IntentCategory groups intents for strategy lookup
type IntentCategory int

const (
	IntentOther IntentCategory = iota
	IntentPriceFocused
)

// EmotionCategory groups emotions for strategy lookup
type EmotionCategory int

const (
	EmotionCalm EmotionCategory = iota
	EmotionBudgetFocused
	EmotionDistressed
)

type strategyKey struct {
	intent  IntentCategory
	emotion EmotionCategory
}

// strategyTable is the complete (intent, emotion) -> strategy mapping.
// A distressed customer always gets the empathetic policy, even when talking price.
var strategyTable = map[strategyKey]StrategyKind{
	{IntentOther, EmotionCalm}:                 StrategyValueBased,
	{IntentOther, EmotionBudgetFocused}:        StrategyCostPlus,
	{IntentOther, EmotionDistressed}:           StrategyEmpathetic,
	{IntentPriceFocused, EmotionCalm}:          StrategyCostPlus,
	{IntentPriceFocused, EmotionBudgetFocused}: StrategyCostPlus,
	{IntentPriceFocused, EmotionDistressed}:    StrategyEmpathetic,
}

// CategorizeIntent maps an intent to its lookup category
func CategorizeIntent(i models.Intent) IntentCategory {
	if i.IsPriceFocused() {
		return IntentPriceFocused
	}
	return IntentOther
}

// CategorizeEmotion maps an emotion to its lookup category
func CategorizeEmotion(e models.Emotion) EmotionCategory {
	switch {
	case e.IsDistressed():
		return EmotionDistressed
	case e.IsBudgetFocused():
		return EmotionBudgetFocused
	}
	return EmotionCalm
}

// SelectStrategy picks the concession policy for a turn. It has no side effects.
func SelectStrategy(intent models.Intent, emotion models.Emotion) Strategy {
	kind, ok := strategyTable[strategyKey{CategorizeIntent(intent), CategorizeEmotion(emotion)}]
	if !ok {
		kind = StrategyValueBased
	}
	return StrategyFor(kind)
}

// StrategyFor returns the strategy implementation for a kind
func StrategyFor(kind StrategyKind) Strategy {
	switch kind {
	case StrategyCostPlus:
		return costPlus{}
	case StrategyEmpathetic:
		return empathetic{}
	}
	return valueBased{}
}

// MoveInput is what a strategy needs to size its concession, in monthly terms
type MoveInput struct {
	CurrentMonthly float64
	FloorMonthly   float64
	Aggression     float64
	Sentiment      float64
	Market         MarketContext
	Policy         Policy
}

// Move is a strategy's proposed concession plus framing hints for the response layer
type Move struct {
	Strategy   StrategyKind `json:"strategy"`
	Concession float64      `json:"concession"` // monthly payment reduction, never negative
	Aggression float64      `json:"aggression"`
	Tone       string       `json:"tone"`
	Tactics    []string     `json:"tactics"`
}

// Strategy is the closed set of concession policies
type Strategy interface {
	Kind() StrategyKind
	NextMove(in MoveInput) Move
	sealed()
}

type valueBased struct{}

func (valueBased) Kind() StrategyKind { return StrategyValueBased }
func (valueBased) sealed()            {}

// NextMove holds price and frames value (service bundle, accessories) instead
func (valueBased) NextMove(in MoveInput) Move {
	return Move{
		Strategy: StrategyValueBased,
		Tone:     "confident_but_generous",
		Tactics:  []string{"value_framing", "service_bundling"},
	}
}

type costPlus struct{}

func (costPlus) Kind() StrategyKind { return StrategyCostPlus }
func (costPlus) sealed()            {}

// NextMove concedes a share of the room left above the floor
func (costPlus) NextMove(in MoveInput) Move {
	aggr := in.Aggression
	if in.Market.EndOfQuarter {
		aggr += in.Policy.QuarterEndBoost
	}
	if in.Sentiment < in.Policy.CostPlusSentimentCutoff {
		aggr += in.Policy.CostPlusSentimentBoost
	}
	aggr = clamp(aggr, in.Policy.CostPlusMinAggression, in.Policy.CostPlusMaxAggression)

	room := maxf(0, in.CurrentMonthly-in.FloorMonthly)
	return Move{
		Strategy:   StrategyCostPlus,
		Concession: room * aggr,
		Aggression: aggr,
		Tone:       "cooperative",
		Tactics:    []string{"reciprocity", "anchoring"},
	}
}

type empathetic struct{}

func (empathetic) Kind() StrategyKind { return StrategyEmpathetic }
func (empathetic) sealed()            {}

// NextMove concedes a flat share of the room left above the floor
func (empathetic) NextMove(in MoveInput) Move {
	room := maxf(0, in.CurrentMonthly-in.FloorMonthly)
	return Move{
		Strategy:   StrategyEmpathetic,
		Concession: room * in.Policy.EmpatheticShare,
		Aggression: in.Policy.EmpatheticShare,
		Tone:       "empathetic_and_supportive",
		Tactics:    []string{"active_listening", "flexibility_showcase"},
	}
}
