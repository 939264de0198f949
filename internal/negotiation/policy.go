package negotiation

import (
	"errors"
	"fmt"
)

// ErrInvalidPolicy is returned when a pricing policy has out-of-range values
var ErrInvalidPolicy = errors.New("invalid pricing policy")

// Policy holds every tunable constant of the pricing engine
type Policy struct {
	MinMarginRate     float64 `yaml:"min_margin_rate" json:"min_margin_rate"`           // floor = cost * (1 + rate)
	TradeInFloorShare float64 `yaml:"trade_in_floor_share" json:"trade_in_floor_share"` // floor relief per unit of trade-in
	FallbackCostRatio float64 `yaml:"fallback_cost_ratio" json:"fallback_cost_ratio"`   // cost = price * ratio when unknown
	TradeInCapRatio   float64 `yaml:"trade_in_cap_ratio" json:"trade_in_cap_ratio"`
	DefaultDuration   int     `yaml:"default_duration" json:"default_duration"`

	AnnualInterestRate  float64 `yaml:"annual_interest_rate" json:"annual_interest_rate"`     // amortized over the offer duration
	InitialTradeInShare float64 `yaml:"initial_trade_in_share" json:"initial_trade_in_share"` // trade-in credited against the financed principal
	CashTolerance       float64 `yaml:"cash_tolerance" json:"cash_tolerance"`

	BaseAggression        float64 `yaml:"base_aggression" json:"base_aggression"`
	RoundAggression       float64 `yaml:"round_aggression" json:"round_aggression"`
	RoundsToFullAggr      float64 `yaml:"rounds_to_full_aggression" json:"rounds_to_full_aggression"`
	CounterOfferBoost     float64 `yaml:"counter_offer_boost" json:"counter_offer_boost"`
	BudgetMentionBoost    float64 `yaml:"budget_mention_boost" json:"budget_mention_boost"`
	LowSentimentBoost     float64 `yaml:"low_sentiment_boost" json:"low_sentiment_boost"`
	LowSentimentThreshold float64 `yaml:"low_sentiment_threshold" json:"low_sentiment_threshold"`
	RejectBoost           float64 `yaml:"reject_boost" json:"reject_boost"`
	MaxAggression         float64 `yaml:"max_aggression" json:"max_aggression"`

	EmpatheticShare         float64 `yaml:"empathetic_share" json:"empathetic_share"`
	CostPlusMinAggression   float64 `yaml:"cost_plus_min_aggression" json:"cost_plus_min_aggression"`
	CostPlusMaxAggression   float64 `yaml:"cost_plus_max_aggression" json:"cost_plus_max_aggression"`
	QuarterEndBoost         float64 `yaml:"quarter_end_boost" json:"quarter_end_boost"`
	CostPlusSentimentBoost  float64 `yaml:"cost_plus_sentiment_boost" json:"cost_plus_sentiment_boost"`
	CostPlusSentimentCutoff float64 `yaml:"cost_plus_sentiment_cutoff" json:"cost_plus_sentiment_cutoff"`

	MeetBaseShare       float64 `yaml:"meet_base_share" json:"meet_base_share"`
	MeetMaxExtraShare   float64 `yaml:"meet_max_extra_share" json:"meet_max_extra_share"`
	MeetMarginWeight    float64 `yaml:"meet_margin_weight" json:"meet_margin_weight"`
	BelowFloorGapShare  float64 `yaml:"below_floor_gap_share" json:"below_floor_gap_share"`
	CounterOfferStepCap float64 `yaml:"counter_offer_step_cap" json:"counter_offer_step_cap"`
	DefaultStepCap      float64 `yaml:"default_step_cap" json:"default_step_cap"`
	MinVisibleStep      float64 `yaml:"min_visible_step" json:"min_visible_step"` // total price units

	FrustrationThreshold int     `yaml:"frustration_threshold" json:"frustration_threshold"`
	FrustrationRate      float64 `yaml:"frustration_rate" json:"frustration_rate"`
	FrustrationPriceRate float64 `yaml:"frustration_price_rate" json:"frustration_price_rate"`
	FrustrationStep      int     `yaml:"frustration_step" json:"frustration_step"`
	FrustrationWindow    int     `yaml:"frustration_window" json:"frustration_window"`
	FrustrationRepeats   int     `yaml:"frustration_repeats" json:"frustration_repeats"`
	MaxFrustration       int     `yaml:"max_frustration" json:"max_frustration"`

	AutoAcceptTolerance float64 `yaml:"auto_accept_tolerance" json:"auto_accept_tolerance"`
	AutoAcceptDuration  int     `yaml:"auto_accept_duration" json:"auto_accept_duration"`
	AlternativesBand    float64 `yaml:"alternatives_band" json:"alternatives_band"`
}

// DefaultPolicy returns the production pricing constants
func DefaultPolicy() Policy {
	return Policy{
		MinMarginRate:     0.03,
		TradeInFloorShare: 0.05,
		FallbackCostRatio: 0.85,
		TradeInCapRatio:   0.60,
		DefaultDuration:   60,

		AnnualInterestRate:  0.055,
		InitialTradeInShare: 0.8,
		CashTolerance:       0.02,

		BaseAggression:        0.25,
		RoundAggression:       0.15,
		RoundsToFullAggr:      3,
		CounterOfferBoost:     0.15,
		BudgetMentionBoost:    0.12,
		LowSentimentBoost:     0.15,
		LowSentimentThreshold: 0.4,
		RejectBoost:           0.25,
		MaxAggression:         0.70,

		EmpatheticShare:         0.25,
		CostPlusMinAggression:   0.05,
		CostPlusMaxAggression:   0.40,
		QuarterEndBoost:         0.10,
		CostPlusSentimentBoost:  0.10,
		CostPlusSentimentCutoff: 0.3,

		MeetBaseShare:       0.5,
		MeetMaxExtraShare:   0.3,
		MeetMarginWeight:    0.5,
		BelowFloorGapShare:  0.4,
		CounterOfferStepCap: 0.03,
		DefaultStepCap:      0.025,
		MinVisibleStep:      200,

		FrustrationThreshold: 5,
		FrustrationRate:      0.05,
		FrustrationPriceRate: 0.01,
		FrustrationStep:      2,
		FrustrationWindow:    5,
		FrustrationRepeats:   3,
		MaxFrustration:       10,

		AutoAcceptTolerance: 0.02,
		AutoAcceptDuration:  60,
		AlternativesBand:    0.02,
	}
}

// Validate rejects policies that would break the floor or step guarantees
func (p Policy) Validate() error {
	checks := []struct {
		name string
		ok   bool
	}{
		{"min_margin_rate", p.MinMarginRate >= 0 && p.MinMarginRate < 1},
		{"trade_in_floor_share", p.TradeInFloorShare >= 0 && p.TradeInFloorShare < 1},
		{"fallback_cost_ratio", p.FallbackCostRatio > 0 && p.FallbackCostRatio <= 1},
		{"trade_in_cap_ratio", p.TradeInCapRatio > 0 && p.TradeInCapRatio <= 1},
		{"default_duration", p.DefaultDuration > 0},
		{"annual_interest_rate", p.AnnualInterestRate >= 0 && p.AnnualInterestRate < 1},
		{"cash_tolerance", p.CashTolerance >= 0 && p.CashTolerance < 1},
		{"max_aggression", p.MaxAggression > 0 && p.MaxAggression <= 1},
		{"cost_plus_aggression", p.CostPlusMinAggression >= 0 && p.CostPlusMinAggression <= p.CostPlusMaxAggression && p.CostPlusMaxAggression <= 1},
		{"empathetic_share", p.EmpatheticShare >= 0 && p.EmpatheticShare <= 1},
		{"meet_share", p.MeetBaseShare >= 0 && p.MeetMaxExtraShare >= 0 && p.MeetBaseShare+p.MeetMaxExtraShare <= 1},
		{"below_floor_gap_share", p.BelowFloorGapShare >= 0 && p.BelowFloorGapShare < 1},
		{"step_caps", p.CounterOfferStepCap > 0 && p.DefaultStepCap > 0},
		{"min_visible_step", p.MinVisibleStep >= 0},
		{"frustration", p.MaxFrustration > 0 && p.FrustrationStep >= 0 && p.FrustrationWindow > 0 && p.FrustrationRepeats > 0},
		{"auto_accept", p.AutoAcceptTolerance >= 0 && p.AutoAcceptDuration > 0},
		{"alternatives_band", p.AlternativesBand >= 0},
	}
	for _, c := range checks {
		if !c.ok {
			return fmt.Errorf("%w: %s out of range", ErrInvalidPolicy, c.name)
		}
	}
	return nil
}
