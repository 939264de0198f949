package negotiation

import (
	"math"

	"github.com/Ananth-NQI/carnego-backend/internal/models"
)

// ReasonCode is the decision behind a turn, phrased later by the response layer
type ReasonCode string

const (
	ReasonMeetingCustomerPrice ReasonCode = "meeting_customer_price"
	ReasonBelowFloorCounter    ReasonCode = "below_floor_counter"
	ReasonAtFloorFirm          ReasonCode = "at_floor_firm"
	ReasonSymbolicGoodwill     ReasonCode = "symbolic_goodwill"
	ReasonAutoAccepted         ReasonCode = "auto_accepted"
	ReasonValueFraming         ReasonCode = "value_framing"
	ReasonCostPlusConcession   ReasonCode = "cost_plus_concession"
	ReasonEmpatheticConcession ReasonCode = "empathetic_concession"
	ReasonLastChanceOffer      ReasonCode = "last_chance_offer"
	ReasonDealAccepted         ReasonCode = "deal_accepted"
	ReasonDealRejected         ReasonCode = "deal_rejected"
	ReasonSessionClosed        ReasonCode = "session_closed"
	ReasonNoPricingContext     ReasonCode = "no_pricing_context"
	ReasonInformationOnly      ReasonCode = "information_only"
	ReasonAlternativeRequested ReasonCode = "alternative_requested"
)

// Flag marks a guard that fired while computing an offer
type Flag string

const (
	FlagFrustrationBoost       Flag = "frustration_boost_applied"
	FlagCustomerDrivenIncrease Flag = "customer_driven_increase"
	FlagFloorClamped           Flag = "floor_clamped"
	FlagStepCapped             Flag = "step_capped"
	FlagRegressionBlocked      Flag = "price_regression_blocked"
	FlagMinimumStep            Flag = "minimum_step_applied"
)

// ConcessionInput is everything the pricing engine looks at for one turn
type ConcessionInput struct {
	Current       models.Offer
	LastRecorded  *float64 // last recorded price, nil before the first offer
	Intent        models.Intent
	Emotion       models.Emotion
	Sentiment     float64
	Round         int
	DealerCost    float64
	VehiclePrice  float64
	TradeInValue  float64
	ProposedPrice *float64
	Frustration   int
	Preference    models.PaymentPreference
	Market        MarketContext
	Strategy      Strategy // nil selects from intent and emotion
}

// ConcessionResult is the priced decision for one turn. Offer is nil when the dealer holds.
type ConcessionResult struct {
	Offer               *models.Offer `json:"offer"`
	Reason              ReasonCode    `json:"reason"`
	Move                Move          `json:"move"`
	Aggression          float64       `json:"aggression"`
	Floor               float64       `json:"floor"`
	FloorMonthly        float64       `json:"floor_monthly"`
	CashMode            bool          `json:"cash_mode"`
	SuggestAlternatives bool          `json:"suggest_alternatives"`
	Flags               []Flag        `json:"flags,omitempty"`
}

// Has reports whether a guard fired
func (r ConcessionResult) Has(f Flag) bool {
	for _, x := range r.Flags {
		if x == f {
			return true
		}
	}
	return false
}

func (r *ConcessionResult) flag(f Flag) {
	if !r.Has(f) {
		r.Flags = append(r.Flags, f)
	}
}

// FloorPrice is the lowest total price the dealer may accept.
// A trade-in lowers it by a share of its value, but never below cost.
func (p Policy) FloorPrice(cost, tradeIn float64) float64 {
	floor := cost * (1 + p.MinMarginRate)
	if tradeIn > 0 {
		floor -= tradeIn * p.TradeInFloorShare
	}
	return maxf(floor, cost)
}

// FinancingFactor is the total repaid per unit of principal over the duration
func (p Policy) FinancingFactor(duration int, cash bool) float64 {
	if cash || p.AnnualInterestRate <= 0 || duration <= 0 {
		return 1
	}
	r := p.AnnualInterestRate / 12
	n := float64(duration)
	return n * r / (1 - math.Pow(1+r, -n))
}

// MonthlyFor converts a total price into a monthly payment.
// Financed offers credit part of the trade-in against the principal and amortize the rest.
func (p Policy) MonthlyFor(price, tradeIn float64, duration int, cash bool) float64 {
	if duration <= 0 {
		duration = p.DefaultDuration
	}
	if cash {
		return price / float64(duration)
	}
	principal := maxf(0, price-tradeIn*p.InitialTradeInShare)
	return principal * p.FinancingFactor(duration, false) / float64(duration)
}

// IsCashMode reports whether an offer looks like a lump-sum deal.
// The price/monthly comparison is a heuristic and can misfire when a financed
// offer happens to line up numerically.
func (p Policy) IsCashMode(o models.Offer, pref models.PaymentPreference) bool {
	if pref == models.PaymentCash {
		return true
	}
	if pref == models.PaymentCredit || o.Monthly <= 0 || o.Duration <= 0 || o.Price <= 0 {
		return false
	}
	return math.Abs(o.Price-o.Monthly*float64(o.Duration))/o.Price < p.CashTolerance
}

// Aggression is the share of the remaining room the dealer is willing to give this turn
func (p Policy) Aggression(intent models.Intent, sentiment float64, round int) float64 {
	roundFactor := 1.0
	if p.RoundsToFullAggr > 0 {
		roundFactor = minf(1, float64(round)/p.RoundsToFullAggr)
	}
	aggr := p.BaseAggression + p.RoundAggression*roundFactor
	switch intent {
	case models.IntentCounterOffer:
		aggr += p.CounterOfferBoost
	case models.IntentBudgetMention:
		aggr += p.BudgetMentionBoost
	case models.IntentReject:
		aggr += p.RejectBoost
	}
	if sentiment < p.LowSentimentThreshold {
		aggr += p.LowSentimentBoost
	}
	return minf(aggr, p.MaxAggression)
}

// Concede computes the next offer. The steps run in a fixed order:
// auto-accept, strategy, proposed-price convergence, step cap, minimum step,
// frustration boost, floor clamp, non-regression.
func (p Policy) Concede(in ConcessionInput) ConcessionResult {
	dur := in.Current.Duration
	if dur <= 0 {
		dur = p.DefaultDuration
	}
	vehiclePrice := in.VehiclePrice
	if vehiclePrice <= 0 {
		vehiclePrice = in.Current.VehiclePrice
	}
	price := in.Current.Price
	if price <= 0 {
		price = vehiclePrice
	}
	if vehiclePrice <= 0 {
		vehiclePrice = price
	}
	if price <= 0 {
		return ConcessionResult{Reason: ReasonNoPricingContext}
	}
	cost := in.DealerCost
	if cost <= 0 {
		cost = vehiclePrice * p.FallbackCostRatio
	}

	floor := p.FloorPrice(cost, in.TradeInValue)
	cur := in.Current
	cur.Duration = dur
	cur.Price = price
	cash := p.IsCashMode(cur, in.Preference)
	k := p.FinancingFactor(dur, cash) / float64(dur)

	res := ConcessionResult{Floor: floor, FloorMonthly: floor * k, CashMode: cash}

	ceiling := price
	if in.LastRecorded != nil && *in.LastRecorded > 0 && *in.LastRecorded < ceiling {
		ceiling = *in.LastRecorded
	}

	proposed := 0.0
	if in.ProposedPrice != nil && *in.ProposedPrice > 0 {
		proposed = *in.ProposedPrice
	}

	if proposed >= floor && proposed > 0 && (proposed >= price || (price-proposed)/price <= p.AutoAcceptTolerance) {
		return p.autoAccept(res, in, proposed, ceiling, cash)
	}

	alternativesAt := floor * (1 + p.AlternativesBand)
	if price <= alternativesAt {
		res.Reason = ReasonAtFloorFirm
		res.SuggestAlternatives = true
		return res
	}

	res.Aggression = p.Aggression(in.Intent, in.Sentiment, in.Round)
	strategy := in.Strategy
	if strategy == nil {
		strategy = SelectStrategy(in.Intent, in.Emotion)
	}
	res.Move = strategy.NextMove(MoveInput{
		CurrentMonthly: price * k,
		FloorMonthly:   floor * k,
		Aggression:     res.Aggression,
		Sentiment:      in.Sentiment,
		Market:         in.Market,
		Policy:         p,
	})
	if res.Move.Concession < 0 {
		res.Move.Concession = 0
	}
	cut := res.Move.Concession / k
	res.Reason = reasonForStrategy(strategy.Kind())

	if proposed > 0 {
		if proposed >= floor {
			if gap := price - proposed; gap > 0 {
				share := p.MeetBaseShare + minf(p.MeetMaxExtraShare, (proposed-floor)/floor*p.MeetMarginWeight)
				cut = gap * share
				res.Reason = ReasonMeetingCustomerPrice
			}
		} else if gap := price - floor; gap > 0 {
			cut = gap * p.BelowFloorGapShare
			res.Reason = ReasonBelowFloorCounter
		}
	}

	stepShare := p.DefaultStepCap
	if in.Intent == models.IntentCounterOffer {
		stepShare = p.CounterOfferStepCap
	}
	if maxCut := vehiclePrice * stepShare; cut > maxCut {
		cut = maxCut
		res.flag(FlagStepCapped)
	}

	boosted := in.Frustration >= p.FrustrationThreshold
	if cut <= 0 {
		if strategy.Kind() == StrategyValueBased && !boosted {
			res.Reason = ReasonValueFraming
			return res
		}
		if !boosted {
			cut = p.MinVisibleStep
			res.Reason = ReasonSymbolicGoodwill
		}
	}
	if cut > 0 && cut < p.MinVisibleStep {
		cut = p.MinVisibleStep
		res.flag(FlagMinimumStep)
	}

	newPrice := price - cut
	if boosted {
		newPrice -= newPrice * float64(in.Frustration) * p.FrustrationRate * p.FrustrationPriceRate
		res.flag(FlagFrustrationBoost)
	}

	if newPrice > ceiling {
		newPrice = ceiling
		res.flag(FlagRegressionBlocked)
	}
	if newPrice < floor {
		newPrice = floor
		res.flag(FlagFloorClamped)
	}

	newPrice = roundPrice(newPrice, floor)
	if newPrice >= price && newPrice >= ceiling {
		res.Reason = ReasonAtFloorFirm
		res.SuggestAlternatives = true
		return res
	}

	monthly := p.nextMonthly(in, price, newPrice, dur, k, cash)
	res.Offer = &models.Offer{
		Monthly:             monthly,
		Duration:            dur,
		DownPayment:         in.Current.DownPayment,
		Price:               newPrice,
		VehiclePrice:        vehiclePrice,
		SuggestAlternatives: newPrice <= alternativesAt,
	}
	res.SuggestAlternatives = res.Offer.SuggestAlternatives
	return res
}

func (p Policy) autoAccept(res ConcessionResult, in ConcessionInput, proposed, ceiling float64, cash bool) ConcessionResult {
	dur := p.AutoAcceptDuration
	price := roundPrice(proposed, res.Floor)
	if price > ceiling {
		res.flag(FlagCustomerDrivenIncrease)
	}
	vehiclePrice := in.VehiclePrice
	if vehiclePrice <= 0 {
		vehiclePrice = in.Current.VehiclePrice
	}
	res.Reason = ReasonAutoAccepted
	res.Offer = &models.Offer{
		Monthly:             roundTo(p.MonthlyFor(price, in.TradeInValue, dur, cash), 2),
		Duration:            dur,
		DownPayment:         in.Current.DownPayment,
		Price:               price,
		VehiclePrice:        vehiclePrice,
		SuggestAlternatives: price <= res.Floor*(1+p.AlternativesBand),
	}
	res.SuggestAlternatives = res.Offer.SuggestAlternatives
	return res
}

// nextMonthly moves the monthly payment by the same amount the price moved.
// Cash deals keep monthly as a plain split of the price.
func (p Policy) nextMonthly(in ConcessionInput, price, newPrice float64, dur int, k float64, cash bool) float64 {
	if cash {
		return roundTo(newPrice/float64(dur), 2)
	}
	monthly := in.Current.Monthly - (price-newPrice)*k
	if in.Current.Monthly <= 0 || monthly <= 0 {
		return roundTo(p.MonthlyFor(newPrice, in.TradeInValue, dur, false), 2)
	}
	return roundTo(monthly, 2)
}

// minPlausibleMonthlyShare is the smallest fraction of the amortized payment
// a caller-supplied monthly may be before it is replaced.
const minPlausibleMonthlyShare = 0.5

// PlausibleMonthly reports whether monthly can belong to a deal at price.
// The bound is half of the smaller of the cash split and the amortized payment.
func (p Policy) PlausibleMonthly(monthly, price, tradeIn float64, duration int) bool {
	if monthly <= 0 || price <= 0 {
		return false
	}
	if duration <= 0 {
		duration = p.DefaultDuration
	}
	cash := price / float64(duration)
	financed := p.MonthlyFor(price, tradeIn, duration, false)
	return monthly >= minf(cash, financed)*minPlausibleMonthlyShare
}

// roundPrice rounds to whole currency units without crossing the floor
func roundPrice(v, floor float64) float64 {
	r := math.Round(v)
	if r < floor {
		r = math.Ceil(floor)
	}
	return r
}

func reasonForStrategy(kind StrategyKind) ReasonCode {
	switch kind {
	case StrategyCostPlus:
		return ReasonCostPlusConcession
	case StrategyEmpathetic:
		return ReasonEmpatheticConcession
	}
	return ReasonValueFraming
}
