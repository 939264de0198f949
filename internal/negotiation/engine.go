package negotiation

import (
	"fmt"
	"time"

	"github.com/Ananth-NQI/carnego-backend/internal/models"
	"github.com/Ananth-NQI/carnego-backend/internal/utils"
)

// EmotionInput is the classifier's reading for one customer message
type EmotionInput struct {
	Primary   models.Emotion `json:"primary"`
	Sentiment float64        `json:"sentiment"` // -1..1
	Intensity float64        `json:"intensity"` // 0..1
}

// TurnInput is the structured signal set for one customer turn
type TurnInput struct {
	Intent            models.Intent            `json:"intent"`
	Emotion           EmotionInput             `json:"emotion"`
	ProposedPrice     *float64                 `json:"proposed_price,omitempty"`
	Needs             map[string]bool          `json:"needs,omitempty"`
	StatedBudget      float64                  `json:"stated_budget,omitempty"`
	Message           string                   `json:"message,omitempty"`
	CurrentOffer      *models.Offer            `json:"current_offer,omitempty"`
	PaymentPreference models.PaymentPreference `json:"payment_preference,omitempty"`
	Vehicle           *VehicleContext          `json:"vehicle,omitempty"`
	TradeIn           *TradeInContext          `json:"trade_in,omitempty"`
}

// Effects describes what a turn decided. The session returned alongside it holds the new state.
type Effects struct {
	Offer               *models.Offer        `json:"offer"`
	Reason              ReasonCode           `json:"reason"`
	Phase               models.Phase         `json:"phase"`
	PreviousPhase       models.Phase         `json:"previous_phase"`
	Status              models.SessionStatus `json:"status"`
	Round               int                  `json:"round"`
	Intent              models.Intent        `json:"intent"`
	FrustrationLevel    int                  `json:"frustration_level"`
	FrustrationRaised   bool                 `json:"frustration_raised"`
	Strategy            StrategyKind         `json:"strategy,omitempty"`
	Tone                string               `json:"tone,omitempty"`
	Tactics             []string             `json:"tactics,omitempty"`
	Aggression          float64              `json:"aggression"`
	Floor               float64              `json:"floor"`
	CashMode            bool                 `json:"cash_mode"`
	SuggestAlternatives bool                 `json:"suggest_alternatives"`
	Flags               []Flag               `json:"flags,omitempty"`
	TradeInCapped       bool                 `json:"trade_in_capped"`
	WinWin              *WinWinScore         `json:"win_win,omitempty"`
	Trend               TrendReport          `json:"trend"`
}

// Engine applies customer turns to sessions. It holds no session state and is safe for concurrent use.
type Engine struct {
	policy Policy
	clock  Clock
	newID  func(time.Time) string
}

// NewEngine validates the policy and builds an engine. A nil clock means the system clock.
func NewEngine(policy Policy, clock Clock, newID func(time.Time) string) (*Engine, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	if clock == nil {
		clock = RealClock{}
	}
	if newID == nil {
		newID = utils.NewRecordID
	}
	return &Engine{policy: policy, clock: clock, newID: newID}, nil
}

// WithPolicy returns a new engine sharing this engine's clock and id source
func (e *Engine) WithPolicy(policy Policy) (*Engine, error) {
	return NewEngine(policy, e.clock, e.newID)
}

// Policy returns the pricing policy the engine was built with
func (e *Engine) Policy() Policy {
	return e.policy
}

// Now returns the engine clock's time
func (e *Engine) Now() time.Time {
	return e.clock.Now()
}

// NewSession creates an empty session stamped with the engine clock
func (e *Engine) NewSession(sessionID, customerID string) *models.NegotiationSession {
	s := models.NewNegotiationSession(sessionID, customerID, e.clock.Now())
	s.CurrentDuration = e.policy.DefaultDuration
	return s
}

// Apply runs one customer turn. The input session is never modified.
func (e *Engine) Apply(s *models.NegotiationSession, in TurnInput) (*models.NegotiationSession, Effects) {
	p := e.policy
	now := e.clock.Now()
	next := s.Clone()

	if next.IsTerminal() {
		return next, Effects{
			Reason:           ReasonSessionClosed,
			Phase:            next.Phase,
			PreviousPhase:    next.Phase,
			Status:           next.Status,
			Round:            next.RoundNumber,
			FrustrationLevel: next.FrustrationLevel,
			Trend:            AnalyzeTrend(next.EmotionalTrend),
		}
	}

	fx := Effects{PreviousPhase: next.Phase}

	if in.Vehicle != nil {
		var capped bool
		next, capped = p.SetVehicle(next, *in.Vehicle)
		fx.TradeInCapped = fx.TradeInCapped || capped
	}
	if in.TradeIn != nil {
		var capped bool
		next, capped = p.SetTradeIn(next, *in.TradeIn)
		fx.TradeInCapped = fx.TradeInCapped || capped
	}

	intent := models.ParseIntent(string(in.Intent))
	emotion := models.ParseEmotion(string(in.Emotion.Primary))
	proposed := in.ProposedPrice
	if proposed != nil && *proposed <= 0 {
		proposed = nil
	}
	if proposed != nil && intent == models.IntentInquiry {
		intent = models.IntentCounterOffer
	}
	fx.Intent = intent

	next.RoundNumber++
	next.UpdatedAt = now
	next.EmotionalTrend = AddReading(next.EmotionalTrend, emotion, in.Emotion.Intensity, in.Emotion.Sentiment, now)
	sentiment := CurrentSentiment(next.EmotionalTrend)

	fr := p.TrackFrustration(next.RecentIntents, next.FrustrationLevel, intent)
	fx.FrustrationRaised = fr.Level > next.FrustrationLevel
	next.RecentIntents = fr.RecentIntents
	next.FrustrationLevel = fr.Level

	mergeNeeds(next, in)
	next.Profile = UpdateProfile(next.Profile, ProfileSignals{
		Message:   in.Message,
		Emotion:   emotion,
		Intent:    intent,
		NeedFlags: next.Needs.Flags,
		Budget:    in.StatedBudget,
	})

	switch {
	case in.PaymentPreference == models.PaymentCash || in.PaymentPreference == models.PaymentCredit:
		next.PaymentPreference = in.PaymentPreference
	default:
		if pref := DetectPaymentPreference(in.Message); pref != models.PaymentUnset {
			next.PaymentPreference = pref
		}
	}

	wasClosing := next.Phase == models.PhaseClosing
	next.Phase = NextPhase(PhaseInput{
		Current: next.Phase,
		Intent:  intent,
		Message: in.Message,
		Round:   next.RoundNumber,
	})

	finish := func(fx Effects) (*models.NegotiationSession, Effects) {
		fx.Phase = next.Phase
		fx.Status = next.Status
		fx.Round = next.RoundNumber
		fx.FrustrationLevel = next.FrustrationLevel
		fx.Trend = AnalyzeTrend(next.EmotionalTrend)
		return next, fx
	}

	switch intent {
	case models.IntentAccept:
		next.Status = models.StatusAccepted
		fx.Reason = ReasonDealAccepted
		fx.WinWin = e.scoreSession(next, sentiment)
		return finish(fx)
	case models.IntentReject:
		if wasClosing {
			next.Status = models.StatusRejected
			fx.Reason = ReasonDealRejected
			return finish(fx)
		}
	case models.IntentRequestAlternative:
		next.VehicleID = ""
		next.VehicleName = ""
		fx.Reason = ReasonAlternativeRequested
		return finish(fx)
	}

	if next.VehiclePrice <= 0 && next.NegotiatedPrice == nil && (in.CurrentOffer == nil || in.CurrentOffer.Price <= 0) {
		fx.Reason = ReasonNoPricingContext
		return finish(fx)
	}

	e.ensureBaseline(next, in.CurrentOffer)

	if next.Phase == models.PhaseDiscovery && proposed == nil {
		fx.Reason = ReasonInformationOnly
		fx.WinWin = e.scoreSession(next, sentiment)
		return finish(fx)
	}

	current := next.CurrentOffer()
	if next.PaymentPreference == models.PaymentCash && current.Price > 0 {
		current.Monthly = current.Price / float64(current.Duration)
	}

	strategy := SelectStrategy(intent, emotion)
	if intent == models.IntentReject && strategy.Kind() == StrategyValueBased {
		// a first rejection always earns a last-chance price move
		strategy = StrategyFor(StrategyCostPlus)
	}

	res := p.Concede(ConcessionInput{
		Current:       current,
		LastRecorded:  next.NegotiatedPrice,
		Intent:        intent,
		Emotion:       emotion,
		Sentiment:     sentiment,
		Round:         next.RoundNumber - 1,
		DealerCost:    next.DealerCost,
		VehiclePrice:  next.VehiclePrice,
		TradeInValue:  next.TradeIn.Value,
		ProposedPrice: proposed,
		Frustration:   next.FrustrationLevel,
		Preference:    next.PaymentPreference,
		Market:        MarketContextAt(now),
		Strategy:      strategy,
	})
	fx.Reason = res.Reason
	fx.Strategy = res.Move.Strategy
	fx.Tone = res.Move.Tone
	fx.Tactics = res.Move.Tactics
	fx.Aggression = res.Aggression
	fx.Floor = res.Floor
	fx.CashMode = res.CashMode
	fx.SuggestAlternatives = res.SuggestAlternatives
	fx.Flags = res.Flags

	if res.Offer != nil {
		if intent == models.IntentReject {
			fx.Reason = ReasonLastChanceOffer
		}
		offer := *res.Offer
		next.RecordOffer(models.OfferRecord{
			ID:          e.newID(now),
			VehicleID:   next.VehicleID,
			Monthly:     offer.Monthly,
			Duration:    offer.Duration,
			DownPayment: offer.DownPayment,
			Price:       offer.Price,
			Round:       next.RoundNumber,
			Reasoning:   string(fx.Reason),
			Timestamp:   now,
		})
		fx.Offer = &offer
	}
	fx.WinWin = e.scoreSession(next, sentiment)
	return finish(fx)
}

// ensureBaseline gives the session a starting offer to negotiate from.
// Session state wins over the caller's view; the caller only fills terms the session lacks.
func (e *Engine) ensureBaseline(s *models.NegotiationSession, callerOffer *models.Offer) {
	p := e.policy
	if s.VehiclePrice <= 0 && callerOffer != nil {
		if callerOffer.VehiclePrice > 0 {
			s.VehiclePrice = callerOffer.VehiclePrice
		} else {
			s.VehiclePrice = callerOffer.Price
		}
		p.capTradeIn(s)
	}
	if s.CurrentDuration <= 0 {
		s.CurrentDuration = p.DefaultDuration
	}
	if s.CurrentMonthly > 0 {
		return
	}
	if callerOffer != nil && s.NegotiatedPrice == nil &&
		p.PlausibleMonthly(callerOffer.Monthly, s.CurrentPrice(), s.TradeIn.Value, callerOffer.Duration) {
		s.CurrentMonthly = callerOffer.Monthly
		if callerOffer.Duration > 0 {
			s.CurrentDuration = callerOffer.Duration
		}
		s.CurrentDownPayment = maxf(0, callerOffer.DownPayment)
		return
	}
	cash := s.PaymentPreference == models.PaymentCash
	s.CurrentMonthly = roundTo(p.MonthlyFor(s.CurrentPrice(), s.TradeIn.Value, s.CurrentDuration, cash), 2)
}

// scoreSession scores the session's current offer and stores the total on the session
func (e *Engine) scoreSession(s *models.NegotiationSession, sentiment float64) *WinWinScore {
	if !s.HasOffer() {
		return nil
	}
	cost := s.DealerCost
	if cost <= 0 {
		cost = s.VehiclePrice * e.policy.FallbackCostRatio
	}
	budget := s.Needs.StatedBudget
	if budget <= 0 {
		budget = s.Profile.InferredBudget
	}
	if budget <= 0 {
		budget = s.CurrentMonthly
	}
	offer := s.CurrentOffer()
	score := ScoreWinWin(WinWinInput{
		Monthly:            s.CurrentMonthly,
		Duration:           s.CurrentDuration,
		Cash:               e.policy.IsCashMode(offer, s.PaymentPreference),
		DealerCost:         cost,
		TradeInValue:       s.TradeIn.Value,
		TradeInMarketValue: s.TradeIn.MarketValue,
		CustomerBudget:     budget,
		Sentiment:          sentiment,
		Rounds:             s.RoundNumber,
	})
	total := score.Total
	s.WinWinScore = &total
	return &score
}

func mergeNeeds(s *models.NegotiationSession, in TurnInput) {
	if len(in.Needs) > 0 && s.Needs.Flags == nil {
		s.Needs.Flags = make(map[string]bool, len(in.Needs))
	}
	for k, v := range in.Needs {
		if v {
			s.Needs.Flags[k] = true
		}
	}
	if in.StatedBudget > 0 {
		s.Needs.StatedBudget = in.StatedBudget
	}
}

// String renders effects for logs
func (fx Effects) String() string {
	price := "none"
	if fx.Offer != nil {
		price = fmt.Sprintf("%.0f", fx.Offer.Price)
	}
	return fmt.Sprintf("round=%d phase=%s reason=%s price=%s", fx.Round, fx.Phase, fx.Reason, price)
}
