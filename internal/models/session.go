package models

import (
	"time"
)

// SchemaVersion is the version of the persisted session layout
const SchemaVersion = 1

// Phase is the conversation phase of a negotiation
type Phase string

const (
	PhaseDiscovery   Phase = "discovery"
	PhaseNegotiation Phase = "negotiation"
	PhaseClosing     Phase = "closing"
)

// SessionStatus tracks whether a negotiation is still open
type SessionStatus string

const (
	StatusActive   SessionStatus = "active"
	StatusAccepted SessionStatus = "accepted"
	StatusRejected SessionStatus = "rejected"
)

// PaymentPreference is how the customer intends to pay
type PaymentPreference string

const (
	PaymentUnset  PaymentPreference = ""
	PaymentCash   PaymentPreference = "cash"
	PaymentCredit PaymentPreference = "credit"
)

// Offer is a price/terms proposal exchanged during a turn
type Offer struct {
	Monthly             float64 `json:"monthly" yaml:"monthly"`
	Duration            int     `json:"duration" yaml:"duration"`
	DownPayment         float64 `json:"down_payment" yaml:"down_payment"`
	Price               float64 `json:"price" yaml:"price"`
	VehiclePrice        float64 `json:"vehicle_price,omitempty" yaml:"vehicle_price"`
	SuggestAlternatives bool    `json:"suggest_alternatives" yaml:"suggest_alternatives"`
}

// OfferRecord is one entry of the append-only offer history
type OfferRecord struct {
	ID          string    `json:"id"`
	VehicleID   string    `json:"vehicle_id"`
	Monthly     float64   `json:"monthly"`
	Duration    int       `json:"duration"`
	DownPayment float64   `json:"down_payment"`
	Price       float64   `json:"price"`
	Round       int       `json:"round"`
	Reasoning   string    `json:"reasoning"`
	Timestamp   time.Time `json:"timestamp"`
}

// EmotionReading is a single sentiment observation
type EmotionReading struct {
	Emotion   Emotion   `json:"emotion"`
	Intensity float64   `json:"intensity"` // 0..1
	Sentiment float64   `json:"sentiment"` // -1..1
	Timestamp time.Time `json:"timestamp"`
}

// EmotionalTrend owns the raw reading history; statistics are derived on demand
type EmotionalTrend struct {
	Readings []EmotionReading `json:"readings"`
}

// CustomerProfile is the incrementally built psychographic profile
type CustomerProfile struct {
	Segment           string   `json:"segment"`
	PriceSensitivity  string   `json:"price_sensitivity"` // Low, Medium, High
	Priorities        []string `json:"priorities"`
	InferredBudget    float64  `json:"inferred_budget"`
	Confidence        float64  `json:"confidence"`
	MentionedConcerns []string `json:"mentioned_concerns"`
	ObjectionsRaised  []string `json:"objections_raised"`
	PositiveReactions []string `json:"positive_reactions"`
}

// TradeIn is the customer's vehicle taken in part exchange
type TradeIn struct {
	ID          string  `json:"id"`
	Value       float64 `json:"value"`        // value granted to the customer
	MarketValue float64 `json:"market_value"` // appraised market value, 0 when unknown
}

// CustomerNeeds are message-derived flags plus any stated budget
type CustomerNeeds struct {
	Flags        map[string]bool `json:"flags"`
	StatedBudget float64         `json:"stated_budget"`
}

// NegotiationSession is the long-lived aggregate for one customer/vehicle negotiation.
//
// A session must have a single writer at a time; the services layer serializes turns per session id.
type NegotiationSession struct {
	SchemaVersion int    `json:"schema_version"`
	SessionID     string `json:"session_id"`
	CustomerID    string `json:"customer_id"`

	Phase  Phase         `json:"phase"`
	Status SessionStatus `json:"status"`

	// Vehicle context
	VehicleID    string  `json:"vehicle_id"`
	VehicleName  string  `json:"vehicle_name"`
	VehiclePrice float64 `json:"vehicle_price"`
	DealerCost   float64 `json:"dealer_cost"`

	TradeIn TradeIn `json:"trade_in"`

	// Offer state
	CurrentMonthly     float64           `json:"current_monthly"`
	CurrentDuration    int               `json:"current_duration"`
	CurrentDownPayment float64           `json:"current_down_payment"`
	NegotiatedPrice    *float64          `json:"negotiated_price"`
	PaymentPreference  PaymentPreference `json:"payment_preference"`
	OfferHistory       []OfferRecord     `json:"offer_history"`

	RoundNumber      int      `json:"round_number"`
	RecentIntents    []Intent `json:"recent_intents"`
	FrustrationLevel int      `json:"frustration_level"`

	EmotionalTrend EmotionalTrend  `json:"emotional_trend"`
	Profile        CustomerProfile `json:"customer_profile"`
	Needs          CustomerNeeds   `json:"needs"`

	WinWinScore *float64 `json:"win_win_score"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewNegotiationSession creates an empty session in the discovery phase
func NewNegotiationSession(sessionID, customerID string, now time.Time) *NegotiationSession {
	if customerID == "" {
		customerID = "unknown"
	}
	return &NegotiationSession{
		SchemaVersion:   SchemaVersion,
		SessionID:       sessionID,
		CustomerID:      customerID,
		Phase:           PhaseDiscovery,
		Status:          StatusActive,
		CurrentDuration: 60,
		Profile: CustomerProfile{
			Segment:          "Unknown",
			PriceSensitivity: "Medium",
			Confidence:       0.5,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsTerminal reports whether a final accept/reject has been observed
func (s *NegotiationSession) IsTerminal() bool {
	return s.Status == StatusAccepted || s.Status == StatusRejected
}

// CurrentPrice is the negotiated price, or the vehicle price before the first concession
func (s *NegotiationSession) CurrentPrice() float64 {
	if s.NegotiatedPrice != nil {
		return *s.NegotiatedPrice
	}
	return s.VehiclePrice
}

// CurrentOffer returns the offer the customer is currently looking at
func (s *NegotiationSession) CurrentOffer() Offer {
	return Offer{
		Monthly:      s.CurrentMonthly,
		Duration:     s.CurrentDuration,
		DownPayment:  s.CurrentDownPayment,
		Price:        s.CurrentPrice(),
		VehiclePrice: s.VehiclePrice,
	}
}

// HasOffer reports whether an offer has been put in front of the customer
func (s *NegotiationSession) HasOffer() bool {
	return s.CurrentMonthly > 0 || s.NegotiatedPrice != nil
}

// RecordOffer appends to the offer history and makes the offer current
func (s *NegotiationSession) RecordOffer(rec OfferRecord) {
	price := rec.Price
	s.NegotiatedPrice = &price
	s.CurrentMonthly = rec.Monthly
	s.CurrentDuration = rec.Duration
	s.CurrentDownPayment = rec.DownPayment
	s.OfferHistory = append(s.OfferHistory, rec)
	s.UpdatedAt = rec.Timestamp
}

// Clone returns a deep copy so callers can derive a new state without aliasing
func (s *NegotiationSession) Clone() *NegotiationSession {
	if s == nil {
		return nil
	}
	c := *s
	if s.NegotiatedPrice != nil {
		v := *s.NegotiatedPrice
		c.NegotiatedPrice = &v
	}
	if s.WinWinScore != nil {
		v := *s.WinWinScore
		c.WinWinScore = &v
	}
	c.OfferHistory = cloneSlice(s.OfferHistory)
	c.RecentIntents = cloneSlice(s.RecentIntents)
	c.EmotionalTrend.Readings = cloneSlice(s.EmotionalTrend.Readings)
	c.Profile.Priorities = cloneSlice(s.Profile.Priorities)
	c.Profile.MentionedConcerns = cloneSlice(s.Profile.MentionedConcerns)
	c.Profile.ObjectionsRaised = cloneSlice(s.Profile.ObjectionsRaised)
	c.Profile.PositiveReactions = cloneSlice(s.Profile.PositiveReactions)
	if s.Needs.Flags != nil {
		c.Needs.Flags = make(map[string]bool, len(s.Needs.Flags))
		for k, v := range s.Needs.Flags {
			c.Needs.Flags[k] = v
		}
	}
	return &c
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}

// SessionSummary is the compact view used by list endpoints
type SessionSummary struct {
	SessionID        string        `json:"session_id"`
	CustomerID       string        `json:"customer_id"`
	Phase            Phase         `json:"phase"`
	Status           SessionStatus `json:"status"`
	Rounds           int           `json:"rounds"`
	VehicleID        string        `json:"vehicle_id"`
	VehiclePrice     float64       `json:"vehicle_price"`
	CurrentOffer     Offer         `json:"current_offer"`
	OfferCount       int           `json:"offer_count"`
	FrustrationLevel int           `json:"frustration_level"`
	WinWinScore      *float64      `json:"win_win_score"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// Summary builds the compact view of the session
func (s *NegotiationSession) Summary() SessionSummary {
	return SessionSummary{
		SessionID:        s.SessionID,
		CustomerID:       s.CustomerID,
		Phase:            s.Phase,
		Status:           s.Status,
		Rounds:           s.RoundNumber,
		VehicleID:        s.VehicleID,
		VehiclePrice:     s.VehiclePrice,
		CurrentOffer:     s.CurrentOffer(),
		OfferCount:       len(s.OfferHistory),
		FrustrationLevel: s.FrustrationLevel,
		WinWinScore:      s.WinWinScore,
		UpdatedAt:        s.UpdatedAt,
	}
}
