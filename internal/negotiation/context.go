package negotiation

import "github.com/Ananth-NQI/carnego-backend/internal/models"

// VehicleContext is an explicit vehicle selection made outside the engine
type VehicleContext struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	DealerCost float64 `json:"dealer_cost"`
}

// TradeInContext is an appraised trade-in supplied by the valuation collaborator
type TradeInContext struct {
	ID          string  `json:"id"`
	Value       float64 `json:"value"`
	MarketValue float64 `json:"market_value"`
}

// SetVehicle returns a copy of s targeting the given vehicle.
// Resending the current vehicle id only fills price or cost the session lacks and keeps the offer state.
// A different vehicle starts the offer over; history is kept for audit.
// The second return value reports whether the existing trade-in had to be capped.
func (p Policy) SetVehicle(s *models.NegotiationSession, v VehicleContext) (*models.NegotiationSession, bool) {
	next := s.Clone()
	if next.VehicleID == v.ID && (v.ID != "" || (next.VehiclePrice == v.Price && next.DealerCost == v.DealerCost)) {
		if v.Name != "" {
			next.VehicleName = v.Name
		}
		if next.VehiclePrice <= 0 {
			next.VehiclePrice = maxf(0, v.Price)
		}
		if next.DealerCost <= 0 {
			next.DealerCost = maxf(0, v.DealerCost)
		}
		return next, p.capTradeIn(next)
	}
	next.VehicleID = v.ID
	next.VehicleName = v.Name
	next.VehiclePrice = maxf(0, v.Price)
	next.DealerCost = maxf(0, v.DealerCost)
	next.NegotiatedPrice = nil
	next.CurrentMonthly = 0
	next.CurrentDuration = p.DefaultDuration
	next.CurrentDownPayment = 0
	next.WinWinScore = nil
	capped := p.capTradeIn(next)
	return next, capped
}

// SetTradeIn returns a copy of s with a trade-in, capped to a share of the vehicle price
func (p Policy) SetTradeIn(s *models.NegotiationSession, t TradeInContext) (*models.NegotiationSession, bool) {
	next := s.Clone()
	next.TradeIn = models.TradeIn{
		ID:          t.ID,
		Value:       maxf(0, t.Value),
		MarketValue: maxf(0, t.MarketValue),
	}
	capped := p.capTradeIn(next)
	return next, capped
}

// capTradeIn enforces the trade-in abuse guard in place on a session the caller owns
func (p Policy) capTradeIn(s *models.NegotiationSession) bool {
	if s.VehiclePrice <= 0 {
		return false
	}
	limit := s.VehiclePrice * p.TradeInCapRatio
	if s.TradeIn.Value > limit {
		s.TradeIn.Value = limit
		return true
	}
	return false
}

// Regress performs an allowed manual backward phase move
func Regress(s *models.NegotiationSession, to models.Phase) (*models.NegotiationSession, bool) {
	if s.IsTerminal() || !CanRegress(s.Phase, to) {
		return s.Clone(), false
	}
	next := s.Clone()
	next.Phase = to
	return next, true
}
