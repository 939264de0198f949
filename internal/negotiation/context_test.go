package negotiation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ananth-NQI/carnego-backend/internal/models"
)

func negotiatedDuster(p Policy) *models.NegotiationSession {
	s := models.NewNegotiationSession("s", "c", fixedNow)
	s.VehicleID = duster.ID
	s.VehicleName = duster.Name
	s.VehiclePrice = duster.Price
	s.DealerCost = duster.DealerCost
	s.NegotiatedPrice = price(209000)
	s.CurrentMonthly = 4100
	s.CurrentDuration = 48
	s.TradeIn = models.TradeIn{ID: "old-car", Value: 120000, MarketValue: 125000}
	return s
}

func TestSetVehicle(t *testing.T) {
	p := DefaultPolicy()

	tests := []struct {
		name       string
		vehicle    VehicleContext
		wantPrice  float64
		wantCost   float64
		wantOffer  bool
		wantTrade  float64
		wantCapped bool
	}{
		{"id only resend keeps offer", VehicleContext{ID: duster.ID}, 220000, 187000, true, 120000, false},
		{"same id with new list price keeps offer", VehicleContext{ID: duster.ID, Price: 240000, DealerCost: 190000}, 220000, 187000, true, 120000, false},
		{"full resend keeps offer", duster, 220000, 187000, true, 120000, false},
		{"new vehicle starts over", VehicleContext{ID: "sandero", Price: 100000, DealerCost: 85000}, 100000, 85000, false, 60000, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := negotiatedDuster(p)
			next, capped := p.SetVehicle(before, tt.vehicle)

			assert.Equal(t, tt.vehicle.ID, next.VehicleID)
			assert.Equal(t, tt.wantPrice, next.VehiclePrice)
			assert.Equal(t, tt.wantCost, next.DealerCost)
			assert.Equal(t, tt.wantCapped, capped)
			assert.InDelta(t, tt.wantTrade, next.TradeIn.Value, 1e-6)
			if tt.wantOffer {
				require.NotNil(t, next.NegotiatedPrice)
				assert.Equal(t, 209000.0, *next.NegotiatedPrice)
				assert.Equal(t, 4100.0, next.CurrentMonthly)
				assert.Equal(t, 48, next.CurrentDuration)
				assert.Equal(t, duster.Name, next.VehicleName)
			} else {
				assert.Nil(t, next.NegotiatedPrice)
				assert.Zero(t, next.CurrentMonthly)
				assert.Equal(t, p.DefaultDuration, next.CurrentDuration)
			}
			assert.Equal(t, 220000.0, before.VehiclePrice)
		})
	}
}

func TestSetVehicleFillsMissingPricesForSameID(t *testing.T) {
	p := DefaultPolicy()
	s := models.NewNegotiationSession("s", "c", fixedNow)
	s.VehicleID = duster.ID
	s.TradeIn = models.TradeIn{Value: 150000}

	next, capped := p.SetVehicle(s, duster)
	assert.Equal(t, 220000.0, next.VehiclePrice)
	assert.Equal(t, 187000.0, next.DealerCost)
	assert.True(t, capped)
	assert.InDelta(t, 132000.0, next.TradeIn.Value, 1e-6)
}
