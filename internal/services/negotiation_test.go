package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/sync/errgroup"

	"github.com/Ananth-NQI/carnego-backend/internal/models"
	"github.com/Ananth-NQI/carnego-backend/internal/negotiation"
	"github.com/Ananth-NQI/carnego-backend/internal/storage"
	"github.com/Ananth-NQI/carnego-backend/internal/utils"
)

var (
	fixedNow = time.Date(2025, 5, 14, 10, 0, 0, 0, time.UTC)
	duster   = negotiation.VehicleContext{ID: "duster-2024", Name: "Dacia Duster", Price: 220000, DealerCost: 187000}
	calm     = negotiation.EmotionInput{Primary: models.EmotionNeutral, Sentiment: 0.5, Intensity: 0.3}
)

func newTestService(t *testing.T) (*NegotiationService, *storage.MemoryStore) {
	t.Helper()
	engine, err := negotiation.NewEngine(negotiation.DefaultPolicy(), negotiation.FixedClock{T: fixedNow}, nil)
	require.NoError(t, err)
	store := storage.NewMemoryStore()
	return NewNegotiationService(store, newTestManager(t), engine, zaptest.NewLogger(t)), store
}

func budgetTurn() TurnRequest {
	return TurnRequest{
		CustomerID: "c1",
		TurnInput: negotiation.TurnInput{
			Intent:       models.IntentBudgetMention,
			Emotion:      calm,
			Message:      "Mon budget est de 3500 par mois",
			StatedBudget: 3500,
			Vehicle:      &duster,
		},
	}
}

func TestProcessTurnCreatesAndPersists(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	res, err := svc.ProcessTurn(ctx, "s1", budgetTurn())
	require.NoError(t, err)
	assert.True(t, res.Created)
	require.NotNil(t, res.Effects.Offer)
	assert.Equal(t, 214500.0, res.Effects.Offer.Price)
	assert.Equal(t, models.PhaseNegotiation, res.Session.Phase)
	assert.Equal(t, "c1", res.Session.CustomerID)

	saved, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, saved.RoundNumber)
	assert.Len(t, saved.OfferHistory, 1)

	res, err = svc.ProcessTurn(ctx, "s1", TurnRequest{TurnInput: negotiation.TurnInput{Intent: models.IntentInquiry, Emotion: calm}})
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.Equal(t, 2, res.Session.Rounds)
	assert.Equal(t, 214500.0, res.Offer.Price)
}

func TestProcessTurnGeneratesSessionID(t *testing.T) {
	svc, _ := newTestService(t)
	res, err := svc.ProcessTurn(context.Background(), "", budgetTurn())
	require.NoError(t, err)
	assert.Contains(t, res.SessionID, "neg_")

	_, err = svc.ProcessTurn(context.Background(), "bad id", budgetTurn())
	assert.ErrorIs(t, err, utils.ErrInvalidSessionID)
}

func TestProcessTurnIDsFitStoreColumns(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	_, err := svc.ProcessTurn(ctx, strings.Repeat("s", 64), budgetTurn())
	require.NoError(t, err)

	_, err = svc.ProcessTurn(ctx, strings.Repeat("s", 65), budgetTurn())
	assert.ErrorIs(t, err, utils.ErrInvalidSessionID)

	long := budgetTurn()
	long.CustomerID = strings.Repeat("c", 65)
	_, err = svc.ProcessTurn(ctx, "s-long-customer", long)
	assert.ErrorIs(t, err, utils.ErrInvalidCustomerID)

	_, err = svc.ListActive(ctx, long.CustomerID)
	assert.ErrorIs(t, err, utils.ErrInvalidCustomerID)
	assert.Equal(t, 1, store.Len())
}

func TestProcessTurnOnClosedSessionIsNotSaved(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	_, err := svc.ProcessTurn(ctx, "s1", budgetTurn())
	require.NoError(t, err)
	res, err := svc.ProcessTurn(ctx, "s1", TurnRequest{TurnInput: negotiation.TurnInput{Intent: models.IntentAccept, Emotion: calm}})
	require.NoError(t, err)
	assert.Equal(t, models.StatusAccepted, res.Effects.Status)

	closed, err := store.Get(ctx, "s1")
	require.NoError(t, err)

	res, err = svc.ProcessTurn(ctx, "s1", budgetTurn())
	require.NoError(t, err)
	assert.Equal(t, negotiation.ReasonSessionClosed, res.Effects.Reason)

	after, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, closed.RoundNumber, after.RoundNumber)

	active, err := svc.ListActive(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestProcessTurnConcurrentSameSession(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	_, err := svc.ProcessTurn(ctx, "s1", budgetTurn())
	require.NoError(t, err)

	const turns = 24
	var g errgroup.Group
	for i := 0; i < turns; i++ {
		g.Go(func() error {
			_, err := svc.ProcessTurn(ctx, "s1", TurnRequest{TurnInput: negotiation.TurnInput{
				Intent:  models.IntentCounterOffer,
				Emotion: calm,
			}})
			return err
		})
	}
	require.NoError(t, g.Wait())

	final, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, turns+1, final.RoundNumber, "no turn was lost")

	for i := 1; i < len(final.OfferHistory); i++ {
		assert.LessOrEqual(t, final.OfferHistory[i].Price, final.OfferHistory[i-1].Price)
	}
	floor := negotiation.DefaultPolicy().FloorPrice(duster.DealerCost, 0)
	assert.GreaterOrEqual(t, *final.NegotiatedPrice, floor)
}

func TestRegressAndDelete(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.ProcessTurn(ctx, "s1", budgetTurn())
	require.NoError(t, err)

	_, err = svc.Regress(ctx, "s1", models.PhaseClosing)
	assert.ErrorIs(t, err, ErrPhaseChangeNotAllowed)

	back, err := svc.Regress(ctx, "s1", models.PhaseDiscovery)
	require.NoError(t, err)
	assert.Equal(t, models.PhaseDiscovery, back.Phase)

	got, err := svc.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, models.PhaseDiscovery, got.Phase)

	require.NoError(t, svc.DeleteSession(ctx, "s1"))
	_, err = svc.GetSession(ctx, "s1")
	assert.ErrorIs(t, err, storage.ErrSessionNotFound)
	assert.ErrorIs(t, svc.DeleteSession(ctx, "s1"), storage.ErrSessionNotFound)

	_, err = svc.Regress(ctx, "missing", models.PhaseDiscovery)
	assert.ErrorIs(t, err, storage.ErrSessionNotFound)
}

func TestTrend(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	for i, s := range []float64{0.6, 0.4, 0.1, -0.2} {
		_, err := svc.ProcessTurn(ctx, "s1", TurnRequest{TurnInput: negotiation.TurnInput{
			Intent:  models.IntentInquiry,
			Emotion: negotiation.EmotionInput{Primary: models.EmotionWorried, Sentiment: s, Intensity: 0.5},
			Message: fmt.Sprintf("question %d", i),
		}})
		require.NoError(t, err)
	}

	report, err := svc.Trend(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, negotiation.DirectionDeclining, report.Direction)
	assert.Equal(t, 4, report.Readings)

	_, err = svc.Trend(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrSessionNotFound)
}

func TestUpdatePolicySwapsEngine(t *testing.T) {
	svc, _ := newTestService(t)
	before := svc.Engine()

	bad := negotiation.DefaultPolicy()
	bad.DefaultDuration = 0
	assert.ErrorIs(t, svc.UpdatePolicy(bad), negotiation.ErrInvalidPolicy)
	assert.Same(t, before, svc.Engine())

	p := negotiation.DefaultPolicy()
	p.MinMarginRate = 0.05
	require.NoError(t, svc.UpdatePolicy(p))
	assert.NotSame(t, before, svc.Engine())
	assert.Equal(t, 0.05, svc.Engine().Policy().MinMarginRate)
	assert.Equal(t, fixedNow, svc.Engine().Now())

	res, err := svc.ProcessTurn(context.Background(), "s2", budgetTurn())
	require.NoError(t, err)
	assert.InDelta(t, 187000*1.05, res.Effects.Floor, 1e-6)
}
