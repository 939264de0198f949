package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/Ananth-NQI/carnego-backend/internal/models"
	"github.com/Ananth-NQI/carnego-backend/internal/negotiation"
	"github.com/Ananth-NQI/carnego-backend/internal/storage"
	"github.com/Ananth-NQI/carnego-backend/internal/utils"
)

// ErrPhaseChangeNotAllowed is returned when a manual phase move is not a permitted regression
var ErrPhaseChangeNotAllowed = errors.New("phase change not allowed")

// TurnRequest is one customer turn as received from the transport layer
type TurnRequest struct {
	CustomerID string `json:"customer_id"`
	negotiation.TurnInput
}

// TurnResult is what a processed turn returns to the caller
type TurnResult struct {
	SessionID string                `json:"session_id"`
	Created   bool                  `json:"created"`
	Effects   negotiation.Effects   `json:"effects"`
	Session   models.SessionSummary `json:"session"`
	Offer     models.Offer          `json:"current_offer"`
	Readiness float64               `json:"discovery_readiness"`
}

// NegotiationService loads a session, runs the engine on it and saves the result.
// Turns on the same session are serialized through the SessionManager.
type NegotiationService struct {
	store    storage.Store
	sessions *SessionManager
	engine   atomic.Pointer[negotiation.Engine]
	logger   *zap.Logger
}

// NewNegotiationService wires the store, the session manager and the engine
func NewNegotiationService(store storage.Store, sessions *SessionManager, engine *negotiation.Engine, logger *zap.Logger) *NegotiationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &NegotiationService{store: store, sessions: sessions, logger: logger}
	s.engine.Store(engine)
	return s
}

// Engine returns the engine new turns will use
func (s *NegotiationService) Engine() *negotiation.Engine {
	return s.engine.Load()
}

// UpdatePolicy swaps in an engine built from the new policy. Turns already running keep the old one.
func (s *NegotiationService) UpdatePolicy(p negotiation.Policy) error {
	next, err := s.engine.Load().WithPolicy(p)
	if err != nil {
		return err
	}
	s.engine.Store(next)
	return nil
}

// ProcessTurn applies one customer turn. An empty sessionID starts a new session.
func (s *NegotiationService) ProcessTurn(ctx context.Context, sessionID string, req TurnRequest) (*TurnResult, error) {
	if sessionID == "" {
		sessionID = utils.NewSessionID()
	}
	if err := utils.ValidateSessionID(sessionID); err != nil {
		return nil, err
	}
	if err := utils.ValidateCustomerID(req.CustomerID); err != nil {
		return nil, err
	}

	release, err := s.sessions.Acquire(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("acquire session %s: %w", sessionID, err)
	}
	defer release()

	engine := s.engine.Load()

	created := false
	current, err := s.store.Get(ctx, sessionID)
	if errors.Is(err, storage.ErrSessionNotFound) {
		current = engine.NewSession(sessionID, req.CustomerID)
		created = true
	} else if err != nil {
		return nil, err
	}

	next, fx := engine.Apply(current, req.TurnInput)

	if fx.Reason != negotiation.ReasonSessionClosed {
		if err := s.store.Save(ctx, next); err != nil {
			return nil, err
		}
	}

	s.logTurn(next, fx)

	return &TurnResult{
		SessionID: sessionID,
		Created:   created,
		Effects:   fx,
		Session:   next.Summary(),
		Offer:     next.CurrentOffer(),
		Readiness: negotiation.DiscoveryReadiness(next),
	}, nil
}

func (s *NegotiationService) logTurn(sess *models.NegotiationSession, fx negotiation.Effects) {
	fields := []zap.Field{
		zap.String("session_id", sess.SessionID),
		zap.Int("round", fx.Round),
		zap.String("phase", string(fx.Phase)),
		zap.String("reason", string(fx.Reason)),
		zap.String("intent", string(fx.Intent)),
	}
	if fx.Offer != nil {
		fields = append(fields, zap.Float64("price", fx.Offer.Price), zap.Float64("monthly", fx.Offer.Monthly))
	}
	if fx.PreviousPhase != fx.Phase {
		fields = append(fields, zap.String("previous_phase", string(fx.PreviousPhase)))
	}
	s.logger.Info("negotiation turn", fields...)

	for _, flag := range fx.Flags {
		s.logger.Info("pricing guard fired", zap.String("session_id", sess.SessionID), zap.String("guard", string(flag)))
	}
	if fx.TradeInCapped {
		s.logger.Info("pricing guard fired", zap.String("session_id", sess.SessionID), zap.String("guard", "trade_in_capped"))
	}
	if fx.FrustrationRaised {
		s.logger.Warn("customer frustration rising",
			zap.String("session_id", sess.SessionID), zap.Int("level", fx.FrustrationLevel))
	}
}

// GetSession returns the stored session
func (s *NegotiationService) GetSession(ctx context.Context, sessionID string) (*models.NegotiationSession, error) {
	return s.store.Get(ctx, sessionID)
}

// ListActive returns summaries of open sessions, optionally for one customer
func (s *NegotiationService) ListActive(ctx context.Context, customerID string) ([]models.SessionSummary, error) {
	if err := utils.ValidateCustomerID(customerID); err != nil {
		return nil, err
	}
	return s.store.ListActive(ctx, customerID)
}

// Trend analyzes the session's emotional trend
func (s *NegotiationService) Trend(ctx context.Context, sessionID string) (negotiation.TrendReport, error) {
	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return negotiation.TrendReport{}, err
	}
	return negotiation.AnalyzeTrend(sess.EmotionalTrend), nil
}

// DeleteSession removes a session once no turn is running on it
func (s *NegotiationService) DeleteSession(ctx context.Context, sessionID string) error {
	release, err := s.sessions.Acquire(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("acquire session %s: %w", sessionID, err)
	}
	err = s.store.Delete(ctx, sessionID)
	release()
	if err != nil {
		return err
	}
	s.sessions.Forget(sessionID)
	s.logger.Info("session deleted", zap.String("session_id", sessionID))
	return nil
}

// Regress moves a session back to an earlier phase when that move is permitted
func (s *NegotiationService) Regress(ctx context.Context, sessionID string, to models.Phase) (*models.NegotiationSession, error) {
	release, err := s.sessions.Acquire(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("acquire session %s: %w", sessionID, err)
	}
	defer release()

	current, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	next, ok := negotiation.Regress(current, to)
	if !ok {
		return nil, fmt.Errorf("%w: %s -> %s", ErrPhaseChangeNotAllowed, current.Phase, to)
	}
	next.UpdatedAt = s.engine.Load().Now()
	if err := s.store.Save(ctx, next); err != nil {
		return nil, err
	}
	s.logger.Info("phase regressed",
		zap.String("session_id", sessionID), zap.String("from", string(current.Phase)), zap.String("to", string(to)))
	return next, nil
}
