package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Ananth-NQI/carnego-backend/internal/models"
	"github.com/Ananth-NQI/carnego-backend/internal/negotiation"
)

// defaultScenarioTime keeps replays deterministic when a scenario gives no clock
var defaultScenarioTime = time.Date(2025, 5, 14, 10, 0, 0, 0, time.UTC)

// Scenario is a scripted negotiation read from YAML
type Scenario struct {
	Name       string    `yaml:"name"`
	CustomerID string    `yaml:"customer_id"`
	Now        time.Time `yaml:"now"`
	Vehicle    *Vehicle  `yaml:"vehicle"`
	TradeIn    *TradeIn  `yaml:"trade_in"`
	Turns      []Turn    `yaml:"turns"`

	path string
}

type Vehicle struct {
	ID         string  `yaml:"id"`
	Name       string  `yaml:"name"`
	Price      float64 `yaml:"price"`
	DealerCost float64 `yaml:"dealer_cost"`
}

type TradeIn struct {
	ID          string  `yaml:"id"`
	Value       float64 `yaml:"value"`
	MarketValue float64 `yaml:"market_value"`
}

// Turn is one scripted customer message plus what the engine should do with it
type Turn struct {
	Intent            string          `yaml:"intent"`
	Emotion           string          `yaml:"emotion"`
	Sentiment         float64         `yaml:"sentiment"`
	Intensity         float64         `yaml:"intensity"`
	Message           string          `yaml:"message"`
	ProposedPrice     *float64        `yaml:"proposed_price"`
	StatedBudget      float64         `yaml:"stated_budget"`
	Needs             map[string]bool `yaml:"needs"`
	PaymentPreference string          `yaml:"payment_preference"`
	Expect            *Expectation    `yaml:"expect"`
}

// Expectation lists the checks for a turn; empty fields are not checked
type Expectation struct {
	Reason  string   `yaml:"reason"`
	Phase   string   `yaml:"phase"`
	Status  string   `yaml:"status"`
	Price   *float64 `yaml:"price"`
	NoOffer bool     `yaml:"no_offer"`
}

// LoadScenario reads and validates a scenario file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(sc.Turns) == 0 {
		return nil, fmt.Errorf("%s: scenario has no turns", path)
	}
	if sc.Name == "" {
		sc.Name = path
	}
	if sc.Now.IsZero() {
		sc.Now = defaultScenarioTime
	}
	sc.path = path
	return &sc, nil
}

func (t Turn) input() negotiation.TurnInput {
	return negotiation.TurnInput{
		Intent: models.Intent(t.Intent),
		Emotion: negotiation.EmotionInput{
			Primary:   models.Emotion(t.Emotion),
			Sentiment: t.Sentiment,
			Intensity: t.Intensity,
		},
		ProposedPrice:     t.ProposedPrice,
		Needs:             t.Needs,
		StatedBudget:      t.StatedBudget,
		Message:           t.Message,
		PaymentPreference: models.PaymentPreference(t.PaymentPreference),
	}
}

// TurnOutcome is what the engine did on one turn
type TurnOutcome struct {
	Index    int
	Intent   models.Intent
	Phase    models.Phase
	Status   models.SessionStatus
	Reason   negotiation.ReasonCode
	Price    *float64
	Monthly  float64
	WinWin   float64
	Failures []string
}

// Report is the full replay of one scenario
type Report struct {
	Scenario string
	Turns    []TurnOutcome
}

// Failed reports whether any expectation was not met
func (r *Report) Failed() bool {
	for _, t := range r.Turns {
		if len(t.Failures) > 0 {
			return true
		}
	}
	return false
}

// Replay runs a scenario through a fresh engine
func Replay(sc *Scenario, policy negotiation.Policy) (*Report, error) {
	seq := 0
	engine, err := negotiation.NewEngine(policy, negotiation.FixedClock{T: sc.Now}, func(time.Time) string {
		seq++
		return fmt.Sprintf("%s-offer-%d", sc.Name, seq)
	})
	if err != nil {
		return nil, err
	}

	session := engine.NewSession(sc.Name, sc.CustomerID)
	report := &Report{Scenario: sc.Name}
	for i, turn := range sc.Turns {
		in := turn.input()
		if i == 0 {
			if sc.Vehicle != nil {
				in.Vehicle = &negotiation.VehicleContext{
					ID: sc.Vehicle.ID, Name: sc.Vehicle.Name, Price: sc.Vehicle.Price, DealerCost: sc.Vehicle.DealerCost,
				}
			}
			if sc.TradeIn != nil {
				in.TradeIn = &negotiation.TradeInContext{
					ID: sc.TradeIn.ID, Value: sc.TradeIn.Value, MarketValue: sc.TradeIn.MarketValue,
				}
			}
		}

		var fx negotiation.Effects
		session, fx = engine.Apply(session, in)

		out := TurnOutcome{
			Index:  i + 1,
			Intent: fx.Intent,
			Phase:  fx.Phase,
			Status: fx.Status,
			Reason: fx.Reason,
		}
		if fx.Offer != nil {
			p := fx.Offer.Price
			out.Price = &p
			out.Monthly = fx.Offer.Monthly
		}
		if fx.WinWin != nil {
			out.WinWin = fx.WinWin.Total
		}
		out.Failures = turn.Expect.check(out)
		report.Turns = append(report.Turns, out)
	}
	return report, nil
}

func (e *Expectation) check(out TurnOutcome) []string {
	if e == nil {
		return nil
	}
	var failures []string
	if e.Reason != "" && string(out.Reason) != e.Reason {
		failures = append(failures, fmt.Sprintf("reason: want %s, got %s", e.Reason, out.Reason))
	}
	if e.Phase != "" && string(out.Phase) != e.Phase {
		failures = append(failures, fmt.Sprintf("phase: want %s, got %s", e.Phase, out.Phase))
	}
	if e.Status != "" && string(out.Status) != e.Status {
		failures = append(failures, fmt.Sprintf("status: want %s, got %s", e.Status, out.Status))
	}
	if e.NoOffer && out.Price != nil {
		failures = append(failures, fmt.Sprintf("offer: want none, got %.0f", *out.Price))
	}
	if e.Price != nil {
		switch {
		case out.Price == nil:
			failures = append(failures, fmt.Sprintf("price: want %.0f, got no offer", *e.Price))
		case *out.Price != *e.Price:
			failures = append(failures, fmt.Sprintf("price: want %.0f, got %.0f", *e.Price, *out.Price))
		}
	}
	return failures
}
