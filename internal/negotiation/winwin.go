package negotiation

import "math"

// Recommendation buckets for a win-win score
const (
	RecommendationPoor      = "poor_restructure"
	RecommendationNeedsWork = "needs_work"
	RecommendationBalanced  = "balanced"
	RecommendationGenerous  = "generous_verify_margin"
)

const (
	minMargin    = 0.05
	targetMargin = 0.10
	maxMargin    = 0.15

	interestEstimate  = 0.08
	customerBaseline  = 30.0
	premiumScale      = 5000.0
	premiumPoints     = 20.0
	maxValueBonus     = 30.0
	budgetWeight      = 0.6
	emotionWeight     = 0.4
	imbalanceAllowed  = 20.0
	imbalancePenalty  = 0.5
	fatigueFreeRounds = 5
	fatiguePerRound   = 2.0
	maxFatigue        = 15.0
	fallbackBudget    = 5000.0
)

// WinWinInput describes an offer from both sides of the table
type WinWinInput struct {
	Monthly            float64
	Duration           int
	Cash               bool // lump-sum deals carry no interest to strip out
	DealerCost         float64
	TradeInValue       float64
	TradeInMarketValue float64 // 0 means unknown
	CustomerBudget     float64 // monthly budget
	Sentiment          float64 // -1..1
	Rounds             int
}

// WinWinScore is the scored balance of a deal
type WinWinScore struct {
	Total          float64 `json:"total"`
	DealerScore    float64 `json:"dealer_score"`
	CustomerScore  float64 `json:"customer_score"`
	DealerMargin   float64 `json:"dealer_margin"`
	Satisfaction   float64 `json:"satisfaction"`
	FatiguePenalty float64 `json:"fatigue_penalty,omitempty"`
	Recommendation string  `json:"recommendation"`
	IsBalanced     bool    `json:"is_balanced"`
}

// ScoreWinWin rates how balanced a deal is between dealer margin and customer satisfaction.
// The total is always within [0, 100].
func ScoreWinWin(in WinWinInput) WinWinScore {
	dur := in.Duration
	if dur <= 0 {
		dur = 60
	}
	paid := in.Monthly * float64(dur)
	if !in.Cash {
		paid *= 1 - interestEstimate
	}
	estimated := paid + in.TradeInValue

	market := in.TradeInMarketValue
	if market <= 0 {
		market = in.TradeInValue * 0.95
	}

	margin := 0.0
	if in.DealerCost > 0 {
		margin = (estimated - in.DealerCost + (market - in.TradeInValue)) / in.DealerCost
	}
	dealer := dealerScore(margin)

	budget := in.CustomerBudget
	if budget <= 0 {
		budget = fallbackBudget
	}
	budgetFit := 1 - clamp((in.Monthly-budget)/budget, 0, 1)
	sentiment := clamp(in.Sentiment, -1, 1)
	satisfaction := budgetWeight*budgetFit + emotionWeight*(sentiment+1)/2

	premium := in.TradeInValue - market
	valueBonus := clamp(premium/premiumScale*premiumPoints, -maxValueBonus, maxValueBonus)
	customer := clamp(satisfaction*50+customerBaseline+valueBonus, 0, 100)

	total := math.Sqrt(dealer * customer)
	if gap := math.Abs(dealer - customer); gap > imbalanceAllowed {
		total -= imbalancePenalty * (gap - imbalanceAllowed)
	}
	fatigue := 0.0
	if in.Rounds > fatigueFreeRounds {
		fatigue = math.Min(float64(in.Rounds-fatigueFreeRounds)*fatiguePerRound, maxFatigue)
		total -= fatigue
	}
	total = roundTo(clamp(total, 0, 100), 1)

	return WinWinScore{
		Total:          total,
		DealerScore:    roundTo(dealer, 1),
		CustomerScore:  roundTo(customer, 1),
		DealerMargin:   roundTo(margin*100, 1),
		Satisfaction:   roundTo(satisfaction, 3),
		FatiguePenalty: fatigue,
		Recommendation: RecommendationFor(total),
		IsBalanced:     total >= 50 && total <= 70,
	}
}

func dealerScore(margin float64) float64 {
	switch {
	case margin < minMargin:
		return math.Max(0, margin/minMargin*30)
	case margin <= targetMargin:
		return 30 + (margin-minMargin)/(targetMargin-minMargin)*40
	case margin <= maxMargin:
		return 70 + (margin-targetMargin)/(maxMargin-targetMargin)*30
	}
	return 100
}

// RecommendationFor maps a total score to its bucket
func RecommendationFor(total float64) string {
	switch {
	case total < 30:
		return RecommendationPoor
	case total < 50:
		return RecommendationNeedsWork
	case total <= 70:
		return RecommendationBalanced
	}
	return RecommendationGenerous
}
