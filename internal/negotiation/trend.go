package negotiation

import (
	"math"
	"time"

	"github.com/Ananth-NQI/carnego-backend/internal/models"
)

// Trend directions
const (
	DirectionNone      = "directionless"
	DirectionImproving = "improving"
	DirectionDeclining = "declining"
	DirectionStable    = "stable"
	DirectionVolatile  = "volatile"
)

// Risk levels
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

const (
	trendDelta        = 0.2
	volatileAbove     = 0.4
	highRiskSentiment = -0.5
	highRiskIntensity = 0.7
	positiveToneAbove = 0.3
	negativeToneBelow = -0.3
)

// TrendReport is the derived view of an emotional trend; nothing here is persisted
type TrendReport struct {
	Direction        string                 `json:"direction"`
	Volatility       float64                `json:"volatility"`
	Risk             string                 `json:"risk"`
	CurrentSentiment float64                `json:"current_sentiment"`
	AverageSentiment float64                `json:"average_sentiment"`
	OverallTone      string                 `json:"overall_tone"`
	Distribution     map[models.Emotion]int `json:"distribution"`
	Readings         int                    `json:"readings"`
	Approach         string                 `json:"approach"`
}

// AddReading appends a reading, clamping intensity and sentiment into range
func AddReading(t models.EmotionalTrend, emotion models.Emotion, intensity, sentiment float64, at time.Time) models.EmotionalTrend {
	readings := make([]models.EmotionReading, len(t.Readings), len(t.Readings)+1)
	copy(readings, t.Readings)
	readings = append(readings, models.EmotionReading{
		Emotion:   emotion,
		Intensity: clamp(intensity, 0, 1),
		Sentiment: clamp(sentiment, -1, 1),
		Timestamp: at,
	})
	return models.EmotionalTrend{Readings: readings}
}

// AnalyzeTrend derives direction, volatility and risk from the reading history
func AnalyzeTrend(t models.EmotionalTrend) TrendReport {
	n := len(t.Readings)
	report := TrendReport{
		Direction:    DirectionNone,
		Risk:         RiskLow,
		OverallTone:  "neutral",
		Distribution: make(map[models.Emotion]int),
		Readings:     n,
	}
	if n == 0 {
		report.Approach = approachFor(report.Direction, report.Risk)
		return report
	}

	sum := 0.0
	for _, r := range t.Readings {
		sum += r.Sentiment
		report.Distribution[r.Emotion]++
	}
	avg := sum / float64(n)
	last := t.Readings[n-1]
	report.AverageSentiment = roundTo(avg, 2)
	report.CurrentSentiment = last.Sentiment
	switch {
	case avg > positiveToneAbove:
		report.OverallTone = "positive"
	case avg < negativeToneBelow:
		report.OverallTone = "negative"
	}

	if n >= 2 {
		half := n / 2
		delta := meanSentiment(t.Readings[half:]) - meanSentiment(t.Readings[:half])
		switch {
		case delta > trendDelta:
			report.Direction = DirectionImproving
		case delta < -trendDelta:
			report.Direction = DirectionDeclining
		default:
			report.Direction = DirectionStable
		}

		diffs := 0.0
		for i := 1; i < n; i++ {
			diffs += math.Abs(t.Readings[i].Sentiment - t.Readings[i-1].Sentiment)
		}
		report.Volatility = roundTo(diffs/float64(n-1), 3)
		if report.Volatility > volatileAbove {
			report.Direction = DirectionVolatile
		}
	}

	declining := report.Direction == DirectionDeclining
	switch {
	case last.Sentiment < highRiskSentiment || (declining && last.Intensity > highRiskIntensity):
		report.Risk = RiskHigh
	case last.Sentiment < 0 || declining:
		report.Risk = RiskMedium
	}
	report.Approach = approachFor(report.Direction, report.Risk)
	return report
}

// CurrentSentiment returns the latest sentiment, or 0 without readings
func CurrentSentiment(t models.EmotionalTrend) float64 {
	if len(t.Readings) == 0 {
		return 0
	}
	return t.Readings[len(t.Readings)-1].Sentiment
}

func meanSentiment(rs []models.EmotionReading) float64 {
	if len(rs) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range rs {
		sum += r.Sentiment
	}
	return sum / float64(len(rs))
}

func approachFor(direction, risk string) string {
	switch {
	case risk == RiskHigh:
		return "de_escalate"
	case direction == DirectionDeclining:
		return "show_empathy"
	case direction == DirectionVolatile:
		return "stabilize"
	case direction == DirectionImproving:
		return "guide_to_close"
	}
	return "continue"
}
