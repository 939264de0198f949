package negotiation

import "github.com/Ananth-NQI/carnego-backend/internal/models"

// FrustrationUpdate is the result of recording one intent
type FrustrationUpdate struct {
	RecentIntents []models.Intent
	Level         int
	Repeated      models.Intent // empty unless the repeat rule fired
	Count         int
}

// TrackFrustration records an intent in the rolling window and raises the level
// when one intent dominates it. The level never decays here.
func (p Policy) TrackFrustration(recent []models.Intent, level int, intent models.Intent) FrustrationUpdate {
	window := p.FrustrationWindow
	if window <= 0 {
		window = 5
	}
	next := make([]models.Intent, 0, window)
	next = append(next, recent...)
	next = append(next, intent)
	if len(next) > window {
		next = next[len(next)-window:]
	}

	up := FrustrationUpdate{RecentIntents: next, Level: clampLevel(level, p.MaxFrustration)}
	top, count := mostFrequent(next)
	if count >= p.FrustrationRepeats {
		up.Repeated = top
		up.Count = count
		up.Level = clampLevel(up.Level+p.FrustrationStep, p.MaxFrustration)
	}
	return up
}

// mostFrequent returns the most common intent; ties go to the one seen first
func mostFrequent(intents []models.Intent) (models.Intent, int) {
	counts := make(map[models.Intent]int, len(intents))
	var top models.Intent
	best := 0
	for _, i := range intents {
		counts[i]++
	}
	for _, i := range intents {
		if counts[i] > best {
			top, best = i, counts[i]
		}
	}
	return top, best
}

func clampLevel(level, max int) int {
	if level < 0 {
		return 0
	}
	if level > max {
		return max
	}
	return level
}
