package negotiation

import "time"

// Clock provides the current time. The engine never calls time.Now directly.
type Clock interface {
	Now() time.Time
}

// RealClock returns the system time
type RealClock struct{}

// Now returns the current system time
func (RealClock) Now() time.Time {
	return time.Now()
}

// FixedClock always returns the same instant
type FixedClock struct {
	T time.Time
}

// Now returns the fixed time
func (c FixedClock) Now() time.Time {
	return c.T
}

// MarketContext carries calendar pressure that nudges concessions
type MarketContext struct {
	EndOfMonth   bool `json:"end_of_month"`
	EndOfQuarter bool `json:"end_of_quarter"`
	Weekend      bool `json:"weekend"`
	HighSeason   bool `json:"high_season"`
}

// MarketContextAt derives the calendar context for an instant
func MarketContextAt(t time.Time) MarketContext {
	month := t.Month()
	return MarketContext{
		EndOfMonth:   t.Day() >= 25,
		EndOfQuarter: (month == time.March || month == time.June || month == time.September || month == time.December) && t.Day() >= 20,
		Weekend:      t.Weekday() == time.Saturday || t.Weekday() == time.Sunday,
		HighSeason:   month == time.April || month == time.May || month == time.September || month == time.October,
	}
}
