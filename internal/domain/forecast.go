package domain

import (
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// WarningLevel classifies how a pay period is trending.
type WarningLevel string

const (
	// WarningOK means the projected balance is non-negative and spending
	// is within the daily limit.
	WarningOK WarningLevel = "ok"
	// WarningCaution means the projection is still non-negative but the
	// burn rate exceeds the daily limit.
	WarningCaution WarningLevel = "caution"
	// WarningOverBudget means the projected balance at payday is negative.
	WarningOverBudget WarningLevel = "over_budget"
)

// ForecastResult is a derived value, recomputed on each request and
// never persisted.
type ForecastResult struct {
	PeriodStart civil.Date `json:"period_start"`
	NextPayday  civil.Date `json:"next_payday"`

	DaysElapsed  int `json:"days_elapsed"`
	DaysToPayday int `json:"days_to_payday"`

	// SpentSoFar is expense minus income within the period. Transfers
	// are excluded since they do not change net worth.
	SpentSoFar decimal.Decimal `json:"spent_so_far"`
	BurnRate   decimal.Decimal `json:"burn_rate"`

	// ProjectedBalance is what remains of the period allowance at payday
	// if spending continues at the current burn rate.
	ProjectedBalance decimal.Decimal `json:"projected_balance"`

	// RecommendedDailyLimit spreads whatever remains over the days left.
	RecommendedDailyLimit decimal.Decimal `json:"recommended_daily_limit"`

	// DaysUntilRed is how many days until the remaining allowance runs
	// out at the current burn rate; nil when it never does.
	DaysUntilRed *int `json:"days_until_red,omitempty"`

	WarningLevel WarningLevel `json:"warning_level"`
}

// BurndownPoint is one day of the cumulative remaining-balance series.
type BurndownPoint struct {
	Date      civil.Date      `json:"date"`
	Remaining decimal.Decimal `json:"remaining"`
}

// BurndownSeries is a gap-free, ordered remaining-balance series over a
// requested window. It carries a cursor so callers can consume it as a
// restartable sequence.
type BurndownSeries struct {
	Points []BurndownPoint `json:"points"`

	pos int
}

// Next returns the point under the cursor and advances it. The second
// return value is false once the series is exhausted.
func (s *BurndownSeries) Next() (BurndownPoint, bool) {
	if s.pos >= len(s.Points) {
		return BurndownPoint{}, false
	}
	p := s.Points[s.pos]
	s.pos++
	return p, true
}

// Reset rewinds the cursor so the series can be replayed.
func (s *BurndownSeries) Reset() {
	s.pos = 0
}

// Len reports the number of points in the series.
func (s *BurndownSeries) Len() int {
	return len(s.Points)
}

// DailySummary aggregates a single day's transactions.
type DailySummary struct {
	Date     civil.Date      `json:"date"`
	Incoming decimal.Decimal `json:"incoming"`
	Outgoing decimal.Decimal `json:"outgoing"`
	Net      decimal.Decimal `json:"net"`
	Count    int             `json:"count"`
}
