package domain

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// DefaultWarningThreshold is the fraction of the remaining period
// allowance below which the forecast reports CAUTION.
const DefaultWarningThreshold = 0.2

// BudgetConfig holds a user's spending plan: how much they intend to
// spend per day and which day of the month their salary arrives. The
// engine never mutates it.
type BudgetConfig struct {
	UserID string `json:"user_id,omitempty"`

	// DailyLimit is the intended spend per calendar day. Must be positive.
	DailyLimit decimal.Decimal `json:"daily_limit"`

	// Payday is the day of month (1-31) salary arrives. Clamped to the
	// last day of shorter months.
	Payday int `json:"payday"`

	// WarningThreshold overrides DefaultWarningThreshold when positive.
	WarningThreshold float64 `json:"warning_threshold,omitempty"`
}

// Validate rejects a config before any computation runs.
func (c BudgetConfig) Validate() error {
	if !c.DailyLimit.IsPositive() {
		return fmt.Errorf("%w: daily limit must be positive, got %s", ErrInvalidBudgetConfig, c.DailyLimit)
	}
	if c.Payday < 1 || c.Payday > 31 {
		return fmt.Errorf("%w: payday must be 1-31, got %d", ErrInvalidBudgetConfig, c.Payday)
	}
	if c.WarningThreshold < 0 || c.WarningThreshold > 1 {
		return fmt.Errorf("%w: warning threshold must be 0-1, got %g", ErrInvalidBudgetConfig, c.WarningThreshold)
	}
	return nil
}

// EffectiveWarningThreshold returns the configured threshold or the
// package default when unset.
func (c BudgetConfig) EffectiveWarningThreshold() float64 {
	if c.WarningThreshold > 0 {
		return c.WarningThreshold
	}
	return DefaultWarningThreshold
}

// PeriodStart returns the first day of the pay period containing today:
// this month's payday if it has already arrived, otherwise last month's.
func (c BudgetConfig) PeriodStart(today civil.Date) civil.Date {
	payday := c.paydayInMonth(today.Year, today.Month)
	if today.Day >= payday.Day {
		return payday
	}
	prev := civil.Date{Year: today.Year, Month: today.Month, Day: 1}.AddDays(-1)
	return c.paydayInMonth(prev.Year, prev.Month)
}

// NextPayday returns the first payday strictly after the current period
// start. On payday itself the period restarts, so the next payday is a
// full month away.
func (c BudgetConfig) NextPayday(today civil.Date) civil.Date {
	payday := c.paydayInMonth(today.Year, today.Month)
	if today.Day < payday.Day {
		return payday
	}
	next := civil.Date{Year: today.Year, Month: today.Month, Day: 1}.AddDays(31)
	return c.paydayInMonth(next.Year, next.Month)
}

// DaysUntilPayday counts calendar days from today to the next payday.
func (c BudgetConfig) DaysUntilPayday(today civil.Date) int {
	return c.NextPayday(today).DaysSince(today)
}

// paydayInMonth clamps the configured day-of-month to the month's length,
// so payday 31 lands on Feb 28/29 rather than rolling over.
func (c BudgetConfig) paydayInMonth(year int, month time.Month) civil.Date {
	lastDay := civil.Date{Year: year, Month: month, Day: 1}.AddDays(31)
	lastDay = civil.Date{Year: lastDay.Year, Month: lastDay.Month, Day: 1}.AddDays(-1)
	day := c.Payday
	if day > lastDay.Day {
		day = lastDay.Day
	}
	return civil.Date{Year: year, Month: month, Day: day}
}
