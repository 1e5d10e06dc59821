// Package forecast derives forward-looking budget signals from an
// accumulated transaction set: burn rate, projected balance at payday,
// and the daily remaining-balance series behind burndown charts.
//
// Every function here is pure: no hidden state, no I/O, deterministic
// for identical inputs, safe to call concurrently.
package forecast

import (
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/antonw/duitbot/internal/domain"
)

// Forecast computes the budget signals for the pay period containing
// today. Records outside the period are ignored; transfers never count,
// since they do not change net worth.
func Forecast(records []domain.TransactionRecord, config domain.BudgetConfig, today civil.Date) (domain.ForecastResult, error) {
	if err := config.Validate(); err != nil {
		return domain.ForecastResult{}, fmt.Errorf("forecast: %w", err)
	}

	periodStart := config.PeriodStart(today)
	daysElapsed := today.DaysSince(periodStart)
	daysToPayday := config.DaysUntilPayday(today)

	spent := netSpend(records, periodStart, today)

	divisor := daysElapsed
	if divisor < 1 {
		divisor = 1
	}
	burnRate := spent.Div(decimal.NewFromInt(int64(divisor)))

	days := decimal.NewFromInt(int64(daysToPayday))
	projected := config.DailyLimit.Sub(burnRate).Mul(days)

	periodLength := int64(daysElapsed + daysToPayday)
	allowance := config.DailyLimit.Mul(decimal.NewFromInt(periodLength))
	remaining := allowance.Sub(spent)

	recommended := decimal.Zero
	if daysToPayday > 0 {
		recommended = remaining.Div(days)
	}
	if recommended.IsNegative() {
		recommended = decimal.Zero
	}

	result := domain.ForecastResult{
		PeriodStart:           periodStart,
		NextPayday:            config.NextPayday(today),
		DaysElapsed:           daysElapsed,
		DaysToPayday:          daysToPayday,
		SpentSoFar:            spent,
		BurnRate:              burnRate,
		ProjectedBalance:      projected,
		RecommendedDailyLimit: recommended,
		DaysUntilRed:          daysUntilRed(remaining, burnRate, daysToPayday),
		WarningLevel:          warningLevel(config, burnRate, projected, daysToPayday),
	}
	return result, nil
}

// netSpend sums expenses minus income for records dated inside
// [periodStart, today].
func netSpend(records []domain.TransactionRecord, periodStart, today civil.Date) decimal.Decimal {
	spent := decimal.Zero
	for _, r := range records {
		day := civil.DateOf(r.ParsedAt)
		if day.Before(periodStart) || day.After(today) {
			continue
		}
		switch r.Direction {
		case domain.DirectionExpense:
			spent = spent.Add(r.Amount.Amount)
		case domain.DirectionIncome:
			spent = spent.Sub(r.Amount.Amount)
		}
	}
	return spent
}

// warningLevel applies the threshold rules. A projection below zero is
// over budget; spending above the daily limit or a projection below the
// caution fraction of the remaining allowance trends there.
func warningLevel(config domain.BudgetConfig, burnRate, projected decimal.Decimal, daysToPayday int) domain.WarningLevel {
	if projected.IsNegative() {
		return domain.WarningOverBudget
	}
	if burnRate.GreaterThan(config.DailyLimit) {
		return domain.WarningCaution
	}
	threshold := decimal.NewFromFloat(config.EffectiveWarningThreshold())
	floor := config.DailyLimit.Mul(decimal.NewFromInt(int64(daysToPayday))).Mul(threshold)
	if projected.LessThan(floor) {
		return domain.WarningCaution
	}
	return domain.WarningOK
}

// daysUntilRed reports when the remaining allowance runs out at the
// current burn rate, or nil if it lasts until payday.
func daysUntilRed(remaining, burnRate decimal.Decimal, daysToPayday int) *int {
	if !remaining.IsPositive() {
		zero := 0
		return &zero
	}
	if !burnRate.IsPositive() {
		return nil
	}
	days := remaining.Div(burnRate).IntPart()
	if days >= int64(daysToPayday) {
		return nil
	}
	d := int(days)
	return &d
}
