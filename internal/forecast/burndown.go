package forecast

import (
	"errors"
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/antonw/duitbot/internal/domain"
)

// ErrInvalidWindow is returned when a burndown window ends before it
// starts.
var ErrInvalidWindow = errors.New("invalid burndown window")

// Window is a closed date range.
type Window struct {
	Start civil.Date
	End   civil.Date
}

// Burndown produces one remaining-balance point per calendar day in the
// window: daily_limit x N minus the cumulative net expense through day
// N, counting from the window start. Days with no transactions still
// yield a point, carrying the accumulated rate forward, so the series is
// gap-free. The result is restartable via its cursor and any sub-window
// can be requested independently.
func Burndown(records []domain.TransactionRecord, config domain.BudgetConfig, window Window) (*domain.BurndownSeries, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("burndown: %w", err)
	}
	if window.End.Before(window.Start) {
		return nil, fmt.Errorf("burndown: %s before %s: %w", window.End, window.Start, ErrInvalidWindow)
	}

	perDay := map[civil.Date]decimal.Decimal{}
	for _, r := range records {
		day := civil.DateOf(r.ParsedAt)
		if day.Before(window.Start) || day.After(window.End) {
			continue
		}
		switch r.Direction {
		case domain.DirectionExpense:
			perDay[day] = perDay[day].Add(r.Amount.Amount)
		case domain.DirectionIncome:
			perDay[day] = perDay[day].Sub(r.Amount.Amount)
		}
	}

	series := &domain.BurndownSeries{}
	cumulative := decimal.Zero
	dayNumber := int64(0)
	for day := window.Start; !day.After(window.End); day = day.AddDays(1) {
		dayNumber++
		cumulative = cumulative.Add(perDay[day])
		remaining := config.DailyLimit.Mul(decimal.NewFromInt(dayNumber)).Sub(cumulative)
		series.Points = append(series.Points, domain.BurndownPoint{
			Date:      day,
			Remaining: remaining,
		})
	}
	return series, nil
}
