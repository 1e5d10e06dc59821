// Package recap assembles daily budget reports: today's activity, period
// spend, the payday forecast, and the burndown series behind it. Output
// is plain values plus a text rendering; richer presentation belongs to
// the consuming connector.
package recap

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/antonw/duitbot/internal/domain"
	"github.com/antonw/duitbot/internal/forecast"
	"github.com/antonw/duitbot/internal/store"
)

// fallbackPeriodDays is the reporting window used when a user has no
// budget configured.
const fallbackPeriodDays = 30

// Report is one user's complete recap for a day.
type Report struct {
	UserID string     `json:"user_id"`
	Date   civil.Date `json:"date"`

	Today       domain.DailySummary `json:"today"`
	PeriodStart civil.Date          `json:"period_start"`
	PeriodSpend decimal.Decimal     `json:"period_spend"`

	// Forecast is nil when the user has no budget configured.
	Forecast *domain.ForecastResult `json:"forecast,omitempty"`
	Series   *domain.BurndownSeries `json:"series,omitempty"`
}

// Service builds recap reports from the ledger and budget stores.
type Service struct {
	ledger  store.Ledger
	budgets store.BudgetStore
	log     zerolog.Logger
}

// NewService creates a recap service.
func NewService(ledger store.Ledger, budgets store.BudgetStore, log zerolog.Logger) *Service {
	return &Service{ledger: ledger, budgets: budgets, log: log}
}

// Generate assembles the recap for a user as of today. Users without a
// budget still get activity and period spend over the last
// fallbackPeriodDays days, just no forecast.
func (s *Service) Generate(ctx context.Context, userID string, today civil.Date) (*Report, error) {
	report := &Report{UserID: userID, Date: today}

	config, err := s.budgets.Get(ctx, userID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		report.PeriodStart = today.AddDays(-fallbackPeriodDays)
	case err != nil:
		return nil, fmt.Errorf("recap: loading budget: %w", err)
	default:
		report.PeriodStart = config.PeriodStart(today)
	}

	records, err := s.ledger.Query(ctx, store.Filter{
		UserID: userID,
		From:   report.PeriodStart,
		To:     today,
	})
	if err != nil {
		return nil, fmt.Errorf("recap: querying ledger: %w", err)
	}

	report.Today = summarizeDay(records, today)
	report.PeriodSpend = periodSpend(records)

	if config.Payday != 0 {
		result, err := forecast.Forecast(records, config, today)
		if err != nil {
			return nil, fmt.Errorf("recap: %w", err)
		}
		report.Forecast = &result

		series, err := forecast.Burndown(records, config, forecast.Window{
			Start: report.PeriodStart,
			End:   today,
		})
		if err != nil {
			return nil, fmt.Errorf("recap: %w", err)
		}
		report.Series = series
	}

	s.log.Debug().
		Str("user_id", userID).
		Str("period_spend", report.PeriodSpend.String()).
		Bool("has_forecast", report.Forecast != nil).
		Msg("recap generated")

	return report, nil
}

// summarizeDay aggregates one day's records.
func summarizeDay(records []domain.TransactionRecord, day civil.Date) domain.DailySummary {
	summary := domain.DailySummary{Date: day}
	for _, r := range records {
		if civil.DateOf(r.ParsedAt) != day {
			continue
		}
		summary.Count++
		switch r.Direction {
		case domain.DirectionIncome:
			summary.Incoming = summary.Incoming.Add(r.Amount.Amount)
		case domain.DirectionExpense:
			summary.Outgoing = summary.Outgoing.Add(r.Amount.Amount)
		}
	}
	summary.Net = summary.Incoming.Sub(summary.Outgoing)
	return summary
}

// periodSpend totals expenses across the queried period.
func periodSpend(records []domain.TransactionRecord) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		if r.Direction == domain.DirectionExpense {
			total = total.Add(r.Amount.Amount)
		}
	}
	return total
}
