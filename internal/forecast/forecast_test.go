package forecast

import (
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/antonw/duitbot/internal/domain"
)

func testConfig() domain.BudgetConfig {
	return domain.BudgetConfig{
		DailyLimit: decimal.NewFromInt(50000),
		Payday:     25,
	}
}

func expenseOn(day civil.Date, amount int64) domain.TransactionRecord {
	return domain.TransactionRecord{
		Direction: domain.DirectionExpense,
		Amount:    domain.AmountValue{Amount: decimal.NewFromInt(amount)},
		Source:    "cash",
		ParsedAt:  day.In(time.UTC),
	}
}

func incomeOn(day civil.Date, amount int64) domain.TransactionRecord {
	return domain.TransactionRecord{
		Direction:   domain.DirectionIncome,
		Amount:      domain.AmountValue{Amount: decimal.NewFromInt(amount)},
		Destination: "main pocket",
		ParsedAt:    day.In(time.UTC),
	}
}

func transferOn(day civil.Date, amount int64) domain.TransactionRecord {
	return domain.TransactionRecord{
		Direction:   domain.DirectionTransfer,
		Amount:      domain.AmountValue{Amount: decimal.NewFromInt(amount)},
		Source:      "main pocket",
		Destination: "savings",
		ParsedAt:    day.In(time.UTC),
	}
}

func TestForecast_BurnRateAndProjection(t *testing.T) {
	today := civil.Date{Year: 2025, Month: time.March, Day: 30}
	periodStart := civil.Date{Year: 2025, Month: time.March, Day: 25}

	records := []domain.TransactionRecord{
		expenseOn(periodStart, 100000),
		expenseOn(periodStart.AddDays(2), 150000),
	}

	result, err := Forecast(records, testConfig(), today)
	if err != nil {
		t.Fatalf("Forecast error: %v", err)
	}

	if result.PeriodStart != periodStart {
		t.Errorf("period start = %v, want %v", result.PeriodStart, periodStart)
	}
	if result.DaysElapsed != 5 {
		t.Errorf("days elapsed = %d, want 5", result.DaysElapsed)
	}
	if result.DaysToPayday != 26 {
		t.Errorf("days to payday = %d, want 26", result.DaysToPayday)
	}
	if want := decimal.NewFromInt(250000); !result.SpentSoFar.Equal(want) {
		t.Errorf("spent = %s, want %s", result.SpentSoFar, want)
	}
	if want := decimal.NewFromInt(50000); !result.BurnRate.Equal(want) {
		t.Errorf("burn rate = %s, want %s", result.BurnRate, want)
	}
	// Burn rate equals the daily limit, so the projection is flat zero.
	if !result.ProjectedBalance.IsZero() {
		t.Errorf("projected balance = %s, want 0", result.ProjectedBalance)
	}
}

func TestForecast_TransfersExcluded(t *testing.T) {
	today := civil.Date{Year: 2025, Month: time.March, Day: 26}
	periodStart := civil.Date{Year: 2025, Month: time.March, Day: 25}

	records := []domain.TransactionRecord{
		expenseOn(periodStart, 30000),
		incomeOn(periodStart, 10000),
		transferOn(periodStart, 9999999),
	}

	result, err := Forecast(records, testConfig(), today)
	if err != nil {
		t.Fatalf("Forecast error: %v", err)
	}
	if want := decimal.NewFromInt(20000); !result.SpentSoFar.Equal(want) {
		t.Errorf("spent = %s, want %s (transfers must not count)", result.SpentSoFar, want)
	}
}

func TestForecast_DaysElapsedFloor(t *testing.T) {
	// On payday itself zero days have elapsed; the divisor floors at 1
	// instead of dividing by zero.
	today := civil.Date{Year: 2025, Month: time.March, Day: 25}
	records := []domain.TransactionRecord{expenseOn(today, 40000)}

	result, err := Forecast(records, testConfig(), today)
	if err != nil {
		t.Fatalf("Forecast error: %v", err)
	}
	if result.DaysElapsed != 0 {
		t.Errorf("days elapsed = %d, want 0", result.DaysElapsed)
	}
	if want := decimal.NewFromInt(40000); !result.BurnRate.Equal(want) {
		t.Errorf("burn rate = %s, want %s", result.BurnRate, want)
	}
}

func TestForecast_Idempotent(t *testing.T) {
	today := civil.Date{Year: 2025, Month: time.June, Day: 10}
	records := []domain.TransactionRecord{
		expenseOn(civil.Date{Year: 2025, Month: time.May, Day: 28}, 123457),
		incomeOn(civil.Date{Year: 2025, Month: time.June, Day: 1}, 50000),
	}

	first, err := Forecast(records, testConfig(), today)
	if err != nil {
		t.Fatalf("Forecast error: %v", err)
	}
	second, err := Forecast(records, testConfig(), today)
	if err != nil {
		t.Fatalf("Forecast error: %v", err)
	}

	if first.PeriodStart != second.PeriodStart ||
		first.DaysElapsed != second.DaysElapsed ||
		first.DaysToPayday != second.DaysToPayday ||
		!first.SpentSoFar.Equal(second.SpentSoFar) ||
		!first.BurnRate.Equal(second.BurnRate) ||
		!first.ProjectedBalance.Equal(second.ProjectedBalance) ||
		first.WarningLevel != second.WarningLevel {
		t.Errorf("forecast not idempotent:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestForecast_WarningLevels(t *testing.T) {
	today := civil.Date{Year: 2025, Month: time.March, Day: 30}
	periodStart := civil.Date{Year: 2025, Month: time.March, Day: 25}

	tests := []struct {
		name  string
		spend int64
		want  domain.WarningLevel
	}{
		{name: "well under the limit", spend: 50000, want: domain.WarningOK},
		{name: "at the limit exactly", spend: 250000, want: domain.WarningCaution},
		{name: "over the limit", spend: 400000, want: domain.WarningOverBudget},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := []domain.TransactionRecord{expenseOn(periodStart, tt.spend)}
			result, err := Forecast(records, testConfig(), today)
			if err != nil {
				t.Fatalf("Forecast error: %v", err)
			}
			if result.WarningLevel != tt.want {
				t.Errorf("spend %d: warning = %v, want %v", tt.spend, result.WarningLevel, tt.want)
			}
		})
	}
}

func TestForecast_WarningMonotonic(t *testing.T) {
	// Increasing cumulative expense never relaxes the warning level.
	today := civil.Date{Year: 2025, Month: time.March, Day: 30}
	periodStart := civil.Date{Year: 2025, Month: time.March, Day: 25}

	rank := map[domain.WarningLevel]int{
		domain.WarningOK:         0,
		domain.WarningCaution:    1,
		domain.WarningOverBudget: 2,
	}

	previous := -1
	for spend := int64(0); spend <= 2_000_000; spend += 50_000 {
		records := []domain.TransactionRecord{expenseOn(periodStart, spend)}
		result, err := Forecast(records, testConfig(), today)
		if err != nil {
			t.Fatalf("Forecast error at spend %d: %v", spend, err)
		}
		level := rank[result.WarningLevel]
		if level < previous {
			t.Fatalf("warning relaxed at spend %d: rank %d after %d", spend, level, previous)
		}
		previous = level
	}
}

func TestForecast_InvalidConfig(t *testing.T) {
	today := civil.Date{Year: 2025, Month: time.March, Day: 30}

	tests := []struct {
		name   string
		config domain.BudgetConfig
	}{
		{name: "zero limit", config: domain.BudgetConfig{Payday: 25}},
		{name: "negative limit", config: domain.BudgetConfig{DailyLimit: decimal.NewFromInt(-5), Payday: 25}},
		{name: "payday zero", config: domain.BudgetConfig{DailyLimit: decimal.NewFromInt(100), Payday: 0}},
		{name: "payday too high", config: domain.BudgetConfig{DailyLimit: decimal.NewFromInt(100), Payday: 32}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Forecast(nil, tt.config, today)
			if !errors.Is(err, domain.ErrInvalidBudgetConfig) {
				t.Errorf("Forecast error = %v, want ErrInvalidBudgetConfig", err)
			}
		})
	}
}

func TestBudgetConfig_PaydayClamped(t *testing.T) {
	config := domain.BudgetConfig{DailyLimit: decimal.NewFromInt(100), Payday: 31}

	// February has no day 31; the payday clamps to month end.
	today := civil.Date{Year: 2025, Month: time.February, Day: 10}
	start := config.PeriodStart(today)
	want := civil.Date{Year: 2025, Month: time.January, Day: 31}
	if start != want {
		t.Errorf("period start = %v, want %v", start, want)
	}

	next := config.NextPayday(today)
	wantNext := civil.Date{Year: 2025, Month: time.February, Day: 28}
	if next != wantNext {
		t.Errorf("next payday = %v, want %v", next, wantNext)
	}
}

func TestBudgetConfig_PaydayWraps(t *testing.T) {
	config := testConfig()

	// Past this month's payday: the next one is in the following month.
	today := civil.Date{Year: 2025, Month: time.December, Day: 28}
	next := config.NextPayday(today)
	want := civil.Date{Year: 2026, Month: time.January, Day: 25}
	if next != want {
		t.Errorf("next payday = %v, want %v", next, want)
	}
	if days := config.DaysUntilPayday(today); days != 28 {
		t.Errorf("days until payday = %d, want 28", days)
	}
}
