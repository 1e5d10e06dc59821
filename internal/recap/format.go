package recap

import (
	"fmt"
	"strings"

	"github.com/antonw/duitbot/internal/domain"
)

// FormatText renders a report as plain text for chat or terminal output.
func FormatText(r *Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Recap for %s\n", r.Date)
	fmt.Fprintf(&b, "Today: %d transaction(s), in %s, out %s, net %s\n",
		r.Today.Count,
		r.Today.Incoming.StringFixed(2),
		r.Today.Outgoing.StringFixed(2),
		r.Today.Net.StringFixed(2))
	fmt.Fprintf(&b, "Spent since %s: %s\n", r.PeriodStart, r.PeriodSpend.StringFixed(2))

	if r.Forecast == nil {
		b.WriteString("No budget configured; set a daily limit and payday to unlock forecasts.\n")
		return b.String()
	}

	f := r.Forecast
	fmt.Fprintf(&b, "Burn rate: %s/day over %d day(s)\n", f.BurnRate.StringFixed(2), f.DaysElapsed)
	fmt.Fprintf(&b, "Projected balance at payday (%s): %s\n", f.NextPayday, f.ProjectedBalance.StringFixed(2))
	fmt.Fprintf(&b, "Recommended daily limit: %s for the next %d day(s)\n",
		f.RecommendedDailyLimit.StringFixed(2), f.DaysToPayday)

	switch f.WarningLevel {
	case domain.WarningOverBudget:
		b.WriteString("Status: over budget. Spending must drop to recover by payday.\n")
	case domain.WarningCaution:
		b.WriteString("Status: caution. The current pace leaves little margin.\n")
		if f.DaysUntilRed != nil {
			fmt.Fprintf(&b, "At this pace the budget runs out in %d day(s).\n", *f.DaysUntilRed)
		}
	default:
		b.WriteString("Status: on track.\n")
	}

	return b.String()
}
