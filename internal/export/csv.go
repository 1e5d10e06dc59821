// Package export renders transaction records into shareable artifacts
// and ships them to cloud storage. Rendering stops at bytes; charts and
// spreadsheets are the presentation collaborator's problem.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/antonw/duitbot/internal/domain"
)

// MaxExportRows caps one export to keep artifacts bounded.
const MaxExportRows = 10000

var csvHeader = []string{
	"id", "date", "direction", "amount", "source", "destination", "category", "raw_text",
}

// WriteCSV streams records as CSV with a header row. Exports beyond
// MaxExportRows are truncated and the count of written rows returned.
func WriteCSV(w io.Writer, records []domain.TransactionRecord) (int, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return 0, fmt.Errorf("export csv: header: %w", err)
	}

	written := 0
	for _, r := range records {
		if written >= MaxExportRows {
			break
		}
		row := []string{
			strconv.FormatInt(r.ID, 10),
			r.ParsedAt.Format(time.DateOnly),
			string(r.Direction),
			r.Amount.Amount.String(),
			r.Source,
			r.Destination,
			r.Category,
			r.RawText,
		}
		if err := cw.Write(row); err != nil {
			return written, fmt.Errorf("export csv: row %d: %w", r.ID, err)
		}
		written++
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return written, fmt.Errorf("export csv: flush: %w", err)
	}
	return written, nil
}
