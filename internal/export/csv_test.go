package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/antonw/duitbot/internal/domain"
)

func sampleRecords(n int) []domain.TransactionRecord {
	records := make([]domain.TransactionRecord, n)
	for i := range records {
		records[i] = domain.TransactionRecord{
			ID:        int64(i + 1),
			Direction: domain.DirectionExpense,
			Amount:    domain.AmountValue{Amount: decimal.NewFromInt(16000)},
			Source:    "gopay",
			Category:  "commuting",
			ParsedAt:  time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC),
			RawText:   "16k from gopay for commuting",
		}
	}
	return records
}

func TestWriteCSV(t *testing.T) {
	buf := &bytes.Buffer{}
	written, err := WriteCSV(buf, sampleRecords(2))
	if err != nil {
		t.Fatalf("WriteCSV error: %v", err)
	}
	if written != 2 {
		t.Errorf("written = %d, want 2", written)
	}

	rows, err := csv.NewReader(buf).ReadAll()
	if err != nil {
		t.Fatalf("reading back csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header plus 2", len(rows))
	}
	if rows[0][0] != "id" || rows[0][3] != "amount" {
		t.Errorf("unexpected header: %v", rows[0])
	}
	if rows[1][1] != "2025-03-01" || rows[1][3] != "16000" || rows[1][4] != "gopay" {
		t.Errorf("unexpected row: %v", rows[1])
	}
}

func TestWriteCSV_Cap(t *testing.T) {
	buf := &bytes.Buffer{}
	written, err := WriteCSV(buf, sampleRecords(MaxExportRows+5))
	if err != nil {
		t.Fatalf("WriteCSV error: %v", err)
	}
	if written != MaxExportRows {
		t.Errorf("written = %d, want cap %d", written, MaxExportRows)
	}
}

func TestWriteCSV_Empty(t *testing.T) {
	buf := &bytes.Buffer{}
	written, err := WriteCSV(buf, nil)
	if err != nil {
		t.Fatalf("WriteCSV error: %v", err)
	}
	if written != 0 {
		t.Errorf("written = %d, want 0", written)
	}
}
