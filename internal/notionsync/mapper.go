package notionsync

import (
	"strconv"
	"time"

	"cloud.google.com/go/civil"
	"github.com/jomei/notionapi"

	"github.com/antonw/duitbot/internal/domain"
)

// RecordToNotionProperties converts a ledger record to Notion properties.
// The Notion database needs: Description (title), Record ID (rich text),
// Date, Amount (number), Direction/Source/Destination/Category (select),
// Needs Confirmation (checkbox).
func RecordToNotionProperties(r domain.TransactionRecord) notionapi.Properties {
	amount, _ := r.Amount.Amount.Float64()

	props := notionapi.Properties{
		"Description": notionapi.TitleProperty{
			Title: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: r.RawText,
					},
				},
			},
		},
		"Record ID": notionapi.RichTextProperty{
			RichText: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: strconv.FormatInt(r.ID, 10),
					},
				},
			},
		},
		"Date": notionapi.DateProperty{
			Date: &notionapi.DateObject{
				Start: func() *notionapi.Date {
					day := civil.DateOf(r.ParsedAt)
					d := notionapi.Date(time.Date(
						day.Year, day.Month, day.Day,
						0, 0, 0, 0, time.UTC,
					))
					return &d
				}(),
			},
		},
		// Notion numbers are float64; the exact value stays in the ledger.
		"Amount": notionapi.NumberProperty{
			Number: amount,
		},
		"Direction": notionapi.SelectProperty{
			Select: notionapi.Option{
				Name: string(r.Direction),
			},
		},
	}

	if r.Source != "" {
		props["Source"] = notionapi.SelectProperty{
			Select: notionapi.Option{
				Name: r.Source,
			},
		}
	}

	if r.Destination != "" {
		props["Destination"] = notionapi.SelectProperty{
			Select: notionapi.Option{
				Name: r.Destination,
			},
		}
	}

	if r.Category != "" {
		props["Category"] = notionapi.SelectProperty{
			Select: notionapi.Option{
				Name: r.Category,
			},
		}
	}

	props["Needs Confirmation"] = notionapi.CheckboxProperty{
		Checkbox: r.Amount.Ambiguous,
	}

	return props
}

// extractRecordID reads the ledger record ID back out of a Notion page.
// Returns 0 if not found.
func extractRecordID(page notionapi.Page) int64 {
	prop, ok := page.Properties["Record ID"]
	if !ok {
		return 0
	}
	richText, ok := prop.(*notionapi.RichTextProperty)
	if !ok || len(richText.RichText) == 0 {
		return 0
	}
	id, err := strconv.ParseInt(richText.RichText[0].PlainText, 10, 64)
	if err != nil {
		return 0
	}
	return id
}
