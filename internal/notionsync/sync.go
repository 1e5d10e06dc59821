package notionsync

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"

	"github.com/antonw/duitbot/internal/logger"
	"github.com/antonw/duitbot/internal/store"
)

const (
	// BatchSize defines the number of records to process in a single batch
	BatchSize = 100
)

// SyncRecords mirrors the matching slice of the ledger into a Notion
// database. Pages whose Record ID no longer exists in the ledger are
// archived, missing records get new pages, and existing pages are
// refreshed from the ledger so the mirror cannot drift. The Record ID
// property keys idempotency, so reruns converge instead of duplicating.
func SyncRecords(ctx context.Context, ledger store.Ledger, notionClient NotionService, notionDBID string, filter store.Filter, dryRun bool) error {
	log := logger.FromContext(ctx)

	log.Info().
		Str("user_id", filter.UserID).
		Bool("dry_run", dryRun).
		Msg("Starting ledger sync to Notion")

	records, err := ledger.Query(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to query ledger: %w", err)
	}

	log.Info().Int("record_count", len(records)).Msg("Retrieved records from ledger")

	// Build set of valid record IDs from the ledger
	validRecordIDs := make(map[int64]bool)
	for _, r := range records {
		validRecordIDs[r.ID] = true
	}

	log.Info().Msg("Querying existing pages from Notion")
	notionPages, err := queryAllNotionPages(ctx, notionClient, notionDBID)
	if err != nil {
		return fmt.Errorf("failed to query Notion pages: %w", err)
	}

	log.Info().Int("notion_page_count", len(notionPages)).Msg("Retrieved existing Notion pages")

	// Build map of existing record IDs in Notion (for deduplication and
	// refreshing pages that drifted from the ledger)
	existingPages := make(map[int64]string)
	for _, page := range notionPages {
		if id := extractRecordID(page); id != 0 {
			existingPages[id] = string(page.ID)
		}
	}

	// Archive stale pages (deleted records, or pages without a Record ID)
	var deleted int
	for _, page := range notionPages {
		id := extractRecordID(page)
		if id != 0 && validRecordIDs[id] {
			continue
		}

		if dryRun {
			log.Info().
				Int64("record_id", id).
				Str("page_id", string(page.ID)).
				Msg("[DRY RUN] Would archive stale Notion page")
			deleted++
			continue
		}

		if err := notionClient.DeletePage(ctx, string(page.ID)); err != nil {
			log.Warn().
				Err(err).
				Int64("record_id", id).
				Str("page_id", string(page.ID)).
				Msg("Failed to archive stale Notion page")
			continue
		}
		log.Info().
			Int64("record_id", id).
			Str("page_id", string(page.ID)).
			Msg("Archived stale Notion page")
		deleted++
	}

	// Create pages for records Notion doesn't have yet; refresh the rest
	// so edits made in Notion converge back to the ledger's view
	var created, updated int
	for i := 0; i < len(records); i += BatchSize {
		end := i + BatchSize
		if end > len(records) {
			end = len(records)
		}

		for _, record := range records[i:end] {
			if pageID, ok := existingPages[record.ID]; ok {
				if dryRun {
					log.Info().
						Int64("record_id", record.ID).
						Str("page_id", pageID).
						Msg("[DRY RUN] Would refresh Notion page")
					updated++
					continue
				}

				props := RecordToNotionProperties(record)
				if _, err := notionClient.UpdatePage(ctx, pageID, props); err != nil {
					log.Warn().
						Err(err).
						Int64("record_id", record.ID).
						Str("page_id", pageID).
						Msg("Failed to refresh Notion page")
					continue
				}
				updated++
				continue
			}

			if dryRun {
				log.Info().
					Int64("record_id", record.ID).
					Msg("[DRY RUN] Would create Notion page")
				created++
				continue
			}

			props := RecordToNotionProperties(record)
			page, err := notionClient.CreatePage(ctx, notionDBID, props)
			if err != nil {
				log.Warn().
					Err(err).
					Int64("record_id", record.ID).
					Msg("Failed to create Notion page")
				continue
			}
			log.Info().
				Int64("record_id", record.ID).
				Str("page_id", string(page.ID)).
				Msg("Created Notion page")
			created++
		}
	}

	log.Info().
		Int("deleted", deleted).
		Int("created", created).
		Int("updated", updated).
		Int("total", len(records)).
		Msg("Ledger sync completed")

	return nil
}

// queryAllNotionPages queries all pages from a Notion database and returns them.
// Handles pagination automatically.
func queryAllNotionPages(ctx context.Context, notionClient NotionService, databaseID string) ([]notionapi.Page, error) {
	var allPages []notionapi.Page
	var cursor notionapi.Cursor

	for {
		req := &notionapi.DatabaseQueryRequest{
			PageSize: 100,
		}
		if cursor != "" {
			req.StartCursor = cursor
		}

		resp, err := notionClient.QueryDatabase(ctx, databaseID, req)
		if err != nil {
			return nil, fmt.Errorf("queryAllNotionPages: %w", err)
		}

		allPages = append(allPages, resp.Results...)

		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}

	return allPages, nil
}
