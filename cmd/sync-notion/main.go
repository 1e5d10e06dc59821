package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"cloud.google.com/go/civil"

	"github.com/antonw/duitbot/internal/logger"
	"github.com/antonw/duitbot/internal/notionsync"
	"github.com/antonw/duitbot/internal/store"
	storebq "github.com/antonw/duitbot/internal/store/bigquery"
)

func main() {
	// Initialize structured logger
	log := logger.New("sync-notion")

	// Parse CLI flags
	userID := flag.String("user", "", "User ID whose ledger to sync (required)")
	project := flag.String("project", os.Getenv("GCP_PROJECT"), "GCP project for BigQuery storage (required)")
	fromStr := flag.String("from", "", "Window start in YYYY-MM-DD format")
	toStr := flag.String("to", "", "Window end in YYYY-MM-DD format")
	notionToken := flag.String("notion-token", os.Getenv("NOTION_TOKEN"), "Notion API token (required)")
	notionDBID := flag.String("notion-db-id", "", "Notion database ID (required)")
	dryRun := flag.Bool("dry-run", false, "Dry run mode - preview changes without syncing")
	flag.Parse()

	// Validate required flags
	if *userID == "" {
		log.Fatal().Msg("Error: --user is required")
	}
	if *project == "" {
		log.Fatal().Msg("Error: --project or GCP_PROJECT is required")
	}
	if *notionToken == "" {
		log.Fatal().Msg("Error: --notion-token or NOTION_TOKEN is required")
	}
	if *notionDBID == "" {
		log.Fatal().Msg("Error: --notion-db-id is required")
	}

	filter := store.Filter{UserID: *userID}
	var err error
	if *fromStr != "" {
		if filter.From, err = civil.ParseDate(*fromStr); err != nil {
			log.Fatal().Err(err).Str("from", *fromStr).Msg("Error: invalid from date, expected YYYY-MM-DD")
		}
	}
	if *toStr != "" {
		if filter.To, err = civil.ParseDate(*toStr); err != nil {
			log.Fatal().Err(err).Str("to", *toStr).Msg("Error: invalid to date, expected YYYY-MM-DD")
		}
	}
	if filter.From.IsValid() && filter.To.IsValid() && filter.To.Before(filter.From) {
		log.Fatal().
			Str("from", *fromStr).
			Str("to", *toStr).
			Msg("Error: to date must not precede from date")
	}

	// Create context with timeout so CLI doesn't hang
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	log.Info().
		Str("user_id", *userID).
		Bool("dry_run", *dryRun).
		Msg("Starting Notion sync")

	st, err := storebq.New(ctx, *project)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open BigQuery store")
	}
	defer st.Close()

	notionClient := notionsync.NewNotionClient(*notionToken)

	if err := notionsync.SyncRecords(ctx, st, notionClient, *notionDBID, filter, *dryRun); err != nil {
		log.Fatal().Err(err).Msg("Sync failed")
	}

	fmt.Println("Sync completed successfully.")
}
