package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cloud.google.com/go/civil"
	"github.com/robfig/cron/v3"

	"github.com/antonw/duitbot/internal/logger"
	"github.com/antonw/duitbot/internal/recap"
	storebq "github.com/antonw/duitbot/internal/store/bigquery"
)

func main() {
	var (
		project  = flag.String("project", os.Getenv("GCP_PROJECT"), "GCP project for BigQuery storage")
		users    = flag.String("users", os.Getenv("RECAP_USERS"), "Comma-separated user IDs to recap")
		schedule = flag.String("schedule", "0 21 * * *", "Cron schedule for the daily recap")
	)
	flag.Parse()

	log := logger.New("worker")

	if *project == "" {
		log.Fatal().Msg("Error: --project or GCP_PROJECT is required")
	}
	userIDs := splitUsers(*users)
	if len(userIDs) == 0 {
		log.Fatal().Msg("Error: --users or RECAP_USERS is required")
	}

	ctx := context.Background()
	st, err := storebq.New(ctx, *project)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open BigQuery store")
	}
	defer st.Close()

	service := recap.NewService(st, st, log)

	runRecaps := func() {
		runCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
		defer cancel()

		today := civil.DateOf(time.Now())
		for _, userID := range userIDs {
			report, err := service.Generate(runCtx, userID, today)
			if err != nil {
				log.Error().Err(err).Str("user_id", userID).Msg("Recap failed")
				continue
			}
			fmt.Println(recap.FormatText(report))
			log.Info().Str("user_id", userID).Msg("Recap emitted")
		}
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(*schedule, runRecaps); err != nil {
		log.Fatal().Err(err).Str("schedule", *schedule).Msg("Invalid cron schedule")
	}
	scheduler.Start()

	log.Info().
		Str("schedule", *schedule).
		Int("users", len(userIDs)).
		Msg("Recap worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down recap worker...")

	// Wait for a running recap to finish before exiting.
	stopCtx := scheduler.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(30 * time.Second):
		log.Warn().Msg("Timed out waiting for running recap")
	}

	log.Info().Msg("Recap worker exited")
}

func splitUsers(raw string) []string {
	var ids []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			ids = append(ids, trimmed)
		}
	}
	return ids
}
