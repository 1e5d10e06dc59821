package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"

	"github.com/antonw/duitbot/internal/export"
	"github.com/antonw/duitbot/internal/forecast"
	"github.com/antonw/duitbot/internal/logger"
	"github.com/antonw/duitbot/internal/parse"
	"github.com/antonw/duitbot/internal/store"
	storebq "github.com/antonw/duitbot/internal/store/bigquery"
)

func main() {
	log := logger.New("cli")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "parse":
		runParse(log)
	case "forecast":
		runForecast(log)
	case "burndown":
		runBurndown(log)
	case "export":
		runExport(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Duitbot CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  parse     Parse a transaction phrase and print the interpretation")
	fmt.Println("  forecast  Project the budget balance at the next payday")
	fmt.Println("  burndown  Print the remaining-budget series for a window")
	fmt.Println("  export    Render a ledger window as CSV")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

func openStore(ctx context.Context, project string, log zerolog.Logger) *storebq.Store {
	if project == "" {
		project = os.Getenv("GCP_PROJECT")
	}
	if project == "" {
		log.Fatal().Msg("Error: --project or GCP_PROJECT is required")
	}

	st, err := storebq.New(ctx, project)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open BigQuery store")
	}
	return st
}

func runParse(log zerolog.Logger) {
	fs := flag.NewFlagSet("parse", flag.ExitOnError)
	text := fs.String("text", "", "Transaction phrase to parse")
	fs.Parse(os.Args[2:])

	if *text == "" {
		log.Fatal().Msg("Error: --text is required")
	}

	record, needsConfirmation, err := parse.NewParser(log).Parse(*text)
	if err != nil {
		log.Fatal().Err(err).Msg("Parse failed")
	}

	out, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to render record")
	}
	fmt.Println(string(out))
	if needsConfirmation {
		fmt.Println("Interpretation is ambiguous; confirm before storing.")
	}
}

func runForecast(log zerolog.Logger) {
	fs := flag.NewFlagSet("forecast", flag.ExitOnError)
	userID := fs.String("user", "", "User ID")
	project := fs.String("project", "", "GCP project for BigQuery storage")
	dateStr := fs.String("date", "", "Forecast as-of date, YYYY-MM-DD (defaults to today)")
	fs.Parse(os.Args[2:])

	if *userID == "" {
		log.Fatal().Msg("Error: --user is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	today := civil.DateOf(time.Now())
	if *dateStr != "" {
		var err error
		if today, err = civil.ParseDate(*dateStr); err != nil {
			log.Fatal().Err(err).Msg("Invalid --date")
		}
	}

	st := openStore(ctx, *project, log)
	defer st.Close()

	config, err := st.Get(ctx, *userID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load budget")
	}

	records, err := st.Query(ctx, store.Filter{
		UserID: *userID,
		From:   config.PeriodStart(today),
		To:     today,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to query ledger")
	}

	result, err := forecast.Forecast(records, config, today)
	if err != nil {
		log.Fatal().Err(err).Msg("Forecast failed")
	}

	fmt.Printf("Period:      %s .. %s\n", result.PeriodStart, result.NextPayday)
	fmt.Printf("Spent:       %s over %d day(s)\n", result.SpentSoFar.StringFixed(2), result.DaysElapsed)
	fmt.Printf("Burn rate:   %s/day\n", result.BurnRate.StringFixed(2))
	fmt.Printf("Projected:   %s at payday\n", result.ProjectedBalance.StringFixed(2))
	fmt.Printf("Recommended: %s/day for %d day(s)\n", result.RecommendedDailyLimit.StringFixed(2), result.DaysToPayday)
	fmt.Printf("Status:      %s\n", result.WarningLevel)
	if result.DaysUntilRed != nil {
		fmt.Printf("Runs out in: %d day(s)\n", *result.DaysUntilRed)
	}
}

func runBurndown(log zerolog.Logger) {
	fs := flag.NewFlagSet("burndown", flag.ExitOnError)
	userID := fs.String("user", "", "User ID")
	project := fs.String("project", "", "GCP project for BigQuery storage")
	fromStr := fs.String("from", "", "Window start, YYYY-MM-DD")
	toStr := fs.String("to", "", "Window end, YYYY-MM-DD (defaults to today)")
	fs.Parse(os.Args[2:])

	if *userID == "" || *fromStr == "" {
		log.Fatal().Msg("Usage: cli burndown -user ID -from YYYY-MM-DD [-to YYYY-MM-DD]")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	window := forecast.Window{End: civil.DateOf(time.Now())}
	var err error
	if window.Start, err = civil.ParseDate(*fromStr); err != nil {
		log.Fatal().Err(err).Msg("Invalid --from")
	}
	if *toStr != "" {
		if window.End, err = civil.ParseDate(*toStr); err != nil {
			log.Fatal().Err(err).Msg("Invalid --to")
		}
	}

	st := openStore(ctx, *project, log)
	defer st.Close()

	config, err := st.Get(ctx, *userID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load budget")
	}

	records, err := st.Query(ctx, store.Filter{
		UserID: *userID,
		From:   window.Start,
		To:     window.End,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to query ledger")
	}

	series, err := forecast.Burndown(records, config, window)
	if err != nil {
		log.Fatal().Err(err).Msg("Burndown failed")
	}

	for {
		point, ok := series.Next()
		if !ok {
			break
		}
		fmt.Printf("%s  %s\n", point.Date, point.Remaining.StringFixed(2))
	}
}

func runExport(log zerolog.Logger) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	userID := fs.String("user", "", "User ID")
	project := fs.String("project", "", "GCP project for BigQuery storage")
	fromStr := fs.String("from", "", "Window start, YYYY-MM-DD")
	toStr := fs.String("to", "", "Window end, YYYY-MM-DD")
	outPath := fs.String("out", "", "Local output file (defaults to stdout)")
	fs.Parse(os.Args[2:])

	if *userID == "" {
		log.Fatal().Msg("Error: --user is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	filter := store.Filter{UserID: *userID}
	var err error
	if *fromStr != "" {
		if filter.From, err = civil.ParseDate(*fromStr); err != nil {
			log.Fatal().Err(err).Msg("Invalid --from")
		}
	}
	if *toStr != "" {
		if filter.To, err = civil.ParseDate(*toStr); err != nil {
			log.Fatal().Err(err).Msg("Invalid --to")
		}
	}

	st := openStore(ctx, *project, log)
	defer st.Close()

	records, err := st.Query(ctx, filter)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to query ledger")
	}

	out := os.Stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create output file")
		}
		defer f.Close()
		out = f
	}

	written, err := export.WriteCSV(out, records)
	if err != nil {
		log.Fatal().Err(err).Msg("Export failed")
	}

	if *outPath != "" {
		fmt.Printf("Wrote %d row(s) to %s\n", written, *outPath)
	}
}
