package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/antonw/duitbot/internal/api/handlers"
	"github.com/antonw/duitbot/internal/api/middleware"
	"github.com/antonw/duitbot/internal/export"
	"github.com/antonw/duitbot/internal/jobs"
	jobsmem "github.com/antonw/duitbot/internal/jobs/inmemory"
	"github.com/antonw/duitbot/internal/logger"
	"github.com/antonw/duitbot/internal/parse"
	"github.com/antonw/duitbot/internal/store"
	storebq "github.com/antonw/duitbot/internal/store/bigquery"
	storemem "github.com/antonw/duitbot/internal/store/inmemory"
)

func main() {
	// Parse command-line flags
	var (
		port    = flag.String("port", "8080", "HTTP server port")
		bucket  = flag.String("bucket", os.Getenv("GCS_BUCKET"), "GCS bucket for export artifacts (or set GCS_BUCKET env)")
		project = flag.String("project", os.Getenv("GCP_PROJECT"), "GCP project for BigQuery storage; empty uses in-memory storage")
	)
	flag.Parse()

	log := logger.New("api")

	if *bucket == "" {
		log.Warn().Msg("No GCS bucket configured - export uploads will be disabled")
	}

	ctx := context.Background()

	// Pick the storage backend.
	var (
		ledger   store.Ledger
		budgets  store.BudgetStore
		accounts store.AccountStore
	)
	if *project != "" {
		bq, err := storebq.New(ctx, *project)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create BigQuery store")
		}
		defer bq.Close()
		ledger, budgets, accounts = bq, bq, bq
		log.Info().Str("project", *project).Msg("Using BigQuery storage")
	} else {
		ledger = storemem.NewLedger()
		budgets = storemem.NewBudgets()
		accounts = storemem.NewAccounts()
		log.Info().Msg("Using in-memory storage")
	}

	// Initialize job infrastructure
	jobStore := jobsmem.NewStore()
	jobQueue := jobsmem.NewQueue(100, jobStore)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	exportHandler := exportJobHandler(ledger, *bucket, log)

	go func() {
		log.Info().Msg("Starting export worker")
		if err := jobQueue.Start(workerCtx, exportHandler); err != nil {
			log.Error().Err(err).Msg("Export worker stopped with error")
		}
	}()

	// Initialize handlers
	recordsHandler := handlers.NewRecordsHandler(parse.NewParser(log), ledger, accounts, log)
	accountsHandler := handlers.NewAccountsHandler(accounts, log)
	budgetsHandler := handlers.NewBudgetsHandler(budgets, accounts, log)
	forecastHandler := handlers.NewForecastHandler(ledger, budgets, log)
	exportsHandler := handlers.NewExportsHandler(jobQueue, jobStore, log)

	// Create router
	mux := http.NewServeMux()

	mux.HandleFunc("/api/parse", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			recordsHandler.ParseText(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/records", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			recordsHandler.CreateRecord(w, r)
		case http.MethodGet:
			recordsHandler.ListRecords(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/records/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			id := strings.TrimPrefix(r.URL.Path, "/api/records/")
			if id == "" {
				middleware.WriteError(w, http.StatusBadRequest, "Record ID is required")
				return
			}
			recordsHandler.DeleteRecord(w, r, id)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/accounts", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			accountsHandler.CreateAccount(w, r)
		case http.MethodGet:
			accountsHandler.ListAccounts(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/accounts/resolve", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			accountsHandler.ResolveAccount(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/accounts/aliases", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			accountsHandler.AddAlias(w, r)
		case http.MethodDelete:
			accountsHandler.RemoveAlias(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/budget", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			budgetsHandler.GetBudget(w, r)
		case http.MethodPut:
			budgetsHandler.PutBudget(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/forecast", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			forecastHandler.GetForecast(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/burndown", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			forecastHandler.GetBurndown(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/exports", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			exportsHandler.CreateExport(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
			if jobID == "" {
				middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
				return
			}
			exportsHandler.GetJob(w, r, jobID)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Apply middleware
	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(mux),
			),
		),
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", *port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	cancelWorker()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	// Stop job queue and wait for in-flight jobs
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}

	log.Info().Msg("Server exited")
}

// exportJobHandler renders a user's ledger window to CSV and uploads it.
func exportJobHandler(ledger store.Ledger, bucket string, log zerolog.Logger) jobs.Handler {
	return func(ctx context.Context, job *jobs.ExportJob) error {
		if job.Bucket == "" {
			job.Bucket = bucket
		}
		if job.Bucket == "" {
			return fmt.Errorf("export job %s: no bucket configured", job.ID)
		}

		records, err := ledger.Query(ctx, store.Filter{
			UserID: job.UserID,
			From:   job.From,
			To:     job.To,
		})
		if err != nil {
			return fmt.Errorf("export job %s: query: %w", job.ID, err)
		}

		var buf bytes.Buffer
		written, err := export.WriteCSV(&buf, records)
		if err != nil {
			return fmt.Errorf("export job %s: render: %w", job.ID, err)
		}

		object := fmt.Sprintf("exports/%s/%s.csv", job.UserID, job.ID)
		uri, err := export.UploadToGCS(ctx, job.Bucket, object, buf.Bytes())
		if err != nil {
			return fmt.Errorf("export job %s: upload: %w", job.ID, err)
		}
		job.ResultURI = uri

		log.Info().
			Str("job_id", job.ID).
			Str("uri", uri).
			Int("rows", written).
			Msg("Export completed")
		return nil
	}
}
