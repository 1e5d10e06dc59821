package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"

	"github.com/antonw/duitbot/internal/api/middleware"
	"github.com/antonw/duitbot/internal/domain"
	"github.com/antonw/duitbot/internal/forecast"
	"github.com/antonw/duitbot/internal/jobs"
	"github.com/antonw/duitbot/internal/parse"
	"github.com/antonw/duitbot/internal/store"
)

// RecordsHandler handles parsing and ledger record endpoints.
type RecordsHandler struct {
	parser   *parse.Parser
	ledger   store.Ledger
	accounts store.AccountStore
	log      zerolog.Logger
}

// NewRecordsHandler creates a new records handler. The account registry
// may be nil; list queries then match account names literally instead
// of expanding aliases.
func NewRecordsHandler(parser *parse.Parser, ledger store.Ledger, accounts store.AccountStore, log zerolog.Logger) *RecordsHandler {
	return &RecordsHandler{
		parser:   parser,
		ledger:   ledger,
		accounts: accounts,
		log:      log,
	}
}

type parseRequest struct {
	UserID  string `json:"user_id"`
	Text    string `json:"text"`
	Confirm bool   `json:"confirm"`
}

type parseResponse struct {
	Record            *domain.TransactionRecord `json:"record"`
	NeedsConfirmation bool                      `json:"needs_confirmation"`
}

// ParseText handles POST /api/parse. It parses without persisting, so
// callers can show the interpretation before committing it.
func (h *RecordsHandler) ParseText(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.UserID == "" || req.Text == "" {
		middleware.WriteError(w, http.StatusBadRequest, "user_id and text are required")
		return
	}

	record, needsConfirmation, err := h.parser.Parse(req.Text)
	if err != nil {
		middleware.WriteError(w, parseStatus(err), err.Error())
		return
	}
	record.UserID = req.UserID

	middleware.WriteJSON(w, http.StatusOK, parseResponse{
		Record:            record,
		NeedsConfirmation: needsConfirmation,
	})
}

// CreateRecord handles POST /api/records. Parses and persists in one
// step; an interpretation that needs confirmation is returned with 422
// until the caller re-submits with confirm set.
func (h *RecordsHandler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.UserID == "" || req.Text == "" {
		middleware.WriteError(w, http.StatusBadRequest, "user_id and text are required")
		return
	}

	record, needsConfirmation, err := h.parser.Parse(req.Text)
	if err != nil {
		middleware.WriteError(w, parseStatus(err), err.Error())
		return
	}
	record.UserID = req.UserID

	if needsConfirmation && !req.Confirm {
		middleware.WriteJSON(w, http.StatusUnprocessableEntity, parseResponse{
			Record:            record,
			NeedsConfirmation: true,
		})
		return
	}

	id, err := h.ledger.Append(r.Context(), *record)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to append record")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to store record")
		return
	}
	record.ID = id

	h.log.Info().Int64("record_id", id).Str("user_id", req.UserID).Msg("Record stored")

	middleware.WriteJSON(w, http.StatusCreated, parseResponse{
		Record:            record,
		NeedsConfirmation: needsConfirmation,
	})
}

// ListRecords handles GET /api/records
func (h *RecordsHandler) ListRecords(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := store.Filter{
		UserID:    query.Get("user_id"),
		Account:   query.Get("account"),
		Category:  query.Get("category"),
		Direction: domain.Direction(query.Get("direction")),
	}
	if filter.UserID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	if filter.Direction != "" && !filter.Direction.Valid() {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid direction")
		return
	}

	var err error
	if filter.From, err = optionalDate(query.Get("from")); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid from date")
		return
	}
	if filter.To, err = optionalDate(query.Get("to")); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid to date")
		return
	}

	h.expandAccountFilter(r, &filter)

	records, err := h.ledger.Query(r.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to query records")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to query records")
		return
	}
	if records == nil {
		records = []domain.TransactionRecord{}
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"records": records,
		"count":   len(records),
	})
}

// DeleteRecord handles DELETE /api/records/{id}
func (h *RecordsHandler) DeleteRecord(w http.ResponseWriter, r *http.Request, rawID string) {
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid record ID")
		return
	}

	deleted, err := h.ledger.Delete(r.Context(), id)
	if err != nil {
		h.log.Error().Err(err).Int64("record_id", id).Msg("Failed to delete record")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to delete record")
		return
	}
	if !deleted {
		middleware.WriteError(w, http.StatusNotFound, "Record not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{"deleted": id})
}

// expandAccountFilter resolves the account query parameter through the
// registry. A registered name widens the filter to every alias of its
// canonical account, so "bca" also finds records logged as "bca main".
// Unregistered names fall through to the literal match.
func (h *RecordsHandler) expandAccountFilter(r *http.Request, filter *store.Filter) {
	if h.accounts == nil || filter.Account == "" {
		return
	}

	account, err := h.accounts.ResolveAlias(r.Context(), filter.UserID, filter.Account)
	if err != nil {
		return
	}
	aliases, err := h.accounts.Aliases(r.Context(), filter.UserID, account.ID)
	if err != nil || len(aliases) == 0 {
		return
	}

	filter.Accounts = aliases
	filter.Account = ""
}

// parseStatus maps parse failures onto HTTP statuses.
func parseStatus(err error) int {
	switch {
	case errors.Is(err, parse.ErrTextTooLong):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, domain.ErrNoNumericToken),
		errors.Is(err, domain.ErrMalformedAmount),
		errors.Is(err, domain.ErrIncompleteTransaction):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// BudgetsHandler handles budget configuration endpoints.
type BudgetsHandler struct {
	budgets  store.BudgetStore
	accounts store.AccountStore
	log      zerolog.Logger
}

// NewBudgetsHandler creates a new budgets handler. When an account
// registry is given, configuring a budget also bootstraps the user's
// default system accounts.
func NewBudgetsHandler(budgets store.BudgetStore, accounts store.AccountStore, log zerolog.Logger) *BudgetsHandler {
	return &BudgetsHandler{budgets: budgets, accounts: accounts, log: log}
}

// GetBudget handles GET /api/budget
func (h *BudgetsHandler) GetBudget(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	config, err := h.budgets.Get(r.Context(), userID)
	if errors.Is(err, store.ErrNotFound) {
		middleware.WriteError(w, http.StatusNotFound, "No budget configured")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load budget")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to load budget")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, config)
}

// PutBudget handles PUT /api/budget
func (h *BudgetsHandler) PutBudget(w http.ResponseWriter, r *http.Request) {
	var config domain.BudgetConfig
	if err := json.NewDecoder(r.Body).Decode(&config); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.budgets.Put(r.Context(), config); err != nil {
		if errors.Is(err, domain.ErrInvalidBudgetConfig) {
			middleware.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error().Err(err).Msg("Failed to store budget")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to store budget")
		return
	}

	// Budget setup doubles as onboarding: make sure the user's system
	// accounts exist.
	if h.accounts != nil {
		if err := store.EnsureDefaultAccounts(r.Context(), h.accounts, config.UserID); err != nil {
			h.log.Warn().Err(err).Str("user_id", config.UserID).Msg("Failed to bootstrap default accounts")
		}
	}

	middleware.WriteJSON(w, http.StatusOK, config)
}

// ForecastHandler handles forecast and burndown endpoints.
type ForecastHandler struct {
	ledger  store.Ledger
	budgets store.BudgetStore
	log     zerolog.Logger
}

// NewForecastHandler creates a new forecast handler.
func NewForecastHandler(ledger store.Ledger, budgets store.BudgetStore, log zerolog.Logger) *ForecastHandler {
	return &ForecastHandler{
		ledger:  ledger,
		budgets: budgets,
		log:     log,
	}
}

// GetForecast handles GET /api/forecast
func (h *ForecastHandler) GetForecast(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	today := civil.DateOf(time.Now())
	if raw := r.URL.Query().Get("date"); raw != "" {
		var err error
		if today, err = civil.ParseDate(raw); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid date")
			return
		}
	}

	config, err := h.budgets.Get(r.Context(), userID)
	if errors.Is(err, store.ErrNotFound) {
		middleware.WriteError(w, http.StatusNotFound, "No budget configured")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load budget")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to load budget")
		return
	}

	records, err := h.ledger.Query(r.Context(), store.Filter{
		UserID: userID,
		From:   config.PeriodStart(today),
		To:     today,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to query records")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to query records")
		return
	}

	result, err := forecast.Forecast(records, config, today)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	middleware.WriteJSON(w, http.StatusOK, result)
}

// GetBurndown handles GET /api/burndown
func (h *ForecastHandler) GetBurndown(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	userID := query.Get("user_id")
	if userID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	config, err := h.budgets.Get(r.Context(), userID)
	if errors.Is(err, store.ErrNotFound) {
		middleware.WriteError(w, http.StatusNotFound, "No budget configured")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load budget")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to load budget")
		return
	}

	today := civil.DateOf(time.Now())
	window := forecast.Window{Start: config.PeriodStart(today), End: today}
	if window.Start, err = dateOrDefault(query.Get("from"), window.Start); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid from date")
		return
	}
	if window.End, err = dateOrDefault(query.Get("to"), window.End); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid to date")
		return
	}

	records, err := h.ledger.Query(r.Context(), store.Filter{
		UserID: userID,
		From:   window.Start,
		To:     window.End,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to query records")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to query records")
		return
	}

	series, err := forecast.Burndown(records, config, window)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"points": series.Points,
		"count":  series.Len(),
	})
}

// ExportsHandler handles export job endpoints.
type ExportsHandler struct {
	publisher jobs.Publisher
	store     jobs.Store
	log       zerolog.Logger
}

// NewExportsHandler creates a new exports handler.
func NewExportsHandler(publisher jobs.Publisher, store jobs.Store, log zerolog.Logger) *ExportsHandler {
	return &ExportsHandler{
		publisher: publisher,
		store:     store,
		log:       log,
	}
}

// CreateExport handles POST /api/exports
func (h *ExportsHandler) CreateExport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"user_id"`
		From   string `json:"from"`
		To     string `json:"to"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.UserID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	job := &jobs.ExportJob{UserID: req.UserID}
	var err error
	if job.From, err = optionalDate(req.From); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid from date")
		return
	}
	if job.To, err = optionalDate(req.To); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid to date")
		return
	}

	if err := h.publisher.Publish(r.Context(), job); err != nil {
		h.log.Error().Err(err).Msg("Failed to enqueue export job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue export job")
		return
	}

	h.log.Info().Str("job_id", job.ID).Str("user_id", req.UserID).Msg("Export job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id": job.ID,
		"status": string(job.Status),
	})
}

// GetJob handles GET /api/jobs/{id}
func (h *ExportsHandler) GetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	job, err := h.store.Get(r.Context(), jobID)
	if err != nil {
		h.log.Error().Err(err).Str("job_id", jobID).Msg("Failed to get job")
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

func optionalDate(raw string) (civil.Date, error) {
	if raw == "" {
		return civil.Date{}, nil
	}
	return civil.ParseDate(raw)
}

func dateOrDefault(raw string, fallback civil.Date) (civil.Date, error) {
	if raw == "" {
		return fallback, nil
	}
	return civil.ParseDate(raw)
}
