package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/antonw/duitbot/internal/api/middleware"
	"github.com/antonw/duitbot/internal/domain"
	"github.com/antonw/duitbot/internal/store"
)

// AccountsHandler handles the account registry endpoints.
type AccountsHandler struct {
	accounts store.AccountStore
	log      zerolog.Logger
}

// NewAccountsHandler creates a new accounts handler.
func NewAccountsHandler(accounts store.AccountStore, log zerolog.Logger) *AccountsHandler {
	return &AccountsHandler{accounts: accounts, log: log}
}

type accountRequest struct {
	UserID      string `json:"user_id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

type aliasRequest struct {
	UserID    string `json:"user_id"`
	Alias     string `json:"alias"`
	AccountID int64  `json:"account_id"`
}

// CreateAccount handles POST /api/accounts. Type may be omitted; it is
// then inferred from the name.
func (h *AccountsHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.UserID == "" || req.Name == "" {
		middleware.WriteError(w, http.StatusBadRequest, "user_id and name are required")
		return
	}

	accountType := domain.AccountType(req.Type)
	if req.Type == "" {
		accountType = domain.InferAccountType(req.Name)
	}

	account := domain.Account{
		UserID:      req.UserID,
		Name:        req.Name,
		Type:        accountType,
		Description: req.Description,
	}
	id, err := h.accounts.CreateAccount(r.Context(), account)
	if errors.Is(err, store.ErrAlreadyExists) {
		middleware.WriteError(w, http.StatusConflict, "Account name already exists")
		return
	}
	if errors.Is(err, domain.ErrInvalidAccount) {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to create account")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to create account")
		return
	}
	account.ID = id

	h.log.Info().Int64("account_id", id).Str("user_id", req.UserID).Msg("Account created")

	middleware.WriteJSON(w, http.StatusCreated, account)
}

// ListAccounts handles GET /api/accounts
func (h *AccountsHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	accounts, err := h.accounts.ListAccounts(r.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list accounts")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list accounts")
		return
	}
	if accounts == nil {
		accounts = []domain.Account{}
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"accounts": accounts,
		"count":    len(accounts),
	})
}

// ResolveAccount handles GET /api/accounts/resolve. It answers the
// "which account is this name?" lookup: the canonical account plus
// every alias pointing at it.
func (h *AccountsHandler) ResolveAccount(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	userID := query.Get("user_id")
	name := query.Get("name")
	if userID == "" || name == "" {
		middleware.WriteError(w, http.StatusBadRequest, "user_id and name are required")
		return
	}

	account, err := h.accounts.ResolveAlias(r.Context(), userID, name)
	if errors.Is(err, store.ErrNotFound) {
		middleware.WriteError(w, http.StatusNotFound, "Account name not registered")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to resolve account")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to resolve account")
		return
	}

	aliases, err := h.accounts.Aliases(r.Context(), userID, account.ID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list aliases")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list aliases")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"account": account,
		"aliases": aliases,
	})
}

// AddAlias handles POST /api/accounts/aliases
func (h *AccountsHandler) AddAlias(w http.ResponseWriter, r *http.Request) {
	var req aliasRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.UserID == "" || req.Alias == "" || req.AccountID == 0 {
		middleware.WriteError(w, http.StatusBadRequest, "user_id, alias and account_id are required")
		return
	}

	err := h.accounts.AddAlias(r.Context(), req.UserID, req.Alias, req.AccountID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		middleware.WriteError(w, http.StatusNotFound, "Account not found")
		return
	case errors.Is(err, store.ErrAlreadyExists):
		middleware.WriteError(w, http.StatusConflict, "Alias is mapped to another account")
		return
	case errors.Is(err, domain.ErrInvalidAccount):
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		h.log.Error().Err(err).Msg("Failed to add alias")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to add alias")
		return
	}

	h.log.Info().
		Str("alias", domain.NormalizeAlias(req.Alias)).
		Int64("account_id", req.AccountID).
		Msg("Alias added")

	middleware.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"alias":      domain.NormalizeAlias(req.Alias),
		"account_id": req.AccountID,
	})
}

// RemoveAlias handles DELETE /api/accounts/aliases
func (h *AccountsHandler) RemoveAlias(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	userID := query.Get("user_id")
	alias := query.Get("alias")
	if userID == "" || alias == "" {
		middleware.WriteError(w, http.StatusBadRequest, "user_id and alias are required")
		return
	}

	removed, err := h.accounts.RemoveAlias(r.Context(), userID, alias)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to remove alias")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to remove alias")
		return
	}
	if !removed {
		middleware.WriteError(w, http.StatusNotFound, "Alias not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"removed": domain.NormalizeAlias(alias),
	})
}
