package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/antonw/duitbot/internal/domain"
	"github.com/antonw/duitbot/internal/logger"
	"github.com/antonw/duitbot/internal/store"
	"github.com/antonw/duitbot/internal/store/inmemory"
)

func newAccountsHandler(t *testing.T) (*AccountsHandler, *inmemory.Accounts) {
	t.Helper()
	accounts := inmemory.NewAccounts()
	return NewAccountsHandler(accounts, logger.New("handlers-test")), accounts
}

func storeDefaults(accounts *inmemory.Accounts) error {
	return store.EnsureDefaultAccounts(context.Background(), accounts, "u1")
}

func TestCreateAccount_InfersType(t *testing.T) {
	handler, _ := newAccountsHandler(t)

	body := `{"user_id":"u1","name":"BCA Savings"}`
	req := httptest.NewRequest(http.MethodPost, "/api/accounts", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.CreateAccount(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var account domain.Account
	if err := json.NewDecoder(rec.Body).Decode(&account); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if account.ID == 0 {
		t.Error("expected a store-assigned ID")
	}
	if account.Type != domain.AccountAsset {
		t.Errorf("inferred type = %s, want asset", account.Type)
	}
}

func TestCreateAccount_DuplicateName(t *testing.T) {
	handler, _ := newAccountsHandler(t)

	body := `{"user_id":"u1","name":"Cash","type":"asset"}`
	rec := httptest.NewRecorder()
	handler.CreateAccount(rec, httptest.NewRequest(http.MethodPost, "/api/accounts", strings.NewReader(body)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("first create status = %d", rec.Code)
	}

	// Same name, different casing.
	dup := `{"user_id":"u1","name":"cash","type":"asset"}`
	recDup := httptest.NewRecorder()
	handler.CreateAccount(recDup, httptest.NewRequest(http.MethodPost, "/api/accounts", strings.NewReader(dup)))
	if recDup.Code != http.StatusConflict {
		t.Errorf("duplicate status = %d, want 409", recDup.Code)
	}
}

func TestCreateAccount_UnknownType(t *testing.T) {
	handler, _ := newAccountsHandler(t)

	body := `{"user_id":"u1","name":"Cash","type":"crypto"}`
	rec := httptest.NewRecorder()
	handler.CreateAccount(rec, httptest.NewRequest(http.MethodPost, "/api/accounts", strings.NewReader(body)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for unknown type", rec.Code)
	}
}

func TestAliasLifecycle(t *testing.T) {
	handler, _ := newAccountsHandler(t)

	create := `{"user_id":"u1","name":"GoPay","type":"asset"}`
	recCreate := httptest.NewRecorder()
	handler.CreateAccount(recCreate, httptest.NewRequest(http.MethodPost, "/api/accounts", strings.NewReader(create)))
	if recCreate.Code != http.StatusCreated {
		t.Fatalf("create status = %d", recCreate.Code)
	}
	var account domain.Account
	if err := json.NewDecoder(recCreate.Body).Decode(&account); err != nil {
		t.Fatalf("decoding account: %v", err)
	}

	add := `{"user_id":"u1","alias":"Go-Pay","account_id":1}`
	recAdd := httptest.NewRecorder()
	handler.AddAlias(recAdd, httptest.NewRequest(http.MethodPost, "/api/accounts/aliases", strings.NewReader(add)))
	if recAdd.Code != http.StatusCreated {
		t.Fatalf("add alias status = %d, body %s", recAdd.Code, recAdd.Body)
	}

	// The uppercase spelling resolves through normalization.
	resolve := httptest.NewRequest(http.MethodGet, "/api/accounts/resolve?user_id=u1&name=GO-PAY", nil)
	recResolve := httptest.NewRecorder()
	handler.ResolveAccount(recResolve, resolve)
	if recResolve.Code != http.StatusOK {
		t.Fatalf("resolve status = %d, body %s", recResolve.Code, recResolve.Body)
	}
	if !strings.Contains(recResolve.Body.String(), `"name":"GoPay"`) {
		t.Errorf("resolve body = %s", recResolve.Body)
	}

	remove := httptest.NewRequest(http.MethodDelete, "/api/accounts/aliases?user_id=u1&alias=go-pay", nil)
	recRemove := httptest.NewRecorder()
	handler.RemoveAlias(recRemove, remove)
	if recRemove.Code != http.StatusOK {
		t.Fatalf("remove alias status = %d", recRemove.Code)
	}

	recGone := httptest.NewRecorder()
	handler.ResolveAccount(recGone, httptest.NewRequest(http.MethodGet, "/api/accounts/resolve?user_id=u1&name=go-pay", nil))
	if recGone.Code != http.StatusNotFound {
		t.Errorf("resolve after removal status = %d, want 404", recGone.Code)
	}
}

func TestAddAlias_TakenByAnotherAccount(t *testing.T) {
	handler, _ := newAccountsHandler(t)

	for _, name := range []string{"GoPay", "OVO"} {
		body := `{"user_id":"u1","name":"` + name + `","type":"asset"}`
		rec := httptest.NewRecorder()
		handler.CreateAccount(rec, httptest.NewRequest(http.MethodPost, "/api/accounts", strings.NewReader(body)))
		if rec.Code != http.StatusCreated {
			t.Fatalf("create %s status = %d", name, rec.Code)
		}
	}

	// "gopay" is already the canonical alias of account 1.
	add := `{"user_id":"u1","alias":"gopay","account_id":2}`
	rec := httptest.NewRecorder()
	handler.AddAlias(rec, httptest.NewRequest(http.MethodPost, "/api/accounts/aliases", strings.NewReader(add)))
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409 for taken alias", rec.Code)
	}
}

func TestListAccounts(t *testing.T) {
	handler, accounts := newAccountsHandler(t)

	if err := storeDefaults(accounts); err != nil {
		t.Fatalf("seeding defaults: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/accounts?user_id=u1", nil)
	rec := httptest.NewRecorder()
	handler.ListAccounts(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"count":3`) {
		t.Errorf("expected the three default accounts, body %s", rec.Body)
	}

	empty := httptest.NewRequest(http.MethodGet, "/api/accounts?user_id=nobody", nil)
	recEmpty := httptest.NewRecorder()
	handler.ListAccounts(recEmpty, empty)
	if !strings.Contains(recEmpty.Body.String(), `"accounts":[]`) {
		t.Errorf("expected an empty list, body %s", recEmpty.Body)
	}
}
