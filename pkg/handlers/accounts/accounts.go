package accounts

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/chris/membership-rewards/pkg/api"
	"github.com/chris/membership-rewards/pkg/models"
	"github.com/chris/membership-rewards/pkg/storage"
)

// Store is what the accounts handlers need: account CRUD plus the
// registration-time referral edge write.
type Store interface {
	storage.AccountStore
	storage.ReferralStore
}

// AccountsHandler holds the dependencies for account-related handlers.
type AccountsHandler struct {
	Store Store
}

// NewAccountsHandler creates a new AccountsHandler.
func NewAccountsHandler(store Store) *AccountsHandler {
	return &AccountsHandler{Store: store}
}

// CreateAccount registers a new account and, when a referrer is named,
// records the referral edge.
func (h *AccountsHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var newAccount api.NewAccount
	if err := json.NewDecoder(r.Body).Decode(&newAccount); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if newAccount.ID == "" {
		http.Error(w, "Account id is required", http.StatusBadRequest)
		return
	}

	domainAccount := api.ToDomainNewAccount(&newAccount)

	created, err := h.Store.CreateAccount(r.Context(), domainAccount)
	if err != nil {
		if strings.Contains(err.Error(), "already exists") {
			http.Error(w, "Account already exists", http.StatusConflict)
		} else {
			http.Error(w, fmt.Sprintf("Failed to create account: %v", err), http.StatusInternalServerError)
		}
		return
	}

	if newAccount.ReferrerID != "" {
		edge := &models.ReferralEdge{
			ReferrerID: newAccount.ReferrerID,
			ReferredID: newAccount.ID,
		}
		if err := h.Store.CreateEdge(r.Context(), edge); err != nil {
			http.Error(w, fmt.Sprintf("Failed to record referral edge: %v", err), http.StatusInternalServerError)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(api.ToAccount(created)); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}

// GetAccount retrieves one account by id.
func (h *AccountsHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")

	domainAccount, err := h.Store.GetAccount(r.Context(), accountID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "Account not found", http.StatusNotFound)
		} else {
			http.Error(w, fmt.Sprintf("Failed to retrieve account: %v", err), http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(api.ToAccount(domainAccount)); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}

// ListAccounts retrieves every account.
func (h *AccountsHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	domainAccounts, err := h.Store.ListAccounts(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to retrieve accounts: %v", err), http.StatusInternalServerError)
		return
	}

	apiAccounts := make([]*api.Account, len(domainAccounts))
	for i, account := range domainAccounts {
		apiAccounts[i] = api.ToAccount(&account)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(apiAccounts); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}
