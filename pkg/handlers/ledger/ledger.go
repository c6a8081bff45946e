package ledger

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/chris/membership-rewards/pkg/api"
	"github.com/chris/membership-rewards/pkg/models"
	"github.com/chris/membership-rewards/pkg/storage"
)

// Store is what the ledger handlers need: reads plus the admin purge.
type Store interface {
	storage.LedgerStore
	storage.BuyBackReader
}

// LedgerHandler holds the dependencies for ledger-related handlers.
type LedgerHandler struct {
	Store Store
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(store Store) *LedgerHandler {
	return &LedgerHandler{Store: store}
}

// ListLedgerEntries retrieves the most recent entries for an account.
func (h *LedgerHandler) ListLedgerEntries(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")

	limit := int32(20)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || parsed < 1 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = int32(parsed)
	}

	domainEntries, err := h.Store.ListLedgerEntries(r.Context(), accountID, limit)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to retrieve ledger entries: %v", err), http.StatusInternalServerError)
		return
	}

	respondEntries(w, domainEntries)
}

// ListEarningsBySource retrieves every entry the given account's triggers
// produced for others, i.e. the earnings its referrals generated.
func (h *LedgerHandler) ListEarningsBySource(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")

	domainEntries, err := h.Store.ListEntriesBySource(r.Context(), accountID)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to retrieve earnings: %v", err), http.StatusInternalServerError)
		return
	}

	respondEntries(w, domainEntries)
}

// PurgeCategory deletes a whole ledger category so an admin backfill can
// regenerate it. Gated on the admin claim header.
func (h *LedgerHandler) PurgeCategory(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("X-Admin-Id") == "" {
		http.Error(w, "Purge is admin-only", http.StatusForbidden)
		return
	}
	category := chi.URLParam(r, "category")
	if category == "" {
		http.Error(w, "Category is required", http.StatusBadRequest)
		return
	}

	deleted, err := h.Store.PurgeCategory(r.Context(), category)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to purge category: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(api.PurgeResult{Category: category, Deleted: deleted}); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}

// GetBuyBackPool retrieves the singleton buy-back pool.
func (h *LedgerHandler) GetBuyBackPool(w http.ResponseWriter, r *http.Request) {
	pool, err := h.Store.GetBuyBackPool(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to retrieve buy-back pool: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(api.ToBuyBackPool(pool)); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}

func respondEntries(w http.ResponseWriter, entries []models.LedgerEntry) {
	apiEntries := make([]*api.LedgerEntry, len(entries))
	for i, entry := range entries {
		apiEntries[i] = api.ToLedgerEntry(&entry)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(apiEntries); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}
