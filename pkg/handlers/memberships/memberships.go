package memberships

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/chris/membership-rewards/pkg/api"
	"github.com/chris/membership-rewards/pkg/models"
	"github.com/chris/membership-rewards/pkg/rewards"
	"github.com/chris/membership-rewards/pkg/storage"
)

// Engine is the trigger surface of the reward engine.
type Engine interface {
	Activate(ctx context.Context, accountID, packageID string, selection models.PalliativeType, receipt rewards.Receipt) (*models.Distribution, error)
	Renew(ctx context.Context, accountID string, receipt rewards.Receipt) (*models.Distribution, error)
	Upgrade(ctx context.Context, accountID, newPackageID string, selection models.PalliativeType) (*models.Distribution, error)
}

// MembershipsHandler holds the dependencies for the trigger endpoints.
type MembershipsHandler struct {
	Engine Engine
}

// NewMembershipsHandler creates a new MembershipsHandler.
func NewMembershipsHandler(engine Engine) *MembershipsHandler {
	return &MembershipsHandler{Engine: engine}
}

// Activate handles a first activation trigger.
func (h *MembershipsHandler) Activate(w http.ResponseWriter, r *http.Request) {
	var req api.ActivateMembership
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	d, err := h.Engine.Activate(r.Context(), req.AccountID, req.PackageID,
		models.PalliativeType(req.PalliativeSelection),
		rewards.Receipt{Reference: req.Payment.Reference, Confirmed: req.Payment.Confirmed})
	if err != nil {
		writeEngineError(w, "activate membership", err)
		return
	}

	respondDistribution(w, d)
}

// Renew handles a renewal trigger.
func (h *MembershipsHandler) Renew(w http.ResponseWriter, r *http.Request) {
	var req api.RenewMembership
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	d, err := h.Engine.Renew(r.Context(), req.AccountID,
		rewards.Receipt{Reference: req.Payment.Reference, Confirmed: req.Payment.Confirmed})
	if err != nil {
		writeEngineError(w, "renew membership", err)
		return
	}

	respondDistribution(w, d)
}

// Upgrade handles a differential upgrade trigger.
func (h *MembershipsHandler) Upgrade(w http.ResponseWriter, r *http.Request) {
	var req api.UpgradeMembership
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	d, err := h.Engine.Upgrade(r.Context(), req.AccountID, req.PackageID,
		models.PalliativeType(req.PalliativeSelection))
	if err != nil {
		writeEngineError(w, "upgrade membership", err)
		return
	}

	respondDistribution(w, d)
}

func respondDistribution(w http.ResponseWriter, d *models.Distribution) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(api.ToDistributionResult(d)); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}

// writeEngineError maps the engine's sentinel errors onto HTTP statuses.
func writeEngineError(w http.ResponseWriter, action string, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		http.Error(w, fmt.Sprintf("Failed to %s: %v", action, err), http.StatusNotFound)
	case errors.Is(err, storage.ErrDuplicateTrigger):
		http.Error(w, "Trigger already applied", http.StatusConflict)
	case errors.Is(err, storage.ErrNotEligible):
		http.Error(w, fmt.Sprintf("Not eligible: %v", err), http.StatusUnprocessableEntity)
	case errors.Is(err, storage.ErrInsufficientBalance):
		http.Error(w, "Insufficient balance", http.StatusUnprocessableEntity)
	case errors.Is(err, storage.ErrVersionConflict):
		http.Error(w, "Concurrent update, retry", http.StatusConflict)
	default:
		http.Error(w, fmt.Sprintf("Failed to %s: %v", action, err), http.StatusInternalServerError)
	}
}
