package empowerments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/chris/membership-rewards/pkg/api"
	"github.com/chris/membership-rewards/pkg/empowerment"
	"github.com/chris/membership-rewards/pkg/models"
	"github.com/chris/membership-rewards/pkg/rewards"
	"github.com/chris/membership-rewards/pkg/storage"
)

// AdminHeader carries the pre-authenticated admin claim. The gateway in
// front of this service validates the identity; the handlers only check
// presence.
const AdminHeader = "X-Admin-Id"

// Service is the lifecycle surface the handlers drive.
type Service interface {
	Activate(ctx context.Context, params empowerment.ActivateParams) (*models.EmpowermentPackage, error)
	CheckMaturity(ctx context.Context, packageID, actorID string) (*models.EmpowermentPackage, error)
	Approve(ctx context.Context, packageID, adminID string, isAdmin bool) (*models.EmpowermentPackage, error)
	Release(ctx context.Context, packageID, adminID string, isAdmin bool) (*models.EmpowermentPackage, error)
	TriggerFallback(ctx context.Context, packageID, adminID string, isAdmin bool) (*models.EmpowermentPackage, error)
	Convert(ctx context.Context, packageID, sponsorID, targetPackageID string) (*models.EmpowermentPackage, error)
}

// EmpowermentsHandler holds the dependencies for the lifecycle endpoints.
type EmpowermentsHandler struct {
	Service Service
	Store   storage.EmpowermentStore
}

// NewEmpowermentsHandler creates a new EmpowermentsHandler.
func NewEmpowermentsHandler(service Service, store storage.EmpowermentStore) *EmpowermentsHandler {
	return &EmpowermentsHandler{Service: service, Store: store}
}

// CreateEmpowerment activates a new sponsor-funded package.
func (h *EmpowermentsHandler) CreateEmpowerment(w http.ResponseWriter, r *http.Request) {
	var req api.NewEmpowerment
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	created, err := h.Service.Activate(r.Context(), empowerment.ActivateParams{
		SponsorID:     req.SponsorID,
		BeneficiaryID: req.BeneficiaryID,
		Fee:           req.Fee,
		VAT:           req.VAT,
		GrossValue:    req.GrossValue,
		GrossReward:   req.GrossReward,
		FallbackGross: req.FallbackGross,
		Receipt:       rewards.Receipt{Reference: req.Payment.Reference, Confirmed: req.Payment.Confirmed},
	})
	if err != nil {
		writeLifecycleError(w, "create empowerment", err)
		return
	}

	respondEmpowerment(w, http.StatusCreated, created)
}

// GetEmpowerment retrieves one package by id.
func (h *EmpowermentsHandler) GetEmpowerment(w http.ResponseWriter, r *http.Request) {
	packageID := chi.URLParam(r, "empowermentID")

	pkg, err := h.Store.GetEmpowerment(r.Context(), packageID)
	if err != nil {
		writeLifecycleError(w, "retrieve empowerment", err)
		return
	}

	respondEmpowerment(w, http.StatusOK, pkg)
}

// CheckMaturity moves a matured package to pending-maturity review.
func (h *EmpowermentsHandler) CheckMaturity(w http.ResponseWriter, r *http.Request) {
	packageID := chi.URLParam(r, "empowermentID")
	actorID := r.Header.Get(AdminHeader)
	if actorID == "" {
		actorID = "system"
	}

	pkg, err := h.Service.CheckMaturity(r.Context(), packageID, actorID)
	if err != nil {
		writeLifecycleError(w, "check maturity", err)
		return
	}

	respondEmpowerment(w, http.StatusOK, pkg)
}

// Approve applies the admin approval and freezes the total tax.
func (h *EmpowermentsHandler) Approve(w http.ResponseWriter, r *http.Request) {
	packageID := chi.URLParam(r, "empowermentID")
	adminID := r.Header.Get(AdminHeader)

	pkg, err := h.Service.Approve(r.Context(), packageID, adminID, adminID != "")
	if err != nil {
		writeLifecycleError(w, "approve empowerment", err)
		return
	}

	respondEmpowerment(w, http.StatusOK, pkg)
}

// Release pays out an approved package.
func (h *EmpowermentsHandler) Release(w http.ResponseWriter, r *http.Request) {
	packageID := chi.URLParam(r, "empowermentID")
	adminID := r.Header.Get(AdminHeader)

	pkg, err := h.Service.Release(r.Context(), packageID, adminID, adminID != "")
	if err != nil {
		writeLifecycleError(w, "release empowerment", err)
		return
	}

	respondEmpowerment(w, http.StatusOK, pkg)
}

// Fallback applies the fallback protection payout.
func (h *EmpowermentsHandler) Fallback(w http.ResponseWriter, r *http.Request) {
	packageID := chi.URLParam(r, "empowermentID")
	adminID := r.Header.Get(AdminHeader)

	pkg, err := h.Service.TriggerFallback(r.Context(), packageID, adminID, adminID != "")
	if err != nil {
		writeLifecycleError(w, "trigger fallback", err)
		return
	}

	respondEmpowerment(w, http.StatusOK, pkg)
}

// Convert lets the sponsor swap the package for a standard membership.
func (h *EmpowermentsHandler) Convert(w http.ResponseWriter, r *http.Request) {
	packageID := chi.URLParam(r, "empowermentID")

	var req api.ConvertEmpowerment
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	pkg, err := h.Service.Convert(r.Context(), packageID, req.SponsorID, req.TargetPackageID)
	if err != nil {
		writeLifecycleError(w, "convert empowerment", err)
		return
	}

	respondEmpowerment(w, http.StatusOK, pkg)
}

// ListTransitions retrieves the audit trail of a package.
func (h *EmpowermentsHandler) ListTransitions(w http.ResponseWriter, r *http.Request) {
	packageID := chi.URLParam(r, "empowermentID")

	rows, err := h.Store.ListTransitions(r.Context(), packageID)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to retrieve audit trail: %v", err), http.StatusInternalServerError)
		return
	}

	apiRows := make([]*api.EmpowermentTransaction, len(rows))
	for i, row := range rows {
		apiRows[i] = api.ToEmpowermentTransaction(&row)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(apiRows); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}

func respondEmpowerment(w http.ResponseWriter, status int, pkg *models.EmpowermentPackage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(api.ToEmpowerment(pkg)); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}

// writeLifecycleError maps the service's sentinel errors onto HTTP statuses.
func writeLifecycleError(w http.ResponseWriter, action string, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		http.Error(w, fmt.Sprintf("Failed to %s: %v", action, err), http.StatusNotFound)
	case errors.Is(err, storage.ErrUnauthorized):
		http.Error(w, fmt.Sprintf("Failed to %s: %v", action, err), http.StatusForbidden)
	case errors.Is(err, storage.ErrInvalidState):
		http.Error(w, fmt.Sprintf("Failed to %s: %v", action, err), http.StatusConflict)
	case errors.Is(err, storage.ErrNotMature):
		http.Error(w, fmt.Sprintf("Failed to %s: %v", action, err), http.StatusUnprocessableEntity)
	case errors.Is(err, storage.ErrNotEligible):
		http.Error(w, fmt.Sprintf("Failed to %s: %v", action, err), http.StatusUnprocessableEntity)
	case errors.Is(err, storage.ErrInsufficientBalance):
		http.Error(w, "Insufficient balance", http.StatusUnprocessableEntity)
	default:
		http.Error(w, fmt.Sprintf("Failed to %s: %v", action, err), http.StatusInternalServerError)
	}
}
