package packages

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/chris/membership-rewards/pkg/api"
	"github.com/chris/membership-rewards/pkg/storage"
)

// PackagesHandler holds the dependencies for package-related handlers.
type PackagesHandler struct {
	Store storage.PackageStore
}

// NewPackagesHandler creates a new PackagesHandler.
func NewPackagesHandler(store storage.PackageStore) *PackagesHandler {
	return &PackagesHandler{Store: store}
}

// GetPackage retrieves one reward package by id.
func (h *PackagesHandler) GetPackage(w http.ResponseWriter, r *http.Request) {
	packageID := chi.URLParam(r, "packageID")

	pkg, err := h.Store.GetPackage(r.Context(), packageID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "Package not found", http.StatusNotFound)
		} else {
			http.Error(w, fmt.Sprintf("Failed to retrieve package: %v", err), http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(api.ToRewardPackage(pkg)); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}

// ListPackages retrieves every configured reward package.
func (h *PackagesHandler) ListPackages(w http.ResponseWriter, r *http.Request) {
	pkgs, err := h.Store.ListPackages(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to retrieve packages: %v", err), http.StatusInternalServerError)
		return
	}

	apiPkgs := make([]*api.RewardPackage, len(pkgs))
	for i, pkg := range pkgs {
		apiPkgs[i] = api.ToRewardPackage(&pkg)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(apiPkgs); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}

// PutPackage creates or replaces a reward package. Gated on the admin claim
// header; the engine itself never writes packages.
func (h *PackagesHandler) PutPackage(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("X-Admin-Id") == "" {
		http.Error(w, "Package configuration is admin-only", http.StatusForbidden)
		return
	}
	packageID := chi.URLParam(r, "packageID")

	var req api.RewardPackage
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if req.ID != "" && req.ID != packageID {
		http.Error(w, "Package id in body does not match URL", http.StatusBadRequest)
		return
	}
	req.ID = packageID
	if len(req.Levels) == 0 {
		http.Error(w, "At least one reward level is required", http.StatusBadRequest)
		return
	}

	pkg := api.ToDomainRewardPackage(&req)
	now := time.Now().UTC()
	if pkg.CreatedAt.IsZero() {
		pkg.CreatedAt = now
	}
	pkg.UpdatedAt = now

	if err := h.Store.PutPackage(r.Context(), pkg); err != nil {
		http.Error(w, fmt.Sprintf("Failed to store package: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(api.ToRewardPackage(pkg)); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}
