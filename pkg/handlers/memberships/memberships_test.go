package memberships_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/chris/membership-rewards/pkg/api"
	"github.com/chris/membership-rewards/pkg/handlers/memberships"
	"github.com/chris/membership-rewards/pkg/models"
	"github.com/chris/membership-rewards/pkg/rewards"
	"github.com/chris/membership-rewards/pkg/storage"
)

type engineMock struct {
	mock.Mock
}

func (m *engineMock) Activate(ctx context.Context, accountID, packageID string, selection models.PalliativeType, receipt rewards.Receipt) (*models.Distribution, error) {
	args := m.Called(ctx, accountID, packageID, selection, receipt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Distribution), args.Error(1)
}

func (m *engineMock) Renew(ctx context.Context, accountID string, receipt rewards.Receipt) (*models.Distribution, error) {
	args := m.Called(ctx, accountID, receipt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Distribution), args.Error(1)
}

func (m *engineMock) Upgrade(ctx context.Context, accountID, newPackageID string, selection models.PalliativeType) (*models.Distribution, error) {
	args := m.Called(ctx, accountID, newPackageID, selection)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Distribution), args.Error(1)
}

func committedDistribution() *models.Distribution {
	d := &models.Distribution{
		Event: &models.TriggerEvent{
			EventID:   "member#gold#ACTIVATION#2026-08-29",
			AccountID: "member",
			PackageID: "gold",
			Trigger:   models.TriggerActivation,
			CreatedAt: time.Now().UTC(),
		},
	}
	d.AddPosting("p1", models.WalletMain, 450)
	d.AddEntry(models.LedgerEntry{Reference: "ref-1", AccountID: "p1", Amount: 450})
	return d
}

func TestActivate(t *testing.T) {
	body, _ := json.Marshal(api.ActivateMembership{
		AccountID: "member",
		PackageID: "gold",
		Payment:   api.Payment{Reference: "pay-1", Confirmed: true},
	})

	t.Run("Success", func(t *testing.T) {
		mockEngine := new(engineMock)
		mockEngine.On("Activate", mock.Anything, "member", "gold", models.PalliativeType(""),
			rewards.Receipt{Reference: "pay-1", Confirmed: true}).
			Return(committedDistribution(), nil)

		h := memberships.NewMembershipsHandler(mockEngine)

		req := httptest.NewRequest(http.MethodPost, "/memberships/activate", bytes.NewReader(body))
		rr := httptest.NewRecorder()

		h.Activate(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)

		var result api.DistributionResult
		assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
		assert.Equal(t, "member", result.AccountID)
		assert.Equal(t, 1, result.Postings)
		assert.Equal(t, 1, result.LedgerEntries)
		mockEngine.AssertExpectations(t)
	})

	t.Run("Duplicate Trigger", func(t *testing.T) {
		mockEngine := new(engineMock)
		mockEngine.On("Activate", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, storage.ErrDuplicateTrigger)

		h := memberships.NewMembershipsHandler(mockEngine)

		req := httptest.NewRequest(http.MethodPost, "/memberships/activate", bytes.NewReader(body))
		rr := httptest.NewRecorder()

		h.Activate(rr, req)

		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("Unconfirmed Payment", func(t *testing.T) {
		mockEngine := new(engineMock)
		mockEngine.On("Activate", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, storage.ErrNotEligible)

		h := memberships.NewMembershipsHandler(mockEngine)

		req := httptest.NewRequest(http.MethodPost, "/memberships/activate", bytes.NewReader(body))
		rr := httptest.NewRecorder()

		h.Activate(rr, req)

		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	})

	t.Run("Invalid Body", func(t *testing.T) {
		h := memberships.NewMembershipsHandler(new(engineMock))

		req := httptest.NewRequest(http.MethodPost, "/memberships/activate", bytes.NewReader([]byte("{not json")))
		rr := httptest.NewRecorder()

		h.Activate(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestRenew(t *testing.T) {
	body, _ := json.Marshal(api.RenewMembership{
		AccountID: "member",
		Payment:   api.Payment{Reference: "pay-2", Confirmed: true},
	})

	t.Run("Success", func(t *testing.T) {
		mockEngine := new(engineMock)
		mockEngine.On("Renew", mock.Anything, "member",
			rewards.Receipt{Reference: "pay-2", Confirmed: true}).
			Return(committedDistribution(), nil)

		h := memberships.NewMembershipsHandler(mockEngine)

		req := httptest.NewRequest(http.MethodPost, "/memberships/renew", bytes.NewReader(body))
		rr := httptest.NewRecorder()

		h.Renew(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)
		mockEngine.AssertExpectations(t)
	})

	t.Run("Outside Renewal Window", func(t *testing.T) {
		mockEngine := new(engineMock)
		mockEngine.On("Renew", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, storage.ErrNotEligible)

		h := memberships.NewMembershipsHandler(mockEngine)

		req := httptest.NewRequest(http.MethodPost, "/memberships/renew", bytes.NewReader(body))
		rr := httptest.NewRecorder()

		h.Renew(rr, req)

		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	})

	t.Run("Unknown Account", func(t *testing.T) {
		mockEngine := new(engineMock)
		mockEngine.On("Renew", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, storage.ErrNotFound)

		h := memberships.NewMembershipsHandler(mockEngine)

		req := httptest.NewRequest(http.MethodPost, "/memberships/renew", bytes.NewReader(body))
		rr := httptest.NewRecorder()

		h.Renew(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestUpgrade(t *testing.T) {
	body, _ := json.Marshal(api.UpgradeMembership{AccountID: "member", PackageID: "platinum"})

	t.Run("Success", func(t *testing.T) {
		mockEngine := new(engineMock)
		mockEngine.On("Upgrade", mock.Anything, "member", "platinum", models.PalliativeType("")).
			Return(committedDistribution(), nil)

		h := memberships.NewMembershipsHandler(mockEngine)

		req := httptest.NewRequest(http.MethodPost, "/memberships/upgrade", bytes.NewReader(body))
		rr := httptest.NewRecorder()

		h.Upgrade(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)
		mockEngine.AssertExpectations(t)
	})

	t.Run("Insufficient Balance", func(t *testing.T) {
		mockEngine := new(engineMock)
		mockEngine.On("Upgrade", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, storage.ErrInsufficientBalance)

		h := memberships.NewMembershipsHandler(mockEngine)

		req := httptest.NewRequest(http.MethodPost, "/memberships/upgrade", bytes.NewReader(body))
		rr := httptest.NewRecorder()

		h.Upgrade(rr, req)

		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	})

	t.Run("Concurrent Update", func(t *testing.T) {
		mockEngine := new(engineMock)
		mockEngine.On("Upgrade", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, storage.ErrVersionConflict)

		h := memberships.NewMembershipsHandler(mockEngine)

		req := httptest.NewRequest(http.MethodPost, "/memberships/upgrade", bytes.NewReader(body))
		rr := httptest.NewRecorder()

		h.Upgrade(rr, req)

		assert.Equal(t, http.StatusConflict, rr.Code)
	})
}
