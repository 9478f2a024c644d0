package api

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nestegg-app/nestegg/internal/domain"
	"github.com/nestegg-app/nestegg/internal/infra/sqlite"
)

// ─── Portfolio CRUD ─────────────────────────────────────────────────────────

// handleListAccounts returns every account.
// GET /api/accounts
func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.db.ListAccounts()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"accounts": accounts,
	})
}

// handleCreateAccount creates an account.
// POST /api/accounts
func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var a sqlite.Account
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if a.AccountName == "" {
		writeError(w, http.StatusBadRequest, "account_name is required")
		return
	}
	created, err := s.db.InsertAccount(a)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// handleDeleteAccount deletes an account and its positions.
// DELETE /api/accounts/{id}
func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := s.db.DeleteAccount(chi.URLParam(r, "id")); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleListPositions returns every position.
// GET /api/positions
func (s *Server) handleListPositions(w http.ResponseWriter, r *http.Request) {
	positions, err := s.db.ListPositions()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"positions": positions,
	})
}

// handleCreatePosition creates a position.
// POST /api/positions
func (s *Server) handleCreatePosition(w http.ResponseWriter, r *http.Request) {
	var p sqlite.Position
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if p.Name == "" && p.Ticker == "" {
		writeError(w, http.StatusBadRequest, "name or ticker is required")
		return
	}
	created, err := s.db.InsertPosition(p)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// handleDeletePosition deletes a position.
// DELETE /api/positions/{id}
func (s *Server) handleDeletePosition(w http.ResponseWriter, r *http.Request) {
	if err := s.db.DeletePosition(chi.URLParam(r, "id")); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleListLiabilities returns every liability.
// GET /api/liabilities
func (s *Server) handleListLiabilities(w http.ResponseWriter, r *http.Request) {
	liabilities, err := s.db.ListLiabilities()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"liabilities": liabilities,
	})
}

// handleCreateLiability creates a liability.
// POST /api/liabilities
func (s *Server) handleCreateLiability(w http.ResponseWriter, r *http.Request) {
	var l sqlite.Liability
	if err := json.NewDecoder(r.Body).Decode(&l); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if l.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	created, err := s.db.InsertLiability(l)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// handleDeleteLiability deletes a liability.
// DELETE /api/liabilities/{id}
func (s *Server) handleDeleteLiability(w http.ResponseWriter, r *http.Request) {
	if err := s.db.DeleteLiability(chi.URLParam(r, "id")); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleListOtherAssets returns every other asset.
// GET /api/otherassets
func (s *Server) handleListOtherAssets(w http.ResponseWriter, r *http.Request) {
	assets, err := s.db.ListOtherAssets()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"other_assets": assets,
	})
}

// handleCreateOtherAsset creates an other asset.
// POST /api/otherassets
func (s *Server) handleCreateOtherAsset(w http.ResponseWriter, r *http.Request) {
	var a sqlite.OtherAsset
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if a.AssetName == "" {
		writeError(w, http.StatusBadRequest, "asset_name is required")
		return
	}
	created, err := s.db.InsertOtherAsset(a)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// handleDeleteOtherAsset deletes an other asset.
// DELETE /api/otherassets/{id}
func (s *Server) handleDeleteOtherAsset(w http.ResponseWriter, r *http.Request) {
	if err := s.db.DeleteOtherAsset(chi.URLParam(r, "id")); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ─── Balance Updates ────────────────────────────────────────────────────────
// The endpoints the submission coordinator drives. Each takes a single
// numeric field, stamps updated_at, and 404s on unknown ids so the client
// can classify the failure as terminal.

// handleUpdateCash sets a cash position's amount.
// PUT /api/positions/{id}/cash
func (s *Server) handleUpdateCash(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Amount float64 `json:"amount"`
	}
	if err := decodeValue(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !finite(body.Amount) {
		writeError(w, http.StatusBadRequest, "amount must be finite")
		return
	}
	id := chi.URLParam(r, "id")
	if err := s.db.UpdateCashAmount(id, body.Amount); err != nil {
		writeStoreError(w, err)
		return
	}
	s.progressHub.Updated(id)
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// handleUpdateQuantity sets a holding position's quantity.
// PUT /api/positions/{id}
func (s *Server) handleUpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Quantity float64 `json:"quantity"`
	}
	if err := decodeValue(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !finite(body.Quantity) {
		writeError(w, http.StatusBadRequest, "quantity must be finite")
		return
	}
	id := chi.URLParam(r, "id")
	if err := s.db.UpdateQuantity(id, body.Quantity); err != nil {
		writeStoreError(w, err)
		return
	}
	s.progressHub.Updated(id)
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// handleUpdateLiabilityBalance sets a liability's current balance.
// PUT /api/liabilities/{id}/balance
func (s *Server) handleUpdateLiabilityBalance(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CurrentBalance float64 `json:"current_balance"`
	}
	if err := decodeValue(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !finite(body.CurrentBalance) {
		writeError(w, http.StatusBadRequest, "current_balance must be finite")
		return
	}
	id := chi.URLParam(r, "id")
	if err := s.db.UpdateLiabilityBalance(id, body.CurrentBalance); err != nil {
		writeStoreError(w, err)
		return
	}
	s.progressHub.Updated(id)
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// handleUpdateOtherAssetValue sets an other asset's current value.
// PUT /api/otherassets/{id}/value
func (s *Server) handleUpdateOtherAssetValue(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CurrentValue float64 `json:"current_value"`
	}
	if err := decodeValue(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !finite(body.CurrentValue) {
		writeError(w, http.StatusBadRequest, "current_value must be finite")
		return
	}
	id := chi.URLParam(r, "id")
	if err := s.db.UpdateOtherAssetValue(id, body.CurrentValue); err != nil {
		writeStoreError(w, err)
		return
	}
	s.progressHub.Updated(id)
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// ─── Refresh & Net Worth ────────────────────────────────────────────────────

// handleRefresh recomputes and persists a net-worth snapshot.
// POST /api/refresh
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.db.RecomputeNetWorth()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.progressHub.Refreshed()
	writeJSON(w, http.StatusOK, snapshot)
}

// handleNetWorth returns the latest persisted snapshot.
// GET /api/networth
func (s *Server) handleNetWorth(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.db.LatestNetWorth()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

// ─── Helpers ────────────────────────────────────────────────────────────────

// decodeValue decodes a single-field update body, rejecting unknown fields so
// a client sending the wrong field name gets a 400 instead of a silent zero.
func decodeValue(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.New("invalid request body")
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// writeStoreError maps store errors onto HTTP statuses.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrAccountNotFound),
		errors.Is(err, domain.ErrPositionNotFound),
		errors.Is(err, domain.ErrLiabilityNotFound),
		errors.Is(err, domain.ErrAssetNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
