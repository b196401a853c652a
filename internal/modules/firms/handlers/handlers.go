// Package handlers provides HTTP handlers for firm operations, including
// the balance-enriched firm listing.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Firm-Management/backend/internal/auth"
	"github.com/Firm-Management/backend/internal/domain"
	"github.com/Firm-Management/backend/internal/fiscalyear"
	"github.com/Firm-Management/backend/internal/modules/firms"
	"github.com/Firm-Management/backend/internal/modules/ledger"
	"github.com/Firm-Management/backend/internal/modules/transactions"
)

// Handler handles firm HTTP requests
type Handler struct {
	firms        *firms.Repository
	transactions *transactions.Repository
	ledger       *ledger.Service
	log          zerolog.Logger
}

// NewHandler creates a new firm handler
func NewHandler(
	firmsRepo *firms.Repository,
	transactionsRepo *transactions.Repository,
	ledgerSvc *ledger.Service,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		firms:        firmsRepo,
		transactions: transactionsRepo,
		ledger:       ledgerSvc,
		log:          log.With().Str("handler", "firms").Logger(),
	}
}

// HandleListFirms handles GET /api/firms. Every firm is returned with its
// computed balance, balance type, and category totals. Without a
// financialYear query the balances cover the firm's full history; with one
// they cover that window plus carry-forward.
func (h *Handler) HandleListFirms(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"message": "No token provided"})
		return
	}

	var window *fiscalyear.Window
	if label := r.URL.Query().Get("financialYear"); label != "" {
		parsed, err := fiscalyear.Parse(label)
		if err != nil {
			h.writeJSON(w, http.StatusBadRequest, map[string]interface{}{"message": "Invalid financial year"})
			return
		}
		window = &parsed
	}

	projected, err := h.ledger.ProjectFirms(r.Context(), claims.UserID, window)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to project firm balances")
		h.writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"message": "Error fetching firms and calculating balance"})
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":    projected,
		"message": "Firms and balances with totals fetched successfully.",
	})
}

// HandleGetFirm handles GET /api/firms/{id}
func (h *Handler) HandleGetFirm(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"message": "No token provided"})
		return
	}

	firmID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]interface{}{"message": "Invalid firm ID"})
		return
	}

	firm, err := h.firms.FindOne(r.Context(), firmID, claims.UserID)
	if errors.Is(err, firms.ErrFirmNotFound) {
		h.writeJSON(w, http.StatusNotFound, map[string]interface{}{"message": "Firm not found"})
		return
	}
	if err != nil {
		h.log.Error().Err(err).Int64("firm_id", firmID).Msg("Failed to fetch firm")
		h.writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"message": "Error fetching firm"})
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":    firm,
		"message": "Firm fetched successfully.",
	})
}

type firmRequest struct {
	Name            string          `json:"name"`
	Contact         string          `json:"contact"`
	Address         string          `json:"address"`
	Website         string          `json:"website"`
	Industry        string          `json:"industry"`
	EstablishedYear *int            `json:"establishedYear"`
	GSTNumber       string          `json:"gstNumber"`
	Status          string          `json:"status"`
	Owner           string          `json:"owner"`
	OpeningBalance  decimal.Decimal `json:"openingBalance"`
}

// HandleCreateFirm handles POST /api/firms
func (h *Handler) HandleCreateFirm(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"message": "No token provided"})
		return
	}

	var req firmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]interface{}{"message": "Error adding firm"})
		return
	}

	if req.Name == "" || req.Contact == "" || req.Address == "" {
		h.writeJSON(w, http.StatusBadRequest, map[string]interface{}{"message": "Name, contact, and address are required"})
		return
	}

	now := time.Now().UTC()
	firm := &domain.Firm{
		ID:              now.UnixMilli(),
		UserID:          claims.UserID,
		Name:            req.Name,
		Contact:         req.Contact,
		Address:         req.Address,
		Website:         req.Website,
		Industry:        req.Industry,
		EstablishedYear: req.EstablishedYear,
		GSTNumber:       req.GSTNumber,
		Status:          req.Status,
		Owner:           req.Owner,
		OpeningBalance:  req.OpeningBalance,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if firm.Status == "" {
		firm.Status = "active"
	}

	if err := h.firms.Create(r.Context(), firm); err != nil {
		h.log.Error().Err(err).Msg("Failed to create firm")
		h.writeJSON(w, http.StatusBadRequest, map[string]interface{}{"message": "Error adding firm"})
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"firm":    firm,
		"message": "Firm Added successfully",
	})
}

// HandleUpdateFirm handles PUT /api/firms/{id}
func (h *Handler) HandleUpdateFirm(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"message": "No token provided"})
		return
	}

	firmID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]interface{}{"message": "Invalid firm ID"})
		return
	}

	existing, err := h.firms.FindOne(r.Context(), firmID, claims.UserID)
	if errors.Is(err, firms.ErrFirmNotFound) {
		h.writeJSON(w, http.StatusNotFound, map[string]interface{}{"message": "Firm not found"})
		return
	}
	if err != nil {
		h.log.Error().Err(err).Int64("firm_id", firmID).Msg("Failed to fetch firm")
		h.writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"message": "Error updating firm"})
		return
	}

	var req firmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]interface{}{"message": "Error updating firm"})
		return
	}

	existing.Name = req.Name
	existing.Contact = req.Contact
	existing.Address = req.Address
	existing.Website = req.Website
	existing.Industry = req.Industry
	existing.EstablishedYear = req.EstablishedYear
	existing.GSTNumber = req.GSTNumber
	existing.Owner = req.Owner
	existing.OpeningBalance = req.OpeningBalance
	if req.Status != "" {
		existing.Status = req.Status
	}
	existing.UpdatedAt = time.Now().UTC()

	if err := h.firms.Update(r.Context(), existing); err != nil {
		if errors.Is(err, firms.ErrFirmNotFound) {
			h.writeJSON(w, http.StatusNotFound, map[string]interface{}{"message": "Firm not found"})
			return
		}
		h.log.Error().Err(err).Int64("firm_id", firmID).Msg("Failed to update firm")
		h.writeJSON(w, http.StatusBadRequest, map[string]interface{}{"message": "Error updating firm"})
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":    existing,
		"message": "Firm updated successfully.",
	})
}

// HandleDeleteFirm handles DELETE /api/firms/{id}. The firm's transactions
// are removed first so no orphaned entries survive.
func (h *Handler) HandleDeleteFirm(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"message": "No token provided"})
		return
	}

	firmID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]interface{}{"message": "Invalid firm ID"})
		return
	}

	if err := h.transactions.DeleteByFirm(r.Context(), firmID, claims.UserID); err != nil {
		h.log.Error().Err(err).Int64("firm_id", firmID).Msg("Failed to delete firm transactions")
		h.writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"message": "Error deleting firm and transactions"})
		return
	}

	if err := h.firms.Delete(r.Context(), firmID, claims.UserID); err != nil {
		if errors.Is(err, firms.ErrFirmNotFound) {
			h.writeJSON(w, http.StatusNotFound, map[string]interface{}{"message": "Firm not found"})
			return
		}
		h.log.Error().Err(err).Int64("firm_id", firmID).Msg("Failed to delete firm")
		h.writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"message": "Error deleting firm and transactions"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}
