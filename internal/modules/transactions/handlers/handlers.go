// Package handlers provides HTTP handlers for transaction operations,
// including the financial-year ledger view.
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

// latestCount is how many recent transactions the /latest endpoint returns.
const latestCount = 5

// Handler handles transaction HTTP requests
type Handler struct {
	transactions *transactions.Repository
	firms        *firms.Repository
	ledger       *ledger.Service
	log          zerolog.Logger
}

// NewHandler creates a new transaction handler
func NewHandler(
	transactionsRepo *transactions.Repository,
	firmsRepo *firms.Repository,
	ledgerSvc *ledger.Service,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		transactions: transactionsRepo,
		firms:        firmsRepo,
		ledger:       ledgerSvc,
		log:          log.With().Str("handler", "transactions").Logger(),
	}
}

// transactionView is a transaction joined with the firm it belongs to.
type transactionView struct {
	domain.Transaction
	FirmDetails *domain.Firm `json:"firmDetails,omitempty"`
}

// HandleListTransactions handles GET /api/transactions
func (h *Handler) HandleListTransactions(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"message": "No token provided"})
		return
	}

	txs, err := h.transactions.FindAllByUser(r.Context(), claims.UserID, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to fetch transactions")
		h.writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"message": "Error fetching transactions"})
		return
	}

	views, err := h.withFirmDetails(r, claims.UserID, txs)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to attach firm details")
		h.writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"message": "Error fetching transactions"})
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":    views,
		"message": "Transactions fetched successfully.",
	})
}

// HandleLatestTransactions handles GET /api/transactions/latest
func (h *Handler) HandleLatestTransactions(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"message": "No token provided"})
		return
	}

	txs, err := h.transactions.FindLatestByUser(r.Context(), claims.UserID, latestCount)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to fetch latest transactions")
		h.writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"message": "Error fetching latest transactions"})
		return
	}

	views, err := h.withFirmDetails(r, claims.UserID, txs)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to attach firm details")
		h.writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"message": "Error fetching latest transactions"})
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":    views,
		"message": "Latest transactions fetched successfully.",
	})
}

// HandleFirmTransactions handles GET /api/transactions/{firmId}. The optional
// financialYear query selects the window; without it the financial year
// containing today is used. The response carries the transactions inside the
// window, the net balance carried in from everything before it, and the
// window's ledger summary.
func (h *Handler) HandleFirmTransactions(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"message": "No token provided"})
		return
	}

	firmID, err := strconv.ParseInt(chi.URLParam(r, "firmId"), 10, 64)
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
		h.writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"message": "Error fetching transactions"})
		return
	}

	window, label, err := fiscalyear.Resolve(r.URL.Query().Get("financialYear"), time.Now().UTC())
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]interface{}{"message": "Invalid financial year"})
		return
	}

	txs, err := h.transactions.FindByFirmAndUser(r.Context(), firmID, claims.UserID, &window)
	if err != nil {
		h.log.Error().Err(err).Int64("firm_id", firmID).Msg("Failed to fetch firm transactions")
		h.writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"message": "Error fetching transactions"})
		return
	}

	lastYearBalance, err := h.ledger.CarryForward(r.Context(), firmID, claims.UserID, window.Start)
	if err != nil {
		h.log.Error().Err(err).Int64("firm_id", firmID).Msg("Failed to compute carry-forward")
		h.writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"message": "Error fetching transactions"})
		return
	}

	summary, err := h.ledger.ComputeLedger(r.Context(), firmID, claims.UserID, window)
	if err != nil {
		h.log.Error().Err(err).Int64("firm_id", firmID).Msg("Failed to compute ledger")
		h.writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"message": "Error fetching transactions"})
		return
	}

	views := make([]transactionView, len(txs))
	for i := range txs {
		views[i] = transactionView{Transaction: txs[i], FirmDetails: firm}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"financialYear":   label,
		"lastYearBalance": lastYearBalance,
		"summary":         summary,
		"data":            views,
		"message":         "Transactions fetched successfully.",
	})
}

// HandleGetTransaction handles GET /api/transactions/details/{id}
func (h *Handler) HandleGetTransaction(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"message": "No token provided"})
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]interface{}{"message": "Invalid transaction ID"})
		return
	}

	tx, err := h.transactions.FindOne(r.Context(), id, claims.UserID)
	if errors.Is(err, transactions.ErrTransactionNotFound) {
		h.writeJSON(w, http.StatusNotFound, map[string]interface{}{"message": "Transaction not found"})
		return
	}
	if err != nil {
		h.log.Error().Err(err).Int64("transaction_id", id).Msg("Failed to fetch transaction")
		h.writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"message": "Error fetching transaction"})
		return
	}

	view := transactionView{Transaction: *tx}
	if firm, err := h.firms.FindOne(r.Context(), tx.FirmID, claims.UserID); err == nil {
		view.FirmDetails = firm
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":    view,
		"message": "Transaction fetched successfully.",
	})
}

type transactionRequest struct {
	FirmID      int64           `json:"firmId"`
	Amount      decimal.Decimal `json:"amount"`
	Type        string          `json:"type"`
	Description string          `json:"description"`
	Date        string          `json:"date"`
}

// HandleCreateTransaction handles POST /api/transactions
func (h *Handler) HandleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"message": "No token provided"})
		return
	}

	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]interface{}{"message": "Invalid request body"})
		return
	}

	if req.FirmID == 0 || req.Type == "" {
		h.writeJSON(w, http.StatusBadRequest, map[string]interface{}{"message": "Firm and type are required"})
		return
	}

	if _, err := h.firms.FindOne(r.Context(), req.FirmID, claims.UserID); err != nil {
		if errors.Is(err, firms.ErrFirmNotFound) {
			h.writeJSON(w, http.StatusNotFound, map[string]interface{}{"message": "Firm not found"})
			return
		}
		h.log.Error().Err(err).Int64("firm_id", req.FirmID).Msg("Failed to fetch firm")
		h.writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"message": "Error adding transaction"})
		return
	}

	now := time.Now().UTC()
	date := now
	if req.Date != "" {
		parsed, err := parseDate(req.Date)
		if err != nil {
			h.writeJSON(w, http.StatusBadRequest, map[string]interface{}{"message": "Invalid date"})
			return
		}
		date = parsed.UTC()
	}

	tx := &domain.Transaction{
		ID:          now.UnixMilli(),
		UserID:      claims.UserID,
		FirmID:      req.FirmID,
		Amount:      req.Amount,
		Type:        domain.TransactionType(req.Type),
		Description: req.Description,
		Date:        date,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.transactions.Create(r.Context(), tx); err != nil {
		h.log.Error().Err(err).Msg("Failed to create transaction")
		h.writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"message": "Error adding transaction"})
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"transaction": tx,
		"message":     "Transaction added successfully",
	})
}

// HandleUpdateTransaction handles PUT /api/transactions/{id}
func (h *Handler) HandleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"message": "No token provided"})
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]interface{}{"message": "Invalid transaction ID"})
		return
	}

	existing, err := h.transactions.FindOne(r.Context(), id, claims.UserID)
	if errors.Is(err, transactions.ErrTransactionNotFound) {
		h.writeJSON(w, http.StatusNotFound, map[string]interface{}{"message": "Transaction not found"})
		return
	}
	if err != nil {
		h.log.Error().Err(err).Int64("transaction_id", id).Msg("Failed to fetch transaction")
		h.writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"message": "Error updating transaction"})
		return
	}

	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]interface{}{"message": "Invalid request body"})
		return
	}

	if req.FirmID != 0 {
		existing.FirmID = req.FirmID
	}
	if req.Type != "" {
		existing.Type = domain.TransactionType(req.Type)
	}
	if req.Date != "" {
		parsed, err := parseDate(req.Date)
		if err != nil {
			h.writeJSON(w, http.StatusBadRequest, map[string]interface{}{"message": "Invalid date"})
			return
		}
		existing.Date = parsed.UTC()
	}
	existing.Amount = req.Amount
	existing.Description = req.Description
	existing.UpdatedAt = time.Now().UTC()

	if err := h.transactions.Update(r.Context(), existing); err != nil {
		if errors.Is(err, transactions.ErrTransactionNotFound) {
			h.writeJSON(w, http.StatusNotFound, map[string]interface{}{"message": "Transaction not found"})
			return
		}
		h.log.Error().Err(err).Int64("transaction_id", id).Msg("Failed to update transaction")
		h.writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"message": "Error updating transaction"})
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":    existing,
		"message": "Transaction updated successfully.",
	})
}

// HandleDeleteTransaction handles DELETE /api/transactions/{id}
func (h *Handler) HandleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"message": "No token provided"})
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]interface{}{"message": "Invalid transaction ID"})
		return
	}

	if err := h.transactions.Delete(r.Context(), id, claims.UserID); err != nil {
		if errors.Is(err, transactions.ErrTransactionNotFound) {
			h.writeJSON(w, http.StatusNotFound, map[string]interface{}{"message": "Transaction not found"})
			return
		}
		h.log.Error().Err(err).Int64("transaction_id", id).Msg("Failed to delete transaction")
		h.writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"message": "Error deleting transaction"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// withFirmDetails joins transactions with the user's firms in one pass.
func (h *Handler) withFirmDetails(r *http.Request, userID string, txs []domain.Transaction) ([]transactionView, error) {
	userFirms, err := h.firms.FindByUser(r.Context(), userID)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]*domain.Firm, len(userFirms))
	for i := range userFirms {
		byID[userFirms[i].ID] = &userFirms[i]
	}

	views := make([]transactionView, len(txs))
	for i := range txs {
		views[i] = transactionView{Transaction: txs[i], FirmDetails: byID[txs[i].FirmID]}
	}
	return views, nil
}

// parseDate accepts either a full timestamp or a bare date.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}
