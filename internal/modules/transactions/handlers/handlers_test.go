package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Firm-Management/backend/internal/auth"
	"github.com/Firm-Management/backend/internal/database"
	"github.com/Firm-Management/backend/internal/domain"
	"github.com/Firm-Management/backend/internal/modules/firms"
	"github.com/Firm-Management/backend/internal/modules/ledger"
	"github.com/Firm-Management/backend/internal/modules/transactions"
)

type testEnv struct {
	router chi.Router
	token  string
	firms  *firms.Repository
	txs    *transactions.Repository
}

func setupTestEnv(t *testing.T) *testEnv {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(database.Schema)
	require.NoError(t, err)

	firmsRepo := firms.NewRepository(db)
	txRepo := transactions.NewRepository(db)
	ledgerSvc := ledger.NewService(txRepo, firmsRepo, zerolog.Nop())
	authSvc := auth.NewService("test-secret", time.Hour)

	handler := NewHandler(txRepo, firmsRepo, ledgerSvc, zerolog.Nop())

	router := chi.NewRouter()
	router.Group(func(r chi.Router) {
		r.Use(authSvc.Middleware)
		handler.RegisterRoutes(r)
	})

	token, err := authSvc.IssueToken("user-1")
	require.NoError(t, err)

	return &testEnv{router: router, token: token, firms: firmsRepo, txs: txRepo}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Authorization", "Bearer "+e.token)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) seedFirm(t *testing.T, id int64, userID, name string) {
	t.Helper()
	now := time.UnixMilli(1700000000000).UTC()
	require.NoError(t, e.firms.Create(context.Background(), &domain.Firm{
		ID: id, UserID: userID, Name: name,
		Contact: "9999999999", Address: "1 Market Street", Status: "active",
		OpeningBalance: decimal.Zero, CreatedAt: now, UpdatedAt: now,
	}))
}

func (e *testEnv) seedTx(t *testing.T, id, firmID int64, userID, txType, amount, day string) {
	t.Helper()
	d, err := time.Parse("2006-01-02", day)
	require.NoError(t, err)
	require.NoError(t, e.txs.Create(context.Background(), &domain.Transaction{
		ID: id, UserID: userID, FirmID: firmID,
		Amount: decimal.RequireFromString(amount),
		Type:   domain.TransactionType(txType),
		Date:   d, CreatedAt: d, UpdatedAt: d,
	}))
}

func TestListTransactionsWithFirmDetails(t *testing.T) {
	env := setupTestEnv(t)
	env.seedFirm(t, 1, "user-1", "Acme Traders")
	env.seedTx(t, 100, 1, "user-1", "sale", "100", "2023-06-15")
	env.seedTx(t, 101, 2, "user-1", "purchase", "40", "2023-07-01")
	env.seedTx(t, 102, 1, "user-2", "sale", "999", "2023-06-20")

	rec := env.do(t, http.MethodGet, "/transactions", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []struct {
			ID          int64 `json:"id"`
			FirmDetails *struct {
				Name string `json:"name"`
			} `json:"firmDetails"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Data, 2)

	require.NotNil(t, resp.Data[0].FirmDetails)
	assert.Equal(t, "Acme Traders", resp.Data[0].FirmDetails.Name)
	// transaction whose firm record is gone still lists, without details
	assert.Nil(t, resp.Data[1].FirmDetails)
}

func TestLatestTransactionsCappedAtFive(t *testing.T) {
	env := setupTestEnv(t)
	env.seedFirm(t, 1, "user-1", "Acme Traders")
	for i := int64(1); i <= 7; i++ {
		env.seedTx(t, i, 1, "user-1", "sale", "10", time.Date(2023, 6, int(i), 0, 0, 0, 0, time.UTC).Format("2006-01-02"))
	}

	rec := env.do(t, http.MethodGet, "/transactions/latest", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []struct {
			ID int64 `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Data, 5)
	assert.Equal(t, int64(7), resp.Data[0].ID)
}

func TestFirmTransactionsForFinancialYear(t *testing.T) {
	env := setupTestEnv(t)
	env.seedFirm(t, 1, "user-1", "Acme Traders")
	env.seedTx(t, 100, 1, "user-1", "sale", "50", "2023-03-15")  // prior FY
	env.seedTx(t, 101, 1, "user-1", "sale", "100", "2023-06-15") // in window
	env.seedTx(t, 102, 1, "user-1", "purchase", "40", "2023-07-01")
	env.seedTx(t, 103, 1, "user-1", "sale", "20", "2024-04-02") // next FY

	rec := env.do(t, http.MethodGet, "/transactions/1?financialYear=2023-2024", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		FinancialYear   string `json:"financialYear"`
		LastYearBalance string `json:"lastYearBalance"`
		Summary         struct {
			Balance       string `json:"balance"`
			BalanceType   string `json:"balanceType"`
			TotalSale     string `json:"totalSale"`
			TotalPurchase string `json:"totalPurchase"`
		} `json:"summary"`
		Data []struct {
			ID int64 `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))

	assert.Equal(t, "2023-2024", resp.FinancialYear)
	assert.Equal(t, "50", resp.LastYearBalance)
	assert.Equal(t, "110", resp.Summary.Balance)
	assert.Equal(t, "collect", resp.Summary.BalanceType)
	assert.Equal(t, "100", resp.Summary.TotalSale)
	assert.Equal(t, "40", resp.Summary.TotalPurchase)
	require.Len(t, resp.Data, 2)
	assert.Equal(t, int64(101), resp.Data[0].ID)
	assert.Equal(t, int64(102), resp.Data[1].ID)
}

func TestFirmTransactionsDefaultsToCurrentYear(t *testing.T) {
	env := setupTestEnv(t)
	env.seedFirm(t, 1, "user-1", "Acme Traders")

	rec := env.do(t, http.MethodGet, "/transactions/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		FinancialYear string `json:"financialYear"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "current", resp.FinancialYear)
}

func TestFirmTransactionsUnknownFirm(t *testing.T) {
	env := setupTestEnv(t)

	rec := env.do(t, http.MethodGet, "/transactions/404", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFirmTransactionsBadFinancialYear(t *testing.T) {
	env := setupTestEnv(t)
	env.seedFirm(t, 1, "user-1", "Acme Traders")

	rec := env.do(t, http.MethodGet, "/transactions/1?financialYear=garbage", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetTransactionDetails(t *testing.T) {
	env := setupTestEnv(t)
	env.seedFirm(t, 1, "user-1", "Acme Traders")
	env.seedTx(t, 100, 1, "user-1", "sale", "100", "2023-06-15")

	rec := env.do(t, http.MethodGet, "/transactions/details/100", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Acme Traders")

	rec = env.do(t, http.MethodGet, "/transactions/details/404", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateTransaction(t *testing.T) {
	env := setupTestEnv(t)
	env.seedFirm(t, 1, "user-1", "Acme Traders")

	rec := env.do(t, http.MethodPost, "/transactions", map[string]interface{}{
		"firmId": 1,
		"amount": "250.75",
		"type":   "sale",
		"date":   "2023-06-15",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Transaction struct {
			ID int64 `json:"id"`
		} `json:"transaction"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))

	stored, err := env.txs.FindOne(context.Background(), resp.Transaction.ID, "user-1")
	require.NoError(t, err)
	assert.True(t, stored.Amount.Equal(decimal.RequireFromString("250.75")))
	assert.Equal(t, time.Date(2023, 6, 15, 0, 0, 0, 0, time.UTC), stored.Date)
}

func TestCreateTransactionDefaultsDateToNow(t *testing.T) {
	env := setupTestEnv(t)
	env.seedFirm(t, 1, "user-1", "Acme Traders")

	before := time.Now().UTC().Add(-time.Second)
	rec := env.do(t, http.MethodPost, "/transactions", map[string]interface{}{
		"firmId": 1,
		"amount": "10",
		"type":   "deposit",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Transaction struct {
			ID int64 `json:"id"`
		} `json:"transaction"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))

	stored, err := env.txs.FindOne(context.Background(), resp.Transaction.ID, "user-1")
	require.NoError(t, err)
	assert.True(t, stored.Date.After(before))
}

func TestCreateTransactionUnknownFirm(t *testing.T) {
	env := setupTestEnv(t)

	rec := env.do(t, http.MethodPost, "/transactions", map[string]interface{}{
		"firmId": 404,
		"amount": "10",
		"type":   "sale",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateTransaction(t *testing.T) {
	env := setupTestEnv(t)
	env.seedFirm(t, 1, "user-1", "Acme Traders")
	env.seedTx(t, 100, 1, "user-1", "sale", "100", "2023-06-15")

	rec := env.do(t, http.MethodPut, "/transactions/100", map[string]interface{}{
		"amount":      "150",
		"type":        "purchase",
		"description": "corrected",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	stored, err := env.txs.FindOne(context.Background(), 100, "user-1")
	require.NoError(t, err)
	assert.True(t, stored.Amount.Equal(decimal.RequireFromString("150")))
	assert.Equal(t, domain.TransactionType("purchase"), stored.Type)
}

func TestUpdateMissingTransaction(t *testing.T) {
	env := setupTestEnv(t)

	rec := env.do(t, http.MethodPut, "/transactions/404", map[string]interface{}{"amount": "1"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteTransaction(t *testing.T) {
	env := setupTestEnv(t)
	env.seedFirm(t, 1, "user-1", "Acme Traders")
	env.seedTx(t, 100, 1, "user-1", "sale", "100", "2023-06-15")

	rec := env.do(t, http.MethodDelete, "/transactions/100", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	_, err := env.txs.FindOne(context.Background(), 100, "user-1")
	assert.ErrorIs(t, err, transactions.ErrTransactionNotFound)

	rec = env.do(t, http.MethodDelete, "/transactions/100", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRoutesRequireAuth(t *testing.T) {
	env := setupTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/transactions", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
