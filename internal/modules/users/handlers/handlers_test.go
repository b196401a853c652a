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
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Firm-Management/backend/internal/auth"
	"github.com/Firm-Management/backend/internal/database"
	"github.com/Firm-Management/backend/internal/modules/users"
)

type testEnv struct {
	router chi.Router
	auth   *auth.Service
	users  *users.Repository
}

func setupTestEnv(t *testing.T) *testEnv {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(database.Schema)
	require.NoError(t, err)

	usersRepo := users.NewRepository(db)
	authSvc := auth.NewService("test-secret", time.Hour)

	handler := NewHandler(usersRepo, authSvc, zerolog.Nop())

	router := chi.NewRouter()
	handler.RegisterRoutes(router)

	return &testEnv{router: router, auth: authSvc, users: usersRepo}
}

func (e *testEnv) do(t *testing.T, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func registerBody(email string) map[string]interface{} {
	return map[string]interface{}{
		"firmName":     "Acme Traders",
		"gstNumber":    "22AAAAA0000A1Z5",
		"mobileNumber": "9999999999",
		"address":      "1 Market Street",
		"established":  "2015-04-01",
		"ownerName":    "A. Owner",
		"email":        email,
		"password":     "s3cret-pass",
	}
}

func TestRegister(t *testing.T) {
	env := setupTestEnv(t)

	rec := env.do(t, "/auth/register", registerBody("owner@acme.test"))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Message string `json:"message"`
		UserID  string `json:"userId"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "User registered successfully", resp.Message)
	assert.NotEmpty(t, resp.UserID)

	stored, err := env.users.FindByEmail(context.Background(), "owner@acme.test")
	require.NoError(t, err)
	assert.Equal(t, resp.UserID, stored.UserID)
	// password is stored hashed, never verbatim
	assert.NotEqual(t, "s3cret-pass", stored.PasswordHash)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := setupTestEnv(t)

	rec := env.do(t, "/auth/register", registerBody("owner@acme.test"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, "/auth/register", registerBody("owner@acme.test"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Email already registered")
}

func TestRegisterValidation(t *testing.T) {
	env := setupTestEnv(t)

	body := registerBody("owner@acme.test")
	delete(body, "password")

	rec := env.do(t, "/auth/register", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin(t *testing.T) {
	env := setupTestEnv(t)
	require.Equal(t, http.StatusCreated, env.do(t, "/auth/register", registerBody("owner@acme.test")).Code)

	rec := env.do(t, "/auth/login", map[string]interface{}{
		"email":    "owner@acme.test",
		"password": "s3cret-pass",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Message string `json:"message"`
		Token   string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "Login successful", resp.Message)

	claims, err := env.auth.VerifyToken(resp.Token)
	require.NoError(t, err)
	assert.NotEmpty(t, claims.UserID)
}

func TestLoginWrongPassword(t *testing.T) {
	env := setupTestEnv(t)
	require.Equal(t, http.StatusCreated, env.do(t, "/auth/register", registerBody("owner@acme.test")).Code)

	rec := env.do(t, "/auth/login", map[string]interface{}{
		"email":    "owner@acme.test",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginUnknownUser(t *testing.T) {
	env := setupTestEnv(t)

	rec := env.do(t, "/auth/login", map[string]interface{}{
		"email":    "nobody@acme.test",
		"password": "whatever",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestForgotPassword(t *testing.T) {
	env := setupTestEnv(t)
	require.Equal(t, http.StatusCreated, env.do(t, "/auth/register", registerBody("owner@acme.test")).Code)

	rec := env.do(t, "/auth/forgot-password", map[string]interface{}{
		"email": "owner@acme.test",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		ResetLink string `json:"resetLink"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Contains(t, resp.ResetLink, "/reset-password/")
}

func TestForgotPasswordUnknownUser(t *testing.T) {
	env := setupTestEnv(t)

	rec := env.do(t, "/auth/forgot-password", map[string]interface{}{
		"email": "nobody@acme.test",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
