package firms

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Firm-Management/backend/internal/database"
	"github.com/Firm-Management/backend/internal/domain"
)

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(database.Schema)
	require.NoError(t, err)

	return db
}

func testFirm(id int64, userID, name string) *domain.Firm {
	now := time.UnixMilli(1700000000000).UTC()
	return &domain.Firm{
		ID:             id,
		UserID:         userID,
		Name:           name,
		Contact:        "9999999999",
		Address:        "1 Market Street",
		Status:         "active",
		OpeningBalance: decimal.Zero,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestCreateAndFindOne(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()

	firm := testFirm(1, "user-1", "Acme Traders")
	year := 2015
	firm.EstablishedYear = &year
	firm.OpeningBalance = decimal.RequireFromString("250.50")
	require.NoError(t, repo.Create(ctx, firm))

	got, err := repo.FindOne(ctx, 1, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Acme Traders", got.Name)
	assert.Equal(t, "user-1", got.UserID)
	require.NotNil(t, got.EstablishedYear)
	assert.Equal(t, 2015, *got.EstablishedYear)
	assert.True(t, got.OpeningBalance.Equal(decimal.RequireFromString("250.50")))
	assert.Equal(t, firm.CreatedAt, got.CreatedAt)
}

func TestFindOneScopedToUser(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testFirm(1, "user-1", "Acme Traders")))

	_, err := repo.FindOne(ctx, 1, "user-2")
	assert.ErrorIs(t, err, ErrFirmNotFound)

	_, err = repo.FindOne(ctx, 404, "user-1")
	assert.ErrorIs(t, err, ErrFirmNotFound)
}

func TestFindByUserOrdered(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testFirm(3, "user-1", "Gamma")))
	require.NoError(t, repo.Create(ctx, testFirm(1, "user-1", "Alpha")))
	require.NoError(t, repo.Create(ctx, testFirm(2, "user-2", "Beta")))

	got, err := repo.FindByUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Alpha", got[0].Name)
	assert.Equal(t, "Gamma", got[1].Name)
}

func TestFindByUserEmpty(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	got, err := repo.FindByUser(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestUpdate(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()

	firm := testFirm(1, "user-1", "Acme Traders")
	require.NoError(t, repo.Create(ctx, firm))

	firm.Name = "Acme Industries"
	firm.Status = "inactive"
	firm.OpeningBalance = decimal.RequireFromString("-12.75")
	firm.UpdatedAt = firm.UpdatedAt.Add(time.Hour)
	require.NoError(t, repo.Update(ctx, firm))

	got, err := repo.FindOne(ctx, 1, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Acme Industries", got.Name)
	assert.Equal(t, "inactive", got.Status)
	assert.True(t, got.OpeningBalance.Equal(decimal.RequireFromString("-12.75")))
}

func TestUpdateMissingFirm(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	err := repo.Update(context.Background(), testFirm(404, "user-1", "Ghost"))
	assert.ErrorIs(t, err, ErrFirmNotFound)
}

func TestDelete(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testFirm(1, "user-1", "Acme Traders")))
	require.NoError(t, repo.Delete(ctx, 1, "user-1"))

	_, err := repo.FindOne(ctx, 1, "user-1")
	assert.ErrorIs(t, err, ErrFirmNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, 1, "user-1"), ErrFirmNotFound)
}

func TestDeleteScopedToUser(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testFirm(1, "user-1", "Acme Traders")))

	assert.ErrorIs(t, repo.Delete(ctx, 1, "user-2"), ErrFirmNotFound)

	_, err := repo.FindOne(ctx, 1, "user-1")
	assert.NoError(t, err)
}
