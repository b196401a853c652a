// Package firms provides storage for firm records. Every query is scoped by
// the owning user so one user can never observe another user's firms.
package firms

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Firm-Management/backend/internal/domain"
)

// ErrFirmNotFound is returned when a firm does not exist or is not owned by
// the requesting user. Callers must not conflate this with an empty ledger.
var ErrFirmNotFound = errors.New("firm not found")

// Repository provides firm persistence operations.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new firm repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const firmColumns = `id, user_id, name, contact, address, website, industry,
                 established_year, gst_number, status, owner, opening_balance,
                 created_at, updated_at`

// Create inserts a new firm. ID and timestamps must already be set.
func (r *Repository) Create(ctx context.Context, firm *domain.Firm) error {
	query := `INSERT INTO firms (` + firmColumns + `)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		firm.ID, firm.UserID, firm.Name, firm.Contact, firm.Address,
		firm.Website, firm.Industry, firm.EstablishedYear, firm.GSTNumber,
		firm.Status, firm.Owner, firm.OpeningBalance.String(),
		firm.CreatedAt.UnixMilli(), firm.UpdatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to insert firm: %w", err)
	}

	return nil
}

// FindByUser returns all firms owned by the user, in insertion order.
func (r *Repository) FindByUser(ctx context.Context, userID string) ([]domain.Firm, error) {
	query := `SELECT ` + firmColumns + ` FROM firms WHERE user_id = ? ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query firms: %w", err)
	}
	defer rows.Close()

	firms := make([]domain.Firm, 0)
	for rows.Next() {
		firm, err := scanFirm(rows)
		if err != nil {
			return nil, err
		}
		firms = append(firms, firm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate firms: %w", err)
	}

	return firms, nil
}

// FindOne returns a single firm by id, scoped to the owning user.
// Returns ErrFirmNotFound when absent or owned by someone else.
func (r *Repository) FindOne(ctx context.Context, firmID int64, userID string) (*domain.Firm, error) {
	query := `SELECT ` + firmColumns + ` FROM firms WHERE id = ? AND user_id = ?`

	row := r.db.QueryRowContext(ctx, query, firmID, userID)
	firm, err := scanFirm(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrFirmNotFound
	}
	if err != nil {
		return nil, err
	}

	return &firm, nil
}

// Update rewrites the mutable fields of a firm scoped to the owning user.
// Returns ErrFirmNotFound when no row matches.
func (r *Repository) Update(ctx context.Context, firm *domain.Firm) error {
	query := `UPDATE firms
	          SET name = ?, contact = ?, address = ?, website = ?, industry = ?,
	              established_year = ?, gst_number = ?, status = ?, owner = ?,
	              opening_balance = ?, updated_at = ?
	          WHERE id = ? AND user_id = ?`

	res, err := r.db.ExecContext(ctx, query,
		firm.Name, firm.Contact, firm.Address, firm.Website, firm.Industry,
		firm.EstablishedYear, firm.GSTNumber, firm.Status, firm.Owner,
		firm.OpeningBalance.String(), firm.UpdatedAt.UnixMilli(),
		firm.ID, firm.UserID)
	if err != nil {
		return fmt.Errorf("failed to update firm: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrFirmNotFound
	}

	return nil
}

// Delete removes a firm scoped to the owning user.
// Returns ErrFirmNotFound when no row matches.
func (r *Repository) Delete(ctx context.Context, firmID int64, userID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM firms WHERE id = ? AND user_id = ?`, firmID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete firm: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrFirmNotFound
	}

	return nil
}

// scanner matches both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanFirm(row scanner) (domain.Firm, error) {
	var firm domain.Firm
	var establishedYear sql.NullInt64
	var openingBalance string
	var createdAt, updatedAt int64

	err := row.Scan(&firm.ID, &firm.UserID, &firm.Name, &firm.Contact,
		&firm.Address, &firm.Website, &firm.Industry, &establishedYear,
		&firm.GSTNumber, &firm.Status, &firm.Owner, &openingBalance,
		&createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Firm{}, err
		}
		return domain.Firm{}, fmt.Errorf("failed to scan firm row: %w", err)
	}

	if establishedYear.Valid {
		year := int(establishedYear.Int64)
		firm.EstablishedYear = &year
	}

	firm.OpeningBalance, err = decimal.NewFromString(openingBalance)
	if err != nil {
		return domain.Firm{}, fmt.Errorf("failed to parse opening balance %q: %w", openingBalance, err)
	}

	firm.CreatedAt = time.UnixMilli(createdAt).UTC()
	firm.UpdatedAt = time.UnixMilli(updatedAt).UTC()

	return firm, nil
}
