// Package transactions provides storage for transaction records. Every
// query is scoped by both firm and user; the ledger engine reads snapshots
// through this repository and never mutates them.
package transactions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Firm-Management/backend/internal/domain"
	"github.com/Firm-Management/backend/internal/fiscalyear"
)

// ErrTransactionNotFound is returned when a transaction does not exist or
// is not owned by the requesting user.
var ErrTransactionNotFound = errors.New("transaction not found")

// Repository provides transaction persistence operations.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new transaction repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const txColumns = `id, user_id, firm_id, amount, type, description, date,
                 created_at, updated_at`

// Create inserts a new transaction. ID, date, and timestamps must already
// be set by the caller.
func (r *Repository) Create(ctx context.Context, tx *domain.Transaction) error {
	query := `INSERT INTO transactions (` + txColumns + `)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		tx.ID, tx.UserID, tx.FirmID, tx.Amount.String(), tx.Type.String(),
		tx.Description, tx.Date.UnixMilli(),
		tx.CreatedAt.UnixMilli(), tx.UpdatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	return nil
}

// FindByFirmAndUser returns the firm's transactions for the user. A nil
// window returns the full history; otherwise only rows with
// window.Start <= date <= window.End.
func (r *Repository) FindByFirmAndUser(ctx context.Context, firmID int64, userID string, window *fiscalyear.Window) ([]domain.Transaction, error) {
	query := `SELECT ` + txColumns + ` FROM transactions WHERE firm_id = ? AND user_id = ?`
	args := []interface{}{firmID, userID}

	if window != nil {
		query += " AND date >= ? AND date <= ?"
		args = append(args, window.Start.UnixMilli(), window.End.UnixMilli())
	}

	query += " ORDER BY date, id"

	return r.queryTransactions(ctx, query, args...)
}

// FindBefore returns the firm's transactions dated strictly before the
// given instant. Used for carry-forward computation.
func (r *Repository) FindBefore(ctx context.Context, firmID int64, userID string, before time.Time) ([]domain.Transaction, error) {
	query := `SELECT ` + txColumns + ` FROM transactions
	          WHERE firm_id = ? AND user_id = ? AND date < ?
	          ORDER BY date, id`

	return r.queryTransactions(ctx, query, firmID, userID, before.UnixMilli())
}

// FindAllByUser returns all of the user's transactions across firms,
// optionally restricted to a window. Callers partition by firm client-side.
func (r *Repository) FindAllByUser(ctx context.Context, userID string, window *fiscalyear.Window) ([]domain.Transaction, error) {
	query := `SELECT ` + txColumns + ` FROM transactions WHERE user_id = ?`
	args := []interface{}{userID}

	if window != nil {
		query += " AND date >= ? AND date <= ?"
		args = append(args, window.Start.UnixMilli(), window.End.UnixMilli())
	}

	query += " ORDER BY date, id"

	return r.queryTransactions(ctx, query, args...)
}

// FindLatestByUser returns the user's most recent transactions, newest
// first, capped at limit.
func (r *Repository) FindLatestByUser(ctx context.Context, userID string, limit int) ([]domain.Transaction, error) {
	query := `SELECT ` + txColumns + ` FROM transactions
	          WHERE user_id = ?
	          ORDER BY date DESC, id DESC
	          LIMIT ?`

	return r.queryTransactions(ctx, query, userID, limit)
}

// FindOne returns a single transaction by id, scoped to the owning user.
// Returns ErrTransactionNotFound when absent.
func (r *Repository) FindOne(ctx context.Context, id int64, userID string) (*domain.Transaction, error) {
	query := `SELECT ` + txColumns + ` FROM transactions WHERE id = ? AND user_id = ?`

	row := r.db.QueryRowContext(ctx, query, id, userID)
	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}

	return &tx, nil
}

// Update rewrites the mutable fields of a transaction scoped to the owning
// user. Returns ErrTransactionNotFound when no row matches.
func (r *Repository) Update(ctx context.Context, tx *domain.Transaction) error {
	query := `UPDATE transactions
	          SET firm_id = ?, amount = ?, type = ?, description = ?, date = ?, updated_at = ?
	          WHERE id = ? AND user_id = ?`

	res, err := r.db.ExecContext(ctx, query,
		tx.FirmID, tx.Amount.String(), tx.Type.String(), tx.Description,
		tx.Date.UnixMilli(), tx.UpdatedAt.UnixMilli(),
		tx.ID, tx.UserID)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrTransactionNotFound
	}

	return nil
}

// Delete removes a transaction scoped to the owning user.
// Returns ErrTransactionNotFound when no row matches.
func (r *Repository) Delete(ctx context.Context, id int64, userID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrTransactionNotFound
	}

	return nil
}

// DeleteByFirm removes every transaction of a firm for the user. Used when
// deleting the firm itself.
func (r *Repository) DeleteByFirm(ctx context.Context, firmID int64, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE firm_id = ? AND user_id = ?`, firmID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete firm transactions: %w", err)
	}
	return nil
}

func (r *Repository) queryTransactions(ctx context.Context, query string, args ...interface{}) ([]domain.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	txs := make([]domain.Transaction, 0)
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}

	return txs, nil
}

// scanner matches both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(row scanner) (domain.Transaction, error) {
	var tx domain.Transaction
	var amount, txType string
	var date, createdAt, updatedAt int64

	err := row.Scan(&tx.ID, &tx.UserID, &tx.FirmID, &amount, &txType,
		&tx.Description, &date, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Transaction{}, err
		}
		return domain.Transaction{}, fmt.Errorf("failed to scan transaction row: %w", err)
	}

	tx.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("failed to parse amount %q: %w", amount, err)
	}

	tx.Type = domain.TransactionType(txType)
	tx.Date = time.UnixMilli(date).UTC()
	tx.CreatedAt = time.UnixMilli(createdAt).UTC()
	tx.UpdatedAt = time.UnixMilli(updatedAt).UTC()

	return tx, nil
}
