// Package users provides storage for user accounts.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Firm-Management/backend/internal/domain"
)

var (
	// ErrUserNotFound is returned when no account matches the lookup.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken is returned when registering an already-known email.
	ErrEmailTaken = errors.New("email already registered")
)

// Repository provides user persistence operations.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new user repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const userColumns = `user_id, firm_name, gst_number, mobile_number, address,
                 established, owner_name, email, password_hash`

// Create inserts a new user. Returns ErrEmailTaken when the email is
// already registered.
func (r *Repository) Create(ctx context.Context, user *domain.User) error {
	query := `INSERT INTO users (` + userColumns + `, created_at, updated_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	now := time.Now().UnixMilli()
	_, err := r.db.ExecContext(ctx, query,
		user.UserID, user.FirmName, user.GSTNumber, user.MobileNumber,
		user.Address, user.Established.UnixMilli(), user.OwnerName,
		user.Email, user.PasswordHash, now, now)
	if err != nil {
		// sqlite reports unique violations as constraint errors mentioning
		// the column; both drivers used here include "UNIQUE" in the text.
		if strings.Contains(err.Error(), "UNIQUE") {
			return ErrEmailTaken
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

// FindByEmail returns the account registered under the email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	return r.findOne(ctx, query, email)
}

// FindByID returns the account with the given user id.
func (r *Repository) FindByID(ctx context.Context, userID string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = ?`
	return r.findOne(ctx, query, userID)
}

func (r *Repository) findOne(ctx context.Context, query string, arg interface{}) (*domain.User, error) {
	var user domain.User
	var established int64

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.UserID, &user.FirmName, &user.GSTNumber, &user.MobileNumber,
		&user.Address, &established, &user.OwnerName, &user.Email,
		&user.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user row: %w", err)
	}

	user.Established = time.UnixMilli(established).UTC()
	return &user, nil
}
