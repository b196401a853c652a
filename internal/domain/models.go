// Package domain holds the core data model shared by repositories,
// the ledger engine, and HTTP handlers.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a single financial entry belonging to a firm. Amount is an
// unsigned magnitude; the direction of its balance contribution is derived
// from Type, never stored negative.
type Transaction struct {
	ID          int64           `json:"id"`
	UserID      string          `json:"userId"`
	FirmID      int64           `json:"firmId"`
	Amount      decimal.Decimal `json:"amount"`
	Type        TransactionType `json:"type"`
	Description string          `json:"description"`
	Date        time.Time       `json:"date"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Firm is a business entity owned by a user.
type Firm struct {
	ID              int64           `json:"id"`
	UserID          string          `json:"userId"`
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
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// User is an account holder. PasswordHash is a bcrypt hash and never leaves
// the users module.
type User struct {
	UserID       string    `json:"userId"`
	FirmName     string    `json:"firmName"`
	GSTNumber    string    `json:"gstNumber"`
	MobileNumber string    `json:"mobileNumber"`
	Address      string    `json:"address"`
	Established  time.Time `json:"established"`
	OwnerName    string    `json:"ownerName"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
}

// Balance type labels: a positive balance is money to collect, anything
// else (including exactly zero) is money to pay.
const (
	BalanceCollect = "collect"
	BalancePay     = "pay"
)

// LedgerSummary is the computed, non-persisted view of a firm's position.
// Balance folds in the carry-forward from prior financial years; the four
// category totals cover in-window transactions only.
type LedgerSummary struct {
	Balance       decimal.Decimal `json:"balance"`
	BalanceType   string          `json:"balanceType"`
	TotalSale     decimal.Decimal `json:"totalSale"`
	TotalPurchase decimal.Decimal `json:"totalPurchase"`
	TotalWithdraw decimal.Decimal `json:"totalWithdraw"`
	TotalDeposit  decimal.Decimal `json:"totalDeposit"`
}

// ZeroLedgerSummary returns the summary of a firm with no transactions.
func ZeroLedgerSummary() LedgerSummary {
	return LedgerSummary{
		Balance:       decimal.Zero,
		BalanceType:   BalancePay,
		TotalSale:     decimal.Zero,
		TotalPurchase: decimal.Zero,
		TotalWithdraw: decimal.Zero,
		TotalDeposit:  decimal.Zero,
	}
}

// BalanceTypeFor classifies a balance: strictly positive collects, zero or
// negative pays.
func BalanceTypeFor(balance decimal.Decimal) string {
	if balance.GreaterThan(decimal.Zero) {
		return BalanceCollect
	}
	return BalancePay
}
