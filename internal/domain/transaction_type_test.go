package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		raw  TransactionType
		want Classification
	}{
		{TypeSale, Credit},
		{TypeWithdrawal, Credit},
		{TypePurchase, Debit},
		{TypeDeposit, Debit},
		{TransactionType("refund"), Unclassified},
		{TransactionType("SALE"), Unclassified},
		{TransactionType(""), Unclassified},
	}

	for _, tt := range tests {
		t.Run(string(tt.raw), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.raw.Classify())
		})
	}
}

func TestClassificationSign(t *testing.T) {
	assert.Equal(t, 1, TypeSale.Classify().Sign())
	assert.Equal(t, 1, TypeWithdrawal.Classify().Sign())
	assert.Equal(t, -1, TypePurchase.Classify().Sign())
	assert.Equal(t, -1, TypeDeposit.Classify().Sign())
	assert.Equal(t, 0, TransactionType("gift").Classify().Sign())
}

func TestIsClassified(t *testing.T) {
	assert.True(t, TypeSale.IsClassified())
	assert.True(t, TypeDeposit.IsClassified())
	assert.False(t, TransactionType("refund").IsClassified())
}

func TestBalanceTypeFor(t *testing.T) {
	assert.Equal(t, BalanceCollect, BalanceTypeFor(decimal.NewFromInt(1)))
	assert.Equal(t, BalancePay, BalanceTypeFor(decimal.Zero))
	assert.Equal(t, BalancePay, BalanceTypeFor(decimal.NewFromInt(-5)))
}

func TestZeroLedgerSummary(t *testing.T) {
	s := ZeroLedgerSummary()

	assert.Equal(t, BalancePay, s.BalanceType)
	assert.True(t, s.Balance.IsZero())
	assert.True(t, s.TotalSale.IsZero())
	assert.True(t, s.TotalPurchase.IsZero())
	assert.True(t, s.TotalWithdraw.IsZero())
	assert.True(t, s.TotalDeposit.IsZero())
}
