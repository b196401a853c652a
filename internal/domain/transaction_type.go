package domain

// TransactionType is a transaction's category label. The known set is
// sale, withdrawal, purchase, and deposit; any other value is carried
// through storage and listings untouched but classifies as Unclassified,
// contributing nothing to balances or category totals.
type TransactionType string

const (
	TypeSale       TransactionType = "sale"
	TypeWithdrawal TransactionType = "withdrawal"
	TypePurchase   TransactionType = "purchase"
	TypeDeposit    TransactionType = "deposit"
)

// Classification is the signed contribution rule of a transaction type.
// Keeping Unclassified as an explicit variant makes exclusion-from-totals a
// visible branch in every aggregation, not an implicit fallthrough.
type Classification int

const (
	// Unclassified types are a defined no-op: stored and listed, but
	// excluded from balance and category totals.
	Unclassified Classification = iota
	Credit
	Debit
)

// Classify maps the type to its contribution rule: sale and withdrawal are
// credits, purchase and deposit are debits, everything else is unclassified.
// Every aggregation path must go through this method so the credit/debit
// rule is never duplicated.
func (t TransactionType) Classify() Classification {
	switch t {
	case TypeSale, TypeWithdrawal:
		return Credit
	case TypePurchase, TypeDeposit:
		return Debit
	default:
		return Unclassified
	}
}

// Sign returns the balance multiplier of the classification: +1 for
// credits, -1 for debits, 0 for unclassified.
func (c Classification) Sign() int {
	switch c {
	case Credit:
		return 1
	case Debit:
		return -1
	default:
		return 0
	}
}

// IsClassified reports whether the type belongs to the known category set.
func (t TransactionType) IsClassified() bool {
	return t.Classify() != Unclassified
}

// String returns the wire representation of the type.
func (t TransactionType) String() string {
	return string(t)
}
