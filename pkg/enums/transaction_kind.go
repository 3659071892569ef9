package enums

import "fmt"

// TransactionKind classifies a wallet audit record.
type TransactionKind string

const (
	TransactionKindDeposit         TransactionKind = "deposit"
	TransactionKindContribution    TransactionKind = "contribution"
	TransactionKindAdminAdjustment TransactionKind = "admin_adjustment"
)

var validTransactionKinds = []TransactionKind{
	TransactionKindDeposit,
	TransactionKindContribution,
	TransactionKindAdminAdjustment,
}

// String implements fmt.Stringer.
func (k TransactionKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known transaction kind.
func (k TransactionKind) IsValid() bool {
	for _, candidate := range validTransactionKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseTransactionKind converts raw input into TransactionKind.
func ParseTransactionKind(value string) (TransactionKind, error) {
	for _, candidate := range validTransactionKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transaction kind %q", value)
}
