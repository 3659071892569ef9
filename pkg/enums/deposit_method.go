package enums

import "fmt"

// DepositMethod labels how the user topped up their wallet.
type DepositMethod string

const (
	DepositMethodCard     DepositMethod = "card"
	DepositMethodBlik     DepositMethod = "blik"
	DepositMethodTransfer DepositMethod = "transfer"
)

var validDepositMethods = []DepositMethod{
	DepositMethodCard,
	DepositMethodBlik,
	DepositMethodTransfer,
}

// Label is the human readable name used in transaction descriptions.
func (m DepositMethod) Label() string {
	switch m {
	case DepositMethodBlik:
		return "BLIK"
	case DepositMethodTransfer:
		return "bank transfer"
	default:
		return "card"
	}
}

// IsValid reports whether the value is a known deposit method.
func (m DepositMethod) IsValid() bool {
	for _, candidate := range validDepositMethods {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseDepositMethod converts raw input into DepositMethod.
func ParseDepositMethod(value string) (DepositMethod, error) {
	for _, candidate := range validDepositMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid deposit method %q", value)
}
