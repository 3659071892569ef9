package wallets

import (
	"fmt"

	"github.com/creditpool/creditpool-backend/pkg/db/models"
	pkgerrors "github.com/creditpool/creditpool-backend/pkg/errors"
)

// ValidateAmount rejects zero and negative credit amounts.
func ValidateAmount(amount int64) error {
	if amount <= 0 {
		return pkgerrors.New(pkgerrors.CodeInvalidAmount, "amount must be greater than zero").
			WithDetails(map[string]any{"amount": amount})
	}
	return nil
}

// ValidateTargetBalance rejects negative absolute balances.
func ValidateTargetBalance(balance int64) error {
	if balance < 0 {
		return pkgerrors.New(pkgerrors.CodeInvalidAmount, "balance cannot be negative").
			WithDetails(map[string]any{"balance": balance})
	}
	return nil
}

// EnsureSufficient fails when debiting amount would overdraw the wallet.
func EnsureSufficient(wallet *models.Wallet, amount int64) error {
	var balance int64
	if wallet != nil {
		balance = wallet.Balance
	}
	if balance < amount {
		return pkgerrors.New(pkgerrors.CodeInsufficientFunds, fmt.Sprintf("balance %d is below %d", balance, amount))
	}
	return nil
}
