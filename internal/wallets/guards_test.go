package wallets

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/creditpool/creditpool-backend/pkg/db/models"
	pkgerrors "github.com/creditpool/creditpool-backend/pkg/errors"
)

func TestValidateAmount(t *testing.T) {
	assert.NoError(t, ValidateAmount(1))
	for _, amount := range []int64{0, -5} {
		err := ValidateAmount(amount)
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInvalidAmount), "amount %d", amount)
	}
}

func TestValidateTargetBalance(t *testing.T) {
	assert.NoError(t, ValidateTargetBalance(0))
	assert.True(t, pkgerrors.HasCode(ValidateTargetBalance(-1), pkgerrors.CodeInvalidAmount))
}

func TestEnsureSufficient(t *testing.T) {
	wallet := &models.Wallet{Balance: 60}
	assert.NoError(t, EnsureSufficient(wallet, 60))
	assert.True(t, pkgerrors.HasCode(EnsureSufficient(wallet, 70), pkgerrors.CodeInsufficientFunds))
	assert.True(t, pkgerrors.HasCode(EnsureSufficient(nil, 1), pkgerrors.CodeInsufficientFunds))
}
