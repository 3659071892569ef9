package app

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/creditpool/creditpool-backend/internal/ledger"
	"github.com/creditpool/creditpool-backend/pkg/config"
	"github.com/creditpool/creditpool-backend/pkg/db/dbtest"
)

func testLedgerConfig() config.LedgerConfig {
	return config.LedgerConfig{
		StoreTimeout:         time.Second,
		MaxAttempts:          4,
		RetryBackoff:         5 * time.Millisecond,
		DefaultDepositMethod: "card",
	}
}

func TestRetryPolicy(t *testing.T) {
	policy := RetryPolicy(testLedgerConfig())
	require.Equal(t, 4, policy.MaxAttempts)
	require.Equal(t, 5*time.Millisecond, policy.Backoff)
	require.Equal(t, time.Second, policy.AttemptTimeout)
}

func TestBuildRequiresDatabase(t *testing.T) {
	_, err := Build(Params{Ledger: testLedgerConfig()})
	require.Error(t, err)
}

func TestBuildWiresServices(t *testing.T) {
	services, err := Build(Params{DB: dbtest.Open(t), Ledger: testLedgerConfig()})
	require.NoError(t, err)
	require.NotNil(t, services.Watcher)

	userID := uuid.New()
	result, err := services.Ledger.Deposit(context.Background(), ledger.DepositInput{UserID: userID, Amount: 40})
	require.NoError(t, err)
	require.Equal(t, int64(40), result.Wallet.Balance)

	wallet, err := services.Wallets.Get(context.Background(), userID)
	require.NoError(t, err)
	require.Equal(t, int64(40), wallet.Balance)
}
