package ledger

import (
	"github.com/google/uuid"

	"github.com/creditpool/creditpool-backend/pkg/db/models"
	"github.com/creditpool/creditpool-backend/pkg/enums"
)

// DepositInput credits a user's wallet. Method only labels the audit record.
type DepositInput struct {
	UserID uuid.UUID
	Amount int64
	Method enums.DepositMethod
}

// DepositResult is the wallet after the credit plus its audit record.
type DepositResult struct {
	Wallet      models.Wallet      `json:"wallet"`
	Transaction models.Transaction `json:"transaction"`
}

// ContributeInput moves credits from a wallet into a collection.
type ContributeInput struct {
	UserID         uuid.UUID
	CollectionID   uuid.UUID
	Amount         int64
	Public         bool
	IdempotencyKey string
}

// ContributeResult describes a committed contribution. CollectionClosed is
// true only when this call moved the collection to closed.
type ContributeResult struct {
	Contribution     models.Contribution `json:"contribution"`
	Transaction      models.Transaction  `json:"transaction"`
	Collection       models.Collection   `json:"collection"`
	WalletBalance    int64               `json:"wallet_balance"`
	CollectionClosed bool                `json:"collection_closed"`
	Replayed         bool                `json:"replayed"`
}

// AdminAdjustInput sets a wallet to an absolute balance.
type AdminAdjustInput struct {
	AdminID      uuid.UUID
	TargetUserID uuid.UUID
	NewBalance   int64
	Reason       string
}

// AdjustResult reports the applied delta alongside the new wallet state.
type AdjustResult struct {
	Wallet      models.Wallet      `json:"wallet"`
	Transaction models.Transaction `json:"transaction"`
	Delta       int64              `json:"delta"`
}

// WalletAudit compares the stored balance with the sum of its ledger records.
type WalletAudit struct {
	UserID     uuid.UUID `json:"user_id"`
	Balance    int64     `json:"balance"`
	LedgerSum  int64     `json:"ledger_sum"`
	Consistent bool      `json:"consistent"`
}
