package models

import (
	"time"

	"github.com/google/uuid"
)

// Wallet holds one user's spendable credits. Version guards every write.
type Wallet struct {
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;primaryKey" json:"user_id"`
	Balance   int64     `gorm:"column:balance;not null;default:0;check:wallets_balance_non_negative,balance >= 0" json:"balance"`
	Version   int64     `gorm:"column:version;not null;default:0" json:"version"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
