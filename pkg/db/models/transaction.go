package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/creditpool/creditpool-backend/pkg/enums"
)

// Transaction is the wallet audit trail. Amount is signed: credits to the
// wallet are positive, debits negative.
type Transaction struct {
	ID           uuid.UUID             `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID             `gorm:"column:user_id;type:uuid;not null;index:transactions_user_created_idx,priority:1" json:"user_id"`
	CollectionID *uuid.UUID            `gorm:"column:collection_id;type:uuid" json:"collection_id,omitempty"`
	Kind         enums.TransactionKind `gorm:"column:kind;not null" json:"kind"`
	Amount       int64                 `gorm:"column:amount;not null" json:"amount"`
	Description  string                `gorm:"column:description;not null" json:"description"`
	CreatedAt    time.Time             `gorm:"column:created_at;autoCreateTime;index:transactions_user_created_idx,priority:2" json:"created_at"`
}
