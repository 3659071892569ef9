package models

import (
	"time"

	"github.com/google/uuid"
)

// Contribution is an append-only credit transfer into a collection.
type Contribution struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	CollectionID uuid.UUID `gorm:"column:collection_id;type:uuid;not null;index:contributions_collection_id_idx" json:"collection_id"`
	UserID       uuid.UUID `gorm:"column:user_id;type:uuid;not null;index:contributions_user_id_idx" json:"user_id"`
	Amount       int64     `gorm:"column:amount;not null;check:contributions_amount_positive,amount > 0" json:"amount"`
	Visible      bool      `gorm:"column:visible;not null" json:"visible"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}
