package models

import (
	"time"

	"github.com/google/uuid"
)

// CollectionLike marks that a user likes a collection. The pair is unique.
type CollectionLike struct {
	CollectionID uuid.UUID `gorm:"column:collection_id;type:uuid;not null;uniqueIndex:collection_likes_collection_user_key,priority:1"`
	UserID       uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:collection_likes_collection_user_key,priority:2;index:collection_likes_user_id_idx"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}
