package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/creditpool/creditpool-backend/pkg/enums"
)

// UserRole grants a capability to a user.
type UserRole struct {
	UserID    uuid.UUID  `gorm:"column:user_id;type:uuid;not null;uniqueIndex:user_roles_user_role_key,priority:1"`
	Role      enums.Role `gorm:"column:role;not null;uniqueIndex:user_roles_user_role_key,priority:2"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
}
