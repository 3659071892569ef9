package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/creditpool/creditpool-backend/pkg/enums"
)

// Collection is a funding goal that accumulates contributed credits.
type Collection struct {
	ID           uuid.UUID              `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OwnerID      uuid.UUID              `gorm:"column:owner_id;type:uuid;not null;index:collections_owner_id_idx" json:"owner_id"`
	Title        string                 `gorm:"column:title;not null" json:"title"`
	Description  string                 `gorm:"column:description;not null" json:"description"`
	Category     string                 `gorm:"column:category;not null" json:"category"`
	ImageURL     *string                `gorm:"column:image_url" json:"image_url,omitempty"`
	GoalAmount   int64                  `gorm:"column:goal_amount;not null;check:collections_goal_positive,goal_amount > 0" json:"goal_amount"`
	RaisedAmount int64                  `gorm:"column:raised_amount;not null;default:0;check:collections_raised_non_negative,raised_amount >= 0" json:"raised_amount"`
	LikesCount   int64                  `gorm:"column:likes_count;not null;default:0" json:"likes_count"`
	Status       enums.CollectionStatus `gorm:"column:status;not null;index:collections_status_idx" json:"status"`
	EndCondition enums.EndCondition     `gorm:"column:end_condition;not null" json:"end_condition"`
	StartDate    time.Time              `gorm:"column:start_date;not null" json:"start_date"`
	Deadline     *time.Time             `gorm:"column:deadline" json:"deadline,omitempty"`
	ClosedAt     *time.Time             `gorm:"column:closed_at" json:"closed_at,omitempty"`
	ClosedReason *enums.ClosedReason    `gorm:"column:closed_reason" json:"closed_reason,omitempty"`
	Version      int64                  `gorm:"column:version;not null;default:0" json:"-"`
	CreatedAt    time.Time              `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time              `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// IsActive reports whether the stored status still accepts contributions.
func (c *Collection) IsActive() bool {
	return c != nil && c.Status == enums.CollectionStatusActive
}

// GoalReached reports whether a goal-ended collection has met its target.
func (c *Collection) GoalReached() bool {
	return c.EndCondition == enums.EndConditionByGoal && c.RaisedAmount >= c.GoalAmount
}

// DeadlinePassed reports whether a date-ended collection is past its deadline at now.
func (c *Collection) DeadlinePassed(now time.Time) bool {
	return c.EndCondition == enums.EndConditionByDate && c.Deadline != nil && !now.Before(*c.Deadline)
}
