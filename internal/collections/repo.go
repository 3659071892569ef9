package collections

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/creditpool/creditpool-backend/internal/repo"
	"github.com/creditpool/creditpool-backend/pkg/db/models"
	"github.com/creditpool/creditpool-backend/pkg/enums"
)

// Repository persists collection rows. Every mutating call bumps version.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, collection *models.Collection) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Collection, error)
	AddRaised(ctx context.Context, id uuid.UUID, expectedVersion, amount int64) (bool, error)
	CloseIfActive(ctx context.Context, id uuid.UUID, reason enums.ClosedReason, at time.Time) (bool, error)
	SetStatus(ctx context.Context, id uuid.UUID, expectedVersion int64, change StatusChange) (bool, error)
	UpdateDetails(ctx context.Context, id uuid.UUID, expectedVersion int64, update DetailsUpdate) (bool, error)
	List(ctx context.Context, filter ListFilter) ([]models.Collection, error)
	ListExpired(ctx context.Context, now time.Time, limit int) ([]models.Collection, error)
	ListGoalReached(ctx context.Context, limit int) ([]models.Collection, error)
	Delete(ctx context.Context, id uuid.UUID) (DeleteResult, error)
}

// StatusChange is the admin-driven status write.
type StatusChange struct {
	Status   enums.CollectionStatus
	Reason   *enums.ClosedReason
	ClosedAt *time.Time
}

// DetailsUpdate carries the owner-editable fields. Nil fields are left alone.
type DetailsUpdate struct {
	Title       *string
	Description *string
	GoalAmount  *int64
}

// DeleteResult reports how many dependent rows went with the collection.
type DeleteResult struct {
	Contributions int64 `json:"contributions"`
	Likes         int64 `json:"likes"`
	Detached      int64 `json:"detached_transactions"`
}

type repository struct {
	repo.Base
}

// NewRepository builds a collection repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{Base: r.Bind(tx)}
}

func (r *repository) Create(ctx context.Context, collection *models.Collection) error {
	if collection.ID == uuid.Nil {
		collection.ID = uuid.New()
	}
	return r.DB(ctx).Create(collection).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Collection, error) {
	var collection models.Collection
	if err := r.DB(ctx).Where("id = ?", id).Take(&collection).Error; err != nil {
		return nil, err
	}
	return &collection, nil
}

// AddRaised credits amount to the collection if the version still matches.
func (r *repository) AddRaised(ctx context.Context, id uuid.UUID, expectedVersion, amount int64) (bool, error) {
	return r.casUpdate(ctx, id, expectedVersion, map[string]any{
		"raised_amount": gorm.Expr("raised_amount + ?", amount),
	})
}

// CloseIfActive performs the one-way active -> closed transition. Only the
// caller whose write lands gets true back.
func (r *repository) CloseIfActive(ctx context.Context, id uuid.UUID, reason enums.ClosedReason, at time.Time) (bool, error) {
	res := r.DB(ctx).
		Model(&models.Collection{}).
		Where("id = ? AND status = ?", id, enums.CollectionStatusActive).
		Updates(map[string]any{
			"status":        enums.CollectionStatusClosed,
			"closed_at":     at,
			"closed_reason": reason,
			"version":       gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) SetStatus(ctx context.Context, id uuid.UUID, expectedVersion int64, change StatusChange) (bool, error) {
	return r.casUpdate(ctx, id, expectedVersion, map[string]any{
		"status":        change.Status,
		"closed_reason": change.Reason,
		"closed_at":     change.ClosedAt,
	})
}

func (r *repository) UpdateDetails(ctx context.Context, id uuid.UUID, expectedVersion int64, update DetailsUpdate) (bool, error) {
	fields := map[string]any{}
	if update.Title != nil {
		fields["title"] = *update.Title
	}
	if update.Description != nil {
		fields["description"] = *update.Description
	}
	if update.GoalAmount != nil {
		fields["goal_amount"] = *update.GoalAmount
	}
	return r.casUpdate(ctx, id, expectedVersion, fields)
}

func (r *repository) casUpdate(ctx context.Context, id uuid.UUID, expectedVersion int64, fields map[string]any) (bool, error) {
	fields["version"] = gorm.Expr("version + 1")
	res := r.DB(ctx).
		Model(&models.Collection{}).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(fields)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]models.Collection, error) {
	query := r.DB(ctx).Model(&models.Collection{})
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.OwnerID != nil {
		query = query.Where("owner_id = ?", *filter.OwnerID)
	}
	switch filter.Sort {
	case SortMostLiked:
		query = query.Order("likes_count DESC")
	case SortMostRaised:
		query = query.Order("raised_amount DESC")
	}
	var rows []models.Collection
	err := query.
		Order("created_at DESC").
		Order("id").
		Limit(filter.Limit).
		Find(&rows).
		Error
	return rows, err
}

// ListExpired returns active date-ended collections whose deadline is at or before now.
func (r *repository) ListExpired(ctx context.Context, now time.Time, limit int) ([]models.Collection, error) {
	var rows []models.Collection
	err := r.DB(ctx).
		Where("status = ? AND end_condition = ? AND deadline IS NOT NULL AND deadline <= ?",
			enums.CollectionStatusActive, enums.EndConditionByDate, now).
		Order("deadline").
		Limit(limit).
		Find(&rows).
		Error
	return rows, err
}

// ListGoalReached returns active goal-ended collections that already met their goal.
func (r *repository) ListGoalReached(ctx context.Context, limit int) ([]models.Collection, error) {
	var rows []models.Collection
	err := r.DB(ctx).
		Where("status = ? AND end_condition = ? AND raised_amount >= goal_amount",
			enums.CollectionStatusActive, enums.EndConditionByGoal).
		Order("updated_at").
		Limit(limit).
		Find(&rows).
		Error
	return rows, err
}

// Delete removes the collection with its contributions and likes. Wallet
// transactions survive with collection_id cleared so balances still reconcile.
// Callers run it inside a transaction.
func (r *repository) Delete(ctx context.Context, id uuid.UUID) (DeleteResult, error) {
	db := r.DB(ctx)
	var result DeleteResult

	res := db.Where("collection_id = ?", id).Delete(&models.Contribution{})
	if res.Error != nil {
		return result, res.Error
	}
	result.Contributions = res.RowsAffected

	res = db.Where("collection_id = ?", id).Delete(&models.CollectionLike{})
	if res.Error != nil {
		return result, res.Error
	}
	result.Likes = res.RowsAffected

	res = db.Model(&models.Transaction{}).Where("collection_id = ?", id).Update("collection_id", nil)
	if res.Error != nil {
		return result, res.Error
	}
	result.Detached = res.RowsAffected

	res = db.Where("id = ?", id).Delete(&models.Collection{})
	if res.Error != nil {
		return result, res.Error
	}
	if res.RowsAffected == 0 {
		return result, gorm.ErrRecordNotFound
	}
	return result, nil
}
