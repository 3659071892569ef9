package likes

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/creditpool/creditpool-backend/internal/repo"
	"github.com/creditpool/creditpool-backend/pkg/db/models"
)

// Drift is a collection whose cached likes_count disagrees with its membership rows.
type Drift struct {
	CollectionID uuid.UUID `gorm:"column:collection_id"`
	Cached       int64     `gorm:"column:cached"`
	Actual       int64     `gorm:"column:actual"`
}

// Repository persists like membership and the denormalized counter.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Add(ctx context.Context, collectionID, userID uuid.UUID) (bool, error)
	Remove(ctx context.Context, collectionID, userID uuid.UUID) (bool, error)
	Exists(ctx context.Context, collectionID, userID uuid.UUID) (bool, error)
	Count(ctx context.Context, collectionID uuid.UUID) (int64, error)
	AdjustCounter(ctx context.Context, collectionID uuid.UUID, delta int64) error
	SetCounter(ctx context.Context, collectionID uuid.UUID, count int64) (bool, error)
	ListCollectionIDs(ctx context.Context, userID uuid.UUID, limit int) ([]uuid.UUID, error)
	ListDrifted(ctx context.Context, limit int) ([]Drift, error)
}

type repository struct {
	repo.Base
}

// NewRepository constructs a like repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{Base: r.Bind(tx)}
}

// Add inserts the membership row and ignores duplicates. It reports whether
// a row was actually written.
func (r *repository) Add(ctx context.Context, collectionID, userID uuid.UUID) (bool, error) {
	if collectionID == uuid.Nil || userID == uuid.Nil {
		return false, gorm.ErrInvalidValue
	}
	res := r.DB(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "collection_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).
		Create(&models.CollectionLike{CollectionID: collectionID, UserID: userID})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Remove deletes the membership row if it exists.
func (r *repository) Remove(ctx context.Context, collectionID, userID uuid.UUID) (bool, error) {
	res := r.DB(ctx).
		Where("collection_id = ? AND user_id = ?", collectionID, userID).
		Delete(&models.CollectionLike{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) Exists(ctx context.Context, collectionID, userID uuid.UUID) (bool, error) {
	var n int64
	err := r.DB(ctx).
		Model(&models.CollectionLike{}).
		Where("collection_id = ? AND user_id = ?", collectionID, userID).
		Count(&n).
		Error
	return n > 0, err
}

func (r *repository) Count(ctx context.Context, collectionID uuid.UUID) (int64, error) {
	var n int64
	err := r.DB(ctx).
		Model(&models.CollectionLike{}).
		Where("collection_id = ?", collectionID).
		Count(&n).
		Error
	return n, err
}

// AdjustCounter moves likes_count by delta without touching the version
// column, so likes never conflict with contributions. The cache never goes
// below zero.
func (r *repository) AdjustCounter(ctx context.Context, collectionID uuid.UUID, delta int64) error {
	query := r.DB(ctx).Model(&models.Collection{}).Where("id = ?", collectionID)
	if delta < 0 {
		query = query.Where("likes_count >= ?", -delta)
	}
	return query.UpdateColumn("likes_count", gorm.Expr("likes_count + ?", delta)).Error
}

// SetCounter overwrites likes_count and reports whether the value changed.
func (r *repository) SetCounter(ctx context.Context, collectionID uuid.UUID, count int64) (bool, error) {
	res := r.DB(ctx).
		Model(&models.Collection{}).
		Where("id = ? AND likes_count <> ?", collectionID, count).
		UpdateColumn("likes_count", count)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ListCollectionIDs returns the collections a user likes, most recent first.
func (r *repository) ListCollectionIDs(ctx context.Context, userID uuid.UUID, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.DB(ctx).
		Model(&models.CollectionLike{}).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Pluck("collection_id", &ids).
		Error
	return ids, err
}

// ListDrifted finds collections whose cache disagrees with the true count.
func (r *repository) ListDrifted(ctx context.Context, limit int) ([]Drift, error) {
	var rows []Drift
	err := r.DB(ctx).
		Table("collections c").
		Select("c.id AS collection_id, c.likes_count AS cached, COUNT(l.user_id) AS actual").
		Joins("LEFT JOIN collection_likes l ON l.collection_id = c.id").
		Group("c.id, c.likes_count").
		Having("COUNT(l.user_id) <> c.likes_count").
		Limit(limit).
		Scan(&rows).
		Error
	return rows, err
}
