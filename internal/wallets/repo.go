package wallets

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/creditpool/creditpool-backend/internal/repo"
	"github.com/creditpool/creditpool-backend/pkg/db/models"
)

// Repository persists wallet rows. Balance writes are compare-and-swap on version.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Ensure(ctx context.Context, userID uuid.UUID) error
	Get(ctx context.Context, userID uuid.UUID) (*models.Wallet, error)
	CompareAndSwap(ctx context.Context, userID uuid.UUID, expectedVersion, newBalance int64) (bool, error)
	List(ctx context.Context, limit int) ([]models.Wallet, error)
}

type repository struct {
	repo.Base
}

// NewRepository builds a wallet repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{Base: r.Bind(tx)}
}

// Ensure creates an empty wallet for the user when none exists.
func (r *repository) Ensure(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return gorm.ErrInvalidValue
	}
	return r.DB(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(&models.Wallet{UserID: userID}).
		Error
}

func (r *repository) Get(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := r.DB(ctx).Where("user_id = ?", userID).Take(&wallet).Error; err != nil {
		return nil, err
	}
	return &wallet, nil
}

// CompareAndSwap writes newBalance only if the row still carries expectedVersion.
// A false result with a nil error means another writer got there first.
func (r *repository) CompareAndSwap(ctx context.Context, userID uuid.UUID, expectedVersion, newBalance int64) (bool, error) {
	res := r.DB(ctx).
		Model(&models.Wallet{}).
		Where("user_id = ? AND version = ?", userID, expectedVersion).
		Updates(map[string]any{
			"balance": newBalance,
			"version": gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) List(ctx context.Context, limit int) ([]models.Wallet, error) {
	var rows []models.Wallet
	err := r.DB(ctx).
		Order("updated_at DESC").
		Order("user_id").
		Limit(limit).
		Find(&rows).
		Error
	return rows, err
}
