package ledger

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/creditpool/creditpool-backend/internal/repo"
	"github.com/creditpool/creditpool-backend/pkg/db/models"
	"github.com/creditpool/creditpool-backend/pkg/enums"
)

// Repository manages the append-only ledger tables: transactions and contributions.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateTransaction(ctx context.Context, txn *models.Transaction) error
	CreateContribution(ctx context.Context, contribution *models.Contribution) error
	ListTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]models.Transaction, error)
	ListContributions(ctx context.Context, collectionID uuid.UUID, publicOnly bool, limit int) ([]models.Contribution, error)
	SumTransactions(ctx context.Context, userID uuid.UUID) (int64, error)
	SumContributions(ctx context.Context, collectionID uuid.UUID) (int64, error)
}

type repository struct {
	repo.Base
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{Base: r.Bind(tx)}
}

func (r *repository) CreateTransaction(ctx context.Context, txn *models.Transaction) error {
	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}
	return r.DB(ctx).Create(txn).Error
}

func (r *repository) CreateContribution(ctx context.Context, contribution *models.Contribution) error {
	if contribution.ID == uuid.Nil {
		contribution.ID = uuid.New()
	}
	return r.DB(ctx).Create(contribution).Error
}

// ListTransactions returns the user's audit trail, newest first.
func (r *repository) ListTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]models.Transaction, error) {
	var rows []models.Transaction
	err := r.DB(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).
		Error
	return rows, err
}

// ListContributions returns a collection's contributions, newest first.
func (r *repository) ListContributions(ctx context.Context, collectionID uuid.UUID, publicOnly bool, limit int) ([]models.Contribution, error) {
	query := r.DB(ctx).Where("collection_id = ?", collectionID)
	if publicOnly {
		query = query.Where("visible = ?", true)
	}
	var rows []models.Contribution
	err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).
		Error
	return rows, err
}

// SumTransactions totals every wallet-touching record for the user.
func (r *repository) SumTransactions(ctx context.Context, userID uuid.UUID) (int64, error) {
	var total int64
	err := r.DB(ctx).
		Model(&models.Transaction{}).
		Where("user_id = ? AND kind IN ?", userID, []enums.TransactionKind{
			enums.TransactionKindDeposit,
			enums.TransactionKindContribution,
			enums.TransactionKindAdminAdjustment,
		}).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).
		Error
	return total, err
}

// SumContributions totals the credits contributed to a collection.
func (r *repository) SumContributions(ctx context.Context, collectionID uuid.UUID) (int64, error) {
	var total int64
	err := r.DB(ctx).
		Model(&models.Contribution{}).
		Where("collection_id = ?", collectionID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).
		Error
	return total, err
}
