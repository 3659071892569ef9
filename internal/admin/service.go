package admin

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/creditpool/creditpool-backend/internal/collections"
	"github.com/creditpool/creditpool-backend/internal/ledger"
	"github.com/creditpool/creditpool-backend/internal/wallets"
	"github.com/creditpool/creditpool-backend/pkg/db"
	"github.com/creditpool/creditpool-backend/pkg/db/models"
	"github.com/creditpool/creditpool-backend/pkg/enums"
	pkgerrors "github.com/creditpool/creditpool-backend/pkg/errors"
	"github.com/creditpool/creditpool-backend/pkg/logger"
	"github.com/creditpool/creditpool-backend/pkg/occ"
	"github.com/creditpool/creditpool-backend/pkg/pagination"
)

// ServiceParams wires the admin override surface.
type ServiceParams struct {
	Authorizer  Authorizer
	Ledger      ledger.Service
	Tx          db.Transactor
	Collections collections.Repository
	Wallets     wallets.Repository
	Now         func() time.Time
	Retry       occ.Policy
	Logger      *logger.Logger
}

// Service is the privileged path. Every call checks the caller first.
type Service interface {
	AdjustBalance(ctx context.Context, adminID, targetUserID uuid.UUID, newBalance int64, reason string) (*ledger.AdjustResult, error)
	SetCollectionStatus(ctx context.Context, adminID, collectionID uuid.UUID, status enums.CollectionStatus) (*models.Collection, error)
	DeleteCollection(ctx context.Context, adminID, collectionID uuid.UUID) (*collections.DeleteResult, error)
	ListWallets(ctx context.Context, adminID uuid.UUID, limit int) ([]models.Wallet, error)
	ListCollections(ctx context.Context, adminID uuid.UUID, limit int) ([]models.Collection, error)
	AuditWallet(ctx context.Context, adminID, userID uuid.UUID) (*ledger.WalletAudit, error)
}

type service struct {
	auth        Authorizer
	ledger      ledger.Service
	tx          db.Transactor
	collections collections.Repository
	wallets     wallets.Repository
	now         func() time.Time
	retry       occ.Policy
	logg        *logger.Logger
}

// NewService validates params and returns the admin service.
func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Authorizer == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "authorizer is required")
	case params.Ledger == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ledger service is required")
	case params.Tx == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transactor is required")
	case params.Collections == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "collection repo is required")
	case params.Wallets == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wallet repo is required")
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		auth:        params.Authorizer,
		ledger:      params.Ledger,
		tx:          params.Tx,
		collections: params.Collections,
		wallets:     params.Wallets,
		now:         now,
		retry:       params.Retry,
		logg:        params.Logger,
	}, nil
}

func (s *service) authorize(ctx context.Context, adminID uuid.UUID) error {
	ok, err := s.auth.IsAdmin(ctx, adminID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check admin role")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "admin role required")
	}
	return nil
}

func (s *service) AdjustBalance(ctx context.Context, adminID, targetUserID uuid.UUID, newBalance int64, reason string) (*ledger.AdjustResult, error) {
	if err := s.authorize(ctx, adminID); err != nil {
		return nil, err
	}
	return s.ledger.AdminAdjustBalance(ctx, ledger.AdminAdjustInput{
		AdminID:      adminID,
		TargetUserID: targetUserID,
		NewBalance:   newBalance,
		Reason:       reason,
	})
}

// SetCollectionStatus moves a collection between active and closed in either
// direction. Setting the current status again is a no-op.
func (s *service) SetCollectionStatus(ctx context.Context, adminID, collectionID uuid.UUID, status enums.CollectionStatus) (*models.Collection, error) {
	if err := s.authorize(ctx, adminID); err != nil {
		return nil, err
	}
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "status must be active or closed").
			WithDetails(map[string]any{"status": status})
	}

	var collection *models.Collection
	err := occ.Do(ctx, s.retry, func(ctx context.Context) error {
		current, err := s.collections.FindByID(ctx, collectionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "collection not found")
			}
			return err
		}
		if current.Status == status {
			collection = current
			return nil
		}

		change := collections.StatusChange{Status: status}
		if status == enums.CollectionStatusClosed {
			reason := enums.ClosedReasonAdmin
			at := s.now()
			change.Reason = &reason
			change.ClosedAt = &at
		}
		ok, err := s.collections.SetStatus(ctx, current.ID, current.Version, change)
		if err != nil {
			return err
		}
		if !ok {
			return occ.ErrStale
		}
		current.Status = change.Status
		current.ClosedReason = change.Reason
		current.ClosedAt = change.ClosedAt
		current.Version++
		collection = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithCollectionID(ctx, collectionID.String())
		s.logg.Warn(s.logg.WithFields(logCtx, map[string]any{"admin_id": adminID.String(), "status": status}), "collection status overridden")
	}
	return collection, nil
}

// DeleteCollection removes the collection with its contributions and likes.
// Wallet transactions stay, detached from the collection.
func (s *service) DeleteCollection(ctx context.Context, adminID, collectionID uuid.UUID) (*collections.DeleteResult, error) {
	if err := s.authorize(ctx, adminID); err != nil {
		return nil, err
	}

	var result collections.DeleteResult
	err := occ.Do(ctx, s.retry, func(ctx context.Context) error {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			res, err := s.collections.WithTx(tx).Delete(ctx, collectionID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "collection not found")
				}
				return err
			}
			result = res
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithCollectionID(ctx, collectionID.String())
		s.logg.Warn(s.logg.WithFields(logCtx, map[string]any{
			"admin_id":      adminID.String(),
			"contributions": result.Contributions,
			"likes":         result.Likes,
		}), "collection deleted")
	}
	return &result, nil
}

func (s *service) ListWallets(ctx context.Context, adminID uuid.UUID, limit int) ([]models.Wallet, error) {
	if err := s.authorize(ctx, adminID); err != nil {
		return nil, err
	}
	var rows []models.Wallet
	err := occ.Do(ctx, s.retry, func(ctx context.Context) error {
		found, err := s.wallets.List(ctx, pagination.NormalizeLimit(limit))
		rows = found
		return err
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListCollections returns every collection regardless of status, newest first.
func (s *service) ListCollections(ctx context.Context, adminID uuid.UUID, limit int) ([]models.Collection, error) {
	if err := s.authorize(ctx, adminID); err != nil {
		return nil, err
	}
	var rows []models.Collection
	err := occ.Do(ctx, s.retry, func(ctx context.Context) error {
		found, err := s.collections.List(ctx, collections.ListFilter{
			Sort:  collections.SortNewest,
			Limit: pagination.NormalizeLimit(limit),
		})
		rows = found
		return err
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *service) AuditWallet(ctx context.Context, adminID, userID uuid.UUID) (*ledger.WalletAudit, error) {
	if err := s.authorize(ctx, adminID); err != nil {
		return nil, err
	}
	return s.ledger.AuditWallet(ctx, userID)
}
