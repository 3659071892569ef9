package likes

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/creditpool/creditpool-backend/internal/collections"
	"github.com/creditpool/creditpool-backend/pkg/db"
	pkgerrors "github.com/creditpool/creditpool-backend/pkg/errors"
	"github.com/creditpool/creditpool-backend/pkg/logger"
	"github.com/creditpool/creditpool-backend/pkg/metrics"
	"github.com/creditpool/creditpool-backend/pkg/occ"
	"github.com/creditpool/creditpool-backend/pkg/pagination"
)

const reconcileBatch = 500

// ToggleResult is the membership state after a toggle and the recounted total.
type ToggleResult struct {
	Liked      bool  `json:"liked"`
	LikesCount int64 `json:"likes_count"`
}

// ServiceParams wires the like registry.
type ServiceParams struct {
	Tx          db.Transactor
	Repo        Repository
	Collections collections.Repository
	Retry       occ.Policy
	Metrics     *metrics.LedgerMetrics
	Logger      *logger.Logger
}

// Registry owns like membership and keeps likes_count derived from it.
type Registry interface {
	ToggleLike(ctx context.Context, userID, collectionID uuid.UUID) (*ToggleResult, error)
	Reconcile(ctx context.Context, collectionID uuid.UUID) (int64, error)
	ReconcileAll(ctx context.Context) (int, error)
	IsLiked(ctx context.Context, userID, collectionID uuid.UUID) (bool, error)
	LikedCollectionIDs(ctx context.Context, userID uuid.UUID, limit int) ([]uuid.UUID, error)
}

type service struct {
	tx          db.Transactor
	repo        Repository
	collections collections.Repository
	retry       occ.Policy
	metrics     *metrics.LedgerMetrics
	logg        *logger.Logger
}

// NewService builds the registry.
func NewService(params ServiceParams) (Registry, error) {
	if params.Tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transactor is required")
	}
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "like repo is required")
	}
	if params.Collections == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "collection repo is required")
	}
	return &service{
		tx:          params.Tx,
		repo:        params.Repo,
		collections: params.Collections,
		retry:       params.Retry,
		metrics:     params.Metrics,
		logg:        params.Logger,
	}, nil
}

// ToggleLike flips membership for the pair. The unique constraint on
// (collection_id, user_id) turns a racing duplicate insert into a no-op, and
// the returned count is always recounted from membership rows.
func (s *service) ToggleLike(ctx context.Context, userID, collectionID uuid.UUID) (*ToggleResult, error) {
	if userID == uuid.Nil || collectionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id and collection id are required")
	}

	var result *ToggleResult
	err := occ.Do(ctx, s.retry, func(ctx context.Context) error {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			likeRepo := s.repo.WithTx(tx)
			if _, err := s.collections.WithTx(tx).FindByID(ctx, collectionID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "collection not found")
				}
				return err
			}

			removed, err := likeRepo.Remove(ctx, collectionID, userID)
			if err != nil {
				return err
			}
			liked := !removed
			if removed {
				err = likeRepo.AdjustCounter(ctx, collectionID, -1)
			} else {
				var added bool
				added, err = likeRepo.Add(ctx, collectionID, userID)
				if err == nil && added {
					err = likeRepo.AdjustCounter(ctx, collectionID, 1)
				}
			}
			if err != nil {
				return err
			}

			count, err := likeRepo.Count(ctx, collectionID)
			if err != nil {
				return err
			}
			repaired, err := likeRepo.SetCounter(ctx, collectionID, count)
			if err != nil {
				return err
			}
			if repaired {
				s.metrics.AddLikeRepairs(1)
			}
			result = &ToggleResult{Liked: liked, LikesCount: count}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Reconcile rewrites likes_count from the membership rows and returns it.
func (s *service) Reconcile(ctx context.Context, collectionID uuid.UUID) (int64, error) {
	if collectionID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "collection id is required")
	}
	var count int64
	err := occ.Do(ctx, s.retry, func(ctx context.Context) error {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			if _, err := s.collections.WithTx(tx).FindByID(ctx, collectionID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "collection not found")
				}
				return err
			}
			likeRepo := s.repo.WithTx(tx)
			n, err := likeRepo.Count(ctx, collectionID)
			if err != nil {
				return err
			}
			repaired, err := likeRepo.SetCounter(ctx, collectionID, n)
			if err != nil {
				return err
			}
			if repaired {
				s.metrics.AddLikeRepairs(1)
			}
			count = n
			return nil
		})
	})
	return count, err
}

// ReconcileAll repairs every drifted counter and returns how many were fixed.
func (s *service) ReconcileAll(ctx context.Context) (int, error) {
	var drifted []Drift
	err := occ.Do(ctx, s.retry, func(ctx context.Context) error {
		rows, err := s.repo.ListDrifted(ctx, reconcileBatch)
		drifted = rows
		return err
	})
	if err != nil {
		return 0, err
	}

	fixed := 0
	for _, d := range drifted {
		if _, err := s.Reconcile(ctx, d.CollectionID); err != nil {
			if pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
				continue
			}
			return fixed, err
		}
		fixed++
		if s.logg != nil {
			logCtx := s.logg.WithCollectionID(ctx, d.CollectionID.String())
			s.logg.Warn(s.logg.WithFields(logCtx, map[string]any{"cached": d.Cached, "actual": d.Actual}), "likes counter repaired")
		}
	}
	return fixed, nil
}

func (s *service) IsLiked(ctx context.Context, userID, collectionID uuid.UUID) (bool, error) {
	var liked bool
	err := occ.Do(ctx, s.retry, func(ctx context.Context) error {
		found, err := s.repo.Exists(ctx, collectionID, userID)
		liked = found
		return err
	})
	return liked, err
}

func (s *service) LikedCollectionIDs(ctx context.Context, userID uuid.UUID, limit int) ([]uuid.UUID, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	var ids []uuid.UUID
	err := occ.Do(ctx, s.retry, func(ctx context.Context) error {
		found, err := s.repo.ListCollectionIDs(ctx, userID, pagination.NormalizeLimit(limit))
		ids = found
		return err
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}
