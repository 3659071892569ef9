package cron

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/multierr"

	"github.com/creditpool/creditpool-backend/internal/collections"
	"github.com/creditpool/creditpool-backend/pkg/db/models"
	"github.com/creditpool/creditpool-backend/pkg/logger"
)

const defaultSweepBatch = 200

// CollectionExpiryJobParams wires the closure sweep.
type CollectionExpiryJobParams struct {
	Logger    *logger.Logger
	Repo      collections.Repository
	Watcher   *collections.GoalWatcher
	BatchSize int
}

// NewCollectionExpiryJob closes active collections whose deadline passed or
// whose goal was met without a follow-up goal check, e.g. after a crash
// between commit and evaluation. An admin-reopened collection that still
// meets its closing condition is closed again on the next run; reopening
// only sticks once the goal or deadline is changed.
func NewCollectionExpiryJob(params CollectionExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	if params.Repo == nil {
		return nil, errors.New("collection repository required")
	}
	if params.Watcher == nil {
		return nil, errors.New("goal watcher required")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultSweepBatch
	}
	return &collectionExpiryJob{
		logg:    params.Logger,
		repo:    params.Repo,
		watcher: params.Watcher,
		batch:   batch,
	}, nil
}

type collectionExpiryJob struct {
	logg    *logger.Logger
	repo    collections.Repository
	watcher *collections.GoalWatcher
	batch   int
}

func (j *collectionExpiryJob) Name() string { return "collection-expiry" }

func (j *collectionExpiryJob) Run(ctx context.Context) error {
	expired, err := j.repo.ListExpired(ctx, j.watcher.Now(), j.batch)
	if err != nil {
		return fmt.Errorf("list expired collections: %w", err)
	}
	reached, err := j.repo.ListGoalReached(ctx, j.batch)
	if err != nil {
		return fmt.Errorf("list goal-reached collections: %w", err)
	}

	var (
		errs   error
		closed int
	)
	for _, batch := range [][]models.Collection{expired, reached} {
		for i := range batch {
			ok, err := j.watcher.EvaluateCollection(ctx, &batch[i])
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("close %s: %w", batch[i].ID, err))
				continue
			}
			if ok {
				closed++
			}
		}
	}

	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"expired_candidates": len(expired),
		"goal_candidates":    len(reached),
		"closed":             closed,
	}), "collection expiry sweep complete")
	return errs
}
