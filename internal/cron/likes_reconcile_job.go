package cron

import (
	"context"
	"errors"
	"fmt"

	"github.com/creditpool/creditpool-backend/internal/likes"
	"github.com/creditpool/creditpool-backend/pkg/logger"
)

// NewLikesReconcileJob repairs likes_count caches that drifted from the
// membership rows.
func NewLikesReconcileJob(logg *logger.Logger, registry likes.Registry) (Job, error) {
	if logg == nil {
		return nil, errors.New("logger required")
	}
	if registry == nil {
		return nil, errors.New("like registry required")
	}
	return &likesReconcileJob{logg: logg, registry: registry}, nil
}

type likesReconcileJob struct {
	logg     *logger.Logger
	registry likes.Registry
}

func (j *likesReconcileJob) Name() string { return "likes-reconcile" }

func (j *likesReconcileJob) Run(ctx context.Context) error {
	fixed, err := j.registry.ReconcileAll(ctx)
	if err != nil {
		return fmt.Errorf("reconcile likes: %w", err)
	}
	if fixed > 0 {
		j.logg.Warn(j.logg.WithField(ctx, "repaired", fixed), "likes counters repaired")
	}
	return nil
}
