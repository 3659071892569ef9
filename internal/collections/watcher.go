package collections

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/creditpool/creditpool-backend/pkg/db"
	"github.com/creditpool/creditpool-backend/pkg/db/models"
	"github.com/creditpool/creditpool-backend/pkg/enums"
	"github.com/creditpool/creditpool-backend/pkg/logger"
	"github.com/creditpool/creditpool-backend/pkg/metrics"
)

// WatcherParams wires the goal watcher.
type WatcherParams struct {
	Repo         Repository
	Now          func() time.Time
	StoreTimeout time.Duration
	Metrics      *metrics.LedgerMetrics
	Logger       *logger.Logger
}

// GoalWatcher owns the active -> closed transition for normal flows. Closing
// an already closed collection is a no-op, so any number of callers may
// evaluate the same collection concurrently.
type GoalWatcher struct {
	repo    Repository
	now     func() time.Time
	timeout time.Duration
	metrics *metrics.LedgerMetrics
	logg    *logger.Logger
}

// NewGoalWatcher validates params and returns a watcher.
func NewGoalWatcher(params WatcherParams) (*GoalWatcher, error) {
	if params.Repo == nil {
		return nil, errors.New("collection repo is required")
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	timeout := params.StoreTimeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &GoalWatcher{
		repo:    params.Repo,
		now:     now,
		timeout: timeout,
		metrics: params.Metrics,
		logg:    params.Logger,
	}, nil
}

// Now exposes the watcher's clock so callers share one notion of time.
func (w *GoalWatcher) Now() time.Time {
	return w.now()
}

// Decide reports whether c should close at now and why.
func Decide(c *models.Collection, now time.Time) (enums.ClosedReason, bool) {
	if !c.IsActive() {
		return "", false
	}
	if c.GoalReached() {
		return enums.ClosedReasonGoalReached, true
	}
	if c.DeadlinePassed(now) {
		return enums.ClosedReasonDeadlinePassed, true
	}
	return "", false
}

// Evaluate loads the collection and closes it if a trigger fired.
func (w *GoalWatcher) Evaluate(ctx context.Context, collectionID uuid.UUID) (bool, error) {
	loadCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()
	collection, err := w.repo.FindByID(loadCtx, collectionID)
	if err != nil {
		return false, db.Classify(err, "load collection for goal check")
	}
	return w.EvaluateCollection(ctx, collection)
}

// EvaluateCollection applies the triggers to an already loaded collection. On
// a transition the in-memory copy is updated to reflect the closed state.
func (w *GoalWatcher) EvaluateCollection(ctx context.Context, collection *models.Collection) (bool, error) {
	reason, fire := Decide(collection, w.now())
	if !fire {
		return false, nil
	}
	return w.close(ctx, collection, reason)
}

// ApplyDeadline runs only the deadline trigger. Reads call it before
// returning a collection so an expired one never looks active.
func (w *GoalWatcher) ApplyDeadline(ctx context.Context, collection *models.Collection) (bool, error) {
	if !collection.IsActive() || !collection.DeadlinePassed(w.now()) {
		return false, nil
	}
	return w.close(ctx, collection, enums.ClosedReasonDeadlinePassed)
}

func (w *GoalWatcher) close(ctx context.Context, collection *models.Collection, reason enums.ClosedReason) (bool, error) {
	at := w.now()
	writeCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	closed, err := w.repo.CloseIfActive(writeCtx, collection.ID, reason, at)
	if err != nil {
		return false, db.Classify(err, "close collection")
	}

	// Losing the race still means the collection is closed.
	collection.Status = enums.CollectionStatusClosed
	if closed {
		collection.Version++
		collection.ClosedAt = &at
		collection.ClosedReason = &reason
		w.metrics.IncClosed(string(reason))
		if w.logg != nil {
			logCtx := w.logg.WithCollectionID(ctx, collection.ID.String())
			w.logg.Info(w.logg.WithField(logCtx, "reason", reason), "collection closed")
		}
	}
	return closed, nil
}
