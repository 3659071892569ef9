package collections

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/creditpool/creditpool-backend/pkg/db"
	"github.com/creditpool/creditpool-backend/pkg/db/models"
	"github.com/creditpool/creditpool-backend/pkg/enums"
	pkgerrors "github.com/creditpool/creditpool-backend/pkg/errors"
	"github.com/creditpool/creditpool-backend/pkg/logger"
	"github.com/creditpool/creditpool-backend/pkg/occ"
	"github.com/creditpool/creditpool-backend/pkg/pagination"
)

var errDeadlinePassed = errors.New("collection deadline passed")

const (
	maxTitleLen       = 120
	maxDescriptionLen = 4000
	maxCategoryLen    = 60
)

// ServiceParams groups dependencies for the collection service.
type ServiceParams struct {
	Repo    Repository
	Watcher *GoalWatcher
	Retry   occ.Policy
	Logger  *logger.Logger
}

// Service exposes collection lifecycle operations outside the money path.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Collection, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Collection, error)
	List(ctx context.Context, input ListInput) ([]models.Collection, error)
	Edit(ctx context.Context, input EditInput) (*models.Collection, error)
}

type service struct {
	repo    Repository
	watcher *GoalWatcher
	retry   occ.Policy
	logg    *logger.Logger
}

// NewService builds a collection service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "collection repo is required")
	}
	if params.Watcher == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "goal watcher is required")
	}
	return &service{
		repo:    params.Repo,
		watcher: params.Watcher,
		retry:   params.Retry,
		logg:    params.Logger,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Collection, error) {
	now := s.watcher.Now()
	collection, err := buildCollection(input, now)
	if err != nil {
		return nil, err
	}

	err = occ.Do(ctx, s.retry, func(ctx context.Context) error {
		return s.repo.Create(ctx, collection)
	})
	if err != nil {
		return nil, err
	}
	return collection, nil
}

func buildCollection(input CreateInput, now time.Time) (*models.Collection, error) {
	if input.OwnerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner id is required")
	}
	title, err := cleanTitle(input.Title)
	if err != nil {
		return nil, err
	}
	if err := ValidateGoal(input.GoalAmount); err != nil {
		return nil, err
	}
	if !input.EndCondition.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "end condition must be by_goal or by_date").
			WithDetails(map[string]any{"field": "end_condition"})
	}

	start := now
	if input.StartDate != nil && !input.StartDate.IsZero() {
		start = input.StartDate.UTC()
	}

	var deadline *time.Time
	if input.EndCondition == enums.EndConditionByDate {
		if input.Deadline == nil || input.Deadline.IsZero() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "deadline is required for date-ended collections").
				WithDetails(map[string]any{"field": "deadline"})
		}
		d := input.Deadline.UTC()
		if !d.After(now) || !d.After(start) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "deadline must be in the future and after the start date").
				WithDetails(map[string]any{"field": "deadline"})
		}
		deadline = &d
	}

	var image *string
	if input.ImageURL != nil {
		if trimmed := strings.TrimSpace(*input.ImageURL); trimmed != "" {
			image = &trimmed
		}
	}

	return &models.Collection{
		ID:           uuid.New(),
		OwnerID:      input.OwnerID,
		Title:        title,
		Description:  truncate(strings.TrimSpace(input.Description), maxDescriptionLen),
		Category:     truncate(strings.TrimSpace(input.Category), maxCategoryLen),
		ImageURL:     image,
		GoalAmount:   input.GoalAmount,
		Status:       enums.CollectionStatusActive,
		EndCondition: input.EndCondition,
		StartDate:    start,
		Deadline:     deadline,
	}, nil
}

// Get returns the collection after applying any pending deadline transition.
func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Collection, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "collection id is required")
	}
	var collection *models.Collection
	err := occ.Do(ctx, s.retry, func(ctx context.Context) error {
		found, err := s.repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "collection not found")
			}
			return err
		}
		collection = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	if _, err := s.watcher.ApplyDeadline(ctx, collection); err != nil {
		return nil, err
	}
	return collection, nil
}

func (s *service) List(ctx context.Context, input ListInput) ([]models.Collection, error) {
	var rows []models.Collection
	err := occ.Do(ctx, s.retry, func(ctx context.Context) error {
		found, err := s.repo.List(ctx, ListFilter{
			Status:  input.Status,
			OwnerID: input.OwnerID,
			Sort:    input.Sort,
			Limit:   pagination.NormalizeLimit(input.Limit),
		})
		rows = found
		return err
	})
	if err != nil {
		return nil, err
	}

	out := rows[:0]
	for i := range rows {
		if _, err := s.watcher.ApplyDeadline(ctx, &rows[i]); err != nil {
			return nil, err
		}
		// An active filter must not return rows the deadline just closed.
		if input.Status != nil && rows[i].Status != *input.Status {
			continue
		}
		out = append(out, rows[i])
	}
	return out, nil
}

// Edit updates owner-editable fields. Lowering the goal to or below what has
// been raised closes a goal-ended collection right away.
func (s *service) Edit(ctx context.Context, input EditInput) (*models.Collection, error) {
	update, err := buildDetailsUpdate(input)
	if err != nil {
		return nil, err
	}

	var collection *models.Collection
	err = occ.Do(ctx, s.retry, func(ctx context.Context) error {
		current, err := s.repo.FindByID(ctx, input.CollectionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "collection not found")
			}
			return err
		}
		if current.OwnerID != input.OwnerID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the owner can edit a collection")
		}
		if err := EnsureAcceptsContributions(current); err != nil {
			return err
		}
		if current.DeadlinePassed(s.watcher.Now()) {
			return errDeadlinePassed
		}

		ok, err := s.repo.UpdateDetails(ctx, current.ID, current.Version, update)
		if err != nil {
			return err
		}
		if !ok {
			return occ.ErrStale
		}
		applyDetails(current, update)
		current.Version++
		collection = current
		return nil
	})
	if errors.Is(err, errDeadlinePassed) {
		if _, closeErr := s.watcher.Evaluate(ctx, input.CollectionID); closeErr != nil {
			return nil, closeErr
		}
		return nil, pkgerrors.New(pkgerrors.CodeCollectionClosed, "collection deadline has passed")
	}
	if err != nil {
		return nil, db.Classify(err, "edit collection")
	}

	if _, err := s.watcher.EvaluateCollection(ctx, collection); err != nil && s.logg != nil {
		s.logg.Error(s.logg.WithCollectionID(ctx, collection.ID.String()), "goal check after edit failed", err)
	}
	return collection, nil
}

func buildDetailsUpdate(input EditInput) (DetailsUpdate, error) {
	if input.OwnerID == uuid.Nil || input.CollectionID == uuid.Nil {
		return DetailsUpdate{}, pkgerrors.New(pkgerrors.CodeValidation, "owner id and collection id are required")
	}
	var update DetailsUpdate
	if input.Title != nil {
		title, err := cleanTitle(*input.Title)
		if err != nil {
			return DetailsUpdate{}, err
		}
		update.Title = &title
	}
	if input.Description != nil {
		desc := truncate(strings.TrimSpace(*input.Description), maxDescriptionLen)
		update.Description = &desc
	}
	if input.GoalAmount != nil {
		if err := ValidateGoal(*input.GoalAmount); err != nil {
			return DetailsUpdate{}, err
		}
		goal := *input.GoalAmount
		update.GoalAmount = &goal
	}
	if update.Title == nil && update.Description == nil && update.GoalAmount == nil {
		return DetailsUpdate{}, pkgerrors.New(pkgerrors.CodeValidation, "nothing to update")
	}
	return update, nil
}

func applyDetails(c *models.Collection, update DetailsUpdate) {
	if update.Title != nil {
		c.Title = *update.Title
	}
	if update.Description != nil {
		c.Description = *update.Description
	}
	if update.GoalAmount != nil {
		c.GoalAmount = *update.GoalAmount
	}
}

func cleanTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	if title == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "title is required").
			WithDetails(map[string]any{"field": "title"})
	}
	return truncate(title, maxTitleLen), nil
}

func truncate(value string, max int) string {
	runes := []rune(value)
	if len(runes) <= max {
		return value
	}
	return string(runes[:max])
}
