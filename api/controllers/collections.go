package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/creditpool/creditpool-backend/api/responses"
	"github.com/creditpool/creditpool-backend/api/validators"
	"github.com/creditpool/creditpool-backend/internal/collections"
	"github.com/creditpool/creditpool-backend/internal/likes"
	"github.com/creditpool/creditpool-backend/pkg/db/models"
	"github.com/creditpool/creditpool-backend/pkg/enums"
	pkgerrors "github.com/creditpool/creditpool-backend/pkg/errors"
	"github.com/creditpool/creditpool-backend/pkg/logger"
)

type createCollectionPayload struct {
	Title        string     `json:"title" validate:"required,max=120"`
	Description  string     `json:"description" validate:"max=5000"`
	Category     string     `json:"category" validate:"max=64"`
	ImageURL     *string    `json:"image_url" validate:"omitempty,url"`
	GoalAmount   int64      `json:"goal_amount"`
	EndCondition string     `json:"end_condition" validate:"required,end_condition"`
	StartDate    *time.Time `json:"start_date"`
	Deadline     *time.Time `json:"deadline"`
}

type editCollectionPayload struct {
	Title       *string `json:"title" validate:"omitempty,max=120"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
	GoalAmount  *int64  `json:"goal_amount"`
}

// collectionView is a collection as seen by the caller.
type collectionView struct {
	models.Collection
	Liked bool `json:"liked"`
}

// CollectionCreate opens a new collection owned by the caller.
func CollectionCreate(svc collections.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			serviceUnavailable(ctx, logg, w, "collection")
			return
		}
		userID, ok := requireUser(ctx, logg, w)
		if !ok {
			return
		}

		var payload createCollectionPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		collection, err := svc.Create(ctx, collections.CreateInput{
			OwnerID:      userID,
			Title:        payload.Title,
			Description:  payload.Description,
			Category:     validators.SanitizeString(payload.Category, 64),
			ImageURL:     payload.ImageURL,
			GoalAmount:   payload.GoalAmount,
			EndCondition: enums.EndCondition(payload.EndCondition),
			StartDate:    payload.StartDate,
			Deadline:     payload.Deadline,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, collectionView{Collection: *collection})
	}
}

// CollectionList lists collections filtered by status and ordered by sort.
// mine=true restricts the listing to the caller's own collections.
func CollectionList(svc collections.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			serviceUnavailable(ctx, logg, w, "collection")
			return
		}
		userID, ok := requireUser(ctx, logg, w)
		if !ok {
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", defaultListLimit, 1, maxListLimit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		mine, err := validators.ParseQueryBool(r, "mine", false)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		input := collections.ListInput{
			Sort:  collections.ParseSort(strings.TrimSpace(r.URL.Query().Get("sort"))),
			Limit: limit,
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseCollectionStatus(raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status").
					WithDetails(map[string]any{"field": "status"}))
				return
			}
			input.Status = &status
		}
		if mine {
			input.OwnerID = &userID
		}

		list, err := svc.List(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// CollectionGet returns one collection, closing it first if its deadline has
// passed, and whether the caller likes it.
func CollectionGet(svc collections.Service, registry likes.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			serviceUnavailable(ctx, logg, w, "collection")
			return
		}
		userID, ok := requireUser(ctx, logg, w)
		if !ok {
			return
		}
		collectionID, err := validators.ParsePathUUID(r, "collectionId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		collection, err := svc.Get(ctx, collectionID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		view := collectionView{Collection: *collection}
		if registry != nil {
			liked, err := registry.IsLiked(ctx, userID, collectionID)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			view.Liked = liked
		}
		responses.WriteSuccess(w, view)
	}
}

// CollectionEdit applies an owner's changes to title, description or goal.
func CollectionEdit(svc collections.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			serviceUnavailable(ctx, logg, w, "collection")
			return
		}
		userID, ok := requireUser(ctx, logg, w)
		if !ok {
			return
		}
		collectionID, err := validators.ParsePathUUID(r, "collectionId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload editCollectionPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		collection, err := svc.Edit(ctx, collections.EditInput{
			OwnerID:      userID,
			CollectionID: collectionID,
			Title:        payload.Title,
			Description:  payload.Description,
			GoalAmount:   payload.GoalAmount,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, collectionView{Collection: *collection})
	}
}
