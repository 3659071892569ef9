package controllers

import (
	"net/http"

	"github.com/creditpool/creditpool-backend/api/responses"
	"github.com/creditpool/creditpool-backend/api/validators"
	"github.com/creditpool/creditpool-backend/internal/likes"
	"github.com/creditpool/creditpool-backend/pkg/logger"
)

// LikeToggle flips the caller's like on a collection.
func LikeToggle(registry likes.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if registry == nil {
			serviceUnavailable(ctx, logg, w, "likes")
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

		result, err := registry.ToggleLike(ctx, userID, collectionID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// LikedCollections returns the ids of collections the caller likes.
func LikedCollections(registry likes.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if registry == nil {
			serviceUnavailable(ctx, logg, w, "likes")
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

		ids, err := registry.LikedCollectionIDs(ctx, userID, limit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"collection_ids": ids})
	}
}
