package controllers

import (
	"net/http"
	"strings"

	"github.com/creditpool/creditpool-backend/api/responses"
	"github.com/creditpool/creditpool-backend/api/validators"
	"github.com/creditpool/creditpool-backend/internal/collections"
	"github.com/creditpool/creditpool-backend/internal/ledger"
	pkgerrors "github.com/creditpool/creditpool-backend/pkg/errors"
	"github.com/creditpool/creditpool-backend/pkg/logger"
)

const maxIdempotencyKeyLen = 128

type contributePayload struct {
	Amount int64 `json:"amount"`
	Public *bool `json:"public"`
}

// ContributionCreate moves credits from the caller's wallet into a collection.
// A repeated Idempotency-Key replays the first result.
func ContributionCreate(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			serviceUnavailable(ctx, logg, w, "ledger")
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

		key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
		if len(key) > maxIdempotencyKeyLen {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "idempotency key too long").
				WithDetails(map[string]any{"field": "Idempotency-Key", "max": maxIdempotencyKeyLen}))
			return
		}

		var payload contributePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		public := true
		if payload.Public != nil {
			public = *payload.Public
		}

		result, err := svc.Contribute(ctx, ledger.ContributeInput{
			UserID:         userID,
			CollectionID:   collectionID,
			Amount:         payload.Amount,
			Public:         public,
			IdempotencyKey: key,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		status := http.StatusCreated
		if result.Replayed {
			status = http.StatusOK
		}
		responses.WriteSuccessStatus(w, status, result)
	}
}

// ContributionList lists a collection's contributions. Only the owner may see
// anonymous contributions; everyone else always gets the public list.
func ContributionList(svc ledger.Service, collectionSvc collections.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil || collectionSvc == nil {
			serviceUnavailable(ctx, logg, w, "ledger")
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
		limit, err := validators.ParseQueryInt(r, "limit", defaultListLimit, 1, maxListLimit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		publicOnly, err := validators.ParseQueryBool(r, "public_only", true)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		collection, err := collectionSvc.Get(ctx, collectionID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if collection.OwnerID != userID {
			publicOnly = true
		}

		list, err := svc.ListContributions(ctx, collectionID, publicOnly, limit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
