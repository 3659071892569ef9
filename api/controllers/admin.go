package controllers

import (
	"net/http"

	"github.com/creditpool/creditpool-backend/api/responses"
	"github.com/creditpool/creditpool-backend/api/validators"
	"github.com/creditpool/creditpool-backend/internal/admin"
	"github.com/creditpool/creditpool-backend/pkg/enums"
	"github.com/creditpool/creditpool-backend/pkg/logger"
)

const maxAdjustReasonLen = 280

type adjustBalancePayload struct {
	Balance *int64 `json:"balance" validate:"required"`
	Reason  string `json:"reason" validate:"max=280"`
}

type setStatusPayload struct {
	Status string `json:"status" validate:"required,collection_status"`
}

// AdminAdjustBalance sets a user's wallet to an absolute balance.
func AdminAdjustBalance(svc admin.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			serviceUnavailable(ctx, logg, w, "admin")
			return
		}
		adminID, ok := requireUser(ctx, logg, w)
		if !ok {
			return
		}
		targetID, err := validators.ParsePathUUID(r, "userId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload adjustBalancePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.AdjustBalance(ctx, adminID, targetID, *payload.Balance, validators.SanitizeString(payload.Reason, maxAdjustReasonLen))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func AdminListWallets(svc admin.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			serviceUnavailable(ctx, logg, w, "admin")
			return
		}
		adminID, ok := requireUser(ctx, logg, w)
		if !ok {
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", defaultListLimit, 1, maxListLimit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		list, err := svc.ListWallets(ctx, adminID, limit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// AdminWalletAudit compares a wallet's balance against its ledger records.
func AdminWalletAudit(svc admin.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			serviceUnavailable(ctx, logg, w, "admin")
			return
		}
		adminID, ok := requireUser(ctx, logg, w)
		if !ok {
			return
		}
		userID, err := validators.ParsePathUUID(r, "userId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		audit, err := svc.AuditWallet(ctx, adminID, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, audit)
	}
}

func AdminListCollections(svc admin.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			serviceUnavailable(ctx, logg, w, "admin")
			return
		}
		adminID, ok := requireUser(ctx, logg, w)
		if !ok {
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", defaultListLimit, 1, maxListLimit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		list, err := svc.ListCollections(ctx, adminID, limit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// AdminSetCollectionStatus opens or closes a collection regardless of its end condition.
func AdminSetCollectionStatus(svc admin.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			serviceUnavailable(ctx, logg, w, "admin")
			return
		}
		adminID, ok := requireUser(ctx, logg, w)
		if !ok {
			return
		}
		collectionID, err := validators.ParsePathUUID(r, "collectionId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload setStatusPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		collection, err := svc.SetCollectionStatus(ctx, adminID, collectionID, enums.CollectionStatus(payload.Status))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, collection)
	}
}

// AdminDeleteCollection removes a collection with its contributions and likes.
// Wallet transactions stay and lose their collection reference.
func AdminDeleteCollection(svc admin.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			serviceUnavailable(ctx, logg, w, "admin")
			return
		}
		adminID, ok := requireUser(ctx, logg, w)
		if !ok {
			return
		}
		collectionID, err := validators.ParsePathUUID(r, "collectionId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.DeleteCollection(ctx, adminID, collectionID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
