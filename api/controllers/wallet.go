package controllers

import (
	"net/http"

	"github.com/creditpool/creditpool-backend/api/responses"
	"github.com/creditpool/creditpool-backend/api/validators"
	"github.com/creditpool/creditpool-backend/internal/ledger"
	"github.com/creditpool/creditpool-backend/pkg/enums"
	"github.com/creditpool/creditpool-backend/pkg/logger"
)

type depositPayload struct {
	Amount int64  `json:"amount"`
	Method string `json:"method" validate:"omitempty,deposit_method"`
}

// WalletGet returns the caller's wallet, creating an empty one on first use.
func WalletGet(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
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

		wallet, err := svc.GetWalletBalance(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, wallet)
	}
}

// WalletDeposit credits the caller's wallet. The amount is validated by the
// ledger so non-positive values surface as INVALID_AMOUNT.
func WalletDeposit(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
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

		var payload depositPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.Deposit(ctx, ledger.DepositInput{
			UserID: userID,
			Amount: payload.Amount,
			Method: enums.DepositMethod(payload.Method),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// WalletTransactions lists the caller's audit trail, newest first.
func WalletTransactions(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
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

		limit, err := validators.ParseQueryInt(r, "limit", defaultListLimit, 1, maxListLimit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		txns, err := svc.ListTransactions(ctx, userID, limit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, txns)
	}
}
