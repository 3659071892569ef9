package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/creditpool/creditpool-backend/api/middleware"
	"github.com/creditpool/creditpool-backend/api/responses"
	pkgerrors "github.com/creditpool/creditpool-backend/pkg/errors"
	"github.com/creditpool/creditpool-backend/pkg/logger"
	"github.com/creditpool/creditpool-backend/pkg/pagination"
)

const (
	defaultListLimit = pagination.DefaultLimit
	maxListLimit     = pagination.MaxLimit
)

// requireUser resolves the caller or writes a 401. ok is false when the
// response has already been written.
func requireUser(ctx context.Context, logg *logger.Logger, w http.ResponseWriter) (uuid.UUID, bool) {
	userID, ok := middleware.UserUUIDFromContext(ctx)
	if !ok {
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
		return uuid.Nil, false
	}
	return userID, true
}

func serviceUnavailable(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, name string) {
	responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, name+" service unavailable"))
}
