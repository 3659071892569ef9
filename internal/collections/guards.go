package collections

import (
	"fmt"

	"github.com/creditpool/creditpool-backend/pkg/db/models"
	pkgerrors "github.com/creditpool/creditpool-backend/pkg/errors"
)

// EnsureAcceptsContributions rejects contributions to a terminal collection.
func EnsureAcceptsContributions(collection *models.Collection) error {
	if !collection.IsActive() {
		return pkgerrors.New(pkgerrors.CodeCollectionClosed, fmt.Sprintf("collection %s is %s", collection.ID, collection.Status))
	}
	return nil
}

// ValidateGoal rejects goals below one credit.
func ValidateGoal(goal int64) error {
	if goal < 1 {
		return pkgerrors.New(pkgerrors.CodeInvalidAmount, "goal amount must be at least 1").
			WithDetails(map[string]any{"goal_amount": goal})
	}
	return nil
}
