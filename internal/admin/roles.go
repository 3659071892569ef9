package admin

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/creditpool/creditpool-backend/internal/repo"
	"github.com/creditpool/creditpool-backend/pkg/db/models"
	"github.com/creditpool/creditpool-backend/pkg/enums"
)

// Authorizer decides whether a user may use the admin surface.
type Authorizer interface {
	IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error)
}

// RoleRepository reads and grants rows in user_roles.
type RoleRepository struct {
	repo.Base
}

// NewRoleRepository binds the role store to db.
func NewRoleRepository(db *gorm.DB) *RoleRepository {
	return &RoleRepository{Base: repo.NewBase(db)}
}

// HasRole reports whether userID holds role.
func (r *RoleRepository) HasRole(ctx context.Context, userID uuid.UUID, role enums.Role) (bool, error) {
	var n int64
	err := r.DB(ctx).
		Model(&models.UserRole{}).
		Where("user_id = ? AND role = ?", userID, role).
		Count(&n).
		Error
	return n > 0, err
}

// Grant assigns role to userID; granting twice is a no-op.
func (r *RoleRepository) Grant(ctx context.Context, userID uuid.UUID, role enums.Role) error {
	if userID == uuid.Nil || !role.IsValid() {
		return gorm.ErrInvalidValue
	}
	return r.DB(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}, {Name: "role"}}, DoNothing: true}).
		Create(&models.UserRole{UserID: userID, Role: role}).
		Error
}

// Revoke removes role from userID.
func (r *RoleRepository) Revoke(ctx context.Context, userID uuid.UUID, role enums.Role) error {
	return r.DB(ctx).
		Where("user_id = ? AND role = ?", userID, role).
		Delete(&models.UserRole{}).
		Error
}

// RoleAuthorizer is the default Authorizer, backed by user_roles.
type RoleAuthorizer struct {
	roles *RoleRepository
}

// NewRoleAuthorizer wraps a role repository.
func NewRoleAuthorizer(roles *RoleRepository) *RoleAuthorizer {
	return &RoleAuthorizer{roles: roles}
}

func (a *RoleAuthorizer) IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error) {
	if userID == uuid.Nil {
		return false, nil
	}
	return a.roles.HasRole(ctx, userID, enums.RoleAdmin)
}
