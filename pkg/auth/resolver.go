package auth

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/apiforge/apiforge/pkg/middleware"
	"github.com/apiforge/apiforge/pkg/model"
)

// GormUserResolver resolves token subjects against the users table. Only
// users that are active, not soft-deleted, and currently logged in resolve;
// everything else reads as "no match" so the middleware rejects with 401.
type GormUserResolver struct {
	db *gorm.DB
}

// NewGormUserResolver creates a resolver backed by the given database handle.
func NewGormUserResolver(db *gorm.DB) *GormUserResolver {
	return &GormUserResolver{db: db}
}

// ResolveActiveUser implements middleware.UserResolver.
func (r *GormUserResolver) ResolveActiveUser(ctx context.Context, userID string) (*middleware.AuthenticatedUser, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("id = ? AND is_active = ? AND is_logged_in = ? AND is_deleted = ?", userID, true, true, false).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &middleware.AuthenticatedUser{
		ID:  userID,
		URN: user.URN,
	}, nil
}

var _ middleware.UserResolver = (*GormUserResolver)(nil)
