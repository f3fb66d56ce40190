// Package model defines the sample domain models that ship with the
// scaffold: users with login state and a product catalog.
package model

import (
	"gorm.io/gorm"

	"github.com/apiforge/apiforge/pkg/entity"
)

// User is an account that can authenticate against the API. IsLoggedIn
// tracks session state: the authentication middleware only resolves users
// whose flag is set, so logging out invalidates outstanding tokens.
type User struct {
	entity.Base
	Email        string `gorm:"uniqueIndex;size:255" json:"email"`
	Name         string `gorm:"size:255" json:"name"`
	PasswordHash string `gorm:"size:255" json:"-"`
	IsActive     bool   `gorm:"default:true" json:"is_active"`
	IsLoggedIn   bool   `gorm:"default:false;index" json:"-"`
}

// BeforeCreate namespaces user URNs.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.URN == "" {
		u.URN = entity.NewURN("user")
	}
	return nil
}

// TableName pins the table name independent of pluralization settings.
func (User) TableName() string { return "users" }
