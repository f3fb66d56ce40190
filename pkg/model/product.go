package model

import (
	"gorm.io/gorm"

	"github.com/apiforge/apiforge/pkg/entity"
)

// Product is the sample catalog entity used by the scaffold's CRUD service.
type Product struct {
	entity.Base
	Name        string `gorm:"size:255;index" json:"name"`
	Description string `gorm:"size:1024" json:"description"`
	// PriceCents avoids floating point money.
	PriceCents int64  `json:"price_cents"`
	Currency   string `gorm:"size:3;default:USD" json:"currency"`
	Quantity   int    `json:"quantity"`
}

// BeforeCreate namespaces product URNs.
func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.URN == "" {
		p.URN = entity.NewURN("product")
	}
	return nil
}

// TableName pins the table name independent of pluralization settings.
func (Product) TableName() string { return "products" }
