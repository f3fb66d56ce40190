// Package entity provides the base persistence model shared by all database
// entities: surrogate ID, stable URN, timestamps, and a soft-delete flag.
package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base is embedded by every persistent model. Records carry both a numeric
// primary key and a URN; external interfaces reference records by URN only,
// so primary keys never leak out of the persistence layer.
type Base struct {
	ID        uint           `gorm:"primaryKey" json:"-"`
	URN       string         `gorm:"uniqueIndex;size:64" json:"urn"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	IsDeleted bool           `gorm:"index;default:false" json:"-"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// GetID returns the surrogate primary key.
func (b *Base) GetID() uint {
	return b.ID
}

// GetURN returns the record's stable URN.
func (b *Base) GetURN() string {
	return b.URN
}

// MarkDeleted flips the soft-delete flag.
func (b *Base) MarkDeleted() {
	b.IsDeleted = true
}

// BeforeCreate assigns a URN when the caller did not provide one.
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.URN == "" {
		b.URN = NewURN("rec")
	}
	return nil
}

// NewURN mints a namespaced unique resource name, e.g. "urn:user:<uuid>".
func NewURN(kind string) string {
	return "urn:" + kind + ":" + uuid.New().String()
}
