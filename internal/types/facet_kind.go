package types

import (
	"time"
)

// FacetKind is a global taxonomy category (goal, pain, trait, ...). The engine
// loads these and never writes them outside of seeding.
type FacetKind struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Slug      string    `gorm:"column:slug;not null;uniqueIndex" json:"slug"`
	Label     string    `gorm:"column:label;not null" json:"label"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (FacetKind) TableName() string { return "facet_kind_global" }
