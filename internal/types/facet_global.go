package types

import (
	"time"
)

// GlobalFacet is a canonical facet value shared by every account. Created
// out-of-band (seeding, curation); read-only to the resolution engine.
type GlobalFacet struct {
	ID        int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	KindID    int64       `gorm:"column:kind_id;not null;index:idx_global_kind_slug,unique,priority:1" json:"kind_id"`
	Kind      *FacetKind  `gorm:"foreignKey:KindID;references:ID" json:"kind,omitempty"`
	Slug      string      `gorm:"column:slug;not null;index:idx_global_kind_slug,unique,priority:2" json:"slug"`
	Label     string      `gorm:"column:label;not null" json:"label"`
	Synonyms  SynonymList `gorm:"column:synonyms;type:jsonb" json:"synonyms"`
	CreatedAt time.Time   `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time   `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (GlobalFacet) TableName() string { return "facet_global" }
