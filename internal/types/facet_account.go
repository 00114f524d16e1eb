package types

import (
	"time"

	"github.com/google/uuid"
)

// AccountFacet is the tenant-scoped, writable facet record that observations
// reference. Created lazily the first time an observation names a label the
// account has never seen; updated only to merge synonyms; never deleted here.
type AccountFacet struct {
	ID            int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	AccountID     uuid.UUID   `gorm:"type:uuid;column:account_id;not null;index:idx_account_kind_slug,unique,priority:1" json:"account_id"`
	KindID        int64       `gorm:"column:kind_id;not null;index:idx_account_kind_slug,unique,priority:2" json:"kind_id"`
	Kind          *FacetKind  `gorm:"foreignKey:KindID;references:ID" json:"kind,omitempty"`
	GlobalFacetID *int64      `gorm:"column:global_facet_id;index" json:"global_facet_id,omitempty"`
	Label         string      `gorm:"column:label;not null" json:"label"`
	Slug          string      `gorm:"column:slug;not null;index:idx_account_kind_slug,unique,priority:3" json:"slug"`
	Synonyms      SynonymList `gorm:"column:synonyms;type:jsonb" json:"synonyms"`
	IsActive      bool        `gorm:"column:is_active;not null;default:false" json:"is_active"`
	Description   *string     `gorm:"column:description" json:"description,omitempty"`
	CreatedAt     time.Time   `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time   `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (AccountFacet) TableName() string { return "facet_account" }
