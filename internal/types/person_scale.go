package types

import (
	"time"

	"github.com/google/uuid"
)

// PersonScale is a continuous 0..1 measurement about a person under a named
// kind (e.g. price_sensitivity), distinct from discrete facets. One row per
// (person_id, kind_slug); new observations overwrite.
type PersonScale struct {
	ID         int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	AccountID  uuid.UUID  `gorm:"type:uuid;column:account_id;not null;index" json:"account_id"`
	ProjectID  *uuid.UUID `gorm:"type:uuid;column:project_id;index" json:"project_id,omitempty"`
	PersonID   uuid.UUID  `gorm:"type:uuid;column:person_id;not null;index:idx_person_scale,unique,priority:1" json:"person_id"`
	KindSlug   string     `gorm:"column:kind_slug;not null;index:idx_person_scale,unique,priority:2" json:"kind_slug"`
	Score      float64    `gorm:"column:score;not null" json:"score"` // 0..1
	Band       *string    `gorm:"column:band" json:"band,omitempty"`
	Source     string     `gorm:"column:source;not null;default:interview" json:"source"`
	EvidenceID *uuid.UUID `gorm:"type:uuid;column:evidence_id" json:"evidence_id,omitempty"`
	Confidence float64    `gorm:"column:confidence;not null;default:0.8" json:"confidence"` // 0..1
	NotedAt    time.Time  `gorm:"column:noted_at;not null" json:"noted_at"`
	CreatedAt  time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (PersonScale) TableName() string { return "person_scale" }
