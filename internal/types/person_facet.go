package types

import (
	"time"

	"github.com/google/uuid"
)

// PersonFacet is one evidence-linked assertion that a person exhibits a facet.
// One row per (person_id, facet_account_id); new observations overwrite, no
// history is kept.
type PersonFacet struct {
	ID             int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	AccountID      uuid.UUID  `gorm:"type:uuid;column:account_id;not null;index" json:"account_id"`
	ProjectID      *uuid.UUID `gorm:"type:uuid;column:project_id;index" json:"project_id,omitempty"`
	PersonID       uuid.UUID  `gorm:"type:uuid;column:person_id;not null;index:idx_person_facet,unique,priority:1" json:"person_id"`
	FacetAccountID int64      `gorm:"column:facet_account_id;not null;index:idx_person_facet,unique,priority:2" json:"facet_account_id"`
	Source         string     `gorm:"column:source;not null;default:interview" json:"source"`
	EvidenceID     *uuid.UUID `gorm:"type:uuid;column:evidence_id" json:"evidence_id,omitempty"`
	Confidence     float64    `gorm:"column:confidence;not null;default:0.8" json:"confidence"` // 0..1
	NotedAt        time.Time  `gorm:"column:noted_at;not null" json:"noted_at"`
	CreatedAt      time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (PersonFacet) TableName() string { return "person_facet" }
