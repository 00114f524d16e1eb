package repos

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fieldlens/fieldlens-backend/internal/logger"
	"github.com/fieldlens/fieldlens-backend/internal/types"
)

type PersonScaleRepo interface {
	UpsertBatch(ctx context.Context, tx *gorm.DB, rows []*types.PersonScale) error
}

type personScaleRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPersonScaleRepo(db *gorm.DB, baseLog *logger.Logger) PersonScaleRepo {
	return &personScaleRepo{
		db:  db,
		log: baseLog.With("repo", "PersonScaleRepo"),
	}
}

// UpsertBatch overwrites on (person_id, kind_slug).
func (r *personScaleRepo) UpsertBatch(ctx context.Context, tx *gorm.DB, rows []*types.PersonScale) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "person_id"}, {Name: "kind_slug"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"account_id", "project_id", "score", "band", "source", "evidence_id", "confidence", "noted_at", "updated_at",
			}),
		}).
		Create(&rows).Error
}
