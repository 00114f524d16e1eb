package repos

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fieldlens/fieldlens-backend/internal/logger"
	"github.com/fieldlens/fieldlens-backend/internal/types"
)

type PersonFacetRepo interface {
	UpsertBatch(ctx context.Context, tx *gorm.DB, rows []*types.PersonFacet) error
}

type personFacetRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPersonFacetRepo(db *gorm.DB, baseLog *logger.Logger) PersonFacetRepo {
	return &personFacetRepo{
		db:  db,
		log: baseLog.With("repo", "PersonFacetRepo"),
	}
}

// UpsertBatch overwrites on (person_id, facet_account_id); observation rows
// carry no history.
func (r *personFacetRepo) UpsertBatch(ctx context.Context, tx *gorm.DB, rows []*types.PersonFacet) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "person_id"}, {Name: "facet_account_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"account_id", "project_id", "source", "evidence_id", "confidence", "noted_at", "updated_at",
			}),
		}).
		Create(&rows).Error
}
