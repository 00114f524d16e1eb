package repos

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fieldlens/fieldlens-backend/internal/logger"
	"github.com/fieldlens/fieldlens-backend/internal/types"
)

type FacetKindRepo interface {
	ListAll(ctx context.Context, tx *gorm.DB) ([]*types.FacetKind, error)
	UpsertBySlug(ctx context.Context, tx *gorm.DB, rows []*types.FacetKind) error
}

type facetKindRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFacetKindRepo(db *gorm.DB, baseLog *logger.Logger) FacetKindRepo {
	return &facetKindRepo{
		db:  db,
		log: baseLog.With("repo", "FacetKindRepo"),
	}
}

func (r *facetKindRepo) ListAll(ctx context.Context, tx *gorm.DB) ([]*types.FacetKind, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []*types.FacetKind
	err := transaction.WithContext(ctx).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// UpsertBySlug is only used by taxonomy seeding; the engine itself treats
// kinds as read-only.
func (r *facetKindRepo) UpsertBySlug(ctx context.Context, tx *gorm.DB, rows []*types.FacetKind) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slug"}},
			DoUpdates: clause.AssignmentColumns([]string{"label", "updated_at"}),
		}).
		Create(&rows).Error
}
