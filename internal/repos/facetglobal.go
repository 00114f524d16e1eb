package repos

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fieldlens/fieldlens-backend/internal/logger"
	"github.com/fieldlens/fieldlens-backend/internal/types"
)

type GlobalFacetRepo interface {
	ListAll(ctx context.Context, tx *gorm.DB) ([]*types.GlobalFacet, error)
	GetByID(ctx context.Context, tx *gorm.DB, id int64) (*types.GlobalFacet, error)
	UpsertByKindSlug(ctx context.Context, tx *gorm.DB, rows []*types.GlobalFacet) error
}

type globalFacetRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGlobalFacetRepo(db *gorm.DB, baseLog *logger.Logger) GlobalFacetRepo {
	return &globalFacetRepo{
		db:  db,
		log: baseLog.With("repo", "GlobalFacetRepo"),
	}
}

func (r *globalFacetRepo) ListAll(ctx context.Context, tx *gorm.DB) ([]*types.GlobalFacet, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []*types.GlobalFacet
	err := transaction.WithContext(ctx).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *globalFacetRepo) GetByID(ctx context.Context, tx *gorm.DB, id int64) (*types.GlobalFacet, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id <= 0 {
		return nil, nil
	}
	var row types.GlobalFacet
	err := transaction.WithContext(ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == 0 {
		return nil, nil
	}
	return &row, nil
}

// UpsertByKindSlug is only used by taxonomy seeding.
func (r *globalFacetRepo) UpsertByKindSlug(ctx context.Context, tx *gorm.DB, rows []*types.GlobalFacet) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "kind_id"}, {Name: "slug"}},
			DoUpdates: clause.AssignmentColumns([]string{"label", "synonyms", "updated_at"}),
		}).
		Create(&rows).Error
}
