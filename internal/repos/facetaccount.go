package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/fieldlens/fieldlens-backend/internal/logger"
	"github.com/fieldlens/fieldlens-backend/internal/types"
)

type AccountFacetRepo interface {
	ListByAccount(ctx context.Context, tx *gorm.DB, accountID uuid.UUID) ([]*types.AccountFacet, error)
	FindBySlug(ctx context.Context, tx *gorm.DB, accountID uuid.UUID, kindID int64, slug string) (*types.AccountFacet, error)
	GetForAccount(ctx context.Context, tx *gorm.DB, id int64, accountID uuid.UUID) (*types.AccountFacet, error)
	Insert(ctx context.Context, tx *gorm.DB, row *types.AccountFacet) error
	UpdateSynonyms(ctx context.Context, tx *gorm.DB, id int64, synonyms []string) error
}

type accountFacetRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAccountFacetRepo(db *gorm.DB, baseLog *logger.Logger) AccountFacetRepo {
	return &accountFacetRepo{
		db:  db,
		log: baseLog.With("repo", "AccountFacetRepo"),
	}
}

func (r *accountFacetRepo) ListByAccount(ctx context.Context, tx *gorm.DB, accountID uuid.UUID) ([]*types.AccountFacet, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if accountID == uuid.Nil {
		return nil, nil
	}
	var rows []*types.AccountFacet
	err := transaction.WithContext(ctx).
		Where("account_id = ?", accountID).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *accountFacetRepo) FindBySlug(ctx context.Context, tx *gorm.DB, accountID uuid.UUID, kindID int64, slug string) (*types.AccountFacet, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if accountID == uuid.Nil || kindID == 0 || slug == "" {
		return nil, nil
	}
	var row types.AccountFacet
	err := transaction.WithContext(ctx).
		Where("account_id = ? AND kind_id = ? AND slug = ?", accountID, kindID, slug).
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

func (r *accountFacetRepo) GetForAccount(ctx context.Context, tx *gorm.DB, id int64, accountID uuid.UUID) (*types.AccountFacet, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id <= 0 || accountID == uuid.Nil {
		return nil, nil
	}
	var row types.AccountFacet
	err := transaction.WithContext(ctx).
		Where("id = ? AND account_id = ?", id, accountID).
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

func (r *accountFacetRepo) Insert(ctx context.Context, tx *gorm.DB, row *types.AccountFacet) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	now := time.Now().UTC()
	if row.CreatedAt.IsZero() {
		row.CreatedAt = now
	}
	row.UpdatedAt = now
	return transaction.WithContext(ctx).Create(row).Error
}

func (r *accountFacetRepo) UpdateSynonyms(ctx context.Context, tx *gorm.DB, id int64, synonyms []string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id <= 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.AccountFacet{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"synonyms":   types.SynonymList(synonyms),
			"updated_at": time.Now().UTC(),
		}).Error
}

// IsUniqueViolation reports whether err is a postgres unique-constraint
// failure (SQLSTATE 23505), the expected loser signal in the slug insert race.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
