package services

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/fieldlens/fieldlens-backend/internal/logger"
	"github.com/fieldlens/fieldlens-backend/internal/repos"
	"github.com/fieldlens/fieldlens-backend/internal/types"
)

type testEnv struct {
	db          *gorm.DB
	kindRepo    repos.FacetKindRepo
	globalRepo  repos.GlobalFacetRepo
	accountRepo repos.AccountFacetRepo
	facetRepo   repos.PersonFacetRepo
	scaleRepo   repos.PersonScaleRepo
	accountID   uuid.UUID
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	// One shared in-memory database per test; the name keeps parallel tests
	// from seeing each other's tables.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := gdb.AutoMigrate(
		&types.FacetKind{},
		&types.GlobalFacet{},
		&types.AccountFacet{},
		&types.PersonFacet{},
		&types.PersonScale{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	log := logger.NewNop()
	return &testEnv{
		db:          gdb,
		kindRepo:    repos.NewFacetKindRepo(gdb, log),
		globalRepo:  repos.NewGlobalFacetRepo(gdb, log),
		accountRepo: repos.NewAccountFacetRepo(gdb, log),
		facetRepo:   repos.NewPersonFacetRepo(gdb, log),
		scaleRepo:   repos.NewPersonScaleRepo(gdb, log),
		accountID:   uuid.New(),
	}
}

func (e *testEnv) seedKind(t *testing.T, slug, label string) int64 {
	t.Helper()
	row := &types.FacetKind{Slug: slug, Label: label}
	if err := e.db.Create(row).Error; err != nil {
		t.Fatalf("seed kind %s: %v", slug, err)
	}
	return row.ID
}

func (e *testEnv) seedGlobalFacet(t *testing.T, kindID int64, slug, label string, synonyms ...string) int64 {
	t.Helper()
	row := &types.GlobalFacet{
		KindID:   kindID,
		Slug:     slug,
		Label:    label,
		Synonyms: types.SynonymList(synonyms),
	}
	if err := e.db.Create(row).Error; err != nil {
		t.Fatalf("seed global facet %s: %v", slug, err)
	}
	return row.ID
}

func (e *testEnv) newResolver() *FacetResolver {
	return NewFacetResolver(e.accountID, e.kindRepo, e.globalRepo, e.accountRepo, logger.NewNop())
}

func (e *testEnv) countAccountFacets(t *testing.T) int64 {
	t.Helper()
	var count int64
	if err := e.db.Model(&types.AccountFacet{}).Count(&count).Error; err != nil {
		t.Fatalf("count account facets: %v", err)
	}
	return count
}
