package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/fieldlens/fieldlens-backend/internal/logger"
	"github.com/fieldlens/fieldlens-backend/internal/observability"
	apperrors "github.com/fieldlens/fieldlens-backend/internal/pkg/errors"
	"github.com/fieldlens/fieldlens-backend/internal/repos"
	"github.com/fieldlens/fieldlens-backend/internal/types"
)

type FacetCatalogService interface {
	// GetFacetCatalog assembles the taxonomy an account currently sees: all
	// kinds, all global facets and the account's own facets, merged with
	// account entries taking priority, plus a monotonic version token.
	GetFacetCatalog(ctx context.Context, accountID uuid.UUID) (*types.FacetCatalog, error)
}

type facetCatalogService struct {
	log         *logger.Logger
	kindRepo    repos.FacetKindRepo
	globalRepo  repos.GlobalFacetRepo
	accountRepo repos.AccountFacetRepo
}

func NewFacetCatalogService(
	kindRepo repos.FacetKindRepo,
	globalRepo repos.GlobalFacetRepo,
	accountRepo repos.AccountFacetRepo,
	baseLog *logger.Logger,
) FacetCatalogService {
	return &facetCatalogService{
		log:         baseLog.With("service", "FacetCatalogService"),
		kindRepo:    kindRepo,
		globalRepo:  globalRepo,
		accountRepo: accountRepo,
	}
}

func (s *facetCatalogService) GetFacetCatalog(ctx context.Context, accountID uuid.UUID) (*types.FacetCatalog, error) {
	ctx, span := observability.StartSpan(ctx, "facets.catalog.build")
	defer span.End()

	var (
		kindRows    []*types.FacetKind
		globalRows  []*types.GlobalFacet
		accountRows []*types.AccountFacet
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.kindRepo.ListAll(gctx, nil)
		if err != nil {
			return fmt.Errorf("%w: %v", apperrors.ErrKindIndexLoad, err)
		}
		kindRows = rows
		return nil
	})
	g.Go(func() error {
		rows, err := s.globalRepo.ListAll(gctx, nil)
		if err != nil {
			return fmt.Errorf("load global facets: %w", err)
		}
		globalRows = rows
		return nil
	})
	g.Go(func() error {
		rows, err := s.accountRepo.ListByAccount(gctx, nil, accountID)
		if err != nil {
			return fmt.Errorf("load account facets: %w", err)
		}
		accountRows = rows
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	kinds := make([]types.FacetCatalogKind, 0, len(kindRows))
	kindIDToSlug := make(map[int64]string, len(kindRows))
	var newest time.Time
	for _, row := range kindRows {
		kinds = append(kinds, types.FacetCatalogKind{Slug: row.Slug, Label: row.Label})
		kindIDToSlug[row.ID] = row.Slug
		newest = maxTime(newest, row.UpdatedAt)
	}

	// Keyed by facet id: globals first, account rows override. Ids are drawn
	// from disjoint sequences in the store, so a numeric collision cannot
	// happen there; this code does not enforce it.
	entries := make(map[int64]types.FacetCatalogEntry, len(globalRows)+len(accountRows))
	order := make([]int64, 0, len(globalRows)+len(accountRows))
	for _, row := range globalRows {
		if _, seen := entries[row.ID]; !seen {
			order = append(order, row.ID)
		}
		entries[row.ID] = types.FacetCatalogEntry{
			FacetAccountID: row.ID,
			KindSlug:       kindIDToSlug[row.KindID],
			Label:          row.Label,
			Synonyms:       row.Synonyms,
		}
		newest = maxTime(newest, row.UpdatedAt)
	}
	for _, row := range accountRows {
		if _, seen := entries[row.ID]; !seen {
			order = append(order, row.ID)
		}
		entries[row.ID] = types.FacetCatalogEntry{
			FacetAccountID: row.ID,
			KindSlug:       kindIDToSlug[row.KindID],
			Label:          row.Label,
			Synonyms:       row.Synonyms,
		}
		newest = maxTime(newest, row.UpdatedAt)
	}

	facets := make([]types.FacetCatalogEntry, 0, len(order))
	for _, id := range order {
		entry := entries[id]
		// A missing kind slug means a referential integrity gap; dropped
		// silently rather than surfacing a broken entry.
		if entry.KindSlug == "" || entry.Label == "" {
			continue
		}
		if entry.Synonyms == nil {
			entry.Synonyms = []string{}
		}
		facets = append(facets, entry)
	}

	if newest.IsZero() {
		newest = time.Now()
	}
	catalog := &types.FacetCatalog{
		Kinds:   kinds,
		Facets:  facets,
		Version: fmt.Sprintf("acct:%s:v%d", accountID, newest.UnixMilli()),
	}
	s.log.Debug("Facet catalog built",
		"account_id", accountID,
		"kinds", len(kinds),
		"facets", len(facets),
		"version", catalog.Version,
	)
	return catalog, nil
}

func maxTime(current, incoming time.Time) time.Time {
	if incoming.After(current) {
		return incoming
	}
	return current
}
