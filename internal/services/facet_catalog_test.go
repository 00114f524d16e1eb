package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/fieldlens/fieldlens-backend/internal/logger"
	"github.com/fieldlens/fieldlens-backend/internal/types"
)

func (e *testEnv) newCatalogService() FacetCatalogService {
	return NewFacetCatalogService(e.kindRepo, e.globalRepo, e.accountRepo, logger.NewNop())
}

func versionMillis(t *testing.T, version string) int64 {
	t.Helper()
	idx := strings.LastIndex(version, ":v")
	if idx < 0 {
		t.Fatalf("malformed version %q", version)
	}
	ms, err := strconv.ParseInt(version[idx+2:], 10, 64)
	if err != nil {
		t.Fatalf("malformed version %q: %v", version, err)
	}
	return ms
}

func TestGetFacetCatalogMergesTiers(t *testing.T) {
	env := newTestEnv(t)
	goalID := env.seedKind(t, "goal", "Goals")
	painID := env.seedKind(t, "pain", "Pains")
	env.seedGlobalFacet(t, goalID, "speed_up", "Speed Up", "faster")

	// Explicit id keeps the two tables' id sequences disjoint, matching the
	// store invariant the merge relies on; sqlite would otherwise start both
	// autoincrements at 1 and collide with the global facet's id.
	own := &types.AccountFacet{ID: 1000, AccountID: env.accountID, KindID: painID, Label: "Manual process", Slug: "manual_process"}
	if err := env.db.Create(own).Error; err != nil {
		t.Fatalf("seed account facet: %v", err)
	}
	foreign := &types.AccountFacet{AccountID: uuid.New(), KindID: painID, Label: "Tool sprawl", Slug: "tool_sprawl"}
	if err := env.db.Create(foreign).Error; err != nil {
		t.Fatalf("seed foreign facet: %v", err)
	}

	catalog, err := env.newCatalogService().GetFacetCatalog(context.Background(), env.accountID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(catalog.Kinds) != 2 || catalog.Kinds[0].Slug != "goal" || catalog.Kinds[1].Slug != "pain" {
		t.Fatalf("unexpected kinds %v", catalog.Kinds)
	}

	bySlugLabel := map[string]types.FacetCatalogEntry{}
	for _, entry := range catalog.Facets {
		bySlugLabel[entry.KindSlug+"/"+entry.Label] = entry
	}
	if _, ok := bySlugLabel["goal/Speed Up"]; !ok {
		t.Fatalf("global facet missing from catalog: %v", catalog.Facets)
	}
	if _, ok := bySlugLabel["pain/Manual process"]; !ok {
		t.Fatalf("account facet missing from catalog: %v", catalog.Facets)
	}
	if _, ok := bySlugLabel["pain/Tool sprawl"]; ok {
		t.Fatalf("foreign account facet leaked into catalog")
	}
	if !strings.HasPrefix(catalog.Version, fmt.Sprintf("acct:%s:v", env.accountID)) {
		t.Fatalf("unexpected version format %q", catalog.Version)
	}
}

func TestGetFacetCatalogAccountOverridesGlobal(t *testing.T) {
	env := newTestEnv(t)
	goalID := env.seedKind(t, "goal", "Goals")
	globalID := env.seedGlobalFacet(t, goalID, "speed_up", "Speed Up")

	// Force the id collision the disjoint-sequence invariant normally rules
	// out: the account entry must win.
	own := &types.AccountFacet{ID: globalID, AccountID: env.accountID, KindID: goalID, Label: "Ship Faster", Slug: "ship_faster"}
	if err := env.db.Create(own).Error; err != nil {
		t.Fatalf("seed colliding facet: %v", err)
	}

	catalog, err := env.newCatalogService().GetFacetCatalog(context.Background(), env.accountID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var found int
	for _, entry := range catalog.Facets {
		if entry.FacetAccountID == globalID {
			found++
			if entry.Label != "Ship Faster" {
				t.Fatalf("account entry must override global, got %q", entry.Label)
			}
		}
	}
	if found != 1 {
		t.Fatalf("expected exactly one entry for the colliding id, got %d", found)
	}
}

func TestGetFacetCatalogFiltersUnresolvableRows(t *testing.T) {
	env := newTestEnv(t)
	goalID := env.seedKind(t, "goal", "Goals")

	orphan := &types.AccountFacet{AccountID: env.accountID, KindID: 999, Label: "Orphaned", Slug: "orphaned"}
	if err := env.db.Create(orphan).Error; err != nil {
		t.Fatalf("seed orphan: %v", err)
	}
	blank := &types.AccountFacet{AccountID: env.accountID, KindID: goalID, Label: "", Slug: "blank"}
	if err := env.db.Create(blank).Error; err != nil {
		t.Fatalf("seed blank label: %v", err)
	}
	ok := &types.AccountFacet{AccountID: env.accountID, KindID: goalID, Label: "Finish faster", Slug: "finish_faster"}
	if err := env.db.Create(ok).Error; err != nil {
		t.Fatalf("seed valid facet: %v", err)
	}

	catalog, err := env.newCatalogService().GetFacetCatalog(context.Background(), env.accountID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(catalog.Facets) != 1 || catalog.Facets[0].Label != "Finish faster" {
		t.Fatalf("expected only the resolvable entry, got %v", catalog.Facets)
	}
	if catalog.Facets[0].Synonyms == nil {
		t.Fatalf("synonyms must serialize as an empty list, not null")
	}
}

func TestGetFacetCatalogVersionMonotonic(t *testing.T) {
	env := newTestEnv(t)
	env.seedKind(t, "goal", "Goals")
	ctx := context.Background()
	svc := env.newCatalogService()

	first, err := svc.GetFacetCatalog(ctx, env.accountID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v1 := versionMillis(t, first.Version)

	time.Sleep(5 * time.Millisecond)
	if _, _, err := env.newResolver().EnsureFacet(ctx, EnsureFacetInput{KindSlug: "goal", Label: "Finish faster"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second, err := svc.GetFacetCatalog(ctx, env.accountID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v2 := versionMillis(t, second.Version)
	if v2 < v1 {
		t.Fatalf("version went backwards: %d then %d", v1, v2)
	}

	time.Sleep(5 * time.Millisecond)
	if _, _, err := env.newResolver().EnsureFacet(ctx, EnsureFacetInput{
		KindSlug: "goal",
		Label:    "Finish faster",
		Synonyms: []string{"wrap up sooner"},
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	third, err := svc.GetFacetCatalog(ctx, env.accountID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v3 := versionMillis(t, third.Version); v3 < v2 {
		t.Fatalf("version went backwards after synonym merge: %d then %d", v2, v3)
	}
}
