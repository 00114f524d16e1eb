package services

import (
	"context"
	"strconv"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/fieldlens/fieldlens-backend/internal/logger"
	"github.com/fieldlens/fieldlens-backend/internal/pkg/pointers"
	"github.com/fieldlens/fieldlens-backend/internal/types"
)

type recordingInvalidator struct {
	mu       sync.Mutex
	accounts []uuid.UUID
}

func (r *recordingInvalidator) InvalidateCatalog(_ context.Context, accountID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accounts = append(r.accounts, accountID)
}

func (e *testEnv) newObservationService(invalidator CatalogInvalidator) FacetObservationService {
	return NewFacetObservationService(e.kindRepo, e.globalRepo, e.accountRepo, e.facetRepo, e.scaleRepo, invalidator, logger.NewNop())
}

func TestPersistFacetObservationsResolvesAndUpserts(t *testing.T) {
	env := newTestEnv(t)
	env.seedKind(t, "goal", "Goals")
	ctx := context.Background()
	invalidator := &recordingInvalidator{}
	svc := env.newObservationService(invalidator)
	personID := uuid.New()
	evidenceID := uuid.New()

	err := svc.PersistFacetObservations(ctx, PersistFacetObservationsInput{
		AccountID:   env.accountID,
		EvidenceIDs: []uuid.UUID{evidenceID},
		Observations: []PersonObservationsInput{{
			PersonID: personID,
			Facets: []PersonFacetObservationInput{{
				KindSlug:          "goal",
				Value:             "Finish faster",
				Confidence:        pointers.Float64(0.92),
				EvidenceUnitIndex: pointers.Int(0),
			}},
		}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var facet types.AccountFacet
	if err := env.db.Where("slug = ?", "finish_faster").First(&facet).Error; err != nil {
		t.Fatalf("expected lazily created facet: %v", err)
	}
	if facet.IsActive {
		t.Fatalf("observation-created facets must start inactive")
	}

	var row types.PersonFacet
	if err := env.db.Where("person_id = ?", personID).First(&row).Error; err != nil {
		t.Fatalf("expected person facet row: %v", err)
	}
	if row.FacetAccountID != facet.ID {
		t.Fatalf("row references facet %d, want %d", row.FacetAccountID, facet.ID)
	}
	if row.Confidence != 0.92 {
		t.Fatalf("expected confidence 0.92, got %v", row.Confidence)
	}
	if row.EvidenceID == nil || *row.EvidenceID != evidenceID {
		t.Fatalf("expected evidence linkage, got %v", row.EvidenceID)
	}
	if row.Source != "interview" {
		t.Fatalf("expected default source, got %q", row.Source)
	}
	if len(invalidator.accounts) != 1 || invalidator.accounts[0] != env.accountID {
		t.Fatalf("catalog must be invalidated after a create, got %v", invalidator.accounts)
	}

	// Second batch names the same label with no confidence: same facet row,
	// overwritten person_facet with the 0.8 default, no new invalidation.
	err = svc.PersistFacetObservations(ctx, PersistFacetObservationsInput{
		AccountID: env.accountID,
		Observations: []PersonObservationsInput{{
			PersonID: personID,
			Facets: []PersonFacetObservationInput{{
				KindSlug: "goal",
				Value:    "Finish faster",
			}},
		}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var facetCount, rowCount int64
	env.db.Model(&types.AccountFacet{}).Count(&facetCount)
	env.db.Model(&types.PersonFacet{}).Count(&rowCount)
	if facetCount != 1 || rowCount != 1 {
		t.Fatalf("expected 1 facet and 1 observation row, got %d/%d", facetCount, rowCount)
	}
	// Reload into a fresh struct: First leaves fields untouched for NULL
	// columns, so reusing `row` would keep the stale evidence id.
	var reloaded types.PersonFacet
	if err := env.db.Where("person_id = ?", personID).First(&reloaded).Error; err != nil {
		t.Fatalf("reload row: %v", err)
	}
	if reloaded.Confidence != 0.8 {
		t.Fatalf("missing confidence must default to 0.8, got %v", reloaded.Confidence)
	}
	if reloaded.EvidenceID != nil {
		t.Fatalf("overwrite carries the new (absent) evidence, got %v", reloaded.EvidenceID)
	}
	if len(invalidator.accounts) != 1 {
		t.Fatalf("no taxonomy write happened, cache must not be invalidated again")
	}
}

func TestPersistFacetObservationsClampsScales(t *testing.T) {
	env := newTestEnv(t)
	env.seedKind(t, "price_sensitivity", "Price Sensitivity")
	ctx := context.Background()
	svc := env.newObservationService(nil)
	personID := uuid.New()

	err := svc.PersistFacetObservations(ctx, PersistFacetObservationsInput{
		AccountID: env.accountID,
		Observations: []PersonObservationsInput{{
			PersonID: personID,
			Scales: []PersonScaleObservationInput{
				{
					KindSlug:   "price_sensitivity",
					Score:      pointers.Float64(1.2),
					Confidence: pointers.Float64(1.3),
					Band:       pointers.String("high"),
				},
				{
					// No kind slug: dropped.
					Score: pointers.Float64(0.4),
				},
				{
					// Whitespace-only kind slug: also dropped, never keyed on
					// blanks.
					KindSlug: "   ",
					Score:    pointers.Float64(0.4),
				},
			},
		}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var rows []types.PersonScale
	if err := env.db.Find(&rows).Error; err != nil {
		t.Fatalf("load scales: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected one scale row, got %d", len(rows))
	}
	if rows[0].Score != 1 || rows[0].Confidence != 1 {
		t.Fatalf("expected clamped score/confidence of 1/1, got %v/%v", rows[0].Score, rows[0].Confidence)
	}
	if rows[0].Band == nil || *rows[0].Band != "high" {
		t.Fatalf("expected band carried through, got %v", rows[0].Band)
	}

	// Overwrite on (person_id, kind_slug): a second persist replaces, not
	// accumulates, and a padded slug still lands on the trimmed key.
	err = svc.PersistFacetObservations(ctx, PersistFacetObservationsInput{
		AccountID: env.accountID,
		Observations: []PersonObservationsInput{{
			PersonID: personID,
			Scales: []PersonScaleObservationInput{{
				KindSlug: " price_sensitivity ",
				Score:    pointers.Float64(0.3),
			}},
		}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := env.db.Find(&rows).Error; err != nil {
		t.Fatalf("reload scales: %v", err)
	}
	if len(rows) != 1 || rows[0].Score != 0.3 {
		t.Fatalf("expected single overwritten row with score 0.3, got %v", rows)
	}
	if rows[0].KindSlug != "price_sensitivity" {
		t.Fatalf("kind slug must be stored trimmed, got %q", rows[0].KindSlug)
	}
}

func TestPersistFacetObservationsDropsUnresolvable(t *testing.T) {
	env := newTestEnv(t)
	env.seedKind(t, "goal", "Goals")
	ctx := context.Background()
	svc := env.newObservationService(nil)

	err := svc.PersistFacetObservations(ctx, PersistFacetObservationsInput{
		AccountID: env.accountID,
		Observations: []PersonObservationsInput{{
			PersonID: uuid.New(),
			Facets: []PersonFacetObservationInput{
				{KindSlug: "goal", Value: "   "},
				{KindSlug: "made_up_kind", Value: "Something"},
				{KindSlug: "goal", Value: "Finish faster"},
			},
		}},
	})
	if err != nil {
		t.Fatalf("one bad observation must not abort the batch: %v", err)
	}

	var rowCount int64
	env.db.Model(&types.PersonFacet{}).Count(&rowCount)
	if rowCount != 1 {
		t.Fatalf("expected only the resolvable observation persisted, got %d", rowCount)
	}
}

func TestPersistFacetObservationsRefPaths(t *testing.T) {
	env := newTestEnv(t)
	kindID := env.seedKind(t, "goal", "Goals")
	globalID := env.seedGlobalFacet(t, kindID, "speed_up", "Speed Up", "faster")
	ctx := context.Background()
	svc := env.newObservationService(nil)
	personID := uuid.New()

	err := svc.PersistFacetObservations(ctx, PersistFacetObservationsInput{
		AccountID: env.accountID,
		Observations: []PersonObservationsInput{{
			PersonID: personID,
			Facets: []PersonFacetObservationInput{{
				Ref:      "g:" + strconv.FormatInt(globalID, 10),
				KindSlug: "goal",
			}},
		}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var facet types.AccountFacet
	if err := env.db.Where("global_facet_id = ?", globalID).First(&facet).Error; err != nil {
		t.Fatalf("expected account facet seeded from global ref: %v", err)
	}
	if !facet.IsActive {
		t.Fatalf("global-seeded facet must be active")
	}
	var row types.PersonFacet
	if err := env.db.Where("person_id = ?", personID).First(&row).Error; err != nil {
		t.Fatalf("expected person facet row: %v", err)
	}
	if row.FacetAccountID != facet.ID {
		t.Fatalf("observation must reference the seeded facet")
	}
}

func TestPersistFacetObservationsEvidenceIndexOutOfRange(t *testing.T) {
	env := newTestEnv(t)
	env.seedKind(t, "goal", "Goals")
	ctx := context.Background()
	svc := env.newObservationService(nil)
	personID := uuid.New()

	err := svc.PersistFacetObservations(ctx, PersistFacetObservationsInput{
		AccountID:   env.accountID,
		EvidenceIDs: []uuid.UUID{uuid.New()},
		Observations: []PersonObservationsInput{{
			PersonID: personID,
			Facets: []PersonFacetObservationInput{{
				KindSlug:          "goal",
				Value:             "Finish faster",
				EvidenceUnitIndex: pointers.Int(5),
			}},
		}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var row types.PersonFacet
	if err := env.db.Where("person_id = ?", personID).First(&row).Error; err != nil {
		t.Fatalf("expected persisted row: %v", err)
	}
	if row.EvidenceID != nil {
		t.Fatalf("out-of-range evidence index must not link evidence, got %v", row.EvidenceID)
	}
}
