package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fieldlens/fieldlens-backend/internal/logger"
	"github.com/fieldlens/fieldlens-backend/internal/normalization"
	"github.com/fieldlens/fieldlens-backend/internal/observability"
	"github.com/fieldlens/fieldlens-backend/internal/repos"
	"github.com/fieldlens/fieldlens-backend/internal/types"
)

// PersonFacetObservationInput is one AI-extracted facet assertion. Either the
// id is already resolved upstream, or Ref carries the "g:/a:" micro-format,
// or the candidate label+kind is resolved here.
type PersonFacetObservationInput struct {
	FacetAccountID    *int64   `json:"facet_account_id,omitempty"`
	Ref               string   `json:"facet_ref,omitempty"`
	KindSlug          string   `json:"kind_slug,omitempty"`
	Value             string   `json:"value,omitempty"`
	Label             string   `json:"label,omitempty"`
	Synonyms          []string `json:"synonyms,omitempty"`
	Source            string   `json:"source,omitempty"`
	EvidenceUnitIndex *int     `json:"evidence_unit_index,omitempty"`
	Confidence        *float64 `json:"confidence,omitempty"`
}

type PersonScaleObservationInput struct {
	KindSlug          string   `json:"kind_slug"`
	Score             *float64 `json:"score,omitempty"`
	Band              *string  `json:"band,omitempty"`
	Source            string   `json:"source,omitempty"`
	EvidenceUnitIndex *int     `json:"evidence_unit_index,omitempty"`
	Confidence        *float64 `json:"confidence,omitempty"`
}

type PersonObservationsInput struct {
	PersonID uuid.UUID                     `json:"person_id"`
	Facets   []PersonFacetObservationInput `json:"facets,omitempty"`
	Scales   []PersonScaleObservationInput `json:"scales,omitempty"`
}

type PersistFacetObservationsInput struct {
	AccountID    uuid.UUID                 `json:"account_id"`
	ProjectID    *uuid.UUID                `json:"project_id,omitempty"`
	Observations []PersonObservationsInput `json:"observations"`
	// EvidenceIDs is positional: observation.evidence_unit_index indexes into
	// it. Out-of-range or absent means no evidence linkage for that row.
	EvidenceIDs []uuid.UUID `json:"evidence_ids"`
}

// CatalogInvalidator drops an account's cached catalog after taxonomy writes.
type CatalogInvalidator interface {
	InvalidateCatalog(ctx context.Context, accountID uuid.UUID)
}

type FacetObservationService interface {
	// PersistFacetObservations resolves every facet reference in the batch and
	// writes normalized person_facet / person_scale rows. One bad observation
	// never aborts the batch; only a kind-index load failure returns an error.
	PersistFacetObservations(ctx context.Context, input PersistFacetObservationsInput) error
}

type facetObservationService struct {
	log             *logger.Logger
	kindRepo        repos.FacetKindRepo
	globalRepo      repos.GlobalFacetRepo
	accountRepo     repos.AccountFacetRepo
	personFacetRepo repos.PersonFacetRepo
	personScaleRepo repos.PersonScaleRepo
	invalidator     CatalogInvalidator
}

func NewFacetObservationService(
	kindRepo repos.FacetKindRepo,
	globalRepo repos.GlobalFacetRepo,
	accountRepo repos.AccountFacetRepo,
	personFacetRepo repos.PersonFacetRepo,
	personScaleRepo repos.PersonScaleRepo,
	invalidator CatalogInvalidator,
	baseLog *logger.Logger,
) FacetObservationService {
	return &facetObservationService{
		log:             baseLog.With("service", "FacetObservationService"),
		kindRepo:        kindRepo,
		globalRepo:      globalRepo,
		accountRepo:     accountRepo,
		personFacetRepo: personFacetRepo,
		personScaleRepo: personScaleRepo,
		invalidator:     invalidator,
	}
}

func (s *facetObservationService) PersistFacetObservations(ctx context.Context, input PersistFacetObservationsInput) error {
	ctx, span := observability.StartSpan(ctx, "facets.observations.persist")
	defer span.End()

	log := s.log.With("account_id", input.AccountID)
	resolver := NewFacetResolver(input.AccountID, s.kindRepo, s.globalRepo, s.accountRepo, s.log)
	now := time.Now().UTC()

	var (
		facetRows   []*types.PersonFacet
		scaleRows   []*types.PersonScale
		statusTally = map[ResolveStatus]int{}
		seenFacet   = map[facetKey]struct{}{}
		seenScale   = map[scaleKey]struct{}{}
	)

	for _, person := range input.Observations {
		if person.PersonID == uuid.Nil {
			continue
		}
		for _, obs := range person.Facets {
			facetID, status, err := s.resolveFacet(ctx, resolver, obs)
			if err != nil {
				return err
			}
			statusTally[status]++
			if facetID == 0 {
				// Treated as low-confidence noise from extraction; dropped.
				continue
			}
			// The upsert conflicts on (person_id, facet_account_id); a batch
			// may not touch the same row twice, so repeats keep the first.
			key := facetKey{person.PersonID, facetID}
			if _, dup := seenFacet[key]; dup {
				continue
			}
			seenFacet[key] = struct{}{}
			facetRows = append(facetRows, &types.PersonFacet{
				AccountID:      input.AccountID,
				ProjectID:      input.ProjectID,
				PersonID:       person.PersonID,
				FacetAccountID: facetID,
				Source:         defaultSource(obs.Source),
				EvidenceID:     evidenceAt(input.EvidenceIDs, obs.EvidenceUnitIndex),
				Confidence:     normalization.Confidence(obs.Confidence),
				NotedAt:        now,
			})
		}

		for _, scale := range person.Scales {
			kindSlug := strings.TrimSpace(scale.KindSlug)
			if kindSlug == "" {
				continue
			}
			key := scaleKey{person.PersonID, kindSlug}
			if _, dup := seenScale[key]; dup {
				continue
			}
			seenScale[key] = struct{}{}
			scaleRows = append(scaleRows, &types.PersonScale{
				AccountID:  input.AccountID,
				ProjectID:  input.ProjectID,
				PersonID:   person.PersonID,
				KindSlug:   kindSlug,
				Score:      normalization.ClampScore(scale.Score),
				Band:       scale.Band,
				Source:     defaultSource(scale.Source),
				EvidenceID: evidenceAt(input.EvidenceIDs, scale.EvidenceUnitIndex),
				Confidence: normalization.Confidence(scale.Confidence),
				NotedAt:    now,
			})
		}
	}

	// The two upserts are independent: a failure in one is logged and does not
	// abort the other. Partial success is the designed failure mode.
	if err := s.personFacetRepo.UpsertBatch(ctx, nil, facetRows); err != nil {
		log.Warn("Person facet upsert failed", "rows", len(facetRows), "error", err)
	}
	if err := s.personScaleRepo.UpsertBatch(ctx, nil, scaleRows); err != nil {
		log.Warn("Person scale upsert failed", "rows", len(scaleRows), "error", err)
	}

	if resolver.Dirty() && s.invalidator != nil {
		s.invalidator.InvalidateCatalog(ctx, input.AccountID)
	}

	log.Info("Facet observations persisted",
		"facet_rows", len(facetRows),
		"scale_rows", len(scaleRows),
		"created", statusTally[StatusCreated],
		"matched", statusTally[StatusMatched],
		"skipped_invalid", statusTally[StatusSkippedInvalid],
		"skipped_unknown_kind", statusTally[StatusSkippedUnknownKind],
		"failed", statusTally[StatusFailed],
	)
	return nil
}

func (s *facetObservationService) resolveFacet(ctx context.Context, resolver *FacetResolver, obs PersonFacetObservationInput) (int64, ResolveStatus, error) {
	if obs.FacetAccountID != nil && *obs.FacetAccountID > 0 {
		return *obs.FacetAccountID, StatusMatched, nil
	}
	label := obs.Label
	if label == "" {
		label = obs.Value
	}
	fallback := EnsureFacetInput{
		KindSlug: obs.KindSlug,
		Label:    label,
		Synonyms: obs.Synonyms,
	}
	if ref := ParseFacetRef(obs.Ref); ref.Scope != ScopeUnresolved {
		return resolver.EnsureFacetForRef(ctx, ref, fallback)
	}
	return resolver.EnsureFacet(ctx, fallback)
}

type facetKey struct {
	personID uuid.UUID
	facetID  int64
}

type scaleKey struct {
	personID uuid.UUID
	kindSlug string
}

func defaultSource(source string) string {
	if source == "" {
		return "interview"
	}
	return source
}

func evidenceAt(ids []uuid.UUID, index *int) *uuid.UUID {
	if index == nil || *index < 0 || *index >= len(ids) {
		return nil
	}
	id := ids[*index]
	return &id
}
