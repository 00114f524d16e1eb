package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/fieldlens/fieldlens-backend/internal/logger"
	"github.com/fieldlens/fieldlens-backend/internal/normalization"
	apperrors "github.com/fieldlens/fieldlens-backend/internal/pkg/errors"
	"github.com/fieldlens/fieldlens-backend/internal/repos"
	"github.com/fieldlens/fieldlens-backend/internal/types"
)

// EnsureFacetInput is a loose facet reference by label and kind. Synonyms are
// merged into the row if it already exists. GlobalFacetID and Active are only
// set by the global-reference seeding path.
type EnsureFacetInput struct {
	KindSlug      string
	Label         string
	Synonyms      []string
	GlobalFacetID *int64
	Active        bool
}

// FacetResolver is the single authority for turning a loose reference into a
// durable facet_account id without duplicating rows. It is scoped to one
// account and meant to be constructed per unit of work (one interview's worth
// of observations); its caches are not safe for concurrent reuse.
type FacetResolver struct {
	log         *logger.Logger
	kindRepo    repos.FacetKindRepo
	globalRepo  repos.GlobalFacetRepo
	accountRepo repos.AccountFacetRepo
	accountID   uuid.UUID

	kindSlugToID  map[string]int64
	kindIDToSlug  map[int64]string
	facetIDBySlug map[string]int64
	globalByID    map[int64]*types.GlobalFacet
	dirty         bool
}

func NewFacetResolver(
	accountID uuid.UUID,
	kindRepo repos.FacetKindRepo,
	globalRepo repos.GlobalFacetRepo,
	accountRepo repos.AccountFacetRepo,
	baseLog *logger.Logger,
) *FacetResolver {
	return &FacetResolver{
		log:           baseLog.With("service", "FacetResolver", "account_id", accountID),
		kindRepo:      kindRepo,
		globalRepo:    globalRepo,
		accountRepo:   accountRepo,
		accountID:     accountID,
		facetIDBySlug: make(map[string]int64),
		globalByID:    make(map[int64]*types.GlobalFacet),
	}
}

// Dirty reports whether this resolver created or updated any account facet
// row, i.e. whether the account's cached catalog is stale.
func (r *FacetResolver) Dirty() bool { return r.dirty }

// loadKindIndex populates both kind maps. Idempotent; a failure leaves the
// maps empty so no resolution can proceed on a partial index.
func (r *FacetResolver) loadKindIndex(ctx context.Context) error {
	if r.kindSlugToID != nil {
		return nil
	}
	rows, err := r.kindRepo.ListAll(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrKindIndexLoad, err)
	}
	slugToID := make(map[string]int64, len(rows))
	idToSlug := make(map[int64]string, len(rows))
	for _, row := range rows {
		if row.Slug == "" {
			continue
		}
		slugToID[row.Slug] = row.ID
		idToSlug[row.ID] = row.Slug
	}
	r.kindSlugToID = slugToID
	r.kindIDToSlug = idToSlug
	return nil
}

// EnsureFacet resolves label+kind to an account facet id, creating the row if
// the account has never seen this slug and merging synonyms if it has. A zero
// id means the observation should be skipped; the status says why. The error
// is non-nil only when the kind index itself cannot be loaded.
func (r *FacetResolver) EnsureFacet(ctx context.Context, in EnsureFacetInput) (int64, ResolveStatus, error) {
	label := normalization.Label(in.Label)
	kindSlug := strings.ToLower(strings.TrimSpace(in.KindSlug))
	if label == "" || kindSlug == "" {
		return 0, StatusSkippedInvalid, nil
	}
	if err := r.loadKindIndex(ctx); err != nil {
		return 0, StatusFailed, err
	}
	kindID, ok := r.kindSlugToID[kindSlug]
	if !ok {
		// Unknown kinds are dropped, not created.
		r.log.Warn("Unknown facet kind, dropping", "kind_slug", kindSlug, "label", label)
		return 0, StatusSkippedUnknownKind, nil
	}

	slug := normalization.Slugify(label)
	if slug == "" {
		slug = normalization.FallbackSlug(kindID, label)
	}
	cacheKey := fmt.Sprintf("%d|%s", kindID, slug)
	if id, hit := r.facetIDBySlug[cacheKey]; hit {
		return id, StatusMatched, nil
	}

	existing, err := r.accountRepo.FindBySlug(ctx, nil, r.accountID, kindID, slug)
	if err != nil {
		r.log.Warn("Account facet lookup failed", "kind_id", kindID, "slug", slug, "error", err)
		return 0, StatusFailed, nil
	}
	if existing != nil {
		r.mergeSynonyms(ctx, existing, in.Synonyms)
		r.facetIDBySlug[cacheKey] = existing.ID
		return existing.ID, StatusMatched, nil
	}

	row := &types.AccountFacet{
		AccountID:     r.accountID,
		KindID:        kindID,
		GlobalFacetID: in.GlobalFacetID,
		Label:         label,
		Slug:          slug,
		Synonyms:      types.SynonymList(normalization.Synonyms(in.Synonyms)),
		IsActive:      in.Active,
	}
	if err := r.accountRepo.Insert(ctx, nil, row); err != nil {
		// Read-check-then-insert race: a concurrent resolver may have written
		// the row between our miss and our insert. Re-read once and adopt the
		// surviving row instead of failing the observation.
		if repos.IsUniqueViolation(err) {
			r.log.Debug("Lost facet insert race, re-reading", "kind_id", kindID, "slug", slug)
		} else {
			r.log.Warn("Account facet insert failed", "kind_id", kindID, "slug", slug, "error", err)
		}
		survivor, rerr := r.accountRepo.FindBySlug(ctx, nil, r.accountID, kindID, slug)
		if rerr != nil || survivor == nil {
			r.log.Warn("Account facet resolution failed", "kind_id", kindID, "slug", slug, "error", err)
			return 0, StatusFailed, nil
		}
		r.mergeSynonyms(ctx, survivor, in.Synonyms)
		r.facetIDBySlug[cacheKey] = survivor.ID
		return survivor.ID, StatusMatched, nil
	}
	r.dirty = true
	r.facetIDBySlug[cacheKey] = row.ID
	return row.ID, StatusCreated, nil
}

// mergeSynonyms grows the stored synonym set with newly supplied entries.
// Label and slug are never rewritten on merge; a failed patch is logged and
// the resolution proceeds with the existing row.
func (r *FacetResolver) mergeSynonyms(ctx context.Context, row *types.AccountFacet, incoming []string) {
	if len(incoming) == 0 {
		return
	}
	combined := make([]string, 0, len(row.Synonyms)+len(incoming))
	combined = append(combined, row.Synonyms...)
	combined = append(combined, incoming...)
	merged := normalization.Synonyms(combined)
	if len(merged) == len(row.Synonyms) {
		return
	}
	if err := r.accountRepo.UpdateSynonyms(ctx, nil, row.ID, merged); err != nil {
		r.log.Warn("Synonym merge failed", "facet_account_id", row.ID, "error", err)
		return
	}
	row.Synonyms = types.SynonymList(merged)
	r.dirty = true
}

// EnsureFacetForRef resolves a decoded facet reference. Account refs only
// verify tenancy and never create; global refs seed a pre-activated account
// facet from the vetted global entry; unresolved refs fall back to the
// supplied label+kind.
func (r *FacetResolver) EnsureFacetForRef(ctx context.Context, ref FacetRef, fallback EnsureFacetInput) (int64, ResolveStatus, error) {
	switch ref.Scope {
	case ScopeAccount:
		row, err := r.accountRepo.GetForAccount(ctx, nil, ref.ID, r.accountID)
		if err != nil {
			r.log.Warn("Account facet ref lookup failed", "facet_account_id", ref.ID, "error", err)
			return 0, StatusFailed, nil
		}
		if row == nil {
			r.log.Warn("Facet ref does not belong to account", "facet_account_id", ref.ID)
			return 0, StatusFailed, nil
		}
		return row.ID, StatusMatched, nil

	case ScopeGlobal:
		global, err := r.loadGlobalFacet(ctx, ref.ID)
		if err != nil {
			// A failed read is not "does not exist": falling back to label
			// resolution here could duplicate a vetted facet.
			r.log.Warn("Global facet lookup failed", "global_facet_id", ref.ID, "error", err)
			return 0, StatusFailed, nil
		}
		if global == nil {
			// No vetted entry to seed from; resolve by label alone.
			return r.EnsureFacet(ctx, fallback)
		}
		label := normalization.Label(fallback.Label)
		if label == "" {
			label = global.Label
		}
		kindSlug := strings.ToLower(strings.TrimSpace(fallback.KindSlug))
		if kindSlug == "" {
			if err := r.loadKindIndex(ctx); err != nil {
				return 0, StatusFailed, err
			}
			kindSlug = r.kindIDToSlug[global.KindID]
		}
		synonyms := make([]string, 0, len(fallback.Synonyms)+len(global.Synonyms))
		synonyms = append(synonyms, fallback.Synonyms...)
		synonyms = append(synonyms, global.Synonyms...)
		return r.EnsureFacet(ctx, EnsureFacetInput{
			KindSlug:      kindSlug,
			Label:         label,
			Synonyms:      synonyms,
			GlobalFacetID: &global.ID,
			Active:        true,
		})

	default:
		return r.EnsureFacet(ctx, fallback)
	}
}

// loadGlobalFacet caches both hits and confirmed misses; a nil row with a nil
// error means the id genuinely has no global entry.
func (r *FacetResolver) loadGlobalFacet(ctx context.Context, id int64) (*types.GlobalFacet, error) {
	if cached, ok := r.globalByID[id]; ok {
		return cached, nil
	}
	row, err := r.globalRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	r.globalByID[id] = row
	return row, nil
}
