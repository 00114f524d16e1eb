package db

import (
	"context"
	"embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/fieldlens/fieldlens-backend/internal/repos"
	"github.com/fieldlens/fieldlens-backend/internal/types"
)

const taxonomySeedEnv = "TAXONOMY_SEED_YAML"

//go:embed taxonomy_seed.yaml
var taxonomySeedFS embed.FS

type seedKind struct {
	Slug  string `yaml:"slug"`
	Label string `yaml:"label"`
}

type seedGlobalFacet struct {
	Kind     string   `yaml:"kind"`
	Slug     string   `yaml:"slug"`
	Label    string   `yaml:"label"`
	Synonyms []string `yaml:"synonyms"`
}

type taxonomySeed struct {
	Kinds        []seedKind        `yaml:"kinds"`
	GlobalFacets []seedGlobalFacet `yaml:"global_facets"`
}

// SeedTaxonomy upserts the global kinds and starter global facets. Idempotent
// by slug; safe to run on every boot. An override file can be supplied via
// TAXONOMY_SEED_YAML.
func (s *PostgresService) SeedTaxonomy(ctx context.Context, kindRepo repos.FacetKindRepo, globalRepo repos.GlobalFacetRepo) error {
	raw, err := loadSeedBytes()
	if err != nil {
		return err
	}
	var seed taxonomySeed
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return fmt.Errorf("parse taxonomy seed: %w", err)
	}

	kindRows := make([]*types.FacetKind, 0, len(seed.Kinds))
	for _, k := range seed.Kinds {
		slug := strings.TrimSpace(k.Slug)
		if slug == "" {
			continue
		}
		kindRows = append(kindRows, &types.FacetKind{Slug: slug, Label: k.Label})
	}
	if err := kindRepo.UpsertBySlug(ctx, nil, kindRows); err != nil {
		return fmt.Errorf("seed facet kinds: %w", err)
	}

	// Re-read so facet rows reference the surviving kind ids, not the ids of
	// this boot's insert attempt.
	kinds, err := kindRepo.ListAll(ctx, nil)
	if err != nil {
		return fmt.Errorf("reload facet kinds: %w", err)
	}
	kindIDBySlug := make(map[string]int64, len(kinds))
	for _, k := range kinds {
		kindIDBySlug[k.Slug] = k.ID
	}

	globalRows := make([]*types.GlobalFacet, 0, len(seed.GlobalFacets))
	for _, f := range seed.GlobalFacets {
		kindID, ok := kindIDBySlug[strings.TrimSpace(f.Kind)]
		if !ok {
			s.log.Warn("Seed facet references unknown kind, skipping", "kind", f.Kind, "slug", f.Slug)
			continue
		}
		globalRows = append(globalRows, &types.GlobalFacet{
			KindID:   kindID,
			Slug:     strings.TrimSpace(f.Slug),
			Label:    f.Label,
			Synonyms: types.SynonymList(f.Synonyms),
		})
	}
	if err := globalRepo.UpsertByKindSlug(ctx, nil, globalRows); err != nil {
		return fmt.Errorf("seed global facets: %w", err)
	}

	s.log.Info("Taxonomy seeded", "kinds", len(kindRows), "global_facets", len(globalRows))
	return nil
}

func loadSeedBytes() ([]byte, error) {
	if path := strings.TrimSpace(os.Getenv(taxonomySeedEnv)); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", taxonomySeedEnv, err)
		}
		return raw, nil
	}
	return taxonomySeedFS.ReadFile("taxonomy_seed.yaml")
}
