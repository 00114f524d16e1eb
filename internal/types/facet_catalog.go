package types

// Read projections for the tenant-visible taxonomy. Built fresh per request,
// never persisted.

type FacetCatalogKind struct {
	Slug  string `json:"slug"`
	Label string `json:"label"`
}

// FacetCatalogEntry merges global and account rows into one shape for the
// UI and for the extraction prompt. Account entries override identically-keyed
// global entries; id sequences are disjoint in the backing store.
type FacetCatalogEntry struct {
	FacetAccountID int64    `json:"facet_account_id"`
	KindSlug       string   `json:"kind_slug"`
	Label          string   `json:"label"`
	Synonyms       []string `json:"synonyms"`
}

// FacetCatalog carries an opaque version token of the form
// acct:<account_id>:v<ms>, monotonically non-decreasing per account. Callers
// use it purely for cache busting.
type FacetCatalog struct {
	Kinds   []FacetCatalogKind  `json:"kinds"`
	Facets  []FacetCatalogEntry `json:"facets"`
	Version string              `json:"version"`
}
