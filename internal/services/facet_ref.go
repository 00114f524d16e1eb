package services

import (
	"strconv"
	"strings"
)

// RefScope tags which namespace a facet reference points into.
type RefScope int

const (
	// ScopeUnresolved means the reference could not be decoded; resolution
	// falls back to label+kind.
	ScopeUnresolved RefScope = iota
	ScopeGlobal
	ScopeAccount
)

func (s RefScope) String() string {
	switch s {
	case ScopeGlobal:
		return "global"
	case ScopeAccount:
		return "account"
	default:
		return "unresolved"
	}
}

// FacetRef is the decoded form of the "g:<id>" / "a:<id>" reference
// micro-format emitted by extraction. Decoding happens once at the boundary;
// resolution logic only switches on the scope tag.
type FacetRef struct {
	Scope RefScope
	ID    int64
}

// ParseFacetRef decodes raw into a FacetRef. Anything malformed — wrong
// prefix, non-numeric or non-positive id — comes back ScopeUnresolved rather
// than an error, preserving the fall-back-to-label behavior.
func ParseFacetRef(raw string) FacetRef {
	raw = strings.TrimSpace(raw)
	if len(raw) < 3 || raw[1] != ':' {
		return FacetRef{Scope: ScopeUnresolved}
	}
	id, err := strconv.ParseInt(raw[2:], 10, 64)
	if err != nil || id <= 0 {
		return FacetRef{Scope: ScopeUnresolved}
	}
	switch raw[0] {
	case 'g':
		return FacetRef{Scope: ScopeGlobal, ID: id}
	case 'a':
		return FacetRef{Scope: ScopeAccount, ID: id}
	default:
		return FacetRef{Scope: ScopeUnresolved}
	}
}

// ResolveStatus reports what a resolution attempt did, so callers can count
// skips and failures instead of seeing an indistinguishable null.
type ResolveStatus int

const (
	StatusFailed ResolveStatus = iota
	StatusSkippedInvalid
	StatusSkippedUnknownKind
	StatusMatched
	StatusCreated
)

func (s ResolveStatus) Resolved() bool {
	return s == StatusMatched || s == StatusCreated
}

func (s ResolveStatus) String() string {
	switch s {
	case StatusFailed:
		return "failed"
	case StatusSkippedInvalid:
		return "skipped_invalid"
	case StatusSkippedUnknownKind:
		return "skipped_unknown_kind"
	case StatusMatched:
		return "matched"
	case StatusCreated:
		return "created"
	default:
		return "unknown"
	}
}
