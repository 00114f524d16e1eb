package normalization

import (
	"fmt"
	"hash/fnv"
	"math"
	"strings"
)

// DefaultConfidence is used whenever extraction supplies no usable number.
// Scores and confidences share one normalization contract.
const DefaultConfidence = 0.8

// Label collapses internal whitespace runs to single spaces and trims. An
// empty result means the label is unusable and the observation should be
// skipped.
func Label(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return strings.Join(fields, " ")
}

// Synonyms trims each entry, drops empties and deduplicates ignoring case and
// internal whitespace. The first spelling of a duplicate wins; order carries
// no meaning.
func Synonyms(list []string) []string {
	if len(list) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(list))
	out := make([]string, 0, len(list))
	for _, raw := range list {
		entry := Label(raw)
		if entry == "" {
			continue
		}
		key := strings.ToLower(entry)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, entry)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// ClampScore maps a missing or NaN value to DefaultConfidence and clamps
// everything else into [0, 1].
func ClampScore(v *float64) float64 {
	if v == nil || math.IsNaN(*v) {
		return DefaultConfidence
	}
	return math.Min(1, math.Max(0, *v))
}

// Confidence follows the same rule as ClampScore.
func Confidence(v *float64) float64 {
	return ClampScore(v)
}

// Slugify lowercases the label and joins ASCII alphanumeric word runs with
// underscores. Returns "" when nothing slugifiable remains (e.g. an
// all-non-ASCII label); callers fall back to FallbackSlug.
func Slugify(label string) string {
	var b strings.Builder
	b.Grow(len(label))
	for _, r := range strings.ToLower(label) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}
	words := strings.Fields(b.String())
	return strings.Join(words, "_")
}

// FallbackSlug derives a deterministic slug for labels Slugify cannot handle,
// so retries of the same label converge on one row.
func FallbackSlug(kindID int64, label string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(label))
	return fmt.Sprintf("f%d_%x", kindID, h.Sum64())
}
