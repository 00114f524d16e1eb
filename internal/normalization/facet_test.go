package normalization

import (
	"math"
	"testing"
)

func TestLabel(t *testing.T) {
	if got := Label("  Finish   faster \t now "); got != "Finish faster now" {
		t.Fatalf("expected collapsed label, got %q", got)
	}
	if got := Label("   \t\n "); got != "" {
		t.Fatalf("expected empty label for blank input, got %q", got)
	}
	if got := Label(""); got != "" {
		t.Fatalf("expected empty label for empty input, got %q", got)
	}
}

func TestSynonyms(t *testing.T) {
	got := Synonyms([]string{" faster ", "Faster", "", "quick   win", "quick win"})
	if len(got) != 2 {
		t.Fatalf("expected 2 deduped synonyms, got %v", got)
	}
	if got[0] != "faster" || got[1] != "quick win" {
		t.Fatalf("unexpected synonym set %v", got)
	}
	if Synonyms(nil) != nil {
		t.Fatalf("expected nil for empty input")
	}
	if Synonyms([]string{"  ", ""}) != nil {
		t.Fatalf("expected nil when every entry is blank")
	}
}

func TestClampScore(t *testing.T) {
	cases := []struct {
		name string
		in   *float64
		want float64
	}{
		{"nil", nil, DefaultConfidence},
		{"nan", ptr(math.NaN()), DefaultConfidence},
		{"above", ptr(1.3), 1},
		{"below", ptr(-0.2), 0},
		{"inside", ptr(0.92), 0.92},
		{"zero", ptr(0.0), 0},
	}
	for _, tc := range cases {
		if got := ClampScore(tc.in); got != tc.want {
			t.Fatalf("%s: expected %v got %v", tc.name, tc.want, got)
		}
		if got := Confidence(tc.in); got != tc.want {
			t.Fatalf("%s: Confidence diverged from ClampScore: %v", tc.name, got)
		}
	}
}

func TestSlugify(t *testing.T) {
	if got := Slugify("Finish faster"); got != "finish_faster" {
		t.Fatalf("expected finish_faster, got %q", got)
	}
	if got := Slugify("  Price-sensitivity (high!) "); got != "price_sensitivity_high" {
		t.Fatalf("unexpected slug %q", got)
	}
	if got := Slugify("垂直市場"); got != "" {
		t.Fatalf("expected empty slug for non-ASCII label, got %q", got)
	}
}

func TestFallbackSlugDeterministic(t *testing.T) {
	a := FallbackSlug(3, "垂直市場")
	b := FallbackSlug(3, "垂直市場")
	if a == "" || a != b {
		t.Fatalf("fallback slug must be deterministic, got %q and %q", a, b)
	}
	if FallbackSlug(4, "垂直市場") == a {
		t.Fatalf("fallback slug must vary by kind")
	}
}

func ptr(v float64) *float64 { return &v }
