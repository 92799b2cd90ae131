package resolver

import "testing"

func TestResolve(t *testing.T) {
	t.Run("exact_match_case_insensitive", func(t *testing.T) {
		names := []string{"Food & Dining", "Transportation", "Utilities"}
		idx, ok := Resolve("TRANSPORTATION", names)
		if !ok {
			t.Fatal("expected a match")
		}
		if idx != 1 {
			t.Errorf("expected index 1, got %d", idx)
		}
	})

	t.Run("exact_wins_over_substring", func(t *testing.T) {
		// "Food" is a substring of the first candidate, but the exact
		// match later in the list must win.
		names := []string{"Food & Dining", "Food"}
		idx, ok := Resolve("food", names)
		if !ok {
			t.Fatal("expected a match")
		}
		if idx != 1 {
			t.Errorf("expected exact match at index 1, got %d", idx)
		}
	})

	t.Run("name_contains_hint", func(t *testing.T) {
		names := []string{"Transportation", "Food & Dining"}
		idx, ok := Resolve("dining", names)
		if !ok {
			t.Fatal("expected a match")
		}
		if idx != 1 {
			t.Errorf("expected index 1, got %d", idx)
		}
	})

	t.Run("hint_contains_name", func(t *testing.T) {
		names := []string{"Rent", "Utilities"}
		idx, ok := Resolve("monthly rent payment", names)
		if !ok {
			t.Fatal("expected a match")
		}
		if idx != 0 {
			t.Errorf("expected index 0, got %d", idx)
		}
	})

	t.Run("fuzzy_typo", func(t *testing.T) {
		names := []string{"Food & Dining", "Transportation"}
		idx, ok := Resolve("fod", names)
		if !ok {
			t.Fatal("expected fuzzy match for 'fod'")
		}
		if idx != 0 {
			t.Errorf("expected Food & Dining at index 0, got %d", idx)
		}
	})

	t.Run("fuzzy_tie_keeps_first", func(t *testing.T) {
		// Both candidates are distance 1 from the hint; the earlier
		// one must win.
		names := []string{"Cars", "Bars"}
		idx, ok := Resolve("aars", names)
		if !ok {
			t.Fatal("expected a match")
		}
		if idx != 0 {
			t.Errorf("expected first candidate on tie, got %d", idx)
		}
	})

	t.Run("no_match_beyond_thresholds", func(t *testing.T) {
		names := []string{"Transportation", "Utilities"}
		if _, ok := Resolve("zzzzzzzzzzzz", names); ok {
			t.Error("expected no match for unrelated hint")
		}
	})

	t.Run("blank_hint", func(t *testing.T) {
		if _, ok := Resolve("   ", []string{"Food"}); ok {
			t.Error("expected no match for blank hint")
		}
	})

	t.Run("empty_candidates", func(t *testing.T) {
		if _, ok := Resolve("food", nil); ok {
			t.Error("expected no match with no candidates")
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		names := []string{"Groceries", "Gifts", "Gas"}
		first, okFirst := Resolve("grceries", names)
		for i := 0; i < 10; i++ {
			idx, ok := Resolve("grceries", names)
			if ok != okFirst || idx != first {
				t.Fatalf("resolution not deterministic: got (%d,%v) then (%d,%v)", first, okFirst, idx, ok)
			}
		}
	})
}

func TestLevenshtein(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "abc", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"fod", "food", 1},
		{"grocery", "groceries", 3},
	}

	for _, tc := range cases {
		if got := Levenshtein(tc.a, tc.b); got != tc.want {
			t.Errorf("Levenshtein(%q, %q) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestSuggestions(t *testing.T) {
	got := Suggestions([]string{"Food & Dining", "Transportation"})
	want := "Food & Dining, Transportation"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}
