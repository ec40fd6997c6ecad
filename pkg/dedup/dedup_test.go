package dedup

import (
	"testing"

	"recipe-harvest/pkg/domain"
)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func newDedup() *Deduplicator {
	return New(0.80, 0.60, 50, 5.0)
}

func recipe(title, url string, ingredients, steps int) *domain.Recipe {
	r := &domain.Recipe{Title: title, SourceURL: url}
	for i := 0; i < ingredients; i++ {
		r.Ingredients = append(r.Ingredients, "ingredient")
	}
	for i := 0; i < steps; i++ {
		r.Steps = append(r.Steps, "step")
	}
	return r
}

func withNutrition(r *domain.Recipe, calories int, protein float64) *domain.Recipe {
	r.Nutrition = &domain.Nutrition{
		Calories: intPtr(calories),
		ProteinG: floatPtr(protein),
		CarbsG:   floatPtr(30),
		FatG:     floatPtr(10),
		Servings: 1,
	}
	return r
}

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Easy Chicken Rice Bowl Recipe", "chicken rice bowl"},
		{"How To Make The Best Homemade Pizza!", "pizza"},
		{"My Quick Protein Pancakes", "protein pancakes"},
		{"Chicken & Rice (one-pot)", "chicken rice onepot"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeTitle(tt.in); got != tt.want {
			t.Errorf("NormalizeTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeTitle_Idempotent(t *testing.T) {
	titles := []string{
		"Easy Chicken Rice Bowl Recipe",
		"How To Make The Best Homemade Pizza",
		"5-Minute Breakfast!!!",
		"the best the best recipe recipe",
	}
	for _, title := range titles {
		once := NormalizeTitle(title)
		twice := NormalizeTitle(once)
		if once != twice {
			t.Errorf("NormalizeTitle not idempotent for %q: %q != %q", title, once, twice)
		}
	}
}

func TestTitleSimilarity_Identical(t *testing.T) {
	if sim := TitleSimilarity("Chicken Rice Bowl", "Chicken Rice Bowl"); sim != 1.0 {
		t.Errorf("Expected 1.0 for identical titles, got %v", sim)
	}
	// Identical after normalization counts too.
	if sim := TitleSimilarity("Easy Chicken Rice Bowl Recipe", "Chicken Rice Bowl"); sim != 1.0 {
		t.Errorf("Expected 1.0 for identical normalized titles, got %v", sim)
	}
}

func TestTitleSimilarity_Symmetric(t *testing.T) {
	a, b := "Chicken Rice Bowl", "Chicken Fried Rice"
	if TitleSimilarity(a, b) != TitleSimilarity(b, a) {
		t.Error("TitleSimilarity is not symmetric")
	}
}

func TestTitleSimilarity_EmptyIsZero(t *testing.T) {
	if sim := TitleSimilarity("", "Chicken"); sim != 0.0 {
		t.Errorf("Expected 0.0 when one side is empty, got %v", sim)
	}
	// "recipe" normalizes to empty.
	if sim := TitleSimilarity("Recipe", "Chicken"); sim != 0.0 {
		t.Errorf("Expected 0.0 when one side normalizes empty, got %v", sim)
	}
}

func TestCheck_IdenticalTitlesAreDuplicates(t *testing.T) {
	d := newDedup()
	a := recipe("Chicken Rice Bowl", "https://a.example/1", 3, 3)
	b := recipe("Easy Chicken Rice Bowl Recipe", "https://b.example/2", 2, 2)

	decision := d.Check(b, []*domain.Recipe{a})

	if !decision.IsDuplicate {
		t.Fatal("Expected identical normalized titles to be duplicates")
	}
	if decision.MatchedURL != a.SourceURL {
		t.Errorf("Expected match against %s, got %s", a.SourceURL, decision.MatchedURL)
	}
}

func TestCheck_MacroMatchLowersThreshold(t *testing.T) {
	d := newDedup()
	existing := withNutrition(recipe("Creamy Chicken Curry", "https://a.example/1", 3, 3), 450, 35)
	// Title alone is below 0.80 but above 0.60; macros within tolerance.
	candidate := withNutrition(recipe("Creamy Chicken Tacos", "https://b.example/2", 3, 3), 470, 33)

	sim := TitleSimilarity(candidate.Title, existing.Title)
	if sim >= 0.80 || sim < 0.60 {
		t.Fatalf("Test fixture out of intended band: sim=%v", sim)
	}

	decision := d.Check(candidate, []*domain.Recipe{existing})
	if !decision.IsDuplicate {
		t.Fatal("Expected duplicate via title+macro match")
	}
}

func TestCheck_MacroMismatchNoDuplicate(t *testing.T) {
	d := newDedup()
	existing := withNutrition(recipe("Creamy Chicken Curry", "https://a.example/1", 3, 3), 450, 35)
	candidate := withNutrition(recipe("Creamy Chicken Tacos", "https://b.example/2", 3, 3), 900, 70)

	decision := d.Check(candidate, []*domain.Recipe{existing})
	if decision.IsDuplicate {
		t.Fatal("Expected no duplicate when macros differ beyond tolerance")
	}
}

func TestCheck_TieKeepsExisting(t *testing.T) {
	d := newDedup()
	existing := recipe("Chicken Rice Bowl", "https://a.example/1", 3, 3)
	candidate := recipe("Chicken Rice Bowl", "https://b.example/2", 3, 3)

	decision := d.Check(candidate, []*domain.Recipe{existing})

	if decision.KeptVersion != KeptExisting {
		t.Errorf("Expected tie to keep existing, got %q", decision.KeptVersion)
	}
}

func TestDeduplicateBatch_KeepsBestRegardlessOfOrder(t *testing.T) {
	sparse := recipe("Chicken Rice Bowl", "https://a.example/sparse", 0, 0)
	full := withNutrition(recipe("Chicken Rice Bowl", "https://a.example/full", 6, 4), 520, 40)
	full.Description = "A full dinner bowl"
	full.ThumbnailURL = "https://a.example/thumb.jpg"

	// Sparse first.
	d := newDedup()
	out := d.DeduplicateBatch([]*domain.Recipe{sparse, full})
	if len(out) != 1 || out[0] != full {
		t.Fatalf("Expected full version kept when sparse arrives first, got %d recipes", len(out))
	}

	// Full first.
	d = newDedup()
	out = d.DeduplicateBatch([]*domain.Recipe{full, sparse})
	if len(out) != 1 || out[0] != full {
		t.Fatalf("Expected full version kept when full arrives first, got %d recipes", len(out))
	}
}

func TestDeduplicateBatch_EndToEnd(t *testing.T) {
	d := newDedup()
	sparse := recipe("Chicken Rice Bowl", "https://a.example/1", 2, 2)
	full := withNutrition(recipe("Chicken Rice Bowl", "https://a.example/2", 6, 4), 520, 40)
	pasta := recipe("Pasta Salad", "https://a.example/3", 4, 3)

	out := d.DeduplicateBatch([]*domain.Recipe{sparse, full, pasta})

	if len(out) != 2 {
		t.Fatalf("Expected 2 surviving recipes, got %d", len(out))
	}
	found := false
	for _, r := range out {
		if r == full {
			found = true
		}
		if r == sparse {
			t.Error("Sparse duplicate should have been replaced")
		}
	}
	if !found {
		t.Error("Expected the 6-ingredient version to survive")
	}
}

func TestFilterAgainstCorpus(t *testing.T) {
	d := newDedup()
	stored := withNutrition(recipe("Chicken Rice Bowl", "https://a.example/stored", 6, 4), 520, 40)
	dupOfStored := recipe("Chicken Rice Bowl", "https://b.example/dup", 2, 2)
	fresh := recipe("Beef Tacos", "https://b.example/fresh", 4, 3)

	out := d.FilterAgainstCorpus([]*domain.Recipe{dupOfStored, fresh}, []*domain.Recipe{stored})

	if len(out) != 1 || out[0] != fresh {
		t.Fatalf("Expected only the fresh recipe to survive corpus dedup, got %d", len(out))
	}
}

func TestLogCounters(t *testing.T) {
	d := newDedup()
	sparse := recipe("Chicken Rice Bowl", "https://a.example/1", 2, 2)
	full := withNutrition(recipe("Chicken Rice Bowl", "https://a.example/2", 6, 4), 520, 40)
	pasta := recipe("Pasta Salad", "https://a.example/3", 4, 3)

	d.DeduplicateBatch([]*domain.Recipe{sparse, full, pasta})

	if d.Log.TotalChecked != 3 {
		t.Errorf("Expected 3 checked, got %d", d.Log.TotalChecked)
	}
	if d.Log.DuplicatesFound != 1 {
		t.Errorf("Expected 1 duplicate found, got %d", d.Log.DuplicatesFound)
	}
	if d.Log.DuplicatesReplaced != 1 {
		t.Errorf("Expected 1 duplicate replaced, got %d", d.Log.DuplicatesReplaced)
	}
	if got := d.Log.Summary()["unique_new"]; got != 3 {
		t.Errorf("Expected unique_new=3, got %d", got)
	}
}
