package discovery

import (
	"context"
	"regexp"

	"recipe-harvest/pkg/domain"
)

// recipeKeywords matches text that suggests a post actually contains a
// recipe rather than food photography or discussion.
var recipeKeywords = regexp.MustCompile(`(?i)recipe|ingredient|calories|protein|macro|cook|bake|prep|` +
	`chicken|salmon|tofu|quinoa|oats|greek yogurt|` +
	`kcal|cal per|grams? of protein|high.?protein|low.?cal`)

// SeenURLFilter drops candidates whose source URL is already stored, so a
// harvest does not re-extract recipes it persisted on a previous run.
type SeenURLFilter struct {
	seen map[string]bool
}

// NewSeenURLFilter creates a filter over the given set of stored source URLs.
func NewSeenURLFilter(seen map[string]bool) *SeenURLFilter {
	return &SeenURLFilter{seen: seen}
}

// ShouldKeep returns false if the candidate's source URL is already stored.
func (f *SeenURLFilter) ShouldKeep(ctx context.Context, candidate domain.RawCandidate) (bool, error) {
	return !f.seen[candidate.SourceURL], nil
}

// KeywordFilter keeps candidates whose title or description mentions
// recipe-related terms. It is a cheap prefilter that saves extraction calls
// on posts that are clearly not recipes.
type KeywordFilter struct{}

// NewKeywordFilter creates a recipe-keyword prefilter.
func NewKeywordFilter() *KeywordFilter {
	return &KeywordFilter{}
}

// ShouldKeep returns true if the candidate text matches a recipe keyword.
func (f *KeywordFilter) ShouldKeep(ctx context.Context, candidate domain.RawCandidate) (bool, error) {
	return recipeKeywords.MatchString(candidate.Title + " " + candidate.Description), nil
}
