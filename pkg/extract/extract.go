package extract

import (
	"context"
	"net/http"
	"strings"
	"time"

	"recipe-harvest/pkg/domain"
)

// Extractor turns a raw platform candidate into a structured recipe.
// A (nil, nil) return means the candidate does not contain a recipe; that
// is a normal outcome, not an error.
type Extractor interface {
	Extract(ctx context.Context, candidate domain.RawCandidate) (*domain.Recipe, error)
}

// decodeEntities undoes the HTML escaping platforms apply to post titles.
func decodeEntities(s string) string {
	s = strings.ReplaceAll(s, "&amp;", "&")
	s = strings.ReplaceAll(s, "&lt;", "<")
	s = strings.ReplaceAll(s, "&gt;", ">")
	return s
}

// recipeBase builds the recipe skeleton every extractor shares: identity,
// creator and engagement carried over from the candidate.
func recipeBase(candidate domain.RawCandidate) *domain.Recipe {
	return &domain.Recipe{
		Platform:     candidate.Platform,
		SourceURL:    candidate.SourceURL,
		ThumbnailURL: candidate.ThumbnailURL,
		VideoURL:     candidate.VideoURL,
		Creator: domain.Creator{
			Username:      candidate.Author,
			Platform:      candidate.Platform,
			ProfileURL:    candidate.SourceURL,
			FollowerCount: candidate.FollowerCount,
		},
		Engagement: domain.Engagement{
			Views:    candidate.Views,
			Likes:    candidate.Likes,
			Comments: candidate.Comments,
			Shares:   candidate.Shares,
		},
		ScrapedAt:   time.Now().UTC(),
		PublishedAt: candidate.PublishedAt,
	}
}

func httpGet(ctx context.Context, url string) (*http.Request, error) {
	return http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
}

// truncate caps a description at max runes.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
