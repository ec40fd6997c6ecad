package discovery

import (
	"context"
	"net/http"

	"recipe-harvest/pkg/domain"
)

// Discoverer finds candidate posts on a single platform. Implementations
// validate candidates at the boundary so malformed platform payloads never
// reach the pipeline.
type Discoverer interface {
	Platform() domain.Platform
	Discover(ctx context.Context, limit int) ([]domain.RawCandidate, error)
}

// CandidateFilter decides whether a discovered candidate should continue
// into extraction.
type CandidateFilter interface {
	ShouldKeep(ctx context.Context, candidate domain.RawCandidate) (bool, error)
}

func httpRequest(ctx context.Context, url string) (*http.Request, error) {
	return http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
}

// ApplyFilters returns the candidates every filter keeps. A filter error
// drops the candidate rather than aborting the batch.
func ApplyFilters(ctx context.Context, candidates []domain.RawCandidate, filters ...CandidateFilter) []domain.RawCandidate {
	kept := make([]domain.RawCandidate, 0, len(candidates))

	for _, c := range candidates {
		keep := true
		for _, f := range filters {
			ok, err := f.ShouldKeep(ctx, c)
			if err != nil || !ok {
				keep = false
				break
			}
		}
		if keep {
			kept = append(kept, c)
		}
	}
	return kept
}
