package viral

import (
	"math"
	"sort"
	"time"

	"recipe-harvest/pkg/domain"
)

// Engagement weights. Saves are the strongest "I want to make this" signal;
// likes are the weakest.
const (
	weightSaves    = 0.30
	weightShares   = 0.25
	weightComments = 0.20
	weightLikes    = 0.15
	weightRecency  = 0.10
)

// recencyWindowDays is the linear decay window: 1.0 today down to 0.0 at
// this age.
const recencyWindowDays = 30

// DefaultScaleFactor amplifies the raw engagement product into the 0-100
// display range. Engagement rates are fractional (a viral save rate is a
// few percent), so the raw product is tiny; this is a calibration knob, not
// a derived quantity.
const DefaultScaleFactor = 500.0

// platformWeight is the per-platform credibility multiplier. TikTok recipe
// content indexes highest for virality.
var platformWeight = map[domain.Platform]float64{
	domain.PlatformTikTok:    1.0,
	domain.PlatformYouTube:   0.9,
	domain.PlatformInstagram: 0.85,
	domain.PlatformReddit:    0.75,
}

const unknownPlatformWeight = 0.7

// Scorer computes 0-100 ranking scores from engagement, recency, platform
// credibility and nutritional health.
type Scorer struct {
	ScaleFactor float64
	// now is swappable for tests.
	now func() time.Time
}

// NewScorer returns a scorer with the given scale factor.
func NewScorer(scaleFactor float64) *Scorer {
	return &Scorer{ScaleFactor: scaleFactor, now: time.Now}
}

// Score computes the viral score for one recipe, in [0,100], rounded to one
// decimal.
func (s *Scorer) Score(r *domain.Recipe) float64 {
	followers := r.Creator.FollowerCount

	// Platforms without a saves counter proxy it from shares.
	savesMetric := r.Engagement.Saves
	if savesMetric == nil && r.Platform == domain.PlatformReddit {
		savesMetric = r.Engagement.Shares
	}

	saves := normalizeMetric(savesMetric, followers)
	shares := normalizeMetric(r.Engagement.Shares, followers)
	comments := normalizeMetric(r.Engagement.Comments, followers)
	likes := normalizeMetric(r.Engagement.Likes, followers)
	recency := s.recencyBoost(r.PublishedAt)

	engagement := weightSaves*saves +
		weightShares*shares +
		weightComments*comments +
		weightLikes*likes +
		weightRecency*recency

	mult, ok := platformWeight[r.Platform]
	if !ok {
		mult = unknownPlatformWeight
	}

	health := HealthScore(r.Nutrition)

	raw := engagement * mult * (0.5 + 0.5*health) * s.ScaleFactor
	scaled := math.Min(math.Max(raw, 0), 100)
	return math.Round(scaled*10) / 10
}

// normalizeMetric turns an absolute engagement count into a [0,1] rate.
// With a known follower count it is the capped engagement rate; otherwise a
// log10 scale keeps huge absolute counts from unknown-size accounts from
// saturating the score.
func normalizeMetric(metric *int64, followers *int64) float64 {
	if metric == nil || *metric <= 0 {
		return 0.0
	}
	if followers != nil && *followers > 0 {
		return math.Min(float64(*metric)/float64(*followers), 1.0)
	}
	return math.Min(math.Log10(math.Max(float64(*metric), 1))/8.0, 1.0)
}

// recencyBoost decays linearly from 1.0 (published today) to 0.0 at the
// window edge. Unknown dates are neutral; future timestamps (clock skew)
// count as brand new.
func (s *Scorer) recencyBoost(publishedAt *time.Time) float64 {
	if publishedAt == nil {
		return 0.5
	}
	daysOld := s.now().UTC().Sub(publishedAt.UTC()).Hours() / 24
	if daysOld < 0 {
		return 1.0
	}
	return math.Max(0.0, 1.0-daysOld/recencyWindowDays)
}

// HealthScore rates nutritional quality in [0,1] from protein density,
// absolute protein, per-serving calories and sugar. Unknown nutrition is
// neutral.
func HealthScore(n *domain.Nutrition) float64 {
	if !n.Complete() {
		return 0.5
	}

	score := 0.5
	cal := math.Max(float64(*n.Calories), 1)
	protein := *n.ProteinG

	// Protein contributes 4 kcal/g; 0.25-0.40 of calories from protein is
	// the ideal band.
	proteinRatio := protein * 4 / cal
	switch {
	case proteinRatio >= 0.25:
		score += 0.25
	case proteinRatio >= 0.15:
		score += 0.15
	default:
		score += proteinRatio * 0.6
	}

	switch {
	case protein >= 30:
		score += 0.15
	case protein >= 20:
		score += 0.10
	}

	perServing := cal / math.Max(float64(n.Servings), 1)
	switch {
	case perServing <= 400:
		score += 0.10
	case perServing <= 600:
		score += 0.05
	}

	if n.SugarG != nil && *n.SugarG > 20 {
		score -= 0.10
	}

	return math.Max(0.0, math.Min(1.0, score))
}

// ScoreAndRank assigns every recipe its viral score and returns the slice
// sorted descending. The sort is stable so equal scores keep arrival order.
func (s *Scorer) ScoreAndRank(recipes []*domain.Recipe) []*domain.Recipe {
	for _, r := range recipes {
		r.ViralScore = s.Score(r)
	}
	sort.SliceStable(recipes, func(i, j int) bool {
		return recipes[i].ViralScore > recipes[j].ViralScore
	})
	return recipes
}
