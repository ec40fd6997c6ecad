package quality

import (
	"fmt"
	"log"
	"math"

	"recipe-harvest/pkg/domain"
)

// Valid nutrition ranges for the in-range bonus.
const (
	minCalories = 100
	maxCalories = 2000
	minProtein  = 10
	maxProtein  = 200
)

// minCompleteFactors is how many of the eleven factors must be non-zero for
// a recipe to be considered complete, independent of the numeric score.
const minCompleteFactors = 6

// Status values of a Report.
const (
	StatusComplete   = "complete"
	StatusIncomplete = "incomplete"
)

// Report is a soft quality assessment. Score is in [0,1]; Status depends on
// how many factors contributed, not on the score itself.
type Report struct {
	Score        float64            `json:"score"`
	Status       string             `json:"status"`
	FactorScores map[string]float64 `json:"factor_scores"`
	Warnings     []string           `json:"warnings,omitempty"`
}

// Score rates a recipe's data completeness and validity from 0.0 to 1.0.
//
// Weighted factors (sum to 1.0):
//
//	title >= 5 chars          0.10
//	description >= 10 chars   0.05
//	ingredients (2+ / 1)      0.20 / 0.10
//	steps (2+ / 1)            0.15 / 0.08
//	nutrition present         0.15
//	nutrition in range        0.10
//	tags                      0.05
//	creator identified        0.05
//	thumbnail or video        0.05
//	any engagement metric     0.05
//	cook time                 0.05
//
// A recipe with no data scores near 0 and is incomplete; malformed input
// never produces an error.
func Score(r *domain.Recipe) Report {
	factors := make(map[string]float64, 11)
	var warnings []string

	factors["title"] = 0
	if len(r.Title) >= 5 {
		factors["title"] = 0.10
	}

	factors["description"] = 0
	if len(r.Description) >= 10 {
		factors["description"] = 0.05
	}

	switch {
	case len(r.Ingredients) >= 2:
		factors["ingredients"] = 0.20
	case len(r.Ingredients) == 1:
		factors["ingredients"] = 0.10
	default:
		factors["ingredients"] = 0
	}

	switch {
	case len(r.Steps) >= 2:
		factors["steps"] = 0.15
	case len(r.Steps) == 1:
		factors["steps"] = 0.08
	default:
		factors["steps"] = 0
	}

	factors["nutrition_present"] = 0
	factors["nutrition_valid"] = 0
	if r.Nutrition.Complete() {
		factors["nutrition_present"] = 0.15
		factors["nutrition_valid"] = 0.10
		if cal := *r.Nutrition.Calories; cal < minCalories || cal > maxCalories {
			warnings = append(warnings, fmt.Sprintf("calories %d outside range [%d,%d]", cal, minCalories, maxCalories))
			factors["nutrition_valid"] = 0
		}
		if p := *r.Nutrition.ProteinG; p < minProtein || p > maxProtein {
			warnings = append(warnings, fmt.Sprintf("protein %.0fg outside range [%d,%d]", p, minProtein, maxProtein))
			factors["nutrition_valid"] = 0
		}
	} else {
		warnings = append(warnings, "no nutrition data")
	}

	factors["tags"] = 0
	if len(r.Tags) >= 1 {
		factors["tags"] = 0.05
	}

	factors["creator"] = 0
	if r.Creator.Username != "" {
		factors["creator"] = 0.05
	}

	factors["media"] = 0
	if r.ThumbnailURL != "" || r.VideoURL != "" {
		factors["media"] = 0.05
	}

	factors["engagement"] = 0
	if r.Engagement.Any() {
		factors["engagement"] = 0.05
	}

	factors["cook_time"] = 0
	if r.CookTimeMinutes != nil && *r.CookTimeMinutes > 0 {
		factors["cook_time"] = 0.05
	}

	total := 0.0
	filled := 0
	for _, v := range factors {
		total += v
		if v > 0 {
			filled++
		}
	}
	total = math.Round(math.Min(total, 1.0)*1000) / 1000

	status := StatusIncomplete
	if filled >= minCompleteFactors {
		status = StatusComplete
	}

	return Report{
		Score:        total,
		Status:       status,
		FactorScores: factors,
		Warnings:     warnings,
	}
}

// Filter partitions recipes into those at or above minScore and those
// below. It never fails: a recipe with no data simply scores near 0.
func Filter(recipes []*domain.Recipe, minScore float64) (passed, failed []*domain.Recipe) {
	for _, r := range recipes {
		report := Score(r)
		if report.Score >= minScore {
			passed = append(passed, r)
		} else {
			failed = append(failed, r)
			log.Printf("Quality filter rejected: %.40s (score=%.3f)", r.Title, report.Score)
		}
	}
	return passed, failed
}
