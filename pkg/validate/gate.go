package validate

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"recipe-harvest/pkg/domain"
)

// Result is the terminal outcome of the admission gate. A rejected recipe
// is discarded; it never reaches scoring or storage.
type Result struct {
	Valid    bool              `json:"valid"`
	Reason   string            `json:"reason,omitempty"`
	Details  map[string]string `json:"details,omitempty"`
	Warnings []string          `json:"warnings,omitempty"`
}

// compilationPatterns match posts covering multiple recipes ("day in the
// life" videos, numbered recipe lists). Such posts cannot map to a single
// structured recipe, so any match rejects.
var compilationPatterns = []struct {
	re     *regexp.Regexp
	reason string
}{
	{regexp.MustCompile(`(?i)\bday\s+(?:in\s+(?:my|the)\s+)?life\b`), "compilation: 'day in the life'"},
	{regexp.MustCompile(`(?i)\bfull\s+day\s+(?:of\s+)?eating\b`), "compilation: 'full day of eating'"},
	{regexp.MustCompile(`(?i)\bwhat\s+i\s+eat\s+(?:in\s+)?(?:a\s+)?day\b`), "compilation: 'what I eat in a day'"},
	{regexp.MustCompile(`(?i)\b\d+\s*recipes?\b`), "compilation: numbered recipe list"},
	{regexp.MustCompile(`(?i)\b\d+\s*meals?\b.*\b(?:prep|for\s+the\s+week)\b`), "compilation: meals for the week"},
	{regexp.MustCompile(`(?i)\beverything\s+i\s+ate\b`), "compilation: 'everything I ate'"},
	{regexp.MustCompile(`(?i)\b24\s*hours?\s+(?:of\s+)?eating\b`), "compilation: '24 hours of eating'"},
	{regexp.MustCompile(`(?i)\b(?:multiple|various|several)\s+(?:recipes?|meals?|dishes?)\b`), "compilation: multiple recipes"},
	{regexp.MustCompile(`(?i)\b(?:first|second|third|fourth|fifth)\s+recipe\b`), "compilation: numbered recipe list"},
	{regexp.MustCompile(`(?i)\brecipe\s+(?:one|two|three|four|five)\b`), "compilation: numbered recipe list"},
	{regexp.MustCompile(`(?i)\bmeal\s+prep\s+(?:for\s+)?(?:the\s+)?week\b`), "compilation: meal prep for the week"},
	{regexp.MustCompile(`(?i)\bweekly\s+meal\s+prep\b`), "compilation: weekly meal prep"},
	{regexp.MustCompile(`(?i)\brecipe\s+compilation\b`), "compilation: recipe compilation"},
}

// noiseTerms flag ingredient/step text that is transcript garbage rather
// than recipe content.
var noiseTerms = []string{"watch", "video", "subscribe", "link"}

// Gate enforces the hard admission requirements on extracted recipes.
type Gate struct {
	// MacroMathTolerance is the allowed relative gap between reported
	// calories and calories computed from macros (4/4/9 kcal per gram).
	MacroMathTolerance float64
}

// NewGate returns a gate with the given macro-math tolerance
// (0.5 = computed calories may differ from reported by up to 50%).
func NewGate(macroMathTolerance float64) *Gate {
	return &Gate{MacroMathTolerance: macroMathTolerance}
}

// Validate runs all hard checks in order; the first failure wins.
func (g *Gate) Validate(r *domain.Recipe) Result {
	if res, ok := g.checkMacros(r); !ok {
		return res
	}
	if res, ok := g.checkIngredients(r); !ok {
		return res
	}
	if res, ok := g.checkSteps(r); !ok {
		return res
	}
	if res, ok := g.checkURLs(r); !ok {
		return res
	}
	if res, ok := g.checkCompilation(r); !ok {
		return res
	}
	if res, ok := g.checkMacroMath(r); !ok {
		return res
	}

	result := Result{
		Valid: true,
		Details: map[string]string{
			"ingredient_count": fmt.Sprintf("%d", len(r.Ingredients)),
			"step_count":       fmt.Sprintf("%d", len(r.Steps)),
		},
	}
	// Soft signals recovered on a passing recipe.
	if len(r.Title) < 10 {
		result.Warnings = append(result.Warnings, "title is very short")
	}
	if len(r.Ingredients) > 20 {
		result.Warnings = append(result.Warnings, "unusually high ingredient count")
	}
	return result
}

// checkMacros requires all four macros present and numerically valid:
// calories > 0, protein/carbs/fat >= 0. Missing or invalid macros are
// enumerated by name in the rejection reason.
func (g *Gate) checkMacros(r *domain.Recipe) (Result, bool) {
	var missing []string

	n := r.Nutrition
	if n == nil || n.Calories == nil || *n.Calories <= 0 {
		missing = append(missing, "calories")
	}
	if n == nil || n.ProteinG == nil || *n.ProteinG < 0 {
		missing = append(missing, "protein")
	}
	if n == nil || n.CarbsG == nil || *n.CarbsG < 0 {
		missing = append(missing, "carbs")
	}
	if n == nil || n.FatG == nil || *n.FatG < 0 {
		missing = append(missing, "fat")
	}

	if len(missing) > 0 {
		return reject(
			fmt.Sprintf("missing/invalid macros: %s", strings.Join(missing, ", ")),
			map[string]string{"missing_macros": strings.Join(missing, ",")},
		), false
	}
	return Result{}, true
}

func (g *Gate) checkIngredients(r *domain.Recipe) (Result, bool) {
	if len(r.Ingredients) < 3 {
		return reject(
			fmt.Sprintf("too few ingredients: %d (need 3+)", len(r.Ingredients)),
			map[string]string{"ingredient_count": fmt.Sprintf("%d", len(r.Ingredients))},
		), false
	}
	clean := 0
	for _, ing := range r.Ingredients {
		text := strings.TrimSpace(ing)
		if len(text) <= 2 {
			continue
		}
		if containsNoise(text) {
			return reject(
				fmt.Sprintf("ingredient looks like transcript noise: %q", truncate(text, 50)),
				nil,
			), false
		}
		clean++
	}
	if clean < 3 {
		return reject("ingredients appear to be transcript noise", nil), false
	}
	return Result{}, true
}

func (g *Gate) checkSteps(r *domain.Recipe) (Result, bool) {
	if len(r.Steps) < 3 {
		return reject(
			fmt.Sprintf("too few steps: %d (need 3+)", len(r.Steps)),
			map[string]string{"step_count": fmt.Sprintf("%d", len(r.Steps))},
		), false
	}
	clean := 0
	for _, step := range r.Steps {
		text := strings.TrimSpace(step)
		if len(text) <= 10 {
			continue
		}
		if containsNoise(text) {
			return reject(
				fmt.Sprintf("step looks like transcript noise: %q", truncate(text, 50)),
				nil,
			), false
		}
		clean++
	}
	if clean < 3 {
		return reject("steps appear to be auto-generated noise", nil), false
	}
	return Result{}, true
}

func (g *Gate) checkURLs(r *domain.Recipe) (Result, bool) {
	if !validHTTPURL(r.SourceURL) {
		return reject(
			fmt.Sprintf("missing or invalid source url: %q", truncate(r.SourceURL, 50)),
			nil,
		), false
	}
	if !validHTTPURL(r.ThumbnailURL) {
		return reject(
			fmt.Sprintf("missing or invalid thumbnail url: %q", truncate(r.ThumbnailURL, 50)),
			nil,
		), false
	}
	return Result{}, true
}

func (g *Gate) checkCompilation(r *domain.Recipe) (Result, bool) {
	text := r.Title + " " + r.Description
	for _, p := range compilationPatterns {
		if p.re.MatchString(text) {
			return reject(p.reason, map[string]string{"pattern": p.re.String()}), false
		}
	}
	return Result{}, true
}

// checkMacroMath catches garbled extraction where macros were misread:
// protein and carbs contribute 4 kcal/g, fat 9 kcal/g, and the computed
// total must land within the tolerance of the reported calories.
func (g *Gate) checkMacroMath(r *domain.Recipe) (Result, bool) {
	n := r.Nutrition
	calories := float64(*n.Calories)
	computed := *n.ProteinG*4 + *n.CarbsG*4 + *n.FatG*9

	if math.Abs(computed-calories) > calories*g.MacroMathTolerance {
		return reject(
			fmt.Sprintf("macro math doesn't add up: %.0f kcal reported vs %.0f computed", calories, computed),
			map[string]string{
				"reported": fmt.Sprintf("%.0f", calories),
				"computed": fmt.Sprintf("%.0f", computed),
			},
		), false
	}
	return Result{}, true
}

func reject(reason string, details map[string]string) Result {
	return Result{Valid: false, Reason: reason, Details: details}
}

func containsNoise(text string) bool {
	lower := strings.ToLower(text)
	for _, term := range noiseTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

func validHTTPURL(u string) bool {
	return strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
