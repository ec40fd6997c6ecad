package extract

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"recipe-harvest/pkg/domain"
)

// Nutrition figures stated in post text.
var (
	caloriePattern = regexp.MustCompile(`(?i)(\d{2,4})\s*(?:cal(?:ories?)?|kcal)\b`)
	proteinPattern = regexp.MustCompile(`(?i)(\d{1,3})\.?\d*\s*g?\s*(?:of\s+)?protein`)
	carbPattern    = regexp.MustCompile(`(?i)(\d{1,3})\.?\d*\s*g?\s*(?:of\s+)?carb`)
	fatPattern     = regexp.MustCompile(`(?i)(\d{1,3})\.?\d*\s*g?\s*(?:of\s+)?fat`)
	servingPattern = regexp.MustCompile(`(?i)(?:serves?|servings?|makes?)\s*:?\s*(\d+)`)
)

var (
	bulletPrefix = regexp.MustCompile(`^[\-\*•]\s*`)
	numberedStep = regexp.MustCompile(`^\d+[\.\)]\s*(.*)`)
	quantityHint = regexp.MustCompile(`(?i)\d+\s*(?:g|oz|cup|tbsp|tsp|ml|lb|can|kg|piece|slice)`)
	foodWordHint = regexp.MustCompile(`chicken|beef|pork|salmon|tuna|tofu|egg|rice|pasta|bread|cheese|yogurt|` +
		`butter|oil|onion|garlic|pepper|salt|sugar|flour|milk|cream|broccoli|` +
		`spinach|tomato|potato|bean|lentil|oat|avocado|banana|berry|apple|` +
		`sauce|powder|spice|vinegar|lemon|lime|honey|maple|cocoa|protein|` +
		`squash|cottage|mozzarella|cheddar|lettuce|cucumber|carrot|celery`)
)

// Instructions tend to start with verbs; lines doing so are not ingredients.
var instructionStarts = []string{
	"place", "cook", "bake", "mix", "stir", "heat", "add", "pour",
	"combine", "serve", "let", "remove", "slice", "chop", "preheat",
	"set", "put", "bring", "fold", "whisk", "cover", "turn",
	"to bake", "to cook",
}

var ingredientHeaders = []string{"ingredient", "what you need", "you'll need", "shopping list"}
var stepHeaders = []string{"instruction", "direction", "step", "method", "how to"}

const (
	maxIngredients = 20
	maxSteps       = 15
	maxTags        = 5
	maxDescription = 500
)

// tagRules map inferred tags to the content keywords that trigger them,
// in fixed priority order.
var tagRules = []struct {
	tag      string
	keywords []string
}{
	{"high-protein", []string{"high protein", "protein", "anabolic"}},
	{"low-cal", []string{"low cal", "1200", "1500", "deficit", "low calorie"}},
	{"keto", []string{"keto", "low carb"}},
	{"vegan", []string{"vegan", "plant based", "plant-based"}},
	{"gluten-free", []string{"gluten free", "gluten-free", "celiac"}},
	{"quick", []string{"quick", "15 min", "20 min", "easy", "simple", "fast"}},
	{"meal-prep", []string{"meal prep", "prep", "batch cook"}},
	{"breakfast", []string{"breakfast", "morning", "oats", "smoothie"}},
	{"lunch", []string{"lunch", "midday"}},
	{"dinner", []string{"dinner", "supper", "evening"}},
	{"snack", []string{"snack", "bite"}},
	{"dessert", []string{"dessert", "sweet", "treat"}},
}

// LocalExtractor parses structured posts with regex heuristics instead of
// AI calls. Many recipe subreddits follow predictable formats that a
// section-and-bullet scan handles well.
type LocalExtractor struct{}

// NewLocalExtractor creates the heuristic extractor.
func NewLocalExtractor() *LocalExtractor {
	return &LocalExtractor{}
}

// Extract parses the candidate's title and body. Returns (nil, nil) when
// the text has no recipe-like content at all.
func (e *LocalExtractor) Extract(ctx context.Context, candidate domain.RawCandidate) (*domain.Recipe, error) {
	text := candidate.Title + "\n" + candidate.Description

	calories := extractInt(caloriePattern, text)
	protein := extractFloat(proteinPattern, text)
	carbs := extractFloat(carbPattern, text)
	fat := extractFloat(fatPattern, text)

	servings := 1
	if s := extractInt(servingPattern, text); s != nil {
		servings = *s
	}

	ingredients := extractIngredients(candidate.Description)
	steps := extractSteps(candidate.Description)

	var nutrition *domain.Nutrition
	if calories != nil || protein != nil {
		nutrition = &domain.Nutrition{
			Calories: calories,
			ProteinG: protein,
			CarbsG:   carbs,
			FatG:     fat,
			Servings: servings,
		}
	}

	if len(ingredients) == 0 && len(steps) == 0 && nutrition == nil {
		return nil, nil
	}

	recipe := recipeBase(candidate)
	recipe.Title = decodeEntities(candidate.Title)
	recipe.Description = truncate(candidate.Description, maxDescription)
	recipe.Ingredients = ingredients
	recipe.Steps = steps
	recipe.Nutrition = nutrition
	recipe.Tags = inferTags(candidate.Title, candidate.Description)
	return recipe, nil
}

func extractInt(pattern *regexp.Regexp, text string) *int {
	m := pattern.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return &n
}

func extractFloat(pattern *regexp.Regexp, text string) *float64 {
	m := pattern.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	f, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil
	}
	return &f
}

// looksLikeIngredient separates ingredient lines from instructions.
func looksLikeIngredient(line string) bool {
	lower := strings.ToLower(strings.TrimSpace(line))
	for _, verb := range instructionStarts {
		if strings.HasPrefix(lower, verb+" ") {
			return false
		}
	}
	// Too long is probably an instruction
	if len(line) > 80 {
		return false
	}
	return quantityHint.MatchString(lower) || foodWordHint.MatchString(lower)
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// unescapeMarkdown undoes Reddit's markdown escaping of list bullets.
func unescapeMarkdown(s string) string {
	s = strings.ReplaceAll(s, `\-`, "-")
	s = strings.ReplaceAll(s, `\*`, "*")
	return s
}

func extractIngredients(text string) []string {
	var ingredients []string
	lines := strings.Split(text, "\n")

	// Strategy 1: lines inside an explicit ingredients section.
	inSection := false
	for _, line := range lines {
		stripped := unescapeMarkdown(strings.TrimSpace(line))
		lower := strings.ToLower(stripped)

		if containsAny(lower, ingredientHeaders) {
			inSection = true
			continue
		}
		if inSection && containsAny(lower, stepHeaders) {
			inSection = false
			continue
		}

		if inSection && stripped != "" {
			clean := strings.TrimSpace(bulletPrefix.ReplaceAllString(stripped, ""))
			if len(clean) > 2 && looksLikeIngredient(clean) {
				ingredients = append(ingredients, clean)
			}
		}
	}

	// Strategy 2: no section found, scan all bullet lines.
	if len(ingredients) == 0 {
		for _, line := range lines {
			stripped := unescapeMarkdown(strings.TrimSpace(line))
			if !bulletPrefix.MatchString(stripped) {
				continue
			}
			clean := strings.TrimSpace(bulletPrefix.ReplaceAllString(stripped, ""))
			if len(clean) > 2 && looksLikeIngredient(clean) {
				ingredients = append(ingredients, clean)
			}
		}
	}

	if len(ingredients) > maxIngredients {
		ingredients = ingredients[:maxIngredients]
	}
	return ingredients
}

func extractSteps(text string) []string {
	var steps []string
	lines := strings.Split(text, "\n")

	inSection := false
	for _, line := range lines {
		stripped := strings.TrimSpace(line)
		lower := strings.ToLower(stripped)

		if containsAny(lower, stepHeaders) {
			inSection = true
			continue
		}

		if inSection && stripped != "" {
			if m := numberedStep.FindStringSubmatch(stripped); m != nil {
				steps = append(steps, strings.TrimSpace(m[1]))
			} else if bulletPrefix.MatchString(stripped) {
				clean := bulletPrefix.ReplaceAllString(stripped, "")
				if len(clean) > 10 {
					steps = append(steps, clean)
				}
			}
		}
	}

	if len(steps) > maxSteps {
		steps = steps[:maxSteps]
	}
	return steps
}

func inferTags(title, text string) []string {
	combined := strings.ToLower(title + " " + text)
	var tags []string
	for _, rule := range tagRules {
		if containsAny(combined, rule.keywords) {
			tags = append(tags, rule.tag)
			if len(tags) == maxTags {
				break
			}
		}
	}
	return tags
}
