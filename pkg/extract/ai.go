package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"recipe-harvest/pkg/domain"
)

const (
	defaultMessagesEndpoint = "https://api.anthropic.com/v1/messages"
	defaultModel            = "claude-sonnet-4-20250514"
	anthropicVersion        = "2023-06-01"
)

const extractionPrompt = `You are a recipe extraction assistant for a healthy recipe app.

Given the following raw post data from %s, extract a structured recipe.

Raw data:
` + "```json\n%s\n```" + `

Extract and return a JSON object with these fields:
- title: Recipe title (clean, appealing)
- description: 1-2 sentence description
- ingredients: Array of {name, quantity} objects
- steps: Array of step strings (numbered instructions)
- nutrition: {calories, protein_g, carbs_g, fat_g, servings}; estimate from ingredients if not stated
- tags: Array of relevant tags from: ["high-protein", "low-cal", "keto", "vegan", "gluten-free", "quick", "meal-prep", "dessert", "breakfast", "lunch", "dinner", "snack"]
- cook_time_minutes: estimated cook time

If the post doesn't contain a recipe, return {"is_recipe": false}.
Be accurate with nutrition estimates. When in doubt, overestimate calories.

Return ONLY valid JSON, no markdown.`

// AIOption configures the AIExtractor.
type AIOption func(*AIExtractor)

// WithModel overrides the default model name.
func WithModel(model string) AIOption {
	return func(e *AIExtractor) { e.model = model }
}

// WithMaxTokens sets the response token limit.
func WithMaxTokens(n int) AIOption {
	return func(e *AIExtractor) { e.maxTokens = n }
}

// WithEndpoint overrides the messages endpoint URL.
func WithEndpoint(endpoint string) AIOption {
	return func(e *AIExtractor) { e.endpoint = endpoint }
}

// WithHTTPTimeout sets the HTTP client timeout.
func WithHTTPTimeout(d time.Duration) AIOption {
	return func(e *AIExtractor) { e.http.Timeout = d }
}

// AIExtractor extracts recipes by prompting a messages-API model for strict
// JSON and decoding the reply into the recipe shape.
type AIExtractor struct {
	endpoint  string
	apiKey    string
	model     string
	maxTokens int
	http      *http.Client
}

// NewAIExtractor creates an extractor against the Anthropic messages API.
func NewAIExtractor(apiKey string, opts ...AIOption) *AIExtractor {
	e := &AIExtractor{
		endpoint:  defaultMessagesEndpoint,
		apiKey:    apiKey,
		model:     defaultModel,
		maxTokens: 2000,
		http:      &http.Client{Timeout: 60 * time.Second},
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Wire types for the messages API.
type messagesPayload struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	Messages  []promptMessage `json:"messages"`
}

type promptMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// aiRecipe is the JSON shape the prompt asks the model to return.
type aiRecipe struct {
	IsRecipe    *bool  `json:"is_recipe,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Ingredients []struct {
		Name     string `json:"name"`
		Quantity string `json:"quantity"`
	} `json:"ingredients"`
	Steps     []string `json:"steps"`
	Nutrition *struct {
		Calories *int     `json:"calories"`
		ProteinG *float64 `json:"protein_g"`
		CarbsG   *float64 `json:"carbs_g"`
		FatG     *float64 `json:"fat_g"`
		Servings int      `json:"servings"`
	} `json:"nutrition"`
	Tags            []string `json:"tags"`
	CookTimeMinutes *int     `json:"cook_time_minutes"`
}

// Extract prompts the model with the candidate payload and decodes the JSON
// reply. Returns (nil, nil) when the model reports the post is not a recipe.
func (e *AIExtractor) Extract(ctx context.Context, candidate domain.RawCandidate) (*domain.Recipe, error) {
	rawData, err := json.MarshalIndent(candidate, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal candidate %s: %w", candidate.ID, err)
	}

	reply, err := e.complete(ctx, fmt.Sprintf(extractionPrompt, candidate.Platform, rawData))
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", candidate.SourceURL, err)
	}

	var parsed aiRecipe
	if err := json.Unmarshal([]byte(stripCodeFences(reply)), &parsed); err != nil {
		return nil, fmt.Errorf("extract %s: decode model reply: %w", candidate.SourceURL, err)
	}

	if parsed.IsRecipe != nil && !*parsed.IsRecipe {
		log.Printf("Extraction: not a recipe: %.50s", candidate.Title)
		return nil, nil
	}

	recipe := recipeBase(candidate)
	recipe.Title = parsed.Title
	if recipe.Title == "" {
		recipe.Title = decodeEntities(candidate.Title)
	}
	recipe.Description = parsed.Description
	for _, ing := range parsed.Ingredients {
		recipe.Ingredients = append(recipe.Ingredients, strings.TrimSpace(ing.Quantity+" "+ing.Name))
	}
	recipe.Steps = parsed.Steps
	if n := parsed.Nutrition; n != nil {
		servings := n.Servings
		if servings < 1 {
			servings = 1
		}
		recipe.Nutrition = &domain.Nutrition{
			Calories: n.Calories,
			ProteinG: n.ProteinG,
			CarbsG:   n.CarbsG,
			FatG:     n.FatG,
			Servings: servings,
		}
	}
	recipe.Tags = parsed.Tags
	recipe.CookTimeMinutes = parsed.CookTimeMinutes
	return recipe, nil
}

// complete sends one user message and returns the model's text reply.
func (e *AIExtractor) complete(ctx context.Context, prompt string) (string, error) {
	body := messagesPayload{
		Model:     e.model,
		MaxTokens: e.maxTokens,
		Messages:  []promptMessage{{Role: "user", Content: prompt}},
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", e.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := e.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API %s: %s", resp.Status, respBody)
	}

	var result messagesResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	for _, block := range result.Content {
		if block.Type == "text" {
			return strings.TrimSpace(block.Text), nil
		}
	}
	return "", fmt.Errorf("empty response (no text content)")
}

// stripCodeFences removes a surrounding markdown code fence if the model
// added one despite the prompt.
func stripCodeFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if idx := strings.Index(s, "\n"); idx >= 0 {
		s = s[idx+1:]
	}
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
