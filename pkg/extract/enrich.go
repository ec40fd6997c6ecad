package extract

import (
	"context"
	"fmt"
	"strings"

	"recipe-harvest/pkg/domain"
	"recipe-harvest/pkg/httpclient"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
)

// Enricher fills missing recipe metadata from the source page: og:image for
// the thumbnail, og:description for the description, with a readability
// pass as the description fallback.
type Enricher struct {
	client *httpclient.Client
}

// NewEnricher creates an enricher that fetches pages with the given client.
func NewEnricher(client *httpclient.Client) *Enricher {
	return &Enricher{client: client}
}

// Enrich fetches the recipe's source page and fills the thumbnail and
// description if they are empty. Enrichment is best-effort; the recipe is
// left unchanged on failure.
func (e *Enricher) Enrich(ctx context.Context, recipe *domain.Recipe) error {
	if recipe.ThumbnailURL != "" && recipe.Description != "" {
		return nil
	}

	req, err := httpGet(ctx, recipe.SourceURL)
	if err != nil {
		return fmt.Errorf("enrich %s: %w", recipe.SourceURL, err)
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("enrich %s: %w", recipe.SourceURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return fmt.Errorf("enrich %s: unexpected status %d", recipe.SourceURL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return fmt.Errorf("enrich %s: parse HTML: %w", recipe.SourceURL, err)
	}

	if recipe.ThumbnailURL == "" {
		if img, exists := doc.Find("meta[property='og:image']").Attr("content"); exists && strings.TrimSpace(img) != "" {
			recipe.ThumbnailURL = strings.TrimSpace(img)
		}
	}

	if recipe.Description == "" {
		if desc, exists := doc.Find("meta[property='og:description']").Attr("content"); exists && strings.TrimSpace(desc) != "" {
			recipe.Description = truncate(strings.TrimSpace(desc), maxDescription)
		}
	}

	// Fallback: readability on the page body
	if recipe.Description == "" {
		html, err := doc.Html()
		if err != nil {
			return nil
		}
		article, err := readability.FromReader(strings.NewReader(html), nil)
		if err != nil {
			return nil
		}
		if text := strings.TrimSpace(article.TextContent); text != "" {
			recipe.Description = truncate(text, maxDescription)
		}
	}

	return nil
}
