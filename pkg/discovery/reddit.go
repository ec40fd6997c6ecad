package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"recipe-harvest/pkg/domain"
	"recipe-harvest/pkg/httpclient"
)

// defaultSubreddits are recipe subreddits ranked by relevance. The public
// JSON listing of each is fetched in order until the limit is reached.
var defaultSubreddits = []string{
	"fitmeals",
	"mealprep",
	"MealPrepSunday",
	"EatCheapAndHealthy",
	"1200isplenty",
	"1500isplenty",
	"Volumeeating",
	"HealthyFood",
	"ketorecipes",
	"veganfitness",
	"veganrecipes",
	"GifRecipes",
	"recipes",
	"Cooking",
}

const (
	redditBaseURL = "https://www.reddit.com"

	// Unauthenticated requests are limited to roughly 30 per minute, so
	// successive listing fetches are paced apart.
	redditRequestPause = 2 * time.Second

	// Self posts shorter than this are almost always an image with no
	// recipe text.
	minSelfTextLen = 50

	// Posts below this score are skipped as too low-engagement to rank.
	minPostScore = 5
)

// RedditPublic discovers recipe posts through Reddit's public .json
// listings. No API key is required.
type RedditPublic struct {
	client     *httpclient.Client
	baseURL    string
	subreddits []string
	pause      time.Duration
}

// NewRedditPublic creates a Reddit discoverer over the default recipe
// subreddits.
func NewRedditPublic(client *httpclient.Client) *RedditPublic {
	return &RedditPublic{
		client:     client,
		baseURL:    redditBaseURL,
		subreddits: defaultSubreddits,
		pause:      redditRequestPause,
	}
}

func (r *RedditPublic) Platform() domain.Platform {
	return domain.PlatformReddit
}

// redditListing mirrors the subset of Reddit's listing payload the
// discoverer reads.
type redditListing struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	SelfText    string  `json:"selftext"`
	Author      string  `json:"author"`
	Permalink   string  `json:"permalink"`
	Thumbnail   string  `json:"thumbnail"`
	Ups         int64   `json:"ups"`
	NumComments int64   `json:"num_comments"`
	Score       int64   `json:"score"`
	IsSelf      bool    `json:"is_self"`
	CreatedUTC  float64 `json:"created_utc"`
	Preview     struct {
		Images []struct {
			Source struct {
				URL string `json:"url"`
			} `json:"source"`
		} `json:"images"`
	} `json:"preview"`
}

// Discover fetches hot and weekly-top listings from each subreddit until
// limit candidates are collected. A failing subreddit is logged and skipped
// so one bad listing does not lose the rest.
func (r *RedditPublic) Discover(ctx context.Context, limit int) ([]domain.RawCandidate, error) {
	seen := make(map[string]bool)
	var candidates []domain.RawCandidate
	requests := 0

	for _, sub := range r.subreddits {
		if len(candidates) >= limit {
			break
		}

		for _, sort := range []string{"hot", "top"} {
			if len(candidates) >= limit {
				break
			}

			if requests > 0 {
				select {
				case <-ctx.Done():
					return candidates, ctx.Err()
				case <-time.After(r.pause):
				}
			}
			requests++

			listing, err := r.fetchListing(ctx, sub, sort)
			if err != nil {
				log.Printf("Reddit: failed to fetch r/%s/%s: %v", sub, sort, err)
				continue
			}

			for _, child := range listing.Data.Children {
				if len(candidates) >= limit {
					break
				}
				post := child.Data
				if post.ID == "" || seen[post.ID] {
					continue
				}
				if !r.isRecipePost(post) {
					continue
				}

				candidate := r.toCandidate(post)
				if err := candidate.Validate(); err != nil {
					log.Printf("Reddit: skipping invalid candidate: %v", err)
					continue
				}

				seen[post.ID] = true
				candidates = append(candidates, candidate)
			}
		}
	}

	log.Printf("Reddit: discovered %d recipe posts", len(candidates))
	return candidates, nil
}

func (r *RedditPublic) fetchListing(ctx context.Context, subreddit, sort string) (*redditListing, error) {
	url := fmt.Sprintf("%s/r/%s/%s.json?limit=25", r.baseURL, subreddit, sort)
	if sort == "top" {
		url += "&t=week"
	}

	req, err := httpRequest(ctx, url)
	if err != nil {
		return nil, err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var listing redditListing
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, fmt.Errorf("decode listing: %w", err)
	}
	return &listing, nil
}

// isRecipePost checks whether a post likely contains a recipe.
func (r *RedditPublic) isRecipePost(post redditPost) bool {
	if !recipeKeywords.MatchString(post.Title + " " + post.SelfText) {
		return false
	}
	if post.IsSelf && len(post.SelfText) < minSelfTextLen {
		return false
	}
	return post.Score >= minPostScore
}

func (r *RedditPublic) toCandidate(post redditPost) domain.RawCandidate {
	thumbnail := post.Thumbnail
	if !strings.HasPrefix(thumbnail, "http") {
		thumbnail = ""
	}
	// Prefer the full-size preview image; Reddit HTML-encodes its URL.
	if len(post.Preview.Images) > 0 && post.Preview.Images[0].Source.URL != "" {
		thumbnail = strings.ReplaceAll(post.Preview.Images[0].Source.URL, "&amp;", "&")
	}

	likes := post.Ups
	comments := post.NumComments

	candidate := domain.RawCandidate{
		Platform:     domain.PlatformReddit,
		ID:           post.ID,
		Title:        post.Title,
		Description:  post.SelfText,
		Author:       post.Author,
		SourceURL:    "https://reddit.com" + post.Permalink,
		ThumbnailURL: thumbnail,
		Likes:        &likes,
		Comments:     &comments,
	}
	if post.CreatedUTC > 0 {
		published := time.Unix(int64(post.CreatedUTC), 0).UTC()
		candidate.PublishedAt = &published
	}
	return candidate
}
