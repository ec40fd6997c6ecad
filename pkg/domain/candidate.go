package domain

import (
	"fmt"
	"strings"
	"time"
)

// RawCandidate is a platform post that might contain a recipe. Discoverers
// produce it once at the discovery boundary; everything downstream works
// with this shape instead of per-platform maps.
type RawCandidate struct {
	Platform     Platform `json:"platform"`
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Description  string   `json:"description,omitempty"`
	Author       string   `json:"author,omitempty"`
	SourceURL    string   `json:"source_url"`
	ThumbnailURL string   `json:"thumbnail_url,omitempty"`
	VideoURL     string   `json:"video_url,omitempty"`

	Views    *int64 `json:"views,omitempty"`
	Likes    *int64 `json:"likes,omitempty"`
	Comments *int64 `json:"comments,omitempty"`
	Shares   *int64 `json:"shares,omitempty"`

	FollowerCount *int64     `json:"follower_count,omitempty"`
	PublishedAt   *time.Time `json:"published_at,omitempty"`
}

// Validate checks the fields every downstream stage relies on. Discoverers
// call it before emitting a candidate so malformed platform payloads stop
// at the boundary.
func (c *RawCandidate) Validate() error {
	if !c.Platform.Valid() {
		return fmt.Errorf("unknown platform %q", c.Platform)
	}
	if c.ID == "" {
		return fmt.Errorf("candidate missing id")
	}
	if strings.TrimSpace(c.Title) == "" {
		return fmt.Errorf("candidate %s missing title", c.ID)
	}
	if !strings.HasPrefix(c.SourceURL, "http://") && !strings.HasPrefix(c.SourceURL, "https://") {
		return fmt.Errorf("candidate %s has invalid source url %q", c.ID, c.SourceURL)
	}
	return nil
}
