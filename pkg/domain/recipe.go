package domain

import "time"

// Platform identifies the social platform a recipe was harvested from.
type Platform string

const (
	PlatformTikTok    Platform = "tiktok"
	PlatformInstagram Platform = "instagram"
	PlatformYouTube   Platform = "youtube"
	PlatformReddit    Platform = "reddit"
)

// KnownPlatforms lists every platform the pipeline can harvest from.
var KnownPlatforms = []Platform{
	PlatformTikTok,
	PlatformInstagram,
	PlatformYouTube,
	PlatformReddit,
}

// Valid reports whether p is one of the known platforms.
func (p Platform) Valid() bool {
	switch p {
	case PlatformTikTok, PlatformInstagram, PlatformYouTube, PlatformReddit:
		return true
	}
	return false
}

// Nutrition holds per-recipe macro data. Each macro is a pointer so an
// extractor can report "not found" per field; downstream scoring treats a
// recipe as nutritionally complete only when all four macros are present.
type Nutrition struct {
	Calories *int     `bson:"calories,omitempty" json:"calories,omitempty"`
	ProteinG *float64 `bson:"protein_g,omitempty" json:"protein_g,omitempty"`
	CarbsG   *float64 `bson:"carbs_g,omitempty" json:"carbs_g,omitempty"`
	FatG     *float64 `bson:"fat_g,omitempty" json:"fat_g,omitempty"`
	FiberG   *float64 `bson:"fiber_g,omitempty" json:"fiber_g,omitempty"`
	SugarG   *float64 `bson:"sugar_g,omitempty" json:"sugar_g,omitempty"`
	Servings int      `bson:"servings" json:"servings"`
}

// Complete reports whether all four macros are present.
func (n *Nutrition) Complete() bool {
	return n != nil && n.Calories != nil && n.ProteinG != nil &&
		n.CarbsG != nil && n.FatG != nil
}

// Creator is the account a recipe was published by.
type Creator struct {
	Username      string   `bson:"username" json:"username"`
	DisplayName   string   `bson:"display_name,omitempty" json:"display_name,omitempty"`
	Platform      Platform `bson:"platform" json:"platform"`
	ProfileURL    string   `bson:"profile_url,omitempty" json:"profile_url,omitempty"`
	FollowerCount *int64   `bson:"follower_count,omitempty" json:"follower_count,omitempty"`
}

// Engagement carries the source platform's engagement counters. All fields
// are pointers so that "metric not exposed by this platform" and "zero" stay
// distinguishable.
type Engagement struct {
	Views    *int64 `bson:"views,omitempty" json:"views,omitempty"`
	Likes    *int64 `bson:"likes,omitempty" json:"likes,omitempty"`
	Comments *int64 `bson:"comments,omitempty" json:"comments,omitempty"`
	Shares   *int64 `bson:"shares,omitempty" json:"shares,omitempty"`
	Saves    *int64 `bson:"saves,omitempty" json:"saves,omitempty"`
}

// Any reports whether at least one engagement metric is present.
func (e Engagement) Any() bool {
	return e.Views != nil || e.Likes != nil || e.Comments != nil ||
		e.Shares != nil || e.Saves != nil
}

// Recipe is a structured recipe extracted from a platform post.
// SourceURL is the canonical identity key: stored recipes are unique per
// SourceURL and storage upserts on it.
type Recipe struct {
	Title        string   `bson:"title" json:"title"`
	Description  string   `bson:"description,omitempty" json:"description,omitempty"`
	Creator      Creator  `bson:"creator" json:"creator"`
	Platform     Platform `bson:"platform" json:"platform"`
	SourceURL    string   `bson:"source_url" json:"source_url"`
	ThumbnailURL string   `bson:"thumbnail_url,omitempty" json:"thumbnail_url,omitempty"`
	VideoURL     string   `bson:"video_url,omitempty" json:"video_url,omitempty"`

	Ingredients []string   `bson:"ingredients" json:"ingredients"`
	Steps       []string   `bson:"steps" json:"steps"`
	Nutrition   *Nutrition `bson:"nutrition,omitempty" json:"nutrition,omitempty"`

	Engagement Engagement `bson:"engagement" json:"engagement"`

	Tags            []string `bson:"tags,omitempty" json:"tags,omitempty"`
	CookTimeMinutes *int     `bson:"cook_time_minutes,omitempty" json:"cook_time_minutes,omitempty"`
	ViralScore      float64  `bson:"viral_score" json:"viral_score"`

	ScrapedAt   time.Time  `bson:"scraped_at" json:"scraped_at"`
	PublishedAt *time.Time `bson:"published_at,omitempty" json:"published_at,omitempty"`
}
