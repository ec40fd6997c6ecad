package discovery

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"recipe-harvest/pkg/domain"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"
)

// defaultChannels are recipe-focused YouTube channels polled through their
// public RSS feeds. No API key is required.
var defaultChannels = []string{
	"UCekQr9znsk2vWxBo3YiLq2w", // You Suck At Cooking
	"UCJHA_jMfCvEnv-3kRjTCQXw", // Babish Culinary Universe
	"UCRIZtPl9nb9RiXc9btSTQNw", // Food Wishes
	"UChBEbMKI1eCcejTtmI32UEw", // Joshua Weissman
}

const youtubeFeedURL = "https://www.youtube.com/feeds/videos.xml?channel_id=%s"

// YouTubeRSS discovers recent uploads from recipe channels via YouTube's
// per-channel RSS feeds.
type YouTubeRSS struct {
	feedParser *gofeed.Parser
	feedURL    string
	channels   []string
}

// NewYouTubeRSS creates a YouTube discoverer over the default channel set.
func NewYouTubeRSS() *YouTubeRSS {
	return &YouTubeRSS{
		feedParser: gofeed.NewParser(),
		feedURL:    youtubeFeedURL,
		channels:   defaultChannels,
	}
}

func (y *YouTubeRSS) Platform() domain.Platform {
	return domain.PlatformYouTube
}

// Discover parses each channel feed and converts its entries into
// candidates. A failing feed is logged and skipped.
func (y *YouTubeRSS) Discover(ctx context.Context, limit int) ([]domain.RawCandidate, error) {
	seen := make(map[string]bool)
	var candidates []domain.RawCandidate

	for _, channel := range y.channels {
		if len(candidates) >= limit {
			break
		}

		feed, err := y.feedParser.ParseURLWithContext(fmt.Sprintf(y.feedURL, channel), ctx)
		if err != nil {
			log.Printf("YouTube: failed to parse feed for channel %s: %v", channel, err)
			continue
		}

		for _, item := range feed.Items {
			if len(candidates) >= limit {
				break
			}
			if item.Link == "" {
				continue
			}

			candidate := y.toCandidate(feed, item)
			if seen[candidate.ID] {
				continue
			}
			if err := candidate.Validate(); err != nil {
				log.Printf("YouTube: skipping invalid candidate: %v", err)
				continue
			}

			seen[candidate.ID] = true
			candidates = append(candidates, candidate)
		}
	}

	log.Printf("YouTube: discovered %d videos", len(candidates))
	return candidates, nil
}

func (y *YouTubeRSS) toCandidate(feed *gofeed.Feed, item *gofeed.Item) domain.RawCandidate {
	candidate := domain.RawCandidate{
		Platform:    domain.PlatformYouTube,
		ID:          videoID(item),
		Title:       item.Title,
		Description: item.Description,
		Author:      feed.Title,
		SourceURL:   item.Link,
		VideoURL:    item.Link,
	}
	if item.PublishedParsed != nil {
		published := item.PublishedParsed.UTC()
		candidate.PublishedAt = &published
	}

	// The media:group extension carries the description, thumbnail and
	// view count that the plain RSS fields lack.
	if group := firstExtension(item.Extensions, "media", "group"); group != nil {
		if desc := firstChild(group, "description"); desc != nil && candidate.Description == "" {
			candidate.Description = desc.Value
		}
		if thumb := firstChild(group, "thumbnail"); thumb != nil {
			candidate.ThumbnailURL = thumb.Attrs["url"]
		}
		if community := firstChild(group, "community"); community != nil {
			if stats := firstChild(community, "statistics"); stats != nil {
				if views, err := strconv.ParseInt(stats.Attrs["views"], 10, 64); err == nil {
					candidate.Views = &views
				}
			}
			if rating := firstChild(community, "starRating"); rating != nil {
				if likes, err := strconv.ParseInt(rating.Attrs["count"], 10, 64); err == nil {
					candidate.Likes = &likes
				}
			}
		}
	}
	return candidate
}

// videoID returns the yt:videoId extension value, falling back to the GUID.
func videoID(item *gofeed.Item) string {
	if id := firstExtension(item.Extensions, "yt", "videoId"); id != nil && id.Value != "" {
		return id.Value
	}
	return item.GUID
}

func firstExtension(exts ext.Extensions, namespace, name string) *ext.Extension {
	values, ok := exts[namespace][name]
	if !ok || len(values) == 0 {
		return nil
	}
	return &values[0]
}

func firstChild(parent *ext.Extension, name string) *ext.Extension {
	children, ok := parent.Children[name]
	if !ok || len(children) == 0 {
		return nil
	}
	return &children[0]
}
