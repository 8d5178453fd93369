// Package youtube finds and ranks instructional video candidates.
//
// The Data API split mirrors how the API itself is shaped: /search returns
// snippets in relevance order but no statistics, so a second /videos call
// fetches view counts, like counts and durations for the returned ids.
package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sakif/learnloop/internal/apperror"
)

// SearchResult is one item from the search endpoint, in the API's own
// relevance order.
type SearchResult struct {
	VideoID      string
	Title        string
	ChannelName  string
	ThumbnailURL string
}

// VideoStats is the statistics record for one video.
type VideoStats struct {
	ViewCount int64
	LikeCount int64
	Duration  string // ISO-8601 code, e.g. "PT7M12S"
}

// SearchAPI is the video-search collaborator contract the ranker depends
// on. Tests substitute a fake; Client is the real Data API v3 binding.
type SearchAPI interface {
	Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error)
	Stats(ctx context.Context, videoIDs []string) (map[string]VideoStats, error)
}

const apiBase = "https://www.googleapis.com/youtube/v3"

// Client calls the YouTube Data API v3 over plain HTTP.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

var _ SearchAPI = (*Client)(nil)

// NewClient creates a Client. An empty apiKey is allowed at construction;
// calls will fail with Unavailable until one is configured.
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: apiBase,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// Search queries the search endpoint restricted to medium-length videos
// (4-20 minutes) in the API's relevance order. Relevance here is only a
// pre-filter; the ranker re-orders by engagement.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error) {
	if c.apiKey == "" {
		return nil, apperror.Unavailable("youtube", "api key not configured")
	}

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("q", query)
	params.Set("type", "video")
	params.Set("maxResults", strconv.Itoa(maxResults))
	params.Set("order", "relevance")
	params.Set("videoDuration", "medium")
	params.Set("key", c.apiKey)

	var payload struct {
		Items []struct {
			ID struct {
				VideoID string `json:"videoId"`
			} `json:"id"`
			Snippet struct {
				Title        string `json:"title"`
				ChannelTitle string `json:"channelTitle"`
				Thumbnails   struct {
					Medium struct {
						URL string `json:"url"`
					} `json:"medium"`
				} `json:"thumbnails"`
			} `json:"snippet"`
		} `json:"items"`
	}
	if err := c.get(ctx, "/search", params, &payload); err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(payload.Items))
	for _, item := range payload.Items {
		if item.ID.VideoID == "" {
			continue
		}
		results = append(results, SearchResult{
			VideoID:      item.ID.VideoID,
			Title:        item.Snippet.Title,
			ChannelName:  item.Snippet.ChannelTitle,
			ThumbnailURL: item.Snippet.Thumbnails.Medium.URL,
		})
	}
	return results, nil
}

// Stats fetches statistics and duration for the given ids in one call.
// Videos the API omits are simply absent from the map.
func (c *Client) Stats(ctx context.Context, videoIDs []string) (map[string]VideoStats, error) {
	if c.apiKey == "" {
		return nil, apperror.Unavailable("youtube", "api key not configured")
	}
	if len(videoIDs) == 0 {
		return map[string]VideoStats{}, nil
	}

	params := url.Values{}
	params.Set("part", "statistics,contentDetails")
	params.Set("id", strings.Join(videoIDs, ","))
	params.Set("key", c.apiKey)

	var payload struct {
		Items []struct {
			ID         string `json:"id"`
			Statistics struct {
				ViewCount string `json:"viewCount"`
				LikeCount string `json:"likeCount"`
			} `json:"statistics"`
			ContentDetails struct {
				Duration string `json:"duration"`
			} `json:"contentDetails"`
		} `json:"items"`
	}
	if err := c.get(ctx, "/videos", params, &payload); err != nil {
		return nil, err
	}

	stats := make(map[string]VideoStats, len(payload.Items))
	for _, item := range payload.Items {
		// The API serializes counters as strings; absent or malformed
		// counts become zero.
		views, _ := strconv.ParseInt(item.Statistics.ViewCount, 10, 64)
		likes, _ := strconv.ParseInt(item.Statistics.LikeCount, 10, 64)
		stats[item.ID] = VideoStats{
			ViewCount: views,
			LikeCount: likes,
			Duration:  item.ContentDetails.Duration,
		}
	}
	return stats, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("youtube: building request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return apperror.Unavailable("youtube", err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apperror.Unavailable("youtube", fmt.Sprintf("api returned status %d", resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("youtube: decoding response: %w", err)
	}
	return nil
}
