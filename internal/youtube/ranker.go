package youtube

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sakif/learnloop/internal/model"
)

// DefaultMaxResults is how many raw search results the ranker pulls before
// re-scoring.
const DefaultMaxResults = 5

// topCandidates caps the ranked output length.
const topCandidates = 3

// Ranker turns a topic into an engagement-ordered candidate list.
//
// The search API's relevance ordering is only a pre-filter; the final order
// is decided here by engagement score, so the same collaborator responses
// always produce the same ranking.
type Ranker struct {
	api SearchAPI
}

// NewRanker creates a Ranker over the given search collaborator.
func NewRanker(api SearchAPI) *Ranker {
	return &Ranker{api: api}
}

// Rank searches for tutorial videos on topic and returns at most three
// candidates ordered by descending engagement score.
//
// An empty result is a valid outcome, distinct from failure: it means the
// search worked but nothing suitable exists. Errors mean the collaborator
// itself was unusable (no credential, non-success status, timeout).
func (r *Ranker) Rank(ctx context.Context, topic, language string, maxResults int) ([]model.VideoCandidate, error) {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	results, err := r.api.Search(ctx, BuildQuery(topic, language), maxResults)
	if err != nil {
		return nil, fmt.Errorf("youtube: searching for %q: %w", topic, err)
	}
	if len(results) == 0 {
		return []model.VideoCandidate{}, nil
	}

	ids := make([]string, len(results))
	for i, res := range results {
		ids[i] = res.VideoID
	}

	stats, err := r.api.Stats(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("youtube: fetching statistics: %w", err)
	}

	candidates := make([]model.VideoCandidate, 0, len(results))
	for _, res := range results {
		st := stats[res.VideoID] // zero stats when the lookup omitted the id
		candidates = append(candidates, model.VideoCandidate{
			VideoID:         res.VideoID,
			Title:           res.Title,
			Duration:        st.Duration,
			ViewCount:       st.ViewCount,
			ChannelName:     res.ChannelName,
			ThumbnailURL:    res.ThumbnailURL,
			EngagementScore: EngagementScore(st.LikeCount, st.ViewCount),
		})
	}

	// Stable sort keeps the relevance pre-order for equal scores.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].EngagementScore > candidates[j].EngagementScore
	})

	if len(candidates) > topCandidates {
		candidates = candidates[:topCandidates]
	}
	return candidates, nil
}

// BuildQuery composes the search query: the topic plus "tutorial", with the
// language spelled out for everything except English.
func BuildQuery(topic, language string) string {
	query := topic + " tutorial"
	if language != "" && !strings.EqualFold(language, "english") {
		query += " " + language + " language"
	}
	return query
}

// EngagementScore computes likes / max(views, 1) * 100. A video nobody has
// watched scores zero, not a division error.
func EngagementScore(likes, views int64) float64 {
	if views <= 0 {
		return 0
	}
	return float64(likes) / float64(views) * 100
}
