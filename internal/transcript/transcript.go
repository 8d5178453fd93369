// Package transcript turns ranked video candidates into a single text
// corpus for lesson synthesis.
package transcript

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Fetcher is the transcript collaborator: given a video id it returns
// transcript text, or an error when none is retrievable. Implementations
// may be caption scrapers, speech-to-text services, or stubs.
type Fetcher interface {
	Fetch(ctx context.Context, videoID string) (string, error)
}

// topVideos is how many ranked candidates contribute to the corpus.
const topVideos = 2

// Aggregator fetches transcripts for the top-ranked candidates and joins
// them into one corpus. It never fails: a request where every fetch comes
// back empty yields a deterministic placeholder instead, because course
// creation must not abort over missing captions.
type Aggregator struct {
	fetcher Fetcher
	logger  *slog.Logger
}

// NewAggregator creates an Aggregator over the given collaborator.
func NewAggregator(fetcher Fetcher, logger *slog.Logger) *Aggregator {
	return &Aggregator{fetcher: fetcher, logger: logger}
}

// Aggregate fetches transcripts for the first two video ids and
// concatenates them with a single space. When nothing is retrievable the
// placeholder corpus for topic is returned.
func (a *Aggregator) Aggregate(ctx context.Context, videoIDs []string, topic string) string {
	ids := videoIDs
	if len(ids) > topVideos {
		ids = ids[:topVideos]
	}

	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		text, err := a.fetcher.Fetch(ctx, id)
		if err != nil {
			a.logger.Warn("transcript fetch failed",
				slog.String("videoID", id),
				slog.String("error", err.Error()),
			)
			continue
		}
		if text != "" {
			parts = append(parts, text)
		}
	}

	if len(parts) == 0 {
		return Placeholder(topic)
	}
	return strings.Join(parts, " ")
}

// Placeholder is the corpus used when no transcript could be retrieved.
func Placeholder(topic string) string {
	return fmt.Sprintf("Default content for %s", topic)
}

// StubFetcher returns canned text per video id. It stands in for a real
// caption source in development and tests; a production deployment plugs a
// real Fetcher into the aggregator instead.
type StubFetcher struct{}

// Fetch returns deterministic placeholder transcript text for the video.
func (StubFetcher) Fetch(_ context.Context, videoID string) (string, error) {
	return fmt.Sprintf("This is a mock transcript for video %s. In a real deployment a caption source would supply the spoken text of the video here.", videoID), nil
}
