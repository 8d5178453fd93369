package transcript

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
)

type fakeFetcher struct {
	texts map[string]string // id → transcript; absent id → error
	calls []string
}

func (f *fakeFetcher) Fetch(_ context.Context, videoID string) (string, error) {
	f.calls = append(f.calls, videoID)
	text, ok := f.texts[videoID]
	if !ok {
		return "", errors.New("no transcript available")
	}
	return text, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestAggregate_JoinsTopTwoWithSpace(t *testing.T) {
	fetcher := &fakeFetcher{texts: map[string]string{
		"v1": "first transcript",
		"v2": "second transcript",
		"v3": "third transcript",
	}}
	agg := NewAggregator(fetcher, testLogger())

	got := agg.Aggregate(context.Background(), []string{"v1", "v2", "v3"}, "loops")

	want := "first transcript second transcript"
	if got != want {
		t.Errorf("Aggregate() = %q, want %q", got, want)
	}
	if len(fetcher.calls) != 2 {
		t.Errorf("fetched %d videos, want 2 (only the top two)", len(fetcher.calls))
	}
}

func TestAggregate_PartialFailureKeepsWhatItGot(t *testing.T) {
	fetcher := &fakeFetcher{texts: map[string]string{"v2": "only the second"}}
	agg := NewAggregator(fetcher, testLogger())

	got := agg.Aggregate(context.Background(), []string{"v1", "v2"}, "loops")
	if got != "only the second" {
		t.Errorf("Aggregate() = %q, want %q", got, "only the second")
	}
}

func TestAggregate_AllFailuresFallBackToPlaceholder(t *testing.T) {
	fetcher := &fakeFetcher{texts: map[string]string{}}
	agg := NewAggregator(fetcher, testLogger())

	got := agg.Aggregate(context.Background(), []string{"v1", "v2"}, "Loops")
	if got != "Default content for Loops" {
		t.Errorf("Aggregate() = %q, want placeholder", got)
	}
}

func TestAggregate_NoVideosFallsBackToPlaceholder(t *testing.T) {
	agg := NewAggregator(&fakeFetcher{}, testLogger())

	got := agg.Aggregate(context.Background(), nil, "Recursion")
	if got != "Default content for Recursion" {
		t.Errorf("Aggregate() = %q, want placeholder", got)
	}
}

func TestAggregate_EmptyTranscriptTreatedAsMissing(t *testing.T) {
	fetcher := &fakeFetcher{texts: map[string]string{"v1": ""}}
	agg := NewAggregator(fetcher, testLogger())

	got := agg.Aggregate(context.Background(), []string{"v1"}, "Maps")
	if got != "Default content for Maps" {
		t.Errorf("Aggregate() = %q, want placeholder for empty transcript", got)
	}
}
