package genai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/learnloop/internal/apperror"
	"github.com/sakif/learnloop/internal/model"
)

// Marker strings the oracle is instructed to emit and the parser splits on.
// These are a wire contract with existing prompt/response pairs; do not
// reword them.
const (
	lessonTitleMarker   = "LESSON_TITLE:"
	lessonContentMarker = "LESSON_CONTENT:"
)

// corpusLimit caps how much transcript text goes into the prompt.
const corpusLimit = 3000

// LessonSynthesizer turns a transcript corpus into an ordered lesson
// sequence via the oracle.
type LessonSynthesizer struct {
	generator Generator
	logger    *slog.Logger
}

// NewLessonSynthesizer creates a LessonSynthesizer.
func NewLessonSynthesizer(generator Generator, logger *slog.Logger) *LessonSynthesizer {
	return &LessonSynthesizer{generator: generator, logger: logger}
}

// Synthesize asks the oracle for mode.LessonCount() lessons built from the
// corpus and parses its reply.
//
// An oracle failure (no credential, non-success status, timeout) aborts
// with a Generation error. A reply that parses to zero lessons does NOT: the
// oracle's actual output is authoritative over the requested count, and an
// empty sequence is a legal, if degenerate, result the caller must expect.
func (s *LessonSynthesizer) Synthesize(ctx context.Context, corpus, topic string, mode model.Mode) ([]model.Lesson, error) {
	reply, err := s.generator.Generate(ctx, lessonPrompt(corpus, topic, mode))
	if err != nil {
		return nil, apperror.Generation(fmt.Sprintf("synthesizing lessons for %q: %v", topic, err))
	}

	lessons := ParseLessons(reply)
	if len(lessons) == 0 {
		s.logger.Warn("oracle reply parsed to zero lessons",
			slog.String("topic", topic),
			slog.Int("replyLength", len(reply)),
		)
	}
	return lessons, nil
}

func lessonPrompt(corpus, topic string, mode model.Mode) string {
	if len(corpus) > corpusLimit {
		corpus = corpus[:corpusLimit]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Create %d structured lessons from this transcript about %s.\n\n", mode.LessonCount(), topic)
	fmt.Fprintf(&b, "Mode: %s\n", mode)
	fmt.Fprintf(&b, "- %s\n\n", mode.LengthGuidance())
	fmt.Fprintf(&b, "Transcript: %s...\n\n", corpus)
	b.WriteString("Format each lesson as:\n")
	b.WriteString(lessonTitleMarker + " [Clear, descriptive title]\n")
	b.WriteString(lessonContentMarker + " [Educational content with examples, explanations, and key points]\n\n")
	b.WriteString("Make the lessons progressive, building upon each other.")
	return b.String()
}

// ParseLessons applies the marker grammar to an oracle reply:
//
//   - the reply is split on "LESSON_TITLE:"; text before the first marker
//     is discarded
//   - within each segment, the first line (trimmed) is the title
//   - content starts on the line after a line beginning "LESSON_CONTENT:"
//     and runs to the segment's end; a segment without that marker line has
//     empty content
//   - lessons are numbered 1..n in order of appearance, regardless of how
//     many were requested
func ParseLessons(reply string) []model.Lesson {
	segments := strings.Split(reply, lessonTitleMarker)
	if len(segments) < 2 {
		return []model.Lesson{}
	}

	lessons := make([]model.Lesson, 0, len(segments)-1)
	for _, segment := range segments[1:] {
		lines := strings.Split(strings.TrimSpace(segment), "\n")
		title := strings.TrimSpace(lines[0])

		var contentLines []string
		for i, line := range lines[1:] {
			if strings.HasPrefix(strings.TrimSpace(line), lessonContentMarker) {
				contentLines = lines[1+i+1:]
				break
			}
		}

		lessons = append(lessons, model.Lesson{
			Title:   title,
			Content: strings.TrimSpace(strings.Join(contentLines, "\n")),
			Order:   len(lessons) + 1,
		})
	}
	return lessons
}
