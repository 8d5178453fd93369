package genai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rs/xid"
	"github.com/sakif/learnloop/internal/model"
)

// QuizSynthesizer turns one lesson into a structured quiz.
//
// Unlike lesson synthesis, quiz generation is non-fatal by contract: no
// matter what the oracle does (unreachable, no credential, prose instead
// of JSON, truncated JSON, wrong schema) the caller always receives a quiz
// with at least one question.
type QuizSynthesizer struct {
	generator Generator
	logger    *slog.Logger
}

// NewQuizSynthesizer creates a QuizSynthesizer.
func NewQuizSynthesizer(generator Generator, logger *slog.Logger) *QuizSynthesizer {
	return &QuizSynthesizer{generator: generator, logger: logger}
}

// Synthesize generates a quiz for the lesson. It never returns an error;
// every failure path degrades to the single-question fallback quiz.
func (s *QuizSynthesizer) Synthesize(ctx context.Context, lesson model.Lesson) model.Quiz {
	reply, err := s.generator.Generate(ctx, quizPrompt(lesson))
	if err != nil {
		s.logger.Warn("quiz generation failed, serving fallback",
			slog.String("lessonID", lesson.ID),
			slog.String("error", err.Error()),
		)
		return FallbackQuiz(lesson)
	}

	questions, err := ParseQuizQuestions(reply)
	if err != nil {
		s.logger.Warn("quiz reply unparseable, serving fallback",
			slog.String("lessonID", lesson.ID),
			slog.String("error", err.Error()),
		)
		return FallbackQuiz(lesson)
	}

	return model.Quiz{
		ID:        xid.New().String(),
		LessonID:  lesson.ID,
		Questions: questions,
	}
}

func quizPrompt(lesson model.Lesson) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create 5-7 quiz questions based on this lesson about %s.\n\n", lesson.Title)
	fmt.Fprintf(&b, "Lesson Content: %s\n\n", lesson.Content)
	b.WriteString(`Create a mix of question types:
- Multiple choice (4 options)
- True/False
- Fill in the blank

Format as JSON:
{
    "questions": [
        {
            "type": "mcq",
            "question": "Question text?",
            "options": ["A", "B", "C", "D"],
            "correct_answer": 0,
            "explanation": "Why this is correct"
        },
        {
            "type": "true_false",
            "question": "Statement to evaluate",
            "correct_answer": true,
            "explanation": "Explanation"
        },
        {
            "type": "fill_blank",
            "question": "Complete this: Go is a _____ language",
            "correct_answer": "programming",
            "explanation": "Explanation"
        }
    ]
}`)
	return b.String()
}

// ParseQuizQuestions extracts and validates the question list from a
// free-text oracle reply.
//
// Extraction rule: the candidate JSON document spans the first '{' to the
// last '}' in the reply, tolerating prose (and markdown fences) around it.
// The parsed object must carry a non-empty "questions" array; records
// missing a type or a prompt are dropped. Zero surviving questions is an
// error so the caller falls back.
func ParseQuizQuestions(reply string) ([]model.Question, error) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("genai: no JSON object in reply")
	}

	var payload struct {
		Questions []model.Question `json:"questions"`
	}
	if err := json.Unmarshal([]byte(reply[start:end+1]), &payload); err != nil {
		return nil, fmt.Errorf("genai: parsing quiz JSON: %w", err)
	}

	questions := make([]model.Question, 0, len(payload.Questions))
	for _, q := range payload.Questions {
		if q.Type == "" || q.Prompt == "" {
			continue
		}
		questions = append(questions, q)
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("genai: reply contained no usable questions")
	}
	return questions, nil
}

// FallbackQuiz is the guaranteed-non-empty quiz served when generation
// fails in any way.
func FallbackQuiz(lesson model.Lesson) model.Quiz {
	return model.Quiz{
		ID:       xid.New().String(),
		LessonID: lesson.ID,
		Questions: []model.Question{
			{
				Type:          model.QuestionMCQ,
				Prompt:        fmt.Sprintf("What is the main topic of the lesson '%s'?", lesson.Title),
				Options:       []string{"Option A", "Option B", "Option C", "Option D"},
				CorrectAnswer: json.RawMessage("0"),
				Explanation:   "This is a default question.",
			},
		},
	}
}
