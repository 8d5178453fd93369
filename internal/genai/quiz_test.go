package genai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sakif/learnloop/internal/model"
)

const goodQuizReply = `Here is your quiz:

` + "```json" + `
{
    "questions": [
        {
            "type": "mcq",
            "question": "What does a loop do?",
            "options": ["Repeats code", "Stops code", "Deletes code", "Prints code"],
            "correct_answer": 0,
            "explanation": "Loops repeat a block of code."
        },
        {
            "type": "true_false",
            "question": "A while loop checks its condition first.",
            "correct_answer": true,
            "explanation": "Condition is evaluated before the body."
        },
        {
            "type": "fill_blank",
            "question": "A loop that never ends is called an _____ loop.",
            "correct_answer": "infinite",
            "explanation": "Infinite loops never terminate."
        }
    ]
}
` + "```" + `

Good luck!`

func TestParseQuizQuestions_ProseWrappedJSON(t *testing.T) {
	questions, err := ParseQuizQuestions(goodQuizReply)
	if err != nil {
		t.Fatalf("ParseQuizQuestions() error = %v", err)
	}
	if len(questions) != 3 {
		t.Fatalf("ParseQuizQuestions() = %d questions, want 3", len(questions))
	}

	if questions[0].Type != model.QuestionMCQ {
		t.Errorf("questions[0].Type = %q", questions[0].Type)
	}
	if len(questions[0].Options) != 4 {
		t.Errorf("questions[0].Options = %d entries, want 4", len(questions[0].Options))
	}
	if questions[1].Type != model.QuestionTrueFalse {
		t.Errorf("questions[1].Type = %q", questions[1].Type)
	}
	if string(questions[1].CorrectAnswer) != "true" {
		t.Errorf("questions[1].CorrectAnswer = %s", questions[1].CorrectAnswer)
	}
	if string(questions[2].CorrectAnswer) != `"infinite"` {
		t.Errorf("questions[2].CorrectAnswer = %s", questions[2].CorrectAnswer)
	}
}

func TestParseQuizQuestions_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"empty reply", ""},
		{"prose without json", "Sorry, I cannot generate a quiz."},
		{"truncated json", `{"questions": [{"type": "mcq", "question": "Q?"`},
		{"closing brace before opening", `} nothing here {`},
		{"empty questions array", `{"questions": []}`},
		{"missing questions key", `{"items": [{"type": "mcq", "question": "Q?"}]}`},
		{"all records missing type", `{"questions": [{"question": "Q?"}, {"question": "R?"}]}`},
		{"all records missing question", `{"questions": [{"type": "mcq"}, {"type": "true_false"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseQuizQuestions(tt.reply); err == nil {
				t.Error("ParseQuizQuestions() = nil error, want error")
			}
		})
	}
}

func TestParseQuizQuestions_DropsIncompleteRecordsKeepsRest(t *testing.T) {
	reply := `{
		"questions": [
			{"type": "mcq", "question": "Keep me?", "correct_answer": 1},
			{"question": "no type, drop me"},
			{"type": "fill_blank", "question": "", "correct_answer": "x"},
			{"type": "true_false", "question": "And me?", "correct_answer": false}
		]
	}`
	questions, err := ParseQuizQuestions(reply)
	if err != nil {
		t.Fatalf("ParseQuizQuestions() error = %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("ParseQuizQuestions() = %d questions, want 2", len(questions))
	}
	if questions[0].Prompt != "Keep me?" || questions[1].Prompt != "And me?" {
		t.Errorf("wrong survivors: %q, %q", questions[0].Prompt, questions[1].Prompt)
	}
}

func TestParseQuizQuestions_BracesInsideQuestionText(t *testing.T) {
	// Braces inside string values must not confuse the first-'{' to
	// last-'}' extraction.
	reply := `Quiz follows.
{"questions": [{"type": "fill_blank", "question": "A Go struct literal looks like T{...} with _____ inside.", "correct_answer": "fields"}]}
Done.`
	questions, err := ParseQuizQuestions(reply)
	if err != nil {
		t.Fatalf("ParseQuizQuestions() error = %v", err)
	}
	if len(questions) != 1 {
		t.Fatalf("ParseQuizQuestions() = %d questions, want 1", len(questions))
	}
	if string(questions[0].CorrectAnswer) != `"fields"` {
		t.Errorf("CorrectAnswer = %s", questions[0].CorrectAnswer)
	}
}

func TestSynthesizeQuiz_HappyPath(t *testing.T) {
	gen := &fakeGenerator{reply: goodQuizReply}
	synth := NewQuizSynthesizer(gen, testLogger())
	lesson := model.Lesson{ID: "les1", Title: "Loops", Content: "about loops"}

	quiz := synth.Synthesize(context.Background(), lesson)

	if quiz.LessonID != "les1" {
		t.Errorf("quiz.LessonID = %q, want les1", quiz.LessonID)
	}
	if quiz.ID == "" {
		t.Error("quiz.ID is empty")
	}
	if len(quiz.Questions) != 3 {
		t.Errorf("quiz has %d questions, want 3", len(quiz.Questions))
	}
}

func TestSynthesizeQuiz_NeverFailsOutright(t *testing.T) {
	lesson := model.Lesson{ID: "les1", Title: "Recursion", Content: "about recursion"}
	tests := []struct {
		name string
		gen  *fakeGenerator
	}{
		{"generator error", &fakeGenerator{err: errors.New("boom")}},
		{"prose reply", &fakeGenerator{reply: "I am unable to produce JSON today."}},
		{"truncated json", &fakeGenerator{reply: `{"questions": [{"type": "mcq"`}},
		{"empty questions", &fakeGenerator{reply: `{"questions": []}`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			synth := NewQuizSynthesizer(tt.gen, testLogger())
			quiz := synth.Synthesize(context.Background(), lesson)

			if quiz.LessonID != "les1" {
				t.Errorf("quiz.LessonID = %q", quiz.LessonID)
			}
			if len(quiz.Questions) != 1 {
				t.Fatalf("fallback quiz has %d questions, want 1", len(quiz.Questions))
			}
			q := quiz.Questions[0]
			if q.Type != model.QuestionMCQ {
				t.Errorf("fallback question type = %q", q.Type)
			}
			if q.Prompt != "What is the main topic of the lesson 'Recursion'?" {
				t.Errorf("fallback prompt = %q", q.Prompt)
			}
			if len(q.Options) != 4 {
				t.Errorf("fallback has %d options, want 4", len(q.Options))
			}
			if string(q.CorrectAnswer) != "0" {
				t.Errorf("fallback correct_answer = %s", q.CorrectAnswer)
			}
		})
	}
}

func TestQuizPrompt_CarriesLessonContent(t *testing.T) {
	gen := &fakeGenerator{reply: goodQuizReply}
	synth := NewQuizSynthesizer(gen, testLogger())
	lesson := model.Lesson{ID: "les1", Title: "Slices", Content: "slices share backing arrays"}

	synth.Synthesize(context.Background(), lesson)

	for _, want := range []string{"Slices", "slices share backing arrays", `"questions"`, "fill_blank"} {
		if !strings.Contains(gen.gotPrompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
