package model

import "encoding/json"

// QuestionType tags the variant of a quiz question.
type QuestionType string

const (
	QuestionMCQ       QuestionType = "mcq"
	QuestionTrueFalse QuestionType = "true_false"
	QuestionFillBlank QuestionType = "fill_blank"
)

// Question is a tagged variant:
//
//	mcq        → Options has 4 entries, CorrectAnswer is the index of the right one
//	true_false → CorrectAnswer is a boolean
//	fill_blank → CorrectAnswer is the expected string
//
// CorrectAnswer is kept as raw JSON so one struct round-trips all three
// shapes without lossy coercion.
type Question struct {
	Type          QuestionType    `json:"type"`
	Prompt        string          `json:"question"`
	Options       []string        `json:"options,omitempty"`
	CorrectAnswer json.RawMessage `json:"correct_answer"`
	Explanation   string          `json:"explanation,omitempty"`
}

// Quiz is generated on demand for a lesson and never persisted; requesting
// the same lesson twice regenerates it from scratch.
type Quiz struct {
	ID        string     `json:"id"`
	LessonID  string     `json:"lesson_id"`
	Questions []Question `json:"questions"`
}
