package model

import (
	"encoding/json"

	"github.com/google/uuid"
)

// QuestionType tags how a question is answered and scored.
type QuestionType string

const (
	QuestionTypeMCQ         QuestionType = "MCQ"
	QuestionTypeDescriptive QuestionType = "DESCRIPTIVE"
	QuestionTypeCoding      QuestionType = "CODING"
)

// Question represents a single exam question. The payload fields are
// type-specific: Options/CorrectOption for MCQ, Keywords/MinWordCount
// for DESCRIPTIVE, TestCases for CODING.
type Question struct {
	ID           uuid.UUID       `json:"id"`
	ExamID       uuid.UUID       `json:"exam_id"`
	QuestionText string          `json:"question_text"`
	QuestionType QuestionType    `json:"question_type"`
	Marks        float64         `json:"marks"`
	Options      json.RawMessage `json:"options,omitempty"`
	CorrectOption string         `json:"correct_option,omitempty"`
	Keywords     []string        `json:"keywords,omitempty"`
	MinWordCount int             `json:"min_word_count,omitempty"`
	TestCases    json.RawMessage `json:"test_cases,omitempty"`
	OrderNum     int             `json:"order_num"`
}

// QuestionForStudent is a question stripped of grading material.
type QuestionForStudent struct {
	ID           uuid.UUID       `json:"id"`
	QuestionText string          `json:"question_text"`
	QuestionType QuestionType    `json:"question_type"`
	Marks        float64         `json:"marks"`
	Options      json.RawMessage `json:"options,omitempty"`
	OrderNum     int             `json:"order_num"`
}

// ForStudent strips the question down to its student-visible fields.
func (q *Question) ForStudent() QuestionForStudent {
	return QuestionForStudent{
		ID:           q.ID,
		QuestionText: q.QuestionText,
		QuestionType: q.QuestionType,
		Marks:        q.Marks,
		Options:      q.Options,
		OrderNum:     q.OrderNum,
	}
}

// AddQuestionRequest is the payload for adding a question to an exam.
type AddQuestionRequest struct {
	QuestionText  string          `json:"question_text" binding:"required,min=1,max=2000"`
	QuestionType  string          `json:"question_type" binding:"required,oneof=MCQ DESCRIPTIVE CODING"`
	Marks         float64         `json:"marks" binding:"required,gt=0"`
	Options       json.RawMessage `json:"options" binding:"omitempty"`
	CorrectOption string          `json:"correct_option" binding:"omitempty,max=10"`
	Keywords      []string        `json:"keywords" binding:"omitempty,dive,min=1"`
	MinWordCount  int             `json:"min_word_count" binding:"min=0"`
	TestCases     json.RawMessage `json:"test_cases" binding:"omitempty"`
	OrderNum      int             `json:"order_num" binding:"min=0"`
}

// ReplaceQuestionsRequest is the payload for bulk replacing questions.
type ReplaceQuestionsRequest struct {
	Questions []AddQuestionRequest `json:"questions" binding:"dive"`
}
