package service

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/edulane/edulane-backend/internal/model"
)

func mcqQuestion() model.Question {
	options, _ := json.Marshal(map[string]string{"A": "yes", "B": "no"})
	return model.Question{
		QuestionText:  "Is the sky blue?",
		QuestionType:  model.QuestionTypeMCQ,
		Marks:         5,
		Options:       options,
		CorrectOption: "A",
	}
}

func TestValidateQuestions(t *testing.T) {
	descriptive := model.Question{
		QuestionText: "Explain caching.",
		QuestionType: model.QuestionTypeDescriptive,
		Marks:        10,
		Keywords:     []string{"cache"},
	}
	coding := model.Question{
		QuestionText: "Reverse a string.",
		QuestionType: model.QuestionTypeCoding,
		Marks:        10,
	}

	if err := validateQuestions([]model.Question{mcqQuestion(), descriptive, coding}); err != nil {
		t.Fatalf("valid question set rejected: %v", err)
	}
}

func TestValidateQuestionsMCQMissingPayload(t *testing.T) {
	noOptions := mcqQuestion()
	noOptions.Options = nil
	if err := validateQuestions([]model.Question{noOptions}); !errors.Is(err, ErrInvalidQuestionSet) {
		t.Errorf("MCQ without options: got %v, want ErrInvalidQuestionSet", err)
	}

	noCorrect := mcqQuestion()
	noCorrect.CorrectOption = ""
	if err := validateQuestions([]model.Question{noCorrect}); !errors.Is(err, ErrInvalidQuestionSet) {
		t.Errorf("MCQ without correct option: got %v, want ErrInvalidQuestionSet", err)
	}
}

func TestValidateQuestionsDescriptiveNeedsKeywords(t *testing.T) {
	q := model.Question{
		QuestionText: "Explain caching.",
		QuestionType: model.QuestionTypeDescriptive,
		Marks:        10,
	}
	if err := validateQuestions([]model.Question{q}); !errors.Is(err, ErrInvalidQuestionSet) {
		t.Errorf("descriptive without keywords: got %v, want ErrInvalidQuestionSet", err)
	}
}

func TestValidateQuestionsUnknownType(t *testing.T) {
	q := model.Question{
		QuestionText: "?",
		QuestionType: model.QuestionType("ESSAY"),
		Marks:        5,
	}
	if err := validateQuestions([]model.Question{q}); !errors.Is(err, ErrInvalidQuestionSet) {
		t.Errorf("unknown type: got %v, want ErrInvalidQuestionSet", err)
	}
}
