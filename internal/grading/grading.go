// Package grading scores answers against question definitions. All
// functions are pure: malformed input yields a zero score, never an
// error, so a single bad question can't sink a whole submission.
package grading

import (
	"math"
	"strings"

	"github.com/edulane/edulane-backend/internal/model"
)

// Score grades a single answer by question type.
//
// MCQ is all-or-nothing. Descriptive uses the keyword heuristic below.
// Coding always scores 0 here: coding answers are evaluated manually
// by an instructor outside this engine.
func Score(q *model.Question, selectedOption, answerText string) float64 {
	switch q.QuestionType {
	case model.QuestionTypeMCQ:
		return ScoreMCQ(q, selectedOption)
	case model.QuestionTypeDescriptive:
		return ScoreDescriptive(q, answerText)
	default:
		return 0
	}
}

// ScoreMCQ awards full marks when the selected option matches the
// correct option, 0 otherwise. No partial credit.
func ScoreMCQ(q *model.Question, selectedOption string) float64 {
	if selectedOption == "" || q.CorrectOption == "" {
		return 0
	}
	if selectedOption == q.CorrectOption {
		return q.Marks
	}
	return 0
}

// ScoreDescriptive applies the keyword heuristic: count how many of
// the question's keywords appear as case-insensitive substrings of the
// answer and award marks proportionally, rounded. Answers below the
// minimum word count score 0, as do questions with no keywords.
//
// This is an approximation, not NLP — a keyword matching inside an
// unrelated word still counts. Keep the scoring law stable.
func ScoreDescriptive(q *model.Question, answerText string) float64 {
	if len(q.Keywords) == 0 {
		return 0
	}
	if len(strings.Fields(answerText)) < q.MinWordCount {
		return 0
	}

	haystack := strings.ToLower(answerText)
	matched := 0
	for _, kw := range q.Keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(haystack, strings.ToLower(kw)) {
			matched++
		}
	}

	return math.Round(q.Marks * float64(matched) / float64(len(q.Keywords)))
}

// Summary is the aggregate outcome of grading one attempt.
type Summary struct {
	TotalMarks    float64
	ObtainedMarks float64
	Percentage    int
	Passed        bool
}

// Aggregate computes the attempt total over all exam questions. Every
// question counts toward the total exactly once; a question with no
// entry in scores contributes 0 (missing answer = 0 by omission).
func Aggregate(questions []model.Question, scores map[string]float64, passPercentage int) Summary {
	var total, obtained float64
	for i := range questions {
		total += questions[i].Marks
		obtained += scores[questions[i].ID.String()]
	}

	pct := Percentage(obtained, total)
	return Summary{
		TotalMarks:    total,
		ObtainedMarks: obtained,
		Percentage:    pct,
		Passed:        pct >= passPercentage,
	}
}

// Percentage returns round(100 * obtained / total), rounding half away
// from zero. Returns 0 when total is 0.
func Percentage(obtained, total float64) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * obtained / total))
}
