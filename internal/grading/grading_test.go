package grading

import (
	"testing"

	"github.com/google/uuid"

	"github.com/edulane/edulane-backend/internal/model"
)

func mcq(marks float64, correct string) *model.Question {
	return &model.Question{
		ID:            uuid.New(),
		QuestionType:  model.QuestionTypeMCQ,
		Marks:         marks,
		CorrectOption: correct,
	}
}

func descriptive(marks float64, keywords []string, minWords int) *model.Question {
	return &model.Question{
		ID:           uuid.New(),
		QuestionType: model.QuestionTypeDescriptive,
		Marks:        marks,
		Keywords:     keywords,
		MinWordCount: minWords,
	}
}

func TestScoreMCQ(t *testing.T) {
	q := mcq(10, "B")

	if got := ScoreMCQ(q, "B"); got != 10 {
		t.Errorf("correct option: got %v, want 10", got)
	}
	if got := ScoreMCQ(q, "A"); got != 0 {
		t.Errorf("wrong option: got %v, want 0", got)
	}
	if got := ScoreMCQ(q, ""); got != 0 {
		t.Errorf("missing selection: got %v, want 0", got)
	}
}

func TestScoreMCQNoCorrectOption(t *testing.T) {
	// Malformed question definition must score 0, not panic or match "".
	q := mcq(10, "")
	if got := ScoreMCQ(q, ""); got != 0 {
		t.Errorf("got %v, want 0", got)
	}
}

func TestScoreDescriptive(t *testing.T) {
	q := descriptive(10, []string{"recursion", "base case"}, 5)

	tests := []struct {
		name   string
		answer string
		want   float64
	}{
		{"both keywords", "recursion requires a base case to terminate", 10},
		{"one keyword", "the function calls itself which is recursion here", 5},
		{"no keywords", "this is a long answer without the right words", 0},
		{"too short", "recursion base case", 0},
		{"case insensitive", "Recursion needs a BASE CASE to stop running", 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ScoreDescriptive(q, tt.answer); got != tt.want {
				t.Errorf("ScoreDescriptive(%q) = %v, want %v", tt.answer, got, tt.want)
			}
		})
	}
}

func TestScoreDescriptiveNoKeywords(t *testing.T) {
	q := descriptive(10, nil, 0)
	if got := ScoreDescriptive(q, "any answer at all"); got != 0 {
		t.Errorf("got %v, want 0", got)
	}
}

func TestScoreDescriptiveRounding(t *testing.T) {
	// 2 of 3 keywords on 10 marks: 10*2/3 = 6.67 → 7.
	q := descriptive(10, []string{"stack", "heap", "pointer"}, 1)
	if got := ScoreDescriptive(q, "the stack differs from the heap"); got != 7 {
		t.Errorf("got %v, want 7", got)
	}
}

func TestScoreCodingAlwaysZero(t *testing.T) {
	q := &model.Question{
		ID:           uuid.New(),
		QuestionType: model.QuestionTypeCoding,
		Marks:        20,
	}
	if got := Score(q, "", "func main() {}"); got != 0 {
		t.Errorf("coding must contribute 0 to automatic scoring, got %v", got)
	}
}

func TestPercentage(t *testing.T) {
	tests := []struct {
		obtained, total float64
		want            int
	}{
		{10, 30, 33}, // 33.33 rounds down, not 34
		{20, 30, 67}, // 66.67 rounds up
		{15, 30, 50},
		{0, 30, 0},
		{30, 30, 100},
		{5, 0, 0}, // zero total never divides
		{19.5, 30, 65},
	}

	for _, tt := range tests {
		if got := Percentage(tt.obtained, tt.total); got != tt.want {
			t.Errorf("Percentage(%v, %v) = %d, want %d", tt.obtained, tt.total, got, tt.want)
		}
	}
}

func TestAggregateMissingAnswersCountZero(t *testing.T) {
	q1 := mcq(10, "A")
	q2 := mcq(10, "B")
	q3 := descriptive(10, []string{"x"}, 0)

	questions := []model.Question{*q1, *q2, *q3}

	// Only q1 was answered. q2 and q3 have no score entry at all.
	scores := map[string]float64{q1.ID.String(): 10}

	sum := Aggregate(questions, scores, 50)
	if sum.TotalMarks != 30 {
		t.Errorf("total = %v, want 30", sum.TotalMarks)
	}
	if sum.ObtainedMarks != 10 {
		t.Errorf("obtained = %v, want 10", sum.ObtainedMarks)
	}
	if sum.Percentage != 33 {
		t.Errorf("percentage = %d, want 33", sum.Percentage)
	}
	if sum.Passed {
		t.Error("33%% must not pass a 50%% threshold")
	}
}

func TestAggregatePassBoundary(t *testing.T) {
	q1 := mcq(10, "A")
	q2 := mcq(10, "B")
	questions := []model.Question{*q1, *q2}

	scores := map[string]float64{q1.ID.String(): 10}
	sum := Aggregate(questions, scores, 50)
	if !sum.Passed {
		t.Error("exactly the threshold must pass")
	}
}

func TestAggregateEmptyExam(t *testing.T) {
	sum := Aggregate(nil, nil, 50)
	if sum.TotalMarks != 0 || sum.Percentage != 0 || sum.Passed {
		t.Errorf("empty exam: got %+v, want zero summary (and 0%% never passes)", sum)
	}
}
