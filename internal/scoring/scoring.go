// Package scoring grades a submitted answer set against a question list.
package scoring

import (
	"strings"

	"quiz-engine/internal/models"
)

const (
	OutcomeCorrect = "correct"
	OutcomeWrong   = "wrong"
	OutcomeSkipped = "skipped"
)

type Outcome struct {
	QuestionID   uint   `json:"question_id"`
	Response     string `json:"response"`
	Status       string `json:"status"`
	PointsEarned int    `json:"points_earned"`
}

type Result struct {
	Correct    int       `json:"correct"`
	Wrong      int       `json:"wrong"`
	Skipped    int       `json:"skipped"`
	Score      int       `json:"score"`
	Percentage float64   `json:"percentage"`
	Total      int       `json:"total"`
	Outcomes   []Outcome `json:"outcomes"`
}

// Grade scores answers against every question in the list.
func Grade(questions []models.Question, answers map[uint]string) Result {
	return GradeSnapshot(len(questions), questions, answers)
}

// GradeSnapshot scores against a question count fixed earlier. Questions beyond
// total are ignored and questions missing from the list count as skipped, so
// Correct+Wrong+Skipped always equals total.
func GradeSnapshot(total int, questions []models.Question, answers map[uint]string) Result {
	if total < 0 {
		total = 0
	}
	if len(questions) > total {
		questions = questions[:total]
	}

	result := Result{
		Total:    total,
		Outcomes: make([]Outcome, 0, len(questions)),
	}
	for _, question := range questions {
		raw := answers[question.ID]
		outcome := Outcome{QuestionID: question.ID, Response: raw}

		switch {
		case strings.TrimSpace(raw) == "":
			outcome.Status = OutcomeSkipped
			result.Skipped++
		case IsCorrect(question, raw):
			outcome.Status = OutcomeCorrect
			outcome.PointsEarned = pointsFor(question)
			result.Correct++
			result.Score += outcome.PointsEarned
		default:
			outcome.Status = OutcomeWrong
			result.Wrong++
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}

	result.Skipped += total - len(questions)
	result.Percentage = Percentage(result.Correct, total)
	return result
}

// IsCorrect compares a raw answer with the stored one according to question type.
//
// Short answers also match when either side contains the other. This is loose
// on purpose and accepts false positives such as "a" against "Paris".
func IsCorrect(question models.Question, raw string) bool {
	provided := strings.ToLower(strings.TrimSpace(raw))
	if provided == "" {
		return false
	}
	correct := strings.ToLower(strings.TrimSpace(question.CorrectAnswer))

	switch question.Type {
	case models.MultipleChoice, models.TrueFalse:
		return provided == correct
	case models.ShortAnswer:
		if correct == "" {
			return false
		}
		return provided == correct ||
			strings.Contains(correct, provided) ||
			strings.Contains(provided, correct)
	default:
		return false
	}
}

// Percentage is correct/total*100, or 0 for an empty quiz.
func Percentage(correct, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(correct) / float64(total) * 100
}

func pointsFor(question models.Question) int {
	if question.Points < 0 {
		return 0
	}
	return question.Points
}
