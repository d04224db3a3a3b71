// internal/models/dto.go
package models

import "time"

type QuestionDTO struct {
	ID            uint         `json:"id"`
	Text          string       `json:"text"`
	Type          QuestionType `json:"type"`
	Options       []OptionDTO  `json:"options"`
	Points        int          `json:"points"`
	CorrectAnswer string       `json:"correct_answer,omitempty"` // only once the attempt is over
}

type OptionDTO struct {
	ID   uint   `json:"id"`
	Text string `json:"text"`
}

func (q Question) ToDTO(reveal bool) QuestionDTO {
	optionDTOs := make([]OptionDTO, len(q.Options))
	for i, opt := range q.Options {
		optionDTOs[i] = OptionDTO{
			ID:   opt.ID,
			Text: opt.Text,
		}
	}

	points := q.Points
	if points <= 0 {
		points = 1
	}

	dto := QuestionDTO{
		ID:      q.ID,
		Text:    q.Text,
		Type:    q.Type,
		Options: optionDTOs,
		Points:  points,
	}
	if reveal {
		dto.CorrectAnswer = q.CorrectAnswer
	}
	return dto
}

type AttemptDTO struct {
	ID             string        `json:"id"`
	UserID         uint          `json:"user_id"`
	QuizID         uint          `json:"quiz_id"`
	Status         AttemptStatus `json:"status"`
	Score          int           `json:"score"`
	CorrectAnswers int           `json:"correct_answers"`
	WrongAnswers   int           `json:"wrong_answers"`
	Skipped        int           `json:"skipped"`
	TotalQuestions int           `json:"total_questions"`
	Percentage     float64       `json:"percentage"`
	StartTime      time.Time     `json:"start_time"`
	EndTime        *time.Time    `json:"end_time,omitempty"`
	Duration       string        `json:"duration"`
	Answers        []Answer      `json:"answers,omitempty"`
}

func (a *Attempt) ToDTO(now time.Time) AttemptDTO {
	return AttemptDTO{
		ID:             a.ID,
		UserID:         a.UserID,
		QuizID:         a.QuizID,
		Status:         a.Status,
		Score:          a.Score,
		CorrectAnswers: a.CorrectAnswers,
		WrongAnswers:   a.WrongAnswers,
		Skipped:        a.Skipped,
		TotalQuestions: a.TotalQuestions,
		Percentage:     a.Percentage,
		StartTime:      a.StartTime,
		EndTime:        a.EndTime,
		Duration:       FormatDuration(a.Duration(now)),
		Answers:        a.Answers,
	}
}
