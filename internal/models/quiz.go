// internal/models/quiz.go
package models

import (
	"time"

	"gorm.io/gorm"
)

type QuestionType string

const (
	MultipleChoice QuestionType = "MULTIPLE_CHOICE"
	TrueFalse      QuestionType = "TRUE_FALSE"
	ShortAnswer    QuestionType = "SHORT_ANSWER"
)

// Quiz is catalog data. The engine only reads it.
type Quiz struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"deleted_at" gorm:"index"`
	Title       string         `json:"title" gorm:"not null"`
	Description string         `json:"description"`
	CreatorID   uint           `json:"creator_id" gorm:"index"`
	TimeLimit   uint           `json:"time_limit"` // minutes, 0 means untimed
	IsActive    bool           `json:"is_active" gorm:"default:true"`
	Questions   []Question     `json:"questions,omitempty" gorm:"foreignKey:QuizID"`
}

type Question struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"deleted_at" gorm:"index"`
	QuizID        uint           `json:"quiz_id" gorm:"index"`
	Position      int            `json:"position"`
	Text          string         `json:"text" gorm:"not null"`
	Type          QuestionType   `json:"type" gorm:"type:varchar(32);default:MULTIPLE_CHOICE"`
	Options       []Option       `json:"options,omitempty" gorm:"foreignKey:QuestionID"`
	CorrectAnswer string         `json:"correct_answer" gorm:"not null"`
	Points        int            `json:"points" gorm:"default:1"`
}

type Option struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"deleted_at" gorm:"index"`
	QuestionID uint           `json:"question_id"`
	Text       string         `json:"text" gorm:"not null"`
}

// LeaderboardEntry is a ranked projection of a user's best attempt.
type LeaderboardEntry struct {
	Rank        int       `json:"rank"`
	UserID      uint      `json:"user_id"`
	DisplayName string    `json:"display_name,omitempty"`
	AttemptID   string    `json:"attempt_id,omitempty"`
	Score       int       `json:"score"`
	Percentage  float64   `json:"percentage"`
	Duration    string    `json:"duration,omitempty"`
	CompletedAt time.Time `json:"completed_at,omitempty"`
}
