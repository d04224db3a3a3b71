package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID                  uint           `json:"id" gorm:"primaryKey"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
	DeletedAt           gorm.DeletedAt `json:"-" gorm:"index"`
	Username            string         `json:"username" gorm:"uniqueIndex;not null"`
	Email               string         `json:"email" gorm:"index"`
	Password            string         `json:"-" gorm:"not null"`
	DisplayName         string         `json:"display_name"`
	TotalQuizzesTaken   int            `json:"total_quizzes_taken"`
	TotalQuizzesCreated int            `json:"total_quizzes_created"`
	TotalPoints         int            `json:"total_points"`
	QuizStreak          int            `json:"quiz_streak"`
}

// Name is what leaderboards and analytics show for the user.
func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}

// CumulativeStats is the snapshot achievement rules are evaluated against.
type CumulativeStats struct {
	QuizzesTaken   int `json:"quizzes_taken"`
	QuizzesCreated int `json:"quizzes_created"`
	Streak         int `json:"streak"`
	Points         int `json:"points"`
}

func (u *User) Stats() CumulativeStats {
	return CumulativeStats{
		QuizzesTaken:   u.TotalQuizzesTaken,
		QuizzesCreated: u.TotalQuizzesCreated,
		Streak:         u.QuizStreak,
		Points:         u.TotalPoints,
	}
}
