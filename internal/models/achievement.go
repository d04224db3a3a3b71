package models

import (
	"time"

	"gorm.io/gorm"
)

type AchievementType string

const (
	QuizCompleted AchievementType = "QUIZ_COMPLETED"
	QuizStreak    AchievementType = "QUIZ_STREAK"
	PointsEarned  AchievementType = "POINTS_EARNED"
	QuizCreated   AchievementType = "QUIZ_CREATED"
	PerfectScore  AchievementType = "PERFECT_SCORE"
	SpeedDemon    AchievementType = "SPEED_DEMON"
)

type Achievement struct {
	ID               uint            `json:"id" gorm:"primaryKey"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
	DeletedAt        gorm.DeletedAt  `json:"-" gorm:"index"`
	Name             string          `json:"name" gorm:"uniqueIndex;not null;size:100" validate:"required,max=100"`
	Description      string          `json:"description" validate:"max=255"`
	Type             AchievementType `json:"type" gorm:"type:varchar(32);not null;index" validate:"required,oneof=QUIZ_COMPLETED QUIZ_STREAK POINTS_EARNED QUIZ_CREATED PERFECT_SCORE SPEED_DEMON"`
	RequirementValue *int            `json:"requirement_value" validate:"required,min=1"`
	PointsReward     int             `json:"points_reward" validate:"min=0"`
	IsActive         bool            `json:"is_active" gorm:"default:true"`
}

// UserAchievement records one unlock. (UserID, AchievementID) is unique.
type UserAchievement struct {
	ID            uint        `json:"id" gorm:"primaryKey"`
	UserID        uint        `json:"user_id" gorm:"not null;uniqueIndex:idx_user_achievement"`
	AchievementID uint        `json:"achievement_id" gorm:"not null;uniqueIndex:idx_user_achievement"`
	Achievement   Achievement `json:"achievement" gorm:"foreignKey:AchievementID"`
	PointsAwarded int         `json:"points_awarded"`
	EarnedAt      time.Time   `json:"earned_at"`
}
