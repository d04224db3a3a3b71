package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AttemptStatus string

const (
	AttemptStarted    AttemptStatus = "STARTED"
	AttemptInProgress AttemptStatus = "IN_PROGRESS"
	AttemptCompleted  AttemptStatus = "COMPLETED"
	AttemptAbandoned  AttemptStatus = "ABANDONED"
	AttemptExpired    AttemptStatus = "EXPIRED"
)

// ActiveStatuses are the only states an attempt may leave.
var ActiveStatuses = []AttemptStatus{AttemptStarted, AttemptInProgress}

func (s AttemptStatus) IsTerminal() bool {
	switch s {
	case AttemptCompleted, AttemptAbandoned, AttemptExpired:
		return true
	}
	return false
}

// Attempt is one user's pass at one quiz.
//
// ActiveKey is "<user>:<quiz>" while the attempt is STARTED or IN_PROGRESS and
// NULL afterwards. The unique index on it keeps at most one active attempt per
// pair, since NULLs never collide.
type Attempt struct {
	ID             string         `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `json:"-" gorm:"index"`
	UserID         uint           `json:"user_id" gorm:"not null;index"`
	QuizID         uint           `json:"quiz_id" gorm:"not null;index"`
	Status         AttemptStatus  `json:"status" gorm:"type:varchar(16);not null;index"`
	ActiveKey      *string        `json:"-" gorm:"type:varchar(64);uniqueIndex"`
	Score          int            `json:"score"`
	CorrectAnswers int            `json:"correct_answers"`
	WrongAnswers   int            `json:"wrong_answers"`
	Skipped        int            `json:"skipped"`
	TotalQuestions int            `json:"total_questions"`
	QuestionIDs    datatypes.JSON `json:"-"`
	Percentage     float64        `json:"percentage"`
	StartTime      time.Time      `json:"start_time"`
	EndTime        *time.Time     `json:"end_time"`
	Answers        []Answer       `json:"answers,omitempty" gorm:"foreignKey:AttemptID"`
}

// Answer is owned by its attempt and soft-deleted together with it.
type Answer struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`
	AttemptID    string         `json:"attempt_id" gorm:"type:varchar(36);not null;index"`
	QuestionID   uint           `json:"question_id" gorm:"not null"`
	Response     string         `json:"response"`
	IsCorrect    bool           `json:"is_correct"`
	PointsEarned int            `json:"points_earned"`
	TimeTaken    int            `json:"time_taken"` // seconds
	AnsweredAt   time.Time      `json:"answered_at"`
}

func ActiveKeyFor(userID, quizID uint) *string {
	key := fmt.Sprintf("%d:%d", userID, quizID)
	return &key
}

func (a *Attempt) IsActive() bool {
	return !a.Status.IsTerminal()
}

func (a *Attempt) IsCompleted() bool {
	return a.Status == AttemptCompleted
}

// SnapshotQuestionIDs returns the ordered question ids captured at start.
func (a *Attempt) SnapshotQuestionIDs() ([]uint, error) {
	if len(a.QuestionIDs) == 0 {
		return nil, nil
	}
	var ids []uint
	if err := json.Unmarshal(a.QuestionIDs, &ids); err != nil {
		return nil, fmt.Errorf("decode question snapshot for attempt %s: %w", a.ID, err)
	}
	return ids, nil
}

func (a *Attempt) SetSnapshotQuestionIDs(ids []uint) error {
	if ids == nil {
		ids = []uint{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	a.QuestionIDs = datatypes.JSON(data)
	a.TotalQuestions = len(ids)
	return nil
}

// Duration is measured up to now for attempts that have not ended.
func (a *Attempt) Duration(now time.Time) time.Duration {
	if a.StartTime.IsZero() {
		return 0
	}
	end := now
	if a.EndTime != nil {
		end = *a.EndTime
	}
	if end.Before(a.StartTime) {
		return 0
	}
	return end.Sub(a.StartTime)
}

func FormatDuration(d time.Duration) string {
	total := int64(d / time.Second)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// Deadline reports when a timed attempt runs out. ok is false for untimed quizzes.
func (a *Attempt) Deadline(timeLimitMinutes uint) (deadline time.Time, ok bool) {
	if timeLimitMinutes == 0 {
		return time.Time{}, false
	}
	return a.StartTime.Add(time.Duration(timeLimitMinutes) * time.Minute), true
}
