// internal/attempt/repository.go
package attempt

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"quiz-engine/internal/models"
)

// errStatusChanged means a compare-and-set on status matched no row: another
// request moved the attempt out of an active state first.
var errStatusChanged = errors.New("attempt status changed concurrently")

// Repository is the attempt store.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, attempt *models.Attempt) error {
	if err := r.db.WithContext(ctx).Create(attempt).Error; err != nil {
		return err
	}
	log.Printf("Created attempt %s for user %d on quiz %d", attempt.ID, attempt.UserID, attempt.QuizID)
	return nil
}

func (r *Repository) GetByID(ctx context.Context, attemptID string) (*models.Attempt, error) {
	var attempt models.Attempt
	err := r.db.WithContext(ctx).Where("id = ?", attemptID).First(&attempt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: attempt %s", models.ErrNotFound, attemptID)
		}
		return nil, err
	}
	return &attempt, nil
}

func (r *Repository) GetWithAnswers(ctx context.Context, attemptID string) (*models.Attempt, error) {
	var attempt models.Attempt
	err := r.db.WithContext(ctx).
		Preload("Answers", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Where("id = ?", attemptID).
		First(&attempt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: attempt %s", models.ErrNotFound, attemptID)
		}
		return nil, err
	}
	return &attempt, nil
}

// FindActive returns the active attempt for the pair, or nil when there is none.
func (r *Repository) FindActive(ctx context.Context, userID, quizID uint) (*models.Attempt, error) {
	var attempts []models.Attempt
	err := r.db.WithContext(ctx).
		Where("active_key = ?", *models.ActiveKeyFor(userID, quizID)).
		Limit(1).
		Find(&attempts).Error
	if err != nil {
		return nil, err
	}
	if len(attempts) == 0 {
		return nil, nil
	}
	return &attempts[0], nil
}

func (r *Repository) ListByUser(ctx context.Context, userID uint) ([]models.Attempt, error) {
	return r.list(ctx, r.db.Where("user_id = ?", userID))
}

func (r *Repository) ListByQuiz(ctx context.Context, quizID uint) ([]models.Attempt, error) {
	return r.list(ctx, r.db.Where("quiz_id = ?", quizID))
}

func (r *Repository) ListByQuizzes(ctx context.Context, quizIDs []uint) ([]models.Attempt, error) {
	if len(quizIDs) == 0 {
		return nil, nil
	}
	return r.list(ctx, r.db.Where("quiz_id IN ?", quizIDs))
}

func (r *Repository) ListCompletedByQuiz(ctx context.Context, quizID uint) ([]models.Attempt, error) {
	return r.list(ctx, r.db.Where("quiz_id = ? AND status = ?", quizID, models.AttemptCompleted))
}

func (r *Repository) ListCompletedByUser(ctx context.Context, userID uint) ([]models.Attempt, error) {
	return r.list(ctx, r.db.Where("user_id = ? AND status = ?", userID, models.AttemptCompleted))
}

func (r *Repository) ListActive(ctx context.Context) ([]models.Attempt, error) {
	return r.list(ctx, r.db.Where("status IN ?", models.ActiveStatuses))
}

// list orders by start time, most recent first.
func (r *Repository) list(ctx context.Context, query *gorm.DB) ([]models.Attempt, error) {
	var attempts []models.Attempt
	err := query.WithContext(ctx).
		Order("start_time desc").
		Order("id asc").
		Find(&attempts).Error
	if err != nil {
		log.Printf("Error listing attempts: %v", err)
		return nil, err
	}
	return attempts, nil
}

// MarkInProgress moves a STARTED attempt to IN_PROGRESS.
func (r *Repository) MarkInProgress(ctx context.Context, attemptID string) error {
	result := r.db.WithContext(ctx).Model(&models.Attempt{}).
		Where("id = ? AND status = ?", attemptID, models.AttemptStarted).
		Update("status", models.AttemptInProgress)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errStatusChanged
	}
	return nil
}

// Close ends an active attempt without scoring it.
func (r *Repository) Close(ctx context.Context, attemptID string, status models.AttemptStatus, endTime time.Time) error {
	result := r.db.WithContext(ctx).Model(&models.Attempt{}).
		Where("id = ? AND status IN ?", attemptID, models.ActiveStatuses).
		Updates(map[string]interface{}{
			"status":     status,
			"end_time":   endTime,
			"active_key": nil,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errStatusChanged
	}
	return nil
}

// Complete stores the graded attempt and its answers in one transaction. The
// status check in the UPDATE makes a double submit score only once.
func (r *Repository) Complete(ctx context.Context, attempt *models.Attempt, answers []models.Answer) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Attempt{}).
			Where("id = ? AND status IN ?", attempt.ID, models.ActiveStatuses).
			Updates(map[string]interface{}{
				"status":          models.AttemptCompleted,
				"score":           attempt.Score,
				"correct_answers": attempt.CorrectAnswers,
				"wrong_answers":   attempt.WrongAnswers,
				"skipped":         attempt.Skipped,
				"percentage":      attempt.Percentage,
				"end_time":        attempt.EndTime,
				"active_key":      nil,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errStatusChanged
		}

		if len(answers) == 0 {
			return nil
		}
		for i := range answers {
			answers[i].AttemptID = attempt.ID
		}
		return tx.Create(&answers).Error
	})
}

// Delete soft-deletes an attempt together with its answers.
func (r *Repository) Delete(ctx context.Context, attemptID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("attempt_id = ?", attemptID).Delete(&models.Answer{}).Error; err != nil {
			return err
		}
		result := tx.Model(&models.Attempt{}).
			Where("id = ?", attemptID).
			Updates(map[string]interface{}{"active_key": nil})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: attempt %s", models.ErrNotFound, attemptID)
		}
		return tx.Where("id = ?", attemptID).Delete(&models.Attempt{}).Error
	})
}
