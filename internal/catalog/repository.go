// internal/catalog/repository.go
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"

	"quiz-engine/internal/models"
)

// Repository reads quizzes and questions. It never writes catalog data.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetQuizByID(ctx context.Context, quizID uint) (*models.Quiz, error) {
	var quiz models.Quiz
	err := r.db.WithContext(ctx).First(&quiz, quizID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: quiz %d", models.ErrNotFound, quizID)
		}
		log.Printf("Error getting quiz %d: %v", quizID, err)
		return nil, err
	}
	return &quiz, nil
}

// GetQuizQuestions returns the live questions of a quiz in display order.
func (r *Repository) GetQuizQuestions(ctx context.Context, quizID uint) ([]models.Question, error) {
	var questions []models.Question

	err := r.db.WithContext(ctx).
		Where("quiz_id = ?", quizID).
		Order("position asc").
		Order("id asc").
		Preload("Options").
		Find(&questions).Error
	if err != nil {
		log.Printf("Error getting questions for quiz %d: %v", quizID, err)
		return nil, err
	}
	return questions, nil
}

// GetQuestionsByIDs includes soft-deleted rows so attempts started before a
// question was retired can still be graded against it.
func (r *Repository) GetQuestionsByIDs(ctx context.Context, quizID uint, ids []uint) ([]models.Question, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var questions []models.Question
	err := r.db.WithContext(ctx).Unscoped().
		Preload("Options", func(db *gorm.DB) *gorm.DB { return db.Unscoped().Order("id asc") }).
		Where("quiz_id = ? AND id IN ?", quizID, ids).
		Find(&questions).Error
	if err != nil {
		log.Printf("Error getting questions %v for quiz %d: %v", ids, quizID, err)
		return nil, err
	}
	return questions, nil
}

func (r *Repository) GetQuizzesByCreator(ctx context.Context, creatorID uint) ([]models.Quiz, error) {
	var quizzes []models.Quiz
	err := r.db.WithContext(ctx).
		Where("creator_id = ?", creatorID).
		Order("id asc").
		Find(&quizzes).Error
	if err != nil {
		log.Printf("Error getting quizzes for creator %d: %v", creatorID, err)
		return nil, err
	}
	return quizzes, nil
}
