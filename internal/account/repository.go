// internal/account/repository.go
package account

import (
	"context"
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"

	"quiz-engine/internal/models"
)

// Repository reads users and keeps their cumulative totals.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to an open transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) GetUser(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %d", models.ErrNotFound, userID)
		}
		return nil, err
	}
	return &user, nil
}

// GetUsers returns the users that exist among ids, keyed by id.
func (r *Repository) GetUsers(ctx context.Context, ids []uint) (map[uint]models.User, error) {
	users := make(map[uint]models.User, len(ids))
	if len(ids) == 0 {
		return users, nil
	}

	var rows []models.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, u := range rows {
		users[u.ID] = u
	}
	return users, nil
}

func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	result := r.db.WithContext(ctx).Where("username = ?", username).First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %q", models.ErrNotFound, username)
		}
		log.Printf("Error finding user %q: %v", username, result.Error)
		return nil, result.Error
	}
	return &user, nil
}

func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *Repository) GetCumulativeStats(ctx context.Context, userID uint) (models.CumulativeStats, error) {
	user, err := r.GetUser(ctx, userID)
	if err != nil {
		return models.CumulativeStats{}, err
	}
	return user.Stats(), nil
}

func (r *Repository) AddPoints(ctx context.Context, userID uint, points int) error {
	if points == 0 {
		return nil
	}
	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("total_points", gorm.Expr("total_points + ?", points))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: user %d", models.ErrNotFound, userID)
	}
	return nil
}

// RecordCompletion counts one more completed quiz, adds the points it earned
// and stores the recomputed streak.
func (r *Repository) RecordCompletion(ctx context.Context, userID uint, points, streak int) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"total_quizzes_taken": gorm.Expr("total_quizzes_taken + 1"),
			"total_points":        gorm.Expr("total_points + ?", points),
			"quiz_streak":         streak,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: user %d", models.ErrNotFound, userID)
	}
	return nil
}

// RevertCompletion undoes RecordCompletion for a deleted attempt. Totals never
// drop below zero.
func (r *Repository) RevertCompletion(ctx context.Context, userID uint, points, streak int) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"total_quizzes_taken": gorm.Expr("CASE WHEN total_quizzes_taken > 0 THEN total_quizzes_taken - 1 ELSE 0 END"),
			"total_points":        gorm.Expr("CASE WHEN total_points > ? THEN total_points - ? ELSE 0 END", points, points),
			"quiz_streak":         streak,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: user %d", models.ErrNotFound, userID)
	}
	return nil
}

// TopByPoints orders users by lifetime points, ties by id.
func (r *Repository) TopByPoints(ctx context.Context, limit int) ([]models.User, error) {
	query := r.db.WithContext(ctx).
		Order("total_points desc").
		Order("id asc")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var users []models.User
	if err := query.Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}
