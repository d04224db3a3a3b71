package achievement

import (
	"context"
	"log"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"quiz-engine/internal/account"
	"quiz-engine/internal/models"
)

type Repository struct {
	db    *gorm.DB
	users *account.Repository
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db, users: account.NewRepository(db)}
}

func (r *Repository) ActiveRules(ctx context.Context) ([]models.Achievement, error) {
	var rules []models.Achievement
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("requirement_value asc").
		Order("id asc").
		Find(&rules).Error
	return rules, err
}

func (r *Repository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Achievement{}).Count(&count).Error
	return count, err
}

func (r *Repository) CreateRules(ctx context.Context, rules []models.Achievement) error {
	if len(rules) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&rules).Error
}

func (r *Repository) UnlockedIDs(ctx context.Context, userID uint) (map[uint]bool, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.UserAchievement{}).
		Where("user_id = ?", userID).
		Pluck("achievement_id", &ids).Error
	if err != nil {
		return nil, err
	}

	unlocked := make(map[uint]bool, len(ids))
	for _, id := range ids {
		unlocked[id] = true
	}
	return unlocked, nil
}

// ListUnlocks returns the user's unlocks, newest first.
func (r *Repository) ListUnlocks(ctx context.Context, userID uint) ([]models.UserAchievement, error) {
	var unlocks []models.UserAchievement
	err := r.db.WithContext(ctx).
		Preload("Achievement").
		Where("user_id = ?", userID).
		Order("earned_at desc").
		Order("id desc").
		Find(&unlocks).Error
	return unlocks, err
}

// SaveUnlocks stores unlocks and credits their rewards in one transaction.
// Unlocks the user already holds are skipped without crediting anything; the
// ones actually stored are returned.
func (r *Repository) SaveUnlocks(ctx context.Context, unlocks []models.UserAchievement) ([]models.UserAchievement, error) {
	var saved []models.UserAchievement
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := r.users.WithTx(tx)
		for _, unlock := range unlocks {
			row := unlock
			result := tx.Omit("Achievement").
				Clauses(clause.OnConflict{DoNothing: true}).
				Create(&row)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				log.Printf("[ACHIEVEMENT] user %d already holds achievement %d", row.UserID, row.AchievementID)
				continue
			}
			if err := users.AddPoints(ctx, row.UserID, row.PointsAwarded); err != nil {
				return err
			}
			saved = append(saved, row)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}
