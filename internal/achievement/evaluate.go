// Package achievement unlocks threshold-based rewards from a user's totals.
package achievement

import (
	"log"
	"time"

	"quiz-engine/internal/models"
)

// SpeedLimit is the completion time under which SPEED_DEMON rules apply.
const SpeedLimit = 30 * time.Second

// categoryOrder is the order rule types are checked in. Rewards granted by one
// category are visible to every later one.
var categoryOrder = []models.AchievementType{
	models.QuizCompleted,
	models.QuizStreak,
	models.PointsEarned,
	models.PerfectScore,
	models.QuizCreated,
	models.SpeedDemon,
}

type Evaluation struct {
	Unlocks []models.UserAchievement
	// Stats are the input totals plus every reward granted here.
	Stats models.CumulativeStats
	// Skipped lists rules ignored because they have no requirement value.
	Skipped []uint
}

// Evaluate checks each active rule the user does not hold yet against stats.
// Every category is scanned once, so a reward that lifts the user over a
// threshold in an earlier category does not unlock it in the same call.
// recent may be nil, in which case PERFECT_SCORE and SPEED_DEMON never match.
func Evaluate(userID uint, stats models.CumulativeStats, rules []models.Achievement, unlocked map[uint]bool, recent *models.Attempt, now time.Time) Evaluation {
	result := Evaluation{Stats: stats}

	byType := make(map[models.AchievementType][]models.Achievement)
	for _, rule := range rules {
		byType[rule.Type] = append(byType[rule.Type], rule)
	}

	for _, category := range categoryOrder {
		for _, rule := range byType[category] {
			if !rule.IsActive || unlocked[rule.ID] {
				continue
			}
			if rule.RequirementValue == nil {
				log.Printf("[ACHIEVEMENT] rule %d (%s) has no requirement value, skipping", rule.ID, rule.Name)
				result.Skipped = append(result.Skipped, rule.ID)
				continue
			}
			if !qualifies(rule, *rule.RequirementValue, result.Stats, recent) {
				continue
			}

			unlock := models.UserAchievement{
				UserID:        userID,
				AchievementID: rule.ID,
				Achievement:   rule,
				PointsAwarded: rule.PointsReward,
				EarnedAt:      now,
			}
			result.Unlocks = append(result.Unlocks, unlock)
			result.Stats.Points += rule.PointsReward
		}
	}
	return result
}

func qualifies(rule models.Achievement, requirement int, stats models.CumulativeStats, recent *models.Attempt) bool {
	switch rule.Type {
	case models.QuizCompleted:
		return stats.QuizzesTaken >= requirement
	case models.QuizStreak:
		return stats.Streak >= requirement
	case models.PointsEarned:
		return stats.Points >= requirement
	case models.QuizCreated:
		return stats.QuizzesCreated >= requirement
	case models.PerfectScore:
		return recent != nil && recent.IsCompleted() &&
			recent.TotalQuestions > 0 && recent.Percentage >= 100
	case models.SpeedDemon:
		return recent != nil && recent.IsCompleted() && recent.EndTime != nil &&
			recent.Duration(*recent.EndTime) < SpeedLimit
	}
	return false
}
