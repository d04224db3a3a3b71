package achievement

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-playground/validator/v10"

	"quiz-engine/internal/models"
)

var validate = validator.New()

type StatsReader interface {
	GetCumulativeStats(ctx context.Context, userID uint) (models.CumulativeStats, error)
}

// Notifier is told about unlocks after they are stored.
type Notifier interface {
	AchievementsUnlocked(userID uint, unlocks []models.UserAchievement)
}

type Service struct {
	repo     *Repository
	users    StatsReader
	notifier Notifier
	now      func() time.Time
}

func NewService(repo *Repository, users StatsReader) *Service {
	return &Service{
		repo:  repo,
		users: users,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) SetNotifier(n Notifier) {
	s.notifier = n
}

// Evaluate unlocks every rule the user now qualifies for. recent is the attempt
// that triggered the check and may be nil.
func (s *Service) Evaluate(ctx context.Context, userID uint, recent *models.Attempt) ([]models.UserAchievement, error) {
	stats, err := s.users.GetCumulativeStats(ctx, userID)
	if err != nil {
		return nil, err
	}
	rules, err := s.repo.ActiveRules(ctx)
	if err != nil {
		return nil, err
	}
	unlocked, err := s.repo.UnlockedIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	evaluation := Evaluate(userID, stats, rules, unlocked, recent, s.now())
	if len(evaluation.Unlocks) == 0 {
		return []models.UserAchievement{}, nil
	}

	saved, err := s.repo.SaveUnlocks(ctx, evaluation.Unlocks)
	if err != nil {
		return nil, fmt.Errorf("save unlocks for user %d: %w", userID, err)
	}
	for _, u := range saved {
		log.Printf("[ACHIEVEMENT] user %d unlocked %q (+%d points)", userID, u.Achievement.Name, u.PointsAwarded)
	}
	if s.notifier != nil && len(saved) > 0 {
		s.notifier.AchievementsUnlocked(userID, saved)
	}
	if saved == nil {
		saved = []models.UserAchievement{}
	}
	return saved, nil
}

func (s *Service) OnAttemptCompleted(ctx context.Context, attempt *models.Attempt) error {
	_, err := s.Evaluate(ctx, attempt.UserID, attempt)
	return err
}

func (s *Service) ListUnlocks(ctx context.Context, userID uint) ([]models.UserAchievement, error) {
	return s.repo.ListUnlocks(ctx, userID)
}

// CreateRule validates and stores a rule.
func (s *Service) CreateRule(ctx context.Context, rule models.Achievement) (*models.Achievement, error) {
	if err := validate.Struct(rule); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrValidation, err)
	}
	rule.IsActive = true
	rules := []models.Achievement{rule}
	if err := s.repo.CreateRules(ctx, rules); err != nil {
		return nil, err
	}
	return &rules[0], nil
}

// SeedDefaults installs DefaultRules when no rule exists yet and reports how
// many it created.
func (s *Service) SeedDefaults(ctx context.Context) (int, error) {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}

	rules := DefaultRules()
	for _, rule := range rules {
		if err := validate.Struct(rule); err != nil {
			return 0, fmt.Errorf("default rule %q: %w", rule.Name, err)
		}
	}
	if err := s.repo.CreateRules(ctx, rules); err != nil {
		return 0, err
	}
	log.Printf("[ACHIEVEMENT] seeded %d default rules", len(rules))
	return len(rules), nil
}

func rule(name, description string, kind models.AchievementType, requirement, reward int) models.Achievement {
	return models.Achievement{
		Name:             name,
		Description:      description,
		Type:             kind,
		RequirementValue: &requirement,
		PointsReward:     reward,
		IsActive:         true,
	}
}

func DefaultRules() []models.Achievement {
	return []models.Achievement{
		rule("First Steps", "Complete your first quiz", models.QuizCompleted, 1, 10),
		rule("Getting Started", "Complete 5 quizzes", models.QuizCompleted, 5, 25),
		rule("Quiz Enthusiast", "Complete 25 quizzes", models.QuizCompleted, 25, 100),
		rule("Quiz Master", "Complete 100 quizzes", models.QuizCompleted, 100, 500),

		rule("On Fire", "Pass 3 quizzes in a row", models.QuizStreak, 3, 20),
		rule("Dedicated Learner", "Pass 7 quizzes in a row", models.QuizStreak, 7, 50),
		rule("Unstoppable", "Pass 30 quizzes in a row", models.QuizStreak, 30, 250),

		rule("Point Collector", "Earn 100 points", models.PointsEarned, 100, 15),
		rule("High Scorer", "Earn 1000 points", models.PointsEarned, 1000, 75),
		rule("Point Master", "Earn 10000 points", models.PointsEarned, 10000, 400),

		rule("Creator", "Create your first quiz", models.QuizCreated, 1, 30),
		rule("Quiz Builder", "Create 5 quizzes", models.QuizCreated, 5, 100),
		rule("Content Master", "Create 20 quizzes", models.QuizCreated, 20, 500),

		rule("Perfectionist", "Score 100% on any quiz", models.PerfectScore, 1, 50),
		rule("Speed Demon", "Complete a quiz in under 30 seconds", models.SpeedDemon, 1, 75),
	}
}
