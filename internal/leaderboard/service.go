package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"quiz-engine/internal/models"
	"quiz-engine/pkg/cache"
)

const UnknownUser = "Unknown"

type AttemptReader interface {
	ListCompletedByQuiz(ctx context.Context, quizID uint) ([]models.Attempt, error)
}

type QuizReader interface {
	GetQuiz(ctx context.Context, quizID uint) (*models.Quiz, error)
}

type UserReader interface {
	GetUsers(ctx context.Context, ids []uint) (map[uint]models.User, error)
	TopByPoints(ctx context.Context, limit int) ([]models.User, error)
}

// Cache stores full rankings per quiz. Entries carry user ids only.
type Cache interface {
	GetLeaderboard(ctx context.Context, quizID uint) ([]models.LeaderboardEntry, error)
	SetLeaderboard(ctx context.Context, quizID uint, entries []models.LeaderboardEntry, ttl time.Duration) error
	InvalidateLeaderboard(ctx context.Context, quizID uint) error
}

type GlobalEntry struct {
	Rank         int    `json:"rank"`
	UserID       uint   `json:"user_id"`
	DisplayName  string `json:"display_name"`
	TotalPoints  int    `json:"total_points"`
	QuizzesTaken int    `json:"quizzes_taken"`
	Streak       int    `json:"streak"`
}

type Service struct {
	attempts AttemptReader
	quizzes  QuizReader
	users    UserReader
	cache    Cache
	ttl      time.Duration
}

// NewService builds the ranker. rankCache may be nil.
func NewService(attempts AttemptReader, quizzes QuizReader, users UserReader, rankCache Cache, ttl time.Duration) *Service {
	return &Service{
		attempts: attempts,
		quizzes:  quizzes,
		users:    users,
		cache:    rankCache,
		ttl:      ttl,
	}
}

// QuizLeaderboard returns the top limit entries for a quiz with display names.
func (s *Service) QuizLeaderboard(ctx context.Context, quizID uint, limit int) ([]models.LeaderboardEntry, error) {
	entries, err := s.ranking(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	if err := s.joinNames(ctx, entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// UserRank returns the user's own entry on a quiz.
func (s *Service) UserRank(ctx context.Context, quizID, userID uint) (*models.LeaderboardEntry, error) {
	entries, err := s.ranking(ctx, quizID)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].UserID != userID {
			continue
		}
		entry := entries[i : i+1]
		if err := s.joinNames(ctx, entry); err != nil {
			return nil, err
		}
		return &entry[0], nil
	}
	return nil, fmt.Errorf("%w: user %d has no completed attempt on quiz %d", models.ErrNotFound, userID, quizID)
}

// Global ranks users by lifetime points.
func (s *Service) Global(ctx context.Context, limit int) ([]GlobalEntry, error) {
	users, err := s.users.TopByPoints(ctx, limit)
	if err != nil {
		return nil, err
	}

	entries := make([]GlobalEntry, len(users))
	for i := range users {
		entries[i] = GlobalEntry{
			Rank:         i + 1,
			UserID:       users[i].ID,
			DisplayName:  users[i].Name(),
			TotalPoints:  users[i].TotalPoints,
			QuizzesTaken: users[i].TotalQuizzesTaken,
			Streak:       users[i].QuizStreak,
		}
	}
	return entries, nil
}

func (s *Service) ranking(ctx context.Context, quizID uint) ([]models.LeaderboardEntry, error) {
	if s.cache != nil {
		entries, err := s.cache.GetLeaderboard(ctx, quizID)
		if err == nil {
			return entries, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			log.Printf("Error reading leaderboard %d from cache: %v", quizID, err)
		}
	}

	if _, err := s.quizzes.GetQuiz(ctx, quizID); err != nil {
		return nil, err
	}
	attempts, err := s.attempts.ListCompletedByQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	entries := Rank(attempts, 0)

	if s.cache != nil {
		if err := s.cache.SetLeaderboard(ctx, quizID, entries, s.ttl); err != nil {
			log.Printf("Error caching leaderboard %d: %v", quizID, err)
		}
	}
	return entries, nil
}

func (s *Service) joinNames(ctx context.Context, entries []models.LeaderboardEntry) error {
	if len(entries) == 0 {
		return nil
	}
	ids := make([]uint, len(entries))
	for i, e := range entries {
		ids[i] = e.UserID
	}
	users, err := s.users.GetUsers(ctx, ids)
	if err != nil {
		return err
	}
	for i := range entries {
		if u, ok := users[entries[i].UserID]; ok {
			entries[i].DisplayName = u.Name()
		} else {
			entries[i].DisplayName = UnknownUser
		}
	}
	return nil
}

// OnAttemptCompleted drops the cached ranking of the attempt's quiz.
func (s *Service) OnAttemptCompleted(ctx context.Context, attempt *models.Attempt) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.InvalidateLeaderboard(ctx, attempt.QuizID)
}

// OnAttemptDeleted drops the cached ranking so the deleted attempt leaves it.
func (s *Service) OnAttemptDeleted(ctx context.Context, attempt *models.Attempt) error {
	return s.OnAttemptCompleted(ctx, attempt)
}
