package analytics

import (
	"context"
	"fmt"
	"log"
	"time"

	"quiz-engine/internal/models"
)

type AttemptReader interface {
	ListByQuiz(ctx context.Context, quizID uint) ([]models.Attempt, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Attempt, error)
	ListByQuizzes(ctx context.Context, quizIDs []uint) ([]models.Attempt, error)
}

type QuizReader interface {
	GetQuiz(ctx context.Context, quizID uint) (*models.Quiz, error)
	QuizzesByCreator(ctx context.Context, creatorID uint) ([]models.Quiz, error)
}

type UserReader interface {
	GetUser(ctx context.Context, userID uint) (*models.User, error)
}

type Service struct {
	attempts AttemptReader
	quizzes  QuizReader
	users    UserReader
	now      func() time.Time
}

func NewService(attempts AttemptReader, quizzes QuizReader, users UserReader) *Service {
	return &Service{
		attempts: attempts,
		quizzes:  quizzes,
		users:    users,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) QuizAnalytics(ctx context.Context, quizID uint) (*QuizAnalytics, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	attempts, err := s.attempts.ListByQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	stats := QuizStats(*quiz, attempts)
	return &stats, nil
}

func (s *Service) StudentAnalytics(ctx context.Context, userID uint) (*StudentAnalytics, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	attempts, err := s.attempts.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats := StudentStats(userID, attempts, s.now())
	stats.DisplayName = user.Name()
	return &stats, nil
}

func (s *Service) TeacherAnalytics(ctx context.Context, teacherID uint) (*TeacherAnalytics, error) {
	if _, err := s.users.GetUser(ctx, teacherID); err != nil {
		return nil, err
	}
	quizzes, err := s.quizzes.QuizzesByCreator(ctx, teacherID)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, len(quizzes))
	for i, q := range quizzes {
		ids[i] = q.ID
	}
	attempts, err := s.attempts.ListByQuizzes(ctx, ids)
	if err != nil {
		return nil, err
	}
	stats := TeacherStats(teacherID, quizzes, attempts)
	return &stats, nil
}

type CompletedAttemptReader interface {
	ListCompletedByUser(ctx context.Context, userID uint) ([]models.Attempt, error)
}

type StatsRecorder interface {
	RecordCompletion(ctx context.Context, userID uint, points, streak int) error
	RevertCompletion(ctx context.Context, userID uint, points, streak int) error
}

// StatsUpdater keeps the per-user totals in step with completed attempts.
type StatsUpdater struct {
	attempts CompletedAttemptReader
	users    StatsRecorder
}

func NewStatsUpdater(attempts CompletedAttemptReader, users StatsRecorder) *StatsUpdater {
	return &StatsUpdater{attempts: attempts, users: users}
}

func (u *StatsUpdater) OnAttemptCompleted(ctx context.Context, attempt *models.Attempt) error {
	completed, err := u.attempts.ListCompletedByUser(ctx, attempt.UserID)
	if err != nil {
		return fmt.Errorf("load history for user %d: %w", attempt.UserID, err)
	}
	streak := Streak(completed)
	if err := u.users.RecordCompletion(ctx, attempt.UserID, attempt.Score, streak); err != nil {
		return fmt.Errorf("record completion for user %d: %w", attempt.UserID, err)
	}
	log.Printf("[ANALYTICS] user %d +%d points, streak %d", attempt.UserID, attempt.Score, streak)
	return nil
}

// OnAttemptDeleted takes a deleted completed attempt back out of the totals.
// The streak is recomputed from what is left of the history.
func (u *StatsUpdater) OnAttemptDeleted(ctx context.Context, attempt *models.Attempt) error {
	completed, err := u.attempts.ListCompletedByUser(ctx, attempt.UserID)
	if err != nil {
		return fmt.Errorf("load history for user %d: %w", attempt.UserID, err)
	}
	streak := Streak(completed)
	if err := u.users.RevertCompletion(ctx, attempt.UserID, attempt.Score, streak); err != nil {
		return fmt.Errorf("revert completion for user %d: %w", attempt.UserID, err)
	}
	log.Printf("[ANALYTICS] user %d -%d points, streak %d", attempt.UserID, attempt.Score, streak)
	return nil
}
