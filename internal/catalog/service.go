// internal/catalog/service.go
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"quiz-engine/internal/models"
	"quiz-engine/pkg/cache"
)

// QuizCache is the subset of the redis cache the catalog uses.
type QuizCache interface {
	GetQuiz(ctx context.Context, quizID uint) (*models.Quiz, error)
	SetQuiz(ctx context.Context, quiz *models.Quiz, ttl time.Duration) error
}

type Service struct {
	repo  *Repository
	cache QuizCache
	ttl   time.Duration
}

// NewService builds the catalog accessor. quizCache may be nil.
func NewService(repo *Repository, quizCache QuizCache, ttl time.Duration) *Service {
	return &Service{
		repo:  repo,
		cache: quizCache,
		ttl:   ttl,
	}
}

func (s *Service) GetQuiz(ctx context.Context, quizID uint) (*models.Quiz, error) {
	if s.cache != nil {
		quiz, err := s.cache.GetQuiz(ctx, quizID)
		if err == nil {
			return quiz, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			log.Printf("Error reading quiz %d from cache: %v", quizID, err)
		}
	}

	quiz, err := s.repo.GetQuizByID(ctx, quizID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetQuiz(ctx, quiz, s.ttl); err != nil {
			log.Printf("Error caching quiz %d: %v", quizID, err)
		}
	}
	return quiz, nil
}

// GetActiveQuiz fails with ErrNotFound for inactive quizzes as well. It reads
// the database directly since cached quizzes are never invalidated.
func (s *Service) GetActiveQuiz(ctx context.Context, quizID uint) (*models.Quiz, error) {
	quiz, err := s.repo.GetQuizByID(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if !quiz.IsActive {
		return nil, fmt.Errorf("%w: quiz %d is not active", models.ErrNotFound, quizID)
	}
	return quiz, nil
}

func (s *Service) GetQuestions(ctx context.Context, quizID uint) ([]models.Question, error) {
	return s.repo.GetQuizQuestions(ctx, quizID)
}

// ResolveQuestions returns the questions in ids order. Ids that no longer
// exist are left out.
func (s *Service) ResolveQuestions(ctx context.Context, quizID uint, ids []uint) ([]models.Question, error) {
	questions, err := s.repo.GetQuestionsByIDs(ctx, quizID, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[uint]models.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	ordered := make([]models.Question, 0, len(ids))
	for _, id := range ids {
		if q, ok := byID[id]; ok {
			ordered = append(ordered, q)
		}
	}
	return ordered, nil
}

func (s *Service) QuizzesByCreator(ctx context.Context, creatorID uint) ([]models.Quiz, error) {
	return s.repo.GetQuizzesByCreator(ctx, creatorID)
}
