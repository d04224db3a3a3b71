// internal/attempt/service.go
package attempt

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"quiz-engine/internal/models"
	"quiz-engine/internal/scoring"
)

// Catalog is the read-only quiz source the lifecycle depends on.
type Catalog interface {
	GetQuiz(ctx context.Context, quizID uint) (*models.Quiz, error)
	GetActiveQuiz(ctx context.Context, quizID uint) (*models.Quiz, error)
	GetQuestions(ctx context.Context, quizID uint) ([]models.Question, error)
	ResolveQuestions(ctx context.Context, quizID uint, ids []uint) ([]models.Question, error)
}

// Listener runs after a submission has been committed. Errors are logged and
// never undo the submission.
type Listener interface {
	OnAttemptCompleted(ctx context.Context, attempt *models.Attempt) error
}

type ListenerFunc func(ctx context.Context, attempt *models.Attempt) error

func (f ListenerFunc) OnAttemptCompleted(ctx context.Context, attempt *models.Attempt) error {
	return f(ctx, attempt)
}

// DeleteListener is implemented by listeners whose derived state must drop a
// completed attempt once it is deleted.
type DeleteListener interface {
	OnAttemptDeleted(ctx context.Context, attempt *models.Attempt) error
}

// Submission is the raw answer payload for one attempt, keyed by question id.
type Submission struct {
	Answers   map[uint]string
	TimeTaken map[uint]int // seconds per question, optional
}

type Service struct {
	repo      *Repository
	catalog   Catalog
	listeners []Listener
	starts    singleflight.Group
	now       func() time.Time
}

func NewService(repo *Repository, catalog Catalog, listeners ...Listener) *Service {
	return &Service{
		repo:      repo,
		catalog:   catalog,
		listeners: listeners,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// AddListener registers a post-commit step. Listeners run in registration order.
func (s *Service) AddListener(l Listener) {
	s.listeners = append(s.listeners, l)
}

// Start returns the active attempt for (user, quiz) or creates one. Concurrent
// starts for the same pair share one call; across processes the unique active
// key rejects the loser, which then reads the winner's attempt.
func (s *Service) Start(ctx context.Context, userID, quizID uint) (*models.Attempt, error) {
	key := fmt.Sprintf("%d:%d", userID, quizID)
	shared := context.WithoutCancel(ctx)
	v, err, _ := s.starts.Do(key, func() (interface{}, error) {
		return s.start(shared, userID, quizID)
	})
	if err != nil {
		return nil, err
	}
	attempt := *v.(*models.Attempt)
	return &attempt, nil
}

func (s *Service) start(ctx context.Context, userID, quizID uint) (*models.Attempt, error) {
	existing, err := s.repo.FindActive(ctx, userID, quizID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		log.Printf("User %d resumes active attempt %s on quiz %d", userID, existing.ID, quizID)
		return existing, nil
	}

	quiz, err := s.catalog.GetActiveQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	questions, err := s.catalog.GetQuestions(ctx, quiz.ID)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
	}

	attempt := &models.Attempt{
		ID:        uuid.NewString(),
		UserID:    userID,
		QuizID:    quiz.ID,
		Status:    models.AttemptStarted,
		ActiveKey: models.ActiveKeyFor(userID, quiz.ID),
		StartTime: s.now(),
	}
	if err := attempt.SetSnapshotQuestionIDs(ids); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, attempt); err != nil {
		winner, findErr := s.repo.FindActive(ctx, userID, quizID)
		if findErr == nil && winner != nil {
			return winner, nil
		}
		log.Printf("Error creating attempt for user %d on quiz %d: %v", userID, quizID, err)
		return nil, err
	}
	return attempt, nil
}

// Get returns an attempt with its answers. Attempts of other users are reported
// as missing.
func (s *Service) Get(ctx context.Context, attemptID string, userID uint) (*models.Attempt, error) {
	attempt, err := s.repo.GetWithAnswers(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.UserID != userID {
		return nil, fmt.Errorf("%w: attempt %s", models.ErrNotFound, attemptID)
	}
	return attempt, nil
}

// Questions returns the questions of the attempt's snapshot. reveal is true
// once the attempt has ended.
func (s *Service) Questions(ctx context.Context, attemptID string, userID uint) (questions []models.Question, reveal bool, err error) {
	attempt, err := s.owned(ctx, attemptID, userID)
	if err != nil {
		return nil, false, err
	}
	questions, err = s.questionsFor(ctx, attempt)
	if err != nil {
		return nil, false, err
	}
	return questions, attempt.Status.IsTerminal(), nil
}

func (s *Service) owned(ctx context.Context, attemptID string, userID uint) (*models.Attempt, error) {
	attempt, err := s.repo.GetByID(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.UserID != userID {
		return nil, fmt.Errorf("%w: attempt %s", models.ErrNotFound, attemptID)
	}
	return attempt, nil
}

// Resume moves a STARTED attempt to IN_PROGRESS. IN_PROGRESS attempts are
// returned as they are.
func (s *Service) Resume(ctx context.Context, attemptID string, userID uint) (*models.Attempt, error) {
	attempt, err := s.owned(ctx, attemptID, userID)
	if err != nil {
		return nil, err
	}
	if attempt.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: attempt %s is %s", models.ErrInvalidTransition, attemptID, attempt.Status)
	}
	if attempt.Status == models.AttemptInProgress {
		return attempt, nil
	}

	if err := s.repo.MarkInProgress(ctx, attemptID); err != nil {
		if !errors.Is(err, errStatusChanged) {
			return nil, err
		}
		// someone else moved it; report what it is now
		current, getErr := s.repo.GetByID(ctx, attemptID)
		if getErr != nil {
			return nil, getErr
		}
		if current.Status.IsTerminal() {
			return nil, fmt.Errorf("%w: attempt %s is %s", models.ErrInvalidTransition, attemptID, current.Status)
		}
		return current, nil
	}
	attempt.Status = models.AttemptInProgress
	return attempt, nil
}

// Submit grades the answers and completes the attempt.
func (s *Service) Submit(ctx context.Context, attemptID string, userID uint, submission Submission) (*models.Attempt, error) {
	attempt, err := s.owned(ctx, attemptID, userID)
	if err != nil {
		return nil, err
	}
	if attempt.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: attempt %s is %s", models.ErrAlreadyCompleted, attemptID, attempt.Status)
	}

	questions, err := s.questionsFor(ctx, attempt)
	if err != nil {
		return nil, err
	}
	if err := s.validate(ctx, attempt, questions, submission.Answers); err != nil {
		return nil, err
	}

	result := scoring.GradeSnapshot(attempt.TotalQuestions, questions, submission.Answers)

	now := s.now()
	answers := make([]models.Answer, 0, len(result.Outcomes))
	for _, outcome := range result.Outcomes {
		answers = append(answers, models.Answer{
			QuestionID:   outcome.QuestionID,
			Response:     outcome.Response,
			IsCorrect:    outcome.Status == scoring.OutcomeCorrect,
			PointsEarned: outcome.PointsEarned,
			TimeTaken:    submission.TimeTaken[outcome.QuestionID],
			AnsweredAt:   now,
		})
	}

	graded := *attempt
	graded.Score = result.Score
	graded.CorrectAnswers = result.Correct
	graded.WrongAnswers = result.Wrong
	graded.Skipped = result.Skipped
	graded.Percentage = result.Percentage
	graded.EndTime = &now

	if err := s.repo.Complete(ctx, &graded, answers); err != nil {
		if errors.Is(err, errStatusChanged) {
			return nil, fmt.Errorf("%w: attempt %s", models.ErrAlreadyCompleted, attemptID)
		}
		log.Printf("Error completing attempt %s: %v", attemptID, err)
		return nil, err
	}
	graded.Status = models.AttemptCompleted
	graded.ActiveKey = nil
	graded.Answers = answers

	log.Printf("Attempt %s completed: score=%d correct=%d wrong=%d skipped=%d",
		graded.ID, graded.Score, graded.CorrectAnswers, graded.WrongAnswers, graded.Skipped)

	s.afterCompletion(ctx, &graded)
	return &graded, nil
}

// afterCompletion runs detached from request cancellation so a client that
// hangs up after the commit cannot leave the derived totals behind.
func (s *Service) afterCompletion(ctx context.Context, attempt *models.Attempt) {
	ctx = context.WithoutCancel(ctx)
	for _, l := range s.listeners {
		if err := l.OnAttemptCompleted(ctx, attempt); err != nil {
			log.Printf("[ATTEMPT] post-commit step failed for attempt %s: %v", attempt.ID, err)
		}
	}
}

// questionsFor resolves the questions captured at start. Attempts without a
// snapshot fall back to the live question list.
func (s *Service) questionsFor(ctx context.Context, attempt *models.Attempt) ([]models.Question, error) {
	ids, err := attempt.SnapshotQuestionIDs()
	if err != nil {
		return nil, err
	}
	if ids == nil {
		return s.catalog.GetQuestions(ctx, attempt.QuizID)
	}
	return s.catalog.ResolveQuestions(ctx, attempt.QuizID, ids)
}

// validate rejects answers to questions that belong neither to the attempt's
// snapshot nor to the quiz as it is now.
func (s *Service) validate(ctx context.Context, attempt *models.Attempt, snapshot []models.Question, answers map[uint]string) error {
	known := make(map[uint]bool, len(snapshot))
	for _, q := range snapshot {
		known[q.ID] = true
	}
	if ids, _ := attempt.SnapshotQuestionIDs(); ids != nil {
		for _, id := range ids {
			known[id] = true
		}
	}

	var unknown []uint
	for id := range answers {
		if !known[id] {
			unknown = append(unknown, id)
		}
	}
	if len(unknown) == 0 {
		return nil
	}

	live, err := s.catalog.GetQuestions(ctx, attempt.QuizID)
	if err != nil {
		return err
	}
	for _, q := range live {
		known[q.ID] = true
	}
	for _, id := range unknown {
		if !known[id] {
			return fmt.Errorf("%w: question %d is not part of quiz %d", models.ErrValidation, id, attempt.QuizID)
		}
	}
	return nil
}

// Abandon ends an active attempt without scoring it.
func (s *Service) Abandon(ctx context.Context, attemptID string, userID uint) (*models.Attempt, error) {
	attempt, err := s.owned(ctx, attemptID, userID)
	if err != nil {
		return nil, err
	}
	if attempt.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: attempt %s is %s", models.ErrAlreadyCompleted, attemptID, attempt.Status)
	}
	if err := s.close(ctx, attempt, models.AttemptAbandoned); err != nil {
		if errors.Is(err, errStatusChanged) {
			return nil, fmt.Errorf("%w: attempt %s", models.ErrAlreadyCompleted, attemptID)
		}
		return nil, err
	}
	return attempt, nil
}

// Expire ends an attempt whose time ran out. Deciding that it ran out is up to
// the caller.
func (s *Service) Expire(ctx context.Context, attemptID string) (*models.Attempt, error) {
	attempt, err := s.repo.GetByID(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: attempt %s is %s", models.ErrInvalidTransition, attemptID, attempt.Status)
	}
	if err := s.close(ctx, attempt, models.AttemptExpired); err != nil {
		if errors.Is(err, errStatusChanged) {
			return nil, fmt.Errorf("%w: attempt %s", models.ErrInvalidTransition, attemptID)
		}
		return nil, err
	}
	return attempt, nil
}

func (s *Service) close(ctx context.Context, attempt *models.Attempt, status models.AttemptStatus) error {
	now := s.now()
	if err := s.repo.Close(ctx, attempt.ID, status, now); err != nil {
		return err
	}
	attempt.Status = status
	attempt.EndTime = &now
	attempt.ActiveKey = nil
	log.Printf("Attempt %s is now %s", attempt.ID, status)
	return nil
}

// IsOverdue reports whether an active attempt has outlived its quiz time limit.
func (s *Service) IsOverdue(ctx context.Context, attempt *models.Attempt) (bool, error) {
	if attempt.Status.IsTerminal() {
		return false, nil
	}
	quiz, err := s.catalog.GetQuiz(ctx, attempt.QuizID)
	if err != nil {
		return false, err
	}
	deadline, ok := attempt.Deadline(quiz.TimeLimit)
	return ok && s.now().After(deadline), nil
}

// ExpireIfOverdue expires the attempt when its deadline has passed.
func (s *Service) ExpireIfOverdue(ctx context.Context, attempt *models.Attempt) (bool, error) {
	overdue, err := s.IsOverdue(ctx, attempt)
	if err != nil || !overdue {
		return false, err
	}
	if _, err := s.Expire(ctx, attempt.ID); err != nil {
		if errors.Is(err, models.ErrInvalidTransition) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ExpireOverdue expires every active attempt past its deadline and returns how
// many it expired.
func (s *Service) ExpireOverdue(ctx context.Context) (int, error) {
	active, err := s.repo.ListActive(ctx)
	if err != nil {
		return 0, err
	}

	expired := 0
	for i := range active {
		ok, err := s.ExpireIfOverdue(ctx, &active[i])
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				continue
			}
			return expired, err
		}
		if ok {
			expired++
		}
	}
	return expired, nil
}

func (s *Service) ActiveAttempt(ctx context.Context, userID, quizID uint) (*models.Attempt, error) {
	attempt, err := s.repo.FindActive(ctx, userID, quizID)
	if err != nil {
		return nil, err
	}
	if attempt == nil {
		return nil, fmt.Errorf("%w: no active attempt for user %d on quiz %d", models.ErrNotFound, userID, quizID)
	}
	return attempt, nil
}

func (s *Service) ListByUser(ctx context.Context, userID uint) ([]models.Attempt, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *Service) ListByQuiz(ctx context.Context, quizID uint) ([]models.Attempt, error) {
	return s.repo.ListByQuiz(ctx, quizID)
}

// Delete removes an attempt and its answers. Deleting a completed attempt
// also notifies every listener that implements DeleteListener.
func (s *Service) Delete(ctx context.Context, attemptID string, userID uint) error {
	attempt, err := s.owned(ctx, attemptID, userID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, attemptID); err != nil {
		return err
	}
	if attempt.Status != models.AttemptCompleted {
		return nil
	}

	ctx = context.WithoutCancel(ctx)
	for _, l := range s.listeners {
		dl, ok := l.(DeleteListener)
		if !ok {
			continue
		}
		if err := dl.OnAttemptDeleted(ctx, attempt); err != nil {
			log.Printf("[ATTEMPT] post-delete step failed for attempt %s: %v", attempt.ID, err)
		}
	}
	return nil
}

// Now is the service clock, exposed so handlers render durations consistently.
func (s *Service) Now() time.Time {
	return s.now()
}
