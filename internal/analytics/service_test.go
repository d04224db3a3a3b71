package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-engine/internal/account"
	"quiz-engine/internal/attempt"
	"quiz-engine/internal/catalog"
	"quiz-engine/internal/models"
	"quiz-engine/internal/testutil"
)

func TestServiceAndStatsUpdater(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()

	teacher := models.User{Username: "teach", Password: "x"}
	student := models.User{Username: "stud", Password: "x", DisplayName: "Stu"}
	require.NoError(t, db.Create(&teacher).Error)
	require.NoError(t, db.Create(&student).Error)

	quiz := models.Quiz{Title: "Capitals", CreatorID: teacher.ID, IsActive: true}
	require.NoError(t, db.Create(&quiz).Error)
	question := models.Question{QuizID: quiz.ID, Text: "France?", Type: models.MultipleChoice, CorrectAnswer: "Paris", Points: 4}
	require.NoError(t, db.Create(&question).Error)

	attempts := attempt.NewRepository(db)
	users := account.NewRepository(db)
	quizzes := catalog.NewService(catalog.NewRepository(db), nil, time.Hour)

	lifecycle := attempt.NewService(attempts, quizzes, NewStatsUpdater(attempts, users))
	started, err := lifecycle.Start(ctx, student.ID, quiz.ID)
	require.NoError(t, err)
	_, err = lifecycle.Submit(ctx, started.ID, student.ID, attempt.Submission{Answers: map[uint]string{question.ID: "paris"}})
	require.NoError(t, err)

	stats, err := users.GetCumulativeStats(ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CumulativeStats{QuizzesTaken: 1, Streak: 1, Points: 4}, stats)

	service := NewService(attempts, quizzes, users)

	quizStats, err := service.QuizAnalytics(ctx, quiz.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, quizStats.CompletedAttempts)
	assert.Equal(t, 100.0, quizStats.AveragePercentage)

	studentStats, err := service.StudentAnalytics(ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, "Stu", studentStats.DisplayName)
	assert.Equal(t, 4, studentStats.BestScore)

	teacherStats, err := service.TeacherAnalytics(ctx, teacher.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, teacherStats.TotalAttempts)
	assert.Equal(t, 1, teacherStats.UniqueStudents)

	_, err = service.QuizAnalytics(ctx, 4040)
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = service.StudentAnalytics(ctx, 4040)
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = service.TeacherAnalytics(ctx, 4040)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestStatsSurviveCancelledRequestAndDelete(t *testing.T) {
	db := testutil.NewDB(t)

	student := models.User{Username: "stud", Password: "x"}
	require.NoError(t, db.Create(&student).Error)
	quiz := models.Quiz{Title: "Capitals", IsActive: true}
	require.NoError(t, db.Create(&quiz).Error)
	question := models.Question{QuizID: quiz.ID, Text: "France?", Type: models.MultipleChoice, CorrectAnswer: "Paris", Points: 4}
	require.NoError(t, db.Create(&question).Error)

	attempts := attempt.NewRepository(db)
	users := account.NewRepository(db)
	quizzes := catalog.NewService(catalog.NewRepository(db), nil, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	lifecycle := attempt.NewService(attempts, quizzes,
		attempt.ListenerFunc(func(context.Context, *models.Attempt) error {
			cancel()
			return nil
		}),
		NewStatsUpdater(attempts, users),
	)

	started, err := lifecycle.Start(ctx, student.ID, quiz.ID)
	require.NoError(t, err)
	done, err := lifecycle.Submit(ctx, started.ID, student.ID, attempt.Submission{Answers: map[uint]string{question.ID: "Paris"}})
	require.NoError(t, err)

	background := context.Background()
	stats, err := users.GetCumulativeStats(background, student.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CumulativeStats{QuizzesTaken: 1, Streak: 1, Points: 4}, stats)

	require.NoError(t, lifecycle.Delete(background, done.ID, student.ID))
	stats, err = users.GetCumulativeStats(background, student.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CumulativeStats{}, stats)
}
