package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-engine/internal/models"
)

var base = time.Date(2024, 5, 15, 10, 0, 0, 0, time.UTC) // a Wednesday

func completedAttempt(userID, quizID uint, score int, percentage float64, start time.Time) models.Attempt {
	end := start.Add(5 * time.Minute)
	return models.Attempt{
		ID:         start.Format(time.RFC3339Nano),
		UserID:     userID,
		QuizID:     quizID,
		Status:     models.AttemptCompleted,
		Score:      score,
		Percentage: percentage,
		StartTime:  start,
		EndTime:    &end,
	}
}

func TestStreakStopsAtFirstFailure(t *testing.T) {
	percentages := []float64{85, 72, 90, 40, 100} // most recent first
	var attempts []models.Attempt
	for i, p := range percentages {
		attempts = append(attempts, completedAttempt(1, 1, int(p), p, base.Add(-time.Duration(i)*time.Hour)))
	}
	// input order must not matter
	attempts[0], attempts[4] = attempts[4], attempts[0]

	assert.Equal(t, 3, Streak(attempts))
}

func TestStreakIgnoresUnfinishedAttempts(t *testing.T) {
	attempts := []models.Attempt{
		{Status: models.AttemptAbandoned, StartTime: base.Add(time.Hour)},
		completedAttempt(1, 1, 9, 90, base),
		{Status: models.AttemptStarted, StartTime: base.Add(2 * time.Hour)},
	}
	assert.Equal(t, 1, Streak(attempts))
	assert.Equal(t, 0, Streak(nil))
}

func TestQuizStats(t *testing.T) {
	quiz := models.Quiz{ID: 3, Title: "Capitals"}
	attempts := []models.Attempt{
		completedAttempt(1, 3, 9, 90, base),
		completedAttempt(2, 3, 7, 70, base.Add(time.Minute)),
		completedAttempt(3, 3, 4, 40, base.Add(2*time.Minute)),
		{UserID: 4, QuizID: 3, Status: models.AttemptInProgress, StartTime: base},
	}

	stats := QuizStats(quiz, attempts)
	assert.Equal(t, 4, stats.TotalAttempts)
	assert.Equal(t, 3, stats.CompletedAttempts)
	assert.Equal(t, 6.67, stats.AverageScore)
	assert.Equal(t, 66.67, stats.AveragePercentage)
	assert.Equal(t, 9, stats.MaxScore)
	assert.Equal(t, 4, stats.MinScore)
	assert.Equal(t, 66.67, stats.PassRate)
	assert.Equal(t, Distribution{Easy: 1, Medium: 1, Hard: 1}, stats.Distribution)
}

func TestQuizStatsWithoutCompletions(t *testing.T) {
	stats := QuizStats(models.Quiz{ID: 1}, nil)
	assert.Equal(t, QuizAnalytics{QuizID: 1}, stats)
}

func TestStudentStats(t *testing.T) {
	lastWeek := base.AddDate(0, 0, -7)
	attempts := []models.Attempt{
		completedAttempt(1, 1, 8, 80, base),
		completedAttempt(1, 2, 5, 50, lastWeek),
		{ID: "open", UserID: 1, QuizID: 3, Status: models.AttemptStarted, StartTime: base.Add(time.Hour)},
		{ID: "gone", UserID: 1, QuizID: 4, Status: models.AttemptAbandoned, StartTime: lastWeek.Add(-time.Hour)},
	}

	stats := StudentStats(1, attempts, base.Add(2*time.Hour))
	assert.Equal(t, 4, stats.TotalAttempts)
	assert.Equal(t, 2, stats.CompletedQuizzes)
	assert.Equal(t, 50.0, stats.CompletionRate)
	assert.Equal(t, 6.5, stats.AverageScore)
	assert.Equal(t, 65.0, stats.AveragePercentage)
	assert.Equal(t, 8, stats.BestScore)
	assert.Equal(t, 1, stats.CurrentStreak)
	assert.Equal(t, 1, stats.CompletedThisWeek)
	require.Len(t, stats.RecentAttempts, 4)
	assert.Equal(t, "open", stats.RecentAttempts[0].ID)
	assert.Equal(t, "gone", stats.RecentAttempts[3].ID)
}

func TestTeacherStats(t *testing.T) {
	quizzes := []models.Quiz{{ID: 10, Title: "A"}, {ID: 11, Title: "B"}, {ID: 12, Title: "C"}}
	attempts := []models.Attempt{
		completedAttempt(1, 10, 5, 50, base),
		completedAttempt(2, 11, 9, 90, base),
		{UserID: 2, QuizID: 11, Status: models.AttemptAbandoned, StartTime: base},
		{UserID: 3, QuizID: 10, Status: models.AttemptStarted, StartTime: base},
		completedAttempt(4, 99, 1, 10, base), // not authored by this teacher
	}

	stats := TeacherStats(7, quizzes, attempts)
	assert.Equal(t, 3, stats.QuizzesAuthored)
	assert.Equal(t, 4, stats.TotalAttempts)
	assert.Equal(t, 2, stats.CompletedAttempts)
	assert.Equal(t, 70.0, stats.AveragePercentage)
	assert.Equal(t, 7.0, stats.AverageScore)
	assert.Equal(t, 3, stats.UniqueStudents)
	require.NotNil(t, stats.MostAttemptedQuiz)
	assert.Equal(t, uint(10), stats.MostAttemptedQuiz.QuizID, "tie goes to the first authored quiz")
	assert.Equal(t, 2, stats.MostAttemptedQuiz.Attempts)
}

func TestTeacherStatsWithoutQuizzes(t *testing.T) {
	stats := TeacherStats(7, nil, nil)
	assert.Nil(t, stats.MostAttemptedQuiz)
	assert.Equal(t, 0, stats.TotalAttempts)
}
