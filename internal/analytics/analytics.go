// Package analytics derives quiz, student and teacher statistics from attempt
// history. Nothing here is stored; every view is recomputed on request.
package analytics

import (
	"sort"
	"time"

	"github.com/jinzhu/now"
	"github.com/shopspring/decimal"

	"quiz-engine/internal/models"
)

const (
	PassThreshold   = 70.0
	EasyThreshold   = 80.0
	MediumThreshold = 60.0

	recentAttemptsLimit = 5
)

// Distribution buckets completed attempts by the percentage takers reached.
type Distribution struct {
	Easy   int `json:"easy"`   // >= 80
	Medium int `json:"medium"` // 60-79
	Hard   int `json:"hard"`   // < 60
}

type QuizAnalytics struct {
	QuizID            uint         `json:"quiz_id"`
	Title             string       `json:"title"`
	TotalAttempts     int          `json:"total_attempts"`
	CompletedAttempts int          `json:"completed_attempts"`
	AverageScore      float64      `json:"average_score"`
	AveragePercentage float64      `json:"average_percentage"`
	MaxScore          int          `json:"max_score"`
	MinScore          int          `json:"min_score"`
	PassRate          float64      `json:"pass_rate"`
	Distribution      Distribution `json:"distribution"`
}

type StudentAnalytics struct {
	UserID            uint                `json:"user_id"`
	DisplayName       string              `json:"display_name"`
	TotalAttempts     int                 `json:"total_attempts"`
	CompletedQuizzes  int                 `json:"completed_quizzes"`
	CompletionRate    float64             `json:"completion_rate"`
	AverageScore      float64             `json:"average_score"`
	AveragePercentage float64             `json:"average_percentage"`
	BestScore         int                 `json:"best_score"`
	CurrentStreak     int                 `json:"current_streak"`
	CompletedThisWeek int                 `json:"completed_this_week"`
	RecentAttempts    []models.AttemptDTO `json:"recent_attempts"`
}

type QuizSummary struct {
	QuizID   uint   `json:"quiz_id"`
	Title    string `json:"title"`
	Attempts int    `json:"attempts"`
}

type TeacherAnalytics struct {
	UserID            uint         `json:"user_id"`
	QuizzesAuthored   int          `json:"quizzes_authored"`
	TotalAttempts     int          `json:"total_attempts"`
	CompletedAttempts int          `json:"completed_attempts"`
	AverageScore      float64      `json:"average_score"`
	AveragePercentage float64      `json:"average_percentage"`
	MostAttemptedQuiz *QuizSummary `json:"most_attempted_quiz"`
	UniqueStudents    int          `json:"unique_students"`
}

// QuizStats summarizes one quiz. Averages, extremes, the distribution and the
// pass rate cover completed attempts; TotalAttempts counts every attempt.
func QuizStats(quiz models.Quiz, attempts []models.Attempt) QuizAnalytics {
	stats := QuizAnalytics{
		QuizID:        quiz.ID,
		Title:         quiz.Title,
		TotalAttempts: len(attempts),
	}

	completed := completedOnly(attempts)
	stats.CompletedAttempts = len(completed)
	if len(completed) == 0 {
		return stats
	}

	var scoreSum, percentSum float64
	passed := 0
	stats.MinScore = completed[0].Score
	for _, a := range completed {
		scoreSum += float64(a.Score)
		percentSum += a.Percentage
		if a.Score > stats.MaxScore {
			stats.MaxScore = a.Score
		}
		if a.Score < stats.MinScore {
			stats.MinScore = a.Score
		}
		if a.Percentage >= PassThreshold {
			passed++
		}

		switch {
		case a.Percentage >= EasyThreshold:
			stats.Distribution.Easy++
		case a.Percentage >= MediumThreshold:
			stats.Distribution.Medium++
		default:
			stats.Distribution.Hard++
		}
	}

	n := float64(len(completed))
	stats.AverageScore = round2(scoreSum / n)
	stats.AveragePercentage = round2(percentSum / n)
	stats.PassRate = round2(float64(passed) / n * 100)
	return stats
}

// StudentStats summarizes a user's history as of now.
func StudentStats(userID uint, attempts []models.Attempt, asOf time.Time) StudentAnalytics {
	stats := StudentAnalytics{
		UserID:         userID,
		TotalAttempts:  len(attempts),
		CurrentStreak:  Streak(attempts),
		RecentAttempts: []models.AttemptDTO{},
	}

	completed := completedOnly(attempts)
	stats.CompletedQuizzes = len(completed)
	if len(attempts) > 0 {
		stats.CompletionRate = round2(float64(len(completed)) / float64(len(attempts)) * 100)
	}

	weekStart := now.With(asOf).BeginningOfWeek()
	var scoreSum, percentSum float64
	for _, a := range completed {
		scoreSum += float64(a.Score)
		percentSum += a.Percentage
		if a.Score > stats.BestScore {
			stats.BestScore = a.Score
		}
		if a.EndTime != nil && !a.EndTime.Before(weekStart) {
			stats.CompletedThisWeek++
		}
	}
	if n := float64(len(completed)); n > 0 {
		stats.AverageScore = round2(scoreSum / n)
		stats.AveragePercentage = round2(percentSum / n)
	}

	for _, a := range mostRecentFirst(attempts) {
		if len(stats.RecentAttempts) == recentAttemptsLimit {
			break
		}
		stats.RecentAttempts = append(stats.RecentAttempts, a.ToDTO(asOf))
	}
	return stats
}

// TeacherStats summarizes attempts received on quizzes the teacher authored.
// Attempts on other quizzes are ignored. The most attempted quiz counts every
// attempt; ties go to the quiz that comes first in quizzes.
func TeacherStats(teacherID uint, quizzes []models.Quiz, attempts []models.Attempt) TeacherAnalytics {
	stats := TeacherAnalytics{
		UserID:          teacherID,
		QuizzesAuthored: len(quizzes),
	}

	counts := make(map[uint]int, len(quizzes))
	for _, q := range quizzes {
		counts[q.ID] = 0
	}

	students := make(map[uint]struct{})
	var scoreSum, percentSum float64
	for _, a := range attempts {
		if _, ok := counts[a.QuizID]; !ok {
			continue
		}
		counts[a.QuizID]++
		stats.TotalAttempts++
		students[a.UserID] = struct{}{}

		if a.IsCompleted() {
			stats.CompletedAttempts++
			scoreSum += float64(a.Score)
			percentSum += a.Percentage
		}
	}
	stats.UniqueStudents = len(students)
	if stats.CompletedAttempts > 0 {
		n := float64(stats.CompletedAttempts)
		stats.AverageScore = round2(scoreSum / n)
		stats.AveragePercentage = round2(percentSum / n)
	}

	best := -1
	for _, q := range quizzes {
		if counts[q.ID] > best {
			best = counts[q.ID]
			stats.MostAttemptedQuiz = &QuizSummary{QuizID: q.ID, Title: q.Title, Attempts: counts[q.ID]}
		}
	}
	return stats
}

// Streak counts the most recent completed attempts at or above the pass
// threshold, stopping at the first one below it.
func Streak(attempts []models.Attempt) int {
	streak := 0
	for _, a := range mostRecentFirst(completedOnly(attempts)) {
		if a.Percentage < PassThreshold {
			break
		}
		streak++
	}
	return streak
}

func completedOnly(attempts []models.Attempt) []models.Attempt {
	completed := make([]models.Attempt, 0, len(attempts))
	for _, a := range attempts {
		if a.IsCompleted() {
			completed = append(completed, a)
		}
	}
	return completed
}

func mostRecentFirst(attempts []models.Attempt) []models.Attempt {
	sorted := make([]models.Attempt, len(attempts))
	copy(sorted, attempts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartTime.After(sorted[j].StartTime)
	})
	return sorted
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
