package achievement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-engine/internal/models"
)

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func testRule(id uint, kind models.AchievementType, requirement, reward int) models.Achievement {
	r := rule("rule", "", kind, requirement, reward)
	r.ID = id
	return r
}

func unlockedIDs(e Evaluation) []uint {
	ids := make([]uint, len(e.Unlocks))
	for i, u := range e.Unlocks {
		ids[i] = u.AchievementID
	}
	return ids
}

func TestEvaluateThresholds(t *testing.T) {
	rules := []models.Achievement{
		testRule(1, models.QuizCompleted, 1, 10),
		testRule(2, models.QuizCompleted, 5, 25),
		testRule(3, models.QuizStreak, 3, 20),
		testRule(4, models.QuizCreated, 1, 30),
	}
	stats := models.CumulativeStats{QuizzesTaken: 1, Streak: 3}

	e := Evaluate(9, stats, rules, nil, nil, now)
	assert.Equal(t, []uint{1, 3}, unlockedIDs(e))
	assert.Equal(t, 30, e.Stats.Points)
	assert.Equal(t, uint(9), e.Unlocks[0].UserID)
	assert.Equal(t, now, e.Unlocks[0].EarnedAt)
}

func TestEvaluateRewardsFeedLaterCategoriesOnly(t *testing.T) {
	rules := []models.Achievement{
		testRule(1, models.PointsEarned, 100, 200),
		testRule(2, models.QuizCompleted, 1, 95),
		testRule(3, models.PointsEarned, 300, 5),
	}
	stats := models.CumulativeStats{QuizzesTaken: 1, Points: 10}

	e := Evaluate(1, stats, rules, nil, nil, now)
	// completion reward lifts points to 105, which unlocks rule 1 (+200 = 305).
	// rule 3 is in the same category and is checked in the same pass.
	assert.Equal(t, []uint{2, 1, 3}, unlockedIDs(e))
	assert.Equal(t, 310, e.Stats.Points)
}

func TestEvaluateSinglePassPerCategory(t *testing.T) {
	rules := []models.Achievement{
		testRule(1, models.PointsEarned, 50, 0),
		testRule(2, models.QuizCompleted, 1, 10),
	}
	// a later category never feeds an earlier one
	rules = append(rules, testRule(3, models.QuizCreated, 1, 100), testRule(4, models.QuizStreak, 1, 0))
	stats := models.CumulativeStats{QuizzesTaken: 1, QuizzesCreated: 1, Points: 0}

	e := Evaluate(1, stats, rules, nil, nil, now)
	assert.Equal(t, []uint{2, 3}, unlockedIDs(e))
	assert.Equal(t, 110, e.Stats.Points)
}

func TestEvaluateSkipsHeldInactiveAndIncompleteRules(t *testing.T) {
	inactive := testRule(2, models.QuizCompleted, 1, 10)
	inactive.IsActive = false
	broken := testRule(3, models.QuizCompleted, 1, 10)
	broken.RequirementValue = nil

	rules := []models.Achievement{testRule(1, models.QuizCompleted, 1, 10), inactive, broken}
	stats := models.CumulativeStats{QuizzesTaken: 10}

	e := Evaluate(1, stats, rules, map[uint]bool{1: true}, nil, now)
	assert.Empty(t, e.Unlocks)
	assert.Equal(t, []uint{3}, e.Skipped)
	assert.Equal(t, stats, e.Stats)
}

func TestEvaluatePerfectAndSpeedNeedRecentAttempt(t *testing.T) {
	rules := []models.Achievement{
		testRule(1, models.PerfectScore, 1, 50),
		testRule(2, models.SpeedDemon, 1, 75),
	}

	e := Evaluate(1, models.CumulativeStats{}, rules, nil, nil, now)
	assert.Empty(t, e.Unlocks)

	end := now
	fast := &models.Attempt{
		Status:         models.AttemptCompleted,
		TotalQuestions: 4,
		CorrectAnswers: 4,
		Percentage:     100,
		StartTime:      end.Add(-20 * time.Second),
		EndTime:        &end,
	}
	e = Evaluate(1, models.CumulativeStats{}, rules, nil, fast, now)
	require.Equal(t, []uint{1, 2}, unlockedIDs(e))
	assert.Equal(t, 125, e.Stats.Points)

	slowEmpty := &models.Attempt{
		Status:     models.AttemptCompleted,
		Percentage: 0,
		StartTime:  end.Add(-time.Minute),
		EndTime:    &end,
	}
	e = Evaluate(1, models.CumulativeStats{}, rules, nil, slowEmpty, now)
	assert.Empty(t, e.Unlocks)
}

func TestDefaultRulesAreValid(t *testing.T) {
	names := map[string]bool{}
	for _, r := range DefaultRules() {
		require.NoError(t, validate.Struct(r), r.Name)
		assert.False(t, names[r.Name], "duplicate rule name %q", r.Name)
		names[r.Name] = true
	}
	assert.Len(t, names, 15)
}
