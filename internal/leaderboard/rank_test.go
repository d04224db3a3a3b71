package leaderboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-engine/internal/models"
)

var base = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

func finished(id string, userID uint, score int, end time.Time) models.Attempt {
	return models.Attempt{
		ID:        id,
		UserID:    userID,
		Status:    models.AttemptCompleted,
		Score:     score,
		StartTime: end.Add(-90 * time.Second),
		EndTime:   &end,
	}
}

func TestRankKeepsBestAttemptPerUser(t *testing.T) {
	const userA, userB = 1, 2
	attempts := []models.Attempt{
		finished("a1", userA, 80, base),
		finished("b1", userB, 95, base.Add(time.Minute)),
		finished("a2", userA, 90, base.Add(2*time.Minute)),
	}

	entries := Rank(attempts, 0)
	require.Len(t, entries, 2)
	assert.Equal(t, uint(userB), entries[0].UserID)
	assert.Equal(t, 95, entries[0].Score)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, uint(userA), entries[1].UserID)
	assert.Equal(t, 90, entries[1].Score)
	assert.Equal(t, "a2", entries[1].AttemptID)
	assert.Equal(t, "1:30", entries[1].Duration)
}

func TestRankTieBreaks(t *testing.T) {
	attempts := []models.Attempt{
		finished("late", 1, 50, base.Add(time.Hour)),
		finished("early", 1, 50, base),
		finished("u3", 3, 70, base.Add(time.Minute)),
		finished("u2", 2, 70, base.Add(time.Minute)),
		finished("u4", 4, 70, base),
		{ID: "open", UserID: 5, Status: models.AttemptInProgress, Score: 100, StartTime: base},
		{ID: "gone", UserID: 6, Status: models.AttemptAbandoned, Score: 100, StartTime: base},
	}

	entries := Rank(attempts, 0)
	require.Len(t, entries, 4)
	assert.Equal(t, []uint{4, 2, 3, 1}, []uint{entries[0].UserID, entries[1].UserID, entries[2].UserID, entries[3].UserID})
	assert.Equal(t, "early", entries[3].AttemptID)
}

func TestRankLimit(t *testing.T) {
	attempts := []models.Attempt{
		finished("a", 1, 10, base),
		finished("b", 2, 20, base),
		finished("c", 3, 30, base),
	}

	assert.Len(t, Rank(attempts, 2), 2)
	assert.Len(t, Rank(attempts, 0), 3)
	assert.Len(t, Rank(attempts, -5), 3)
	assert.Empty(t, Rank(nil, 3))
}
