package account

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-engine/internal/models"
	"quiz-engine/internal/testutil"
)

func TestRecordCompletionAndAddPoints(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	user := models.User{Username: "ada", Password: "x", TotalPoints: 10}
	require.NoError(t, repo.CreateUser(ctx, &user))

	require.NoError(t, repo.RecordCompletion(ctx, user.ID, 5, 2))
	require.NoError(t, repo.AddPoints(ctx, user.ID, 20))

	stats, err := repo.GetCumulativeStats(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CumulativeStats{QuizzesTaken: 1, Streak: 2, Points: 35}, stats)
}

func TestRevertCompletionFloorsAtZero(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	user := models.User{Username: "grace", Password: "x"}
	require.NoError(t, repo.CreateUser(ctx, &user))
	require.NoError(t, repo.RecordCompletion(ctx, user.ID, 6, 1))
	require.NoError(t, repo.RecordCompletion(ctx, user.ID, 4, 2))

	require.NoError(t, repo.RevertCompletion(ctx, user.ID, 6, 1))
	stats, err := repo.GetCumulativeStats(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CumulativeStats{QuizzesTaken: 1, Streak: 1, Points: 4}, stats)

	require.NoError(t, repo.RevertCompletion(ctx, user.ID, 10, 0))
	require.NoError(t, repo.RevertCompletion(ctx, user.ID, 10, 0))
	stats, err = repo.GetCumulativeStats(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CumulativeStats{}, stats)

	assert.ErrorIs(t, repo.RevertCompletion(ctx, 77, 1, 0), models.ErrNotFound)
}

func TestMissingUser(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	_, err := repo.GetUser(ctx, 77)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.ErrorIs(t, repo.AddPoints(ctx, 77, 3), models.ErrNotFound)
	assert.ErrorIs(t, repo.RecordCompletion(ctx, 77, 3, 1), models.ErrNotFound)
}

func TestTopByPoints(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	for _, u := range []models.User{
		{Username: "low", Password: "x", TotalPoints: 5},
		{Username: "high", Password: "x", TotalPoints: 50},
		{Username: "mid", Password: "x", TotalPoints: 20},
	} {
		u := u
		require.NoError(t, repo.CreateUser(ctx, &u))
	}

	top, err := repo.TopByPoints(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "high", top[0].Username)
	assert.Equal(t, "mid", top[1].Username)

	users, err := repo.GetUsers(ctx, []uint{top[0].ID, 999})
	require.NoError(t, err)
	assert.Len(t, users, 1)
}
