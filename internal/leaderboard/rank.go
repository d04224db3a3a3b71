// Package leaderboard ranks users on a quiz by their best completed attempt.
package leaderboard

import (
	"sort"
	"time"

	"quiz-engine/internal/models"
)

// Rank keeps each user's best completed attempt and orders them by score,
// then earliest completion, then user id. Within a user, equal scores keep the
// earlier completion. limit <= 0 returns every user.
func Rank(attempts []models.Attempt, limit int) []models.LeaderboardEntry {
	best := make(map[uint]models.Attempt)
	for _, a := range attempts {
		if !a.IsCompleted() {
			continue
		}
		current, ok := best[a.UserID]
		if !ok || better(a, current) {
			best[a.UserID] = a
		}
	}

	ranked := make([]models.Attempt, 0, len(best))
	for _, a := range best {
		ranked = append(ranked, a)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		ci, cj := completedAt(ranked[i]), completedAt(ranked[j])
		if !ci.Equal(cj) {
			return ci.Before(cj)
		}
		return ranked[i].UserID < ranked[j].UserID
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	entries := make([]models.LeaderboardEntry, len(ranked))
	for i, a := range ranked {
		end := completedAt(a)
		entries[i] = models.LeaderboardEntry{
			Rank:        i + 1,
			UserID:      a.UserID,
			AttemptID:   a.ID,
			Score:       a.Score,
			Percentage:  a.Percentage,
			Duration:    models.FormatDuration(a.Duration(end)),
			CompletedAt: end,
		}
	}
	return entries
}

func better(candidate, current models.Attempt) bool {
	if candidate.Score != current.Score {
		return candidate.Score > current.Score
	}
	return completedAt(candidate).Before(completedAt(current))
}

func completedAt(a models.Attempt) time.Time {
	if a.EndTime != nil {
		return *a.EndTime
	}
	return a.StartTime
}
