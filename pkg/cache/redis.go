// pkg/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"quiz-engine/internal/models"
)

// ErrMiss is returned when a key is absent or expired.
var ErrMiss = errors.New("cache miss")

type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(addr string) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	return &RedisCache{client: client}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func quizKey(quizID uint) string {
	return fmt.Sprintf("quiz:%d", quizID)
}

func leaderboardKey(quizID uint) string {
	return fmt.Sprintf("leaderboard:%d", quizID)
}

// SetQuiz caches quiz metadata. Questions are never cached.
func (c *RedisCache) SetQuiz(ctx context.Context, quiz *models.Quiz, ttl time.Duration) error {
	meta := *quiz
	meta.Questions = nil
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, quizKey(quiz.ID), data, ttl).Err()
}

func (c *RedisCache) GetQuiz(ctx context.Context, quizID uint) (*models.Quiz, error) {
	data, err := c.client.Get(ctx, quizKey(quizID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}
		return nil, err
	}

	var quiz models.Quiz
	if err := json.Unmarshal(data, &quiz); err != nil {
		return nil, err
	}
	return &quiz, nil
}

// SetLeaderboard stores a full ranking as a sorted set scored by position so
// ties keep the order the ranker chose.
func (c *RedisCache) SetLeaderboard(ctx context.Context, quizID uint, entries []models.LeaderboardEntry, ttl time.Duration) error {
	key := leaderboardKey(quizID)

	pipe := c.client.TxPipeline()
	pipe.Del(ctx, key)
	for i, entry := range entries {
		// names are joined at read time
		entry.DisplayName = ""
		member, err := json.Marshal(entry)
		if err != nil {
			return err
		}
		pipe.ZAdd(ctx, key, &redis.Z{
			Score:  float64(i),
			Member: string(member),
		})
	}
	if len(entries) == 0 {
		// remember empty boards too
		pipe.ZAdd(ctx, key, &redis.Z{Score: -1, Member: ""})
	}
	pipe.Expire(ctx, key, ttl)

	_, err := pipe.Exec(ctx)
	return err
}

func (c *RedisCache) GetLeaderboard(ctx context.Context, quizID uint) ([]models.LeaderboardEntry, error) {
	results, err := c.client.ZRangeWithScores(ctx, leaderboardKey(quizID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, ErrMiss
	}

	entries := make([]models.LeaderboardEntry, 0, len(results))
	for _, z := range results {
		member, ok := z.Member.(string)
		if !ok || member == "" {
			continue
		}
		var entry models.LeaderboardEntry
		if err := json.Unmarshal([]byte(member), &entry); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (c *RedisCache) InvalidateLeaderboard(ctx context.Context, quizID uint) error {
	return c.client.Del(ctx, leaderboardKey(quizID)).Err()
}
