package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_TYPE", "")
	t.Setenv("LEADERBOARD_TTL", "")
	t.Setenv("EXPIRY_SWEEP", "")

	cfg := Load()

	assert.Equal(t, "postgres", cfg.DBType)
	assert.Equal(t, 5*time.Minute, cfg.LeaderboardTTL)
	assert.Equal(t, "@every 1m", cfg.ExpirySweep)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DB_TYPE", "SQLite")
	t.Setenv("LEADERBOARD_TTL", "30s")
	t.Setenv("SEED_ACHIEVEMENTS", "false")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test,http://b.test")

	cfg := Load()

	assert.Equal(t, "sqlite", cfg.DBType)
	assert.Equal(t, 30*time.Second, cfg.LeaderboardTTL)
	assert.False(t, cfg.SeedAchievements)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
}

func TestGetEnvDurationFallsBackOnGarbage(t *testing.T) {
	t.Setenv("QUIZ_CACHE_TTL", "soon")
	assert.Equal(t, time.Hour, getEnvDuration("QUIZ_CACHE_TTL", time.Hour))
}
