package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("GRADER_JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "8080", cfg.AppPort)
	require.Equal(t, "gpt-4o-mini", cfg.OpenAIModel)
	require.Equal(t, 45*time.Second, cfg.AITimeout)
	require.Equal(t, 4, cfg.ExaminerConcurrency)
	require.Equal(t, 10*time.Minute, cfg.GradeCacheTTL)
	require.Equal(t, 5, cfg.RateLimitMax)
	require.Equal(t, time.Minute, cfg.RateLimitWindow)
	require.False(t, cfg.GradingEnabled())
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("GRADER_JWT_SECRET", "secret")
	t.Setenv("GRADER_APP_PORT", "9090")
	t.Setenv("GRADER_OPENAI_API_KEY", "sk-test")
	t.Setenv("GRADER_AI_TIMEOUT", "20s")
	t.Setenv("GRADER_EXAMINER_CONCURRENCY", "2")
	t.Setenv("GRADER_RATE_LIMIT_MAX", "9")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "9090", cfg.AppPort)
	require.Equal(t, 20*time.Second, cfg.AITimeout)
	require.Equal(t, 2, cfg.ExaminerConcurrency)
	require.Equal(t, 9, cfg.RateLimitMax)
	require.True(t, cfg.GradingEnabled())
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("GRADER_JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
}

func TestHTTPAddress(t *testing.T) {
	require.Equal(t, ":8080", Config{AppPort: "8080"}.HTTPAddress())
	require.Equal(t, ":8080", Config{AppPort: ":8080"}.HTTPAddress())
}

func TestLoadRejectsInvalidDuration(t *testing.T) {
	t.Setenv("GRADER_JWT_SECRET", "secret")
	t.Setenv("GRADER_AI_TIMEOUT", "not-a-duration")

	_, err := Load()
	require.Error(t, err)
}
