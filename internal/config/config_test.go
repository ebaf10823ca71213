package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("SKIP_POLICY", "")
	t.Setenv("SESSION_DURATION", "")

	cfg := Load()
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "local", cfg.SkipPolicy)
	assert.Equal(t, 24*time.Hour, cfg.SessionDuration)
	assert.Equal(t, 5, cfg.LoginBurst)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("BACKEND_URL", "https://vocab.example.com")
	t.Setenv("SKIP_POLICY", "submit")
	t.Setenv("SESSION_DURATION", "2h")
	t.Setenv("LOGIN_BURST", "not-a-number")
	t.Setenv("DB_TYPE", "postgres")

	cfg := Load()
	assert.Equal(t, "https://vocab.example.com", cfg.BackendURL)
	assert.Equal(t, "submit", cfg.SkipPolicy)
	assert.Equal(t, 2*time.Hour, cfg.SessionDuration)
	assert.Equal(t, 5, cfg.LoginBurst, "bad numbers fall back to the default")
	assert.Equal(t, "postgres", cfg.DatabaseType)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			BackendURL:      "http://localhost:8000",
			SessionSecret:   strings.Repeat("s", 32),
			SessionDuration: time.Hour,
			LoginRateLimit:  1,
			LoginBurst:      5,
			DatabaseType:    "sqlite",
		}
	}

	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"short secret", func(c *Config) { c.SessionSecret = "short" }},
		{"no backend", func(c *Config) { c.BackendURL = "" }},
		{"zero duration", func(c *Config) { c.SessionDuration = 0 }},
		{"zero burst", func(c *Config) { c.LoginBurst = 0 }},
		{"postgres without url", func(c *Config) { c.DatabaseType = "postgres" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}
