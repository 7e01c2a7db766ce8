package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestDefaultsApplied(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, time.Hour, cfg.Normalization.CacheWindow)
	assert.Equal(t, 14*24*time.Hour, cfg.Normalization.InactivityWindow)
	assert.Equal(t, 16, cfg.Normalization.GradeFetchConcurrency)
	assert.Equal(t, 2*time.Minute, cfg.Normalization.LockWait)
	assert.Equal(t, 10*time.Second, cfg.Identity.Timeout)
	assert.False(t, cfg.Redis.Enabled)
}

func TestOverridesAndFallbacks(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("NORMALIZATION_CACHE_WINDOW", "30m")
	v.Set("IDENTITY_TIMEOUT", "not-a-duration")
	v.Set("ALLOWED_ORIGINS", "https://a.example, ,https://b.example")

	cfg := fromViper(v)

	assert.Equal(t, 30*time.Minute, cfg.Normalization.CacheWindow)
	assert.Equal(t, 10*time.Second, cfg.Identity.Timeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}
