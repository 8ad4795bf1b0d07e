package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/portfolio")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, StorePostgres, cfg.StoreDriver)
	assert.Equal(t, 5*time.Second, cfg.StoreTimeout)
	assert.Equal(t, 5*time.Second, cfg.CaptchaTimeout)
	assert.Equal(t, NotifyNone, cfg.NotifyProvider)
	assert.Equal(t, 10*time.Minute, cfg.RateLimitWindow())
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "Mongo")
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	t.Setenv("STORE_TIMEOUT", "3")
	t.Setenv("CAPTCHA_TIMEOUT", "1500ms")
	t.Setenv("ALLOWED_ORIGINS", "https://example.com, ,https://www.example.com")
	t.Setenv("APP_ENV", "production")
	t.Setenv("NOTIFY_PROVIDER", "sendgrid")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, StoreMongo, cfg.StoreDriver)
	assert.Equal(t, 3*time.Second, cfg.StoreTimeout)
	assert.Equal(t, 1500*time.Millisecond, cfg.CaptchaTimeout)
	assert.Equal(t, []string{"https://example.com", "https://www.example.com"}, cfg.AllowedOrigins)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, NotifySendGrid, cfg.NotifyProvider)
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"postgres without url", map[string]string{"STORE_DRIVER": "postgres", "DATABASE_URL": ""}},
		{"mongo without uri", map[string]string{"STORE_DRIVER": "mongo", "MONGODB_URI": ""}},
		{"unknown driver", map[string]string{"STORE_DRIVER": "sqlite"}},
		{"unknown notifier", map[string]string{"DATABASE_URL": "postgres://x", "NOTIFY_PROVIDER": "pigeon"}},
		{"zero limit", map[string]string{"DATABASE_URL": "postgres://x", "RATE_LIMIT_CONTACT_LIMIT": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}
