package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roadassist/portal/internal/navigation"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("SESSION_SECRET", "session")
	t.Setenv("CSRF_SECRET", "csrf")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, AuthModeBackend, cfg.AuthMode)
	assert.Equal(t, navigation.DefaultPrimaryItems, cfg.NavPrimaryItems)
	assert.Equal(t, 60, cfg.RateLimitPerMinute)
	assert.Equal(t, 10*time.Second, cfg.BackendTimeout)
	assert.False(t, cfg.IsProduction())
	assert.False(t, cfg.DirectoryMode())
}

func TestLoadConfigNavPrimaryItems(t *testing.T) {
	setRequiredEnv(t)

	t.Setenv("NAV_PRIMARY_ITEMS", "3")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.NavPrimaryItems)

	t.Setenv("NAV_PRIMARY_ITEMS", "0")
	_, err = LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nav primary items")
}

func TestLoadConfigDirectoryModeNeedsJWTSecret(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("AUTH_MODE", "directory")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt secret")

	t.Setenv("JWT_SECRET", "signing-key")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.DirectoryMode())
	assert.Equal(t, 12*time.Hour, cfg.JWTTTL)
}

func TestConfigValidate(t *testing.T) {
	base := func() Config {
		return Config{
			SessionSecret:      "s",
			CSRFSecret:         "c",
			AuthMode:           AuthModeBackend,
			BackendURL:         "http://backend",
			NavPrimaryItems:    5,
			RateLimitPerMinute: 60,
		}
	}

	cases := map[string]struct {
		mutate  func(*Config)
		wantErr string
	}{
		"valid":              {mutate: func(*Config) {}},
		"missing session":    {mutate: func(c *Config) { c.SessionSecret = "" }, wantErr: "session secret"},
		"missing csrf":       {mutate: func(c *Config) { c.CSRFSecret = "" }, wantErr: "csrf secret"},
		"unknown mode":       {mutate: func(c *Config) { c.AuthMode = "ldap" }, wantErr: "unknown auth mode"},
		"backend no url":     {mutate: func(c *Config) { c.BackendURL = "" }, wantErr: "backend url"},
		"zero nav items":     {mutate: func(c *Config) { c.NavPrimaryItems = 0 }, wantErr: "nav primary items"},
		"negative limit":     {mutate: func(c *Config) { c.RateLimitPerMinute = -1 }, wantErr: "rate limit"},
		"rate limit off":     {mutate: func(c *Config) { c.RateLimitPerMinute = 0 }},
		"directory no pg":    {mutate: func(c *Config) { c.AuthMode, c.JWTSecret, c.JWTTTL, c.PGDSN = AuthModeDirectory, "k", time.Hour, "" }, wantErr: "postgres dsn"},
		"directory zero ttl": {mutate: func(c *Config) { c.AuthMode, c.JWTSecret, c.PGDSN = AuthModeDirectory, "k", "postgres://x" }, wantErr: "jwt ttl"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := base()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestIsProductionNilSafe(t *testing.T) {
	var cfg *Config
	assert.False(t, cfg.IsProduction())
	assert.False(t, cfg.DirectoryMode())
	assert.True(t, (&Config{AppEnv: "production"}).IsProduction())
}
