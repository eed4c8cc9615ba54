package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"APP_PORT", "APP_ENV", "LOG_LEVEL", "STORE_DRIVER", "SEED_FILE",
	"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSL_MODE", "DB_MAX_CONNS",
	"JWT_SECRET_KEY", "JWT_ACCESS_EXPIRATION_TIME", "CORS_ALLOWED_ORIGINS", "PUNCH_CONFIRM_WINDOW", "KPI_WORKERS",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET_KEY", "secret")
	t.Setenv("DB_PASSWORD", "pw")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, StoreDriverPostgres, cfg.Store.Driver)
	assert.Equal(t, 60*time.Second, cfg.Punch.ConfirmWindow)
	assert.Equal(t, 8, cfg.KPI.Workers)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.App.CORSAllowedOrigins)
	assert.Equal(t, "postgres://postgres:pw@localhost:5432/attendance?sslmode=disable", cfg.DatabaseURL())
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET_KEY", "secret")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("SEED_FILE", "seed.yaml")
	t.Setenv("PUNCH_CONFIRM_WINDOW", "2m")
	t.Setenv("KPI_WORKERS", "2")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StoreDriverMemory, cfg.Store.Driver)
	assert.Equal(t, 2*time.Minute, cfg.Punch.ConfirmWindow)
	assert.Equal(t, 2, cfg.KPI.Workers)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.App.CORSAllowedOrigins)
}

func TestLoad_Invalid(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
	}{
		{"missing secret", map[string]string{"DB_PASSWORD": "pw"}},
		{"unknown driver", map[string]string{"JWT_SECRET_KEY": "s", "STORE_DRIVER": "redis"}},
		{"memory without seed", map[string]string{"JWT_SECRET_KEY": "s", "STORE_DRIVER": "memory"}},
		{"bad window", map[string]string{"JWT_SECRET_KEY": "s", "DB_PASSWORD": "pw", "PUNCH_CONFIRM_WINDOW": "soon"}},
		{"no workers", map[string]string{"JWT_SECRET_KEY": "s", "DB_PASSWORD": "pw", "KPI_WORKERS": "0"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

const seedYAML = `
organizations:
  - id: org-1
    name: Acme
    timezone: Asia/Jakarta
    day_start: "08:30"
    lateness_grace_minutes: 5
    holidays: ["2024-03-11"]
    default_geofence: {lat: -6.2, lng: 106.8, radius_meters: 150}
    daily_minimum_minutes: 480
    weekly_minimum_minutes: 2400
members:
  - {user_id: u1, org_id: org-1, team_id: eng, name: Ayu}
  - {user_id: u2, org_id: org-1, name: Budi}
`

func writeSeed(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadSeed(t *testing.T) {
	seed, err := LoadSeed(writeSeed(t, seedYAML))
	require.NoError(t, err)

	orgs, err := seed.OrganizationList()
	require.NoError(t, err)
	require.Len(t, orgs, 1)
	org := orgs[0]
	assert.Equal(t, 8, org.WorkdayHours)
	assert.Equal(t, 8, org.DayStartHour)
	assert.Equal(t, 30, org.DayStartMinute)
	assert.Equal(t, []string{"2024-03-11"}, org.Holidays)
	require.NotNil(t, org.DefaultGeofence)
	assert.Equal(t, 150.0, org.DefaultGeofence.RadiusMeters)

	members := seed.MemberList()
	require.Len(t, members, 2)
	require.NotNil(t, members[0].TeamID)
	assert.Equal(t, "eng", *members[0].TeamID)
	assert.Nil(t, members[1].TeamID)
}

func TestLoadSeed_Invalid(t *testing.T) {
	cases := map[string]string{
		"bad timezone":  "organizations:\n  - {id: o, timezone: Mars/Base}\n",
		"bad day start": "organizations:\n  - {id: o, timezone: UTC, day_start: '25:00'}\n",
		"unknown org":   "organizations:\n  - {id: o, timezone: UTC}\nmembers:\n  - {user_id: u, org_id: x}\n",
		"not yaml":      "organizations: [",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadSeed(writeSeed(t, content))
			assert.Error(t, err)
		})
	}

	_, err := LoadSeed(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
