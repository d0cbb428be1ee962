package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_DefaultsAndEnv(t *testing.T) {
	t.Setenv("BOOKING_DB_PASSWORD", "s3cret")
	t.Setenv("BOOKING_JWT_SECRET", "jwt-secret")

	path := writeConfig(t, `
database:
  host: localhost
  user: booking
  password: ${BOOKING_DB_PASSWORD}
  name: booking
auth:
  jwt_secret: ${BOOKING_JWT_SECRET}
booking:
  timezone: Asia/Jakarta
reminder:
  interval: 30s
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.Database.Password)
	assert.Equal(t, "jwt-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, ":8080", cfg.HTTP.Address)
	assert.Equal(t, 30*time.Second, cfg.Reminder.Interval)
	assert.Equal(t, time.Hour, cfg.Reminder.Window)
	assert.Equal(t, 30*time.Second, cfg.Reminder.LockTTL)
	assert.Equal(t, "booking-events", cfg.Kafka.BookingEventsTopic)
	assert.False(t, cfg.Kafka.Enabled())
	assert.False(t, cfg.Redis.Enabled())

	loc, err := cfg.Booking.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Jakarta", loc.String())
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := writeConfig(t, `
database:
  host: ""
booking:
  timezone: Mars/Olympus
`)

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.host is required")
	assert.Contains(t, err.Error(), "auth.jwt_secret is required")
	assert.Contains(t, err.Error(), "Mars/Olympus")
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5433, User: "u", Password: "p", Name: "n", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=n sslmode=disable", d.DSN())
}
