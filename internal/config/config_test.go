package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, "America/Sao_Paulo", cfg.BusinessTimezone)
	assert.Equal(t, time.Hour, cfg.ReminderInterval)
	assert.Equal(t, 7, cfg.PayableDueWindowDays)
	assert.False(t, cfg.CouponStrict)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("COUPON_STRICT", "true")
	t.Setenv("FINANCE_NOTIFY_EMAIL", "a@shop.test, b@shop.test ,")
	t.Setenv("REMINDER_INTERVAL", "15m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.True(t, cfg.CouponStrict)
	assert.Equal(t, 15*time.Minute, cfg.ReminderInterval)
	assert.Equal(t, []string{"a@shop.test", "b@shop.test"}, cfg.FinanceRecipients())
}

func TestLocation(t *testing.T) {
	cfg := &Config{BusinessTimezone: "America/Sao_Paulo"}
	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "America/Sao_Paulo", loc.String())

	cfg.BusinessTimezone = "Not/AZone"
	_, err = cfg.Location()
	assert.Error(t, err)
}
