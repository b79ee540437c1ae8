package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "0.10", cfg.TaxRate.StringFixed(2))
	require.Equal(t, "UTC", cfg.Location.String())
	require.Contains(t, cfg.NotificationTypes, "ORDER_STATUS")
	require.Equal(t, 120, cfg.RateLimitPerMinute)
	require.Equal(t, 7*24*time.Hour, cfg.IdempotencyRetention)
	require.Equal(t, "0 4 * * *", cfg.IdempotencyCleanupCron)
	require.False(t, cfg.IsProduction())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("TAX_RATE", " 0.0825 ")
	t.Setenv("REPORT_TIMEZONE", "Europe/Rome")
	t.Setenv("NOTIFICATION_TYPES", "order_status,ORDER_STATUS, reports")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.True(t, cfg.IsProduction())
	require.Equal(t, "0.0825", cfg.TaxRate.String())
	require.Equal(t, "Europe/Rome", cfg.Location.String())
	require.Equal(t, []string{"ORDER_STATUS", "REPORTS"}, cfg.NotificationTypes)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	cases := map[string][2]string{
		"tax not decimal":  {"TAX_RATE", "ten percent"},
		"tax out of range": {"TAX_RATE", "1"},
		"negative tax":     {"TAX_RATE", "-0.05"},
		"unknown timezone": {"REPORT_TIMEZONE", "Mars/Olympus"},
		"no notifications": {"NOTIFICATION_TYPES", " , "},
		"zero rate limit":  {"RATE_LIMIT_PER_MINUTE", "0"},
		"zero retention":   {"IDEMPOTENCY_RETENTION", "0s"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(env[0], env[1])
			_, err := LoadConfig()
			require.Error(t, err)
		})
	}
}
