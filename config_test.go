package filecache

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name  string
		cfg   Config
		field string
	}{
		{"default", DefaultConfig(), ""},
		{"zero", Config{}, ""},
		{"min equals soft", Config{MinElements: 5, SoftLimit: 5}, ""},
		{"soft equals hard", Config{SoftLimit: 5, HardLimit: 5}, ""},
		{"no hard limit", Config{MinElements: 2, SoftLimit: 50}, ""},
		{"negative min", Config{MinElements: -1}, "MinElements"},
		{"negative soft", Config{SoftLimit: -1}, "SoftLimit"},
		{"negative hard", Config{HardLimit: -1}, "HardLimit"},
		{"negative period", Config{Period: -time.Second}, "Period"},
		{"negative delay", Config{ScheduleDelay: -time.Second}, "ScheduleDelay"},
		{"negative closes", Config{MaxConcurrentCloses: -1}, "MaxConcurrentCloses"},
		{"negative rate", Config{OpenRateLimit: -1}, "OpenRateLimit"},
		{"min above soft", Config{MinElements: 6, SoftLimit: 5}, "MinElements"},
		{"soft above hard", Config{SoftLimit: 11, HardLimit: 10}, "SoftLimit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var cfgErr *ErrInvalidConfig
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestConfigFromEnv_Defaults(t *testing.T) {
	cfg, err := ConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("FILECACHE_MIN_ELEMENTS", "4")
	t.Setenv("FILECACHE_SOFT_LIMIT", "8")
	t.Setenv("FILECACHE_HARD_LIMIT", "16")
	t.Setenv("FILECACHE_PERIOD", "1m")
	t.Setenv("FILECACHE_OPEN_RATE_LIMIT", "2.5")

	cfg, err := ConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.MinElements)
	assert.Equal(t, 8, cfg.SoftLimit)
	assert.Equal(t, 16, cfg.HardLimit)
	assert.Equal(t, time.Minute, cfg.Period)
	assert.Equal(t, DefaultScheduleDelay, cfg.ScheduleDelay)
	assert.InDelta(t, 2.5, cfg.OpenRateLimit, 1e-9)
}

func TestConfigFromEnv_Invalid(t *testing.T) {
	t.Run("unparsable", func(t *testing.T) {
		t.Setenv("FILECACHE_SOFT_LIMIT", "twenty")
		_, err := ConfigFromEnv()
		require.Error(t, err)
		assert.True(t, strings.HasPrefix(err.Error(), "parse config: "), err.Error())
		assert.ErrorContains(t, errors.Unwrap(err), "twenty")
	})

	t.Run("ordering", func(t *testing.T) {
		t.Setenv("FILECACHE_MIN_ELEMENTS", "30")
		_, err := ConfigFromEnv()
		var cfgErr *ErrInvalidConfig
		assert.ErrorAs(t, err, &cfgErr)
	})
}

func TestConfigFromEnv_DotEnvFile(t *testing.T) {
	// godotenv writes into the process environment. t.Setenv restores it.
	for _, k := range []string{"FILECACHE_SOFT_LIMIT", "FILECACHE_HARD_LIMIT"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}

	path := filepath.Join(t.TempDir(), "cache.env")
	require.NoError(t, os.WriteFile(path, []byte("FILECACHE_MIN_ELEMENTS=5\nFILECACHE_SOFT_LIMIT=40\nFILECACHE_HARD_LIMIT=80\n"), 0o600))

	t.Setenv("FILECACHE_MIN_ELEMENTS", "3")
	cfg, err := ConfigFromEnv(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.MinElements, "environment wins over the file")
	assert.Equal(t, 40, cfg.SoftLimit)
	assert.Equal(t, 80, cfg.HardLimit)

	_, err = ConfigFromEnv(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}
