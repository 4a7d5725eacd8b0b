package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"codeberg.org/mutker/sleepctl/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "sleepctl.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoad(t *testing.T) {
	configPath := writeConfig(t, `
wakeup_us = 5000000
cycles = 10
platform = "linux"
rtc_device = "rtc1"
sleep_state = "mem"
log_level = "debug"
metrics = true
metrics_db = "/path/to/cycles.db"
serial_port = "/dev/ttyUSB0"
serial_baud = 9600
`)

	// Set environment variable to point to the test config file
	t.Setenv("SLEEPCTL_CONFIG", configPath)

	cfg, err := config.Load(config.WithArgs(nil))
	require.NoError(t, err)

	assert.Equal(t, int64(5000000), cfg.WakeupUS, "Expected WakeupUS 5000000")
	assert.Equal(t, 5*time.Second, cfg.WakeupDuration())
	assert.Equal(t, 10, cfg.Cycles, "Expected Cycles 10")
	assert.Equal(t, "linux", cfg.Platform)
	assert.Equal(t, "rtc1", cfg.RTCDevice)
	assert.Equal(t, "mem", cfg.SleepState)
	assert.Equal(t, "debug", cfg.LogLevel, "Expected LogLevel debug")
	assert.True(t, cfg.Metrics, "Expected Metrics true")
	assert.Equal(t, "/path/to/cycles.db", cfg.MetricsDB)
	assert.Equal(t, "/dev/ttyUSB0", cfg.SerialPort)
	assert.Equal(t, 9600, cfg.SerialBaud)
}

func TestLoadDefaults(t *testing.T) {
	// Ensure no config file is used
	t.Setenv("SLEEPCTL_CONFIG", "")

	cfg, err := config.Load(config.WithArgs(nil), config.WithEnvPrefix("SLEEPCTL_TEST_DEFAULTS"))
	require.NoError(t, err, "Failed to load config")

	assert.Equal(t, int64(config.DefaultWakeupUS), cfg.WakeupUS, "Expected default wakeup of 3s")
	assert.Equal(t, 3*time.Second, cfg.WakeupDuration())
	assert.Equal(t, 0, cfg.Cycles, "Expected unbounded cycles")
	assert.Equal(t, config.DefaultPlatform, cfg.Platform)
	assert.Equal(t, config.DefaultSleepState, cfg.SleepState)
	assert.Equal(t, config.DefaultLogLevel, cfg.LogLevel, "Expected default LogLevel info")
	assert.False(t, cfg.Metrics, "Expected default Metrics false")
	assert.Equal(t, config.DefaultMetricsDB, cfg.MetricsDB)
	assert.Equal(t, config.DefaultSerialBaud, cfg.SerialBaud)
	assert.Empty(t, cfg.SerialPort)
}

func TestLoadConfigFileInvalidFormat(t *testing.T) {
	configPath := writeConfig(t, `
This is not a valid TOML file
`)
	t.Setenv("SLEEPCTL_CONFIG", configPath)

	_, err := config.Load(config.WithArgs(nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to read config file")
}

func TestInvalidLogLevel(t *testing.T) {
	configPath := writeConfig(t, `
log_level = "invalid"
`)
	t.Setenv("SLEEPCTL_CONFIG", configPath)

	_, err := config.Load(config.WithArgs(nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid log level")
}

func TestInvalidWakeup(t *testing.T) {
	t.Setenv("SLEEPCTL_CONFIG", "")

	_, err := config.Load(config.WithArgs([]string{"--wakeup-us", "0"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid wakeup interval")
}

func TestWakeupTooLargeForDuration(t *testing.T) {
	t.Setenv("SLEEPCTL_CONFIG", "")

	_, err := config.Load(config.WithArgs([]string{"--wakeup-us", "9300000000000000"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid wakeup interval")

	cfg, err := config.Load(config.WithArgs([]string{"--wakeup-us", "9223372036854775"}))
	require.NoError(t, err)
	assert.Positive(t, cfg.WakeupDuration())
}

func TestFlagsOverrideFile(t *testing.T) {
	configPath := writeConfig(t, `
wakeup_us = 5000000
platform = "sim"
`)

	cfg, err := config.Load(
		config.WithConfigFile(configPath),
		config.WithArgs([]string{"--wakeup-us", "1000000", "--early-wake", "0.25", "--log-level", "debug"}),
	)
	require.NoError(t, err)

	assert.Equal(t, int64(1000000), cfg.WakeupUS, "Expected flag to win over file")
	assert.InDelta(t, 0.25, cfg.EarlyWake, 1e-9)
	assert.Equal(t, "debug", cfg.LogLevel, "Expected LogLevel to be set by flag")
}

func TestEnvOverridesFile(t *testing.T) {
	configPath := writeConfig(t, `
cycles = 3
`)
	t.Setenv("SLEEPCTL_CONFIG", configPath)
	t.Setenv("SLEEPCTL_CYCLES", "7")

	cfg, err := config.Load(config.WithArgs(nil))
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Cycles)
}

func TestValidate(t *testing.T) {
	valid := func() config.Config {
		return config.Config{
			WakeupUS:   config.DefaultWakeupUS,
			Platform:   "sim",
			LogLevel:   "info",
			SerialBaud: config.DefaultSerialBaud,
		}
	}

	tests := []struct {
		name   string
		mutate func(*config.Config)
		errMsg string
	}{
		{"valid", func(*config.Config) {}, ""},
		{"negative cycles", func(c *config.Config) { c.Cycles = -1 }, "cycles must not be negative"},
		{"early wake above one", func(c *config.Config) { c.EarlyWake = 1.5 }, "early_wake must be between 0 and 1"},
		{"unknown platform", func(c *config.Config) { c.Platform = "esp32" }, "unknown platform esp32"},
		{"metrics without db", func(c *config.Config) { c.Metrics = true }, "metrics_db is required"},
		{"serial without baud", func(c *config.Config) { c.SerialPort = "/dev/ttyS0"; c.SerialBaud = 0 }, "serial_baud must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
