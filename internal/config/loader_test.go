package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
telegram:
  token: "123:abc"
  admin_id: 42
  bot_username: RenamerBot
guardian:
  flood_threshold: 10
  flood_window: 5s
database:
  driver: badger
  path: /tmp/renamer
messages:
  done: "All set"
scheduler:
  tasks:
    daily_stats:
      enabled: false
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "123:abc", cfg.Telegram.Token)
	require.EqualValues(t, 42, cfg.Telegram.AdminID)
	require.Equal(t, "RenamerBot", cfg.Telegram.BotUsername)
	require.Equal(t, 10, cfg.Guardian.FloodThreshold)
	require.Equal(t, 5*time.Second, cfg.Guardian.FloodWindow)
	require.Equal(t, DefaultGuardianShards, cfg.Guardian.Shards)
	require.Equal(t, "badger", cfg.Database.Driver)
	require.Equal(t, DefaultBroadcastMinInterval, cfg.Broadcast.MinInterval)
	require.Equal(t, float64(DefaultSendRate), cfg.Telegram.SendRate)
	require.Equal(t, "All set", cfg.Messages.Done)
	require.Equal(t, DefaultMessages.Welcome, cfg.Messages.Welcome)
	require.False(t, cfg.Scheduler.Tasks["daily_stats"].Enabled)
	require.True(t, cfg.Scheduler.Tasks["sql_maintenance"].Enabled)
}

func TestLoad_EnvironmentProvidesCredentials(t *testing.T) {
	t.Setenv("BOT_TOKEN", "env-token")
	t.Setenv("BOT_ADMIN_ID", "7")
	t.Setenv("BOT_GUARDIAN_FLOOD_THRESHOLD", "3")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, "env-token", cfg.Telegram.Token)
	require.EqualValues(t, 7, cfg.Telegram.AdminID)
	require.Equal(t, 3, cfg.Guardian.FloodThreshold)
}

func TestLoad_MissingCredentialsIsConfigurationError(t *testing.T) {
	path := writeConfig(t, "logger:\n  level: debug\n")

	_, err := Load(path)
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := func() *Config {
		cfg := newDefaultConfig()
		cfg.Telegram = TelegramConfig{Token: "t", AdminID: 1, PollTimeout: DefaultPollTimeout, MaxFileSize: DefaultMaxFileSize, SendRate: DefaultSendRate}
		cfg.Database = DatabaseConfig{Driver: DefaultDBDriver, Path: DefaultDBPath}
		cfg.Guardian = GuardianConfig{FloodWindow: DefaultFloodWindow, FloodThreshold: DefaultFloodThreshold, Shards: DefaultGuardianShards}
		cfg.Broadcast = BroadcastConfig{MinInterval: DefaultBroadcastMinInterval}
		cfg.Engine = EngineConfig{MaxConcurrentUsers: DefaultMaxConcurrentUsers, OpTimeout: DefaultOpTimeout}
		cfg.Logger = LoggerConfig{Level: DefaultLogLevel}
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(*Config) {}, false},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }, true},
		{"zero threshold", func(c *Config) { c.Guardian.FloodThreshold = 0 }, true},
		{"missing admin", func(c *Config) { c.Telegram.AdminID = 0 }, true},
		{"bad log level", func(c *Config) { c.Logger.Level = "verbose" }, true},
		{"uncapped send rate", func(c *Config) { c.Telegram.SendRate = 0 }, false},
		{"negative send rate", func(c *Config) { c.Telegram.SendRate = -1 }, true},
		{"enabled task without schedule", func(c *Config) {
			c.Scheduler.Tasks["daily_stats"] = TaskConfig{Enabled: true}
		}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := valid()
			tc.mutate(cfg)
			err := Validate(cfg)
			if tc.wantErr {
				require.ErrorIs(t, err, ErrConfiguration)
				return
			}
			require.NoError(t, err)
		})
	}
}
