package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"maps"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load loads and validates configuration from:
// 1. Default values
// 2. the YAML file at path (optional)
// 3. a .env file in the working directory (optional)
// 4. BOT_* environment variables
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: failed to load .env file: %v", ErrConfiguration, err)
	}

	v := viper.New()
	setDefaults(v)

	if err := readConfig(v, path); err != nil {
		return nil, fmt.Errorf("%w: failed to load config file: %v", ErrConfiguration, err)
	}

	cfg := newDefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrConfiguration, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	slog.Debug("configuration loaded",
		"path", path,
		"db_driver", cfg.Database.Driver,
		"flood_window", cfg.Guardian.FloodWindow,
		"flood_threshold", cfg.Guardian.FloodThreshold,
		"broadcast_min_interval", cfg.Broadcast.MinInterval)

	return cfg, nil
}

// Validate checks struct constraints and wraps failures in ErrConfiguration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: config is nil", ErrConfiguration)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	for name, task := range cfg.Scheduler.Tasks {
		if task.Enabled && strings.TrimSpace(task.Schedule) == "" {
			return fmt.Errorf("%w: scheduler task %q is enabled without a schedule", ErrConfiguration, name)
		}
	}
	return nil
}

// readConfig initializes the file and environment sources of v.
func readConfig(v *viper.Viper, path string) error {
	v.SetEnvPrefix("BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Required keys have no default, so AutomaticEnv cannot discover them.
	// BOT_TOKEN and BOT_ADMIN_ID are accepted as short forms.
	_ = v.BindEnv("telegram.token", "BOT_TELEGRAM_TOKEN", "BOT_TOKEN")
	_ = v.BindEnv("telegram.admin_id", "BOT_TELEGRAM_ADMIN_ID", "BOT_ADMIN_ID")
	_ = v.BindEnv("telegram.bot_username", "BOT_TELEGRAM_BOT_USERNAME")
	_ = v.BindEnv("ops.listen_addr", "BOT_OPS_LISTEN_ADDR")

	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			slog.Info("configuration file not found, using defaults", "path", path)
			return nil
		}
		return err
	}
	return nil
}

// setDefaults sets default values for optional configuration parameters
func setDefaults(v *viper.Viper) {
	v.SetDefault("telegram.poll_timeout", DefaultPollTimeout)
	v.SetDefault("telegram.max_file_size", DefaultMaxFileSize)
	v.SetDefault("telegram.send_rate", DefaultSendRate)

	v.SetDefault("database.driver", DefaultDBDriver)
	v.SetDefault("database.path", DefaultDBPath)

	v.SetDefault("guardian.flood_window", DefaultFloodWindow)
	v.SetDefault("guardian.flood_threshold", DefaultFloodThreshold)
	v.SetDefault("guardian.shards", DefaultGuardianShards)

	v.SetDefault("broadcast.min_interval", DefaultBroadcastMinInterval)

	v.SetDefault("engine.max_concurrent_users", DefaultMaxConcurrentUsers)
	v.SetDefault("engine.op_timeout", DefaultOpTimeout)

	v.SetDefault("logger.level", DefaultLogLevel)
	v.SetDefault("logger.json", true)
}

// newDefaultConfig returns a config prefilled with the values viper has no
// scalar default for.
func newDefaultConfig() *Config {
	return &Config{
		Scheduler: SchedulerConfig{Tasks: maps.Clone(DefaultTasks)},
		Messages:  DefaultMessages,
	}
}
