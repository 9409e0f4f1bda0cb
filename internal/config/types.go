// Package config manages application configuration from environment variables,
// config files, and default values.
package config

import (
	"errors"
	"time"
)

// ErrConfiguration marks every failure to produce a usable configuration.
// It is fatal at startup and nowhere else.
var ErrConfiguration = errors.New("configuration error")

// Config defines the application configuration. Values can be set via environment
// variables prefixed with BOT_ (e.g., BOT_TELEGRAM_TOKEN) or through config.yaml.
type Config struct {
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Guardian  GuardianConfig  `mapstructure:"guardian"`
	Broadcast BroadcastConfig `mapstructure:"broadcast"`
	Engine    EngineConfig    `mapstructure:"engine"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Ops       OpsConfig       `mapstructure:"ops"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Messages  MessagesConfig  `mapstructure:"messages"`
}

// TelegramConfig holds the bot credentials and the single administrator identity.
type TelegramConfig struct {
	Token       string        `mapstructure:"token"         validate:"required"`
	AdminID     int64         `mapstructure:"admin_id"      validate:"required,gt=0"`
	BotUsername string        `mapstructure:"bot_username"`
	PollTimeout time.Duration `mapstructure:"poll_timeout"  validate:"min=1s,max=1m"`
	MaxFileSize int64         `mapstructure:"max_file_size" validate:"gt=0"`
	SendRate    float64       `mapstructure:"send_rate"     validate:"gte=0"`
}

// DatabaseConfig selects the durable store backing the user registry.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver" validate:"required,oneof=sqlite badger"`
	Path   string `mapstructure:"path"   validate:"required"`
}

// GuardianConfig tunes flood detection.
type GuardianConfig struct {
	FloodWindow    time.Duration `mapstructure:"flood_window"    validate:"min=100ms,max=1h"`
	FloodThreshold int           `mapstructure:"flood_threshold" validate:"min=1"`
	Shards         int           `mapstructure:"shards"          validate:"min=1,max=4096"`
}

// BroadcastConfig sets the dispatcher's outbound throttle.
type BroadcastConfig struct {
	MinInterval time.Duration `mapstructure:"min_interval" validate:"min=1ms,max=1m"`
}

// EngineConfig bounds the event facade.
type EngineConfig struct {
	MaxConcurrentUsers int           `mapstructure:"max_concurrent_users" validate:"min=1"`
	OpTimeout          time.Duration `mapstructure:"op_timeout"           validate:"min=1s,max=10m"`
}

// TaskConfig enables a scheduled task on a cron schedule.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// SchedulerConfig maps task names to their schedules.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks"`
}

// OpsConfig configures the operational HTTP endpoint. An empty address disables it.
type OpsConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
}

// LoggerConfig controls log level and output format.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// MessagesConfig holds every user-visible string.
type MessagesConfig struct {
	Welcome          string `mapstructure:"welcome"           validate:"required"`
	AskFile          string `mapstructure:"ask_file"          validate:"required"`
	AskName          string `mapstructure:"ask_name"          validate:"required"`
	Cancelled        string `mapstructure:"cancelled"         validate:"required"`
	EmptyName        string `mapstructure:"empty_name"        validate:"required"`
	ReservedChars    string `mapstructure:"reserved_chars"    validate:"required"`
	FileTooLarge     string `mapstructure:"file_too_large"    validate:"required"`
	Done             string `mapstructure:"done"              validate:"required"`
	DeliveryFailed   string `mapstructure:"delivery_failed"   validate:"required"`
	Caption          string `mapstructure:"caption"           validate:"required"`
	Banned           string `mapstructure:"banned"            validate:"required"`
	FloodAlert       string `mapstructure:"flood_alert"       validate:"required"`
	GroupActivated   string `mapstructure:"group_activated"   validate:"required"`
	GroupActive      string `mapstructure:"group_active"      validate:"required"`
	Stats            string `mapstructure:"stats"             validate:"required"`
	BroadcastAsk     string `mapstructure:"broadcast_ask"     validate:"required"`
	BroadcastConfirm string `mapstructure:"broadcast_confirm" validate:"required"`
	BroadcastStarted string `mapstructure:"broadcast_started" validate:"required"`
	BroadcastBusy    string `mapstructure:"broadcast_busy"    validate:"required"`
	BroadcastIdle    string `mapstructure:"broadcast_idle"    validate:"required"`
	BroadcastStatus  string `mapstructure:"broadcast_status"  validate:"required"`
	BroadcastSummary string `mapstructure:"broadcast_summary" validate:"required"`
	GeneralError     string `mapstructure:"general_error"     validate:"required"`

	ButtonRename    string `mapstructure:"button_rename"    validate:"required"`
	ButtonCancel    string `mapstructure:"button_cancel"    validate:"required"`
	ButtonStats     string `mapstructure:"button_stats"     validate:"required"`
	ButtonBroadcast string `mapstructure:"button_broadcast" validate:"required"`
	ButtonConfirm   string `mapstructure:"button_confirm"   validate:"required"`
}
