package config

import "time"

// Default values for configuration
const (
	DefaultLogLevel = "info"

	DefaultDBDriver = "sqlite"
	DefaultDBPath   = "storage.db"

	DefaultPollTimeout = 10 * time.Second
	DefaultMaxFileSize = 20 << 20 // Bot API getFile limit
	DefaultSendRate    = 30       // outbound messages per second, all chats

	DefaultFloodWindow    = 3 * time.Second
	DefaultFloodThreshold = 6
	DefaultGuardianShards = 64

	DefaultBroadcastMinInterval = 50 * time.Millisecond // ~20 messages per second

	DefaultMaxConcurrentUsers = 64
	DefaultOpTimeout          = 30 * time.Second

	DefaultSQLMaintenanceSchedule = "0 0 4 * * *"
	DefaultDailyStatsSchedule     = "0 0 9 * * *"
)

// DefaultMessages are the English texts of the rename flow and admin tools.
var DefaultMessages = MessagesConfig{
	Welcome:          "Hello! Send me a file and I will ask for a new name.\n\nForbidden characters: \\ / : * ? \" < > |",
	AskFile:          "Send the file:",
	AskName:          "Enter the new name:\n\nCurrent: {name}",
	Cancelled:        "Cancelled.",
	EmptyName:        "The name cannot be empty.",
	ReservedChars:    "These characters are not allowed: \\ / : * ? \" < > |",
	FileTooLarge:     "This file is too large to rename.",
	Done:             "Done!",
	DeliveryFailed:   "Could not deliver the renamed file. Please send the file again.",
	Caption:          "{name}\n\n@{bot}",
	Banned:           "You have been blocked for flooding.",
	FloodAlert:       "User {user} ({id}) was banned for flooding.",
	GroupActivated:   "The bot is now active in this group.",
	GroupActive:      "The bot is already active in this group.",
	Stats:            "Users: {total}\nActive: {active}\nSeen today: {today}\nBanned: {banned}",
	BroadcastAsk:     "Send the message or file to broadcast:",
	BroadcastConfirm: "Broadcast this to {count} users?\n\n{preview}",
	BroadcastStarted: "Broadcast {job} started.",
	BroadcastBusy:    "A broadcast is already running.",
	BroadcastIdle:    "No broadcast is running.",
	BroadcastStatus:  "Broadcast {job}: {attempted}/{total} attempted, {delivered} delivered, {unreachable} unreachable.",
	BroadcastSummary: "Broadcast {job} finished{cancelled}: attempted {attempted}, delivered {delivered}, unreachable {unreachable}.",
	GeneralError:     "An error occurred. Please try again later.",

	ButtonRename:    "Rename file",
	ButtonCancel:    "Cancel",
	ButtonStats:     "Statistics",
	ButtonBroadcast: "Broadcast",
	ButtonConfirm:   "Confirm",
}

// DefaultTasks enables both maintenance tasks on daily schedules.
var DefaultTasks = map[string]TaskConfig{
	"sql_maintenance": {Enabled: true, Schedule: DefaultSQLMaintenanceSchedule},
	"daily_stats":     {Enabled: true, Schedule: DefaultDailyStatsSchedule},
}
