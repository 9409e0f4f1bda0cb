// Package tasks implements the bot's scheduled maintenance and reporting tasks.
package tasks

import (
	"log/slog"

	"github.com/edgard/renamerbot/internal/config"
	"github.com/edgard/renamerbot/internal/registry"
	"github.com/edgard/renamerbot/internal/transport"
)

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger   *slog.Logger
	Registry *registry.Registry
	Notifier transport.Notifier
	Config   *config.Config
}
