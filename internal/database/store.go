package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Store defines the durable operations backing the user registry.
// Methods accept context.Context for cancellation and timeouts.
type Store interface {
	// Ping checks the backend connection.
	Ping(ctx context.Context) error

	// UpsertUser inserts a user or refreshes display name and last seen time.
	// It never touches the active flag of an existing user.
	UpsertUser(ctx context.Context, user *User) error

	// SetUnreachable clears the active flag. Unknown ids are a no-op.
	SetUnreachable(ctx context.Context, userID int64) error

	// IsBanned reports whether a ban record exists for the user.
	IsBanned(ctx context.Context, userID int64) (bool, error)

	// InsertBan stores a ban unless one already exists. It reports whether a
	// new record was written.
	InsertBan(ctx context.Context, ban Ban) (bool, error)

	// ListActiveIDs returns the ids of active, non-banned users in ascending order.
	ListActiveIDs(ctx context.Context) ([]int64, error)

	// CountUsers counts users matching filter.
	CountUsers(ctx context.Context, filter UserFilter) (int, error)

	// CountBans counts ban records.
	CountBans(ctx context.Context) (int, error)

	// ArmChat records a group as activated. Re-arming is a no-op.
	ArmChat(ctx context.Context, chat ArmedChat) error

	// IsChatArmed reports whether a group has been activated.
	IsChatArmed(ctx context.Context, chatID int64) (bool, error)

	// RunMaintenance compacts the backend.
	RunMaintenance(ctx context.Context) error

	// Close releases the backend.
	Close() error
}

// Drivers accepted by Open.
const (
	DriverSQLite = "sqlite"
	DriverBadger = "badger"
)

// Open initializes the store selected by driver at path.
func Open(driver, path string, logger *slog.Logger) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", DriverSQLite:
		db, err := NewDB(path)
		if err != nil {
			return nil, err
		}
		return NewStore(db, logger), nil
	case DriverBadger:
		return OpenBadgerStore(path, logger)
	default:
		return nil, fmt.Errorf("unknown storage driver: %s", driver)
	}
}
