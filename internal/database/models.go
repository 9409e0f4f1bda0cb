package database

import "time"

// User is a registered bot user. Users are never deleted; Active turns false
// once a delivery proves them unreachable.
type User struct {
	ID          int64
	DisplayName string
	Active      bool
	CreatedAt   time.Time
	LastSeen    time.Time
}

// Ban is a permanent ban record. It has no un-ban counterpart.
type Ban struct {
	UserID   int64
	Reason   string
	BannedAt time.Time
}

// ArmedChat is a group chat whose events the bot processes.
type ArmedChat struct {
	ChatID  int64
	ArmedBy int64
	ArmedAt time.Time
}

// UserFilter selects users for CountUsers. The zero value counts everyone.
type UserFilter struct {
	ActiveOnly    bool
	ExcludeBanned bool
	SeenSince     time.Time
}

// userRow is the SQL representation of User; timestamps are unix seconds.
type userRow struct {
	ID          int64  `db:"id"`
	DisplayName string `db:"display_name"`
	Active      bool   `db:"active"`
	CreatedAt   int64  `db:"created_at"`
	LastSeen    int64  `db:"last_seen"`
}

type banRow struct {
	UserID   int64  `db:"user_id"`
	Reason   string `db:"reason"`
	BannedAt int64  `db:"banned_at"`
}

type armedChatRow struct {
	ChatID  int64 `db:"chat_id"`
	ArmedBy int64 `db:"armed_by"`
	ArmedAt int64 `db:"armed_at"`
}

func unixOrNow(t time.Time) int64 {
	if t.IsZero() {
		return time.Now().UTC().Unix()
	}
	return t.UTC().Unix()
}
