// Package registry is the durable user registry shared by the guardian, the
// conversation machine and the broadcast dispatcher.
package registry

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/edgard/renamerbot/internal/database"
	"github.com/edgard/renamerbot/internal/logger"
	"github.com/edgard/renamerbot/internal/transport"
)

// Registry maps user ids to profiles, liveness and bans. It is safe for
// concurrent use; ordering of writes for one id is the caller's concern.
type Registry struct {
	store  database.Store
	clock  clockwork.Clock
	logger *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock overrides the clock used for last-seen and ban timestamps.
func WithClock(clock clockwork.Clock) Option {
	return func(r *Registry) {
		r.clock = clock
	}
}

// New creates a Registry over store.
func New(store database.Store, log *slog.Logger, opts ...Option) *Registry {
	r := &Registry{
		store:  store,
		clock:  clockwork.NewRealClock(),
		logger: logger.OrDiscard(log).With("component", "registry"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Upsert records an interaction from user. It creates the user on first
// contact and refreshes name and last-seen afterwards. Duplicates never fail.
func (r *Registry) Upsert(ctx context.Context, user transport.User) error {
	return r.store.UpsertUser(ctx, &database.User{
		ID:          user.ID,
		DisplayName: user.DisplayName,
		LastSeen:    r.clock.Now(),
	})
}

// MarkUnreachable deactivates a user. Deactivated users are kept but excluded
// from broadcasts.
func (r *Registry) MarkUnreachable(ctx context.Context, userID int64) error {
	if err := r.store.SetUnreachable(ctx, userID); err != nil {
		return err
	}
	r.logger.InfoContext(ctx, "User marked unreachable", "user_id", userID)
	return nil
}

// IsBanned reports whether userID has a durable ban.
func (r *Registry) IsBanned(ctx context.Context, userID int64) (bool, error) {
	return r.store.IsBanned(ctx, userID)
}

// Ban permanently bans userID. Banning twice keeps the first record and
// reports false.
func (r *Registry) Ban(ctx context.Context, userID int64, reason string) (bool, error) {
	inserted, err := r.store.InsertBan(ctx, database.Ban{
		UserID:   userID,
		Reason:   reason,
		BannedAt: r.clock.Now(),
	})
	if err != nil {
		return false, err
	}
	if inserted {
		r.logger.WarnContext(ctx, "User banned", "user_id", userID, "reason", reason)
	}
	return inserted, nil
}

// Snapshot is a point-in-time list of active, non-banned user ids. Later
// registry writes do not affect it and it can be iterated any number of times.
type Snapshot struct {
	ids   []int64
	taken time.Time
}

// IDs yields the snapshot's ids in ascending order.
func (s Snapshot) IDs() iter.Seq[int64] {
	return slices.Values(s.ids)
}

// Len returns the number of ids in the snapshot.
func (s Snapshot) Len() int {
	return len(s.ids)
}

// Taken returns when the snapshot was read.
func (s Snapshot) Taken() time.Time {
	return s.taken
}

// ActiveUserIDs reads the current broadcast audience.
func (r *Registry) ActiveUserIDs(ctx context.Context) (Snapshot, error) {
	ids, err := r.store.ListActiveIDs(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("snapshot active users: %w", err)
	}
	return Snapshot{ids: ids, taken: r.clock.Now()}, nil
}

// Predicate selects users for Count.
type Predicate = database.UserFilter

// All matches every registered user.
func All() Predicate {
	return Predicate{}
}

// Active matches users that are reachable and not banned.
func Active() Predicate {
	return Predicate{ActiveOnly: true, ExcludeBanned: true}
}

// SeenWithin matches users who interacted within d of now.
func (r *Registry) SeenWithin(d time.Duration) Predicate {
	return Predicate{SeenSince: r.clock.Now().Add(-d)}
}

// Count counts users matching p.
func (r *Registry) Count(ctx context.Context, p Predicate) (int, error) {
	return r.store.CountUsers(ctx, p)
}

// Stats is the admin statistics summary.
type Stats struct {
	Total  int `json:"total"`
	Active int `json:"active"`
	Today  int `json:"today"`
	Banned int `json:"banned"`
}

// Format fills a message template with {total}, {active}, {today} and
// {banned}.
func (s Stats) Format(tmpl string) string {
	return strings.NewReplacer(
		"{total}", strconv.Itoa(s.Total),
		"{active}", strconv.Itoa(s.Active),
		"{today}", strconv.Itoa(s.Today),
		"{banned}", strconv.Itoa(s.Banned),
	).Replace(tmpl)
}

// Stats gathers user totals, active users, users seen in the last 24 hours
// and banned users.
func (r *Registry) Stats(ctx context.Context) (Stats, error) {
	var (
		s   Stats
		err error
	)
	if s.Total, err = r.Count(ctx, All()); err != nil {
		return Stats{}, err
	}
	if s.Active, err = r.Count(ctx, Active()); err != nil {
		return Stats{}, err
	}
	if s.Today, err = r.Count(ctx, r.SeenWithin(24*time.Hour)); err != nil {
		return Stats{}, err
	}
	if s.Banned, err = r.store.CountBans(ctx); err != nil {
		return Stats{}, err
	}
	return s, nil
}

// ArmChat allows a group chat's events through the guardian.
func (r *Registry) ArmChat(ctx context.Context, chatID, armedBy int64) error {
	if err := r.store.ArmChat(ctx, database.ArmedChat{
		ChatID:  chatID,
		ArmedBy: armedBy,
		ArmedAt: r.clock.Now(),
	}); err != nil {
		return err
	}
	r.logger.InfoContext(ctx, "Group armed", "chat_id", chatID, "armed_by", armedBy)
	return nil
}

// IsChatArmed reports whether chatID has been activated.
func (r *Registry) IsChatArmed(ctx context.Context, chatID int64) (bool, error) {
	return r.store.IsChatArmed(ctx, chatID)
}

// Ping checks the underlying store.
func (r *Registry) Ping(ctx context.Context) error {
	return r.store.Ping(ctx)
}

// Maintain runs the store's compaction routine.
func (r *Registry) Maintain(ctx context.Context) error {
	return r.store.RunMaintenance(ctx)
}
