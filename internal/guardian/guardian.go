// Package guardian admits or rejects inbound events: it gates unarmed group
// chats, enforces permanent bans and detects floods with a sliding window.
package guardian

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	apperrors "github.com/edgard/renamerbot/internal/errors"
	"github.com/edgard/renamerbot/internal/logger"
	"github.com/edgard/renamerbot/internal/transport"
)

// Verdict is the outcome of Admit.
type Verdict int

const (
	// Allowed lets the event through.
	Allowed Verdict = iota
	// Armed lets the event through and reports that it activated its group.
	Armed
	// Ignored drops events from groups that were never activated.
	Ignored
	// Banned rejects events from a banned user.
	Banned
	// Flooded rejects the event that tripped the flood detector. The sender
	// is banned by the time it is returned.
	Flooded
)

func (v Verdict) String() string {
	switch v {
	case Allowed:
		return "allowed"
	case Armed:
		return "armed"
	case Ignored:
		return "ignored"
	case Banned:
		return "banned"
	case Flooded:
		return "flooded"
	default:
		return "unknown"
	}
}

// Admitted reports whether the event should be processed.
func (v Verdict) Admitted() bool {
	return v == Allowed || v == Armed
}

// Err converts a rejection into the application error taxonomy.
func (v Verdict) Err() error {
	switch v {
	case Banned:
		return apperrors.NewBannedError("user is banned")
	case Flooded:
		return apperrors.NewFloodedError("flood detected")
	default:
		return nil
	}
}

// FloodReason is the reason tag stored with flood bans.
const FloodReason = "flood"

// ActivationCommand arms a group chat when sent by one of its administrators.
const ActivationCommand = "/activate"

// Store is the durable side of the guardian: ban records and armed groups.
type Store interface {
	IsBanned(ctx context.Context, userID int64) (bool, error)
	Ban(ctx context.Context, userID int64, reason string) (bool, error)
	IsChatArmed(ctx context.Context, chatID int64) (bool, error)
	ArmChat(ctx context.Context, chatID, armedBy int64) error
}

// Config holds the flood policy.
type Config struct {
	Window    time.Duration
	Threshold int
	Shards    int
	AdminID   int64
	// AlertTemplate is sent to the admin after a flood ban. {user} and {id}
	// are replaced with the offender's name and id.
	AlertTemplate string
}

type shard struct {
	mu      sync.Mutex
	windows map[int64][]time.Time
	banned  map[int64]struct{}
}

// Guardian is safe for concurrent use. Its state is sharded by user id so
// different users do not contend on one lock.
type Guardian struct {
	cfg      Config
	store    Store
	notifier transport.Notifier
	clock    clockwork.Clock
	logger   *slog.Logger
	shards   []*shard

	armedMu sync.RWMutex
	armed   map[int64]struct{}
}

// Option configures a Guardian.
type Option func(*Guardian)

// WithClock overrides the clock used for flood windows.
func WithClock(clock clockwork.Clock) Option {
	return func(g *Guardian) {
		g.clock = clock
	}
}

// New creates a Guardian. notifier may be nil, in which case flood alerts are
// only logged.
func New(cfg Config, store Store, notifier transport.Notifier, log *slog.Logger, opts ...Option) *Guardian {
	if cfg.Shards <= 0 {
		cfg.Shards = 1
	}
	g := &Guardian{
		cfg:      cfg,
		store:    store,
		notifier: notifier,
		clock:    clockwork.NewRealClock(),
		logger:   logger.OrDiscard(log).With("component", "guardian"),
		shards:   make([]*shard, cfg.Shards),
		armed:    make(map[int64]struct{}),
	}
	for i := range g.shards {
		g.shards[i] = &shard{
			windows: make(map[int64][]time.Time),
			banned:  make(map[int64]struct{}),
		}
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Guardian) shardFor(userID int64) *shard {
	return g.shards[uint64(userID)%uint64(len(g.shards))]
}

// Admit classifies ev. Rejections terminate the event; callers must not
// process it further.
func (g *Guardian) Admit(ctx context.Context, ev transport.Event) Verdict {
	verdict := Allowed
	if ev.ChatKind == transport.ChatGroup {
		verdict = g.gateGroup(ctx, ev)
		if verdict == Ignored {
			return Ignored
		}
	}

	userID := ev.Sender.ID
	if g.isBanned(ctx, userID) {
		return Banned
	}
	if userID == g.cfg.AdminID {
		return verdict
	}
	if !g.record(userID) {
		return verdict
	}

	g.banFlooder(ctx, ev.Sender)
	return Flooded
}

// IsActivation reports whether text is the group activation command,
// optionally addressed to a bot as /activate@name.
func IsActivation(text string) bool {
	cmd, _, _ := strings.Cut(strings.TrimSpace(text), " ")
	cmd, _, _ = strings.Cut(cmd, "@")
	return cmd == ActivationCommand
}

func (g *Guardian) gateGroup(ctx context.Context, ev transport.Event) Verdict {
	if g.isArmed(ctx, ev.ChatID) {
		return Allowed
	}
	if !IsActivation(ev.Text) || !ev.SenderIsChatAdmin {
		return Ignored
	}
	if err := g.store.ArmChat(ctx, ev.ChatID, ev.Sender.ID); err != nil {
		g.logger.ErrorContext(ctx, "Failed to arm group", "chat_id", ev.ChatID, "error", err)
		return Ignored
	}
	g.armedMu.Lock()
	g.armed[ev.ChatID] = struct{}{}
	g.armedMu.Unlock()
	return Armed
}

func (g *Guardian) isArmed(ctx context.Context, chatID int64) bool {
	g.armedMu.RLock()
	_, ok := g.armed[chatID]
	g.armedMu.RUnlock()
	if ok {
		return true
	}

	armed, err := g.store.IsChatArmed(ctx, chatID)
	if err != nil {
		g.logger.WarnContext(ctx, "Armed lookup failed, ignoring group", "chat_id", chatID, "error", err)
		return false
	}
	if armed {
		g.armedMu.Lock()
		g.armed[chatID] = struct{}{}
		g.armedMu.Unlock()
	}
	return armed
}

// isBanned consults the cache first. A cache hit is authoritative; a miss
// falls through to the durable store and fills the cache on a positive answer.
// A failed lookup is treated as banned and is not cached.
func (g *Guardian) isBanned(ctx context.Context, userID int64) bool {
	s := g.shardFor(userID)
	s.mu.Lock()
	_, hit := s.banned[userID]
	s.mu.Unlock()
	if hit {
		return true
	}

	banned, err := g.store.IsBanned(ctx, userID)
	if err != nil {
		g.logger.WarnContext(ctx, "Ban lookup failed, rejecting event", "user_id", userID, "error", err)
		return true
	}
	if banned {
		g.cacheBan(userID)
	}
	return banned
}

func (g *Guardian) cacheBan(userID int64) {
	s := g.shardFor(userID)
	s.mu.Lock()
	s.banned[userID] = struct{}{}
	delete(s.windows, userID)
	s.mu.Unlock()
}

// record appends now to the user's window after evicting stale entries and
// reports whether the window exceeds the threshold.
func (g *Guardian) record(userID int64) bool {
	now := g.clock.Now()
	cutoff := now.Add(-g.cfg.Window)

	s := g.shardFor(userID)
	s.mu.Lock()
	defer s.mu.Unlock()

	window := s.windows[userID]
	i := 0
	for i < len(window) && !window[i].After(cutoff) {
		i++
	}
	window = append(window[i:], now)

	if len(window) > g.cfg.Threshold {
		delete(s.windows, userID)
		return true
	}
	s.windows[userID] = window
	return false
}

// banFlooder writes the ban durably before caching it, then alerts the admin
// once per new ban record.
func (g *Guardian) banFlooder(ctx context.Context, user transport.User) {
	inserted, err := g.store.Ban(ctx, user.ID, FloodReason)
	if err != nil {
		g.logger.ErrorContext(ctx, "Failed to persist flood ban", "user_id", user.ID, "error", err)
		return
	}
	g.cacheBan(user.ID)
	if !inserted {
		return
	}

	g.logger.WarnContext(ctx, "Flood detected, user banned", "user_id", user.ID,
		"threshold", g.cfg.Threshold, "window", g.cfg.Window)
	if g.notifier == nil || g.cfg.AdminID == 0 {
		return
	}
	if err := g.notifier.Notify(ctx, g.cfg.AdminID, g.alertText(user)); err != nil {
		g.logger.WarnContext(ctx, "Flood alert not delivered", "user_id", user.ID, "error", err)
	}
}

func (g *Guardian) alertText(user transport.User) string {
	tmpl := g.cfg.AlertTemplate
	if tmpl == "" {
		tmpl = "User {user} ({id}) was banned for flooding."
	}
	name := user.DisplayName
	if name == "" {
		name = strconv.FormatInt(user.ID, 10)
	}
	return strings.NewReplacer("{user}", name, "{id}", strconv.FormatInt(user.ID, 10)).Replace(tmpl)
}
