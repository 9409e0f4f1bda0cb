package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	apperrors "github.com/edgard/renamerbot/internal/errors"
	"github.com/edgard/renamerbot/internal/logger"
)

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
// It requires a connected sqlx.DB instance with migrations applied.
func NewStore(db *sqlx.DB, log *slog.Logger) Store {
	return &sqlxStore{
		db:     db,
		logger: logger.OrDiscard(log).With("component", "store"),
	}
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// UpsertUser inserts a new user or refreshes display name and last seen.
func (s *sqlxStore) UpsertUser(ctx context.Context, user *User) error {
	if user == nil {
		return fmt.Errorf("cannot upsert nil user")
	}
	if user.ID == 0 {
		return fmt.Errorf("user must have a non-zero id")
	}

	seen := unixOrNow(user.LastSeen)
	row := userRow{
		ID:          user.ID,
		DisplayName: user.DisplayName,
		Active:      true,
		CreatedAt:   seen,
		LastSeen:    seen,
	}

	query := `
		INSERT INTO users (id, display_name, active, created_at, last_seen)
		VALUES (:id, :display_name, :active, :created_at, :last_seen)
		ON CONFLICT(id) DO UPDATE SET
			display_name = excluded.display_name,
			last_seen = excluded.last_seen`

	if _, err := s.db.NamedExecContext(ctx, query, row); err != nil {
		s.logger.ErrorContext(ctx, "Failed to upsert user", "user_id", user.ID, "error", err)
		return apperrors.NewDatabaseError("failed to upsert user", err)
	}
	return nil
}

// SetUnreachable marks a user inactive.
func (s *sqlxStore) SetUnreachable(ctx context.Context, userID int64) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE users SET active = 0 WHERE id = ?`, userID); err != nil {
		s.logger.ErrorContext(ctx, "Failed to mark user unreachable", "user_id", userID, "error", err)
		return apperrors.NewDatabaseError("failed to mark user unreachable", err)
	}
	return nil
}

// IsBanned reports whether a ban record exists for userID.
func (s *sqlxStore) IsBanned(ctx context.Context, userID int64) (bool, error) {
	var row banRow
	err := s.db.GetContext(ctx, &row, `SELECT user_id, reason, banned_at FROM bans WHERE user_id = ?`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to look up ban", "user_id", userID, "error", err)
		return false, apperrors.NewDatabaseError("failed to look up ban", err)
	}
	return true, nil
}

// InsertBan writes a ban record unless one already exists.
func (s *sqlxStore) InsertBan(ctx context.Context, ban Ban) (bool, error) {
	if ban.UserID == 0 {
		return false, fmt.Errorf("ban must have a non-zero user_id")
	}
	row := banRow{
		UserID:   ban.UserID,
		Reason:   ban.Reason,
		BannedAt: unixOrNow(ban.BannedAt),
	}

	res, err := s.db.NamedExecContext(ctx,
		`INSERT OR IGNORE INTO bans (user_id, reason, banned_at) VALUES (:user_id, :reason, :banned_at)`, row)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to insert ban", "user_id", ban.UserID, "error", err)
		return false, apperrors.NewDatabaseError("failed to insert ban", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, apperrors.NewDatabaseError("failed to read ban result", err)
	}
	return affected > 0, nil
}

// ListActiveIDs returns active, non-banned user ids ordered ascending.
func (s *sqlxStore) ListActiveIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	query := `
		SELECT u.id FROM users u
		WHERE u.active = 1
		  AND NOT EXISTS (SELECT 1 FROM bans b WHERE b.user_id = u.id)
		ORDER BY u.id ASC`
	if err := s.db.SelectContext(ctx, &ids, query); err != nil {
		s.logger.ErrorContext(ctx, "Failed to list active users", "error", err)
		return nil, apperrors.NewDatabaseError("failed to list active users", err)
	}
	return ids, nil
}

// CountUsers counts users matching filter.
func (s *sqlxStore) CountUsers(ctx context.Context, filter UserFilter) (int, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.ActiveOnly {
		clauses = append(clauses, "u.active = 1")
	}
	if filter.ExcludeBanned {
		clauses = append(clauses, "NOT EXISTS (SELECT 1 FROM bans b WHERE b.user_id = u.id)")
	}
	if !filter.SeenSince.IsZero() {
		clauses = append(clauses, "u.last_seen >= ?")
		args = append(args, filter.SeenSince.UTC().Unix())
	}

	query := "SELECT COUNT(*) FROM users u"
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	var count int
	if err := s.db.GetContext(ctx, &count, query, args...); err != nil {
		s.logger.ErrorContext(ctx, "Failed to count users", "error", err)
		return 0, apperrors.NewDatabaseError("failed to count users", err)
	}
	return count, nil
}

// CountBans counts ban records.
func (s *sqlxStore) CountBans(ctx context.Context) (int, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM bans`); err != nil {
		s.logger.ErrorContext(ctx, "Failed to count bans", "error", err)
		return 0, apperrors.NewDatabaseError("failed to count bans", err)
	}
	return count, nil
}

// ArmChat records chat.ChatID as activated.
func (s *sqlxStore) ArmChat(ctx context.Context, chat ArmedChat) error {
	row := armedChatRow{
		ChatID:  chat.ChatID,
		ArmedBy: chat.ArmedBy,
		ArmedAt: unixOrNow(chat.ArmedAt),
	}
	if _, err := s.db.NamedExecContext(ctx,
		`INSERT OR IGNORE INTO armed_chats (chat_id, armed_by, armed_at) VALUES (:chat_id, :armed_by, :armed_at)`, row); err != nil {
		s.logger.ErrorContext(ctx, "Failed to arm chat", "chat_id", chat.ChatID, "error", err)
		return apperrors.NewDatabaseError("failed to arm chat", err)
	}
	return nil
}

// IsChatArmed reports whether chatID has been activated.
func (s *sqlxStore) IsChatArmed(ctx context.Context, chatID int64) (bool, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM armed_chats WHERE chat_id = ?`, chatID); err != nil {
		s.logger.ErrorContext(ctx, "Failed to look up armed chat", "chat_id", chatID, "error", err)
		return false, apperrors.NewDatabaseError("failed to look up armed chat", err)
	}
	return count > 0, nil
}

// RunMaintenance runs VACUUM and ANALYZE.
func (s *sqlxStore) RunMaintenance(ctx context.Context) error {
	start := time.Now()
	s.logger.InfoContext(ctx, "Running SQL maintenance")

	if _, err := s.db.ExecContext(ctx, "VACUUM;"); err != nil {
		s.logger.ErrorContext(ctx, "Failed to run VACUUM", "error", err)
		return apperrors.NewDatabaseError("failed to run VACUUM", err)
	}
	if _, err := s.db.ExecContext(ctx, "ANALYZE;"); err != nil {
		s.logger.ErrorContext(ctx, "Failed to run ANALYZE", "error", err)
		return apperrors.NewDatabaseError("failed to run ANALYZE", err)
	}

	s.logger.InfoContext(ctx, "SQL maintenance completed", "duration_ms", time.Since(start).Milliseconds())
	return nil
}

// Close closes the underlying connection pool.
func (s *sqlxStore) Close() error {
	return s.db.Close()
}
