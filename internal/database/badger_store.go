package database

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"

	apperrors "github.com/edgard/renamerbot/internal/errors"
	"github.com/edgard/renamerbot/internal/logger"
)

var (
	userPrefix = []byte("user:")
	banPrefix  = []byte("ban:")
	chatPrefix = []byte("chat:")
)

const conflictRetries = 3

type userRecord struct {
	DisplayName string `json:"display_name"`
	Active      bool   `json:"active"`
	CreatedAt   int64  `json:"created_at"`
	LastSeen    int64  `json:"last_seen"`
}

type banRecord struct {
	Reason   string `json:"reason"`
	BannedAt int64  `json:"banned_at"`
}

type chatRecord struct {
	ArmedBy int64 `json:"armed_by"`
	ArmedAt int64 `json:"armed_at"`
}

// badgerStore implements Store on an embedded Badger key-value database.
// Keys are a type prefix followed by the big-endian id.
type badgerStore struct {
	db       *badger.DB
	inMemory bool
	logger   *slog.Logger
}

// OpenBadgerStore opens (or creates) a Badger database at path.
// An empty path opens an in-memory database.
func OpenBadgerStore(path string, log *slog.Logger) (Store, error) {
	opts := badger.DefaultOptions(path).WithLoggingLevel(badger.ERROR)
	if path == "" || path == memoryPath {
		opts = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}
	return NewBadgerStore(db, opts.InMemory, log), nil
}

// NewBadgerStore wraps an already opened Badger database.
func NewBadgerStore(db *badger.DB, inMemory bool, log *slog.Logger) Store {
	return &badgerStore{
		db:       db,
		inMemory: inMemory,
		logger:   logger.OrDiscard(log).With("component", "store", "driver", DriverBadger),
	}
}

func key(prefix []byte, id int64) []byte {
	k := make([]byte, len(prefix)+8)
	copy(k, prefix)
	binary.BigEndian.PutUint64(k[len(prefix):], uint64(id))
	return k
}

func idFromKey(prefix, k []byte) int64 {
	return int64(binary.BigEndian.Uint64(k[len(prefix):]))
}

// update runs fn in a read-write transaction, retrying on write conflicts.
func (s *badgerStore) update(fn func(txn *badger.Txn) error) error {
	var err error
	for range conflictRetries {
		err = s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

func getJSON(txn *badger.Txn, k []byte, out any) (bool, error) {
	item, err := txn.Get(k)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, item.Value(func(val []byte) error {
		return json.Unmarshal(val, out)
	})
}

func setJSON(txn *badger.Txn, k []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return txn.Set(k, data)
}

func exists(txn *badger.Txn, k []byte) (bool, error) {
	_, err := txn.Get(k)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *badgerStore) Ping(_ context.Context) error {
	if s.db.IsClosed() {
		return errors.New("badger database is closed")
	}
	return nil
}

func (s *badgerStore) UpsertUser(ctx context.Context, user *User) error {
	if user == nil {
		return fmt.Errorf("cannot upsert nil user")
	}
	if user.ID == 0 {
		return fmt.Errorf("user must have a non-zero id")
	}
	seen := unixOrNow(user.LastSeen)
	k := key(userPrefix, user.ID)

	err := s.update(func(txn *badger.Txn) error {
		var rec userRecord
		found, err := getJSON(txn, k, &rec)
		if err != nil {
			return err
		}
		if !found {
			rec = userRecord{Active: true, CreatedAt: seen}
		}
		rec.DisplayName = user.DisplayName
		rec.LastSeen = seen
		return setJSON(txn, k, rec)
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to upsert user", "user_id", user.ID, "error", err)
		return apperrors.NewDatabaseError("failed to upsert user", err)
	}
	return nil
}

func (s *badgerStore) SetUnreachable(ctx context.Context, userID int64) error {
	k := key(userPrefix, userID)
	err := s.update(func(txn *badger.Txn) error {
		var rec userRecord
		found, err := getJSON(txn, k, &rec)
		if err != nil || !found || !rec.Active {
			return err
		}
		rec.Active = false
		return setJSON(txn, k, rec)
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to mark user unreachable", "user_id", userID, "error", err)
		return apperrors.NewDatabaseError("failed to mark user unreachable", err)
	}
	return nil
}

func (s *badgerStore) IsBanned(ctx context.Context, userID int64) (bool, error) {
	var banned bool
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		banned, err = exists(txn, key(banPrefix, userID))
		return err
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to look up ban", "user_id", userID, "error", err)
		return false, apperrors.NewDatabaseError("failed to look up ban", err)
	}
	return banned, nil
}

func (s *badgerStore) InsertBan(ctx context.Context, ban Ban) (bool, error) {
	if ban.UserID == 0 {
		return false, fmt.Errorf("ban must have a non-zero user_id")
	}
	k := key(banPrefix, ban.UserID)
	var inserted bool
	err := s.update(func(txn *badger.Txn) error {
		inserted = false
		found, err := exists(txn, k)
		if err != nil || found {
			return err
		}
		inserted = true
		return setJSON(txn, k, banRecord{Reason: ban.Reason, BannedAt: unixOrNow(ban.BannedAt)})
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to insert ban", "user_id", ban.UserID, "error", err)
		return false, apperrors.NewDatabaseError("failed to insert ban", err)
	}
	return inserted, nil
}

// scanUsers calls fn for every user record in key order.
func scanUsers(txn *badger.Txn, fn func(id int64, rec userRecord) error) error {
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()

	for it.Seek(userPrefix); it.ValidForPrefix(userPrefix); it.Next() {
		item := it.Item()
		id := idFromKey(userPrefix, item.Key())
		var rec userRecord
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		}); err != nil {
			return fmt.Errorf("decode user %d: %w", id, err)
		}
		if err := fn(id, rec); err != nil {
			return err
		}
	}
	return nil
}

func (s *badgerStore) ListActiveIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := s.db.View(func(txn *badger.Txn) error {
		return scanUsers(txn, func(id int64, rec userRecord) error {
			if !rec.Active {
				return nil
			}
			banned, err := exists(txn, key(banPrefix, id))
			if err != nil || banned {
				return err
			}
			ids = append(ids, id)
			return nil
		})
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list active users", "error", err)
		return nil, apperrors.NewDatabaseError("failed to list active users", err)
	}
	return ids, nil
}

func (s *badgerStore) CountUsers(ctx context.Context, filter UserFilter) (int, error) {
	var since int64
	if !filter.SeenSince.IsZero() {
		since = filter.SeenSince.UTC().Unix()
	}

	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		return scanUsers(txn, func(id int64, rec userRecord) error {
			if filter.ActiveOnly && !rec.Active {
				return nil
			}
			if since != 0 && rec.LastSeen < since {
				return nil
			}
			if filter.ExcludeBanned {
				banned, err := exists(txn, key(banPrefix, id))
				if err != nil || banned {
					return err
				}
			}
			count++
			return nil
		})
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to count users", "error", err)
		return 0, apperrors.NewDatabaseError("failed to count users", err)
	}
	return count, nil
}

func (s *badgerStore) CountBans(ctx context.Context) (int, error) {
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(banPrefix); it.ValidForPrefix(banPrefix); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to count bans", "error", err)
		return 0, apperrors.NewDatabaseError("failed to count bans", err)
	}
	return count, nil
}

func (s *badgerStore) ArmChat(ctx context.Context, chat ArmedChat) error {
	k := key(chatPrefix, chat.ChatID)
	err := s.update(func(txn *badger.Txn) error {
		found, err := exists(txn, k)
		if err != nil || found {
			return err
		}
		return setJSON(txn, k, chatRecord{ArmedBy: chat.ArmedBy, ArmedAt: unixOrNow(chat.ArmedAt)})
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to arm chat", "chat_id", chat.ChatID, "error", err)
		return apperrors.NewDatabaseError("failed to arm chat", err)
	}
	return nil
}

func (s *badgerStore) IsChatArmed(ctx context.Context, chatID int64) (bool, error) {
	var armed bool
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		armed, err = exists(txn, key(chatPrefix, chatID))
		return err
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to look up armed chat", "chat_id", chatID, "error", err)
		return false, apperrors.NewDatabaseError("failed to look up armed chat", err)
	}
	return armed, nil
}

// RunMaintenance runs value log garbage collection until nothing is rewritten.
func (s *badgerStore) RunMaintenance(ctx context.Context) error {
	if s.inMemory {
		return nil
	}
	start := time.Now()
	rewrites := 0
	for ctx.Err() == nil {
		err := s.db.RunValueLogGC(0.5)
		if errors.Is(err, badger.ErrNoRewrite) {
			break
		}
		if err != nil {
			s.logger.ErrorContext(ctx, "Value log GC failed", "error", err)
			return apperrors.NewDatabaseError("failed to run value log GC", err)
		}
		rewrites++
	}
	s.logger.InfoContext(ctx, "Badger maintenance completed",
		"rewrites", rewrites, "duration_ms", time.Since(start).Milliseconds())
	return ctx.Err()
}

func (s *badgerStore) Close() error {
	return s.db.Close()
}
