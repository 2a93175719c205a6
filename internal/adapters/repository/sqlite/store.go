// Package sqlite persists the roster and tournament history in a local
// SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/okian/shotboard/internal/adapters/repository"
	"github.com/okian/shotboard/internal/adapters/repository/sqlite/migrations"
	"github.com/okian/shotboard/internal/domain/model"
	"github.com/okian/shotboard/pkg/logger"
	"github.com/okian/shotboard/pkg/metrics"
)

const storeName = "sqlite"

var (
	_ repository.RosterStore  = (*Store)(nil)
	_ repository.HistoryStore = (*Store)(nil)
)

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithLogger sets the logger used for degraded reads.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// WithHistoryCapacity sets how many history entries are retained.
func WithHistoryCapacity(capacity int) Option {
	return func(s *Store) {
		if capacity > 0 {
			s.capacity = capacity
		}
	}
}

// WithDefaultRoster sets the roster returned while nothing is stored.
func WithDefaultRoster(participants []model.Participant) Option {
	return func(s *Store) {
		s.defaults = model.CloneParticipants(participants)
	}
}

// Store implements repository.RosterStore and repository.HistoryStore. A
// Store whose database failed to open still answers roster reads with the
// defaults and fails writes with repository.ErrStoreUnavailable.
type Store struct {
	db       *sql.DB
	log      logger.Logger
	capacity int
	defaults []model.Participant
}

// New returns an unopened store carrying opts. Use Open for a usable one.
func New(opts ...Option) *Store {
	s := &Store{log: logger.Nop(), capacity: repository.DefaultHistoryCapacity}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open opens (creating if needed) the database at path and applies the
// embedded migrations.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	s := New(opts...)
	path = strings.TrimSpace(path)
	if path == "" {
		return s, fmt.Errorf("database path is required: %w", repository.ErrStoreUnavailable)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return s, fmt.Errorf("create database dir: %w: %v", repository.ErrStoreUnavailable, err)
		}
	}

	dsn := "file:" + filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return s, fmt.Errorf("open sqlite db: %w: %v", repository.ErrStoreUnavailable, err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return s, fmt.Errorf("ping sqlite db: %w: %v", repository.ErrStoreUnavailable, err)
	}
	if err := applyMigrations(ctx, db, migrations.FS); err != nil {
		_ = db.Close()
		return s, fmt.Errorf("run migrations: %w: %v", repository.ErrStoreUnavailable, err)
	}
	s.db = db
	return s, nil
}

// Close closes the database handle. The store is unavailable afterwards.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Store) available() bool { return s != nil && s.db != nil }

// Roster returns the stored participants in order, or the defaults when the
// table is empty or cannot be read.
func (s *Store) Roster(ctx context.Context) []model.Participant {
	if !s.available() {
		return model.CloneParticipants(s.defaultsOrNil())
	}
	defer metrics.ObserveStoreOp(storeName, "roster_get", time.Now())

	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM participants ORDER BY position`)
	if err != nil {
		s.readFailed(ctx, "roster_get", err)
		return model.CloneParticipants(s.defaults)
	}
	defer rows.Close()

	var out []model.Participant
	for rows.Next() {
		var p model.Participant
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			s.readFailed(ctx, "roster_get", err)
			return model.CloneParticipants(s.defaults)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		s.readFailed(ctx, "roster_get", err)
		return model.CloneParticipants(s.defaults)
	}
	if len(out) == 0 {
		return model.CloneParticipants(s.defaults)
	}
	return out
}

func (s *Store) defaultsOrNil() []model.Participant {
	if s == nil {
		return nil
	}
	return s.defaults
}

func (s *Store) readFailed(ctx context.Context, op string, err error) {
	metrics.RecordStoreError(storeName, op)
	s.log.Warn(ctx, "sqlite read failed, using defaults", logger.String("op", op), logger.Error(err))
}

// ReplaceRoster clears and rewrites the roster in one transaction.
func (s *Store) ReplaceRoster(ctx context.Context, participants []model.Participant) error {
	if !s.available() {
		return repository.ErrStoreUnavailable
	}
	defer metrics.ObserveStoreOp(storeName, "roster_replace", time.Now())

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM participants`); err != nil {
			return fmt.Errorf("clear participants: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO participants (position, id, name) VALUES (?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare participant insert: %w", err)
		}
		defer stmt.Close()
		for i, p := range participants {
			if _, err := stmt.ExecContext(ctx, i, p.ID, p.Name); err != nil {
				return fmt.Errorf("insert participant %q: %w", p.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		metrics.RecordStoreError(storeName, "roster_replace")
	}
	return err
}

// AppendHistory evicts the oldest entries down to capacity-1 and inserts e,
// all in one transaction. An entry with the same timestamp is replaced.
func (s *Store) AppendHistory(ctx context.Context, e model.HistoryEntry) (int, error) {
	if !s.available() {
		return 0, repository.ErrStoreUnavailable
	}
	defer metrics.ObserveStoreOp(storeName, "history_append", time.Now())

	payload, err := model.EncodeHistoryEntry(e)
	if err != nil {
		return 0, err
	}
	cfg := e.Config.Normalize()
	var tournamentType sql.NullString
	if cfg.Type != "" {
		tournamentType = sql.NullString{String: string(cfg.Type), Valid: true}
	}

	evicted := 0
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM history WHERE timestamp = ?`, e.Timestamp); err != nil {
			return fmt.Errorf("replace history entry: %w", err)
		}
		var count int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM history`).Scan(&count); err != nil {
			return fmt.Errorf("count history: %w", err)
		}
		if n := repository.EvictionCount(count, s.capacity); n > 0 {
			res, err := tx.ExecContext(ctx,
				`DELETE FROM history WHERE timestamp IN (SELECT timestamp FROM history ORDER BY timestamp ASC LIMIT ?)`, n)
			if err != nil {
				return fmt.Errorf("evict history: %w", err)
			}
			affected, _ := res.RowsAffected()
			evicted = int(affected)
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO history (timestamp, date, target_count, shots_per_target, tournament_type, participant_count, payload)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			e.Timestamp,
			e.Date.UTC().Format(time.RFC3339Nano),
			cfg.TargetCount,
			cfg.ShotsPerTarget,
			tournamentType,
			e.ParticipantCount,
			string(payload),
		)
		if err != nil {
			return fmt.Errorf("insert history entry: %w", err)
		}
		return nil
	})
	if err != nil {
		metrics.RecordStoreError(storeName, "history_append")
		return 0, err
	}
	return evicted, nil
}

// History returns every entry newest first.
func (s *Store) History(ctx context.Context) ([]model.HistoryEntry, error) {
	if !s.available() {
		return nil, repository.ErrStoreUnavailable
	}
	defer metrics.ObserveStoreOp(storeName, "history_list", time.Now())

	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM history ORDER BY timestamp DESC`)
	if err != nil {
		metrics.RecordStoreError(storeName, "history_list")
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var out []model.HistoryEntry
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		e, err := model.DecodeHistoryEntry([]byte(payload))
		if err != nil {
			s.log.Warn(ctx, "skipping unreadable history entry", logger.Error(err))
			continue
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return out, nil
}

// HistoryEntry returns the entry with the given timestamp.
func (s *Store) HistoryEntry(ctx context.Context, timestamp int64) (model.HistoryEntry, error) {
	if !s.available() {
		return model.HistoryEntry{}, repository.ErrStoreUnavailable
	}
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM history WHERE timestamp = ?`, timestamp).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return model.HistoryEntry{}, fmt.Errorf("timestamp %d: %w", timestamp, repository.ErrNotFound)
	}
	if err != nil {
		return model.HistoryEntry{}, fmt.Errorf("get history entry: %w", err)
	}
	return model.DecodeHistoryEntry([]byte(payload))
}

// DeleteHistory removes the entry with the given timestamp, if any.
func (s *Store) DeleteHistory(ctx context.Context, timestamp int64) error {
	if !s.available() {
		return repository.ErrStoreUnavailable
	}
	defer metrics.ObserveStoreOp(storeName, "history_delete", time.Now())
	if _, err := s.db.ExecContext(ctx, `DELETE FROM history WHERE timestamp = ?`, timestamp); err != nil {
		metrics.RecordStoreError(storeName, "history_delete")
		return fmt.Errorf("delete history entry: %w", err)
	}
	return nil
}

func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
