// Package badger keeps the active-session snapshot in an embedded Badger
// key-value store so an interrupted tournament survives a restart.
package badger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/okian/shotboard/internal/adapters/repository"
	"github.com/okian/shotboard/internal/domain/model"
	"github.com/okian/shotboard/pkg/logger"
	"github.com/okian/shotboard/pkg/metrics"
)

const storeName = "badger"

// sessionKey is the single key holding the encoded snapshot.
var sessionKey = []byte("tournament_state_v1")

var _ repository.SessionStore = (*Store)(nil)

// Config configures the session store.
type Config struct {
	// Path is the database directory. Required unless InMemory is set.
	Path string
	// InMemory keeps the snapshot in process only.
	InMemory bool
	// SyncWrites fsyncs every snapshot.
	SyncWrites bool
	// Logger receives Badger's internal warnings and errors. Nil silences them.
	Logger logger.Logger
}

// badgerLogger adapts logger.Logger to badger.Logger.
type badgerLogger struct {
	log logger.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.log.Error(context.Background(), fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.log.Warn(context.Background(), fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.log.Debug(context.Background(), fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.log.Debug(context.Background(), fmt.Sprintf(format, args...))
}

// Store implements repository.SessionStore.
type Store struct {
	db *badgerdb.DB
}

// Open opens the snapshot database described by cfg.
func Open(cfg Config) (*Store, error) {
	var opts badgerdb.Options
	if cfg.InMemory {
		opts = badgerdb.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, fmt.Errorf("session path is required: %w", repository.ErrStoreUnavailable)
		}
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create session dir %s: %w: %v", cfg.Path, repository.ErrStoreUnavailable, err)
		}
		opts = badgerdb.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{log: cfg.Logger.Named("badger")})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w: %v", repository.ErrStoreUnavailable, err)
	}
	return &Store{db: db}, nil
}

// Close closes the database. The store is unavailable afterwards.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Store) available(ctx context.Context) error {
	if s == nil || s.db == nil {
		return repository.ErrStoreUnavailable
	}
	return ctx.Err()
}

// SaveSession writes the encoded snapshot, replacing any previous one.
func (s *Store) SaveSession(ctx context.Context, state model.SessionState) error {
	if err := s.available(ctx); err != nil {
		return err
	}
	defer metrics.ObserveStoreOp(storeName, "session_save", time.Now())

	data, err := model.EncodeSessionState(state)
	if err != nil {
		return err
	}
	if err := s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(sessionKey, data)
	}); err != nil {
		metrics.RecordStoreError(storeName, "session_save")
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// LoadSession reads and decodes the snapshot. ok is false when none is stored.
// A stored value that cannot be decoded is returned as model.ErrSerialization.
func (s *Store) LoadSession(ctx context.Context) (model.SessionState, bool, error) {
	if err := s.available(ctx); err != nil {
		return model.SessionState{}, false, err
	}
	defer metrics.ObserveStoreOp(storeName, "session_load", time.Now())

	var data []byte
	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(sessionKey)
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return model.SessionState{}, false, nil
	}
	if err != nil {
		metrics.RecordStoreError(storeName, "session_load")
		return model.SessionState{}, false, fmt.Errorf("load session: %w", err)
	}

	state, err := model.DecodeSessionState(data)
	if err != nil {
		return model.SessionState{}, false, err
	}
	return state, true, nil
}

// ClearSession removes the snapshot. Clearing when none exists is fine.
func (s *Store) ClearSession(ctx context.Context) error {
	if err := s.available(ctx); err != nil {
		return err
	}
	defer metrics.ObserveStoreOp(storeName, "session_clear", time.Now())
	if err := s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Delete(sessionKey)
	}); err != nil {
		metrics.RecordStoreError(storeName, "session_clear")
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
