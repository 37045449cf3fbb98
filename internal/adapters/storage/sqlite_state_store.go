package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/metagit/mgit/internal/domain"
	"github.com/metagit/mgit/internal/logging"
	"github.com/metagit/mgit/internal/ports"
)

const (
	// StateDirName is the cache directory created next to the project config
	StateDirName = ".mgitdb"
	stateDBName  = "state.db"
	maxRetries   = 5
)

// SQLiteStateStore implements ports.StateStore using GORM
type SQLiteStateStore struct {
	closed bool
	db     *gorm.DB
	keys   *keyedMutex
	mu     sync.RWMutex
}

// Verify interface compliance at compile time
var _ ports.StateStore = (*SQLiteStateStore)(nil)

// slowQuery is the duration above which a statement is logged as a warning
const slowQuery = 200 * time.Millisecond

// queryLog routes gorm's output through logging.Logger. Statements are only
// traced while debug logging is on.
type queryLog struct {
	level logger.LogLevel
}

func newQueryLog() logger.Interface {
	if logging.Enabled() {
		return queryLog{level: logger.Info}
	}
	return queryLog{level: logger.Silent}
}

func (q queryLog) LogMode(level logger.LogLevel) logger.Interface {
	return queryLog{level: level}
}

func (q queryLog) Info(ctx context.Context, msg string, data ...any) {
	q.log(ctx, logger.Info, slog.LevelInfo, msg, data)
}

func (q queryLog) Warn(ctx context.Context, msg string, data ...any) {
	q.log(ctx, logger.Warn, slog.LevelWarn, msg, data)
}

func (q queryLog) Error(ctx context.Context, msg string, data ...any) {
	q.log(ctx, logger.Error, slog.LevelError, msg, data)
}

func (q queryLog) log(ctx context.Context, min logger.LogLevel, level slog.Level, msg string, data []any) {
	if q.level >= min {
		logging.Logger.Log(ctx, level, fmt.Sprintf(msg, data...), "source", "gorm")
	}
}

func (q queryLog) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if q.level < logger.Info {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()
	attrs := []any{"sql", sql, "rows", rows, "duration", elapsed}
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		logging.Logger.ErrorContext(ctx, "State query failed", append(attrs, "error", err)...)
	case elapsed > slowQuery:
		logging.Logger.WarnContext(ctx, "Slow state query", attrs...)
	default:
		logging.Logger.DebugContext(ctx, "State query", attrs...)
	}
}

// NewSQLiteStateStore opens (creating when needed) the state cache at dbPath
func NewSQLiteStateStore(dbPath string) (*SQLiteStateStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	// WAL lets readers run alongside a writer; FULL sync makes Save durable on return
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=FULL&_foreign_keys=on&_txlock=immediate", dbPath)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:      newQueryLog(),
		NowFunc:     func() time.Time { return time.Now().UTC() },
		PrepareStmt: false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&RepositoryStateModel{}, &BranchInfoModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate state schema: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(0)

	logging.Logger.Debug("State store opened", "path", dbPath)
	return &SQLiteStateStore{db: db, keys: newKeyedMutex()}, nil
}

// NewSQLiteStateStoreForDir opens the state cache kept under a project directory
func NewSQLiteStateStoreForDir(projectDir string) (*SQLiteStateStore, error) {
	return NewSQLiteStateStore(StateDBPath(projectDir))
}

// StateDBPath returns the state cache location for a project directory
func StateDBPath(projectDir string) string {
	return filepath.Join(projectDir, StateDirName, stateDBName)
}

// Close closes the database connection
func (s *SQLiteStateStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Get implements StateReader.Get. Undecodable rows are reported as absent.
func (s *SQLiteStateStore) Get(ctx context.Context, name string) (*domain.RepositoryState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, domain.ErrStoreClosed
	}

	unlock := s.keys.lock(name)
	defer unlock()

	var model RepositoryStateModel
	err := withRetry(func() error {
		return s.db.WithContext(ctx).
			Preload("Branches", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
			Where("name = ?", name).
			First(&model).Error
	}, maxRetries)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get state for %s: %w", name, err)
	}

	state, err := repositoryStateModelToDomain(model)
	if err != nil {
		logging.Logger.Warn("Discarding undecodable cached state", "repository", name, "error", err)
		return nil, nil
	}
	return state, nil
}

// ListAll implements StateReader.ListAll
func (s *SQLiteStateStore) ListAll(ctx context.Context) ([]domain.RepositoryState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, domain.ErrStoreClosed
	}

	var models []RepositoryStateModel
	err := withRetry(func() error {
		return s.db.WithContext(ctx).
			Preload("Branches", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
			Order("name").
			Find(&models).Error
	}, maxRetries)
	if err != nil {
		return nil, fmt.Errorf("failed to list states: %w", err)
	}

	states := make([]domain.RepositoryState, 0, len(models))
	for _, model := range models {
		state, err := repositoryStateModelToDomain(model)
		if err != nil {
			logging.Logger.Warn("Skipping undecodable cached state", "repository", model.Name, "error", err)
			continue
		}
		states = append(states, *state)
	}
	return states, nil
}

// Save implements StateWriter.Save. The repository row is upserted and its
// branches replaced as a set, in one transaction.
func (s *SQLiteStateStore) Save(ctx context.Context, state domain.RepositoryState) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return domain.ErrStoreClosed
	}

	model, branches, err := domainToRepositoryStateModel(state)
	if err != nil {
		return err
	}

	unlock := s.keys.lock(state.Name)
	defer unlock()

	return withRetry(func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			row := model
			err := tx.Omit(clause.Associations).
				Clauses(clause.OnConflict{
					Columns:   []clause.Column{{Name: "name"}},
					DoUpdates: clause.AssignmentColumns([]string{"current_branch", "last_updated", "updated_at"}),
				}).
				Create(&row).Error
			if err != nil {
				return fmt.Errorf("failed to save state for %s: %w", state.Name, err)
			}

			if err := tx.Where("repository_name = ?", state.Name).Delete(&BranchInfoModel{}).Error; err != nil {
				return fmt.Errorf("failed to clear branches for %s: %w", state.Name, err)
			}

			if len(branches) == 0 {
				return nil
			}
			rows := make([]BranchInfoModel, len(branches))
			copy(rows, branches)
			if err := tx.Create(&rows).Error; err != nil {
				return fmt.Errorf("failed to save branches for %s: %w", state.Name, err)
			}
			return nil
		})
	}, maxRetries)
}

// keyedMutex serializes operations on the same repository name
type keyedMutex struct {
	locks map[string]*sync.Mutex
	mu    sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: map[string]*sync.Mutex{}}
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// withRetry retries operations on SQLITE_BUSY with exponential backoff
func withRetry(fn func() error, maxRetries int) error {
	var lastErr error
	for i := 0; i < maxRetries; i++ {
		err := fn()
		if err == nil {
			return nil
		}

		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && (sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked) {
			lastErr = err
			time.Sleep(time.Millisecond * time.Duration(50*(i+1)))
			continue
		}

		return err
	}
	return fmt.Errorf("operation failed after %d retries: %w", maxRetries, lastErr)
}
