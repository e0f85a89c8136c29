package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// DatabaseFileName is the sqlite file created under the data path
const DatabaseFileName = "aniverse.db"

var errNotInitialized = errors.New("database not initialized")

type SQLiteStorage struct {
	db       *sql.DB
	dbPath   string
	dataPath string
	logger   *zap.Logger
}

func NewSQLiteStorage(dataPath string, logger *zap.Logger) *SQLiteStorage {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SQLiteStorage{
		dbPath:   filepath.Join(dataPath, DatabaseFileName),
		dataPath: dataPath,
		logger:   logger,
	}
}

func (s *SQLiteStorage) Initialize() error {
	// Create data directory if it doesn't exist
	if err := os.MkdirAll(s.dataPath, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite3", s.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	s.db = db

	if err := s.RunMigrations(); err != nil {
		return err
	}

	s.logger.Info("SQLite database initialized", zap.String("path", s.dbPath))
	return nil
}

func (s *SQLiteStorage) Get(ctx context.Context, key string) ([]byte, error) {
	if s.db == nil {
		return nil, unavailable("get", key, errNotInitialized)
	}

	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv_store WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(key)
	}
	if err != nil {
		return nil, unavailable("get", key, err)
	}
	return value, nil
}

func (s *SQLiteStorage) Set(ctx context.Context, key string, value []byte) error {
	if s.db == nil {
		return unavailable("set", key, errNotInitialized)
	}

	query := `
	INSERT INTO kv_store (key, value, created_at, updated_at)
	VALUES (?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`

	if _, err := s.db.ExecContext(ctx, query, key, value); err != nil {
		return unavailable("set", key, err)
	}
	return nil
}

// Keys lists every stored key, most recently updated first
func (s *SQLiteStorage) Keys(ctx context.Context) ([]string, error) {
	if s.db == nil {
		return nil, unavailable("keys", "", errNotInitialized)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT key FROM kv_store ORDER BY updated_at DESC, key`)
	if err != nil {
		return nil, fmt.Errorf("failed to query keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan key: %w", err)
		}
		keys = append(keys, key)
	}

	return keys, rows.Err()
}

func (s *SQLiteStorage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStorage) GetDB() (*sql.DB, error) {
	if s.db == nil {
		db, err := sql.Open("sqlite3", s.dbPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		s.db = db
	}
	return s.db, nil
}

// GetStats reports the number of stored keys and the bytes their values take
func (s *SQLiteStorage) GetStats() (map[string]int, error) {
	if s.db == nil {
		return nil, unavailable("stats", "", errNotInitialized)
	}

	stats := make(map[string]int)

	var keys int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM kv_store").Scan(&keys); err != nil {
		return nil, fmt.Errorf("failed to get key count: %w", err)
	}
	stats["keys"] = keys

	var size int
	if err := s.db.QueryRow("SELECT COALESCE(SUM(LENGTH(value)), 0) FROM kv_store").Scan(&size); err != nil {
		return nil, fmt.Errorf("failed to get stored size: %w", err)
	}
	stats["bytes"] = size

	return stats, nil
}

// Migration management methods
func (s *SQLiteStorage) GetMigrationManager() *MigrationManager {
	return NewMigrationManager(s.db, s.logger)
}

func (s *SQLiteStorage) GetDatabaseVersion() (int64, error) {
	migrationManager := s.GetMigrationManager()
	if err := migrationManager.Initialize(); err != nil {
		return 0, err
	}
	return migrationManager.Version()
}

func (s *SQLiteStorage) RunMigrations() error {
	migrationManager := s.GetMigrationManager()
	if err := migrationManager.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize migrations: %w", err)
	}
	return migrationManager.Up()
}

func (s *SQLiteStorage) RollbackMigration() error {
	migrationManager := s.GetMigrationManager()
	if err := migrationManager.Initialize(); err != nil {
		return err
	}
	return migrationManager.Down()
}

func (s *SQLiteStorage) ResetDatabase() error {
	migrationManager := s.GetMigrationManager()
	if err := migrationManager.Initialize(); err != nil {
		return err
	}
	return migrationManager.Reset()
}
