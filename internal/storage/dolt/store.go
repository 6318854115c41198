// Package dolt implements the storage interface using Dolt's embedded
// SQL engine via github.com/dolthub/driver.
//
// The database lives in a local directory; no server is required. The
// connection pool is pinned to a single connection because embedded Dolt
// is single-writer, which matches the tracker's one-operator model.
package dolt

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	embedded "github.com/dolthub/driver"

	"github.com/oa-archive/oat/internal/storage"
)

// Store implements storage.Store over an embedded Dolt database.
type Store struct {
	db     *sql.DB
	dbPath string

	// connector must be closed to release the embedded engine's
	// filesystem locks; Close handles it.
	connector *embedded.Connector
}

// Config holds database configuration.
type Config struct {
	Path           string // database directory
	Database       string // database name (default: "oat")
	CommitterName  string // Dolt commit identity
	CommitterEmail string
}

const openMaxElapsed = 30 * time.Second

func newOpenBackoff() backoff.BackOff {
	// BackOff implementations are stateful; always return a fresh instance.
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = openMaxElapsed
	return bo
}

// New opens (creating if necessary) the archive database at cfg.Path and
// initializes the schema.
func New(ctx context.Context, cfg *Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if cfg.Database == "" {
		cfg.Database = "oat"
	}
	if cfg.CommitterName == "" {
		cfg.CommitterName = "oat"
	}
	if cfg.CommitterEmail == "" {
		cfg.CommitterEmail = "oat@local"
	}

	if info, err := os.Stat(cfg.Path); err == nil && !info.IsDir() {
		return nil, fmt.Errorf("database path %q is a file, not a directory", cfg.Path)
	}
	if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// The embedded driver sets its working directory to the DSN path;
	// a relative path can be stacked twice by the lower layers.
	absPath, err := filepath.Abs(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	initDSN := fmt.Sprintf("file://%s?commitname=%s&commitemail=%s",
		absPath, cfg.CommitterName, cfg.CommitterEmail)
	dbDSN := fmt.Sprintf("file://%s?commitname=%s&commitemail=%s&database=%s",
		absPath, cfg.CommitterName, cfg.CommitterEmail, cfg.Database)

	// Ensure the database exists as its own unit of work, with a fresh
	// connector, then open the store connection.
	if err := withEmbedded(ctx, initDSN, func(ctx context.Context, db *sql.DB) error {
		_, err := db.ExecContext(ctx, fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s`", cfg.Database))
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to create database: %w", err)
	}

	db, connector, err := openEmbedded(dbDSN)
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(context.Background()); err != nil {
		_ = db.Close()
		_ = connector.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{db: db, dbPath: absPath, connector: connector}
	if err := s.initSchema(ctx); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// openEmbedded opens a connection using the embedded Dolt driver.
func openEmbedded(dsn string) (*sql.DB, *embedded.Connector, error) {
	cfg, err := embedded.ParseDSN(dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse DSN: %w", err)
	}
	cfg.BackOff = newOpenBackoff()

	connector, err := embedded.NewConnector(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create connector: %w", err)
	}
	db := sql.OpenDB(connector)

	// Embedded Dolt is single-writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	return db, connector, nil
}

// withEmbedded runs fn against a short-lived embedded connection.
func withEmbedded(ctx context.Context, dsn string, fn func(context.Context, *sql.DB) error) error {
	db, connector, err := openEmbedded(dsn)
	if err != nil {
		return err
	}
	defer func() {
		_ = db.Close()
		_ = connector.Close()
	}()
	return fn(ctx, db)
}

// Close releases the database connection and the embedded engine's
// filesystem locks.
func (s *Store) Close() error {
	var firstErr error
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			firstErr = err
		}
		s.db = nil
	}
	if s.connector != nil {
		if err := s.connector.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		s.connector = nil
	}
	return firstErr
}

// Path returns the database directory.
func (s *Store) Path() string {
	return s.dbPath
}

// RunInTransaction executes fn within a database transaction. The
// transaction is rolled back if fn returns an error or panics, and
// committed otherwise.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx storage.Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = sqlTx.Rollback()
		}
	}()

	if err := fn(&storeTx{tx: sqlTx}); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	committed = true
	return nil
}

// storeTx implements storage.Tx over *sql.Tx.
type storeTx struct {
	tx *sql.Tx
}

// SetConfig stores a key/value setting.
func (s *Store) SetConfig(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO config (`+"`key`, `value`"+`) VALUES (?, ?)
		ON DUPLICATE KEY UPDATE `+"`value`"+` = ?
	`, key, value, value)
	if err != nil {
		return fmt.Errorf("failed to set config %q: %w", key, err)
	}
	return nil
}

// GetConfig returns a stored setting, or "" if unset.
func (s *Store) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		"SELECT `value` FROM config WHERE `key` = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get config %q: %w", key, err)
	}
	return value, nil
}

const currentSchemaVersion = 1

const schema = `
-- Archives: one row per publication
CREATE TABLE IF NOT EXISTS archives (
    publication_id       VARCHAR(255) PRIMARY KEY,
    folder_path          TEXT NOT NULL,
    first_seen_at        DATETIME NOT NULL,
    became_active_at     DATETIME,
    last_seen_at         DATETIME NOT NULL,
    last_changed_at      DATETIME,
    status               VARCHAR(64) NOT NULL,
    final_pid            TEXT,
    final_url            TEXT,
    notes                TEXT,
    last_notified_at     DATETIME,
    reminder_count       INT NOT NULL DEFAULT 0,
    next_reminder_at     DATETIME,
    missing_folder       TINYINT NOT NULL DEFAULT 0,
    missing_folder_since DATETIME
);

CREATE INDEX idx_archives_status ON archives(status);
CREATE INDEX idx_archives_next_reminder ON archives(next_reminder_at);

-- Events: append-only audit trail
CREATE TABLE IF NOT EXISTS events (
    id             BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
    at             DATETIME NOT NULL,
    publication_id VARCHAR(255) NOT NULL,
    action         VARCHAR(64) NOT NULL,
    old_status     VARCHAR(64),
    new_status     VARCHAR(64),
    pid            TEXT,
    url            TEXT,
    note           TEXT,
    source         VARCHAR(32) NOT NULL
);

CREATE INDEX idx_events_at ON events(at);
CREATE INDEX idx_events_publication ON events(publication_id);

-- Key/value settings
CREATE TABLE IF NOT EXISTS config (
    ` + "`key`" + `   VARCHAR(255) PRIMARY KEY,
    ` + "`value`" + ` TEXT
);
`

// initSchema creates tables and indexes. Idempotent: a schema_version
// fast path skips the DDL when the schema is already current.
func (s *Store) initSchema(ctx context.Context) error {
	var version int
	err := s.db.QueryRowContext(ctx,
		"SELECT `value` FROM config WHERE `key` = 'schema_version'").Scan(&version)
	if err == nil && version >= currentSchemaVersion {
		return nil
	}

	// MySQL/Dolt doesn't support multiple statements in one Exec.
	for _, stmt := range splitStatements(schema) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			// CREATE INDEX has no IF NOT EXISTS in Dolt; tolerate reruns.
			low := strings.ToLower(err.Error())
			if strings.Contains(low, "already exists") || strings.Contains(low, "duplicate") {
				continue
			}
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO config (`key`, `value`) VALUES ('schema_version', ?) "+
			"ON DUPLICATE KEY UPDATE `value` = ?",
		currentSchemaVersion, currentSchemaVersion)
	if err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}
	return nil
}

// splitStatements splits a schema blob into individual statements,
// dropping blank and comment-only fragments.
func splitStatements(blob string) []string {
	var out []string
	for _, stmt := range strings.Split(blob, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" || isOnlyComments(stmt) {
			continue
		}
		out = append(out, stmt)
	}
	return out
}

func isOnlyComments(stmt string) bool {
	for _, line := range strings.Split(stmt, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "--") {
			return false
		}
	}
	return true
}
