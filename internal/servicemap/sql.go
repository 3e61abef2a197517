package servicemap

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/irinasmt/rcabrain/internal/models"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

// SQLMap is a sqlx-backed Map. It works against either SQLite (local
// development, driver "sqlite3") or Postgres (driver "pgx" or "postgres",
// see NewPostgresMapFromDSN/NewPostgresLegacyMapFromDSN in postgres.go).
type SQLMap struct {
	db     *sqlx.DB
	logger *logrus.Logger
}

// NewSQLiteMap opens (creating if necessary) a SQLite-backed SQLMap at
// path.
func NewSQLiteMap(path string, logger *logrus.Logger) (*SQLMap, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("servicemap: create database directory: %w", err)
		}
	}
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("servicemap: connect sqlite: %w", err)
	}
	db.MustExec("PRAGMA foreign_keys = ON")
	db.MustExec("PRAGMA journal_mode = WAL")

	m := &SQLMap{db: db, logger: logger}
	if err := m.initSchema(); err != nil {
		return nil, fmt.Errorf("servicemap: init schema: %w", err)
	}
	return m, nil
}

// NewPostgresMap wraps an already-open *sql.DB (opened with driver "pgx"
// or "postgres", see NewPostgresMapFromDSN/NewPostgresLegacyMapFromDSN) as
// a SQLMap.
func NewPostgresMap(db *sql.DB, driverName string, logger *logrus.Logger) (*SQLMap, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	m := &SQLMap{db: sqlx.NewDb(db, driverName), logger: logger}
	if err := m.initSchema(); err != nil {
		return nil, fmt.Errorf("servicemap: init schema: %w", err)
	}
	return m, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS service_repos (
	service         TEXT PRIMARY KEY,
	repo_url        TEXT NOT NULL,
	language        TEXT NOT NULL,
	default_branch  TEXT NOT NULL
)`

func (m *SQLMap) initSchema() error {
	_, err := m.db.Exec(schema)
	return err
}

func (m *SQLMap) Get(ctx context.Context, service string) (models.RepoEntry, error) {
	var row struct {
		RepoURL       string `db:"repo_url"`
		Language      string `db:"language"`
		DefaultBranch string `db:"default_branch"`
	}
	query := m.db.Rebind(`SELECT repo_url, language, default_branch FROM service_repos WHERE service = ?`)
	err := m.db.GetContext(ctx, &row, query, service)
	if err == sql.ErrNoRows {
		return models.RepoEntry{}, fmt.Errorf("%w: %s", ErrNotRegistered, service)
	}
	if err != nil {
		return models.RepoEntry{}, fmt.Errorf("servicemap: get %s: %w", service, err)
	}
	return models.RepoEntry{RepoURL: row.RepoURL, Language: row.Language, DefaultBranch: row.DefaultBranch}, nil
}

func (m *SQLMap) Register(ctx context.Context, service string, entry models.RepoEntry) error {
	query := m.db.Rebind(`
		INSERT INTO service_repos (service, repo_url, language, default_branch)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(service) DO UPDATE SET repo_url=excluded.repo_url, language=excluded.language, default_branch=excluded.default_branch`)
	_, err := m.db.ExecContext(ctx, query,
		service, entry.RepoURL, entry.Language, entry.DefaultBranch)
	if err != nil {
		m.logger.WithError(err).WithField("service", service).Error("servicemap: register failed")
		return fmt.Errorf("servicemap: register %s: %w", service, err)
	}
	return nil
}

func (m *SQLMap) Has(ctx context.Context, service string) bool {
	_, err := m.Get(ctx, service)
	return err == nil
}

// Close releases the underlying database handle.
func (m *SQLMap) Close() error {
	return m.db.Close()
}
