package servicemap

import (
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	_ "github.com/lib/pq"              // registers the "postgres" database/sql driver
	"github.com/sirupsen/logrus"
)

// NewPostgresMapFromDSN opens a Postgres-backed SQLMap using the pure-Go
// pgx stdlib driver.
func NewPostgresMapFromDSN(dsn string, logger *logrus.Logger) (*SQLMap, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("servicemap: open pgx dsn: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("servicemap: ping pgx dsn: %w", err)
	}
	return NewPostgresMap(db, "pgx", logger)
}

// NewPostgresLegacyMapFromDSN opens a Postgres-backed SQLMap using the
// lib/pq driver, kept for deployments that pin the older driver rather
// than pgx's stdlib adapter.
func NewPostgresLegacyMapFromDSN(dsn string, logger *logrus.Logger) (*SQLMap, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("servicemap: open lib/pq dsn: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("servicemap: ping lib/pq dsn: %w", err)
	}
	return NewPostgresMap(db, "postgres", logger)
}
