package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/attent-app/attent/log"
)

var logger = log.GetLogger("DB")

// Config holds database settings
type Config struct {
	Path       string
	LogQueries bool
}

// DB owns the sqlite connection used by all stores
type DB struct {
	conn       *sql.DB
	logQueries bool
}

// Open opens the database, applying pragmas and pending migrations
func Open(cfg Config) (*DB, error) {
	if err := ensureDatabaseDirectory(cfg.Path); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// WAL mode, foreign keys, and optimized settings
	dsn := cfg.Path + "?_foreign_keys=1&_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL&_cache_size=-64000"

	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works best with a single writer
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := runMigrations(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info().Str("path", cfg.Path).Msg("database initialized")

	return &DB{conn: conn, logQueries: cfg.LogQueries}, nil
}

// Close closes the database connection
func (d *DB) Close() error {
	if d.conn != nil {
		return d.conn.Close()
	}
	return nil
}

// ensureDatabaseDirectory creates the directory for the database file if it doesn't exist
func ensureDatabaseDirectory(dbPath string) error {
	dir := filepath.Dir(dbPath)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
		logger.Info().Str("dir", dir).Msg("created database directory")
	}
	return nil
}

// Transaction executes a function within a database transaction
func (d *DB) Transaction(fn func(*sql.Tx) error) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

func (d *DB) logQuery(kind string, query string, params []any) {
	if !d.logQueries {
		return
	}
	logger.Debug().
		Str("kind", kind).
		Str("sql", query).
		Interface("params", params).
		Msg("db query")
}

// query runs a SELECT returning multiple rows
func (d *DB) query(query string, params ...any) (*sql.Rows, error) {
	d.logQuery("select", query, params)
	return d.conn.Query(query, params...)
}

// queryRow runs a SELECT returning a single row
func (d *DB) queryRow(query string, params ...any) *sql.Row {
	d.logQuery("get", query, params)
	return d.conn.QueryRow(query, params...)
}

// exec executes an INSERT/UPDATE/DELETE query
func (d *DB) exec(query string, params ...any) (sql.Result, error) {
	d.logQuery("run", query, params)
	return d.conn.Exec(query, params...)
}
