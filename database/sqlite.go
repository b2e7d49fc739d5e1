package database

import (
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"reqbook/logger"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var DB *sql.DB

// InitDB opens (or creates) the SQLite database at dataSourceName and
// applies all pending schema migrations in strict version order. Each
// migration file is applied as one atomic unit; a failure leaves the
// already-committed versions intact. No query runs before the schema
// is current.
func InitDB(dataSourceName string) error {
	var err error
	dbDir := filepath.Dir(dataSourceName)
	if dbDir != "." && dbDir != "" {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			logger.Error("Failed to create database directory %s: %v", dbDir, err)
			return fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
		}
	}

	DB, err = sql.Open("sqlite3", dataSourceName+"?_foreign_keys=on")
	if err != nil {
		logger.Error("Failed to open database: %v", err)
		return fmt.Errorf("failed to open database: %w", err)
	}
	if err = DB.Ping(); err != nil {
		logger.Error("Failed to connect to database: %v", err)
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		logger.Error("Failed to load embedded migrations: %v", err)
		return fmt.Errorf("failed to load embedded migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance(
		"iofs", src,
		fmt.Sprintf("sqlite3://%s", dataSourceName+"?_foreign_keys=on"),
	)
	if err != nil {
		logger.Error("Failed to initialize migrations: %v", err)
		return fmt.Errorf("failed to initialize migrations: %w", err)
	}

	logger.Info("Applying database migrations...")
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		logger.Error("Failed to apply migrations: %v", err)
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
		logger.Warn("Closing migration handles: source=%v database=%v", srcErr, dbErr)
	}
	logger.Info("Database migrations applied successfully (or no changes).")
	return BackfillNotebookIDs()
}

// BackfillNotebookIDs is the second phase of the v3 upgrade: create a
// default notebook only when none exists, then point every cell
// without a notebook at the first notebook. Safe to run any number of
// times, including on an empty store.
func BackfillNotebookIDs() error {
	var count int64
	if err := DB.QueryRow("SELECT COUNT(*) FROM notebooks").Scan(&count); err != nil {
		return fmt.Errorf("counting notebooks for backfill: %w", err)
	}

	var orphaned int64
	if err := DB.QueryRow("SELECT COUNT(*) FROM cells WHERE notebook_id IS NULL").Scan(&orphaned); err != nil {
		return fmt.Errorf("counting unassigned cells for backfill: %w", err)
	}

	if count == 0 {
		now := nowMillis()
		if _, err := DB.Exec("INSERT INTO notebooks (name, created_at, updated_at) VALUES (?, ?, ?)", "My Notebook", now, now); err != nil {
			return fmt.Errorf("creating default notebook during backfill: %w", err)
		}
		logger.Info("Created default notebook.")
	}

	if orphaned > 0 {
		res, err := DB.Exec("UPDATE cells SET notebook_id = (SELECT MIN(id) FROM notebooks) WHERE notebook_id IS NULL")
		if err != nil {
			return fmt.Errorf("backfilling notebook_id on cells: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			logger.Info("Backfilled notebook_id on %d cell(s).", n)
		}
	}
	return nil
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}
