package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/vignan-placements/examportal/internal/api"
	dbstore "github.com/vignan-placements/examportal/internal/db"
)

// openStore picks the backing store from the environment: a SQLite file
// when EXAMPORTAL_DB_PATH is set, the in-memory registry otherwise. The
// in-memory store forgets everything on restart, which matches how the
// portal is normally run for a single exam sitting.
func openStore() (api.Store, error) {
	path := os.Getenv("EXAMPORTAL_DB_PATH")
	if path == "" {
		log.Printf("EXAMPORTAL_DB_PATH not set, using in-memory store")
		return api.NewMemoryStore(), nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?cache=shared&_busy_timeout=5000", filepath.ToSlash(path))
	sqliteDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := dbstore.RunMigrations(sqliteDB, os.Getenv("EXAMPORTAL_MIGRATIONS_DIR")); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	store, err := dbstore.NewStore(sqliteDB)
	if err != nil {
		return nil, fmt.Errorf("init sqlite store: %w", err)
	}
	log.Printf("using sqlite store at %s", path)
	return store, nil
}
