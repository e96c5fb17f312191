// Package store records every published rate table snapshot in SQLite so
// table changes can be audited and the last published tables restored.
package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/iwvelando/mortgage-calculator/pkg/ratetables"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

const sqliteDialect = "sqlite3"

// loadedAtLayout is fixed width so loaded_at sorts as text.
const loadedAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrNotFound is returned when no version has been recorded.
var ErrNotFound = errors.New("no rate table versions recorded")

// Version describes one recorded snapshot.
type Version struct {
	ID       string    `json:"id"`
	Version  string    `json:"version"`
	Source   string    `json:"source"`
	LoadedAt time.Time `json:"loadedAt"`
}

// DB is the version store.
type DB struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open opens the SQLite database at path, sets pragmas and applies pending
// migrations.
func Open(path string, logger *zap.Logger) (*DB, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection keeps in-memory databases shared and avoids
	// SQLITE_BUSY between writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`
		PRAGMA journal_mode = WAL;
		PRAGMA foreign_keys = ON;
		PRAGMA busy_timeout = 5000;
	`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set sqlite pragmas: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}
	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Info("opened rate table store",
		zap.String("op", "store.Open"),
		zap.String("path", path),
	)
	return &DB{db: db, logger: logger}, nil
}

func migrate(db *sql.DB) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(sqliteDialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("run goose up migrations: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *DB) Close() error {
	return s.db.Close()
}

// Record stores snap and its full table document. Recording the same
// snapshot twice is a no-op.
func (s *DB) Record(ctx context.Context, snap *ratetables.Snapshot) error {
	if snap == nil || snap.Tables == nil {
		return errors.New("snapshot has no tables")
	}
	doc, err := json.Marshal(snap.Tables)
	if err != nil {
		return fmt.Errorf("encoding rate tables: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO table_versions (id, version, source, loaded_at, document)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO NOTHING`,
		snap.ID.String(), snap.Version, snap.Source, snap.LoadedAt.UTC().Format(loadedAtLayout), doc,
	)
	if err != nil {
		return fmt.Errorf("recording rate table version %s: %w", snap.Version, err)
	}
	s.logger.Debug("recorded rate table version",
		zap.String("op", "store.Record"),
		zap.String("id", snap.ID.String()),
		zap.String("version", snap.Version),
	)
	return nil
}

// Follow records every snapshot tables publishes from now on, whether it
// comes from the API or a file reload. Failures are logged.
func (s *DB) Follow(tables *ratetables.Store) {
	tables.OnPublish(func(snap *ratetables.Snapshot) {
		if err := s.Record(context.Background(), snap); err != nil {
			s.logger.Error("failed to record rate table version",
				zap.String("op", "store.Follow"),
				zap.String("snapshot", snap.ID.String()),
				zap.Error(err),
			)
		}
	})
}

// History lists recorded versions, newest first. A limit of zero or less
// returns every version.
func (s *DB) History(ctx context.Context, limit int) ([]Version, error) {
	query := `SELECT id, version, source, loaded_at FROM table_versions ORDER BY loaded_at DESC, rowid DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying rate table history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []Version{}
	for rows.Next() {
		v, _, err := scanVersion(rows, false)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Latest returns the most recently recorded tables, compiled.
func (s *DB) Latest(ctx context.Context) (*ratetables.Tables, Version, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, version, source, loaded_at, document FROM table_versions
		 ORDER BY loaded_at DESC, rowid DESC LIMIT 1`)
	v, doc, err := scanVersion(row, true)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, Version{}, ErrNotFound
	}
	if err != nil {
		return nil, Version{}, err
	}
	t, err := ratetables.LoadBytes(doc, ratetables.FormatJSON)
	if err != nil {
		return nil, Version{}, fmt.Errorf("stored rate tables %s: %w", v.ID, err)
	}
	return t, v, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanVersion(row scanner, withDocument bool) (Version, []byte, error) {
	var (
		v        Version
		loadedAt string
		doc      []byte
	)
	dest := []interface{}{&v.ID, &v.Version, &v.Source, &loadedAt}
	if withDocument {
		dest = append(dest, &doc)
	}
	if err := row.Scan(dest...); err != nil {
		return Version{}, nil, err
	}
	t, err := time.Parse(time.RFC3339Nano, loadedAt)
	if err != nil {
		return Version{}, nil, fmt.Errorf("parsing loaded_at of %s: %w", v.ID, err)
	}
	v.LoadedAt = t
	return v, doc, nil
}
