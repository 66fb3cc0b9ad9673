package repository

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"homework-forwarder/internal/entities"
)

// SQLiteArchive mirrors the forward log to a local SQLite file. This is the
// default archive; it needs no external service.
type SQLiteArchive struct {
	db *sql.DB
}

func NewSQLiteArchive(path string) (*SQLiteArchive, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite archive: %w", err)
	}

	// Single writer; the store serializes appends anyway.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS forward_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			forwarded_at TIMESTAMP NOT NULL,
			sender_name TEXT NOT NULL,
			media_type TEXT NOT NULL,
			snippet TEXT,
			destination INTEGER NOT NULL
		);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create forward_log table: %w", err)
	}

	return &SQLiteArchive{db: db}, nil
}

func (a *SQLiteArchive) SaveEntry(ctx context.Context, entry entities.ForwardLogEntry) error {
	_, err := a.db.ExecContext(ctx,
		`INSERT INTO forward_log (forwarded_at, sender_name, media_type, snippet, destination)
		 VALUES (?, ?, ?, ?, ?)`,
		entry.Timestamp, entry.SenderName, entry.MediaType, entry.Snippet, entry.Destination,
	)
	return err
}

func (a *SQLiteArchive) Close() error {
	return a.db.Close()
}
