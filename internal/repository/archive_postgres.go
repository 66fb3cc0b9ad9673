package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"homework-forwarder/internal/entities"
	"homework-forwarder/internal/infrastructure"
)

// PostgresArchive mirrors the forward log to Postgres, for deployments that
// already run one. Selected when the archive DSN is a postgres URL.
type PostgresArchive struct {
	pool *pgxpool.Pool
}

func NewPostgresArchive(connString string) (*PostgresArchive, error) {
	client, err := infrastructure.NewPostgresClient(connString)
	if err != nil {
		return nil, err
	}

	_, err = client.Pool.Exec(context.Background(), `
		CREATE TABLE IF NOT EXISTS forward_log (
			id SERIAL PRIMARY KEY,
			forwarded_at TIMESTAMP NOT NULL,
			sender_name VARCHAR(255) NOT NULL,
			media_type VARCHAR(20) NOT NULL,
			snippet TEXT,
			destination BIGINT NOT NULL
		);
	`)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("create forward_log table: %w", err)
	}

	return &PostgresArchive{pool: client.Pool}, nil
}

func (a *PostgresArchive) SaveEntry(ctx context.Context, entry entities.ForwardLogEntry) error {
	_, err := a.pool.Exec(ctx,
		`INSERT INTO forward_log (forwarded_at, sender_name, media_type, snippet, destination)
		 VALUES ($1, $2, $3, $4, $5)`,
		entry.Timestamp, entry.SenderName, entry.MediaType, entry.Snippet, entry.Destination,
	)
	return err
}

func (a *PostgresArchive) Close() error {
	a.pool.Close()
	return nil
}
