package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"texcollab/pkg/logger"

	_ "github.com/lib/pq"
)

const (
	connectAttempts = 5
	retryDelay      = 2 * time.Second
)

// Connect opens the postgres pool and pings it with a few retries in case of
// temporary DNS/network blips.
func Connect(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database connection: %w", err)
	}

	for i := 0; i < connectAttempts; i++ {
		if err = db.Ping(); err == nil {
			logger.Sugar.Info("Successfully connected to the database")
			return db, nil
		}
		logger.Sugar.Infof("Database connection failed, retrying in %s... (%v)", retryDelay, err)
		time.Sleep(retryDelay)
	}
	_ = db.Close()
	return nil, fmt.Errorf("could not connect to database after %d attempts: %w", connectAttempts, err)
}

// ConnectRedis opens a redis client and verifies it answers PING.
func ConnectRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("could not connect to redis at %s: %w", addr, err)
	}
	logger.Sugar.Infof("Connected to Redis at %s", addr)
	return rdb, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS latex_documents (
	id               TEXT PRIMARY KEY,
	title            TEXT NOT NULL DEFAULT '',
	content          TEXT NOT NULL DEFAULT '',
	version          BIGINT NOT NULL DEFAULT 0,
	owner_id         TEXT NOT NULL,
	last_modified_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	last_author      TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS latex_collaborators (
	document_id TEXT NOT NULL REFERENCES latex_documents(id) ON DELETE CASCADE,
	user_id     TEXT NOT NULL,
	role        TEXT NOT NULL,
	PRIMARY KEY (document_id, user_id)
);`

// Migrate creates the document tables when they do not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
