package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema lists the DDL statements applied by Migrate.  Each statement is
// idempotent so Migrate can run on every start.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS watch_parties (
		id          CHAR(36)     NOT NULL PRIMARY KEY,
		title       VARCHAR(255) NOT NULL,
		description TEXT         NOT NULL,
		host_id     VARCHAR(128) NOT NULL,
		date_time   DATETIME(3)  NOT NULL,
		movies      JSON         NOT NULL,
		is_public   BOOLEAN      NOT NULL DEFAULT FALSE,
		status      VARCHAR(16)  NOT NULL DEFAULT 'scheduled',
		created_at  DATETIME(3)  NOT NULL,
		KEY idx_watch_parties_public (is_public, status)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS watch_party_members (
		watch_party_id CHAR(36)                         NOT NULL,
		user_id        VARCHAR(128)                     NOT NULL,
		role           ENUM('participant','invited')    NOT NULL,
		added_at       DATETIME(6)                      NOT NULL,
		PRIMARY KEY (watch_party_id, user_id),
		KEY idx_members_user (user_id, role),
		CONSTRAINT fk_members_party FOREIGN KEY (watch_party_id) REFERENCES watch_parties (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS watch_party_messages (
		id             CHAR(36)     NOT NULL PRIMARY KEY,
		watch_party_id CHAR(36)     NOT NULL,
		sender_id      VARCHAR(128) NOT NULL,
		envelopes      JSON         NOT NULL,
		created_at     DATETIME(6)  NOT NULL,
		KEY idx_messages_party (watch_party_id, created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id             CHAR(36)     NOT NULL PRIMARY KEY,
		user_id        VARCHAR(128) NOT NULL,
		type           VARCHAR(32)  NOT NULL,
		message        TEXT         NOT NULL,
		watch_party_id CHAR(36)     NOT NULL,
		created_at     DATETIME(6)  NOT NULL,
		KEY idx_notifications_user (user_id, created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS watch_party_keys (
		watch_party_id CHAR(36)     NOT NULL,
		user_id        VARCHAR(128) NOT NULL,
		public_key     TEXT         NOT NULL,
		updated_at     DATETIME(3)  NOT NULL,
		PRIMARY KEY (watch_party_id, user_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS marathon_buckets (
		user_id    VARCHAR(128) NOT NULL PRIMARY KEY,
		updated_at DATETIME(3)  NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS marathon_bucket_movies (
		user_id     VARCHAR(128) NOT NULL,
		movie_id    BIGINT       NOT NULL,
		title       VARCHAR(255) NOT NULL,
		runtime     INT          NOT NULL,
		poster_path VARCHAR(255) NOT NULL DEFAULT '',
		added_at    DATETIME(6)  NOT NULL,
		PRIMARY KEY (user_id, movie_id),
		CONSTRAINT fk_bucket_movies_user FOREIGN KEY (user_id) REFERENCES marathon_buckets (user_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates any missing tables.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
