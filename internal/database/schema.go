package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema creates the tables the service reads and writes.  rooms is owned
// by the catalog; only its id, name, nightly_rate_cents and is_active
// columns are used here.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		email         VARCHAR(255) NOT NULL UNIQUE,
		username      VARCHAR(100) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		role          VARCHAR(20)  NOT NULL DEFAULT 'CUSTOMER',
		is_active     BOOLEAN      NOT NULL DEFAULT TRUE,
		created_at    DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at    DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id         BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id    BIGINT UNSIGNED NOT NULL,
		token_hash CHAR(64) NOT NULL UNIQUE,
		expires_at DATETIME NOT NULL,
		revoked_at DATETIME NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_refresh_user (user_id),
		CONSTRAINT fk_refresh_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS rooms (
		id                 BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		name               VARCHAR(120) NOT NULL,
		nightly_rate_cents INT UNSIGNED NOT NULL,
		is_active          BOOLEAN NOT NULL DEFAULT TRUE,
		created_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS reservations (
		id           BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id      BIGINT UNSIGNED NOT NULL,
		room_id      BIGINT UNSIGNED NOT NULL,
		check_in     DATE NOT NULL,
		check_out    DATE NOT NULL,
		guests       INT UNSIGNED NOT NULL,
		status       ENUM('CONFIRMED','CANCELLED') NOT NULL DEFAULT 'CONFIRMED',
		created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		cancelled_at DATETIME NULL,
		INDEX idx_res_room_status (room_id, status, check_in),
		INDEX idx_res_user (user_id, check_in),
		CONSTRAINT chk_res_dates CHECK (check_out > check_in),
		CONSTRAINT fk_res_user FOREIGN KEY (user_id) REFERENCES users(id),
		CONSTRAINT fk_res_room FOREIGN KEY (room_id) REFERENCES rooms(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates any missing table.  Existing tables are left untouched.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i+1, err)
		}
	}
	return nil
}
