package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schema creates the tables the service owns. Statements are idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS members (
		id                CHAR(36)     NOT NULL PRIMARY KEY,
		username          VARCHAR(64)  NOT NULL,
		full_name         VARCHAR(128) NOT NULL,
		password_hash     VARCHAR(100) NOT NULL,
		category          VARCHAR(32)  NOT NULL,
		email             VARCHAR(190) NULL,
		phone             VARCHAR(32)  NULL,
		status            VARCHAR(32)  NULL,
		last_payment_date DATE         NULL,
		created_at        DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_members_username (username),
		KEY idx_members_phone (phone)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS reservations (
		id           CHAR(36)    NOT NULL PRIMARY KEY,
		user_id      CHAR(36)    NOT NULL,
		user_name    VARCHAR(128) NOT NULL,
		user_role    VARCHAR(32) NOT NULL,
		date         DATE        NOT NULL,
		hour         TINYINT     NOT NULL,
		head_count   INT         NOT NULL,
		status       ENUM('CONFIRMED','CANCELLED') NOT NULL DEFAULT 'CONFIRMED',
		lane_numbers VARCHAR(64) NOT NULL,
		booking_code VARCHAR(32) NOT NULL,
		created_at   DATETIME    NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_reservations_slot (date, hour, status),
		KEY idx_reservations_user (user_id),
		KEY idx_reservations_code (booking_code)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS attendance (
		id             CHAR(36)    NOT NULL PRIMARY KEY,
		reservation_id CHAR(36)    NOT NULL,
		check_in_time  DATETIME(3) NULL,
		check_out_time DATETIME(3) NULL,
		laps           INT         NOT NULL DEFAULT 0,
		UNIQUE KEY uq_attendance_reservation (reservation_id),
		CONSTRAINT fk_attendance_reservation FOREIGN KEY (reservation_id)
			REFERENCES reservations (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		member_id  CHAR(36)  NOT NULL,
		token_hash CHAR(64)  NOT NULL,
		expires_at DATETIME  NOT NULL,
		revoked_at DATETIME  NULL,
		created_at DATETIME  NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_refresh_token_hash (token_hash),
		KEY idx_refresh_member (member_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// EnsureSchema creates missing tables.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	return nil
}
