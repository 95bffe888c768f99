package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema holds the DDL for every table the application uses. The
// statements are idempotent so EnsureSchema can run at every boot.
// Counter columns are signed on purpose: decrements clamp with
// GREATEST(x, 0) and unsigned arithmetic would error out before
// the clamp applies. No foreign keys are declared; every cascade
// is executed explicitly inside a transaction by the repositories.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS owners (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		name VARCHAR(100) NOT NULL,
		lastname VARCHAR(100) NOT NULL,
		email VARCHAR(255) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_owners_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS renters (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		owner_id BIGINT UNSIGNED NOT NULL,
		name VARCHAR(100) NOT NULL,
		lastname VARCHAR(100) NOT NULL,
		email VARCHAR(255) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		date_of_birth DATE NULL,
		status VARCHAR(16) NOT NULL DEFAULT 'Actif',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_renters_email (email),
		KEY idx_renters_owner (owner_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS buildings (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		owner_id BIGINT UNSIGNED NOT NULL,
		adress VARCHAR(255) NOT NULL,
		postalcode INT NOT NULL,
		city VARCHAR(100) NOT NULL,
		number_of_apartments INT NOT NULL DEFAULT 0,
		occupied_counter INT NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		KEY idx_buildings_owner (owner_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS apartments (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		owner_id BIGINT UNSIGNED NOT NULL,
		size INT UNSIGNED NOT NULL DEFAULT 0,
		adress VARCHAR(255) NOT NULL DEFAULT '',
		postalcode INT NOT NULL DEFAULT 0,
		city VARCHAR(100) NOT NULL DEFAULT '',
		building_id BIGINT UNSIGNED NULL,
		status VARCHAR(16) NOT NULL DEFAULT 'Libre',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		KEY idx_apartments_owner (owner_id),
		KEY idx_apartments_building (building_id),
		KEY idx_apartments_status (status)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS contracts (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		owner_id BIGINT UNSIGNED NOT NULL,
		renter_id BIGINT UNSIGNED NOT NULL,
		apartment_id BIGINT UNSIGNED NOT NULL,
		rent_cents INT UNSIGNED NOT NULL DEFAULT 0,
		charge_cents INT UNSIGNED NOT NULL DEFAULT 0,
		other TEXT NULL,
		status VARCHAR(16) NOT NULL DEFAULT 'Actif',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		KEY idx_contracts_owner (owner_id),
		KEY idx_contracts_renter (renter_id),
		KEY idx_contracts_apartment (apartment_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS statuses (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		owner_id BIGINT UNSIGNED NOT NULL,
		name VARCHAR(100) NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		KEY idx_statuses_owner (owner_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS bills (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		owner_id BIGINT UNSIGNED NOT NULL,
		renter_id BIGINT UNSIGNED NOT NULL,
		status_id BIGINT UNSIGNED NOT NULL,
		reference VARCHAR(100) NULL,
		end_date DATETIME NOT NULL,
		amount_cents INT UNSIGNED NOT NULL DEFAULT 0,
		reason VARCHAR(255) NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		KEY idx_bills_owner (owner_id),
		KEY idx_bills_renter (renter_id),
		KEY idx_bills_status (status_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS bill_status_history (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		owner_id BIGINT UNSIGNED NOT NULL,
		bill_id BIGINT UNSIGNED NOT NULL,
		status_id BIGINT UNSIGNED NOT NULL,
		end_date DATETIME NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		KEY idx_bill_history_bill (bill_id),
		KEY idx_bill_history_status (status_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS tasks (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		owner_id BIGINT UNSIGNED NOT NULL,
		title VARCHAR(255) NOT NULL,
		content TEXT NOT NULL,
		start_date DATETIME NOT NULL,
		end_date DATETIME NOT NULL,
		status_id BIGINT UNSIGNED NOT NULL,
		message_id BIGINT UNSIGNED NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		KEY idx_tasks_owner (owner_id),
		KEY idx_tasks_status (status_id),
		KEY idx_tasks_message (message_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS task_status_history (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		owner_id BIGINT UNSIGNED NOT NULL,
		task_id BIGINT UNSIGNED NOT NULL,
		status_id BIGINT UNSIGNED NOT NULL,
		title VARCHAR(255) NOT NULL,
		content TEXT NOT NULL,
		start_date DATETIME NOT NULL,
		end_date DATETIME NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		KEY idx_task_history_task (task_id),
		KEY idx_task_history_status (status_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS repairs (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		owner_id BIGINT UNSIGNED NOT NULL,
		task_id BIGINT UNSIGNED NOT NULL,
		status_id BIGINT UNSIGNED NOT NULL,
		amount_cents INT UNSIGNED NOT NULL DEFAULT 0,
		reason VARCHAR(255) NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		KEY idx_repairs_owner (owner_id),
		KEY idx_repairs_task (task_id),
		KEY idx_repairs_status (status_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS repair_status_history (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		owner_id BIGINT UNSIGNED NOT NULL,
		repair_id BIGINT UNSIGNED NOT NULL,
		status_id BIGINT UNSIGNED NOT NULL,
		amount_cents INT UNSIGNED NOT NULL DEFAULT 0,
		reason VARCHAR(255) NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		KEY idx_repair_history_repair (repair_id),
		KEY idx_repair_history_status (status_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS messages (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		title VARCHAR(255) NOT NULL,
		content TEXT NOT NULL,
		status VARCHAR(32) NOT NULL DEFAULT 'Non lu',
		sender_kind VARCHAR(8) NOT NULL,
		sender_id BIGINT UNSIGNED NOT NULL,
		recipient_kind VARCHAR(8) NOT NULL,
		recipient_id BIGINT UNSIGNED NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		KEY idx_messages_sender (sender_kind, sender_id),
		KEY idx_messages_recipient (recipient_kind, recipient_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS comments (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		message_id BIGINT UNSIGNED NOT NULL,
		author_kind VARCHAR(8) NOT NULL,
		author_id BIGINT UNSIGNED NOT NULL,
		content TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		KEY idx_comments_message (message_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS files (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		owner_id BIGINT UNSIGNED NOT NULL,
		entity_kind VARCHAR(16) NOT NULL,
		entity_id BIGINT UNSIGNED NOT NULL,
		name VARCHAR(255) NOT NULL,
		content_type VARCHAR(100) NOT NULL DEFAULT '',
		storage_key VARCHAR(255) NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		KEY idx_files_entity (entity_kind, entity_id),
		KEY idx_files_owner (owner_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		user_kind VARCHAR(8) NOT NULL,
		user_id BIGINT UNSIGNED NOT NULL,
		token_hash CHAR(64) NOT NULL,
		expires_at DATETIME NOT NULL,
		revoked_at DATETIME NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_refresh_tokens_hash (token_hash),
		KEY idx_refresh_tokens_user (user_kind, user_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// EnsureSchema creates every missing table. Existing tables are
// left untouched.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
