package sqlite

import "database/sql"

func RunMigrations(db *sql.DB) error {
	stmts := []string{

		`CREATE TABLE IF NOT EXISTS transactions (
			id TEXT PRIMARY KEY,
			order_nsu TEXT NOT NULL UNIQUE,
			amount INTEGER NOT NULL,
			net_amount INTEGER,
			type TEXT NOT NULL,
			installments INTEGER NOT NULL,
			status TEXT NOT NULL,
			timestamp_ns INTEGER NOT NULL,
			message TEXT NOT NULL DEFAULT '',
			checkout_url TEXT NOT NULL DEFAULT '',
			receipt_url TEXT NOT NULL DEFAULT '',
			transaction_nsu TEXT NOT NULL DEFAULT '',
			invoice_slug TEXT NOT NULL DEFAULT '',
			card_holder TEXT NOT NULL DEFAULT '',
			card_last4 TEXT NOT NULL DEFAULT ''
		);`,

		`CREATE TABLE IF NOT EXISTS outbox_events (
			id TEXT PRIMARY KEY,
			event_type TEXT NOT NULL,
			payload BLOB NOT NULL,
			published INTEGER NOT NULL DEFAULT 0,
			created_at_ns INTEGER NOT NULL
		);`,

		`CREATE INDEX IF NOT EXISTS idx_outbox_unpublished
			ON outbox_events (published, created_at_ns);`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}
