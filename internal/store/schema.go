package store

import "database/sql"

// AssetsMigrations creates the devices/components/captures/snapshots/
// changes schema plus the FTS5 search index (§6), applied to assets.db.
func AssetsMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "create devices table",
			Up: func(tx *sql.Tx) error {
				_, err := tx.Exec(`
					CREATE TABLE devices (
						id                TEXT PRIMARY KEY,
						name              TEXT NOT NULL,
						normalized_name   TEXT NOT NULL UNIQUE,
						management_ip     TEXT,
						ipv4_address      TEXT,
						vendor_id         TEXT,
						site_id           TEXT,
						role_id           TEXT,
						device_type       TEXT,
						model             TEXT,
						software_version  TEXT,
						serial            TEXT,
						source_system     TEXT,
						fingerprinted_at  DATETIME,
						created_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
					);
					CREATE INDEX idx_devices_management_ip ON devices(management_ip);
				`)
				return err
			},
		},
		{
			Version:     2,
			Description: "create components table",
			Up: func(tx *sql.Tx) error {
				_, err := tx.Exec(`
					CREATE TABLE components (
						id                     TEXT PRIMARY KEY,
						device_id              TEXT NOT NULL REFERENCES devices(id),
						name                   TEXT NOT NULL,
						description            TEXT,
						serial                 TEXT,
						position               TEXT,
						type                   TEXT NOT NULL DEFAULT 'unknown',
						subtype                TEXT,
						have_sn                INTEGER NOT NULL DEFAULT 0,
						extraction_source      TEXT,
						extraction_confidence  REAL,
						UNIQUE(device_id, name, position)
					);
				`)
				return err
			},
		},
		{
			Version:     3,
			Description: "create captures_current table",
			Up: func(tx *sql.Tx) error {
				_, err := tx.Exec(`
					CREATE TABLE captures_current (
						id            TEXT PRIMARY KEY,
						device_id     TEXT NOT NULL REFERENCES devices(id),
						capture_type  TEXT NOT NULL,
						file_path     TEXT NOT NULL,
						size          INTEGER NOT NULL,
						content_hash  TEXT NOT NULL,
						captured_at   DATETIME NOT NULL,
						UNIQUE(device_id, capture_type)
					);
				`)
				return err
			},
		},
		{
			Version:     4,
			Description: "create capture_snapshots, capture_changes, and FTS index",
			Up: func(tx *sql.Tx) error {
				_, err := tx.Exec(`
					CREATE TABLE capture_snapshots (
						id            TEXT PRIMARY KEY,
						device_id     TEXT NOT NULL REFERENCES devices(id),
						capture_type  TEXT NOT NULL,
						captured_at   DATETIME NOT NULL,
						file_path     TEXT NOT NULL,
						content       TEXT NOT NULL,
						content_hash  TEXT NOT NULL,
						UNIQUE(device_id, capture_type, content_hash)
					);
					CREATE INDEX idx_snapshots_device_type_time
						ON capture_snapshots(device_id, capture_type, captured_at);

					CREATE TABLE capture_changes (
						id                    TEXT PRIMARY KEY,
						device_id             TEXT NOT NULL REFERENCES devices(id),
						capture_type          TEXT NOT NULL,
						detected_at           DATETIME NOT NULL,
						previous_snapshot_id  TEXT REFERENCES capture_snapshots(id),
						current_snapshot_id   TEXT NOT NULL REFERENCES capture_snapshots(id),
						lines_added           INTEGER NOT NULL,
						lines_removed         INTEGER NOT NULL,
						diff_path             TEXT NOT NULL,
						severity              TEXT NOT NULL
					);
					CREATE INDEX idx_changes_device_type_time
						ON capture_changes(device_id, capture_type, detected_at);

					CREATE VIRTUAL TABLE capture_fts USING fts5(
						content, device_id UNINDEXED, capture_type UNINDEXED,
						content='capture_snapshots', content_rowid='rowid'
					);

					CREATE TRIGGER capture_snapshots_ai AFTER INSERT ON capture_snapshots BEGIN
						INSERT INTO capture_fts(rowid, content, device_id, capture_type)
						VALUES (new.rowid, new.content, new.device_id, new.capture_type);
					END;
					CREATE TRIGGER capture_snapshots_ad AFTER DELETE ON capture_snapshots BEGIN
						INSERT INTO capture_fts(capture_fts, rowid, content, device_id, capture_type)
						VALUES ('delete', old.rowid, old.content, old.device_id, old.capture_type);
					END;
				`)
				return err
			},
		},
	}
}

// ArpCatMigrations creates the ARP-entry history schema (§6), applied to
// arp_cat.db.
func ArpCatMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "create arp_entries table",
			Up: func(tx *sql.Tx) error {
				_, err := tx.Exec(`
					CREATE TABLE arp_entries (
						id           TEXT PRIMARY KEY,
						device_id    TEXT NOT NULL,
						context_id   TEXT,
						context      TEXT,
						ip_address   TEXT NOT NULL,
						mac_address  TEXT NOT NULL,
						interface    TEXT,
						entry_type   TEXT,
						captured_at  DATETIME NOT NULL
					);
					CREATE INDEX idx_arp_mac ON arp_entries(mac_address);
					CREATE INDEX idx_arp_ip ON arp_entries(ip_address);
					CREATE INDEX idx_arp_device_time ON arp_entries(device_id, captured_at);
				`)
				return err
			},
		},
	}
}

// UsersMigrations creates the auth-backend-agnostic users schema (§6),
// applied to users.db.
func UsersMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "create users table",
			Up: func(tx *sql.Tx) error {
				_, err := tx.Exec(`
					CREATE TABLE users (
						id             TEXT PRIMARY KEY,
						username       TEXT NOT NULL UNIQUE,
						password_hash  TEXT NOT NULL,
						is_admin       INTEGER NOT NULL DEFAULT 0,
						created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
					);
				`)
				return err
			},
		},
	}
}

// JobsMigrations creates the named recurring job schema (§6 "job" CLI
// verb), applied to assets.db alongside the core schema.
func JobsMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "create scheduled_jobs table",
			Up: func(tx *sql.Tx) error {
				_, err := tx.Exec(`
					CREATE TABLE scheduled_jobs (
						id          TEXT PRIMARY KEY,
						name        TEXT NOT NULL UNIQUE,
						kind        TEXT NOT NULL,
						schedule    TEXT,
						enabled     INTEGER NOT NULL DEFAULT 1,
						params      TEXT NOT NULL DEFAULT '{}',
						last_run_at DATETIME,
						created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
					);
				`)
				return err
			},
		},
	}
}
