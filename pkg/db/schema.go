package db

const (
	// SchemaV1 defines the SQL statements for version 1 of the database schema.
	// This schema pertains to the 'accountsdb' component.
	SchemaV1 = `
CREATE TABLE IF NOT EXISTS duet_versions (
    component TEXT PRIMARY KEY,
    version INTEGER NOT NULL,
    created_at REAL DEFAULT (unixepoch())
);

CREATE TABLE IF NOT EXISTS accounts (
    id TEXT PRIMARY KEY,
    partner_link TEXT,
    document TEXT NOT NULL,
    created_at REAL DEFAULT (unixepoch()),
    updated_at REAL DEFAULT (unixepoch())
);

CREATE INDEX IF NOT EXISTS idx_accounts_partner_link ON accounts(partner_link);

CREATE TABLE IF NOT EXISTS profiles (
    username VARCHAR(256) PRIMARY KEY,
    password_hash BLOB NOT NULL,
    account_id TEXT NOT NULL UNIQUE,
    created_at REAL DEFAULT (unixepoch())
);
`
)
