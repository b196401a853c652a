package database

// Schema is the single source of truth for the firms database layout.
// Amounts are stored as TEXT to preserve exact decimal values; dates are
// stored as unix milliseconds in UTC.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
    user_id       TEXT PRIMARY KEY,
    firm_name     TEXT NOT NULL,
    gst_number    TEXT NOT NULL,
    mobile_number TEXT NOT NULL,
    address       TEXT NOT NULL,
    established   INTEGER NOT NULL,
    owner_name    TEXT NOT NULL,
    email         TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    created_at    INTEGER NOT NULL,
    updated_at    INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS firms (
    id               INTEGER PRIMARY KEY,
    user_id          TEXT NOT NULL REFERENCES users(user_id),
    name             TEXT NOT NULL,
    contact          TEXT NOT NULL,
    address          TEXT NOT NULL,
    website          TEXT NOT NULL DEFAULT '',
    industry         TEXT NOT NULL DEFAULT '',
    established_year INTEGER,
    gst_number       TEXT NOT NULL DEFAULT '',
    status           TEXT NOT NULL DEFAULT 'active',
    owner            TEXT NOT NULL DEFAULT '',
    opening_balance  TEXT NOT NULL DEFAULT '0',
    created_at       INTEGER NOT NULL,
    updated_at       INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_firms_user ON firms(user_id);

CREATE TABLE IF NOT EXISTS transactions (
    id          INTEGER PRIMARY KEY,
    user_id     TEXT NOT NULL REFERENCES users(user_id),
    firm_id     INTEGER NOT NULL,
    amount      TEXT NOT NULL,
    type        TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    date        INTEGER NOT NULL,
    created_at  INTEGER NOT NULL,
    updated_at  INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transactions_user ON transactions(user_id);
CREATE INDEX IF NOT EXISTS idx_transactions_firm_user ON transactions(firm_id, user_id);
CREATE INDEX IF NOT EXISTS idx_transactions_firm_user_date ON transactions(firm_id, user_id, date);
`
