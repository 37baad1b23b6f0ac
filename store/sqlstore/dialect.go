package sqlstore

import (
	// Import of PostgreSQL driver
	_ "github.com/lib/pq"
	// Import of sqlite3 driver
	_ "github.com/mattn/go-sqlite3"
)

const (
	createTableStmt = `CREATE TABLE IF NOT EXISTS rulesets (
		name TEXT PRIMARY KEY,
		body TEXT NOT NULL)`
	upsertSuffix = ` ON CONFLICT (name) DO UPDATE SET body = excluded.body`
)

var (
	// SQLite3 is the dialect of SQLite3 databases
	SQLite3 Dialect = sqlite3{}
	// PostgreSQL is the dialect of PostgreSQL databases
	PostgreSQL Dialect = postgres{}
)

type sqlite3 struct{}

func (sqlite3) Driver() string {
	return "sqlite3"
}

func (sqlite3) CreateTable() string {
	return createTableStmt
}

func (sqlite3) Upsert() string {
	return `INSERT INTO rulesets (name, body) VALUES (?, ?)` + upsertSuffix
}

func (sqlite3) Select() string {
	return `SELECT body FROM rulesets WHERE name = ?`
}

func (sqlite3) Delete() string {
	return `DELETE FROM rulesets WHERE name = ?`
}

type postgres struct{}

func (postgres) Driver() string {
	return "postgres"
}

func (postgres) CreateTable() string {
	return createTableStmt
}

func (postgres) Upsert() string {
	return `INSERT INTO rulesets (name, body) VALUES ($1, $2)` + upsertSuffix
}

func (postgres) Select() string {
	return `SELECT body FROM rulesets WHERE name = $1`
}

func (postgres) Delete() string {
	return `DELETE FROM rulesets WHERE name = $1`
}
