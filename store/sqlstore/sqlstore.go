/*
Package sqlstore provides an implementation of store.Store that keeps rule
sets in a SQL database table.

The rulesets table has a name column, its primary key, and a body column
with the JSON-encoded rule set. The differences in SQL syntax among
databases are handled by a Dialect: SQLite3 and PostgreSQL ones are
provided.
*/
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pkg/errors"

	"github.com/datajms/skope-rules/errs"
	rulejson "github.com/datajms/skope-rules/rule/json"
)

/*
Dialect is an interface providing the statements to manage the rule set
table on a specific database.
*/
type Dialect interface {
	// Driver returns the name of the database/sql driver for the dialect
	Driver() string
	// CreateTable returns a statement that creates the table if it does
	// not exist
	CreateTable() string
	// Upsert returns a statement that takes a name and a body and inserts
	// them or replaces the body of the existing row with the name
	Upsert() string
	// Select returns a query that takes a name and returns its body
	Select() string
	// Delete returns a statement that takes a name and deletes its row
	Delete() string
}

// Store is a rule set store backed by a SQL database
type Store struct {
	db      *sql.DB
	dialect Dialect
	owned   bool
}

// New takes a context, a database connection and its dialect, ensures the
// rulesets table exists and returns a Store on it. Closing the store does
// not close the database connection.
func New(ctx context.Context, db *sql.DB, d Dialect) (*Store, error) {
	_, err := db.ExecContext(ctx, d.CreateTable())
	if err != nil {
		return nil, fmt.Errorf("ensuring rulesets table exists: %v", err)
	}
	return &Store{db: db, dialect: d}, nil
}

// Open takes a context, a dialect and a data source name for its driver
// and returns a Store on a new database connection, which is closed with
// the store.
func Open(ctx context.Context, d Dialect, dsn string) (*Store, error) {
	db, err := sql.Open(d.Driver(), dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %v", d.Driver(), err)
	}
	s, err := New(ctx, db, d)
	if err != nil {
		db.Close()
		return nil, err
	}
	s.owned = true
	return s, nil
}

// Save stores the rule set under the given name
func (s *Store) Save(ctx context.Context, name string, rs *rulejson.RuleSet) error {
	data, err := rulejson.Marshal(rs)
	if err != nil {
		return errors.Wrapf(err, "saving rule set %q", name)
	}
	_, err = s.db.ExecContext(ctx, s.dialect.Upsert(), name, string(data))
	if err != nil {
		return fmt.Errorf("saving rule set %q in %s: %v", name, s.dialect.Driver(), err)
	}
	return nil
}

// Load returns the rule set stored under the given name, or an
// error wrapping store.ErrNotFound if there is none
func (s *Store) Load(ctx context.Context, name string) (*rulejson.RuleSet, error) {
	var body string
	err := s.db.QueryRowContext(ctx, s.dialect.Select(), name).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(errs.NotFound, "rule set %q", name)
	}
	if err != nil {
		return nil, fmt.Errorf("retrieving rule set %q from %s: %v", name, s.dialect.Driver(), err)
	}
	rs, err := rulejson.Unmarshal([]byte(body))
	if err != nil {
		return nil, errors.Wrapf(err, "retrieving rule set %q", name)
	}
	return rs, nil
}

// Delete removes the rule set stored under the given name, if any
func (s *Store) Delete(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, s.dialect.Delete(), name)
	if err != nil {
		return fmt.Errorf("deleting rule set %q from %s: %v", name, s.dialect.Driver(), err)
	}
	return nil
}

// Close closes the database connection of the store if it was opened by it
func (s *Store) Close(ctx context.Context) error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}
