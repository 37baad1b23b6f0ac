/*
Package sqldataset reads datasets from SQL database tables.

The table must have a numeric column for each feature, named after it, and
optionally an integer column with the label of each sample. NULL feature
values are read as NaN, and samples with a NULL label as unlabelled
samples.
*/
package sqldataset

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"

	// Import of PostgreSQL driver
	_ "github.com/lib/pq"
	// Import of sqlite3 driver
	_ "github.com/mattn/go-sqlite3"

	"github.com/datajms/skope-rules/dataset"
)

/*
Open takes a database URL and returns a connection to it: PostgreSQL for
postgres:// and postgresql:// URLs, and SQLite3 for any other value, which
is taken as the path to the database file.
*/
func Open(url string) (*sql.DB, error) {
	driver := "sqlite3"
	if strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://") {
		driver = "postgres"
	} else {
		url = strings.TrimPrefix(url, "sqlite3://")
	}
	db, err := sql.Open(driver, url)
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %v", driver, err)
	}
	return db, nil
}

/*
Load takes a context, a database connection, a table name, a slice of
feature names and a label column name (which may be "" to read unlabelled
samples) and returns a dataset with the samples in the table, in the order
the database returns them. An error is returned if the table cannot be
queried, a value is not numeric or a label is neither -1 nor 1.
*/
func Load(ctx context.Context, db *sql.DB, table string, features []string, label string) (*dataset.Dataset, error) {
	query, err := selectQuery(table, features, label)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying samples from %s: %v", table, err)
	}
	defer rows.Close()

	var samples []dataset.Sample
	values := make([]sql.NullFloat64, len(features))
	var l sql.NullInt64
	dest := make([]interface{}, 0, len(features)+1)
	for i := range values {
		dest = append(dest, &values[i])
	}
	if label != "" {
		dest = append(dest, &l)
	}
	for rows.Next() {
		l = sql.NullInt64{}
		err = rows.Scan(dest...)
		if err != nil {
			return nil, fmt.Errorf("reading sample %d from %s: %v", len(samples), table, err)
		}
		s := dataset.Sample{Values: make([]float64, len(features))}
		for i, v := range values {
			s.Values[i] = math.NaN()
			if v.Valid {
				s.Values[i] = v.Float64
			}
		}
		if l.Valid {
			if l.Int64 != dataset.Fraud && l.Int64 != dataset.Normal {
				return nil, fmt.Errorf("reading sample %d from %s: label %d is neither %d nor %d", len(samples), table, l.Int64, dataset.Fraud, dataset.Normal)
			}
			s.Label = int(l.Int64)
		}
		samples = append(samples, s)
	}
	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("reading samples from %s: %v", table, err)
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("no samples found in %s", table)
	}
	return dataset.FromSamples(samples, features)
}

func selectQuery(table string, features []string, label string) (string, error) {
	if len(features) == 0 {
		return "", fmt.Errorf("no features to read from %s", table)
	}
	names := features
	if label != "" {
		names = append(append([]string{}, features...), label)
	}
	columns := make([]string, len(names))
	for i, n := range names {
		c, err := quote(n)
		if err != nil {
			return "", err
		}
		columns[i] = c
	}
	t, err := quote(table)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("SELECT %s FROM %s", strings.Join(columns, ", "), t), nil
}

func quote(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `"`) {
		return "", fmt.Errorf(`invalid column or table name '%s'`, name)
	}
	return `"` + name + `"`, nil
}
