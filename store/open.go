package store

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	redis "gopkg.in/redis.v5"

	"github.com/datajms/skope-rules/store/boltstore"
	"github.com/datajms/skope-rules/store/redisstore"
	"github.com/datajms/skope-rules/store/sqlstore"
)

/*
Open takes a context and a store URL and returns the Store it points to:
  - mem:// for a new store in the process memory
  - bolt://path/to/file.db for a bbolt database file
  - redis://[:password@]host:port[/db][?prefix=p] for a Redis database
  - sqlite3://path/to/file.db for a SQLite3 database file
  - postgres://... or postgresql://... for a PostgreSQL database

It returns an error if the URL scheme is not supported or the store cannot
be opened.
*/
func Open(ctx context.Context, rawURL string) (Store, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing store URL %q: %v", rawURL, err)
	}
	switch u.Scheme {
	case "mem":
		return NewMemory(), nil
	case "bolt":
		s, err := boltstore.Open(pathOf(rawURL, u))
		if err != nil {
			return nil, err
		}
		return s, nil
	case "redis":
		opts, err := redisOptions(u)
		if err != nil {
			return nil, err
		}
		s, err := redisstore.Open(opts, u.Query().Get("prefix"))
		if err != nil {
			return nil, err
		}
		return s, nil
	case "sqlite3":
		s, err := sqlstore.Open(ctx, sqlstore.SQLite3, pathOf(rawURL, u))
		if err != nil {
			return nil, err
		}
		return s, nil
	case "postgres", "postgresql":
		s, err := sqlstore.Open(ctx, sqlstore.PostgreSQL, rawURL)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("unsupported store URL scheme %q", u.Scheme)
}

// pathOf returns what follows the scheme of a file URL, so both
// relative (bolt://rules.db) and absolute (bolt:///tmp/rules.db)
// paths are supported
func pathOf(rawURL string, u *url.URL) string {
	return strings.TrimPrefix(rawURL, u.Scheme+"://")
}

func redisOptions(u *url.URL) (*redis.Options, error) {
	opts := &redis.Options{Addr: u.Host}
	if u.User != nil {
		if p, ok := u.User.Password(); ok {
			opts.Password = p
		}
	}
	db := strings.TrimPrefix(u.Path, "/")
	if db != "" {
		n, err := strconv.Atoi(db)
		if err != nil {
			return nil, fmt.Errorf("invalid redis database %q: %v", db, err)
		}
		opts.DB = n
	}
	return opts, nil
}
