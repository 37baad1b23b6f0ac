/*
Package boltstore provides an implementation of store.Store that keeps
rule sets in a bbolt database file.

Rule sets are stored JSON-encoded in the rulesets bucket, keyed
by their name.
*/
package boltstore

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"

	"github.com/datajms/skope-rules/errs"
	rulejson "github.com/datajms/skope-rules/rule/json"
)

const bucketName = "rulesets"

// Store is a rule set store backed by a bbolt database
type Store struct {
	db *bolt.DB
}

// Open takes the path to a bbolt database file, creating it if it does not
// exist, and returns a Store on it or an error. Only one process can have
// the file open, so Open fails if another one does not release it in time.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening bolt database %s: %v", path, err)
	}
	return &Store{db}, nil
}

// Save stores the rule set under the given name
func (s *Store) Save(ctx context.Context, name string, rs *rulejson.RuleSet) error {
	data, err := rulejson.Marshal(rs)
	if err != nil {
		return errors.Wrapf(err, "saving rule set %q", name)
	}
	if err = ctx.Err(); err != nil {
		return err
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		if err != nil {
			return err
		}
		return b.Put([]byte(name), data)
	})
	if err != nil {
		return fmt.Errorf("saving rule set %q in bolt: %v", name, err)
	}
	return nil
}

// Load returns the rule set stored under the given name, or an
// error wrapping store.ErrNotFound if there is none
func (s *Store) Load(ctx context.Context, name string) (*rulejson.RuleSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var rs *rulejson.RuleSet
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return errors.Wrapf(errs.NotFound, "rule set %q", name)
		}
		data := b.Get([]byte(name))
		if data == nil {
			return errors.Wrapf(errs.NotFound, "rule set %q", name)
		}
		var err error
		// data is only valid during the transaction
		rs, err = rulejson.Unmarshal(data)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rs, nil
}

// Delete removes the rule set stored under the given name, if any
func (s *Store) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return nil
		}
		return b.Delete([]byte(name))
	})
	if err != nil {
		return fmt.Errorf("deleting rule set %q from bolt: %v", name, err)
	}
	return nil
}

// Names returns the names of the stored rule sets in byte order
func (s *Store) Names(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var names []string
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, _ []byte) error {
			names = append(names, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("listing rule sets in bolt: %v", err)
	}
	return names, nil
}

// Close closes the database file
func (s *Store) Close(ctx context.Context) error {
	return s.db.Close()
}
