/*
Package redisstore provides an implementation of store.Store that keeps
rule sets in a Redis database.

Each rule set is stored JSON-encoded in a string key made of a prefix
and the name of the rule set, separated by a colon.
*/
package redisstore

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	redis "gopkg.in/redis.v5"

	"github.com/datajms/skope-rules/errs"
	rulejson "github.com/datajms/skope-rules/rule/json"
)

// DefaultPrefix is the prefix of the keys of the rule sets
// when none is given
const DefaultPrefix = "skoperules"

// Store is a rule set store backed by a Redis database
type Store struct {
	rc     *redis.Client
	prefix string
	owned  bool
}

// New builds a Store on the given redis client, storing rule sets under
// keys with the given prefix. Closing the store does not close the client.
func New(rc *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{rc: rc, prefix: prefix}
}

// Open builds a Store on a new client with the given options,
// which is closed with the store.
func Open(opts *redis.Options, prefix string) (*Store, error) {
	rc := redis.NewClient(opts)
	_, err := rc.Ping().Result()
	if err != nil {
		rc.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %v", opts.Addr, err)
	}
	s := New(rc, prefix)
	s.owned = true
	return s, nil
}

// Save stores the rule set under the given name
func (s *Store) Save(ctx context.Context, name string, rs *rulejson.RuleSet) error {
	key := s.keyFor(name)
	data, err := rulejson.Marshal(rs)
	if err != nil {
		return errors.Wrapf(err, "saving rule set %q", key)
	}
	if err = ctx.Err(); err != nil {
		return err
	}
	_, err = s.rc.Set(key, data, 0).Result()
	if err != nil {
		return fmt.Errorf("saving rule set %q in redis: %v", key, err)
	}
	return nil
}

// Load returns the rule set stored under the given name, or an
// error wrapping store.ErrNotFound if there is none
func (s *Store) Load(ctx context.Context, name string) (*rulejson.RuleSet, error) {
	key := s.keyFor(name)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := s.rc.Get(key).Bytes()
	if err == redis.Nil {
		return nil, errors.Wrapf(errs.NotFound, "rule set %q", key)
	}
	if err != nil {
		return nil, fmt.Errorf("retrieving rule set %q: %v", key, err)
	}
	rs, err := rulejson.Unmarshal(data)
	if err != nil {
		return nil, errors.Wrapf(err, "retrieving rule set %q", key)
	}
	return rs, nil
}

// Delete removes the rule set stored under the given name, if any
func (s *Store) Delete(ctx context.Context, name string) error {
	key := s.keyFor(name)
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.rc.Del(key).Result()
	if err != nil {
		return fmt.Errorf("deleting rule set %q from redis: %v", key, err)
	}
	return nil
}

// Close closes the client of the store if it was opened by it
func (s *Store) Close(ctx context.Context) error {
	if !s.owned {
		return nil
	}
	return s.rc.Close()
}

func (s *Store) keyFor(name string) string {
	return fmt.Sprintf("%s:%s", s.prefix, name)
}
