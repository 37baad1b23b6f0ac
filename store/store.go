/*
Package store persists ranked rule sets under a name, so that records can be
scored without fitting a model again.

Implementations are provided for the process memory (in this package),
bbolt files (boltstore), Redis (redisstore) and SQL databases (sqlstore).
Open returns the right one for a URL.
*/
package store

import (
	"context"

	rulejson "github.com/datajms/skope-rules/rule/json"
)

/*
Store is an interface to manage a store where rule sets can be saved,
loaded and deleted by name.

All its methods take a context that may allow cancelling the operation
(thus forcing the return of an error) if the implementation allows it.
*/
type Store interface {
	// Save takes a name and a rule set and stores the rule set under
	// the name, replacing any rule set previously stored with it.
	Save(ctx context.Context, name string, rs *rulejson.RuleSet) error
	// Load takes a name and returns the rule set stored under it, or
	// an error wrapping ErrNotFound if there is none.
	Load(ctx context.Context, name string) (*rulejson.RuleSet, error)
	// Delete takes a name and removes the rule set stored under it,
	// if any.
	Delete(ctx context.Context, name string) error
	// Close frees any resources in use by the store.
	Close(ctx context.Context) error
}
