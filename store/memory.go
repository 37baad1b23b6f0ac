package store

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/datajms/skope-rules/errs"
	rulejson "github.com/datajms/skope-rules/rule/json"
)

// ErrNotFound is wrapped by the errors returned when loading
// a rule set that is not in a store
var ErrNotFound = errs.NotFound

type memoryStore struct {
	ruleSets map[string][]byte
	lock     *sync.RWMutex
}

// NewMemory returns an implementation of Store with the process
// memory space as underlying backend. Rule sets are kept encoded,
// so changes to a saved or loaded rule set do not reach the store.
func NewMemory() Store {
	return &memoryStore{
		ruleSets: make(map[string][]byte),
		lock:     &sync.RWMutex{},
	}
}

func (ms *memoryStore) Save(ctx context.Context, name string, rs *rulejson.RuleSet) error {
	data, err := rulejson.Marshal(rs)
	if err != nil {
		return errors.Wrapf(err, "saving rule set %q", name)
	}
	return ms.withLock(ctx, func(ctx context.Context) error {
		ms.ruleSets[name] = data
		return nil
	})
}

func (ms *memoryStore) Load(ctx context.Context, name string) (*rulejson.RuleSet, error) {
	var data []byte
	err := ms.withRLock(ctx, func(ctx context.Context) error {
		data = ms.ruleSets[name]
		return nil
	})
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, errors.Wrapf(ErrNotFound, "rule set %q", name)
	}
	return rulejson.Unmarshal(data)
}

func (ms *memoryStore) Delete(ctx context.Context, name string) error {
	return ms.withLock(ctx, func(ctx context.Context) error {
		delete(ms.ruleSets, name)
		return nil
	})
}

func (ms *memoryStore) Close(ctx context.Context) error {
	return nil
}

func (ms *memoryStore) withLock(ctx context.Context, f func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	gotLock := make(chan struct{})
	go func() {
		ms.lock.Lock()
		select {
		case <-ctx.Done():
			ms.lock.Unlock()
		case gotLock <- struct{}{}:
		}
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-gotLock:
		defer ms.lock.Unlock()
	}
	return f(ctx)
}

func (ms *memoryStore) withRLock(ctx context.Context, f func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	gotLock := make(chan struct{})
	go func() {
		ms.lock.RLock()
		select {
		case <-ctx.Done():
			ms.lock.RUnlock()
		case gotLock <- struct{}{}:
		}
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-gotLock:
		defer ms.lock.RUnlock()
	}
	return f(ctx)
}
