package store_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datajms/skope-rules/store"
	"github.com/datajms/skope-rules/store/storetest"
)

func TestMemory(t *testing.T) {
	s := store.NewMemory()
	storetest.Run(t, s)
	assert.NoError(t, s.Close(context.Background()))
}

func TestMemory_Cancelled(t *testing.T) {
	s := store.NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, s.Save(ctx, "x", storetest.RuleSet()))
}

func TestMemory_IsolatesRuleSets(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	rs := storetest.RuleSet()
	require.NoError(t, s.Save(ctx, "fraud", rs))
	rs.Rules[0].Weight = 0
	loaded, err := s.Load(ctx, "fraud")
	require.NoError(t, err)
	assert.Equal(t, 0.8, loaded.Rules[0].Weight)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	for _, u := range []string{
		"mem://",
		"bolt://" + filepath.Join(dir, "rules.bolt"),
		"sqlite3://" + filepath.Join(dir, "rules.db"),
	} {
		t.Run(u, func(t *testing.T) {
			s, err := store.Open(ctx, u)
			require.NoError(t, err)
			storetest.Run(t, s)
			assert.NoError(t, s.Close(ctx))
		})
	}

	_, err := store.Open(ctx, "ftp://example.com/rules")
	assert.Error(t, err)
	_, err = store.Open(ctx, "redis://localhost:6379/notanumber")
	assert.Error(t, err)
}

func TestOpen_Redis(t *testing.T) {
	u := os.Getenv("SKOPE_REDIS_URL")
	if u == "" {
		t.Skip("SKOPE_REDIS_URL not set")
	}
	ctx := context.Background()
	s, err := store.Open(ctx, u)
	require.NoError(t, err)
	defer s.Close(ctx)
	storetest.Run(t, s)
}

func TestOpen_Postgres(t *testing.T) {
	u := os.Getenv("SKOPE_POSTGRES_URL")
	if u == "" {
		t.Skip("SKOPE_POSTGRES_URL not set")
	}
	ctx := context.Background()
	s, err := store.Open(ctx, u)
	require.NoError(t, err)
	defer s.Close(ctx)
	storetest.Run(t, s)
}
