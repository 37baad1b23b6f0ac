package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	mgo "gopkg.in/mgo.v2"

	"github.com/datajms/skope-rules/dataset"
	"github.com/datajms/skope-rules/dataset/csv"
	"github.com/datajms/skope-rules/dataset/mongodataset"
	"github.com/datajms/skope-rules/dataset/sqldataset"
	"github.com/datajms/skope-rules/metrics"
	rulejson "github.com/datajms/skope-rules/rule/json"
	"github.com/datajms/skope-rules/store"
)

type source struct {
	input      string
	table      string
	collection string
}

/*
readDataset reads a dataset from the source: a CSV file or STDIN when the
input is empty, a SQLite3 (.db) file or PostgreSQL URL (read from the table
of the source) or a MongoDB URL (read from the collection of the source).
*/
func (rcc *rootCmdConfig) readDataset(ctx context.Context, src source, features []string, label string) (*dataset.Dataset, error) {
	in := src.input
	switch {
	case strings.HasPrefix(in, "mongodb://"):
		rcc.Logf("Connecting to MongoDB at %s to read collection %s...", in, src.collection)
		session, err := mgo.Dial(in)
		if err != nil {
			return nil, fmt.Errorf("connecting to %s: %v", in, err)
		}
		defer session.Close()
		return mongodataset.Load(ctx, session, src.collection, features, label)
	case strings.HasPrefix(in, "postgres://"), strings.HasPrefix(in, "postgresql://"), strings.HasSuffix(in, ".db"):
		rcc.Logf("Opening %s to read table %s...", in, src.table)
		db, err := sqldataset.Open(in)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		return sqldataset.Load(ctx, db, src.table, features, label)
	case in == "":
		rcc.Logf("Reading dataset from STDIN...")
	default:
		rcc.Logf("Opening %s to read dataset...", in)
	}
	return csv.ReadFromFilePath(in, features, label)
}

// create returns a file created at the path or os.Stdout for an empty path
func create(path string) (*os.File, error) {
	if path == "" {
		return os.Stdout, nil
	}
	return os.Create(path)
}

func (rcc *rootCmdConfig) saveRuleSet(ctx context.Context, storeURL, name string, rs *rulejson.RuleSet) error {
	rcc.Logf("Opening store at %s...", storeURL)
	s, err := store.Open(ctx, storeURL)
	if err != nil {
		return err
	}
	defer s.Close(ctx)
	rcc.Logf("Saving rule set as %s...", name)
	return s.Save(ctx, name, rs)
}

/*
loadRuleSet reads a rule set from the JSON file at path or, when path is
empty, loads the one with the given name from the store at storeURL.
*/
func (rcc *rootCmdConfig) loadRuleSet(ctx context.Context, path, storeURL, name string) (*rulejson.RuleSet, error) {
	if path != "" {
		rcc.Logf("Reading rule set from %s...", path)
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("reading rule set: %v", err)
		}
		defer f.Close()
		return rulejson.Read(f)
	}
	rcc.Logf("Opening store at %s...", storeURL)
	s, err := store.Open(ctx, storeURL)
	if err != nil {
		return nil, err
	}
	defer s.Close(ctx)
	rcc.Logf("Loading rule set %s...", name)
	return s.Load(ctx, name)
}

func ruleSetSource(path, storeURL, name string) error {
	if path == "" && storeURL == "" {
		return fmt.Errorf("either the rules or the store flag must be set")
	}
	if path != "" && storeURL != "" {
		return fmt.Errorf("cannot set both rules and store flags at the same time")
	}
	if storeURL != "" && name == "" {
		return fmt.Errorf("required name flag was not set")
	}
	return nil
}

func (rcc *rootCmdConfig) metrics() *metrics.Metrics {
	if rcc.metricsOut == "" {
		return nil
	}
	if rcc.mt == nil {
		rcc.mt = metrics.NewWithRegistry(rcc.registry)
	}
	return rcc.mt
}

func (rcc *rootCmdConfig) dumpMetrics() error {
	if rcc.metricsOut == "" {
		return nil
	}
	rcc.Logf("Dumping metrics to %s...", rcc.metricsOut)
	f, err := os.Create(rcc.metricsOut)
	if err != nil {
		return err
	}
	defer f.Close()
	return metrics.Dump(f, rcc.registry)
}
