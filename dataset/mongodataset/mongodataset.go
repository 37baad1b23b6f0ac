/*
Package mongodataset reads and writes datasets on MongoDB collections.

Each sample is a document with a numeric field for each feature, named after
it, and optionally an integer field with its label. Missing feature fields
are read as NaN values, and documents without the label field as unlabelled
samples.
*/
package mongodataset

import (
	"context"
	"fmt"
	"math"
	"strings"

	mgo "gopkg.in/mgo.v2"
	"gopkg.in/mgo.v2/bson"

	"github.com/datajms/skope-rules/dataset"
)

/*
Load takes a context, a MongoDB session, a collection name on the default
database of the session, a slice of feature names and a label field name
(which may be "" to read unlabelled samples) and returns a dataset with the
documents in the collection, in natural order. An error is returned if the
collection cannot be read, a value is not numeric, a label is neither -1 nor
1 or the context is done before every document is read.
*/
func Load(ctx context.Context, session *mgo.Session, collection string, features []string, label string) (*dataset.Dataset, error) {
	selector, err := projection(features, label)
	if err != nil {
		return nil, err
	}
	iter := session.DB("").C(collection).Find(nil).Select(selector).Iter()
	var samples []dataset.Sample
	var doc bson.M
	for iter.Next(&doc) {
		if err = ctx.Err(); err != nil {
			iter.Close()
			return nil, err
		}
		s, err := sampleFrom(doc, features, label)
		if err != nil {
			iter.Close()
			return nil, fmt.Errorf("reading document %d of %s: %v", len(samples), collection, err)
		}
		samples = append(samples, s)
		doc = nil
	}
	err = iter.Close()
	if err != nil {
		return nil, fmt.Errorf("reading documents of %s: %v", collection, err)
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("no samples found in %s", collection)
	}
	return dataset.FromSamples(samples, features)
}

/*
Write takes a context, a MongoDB session, a collection name, a label field
name and a dataset and inserts a document for each sample of the dataset in
the collection. NaN values are not written. The label is written unless the
label field name is "" or the dataset is unlabelled.
*/
func Write(ctx context.Context, session *mgo.Session, collection string, label string, d *dataset.Dataset) error {
	_, err := projection(d.Features, label)
	if err != nil {
		return err
	}
	docs := make([]interface{}, d.Rows())
	for i := range docs {
		s := d.Sample(i)
		doc := make(bson.M, len(d.Features)+1)
		for j, f := range d.Features {
			if !math.IsNaN(s.Values[j]) {
				doc[f] = s.Values[j]
			}
		}
		if label != "" && s.Labelled() {
			doc[label] = s.Label
		}
		docs[i] = doc
	}
	if err = ctx.Err(); err != nil {
		return err
	}
	err = session.DB("").C(collection).Insert(docs...)
	if err != nil {
		return fmt.Errorf("inserting %d documents in %s: %v", len(docs), collection, err)
	}
	return nil
}

func projection(features []string, label string) (bson.M, error) {
	if len(features) == 0 {
		return nil, fmt.Errorf("no features")
	}
	selector := bson.M{"_id": 0}
	names := features
	if label != "" {
		names = append(append([]string{}, features...), label)
	}
	for _, n := range names {
		if n == "" || n == "_id" {
			return nil, fmt.Errorf("invalid field name %q: empty or reserved", n)
		}
		if strings.ContainsAny(n, ".$") {
			return nil, fmt.Errorf("invalid field name %q: contains reserved characters %q or %q", n, ".", "$")
		}
		selector[n] = 1
	}
	return selector, nil
}

func sampleFrom(doc bson.M, features []string, label string) (dataset.Sample, error) {
	s := dataset.Sample{Values: make([]float64, len(features))}
	for i, f := range features {
		v, ok := doc[f]
		if !ok || v == nil {
			s.Values[i] = math.NaN()
			continue
		}
		fv, ok := number(v)
		if !ok {
			return s, fmt.Errorf("feature %s has non-numeric value %v", f, v)
		}
		s.Values[i] = fv
	}
	if label == "" {
		return s, nil
	}
	v, ok := doc[label]
	if !ok || v == nil {
		return s, nil
	}
	lv, ok := number(v)
	if !ok || (lv != dataset.Fraud && lv != dataset.Normal) {
		return s, fmt.Errorf("label %v is neither %d nor %d", v, dataset.Fraud, dataset.Normal)
	}
	s.Label = int(lv)
	return s, nil
}

func number(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	}
	return 0, false
}
