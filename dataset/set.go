package dataset

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/datajms/skope-rules/errs"
	"github.com/datajms/skope-rules/feature"
)

/*
Dataset represents a feature matrix with its optional label vector.

X holds one row per sample and one column per feature. Y holds the label
of each row following the fraud convention (-1 for fraud, +1 for normal),
and may be nil for unlabelled data. Features holds the name of each
column.
*/
type Dataset struct {
	X        *mat.Dense
	Y        []int
	Features []string
}

/*
New takes a feature matrix, a label vector (that may be nil) and a slice of
feature names (that may be nil to use positional names) and returns a
Dataset with them or a ShapeMismatch error if their dimensions do not
agree.
*/
func New(x *mat.Dense, y []int, features []string) (*Dataset, error) {
	if x == nil {
		return nil, errors.Wrap(errs.ShapeMismatch, "nil feature matrix")
	}
	r, c := x.Dims()
	if y != nil && len(y) != r {
		return nil, errors.Wrapf(errs.ShapeMismatch, "%d labels for %d rows", len(y), r)
	}
	names, err := feature.Resolve(features, c)
	if err != nil {
		return nil, errors.Wrapf(errs.ShapeMismatch, "%d feature names for %d columns", len(features), c)
	}
	return &Dataset{X: x, Y: y, Features: names}, nil
}

/*
FromRows takes a slice of rows of float64 values, a label vector (that may
be nil) and a slice of feature names and returns a Dataset with them. It
returns a ShapeMismatch error if there are no rows or columns, or rows have
different lengths.
*/
func FromRows(rows [][]float64, y []int, features []string) (*Dataset, error) {
	x, err := Matrix(rows)
	if err != nil {
		return nil, err
	}
	return New(x, y, features)
}

/*
Matrix takes a slice of rows of float64 values and returns a dense matrix
with them, or a ShapeMismatch error if there are no rows or columns, or
rows have different lengths.
*/
func Matrix(rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, errors.Wrap(errs.ShapeMismatch, "feature matrix must have at least one row and one column")
	}
	c := len(rows[0])
	data := make([]float64, 0, len(rows)*c)
	for i, row := range rows {
		if len(row) != c {
			return nil, errors.Wrapf(errs.ShapeMismatch, "row %d has %d columns, expected %d", i, len(row), c)
		}
		data = append(data, row...)
	}
	return mat.NewDense(len(rows), c, data), nil
}

/*
FromSamples takes a slice of samples and a slice of feature names and
returns a Dataset with them. Labels are kept only if every sample is
labelled.
*/
func FromSamples(samples []Sample, features []string) (*Dataset, error) {
	rows := make([][]float64, len(samples))
	y := make([]int, len(samples))
	labelled := true
	for i, s := range samples {
		rows[i] = s.Values
		y[i] = s.Label
		labelled = labelled && s.Labelled()
	}
	if !labelled {
		y = nil
	}
	return FromRows(rows, y, features)
}

/*
Rows returns the number of samples in the dataset
*/
func (d *Dataset) Rows() int {
	r, _ := d.X.Dims()
	return r
}

/*
Cols returns the number of features in the dataset
*/
func (d *Dataset) Cols() int {
	_, c := d.X.Dims()
	return c
}

/*
Sample returns the sample at row i of the dataset.
*/
func (d *Dataset) Sample(i int) Sample {
	s := Sample{Values: mat.Row(nil, i, d.X)}
	if d.Y != nil {
		s.Label = d.Y[i]
	}
	return s
}

/*
Subset takes a slice of row indexes and returns a new dataset with copies
of those rows in the given order (indexes may be repeated). It returns
a DegenerateInput error if no indexes are given.
*/
func (d *Dataset) Subset(indexes []int) (*Dataset, error) {
	if len(indexes) == 0 {
		return nil, errors.Wrap(errs.DegenerateInput, "empty subset")
	}
	r, c := d.X.Dims()
	x := mat.NewDense(len(indexes), c, nil)
	var y []int
	if d.Y != nil {
		y = make([]int, len(indexes))
	}
	for i, idx := range indexes {
		if idx < 0 || idx >= r {
			return nil, errors.Wrapf(errs.ShapeMismatch, "row %d out of range [0, %d)", idx, r)
		}
		x.SetRow(i, d.X.RawRowView(idx))
		if y != nil {
			y[i] = d.Y[idx]
		}
	}
	return &Dataset{X: x, Y: y, Features: d.Features}, nil
}

/*
CheckFinite returns an InvalidParameter error if any value in the feature
matrix is NaN or infinite. Training data must be finite, as NaN values
would never satisfy the split of a tree node.
*/
func (d *Dataset) CheckFinite() error {
	r, _ := d.X.Dims()
	for i := 0; i < r; i++ {
		for j, v := range d.X.RawRowView(i) {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return errors.Wrapf(errs.InvalidParameter, "non-finite value %v at row %d, feature %s", v, i, d.Features[j])
			}
		}
	}
	return nil
}

/*
CheckLabels returns an InvalidParameter error if any of the given labels is
neither Fraud nor Normal.
*/
func CheckLabels(y []int) error {
	for i, l := range y {
		if l != Fraud && l != Normal {
			return errors.Wrapf(errs.InvalidParameter, "label %d of row %d is neither %d nor %d", l, i, Fraud, Normal)
		}
	}
	return nil
}
