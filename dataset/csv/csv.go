/*
Package csv reads datasets from and writes samples to CSV streams.
*/
package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/datajms/skope-rules/dataset"
)

// UndefinedValue is the CSV cell content of an undefined feature value
const UndefinedValue = "?"

/*
Writer is an interface for a CSV stream to which samples
can be written to.
*/
type Writer interface {
	// Write takes a sample and additional cells and writes
	// them as one CSV row, or returns an error.
	Write(s dataset.Sample, extra ...string) error
	// Count returns the total number of samples written
	// to the writer
	Count() int
	// Flush ensures any pending written operations finish
	// before returning. It returns an error if that cannot
	// be ensured.
	Flush() error
}

type csvWriter struct {
	count    int
	features []string
	label    string
	w        *csv.Writer
}

type columns struct {
	features []int
	label    int
}

/*
Read takes an io.Reader for a CSV stream, a slice of feature names and the
name of the label column and returns a dataset.Dataset with the samples
parsed from the reader or an error.

The header or first row of the CSV content must name every feature in the
given slice, in any order. The label column is optional: when missing, or
when label is "", the returned dataset carries no labels. Columns naming
neither a feature nor the label are ignored. Undefined values, either
empty cells or the '?' string, are read as NaN.
*/
func Read(reader io.Reader, features []string, label string) (*dataset.Dataset, error) {
	samples := []dataset.Sample{}
	err := ReadBySample(reader, features, label, func(_ int, s dataset.Sample) (bool, error) {
		samples = append(samples, s)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("no samples found")
	}
	return dataset.FromSamples(samples, features)
}

/*
ReadFromFilePath takes a filepath string, a slice of feature names and a
label name, opens the file to which the filepath points to (os.Stdin if
filepath is "") and uses Read to return a dataset or an error read from it.
*/
func ReadFromFilePath(filepath string, features []string, label string) (*dataset.Dataset, error) {
	var f *os.File
	var err error
	if filepath == "" {
		f = os.Stdin
	} else {
		f, err = os.Open(filepath)
		if err != nil {
			return nil, fmt.Errorf("reading dataset: %v", err)
		}
		defer f.Close()
	}
	d, err := Read(f, features, label)
	if err != nil {
		err = fmt.Errorf("parsing CSV file %s: %v", filepath, err)
	}
	return d, err
}

/*
ReadBySample takes an io.Reader for a CSV stream, a slice of feature names,
a label name and a lambda function on an integer and a dataset.Sample that
returns a boolean value. It parses the samples from the reader and for each
it calls the lambda function with the sample and its index as parameters.
If the lambda function returns true, it will continue processing the next
sample, otherwise it will stop. An error is returned if something goes wrong
when reading the stream or parsing a sample.
*/
func ReadBySample(reader io.Reader, features []string, label string, lambda func(int, dataset.Sample) (bool, error)) error {
	r := csv.NewReader(reader)
	header, err := r.Read()
	if err != nil {
		return fmt.Errorf("reading header: %v", err)
	}
	cols, err := parseHeader(header, features, label)
	if err != nil {
		return err
	}
	for l := 2; ; l++ {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading body: %v", err)
		}
		sample, err := parseRow(row, cols)
		if err != nil {
			return fmt.Errorf("parsing line %d: %v", l, err)
		}
		ok, err := lambda(l-2, sample)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
	}
	return nil
}

/*
NewWriter takes an io.Writer, a slice of feature names, a label name (that
may be "" to write no label column) and the names of extra columns and
returns a Writer that will write samples on the io.Writer after writing
the header.
*/
func NewWriter(writer io.Writer, features []string, label string, extra ...string) (Writer, error) {
	w := csv.NewWriter(writer)
	header := append([]string{}, features...)
	if label != "" {
		header = append(header, label)
	}
	header = append(header, extra...)
	err := w.Write(header)
	if err != nil {
		return nil, fmt.Errorf("writing CSV header: %v", err)
	}
	return &csvWriter{features: features, label: label, w: w}, nil
}

func (cw *csvWriter) Count() int {
	return cw.count
}

func (cw *csvWriter) Write(sample dataset.Sample, extra ...string) error {
	if len(sample.Values) != len(cw.features) {
		return fmt.Errorf("writing CSV row for sample %d: %d values for %d features", cw.count+1, len(sample.Values), len(cw.features))
	}
	record := make([]string, 0, len(cw.features)+1+len(extra))
	for _, v := range sample.Values {
		record = append(record, formatValue(v))
	}
	if cw.label != "" {
		if sample.Labelled() {
			record = append(record, strconv.Itoa(sample.Label))
		} else {
			record = append(record, UndefinedValue)
		}
	}
	record = append(record, extra...)
	err := cw.w.Write(record)
	if err != nil {
		return fmt.Errorf("writing CSV row for sample %d: %v", cw.count+1, err)
	}
	cw.count++
	return nil
}

func (cw *csvWriter) Flush() error {
	cw.w.Flush()
	return cw.w.Error()
}

func parseHeader(header []string, features []string, label string) (*columns, error) {
	positions := make(map[string]int, len(header))
	for i, name := range header {
		if _, ok := positions[name]; ok {
			return nil, fmt.Errorf("parsing header: column %s appears more than once", name)
		}
		positions[name] = i
	}
	cols := &columns{features: make([]int, len(features)), label: -1}
	for i, f := range features {
		p, ok := positions[f]
		if !ok {
			return nil, fmt.Errorf("parsing header: missing feature %s", f)
		}
		cols.features[i] = p
	}
	if label != "" {
		if p, ok := positions[label]; ok {
			cols.label = p
		}
	}
	return cols, nil
}

func parseRow(row []string, cols *columns) (dataset.Sample, error) {
	s := dataset.Sample{Values: make([]float64, len(cols.features))}
	for i, p := range cols.features {
		v, err := parseValue(row[p])
		if err != nil {
			return s, err
		}
		s.Values[i] = v
	}
	if cols.label >= 0 {
		v := row[cols.label]
		if v == "" || v == UndefinedValue {
			return s, nil
		}
		l, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return s, fmt.Errorf("converting label %s to a number: %v", v, err)
		}
		if l != dataset.Fraud && l != dataset.Normal {
			return s, fmt.Errorf("invalid label %s: expected %d or %d", v, dataset.Fraud, dataset.Normal)
		}
		s.Label = int(l)
	}
	return s, nil
}

func parseValue(v string) (float64, error) {
	if v == "" || v == UndefinedValue {
		return math.NaN(), nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("converting %s to float64: %v", v, err)
	}
	return f, nil
}

func formatValue(v float64) string {
	if math.IsNaN(v) {
		return UndefinedValue
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
