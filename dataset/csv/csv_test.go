package csv

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datajms/skope-rules/dataset"
)

const transactions = `amount,class,age,comment
1200,-1,25,a
?,1,40,b
50,1,,c
`

func TestRead(t *testing.T) {
	d, err := Read(strings.NewReader(transactions), []string{"age", "amount"}, "class")
	require.NoError(t, err)
	require.Equal(t, 3, d.Rows())
	assert.Equal(t, []string{"age", "amount"}, d.Features)
	assert.Equal(t, []int{-1, 1, 1}, d.Y)
	assert.Equal(t, 25.0, d.X.At(0, 0))
	assert.Equal(t, 1200.0, d.X.At(0, 1))
	assert.True(t, math.IsNaN(d.X.At(1, 1)))
	assert.True(t, math.IsNaN(d.X.At(2, 0)))
}

func TestRead_Unlabelled(t *testing.T) {
	d, err := Read(strings.NewReader("age,amount\n1,2\n"), []string{"age", "amount"}, "class")
	require.NoError(t, err)
	assert.Nil(t, d.Y)
}

func TestRead_Errors(t *testing.T) {
	cases := []struct {
		name string
		doc  string
	}{
		{"Empty", ""},
		{"MissingFeature", "age,class\n1,1\n"},
		{"NoSamples", "age,amount,class\n"},
		{"BadValue", "age,amount,class\nx,1,1\n"},
		{"BadLabel", "age,amount,class\n1,1,0\n"},
		{"DuplicateColumn", "age,age,amount\n1,1,1\n"},
		{"Ragged", "age,amount,class\n1,1\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tc.doc), []string{"age", "amount"}, "class")
			assert.Error(t, err)
		})
	}
}

func TestReadBySample_Stops(t *testing.T) {
	var seen []int
	err := ReadBySample(strings.NewReader(transactions), []string{"age"}, "class", func(i int, s dataset.Sample) (bool, error) {
		seen = append(seen, i)
		return i < 1, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, seen)
}

func TestWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	w, err := NewWriter(buf, []string{"age", "amount"}, "class", "score")
	require.NoError(t, err)
	require.NoError(t, w.Write(dataset.Sample{Values: []float64{25, math.NaN()}, Label: -1}, "-0.8"))
	require.NoError(t, w.Write(dataset.Sample{Values: []float64{40, 10.5}}, "0"))
	assert.Error(t, w.Write(dataset.Sample{Values: []float64{1}}))
	require.NoError(t, w.Flush())
	assert.Equal(t, 2, w.Count())
	assert.Equal(t, "age,amount,class,score\n25,?,-1,-0.8\n40,10.5,?,0\n", buf.String())
}

func TestWriteReadRoundTrip(t *testing.T) {
	d, err := dataset.FromRows([][]float64{{1, 2}, {3, 4}}, []int{1, -1}, []string{"a", "b"})
	require.NoError(t, err)
	buf := &bytes.Buffer{}
	w, err := NewWriter(buf, d.Features, "class")
	require.NoError(t, err)
	for i := 0; i < d.Rows(); i++ {
		require.NoError(t, w.Write(d.Sample(i)))
	}
	require.NoError(t, w.Flush())

	read, err := Read(buf, d.Features, "class")
	require.NoError(t, err)
	assert.Equal(t, d.Y, read.Y)
	assert.Equal(t, d.X.RawMatrix().Data, read.X.RawMatrix().Data)
}
