package dataset

import (
	"fmt"
)

const (
	// Fraud is the label of anomalous samples
	Fraud = -1
	// Normal is the label of regular samples
	Normal = 1
)

/*
Sample represents a single record: its feature values and its label.

A zero Label stands for an unlabelled sample.
*/
type Sample struct {
	Values []float64
	Label  int
}

/*
Labelled returns whether the sample carries a label
*/
func (s Sample) Labelled() bool {
	return s.Label != 0
}

func (s Sample) String() string {
	if !s.Labelled() {
		return fmt.Sprintf("%v", s.Values)
	}
	return fmt.Sprintf("%v -> %d", s.Values, s.Label)
}
