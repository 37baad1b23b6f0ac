package pot

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/datajms/skope-rules/dataset"
)

// impurityEpsilon is the minimum impurity decrease for a split
// to be worth incorporating into the tree
const impurityEpsilon = 1e-12

/*
split represents a partition of the rows of a node in two according to
a feature threshold, with the weighted Gini impurity of the two parts.
*/
type split struct {
	feature     int
	threshold   float64
	impurity    float64
	left, right []int
}

/*
bestSplit returns the split of the given rows on one of the given features that
decreases the most the given impurity, or nil if no split decreases it.
Thresholds are placed halfway between consecutive distinct values of a feature.
Ties are resolved in favor of the first feature in the given order and the
lowest threshold.
*/
func bestSplit(x mat.Matrix, y []int, rows []int, features []int, impurity float64) *split {
	var best *split
	total := len(rows)
	totalFraud := countFraud(y, rows)
	sorted := make([]int, total)
	for _, f := range features {
		copy(sorted, rows)
		sort.SliceStable(sorted, func(a, b int) bool {
			return x.At(sorted[a], f) < x.At(sorted[b], f)
		})
		leftFraud := 0
		for i := 0; i < total-1; i++ {
			if y[sorted[i]] == dataset.Fraud {
				leftFraud++
			}
			a, b := x.At(sorted[i], f), x.At(sorted[i+1], f)
			if a == b {
				continue
			}
			nl, nr := i+1, total-i-1
			childImpurity := (float64(nl)*gini(leftFraud, nl) + float64(nr)*gini(totalFraud-leftFraud, nr)) / float64(total)
			if impurity-childImpurity <= impurityEpsilon {
				continue
			}
			if best == nil || childImpurity < best.impurity {
				threshold := a/2 + b/2
				if threshold >= b {
					threshold = a
				}
				best = &split{feature: f, threshold: threshold, impurity: childImpurity}
			}
		}
	}
	if best == nil {
		return nil
	}
	for _, r := range rows {
		if x.At(r, best.feature) <= best.threshold {
			best.left = append(best.left, r)
		} else {
			best.right = append(best.right, r)
		}
	}
	return best
}

// gini returns the Gini impurity of a node with n samples
// of which fraud are fraud samples
func gini(fraud, n int) float64 {
	if n == 0 {
		return 0.0
	}
	p := float64(fraud) / float64(n)
	return 2.0 * p * (1.0 - p)
}

func countFraud(y []int, rows []int) int {
	var count int
	for _, r := range rows {
		if y[r] == dataset.Fraud {
			count++
		}
	}
	return count
}
