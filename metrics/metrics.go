// Package metrics scores predictions against labels. Inputs are gonum
// vectors of equal, non-zero length.
package metrics

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/golgbm/pkg/errors"
)

// pair は 2 つのベクトルを検証し、連続したスライスとして取り出す
func pair(op string, yTrue, yPred *mat.VecDense) (truth, pred []float64, err error) {
	if yTrue == nil || yPred == nil {
		return nil, nil, errors.NewValueError(op, "nil vector")
	}
	n := yTrue.Len()
	if n == 0 {
		return nil, nil, errors.NewValueError(op, "empty vector")
	}
	if yPred.Len() != n {
		return nil, nil, errors.NewDimensionError(op, n, yPred.Len(), 0)
	}
	return mat.Col(nil, 0, yTrue), mat.Col(nil, 0, yPred), nil
}

func checkBinary(op string, labels []float64) error {
	for _, v := range labels {
		if v != 0 && v != 1 {
			return errors.NewValueError(op, "labels must be 0 or 1")
		}
	}
	return nil
}
