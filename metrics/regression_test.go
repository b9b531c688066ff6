package metrics

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/golgbm/pkg/errors"
)

func vec(values ...float64) *mat.VecDense {
	if len(values) == 0 {
		return &mat.VecDense{}
	}
	return mat.NewVecDense(len(values), values)
}

func TestRegressionMetrics(t *testing.T) {
	yTrue := vec(3, -0.5, 2, 7)
	yPred := vec(2.5, 0.0, 2, 8)

	tests := []struct {
		name string
		fn   func(a, b *mat.VecDense) (float64, error)
		want float64
	}{
		{"MSE", MSE, 0.375},
		{"RMSE", RMSE, math.Sqrt(0.375)},
		{"MAE", MAE, 0.5},
		{"R2Score", R2Score, 0.9486081370449679},
		{"ExplainedVarianceScore", ExplainedVarianceScore, 0.9571734475374732},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn(yTrue, yPred)
			if err != nil {
				t.Fatalf("%s() error = %v", tt.name, err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("%s() = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestRegressionPerfectFit(t *testing.T) {
	y := vec(1, 2, 3, 4)
	for name, fn := range map[string]func(a, b *mat.VecDense) (float64, error){
		"MSE": MSE, "MAE": MAE,
	} {
		if got, err := fn(y, y); err != nil || got != 0 {
			t.Errorf("%s(y, y) = %v, %v; want 0", name, got, err)
		}
	}
	if got, err := R2Score(y, y); err != nil || got != 1 {
		t.Errorf("R2Score(y, y) = %v, %v; want 1", got, err)
	}
}

func TestRegressionErrors(t *testing.T) {
	var dim *errors.DimensionError
	if _, err := MSE(vec(1, 2), vec(1)); !errors.As(err, &dim) {
		t.Errorf("MSE length mismatch error = %v, want DimensionError", err)
	}

	var verr *errors.ValueError
	if _, err := MAE(vec(), vec()); !errors.As(err, &verr) {
		t.Errorf("MAE empty error = %v, want ValueError", err)
	}
	if _, err := RMSE(nil, vec(1)); !errors.As(err, &verr) {
		t.Errorf("RMSE nil error = %v, want ValueError", err)
	}
	if _, err := R2Score(vec(2, 2, 2), vec(1, 2, 3)); !errors.As(err, &verr) {
		t.Errorf("R2Score constant labels error = %v, want ValueError", err)
	}
	if _, err := ExplainedVarianceScore(vec(5), vec(5)); !errors.As(err, &verr) {
		t.Errorf("ExplainedVarianceScore single value error = %v, want ValueError", err)
	}
}
