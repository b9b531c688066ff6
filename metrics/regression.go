package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/golgbm/pkg/errors"
)

// MSE は平均二乗誤差を返す
func MSE(yTrue, yPred *mat.VecDense) (float64, error) {
	truth, pred, err := pair("MSE", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	d := floats.Distance(truth, pred, 2)
	return d * d / float64(len(truth)), nil
}

// RMSE は MSE の平方根を返す。LightGBM の l2 メトリクスの root 版に相当する。
func RMSE(yTrue, yPred *mat.VecDense) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE は平均絶対誤差を返す
func MAE(yTrue, yPred *mat.VecDense) (float64, error) {
	truth, pred, err := pair("MAE", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return floats.Distance(truth, pred, 1) / float64(len(truth)), nil
}

// R2Score は決定係数 1 - RSS/TSS を返す。yTrue が定数のときはエラー。
func R2Score(yTrue, yPred *mat.VecDense) (float64, error) {
	truth, pred, err := pair("R2Score", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	if constant(truth) {
		return 0, errors.NewValueError("R2Score", "total sum of squares is zero (no variance in yTrue)")
	}
	return stat.RSquaredFrom(pred, truth, nil), nil
}

// ExplainedVarianceScore は 1 - Var(yTrue - yPred) / Var(yTrue) を返す
func ExplainedVarianceScore(yTrue, yPred *mat.VecDense) (float64, error) {
	truth, pred, err := pair("ExplainedVarianceScore", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	if constant(truth) {
		return 0, errors.NewValueError("ExplainedVarianceScore", "no variance in yTrue")
	}
	residual := make([]float64, len(truth))
	floats.SubTo(residual, truth, pred)
	return 1 - stat.Variance(residual, nil)/stat.Variance(truth, nil), nil
}

func constant(x []float64) bool {
	return floats.Min(x) == floats.Max(x)
}
