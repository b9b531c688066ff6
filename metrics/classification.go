package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/golgbm/pkg/errors"
)

// logLossEps は log(0) を避けるための確率のクリップ幅
const logLossEps = 1e-15

// AUC は ROC 曲線下面積を返す。同順位のスコアには平均順位を割り当てる。
// 正例か負例しかない場合は 0.5。
func AUC(yTrue, yPred *mat.VecDense) (float64, error) {
	truth, pred, err := pair("AUC", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	if err := checkBinary("AUC", truth); err != nil {
		return 0, err
	}

	n := len(pred)
	idx := make([]int, n)
	floats.Argsort(pred, idx)

	// Mann-Whitney U
	var rankSumPos, nPos float64
	for i := 0; i < n; {
		j := i
		for j+1 < n && pred[j+1] == pred[i] {
			j++
		}
		avgRank := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			if truth[idx[k]] == 1 {
				rankSumPos += avgRank
				nPos++
			}
		}
		i = j + 1
	}
	nNeg := float64(n) - nPos
	if nPos == 0 || nNeg == 0 {
		return 0.5, nil
	}
	return (rankSumPos - nPos*(nPos+1)/2) / (nPos * nNeg), nil
}

// BinaryLogLoss は二値分類の交差エントロピーを返す。yPred は正例の確率。
func BinaryLogLoss(yTrue, yPred *mat.VecDense) (float64, error) {
	truth, pred, err := pair("BinaryLogLoss", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	if err := checkBinary("BinaryLogLoss", truth); err != nil {
		return 0, err
	}

	var sum float64
	for i, y := range truth {
		p := math.Min(math.Max(pred[i], logLossEps), 1-logLossEps)
		if y == 1 {
			sum -= math.Log(p)
		} else {
			sum -= math.Log(1 - p)
		}
	}
	return sum / float64(len(truth)), nil
}

// MultiLogLoss は多クラスの交差エントロピーを返す。
// proba は 1 行 1 サンプルのクラス確率、yTrue はクラス番号。
func MultiLogLoss(yTrue *mat.VecDense, proba mat.Matrix) (float64, error) {
	const op = "MultiLogLoss"
	if yTrue == nil || proba == nil {
		return 0, errors.NewValueError(op, "nil input")
	}
	n := yTrue.Len()
	r, c := proba.Dims()
	if n == 0 || c == 0 {
		return 0, errors.NewValueError(op, "empty input")
	}
	if r != n {
		return 0, errors.NewDimensionError(op, n, r, 0)
	}

	var sum float64
	for i := 0; i < n; i++ {
		y := yTrue.AtVec(i)
		k := int(y)
		if float64(k) != y || k < 0 || k >= c {
			return 0, errors.NewValueError(op, "label out of range")
		}
		sum -= math.Log(math.Max(proba.At(i, k), logLossEps))
	}
	return sum / float64(n), nil
}

// Accuracy は yTrue と yPred が一致する割合を返す
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	truth, pred, err := pair("Accuracy", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	var correct int
	for i := range truth {
		if truth[i] == pred[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(truth)), nil
}

// ArgmaxRows は各行で最大値を持つ列番号を返す。同値は小さい番号を優先する。
func ArgmaxRows(proba mat.Matrix) *mat.VecDense {
	r, c := proba.Dims()
	out := mat.NewVecDense(r, nil)
	row := make([]float64, c)
	for i := 0; i < r; i++ {
		mat.Row(row, i, proba)
		out.SetVec(i, float64(floats.MaxIdx(row)))
	}
	return out
}
