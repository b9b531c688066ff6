package lightgbm

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/golgbm/internal/capi/fakecapi"
	"github.com/YuminosukeSato/golgbm/pkg/errors"
)

func TestKFoldSplit(t *testing.T) {
	X := mat.NewDense(11, 1, nil)

	for _, shuffle := range []bool{false, true} {
		folds := NewKFold(3, shuffle, 42).Split(X, nil)
		require.Len(t, folds, 3)

		var all []int
		sizes := make([]int, len(folds))
		for i, fold := range folds {
			sizes[i] = len(fold.TestIndices)
			assert.Len(t, fold.TrainIndices, 11-len(fold.TestIndices))
			for _, idx := range fold.TestIndices {
				assert.NotContains(t, fold.TrainIndices, idx)
			}
			all = append(all, fold.TestIndices...)
		}
		assert.Equal(t, []int{4, 4, 3}, sizes)

		sort.Ints(all)
		for i, idx := range all {
			assert.Equal(t, i, idx, "every sample is tested exactly once")
		}
	}

	assert.Equal(t, 5, NewKFold(1, false, 0).GetNSplits())
}

func TestKFoldShuffleIsSeeded(t *testing.T) {
	X := mat.NewDense(20, 1, nil)
	a := NewKFold(4, true, 7).Split(X, nil)
	b := NewKFold(4, true, 7).Split(X, nil)
	assert.Equal(t, a, b)
}

func TestStratifiedKFoldSplit(t *testing.T) {
	// クラス 0 が 6 件、クラス 1 が 3 件
	X := mat.NewDense(9, 1, nil)
	y := mat.NewDense(9, 1, []float64{0, 1, 0, 0, 1, 0, 0, 1, 0})

	folds := NewStratifiedKFold(3, false, 0).Split(X, y)
	require.Len(t, folds, 3)
	for _, fold := range folds {
		counts := map[float64]int{}
		for _, idx := range fold.TestIndices {
			counts[y.At(idx, 0)]++
		}
		assert.Equal(t, 2, counts[0])
		assert.Equal(t, 1, counts[1])
		assert.Len(t, fold.TrainIndices, 6)
	}
}

func TestCVResultStatistics(t *testing.T) {
	cv := &CVResult{TestScores: []float64{0.8, 0.9, 1.0}}
	assert.InDelta(t, 0.9, cv.GetMeanScore(), 1e-12)
	assert.InDelta(t, 0.1, cv.GetStdScore(), 1e-12)

	empty := &CVResult{}
	assert.Equal(t, 0.0, empty.GetMeanScore())
	assert.Equal(t, 0.0, empty.GetStdScore())
}

func TestCrossValidateRegressor(t *testing.T) {
	fake := fakecapi.New()
	X, y := regressionData()
	reg := NewLGBMRegressor().WithAPI(fake).WithNumIterations(3)

	result, err := CrossValidateRegressor(reg, X, y, NewKFold(5, false, 0))
	require.NoError(t, err)
	require.Len(t, result.TestScores, 5)
	for i := range result.TestScores {
		assert.InDelta(t, 1.0, result.TrainScores[i], 1e-6)
		assert.InDelta(t, 1.0, result.TestScores[i], 1e-4)
	}
	assert.Equal(t, result.TestScores[result.BestFold], result.BestScore)
	assert.Equal(t, 5, fake.Calls("BoosterCreate"))
	assert.Equal(t, 0, fake.LiveBoosters(), "each fold's model must be closed")
	assert.Equal(t, 0, fake.LiveDatasets())
	assert.False(t, reg.IsFitted(), "the template estimator is not trained")
}

func TestCrossValidateClassifier(t *testing.T) {
	fake := fakecapi.New()
	X, y := binaryData()
	clf := NewLGBMClassifier().WithAPI(fake)

	result, err := CrossValidateClassifier(clf, X, y, NewStratifiedKFold(2, false, 0))
	require.NoError(t, err)
	for _, score := range result.TestScores {
		assert.Equal(t, 1.0, score)
	}
	assert.Equal(t, 0, fake.LiveBoosters())
}

func TestCrossValidateErrors(t *testing.T) {
	X, y := regressionData()
	reg := NewLGBMRegressor().WithAPI(fakecapi.New())

	_, err := CrossValidateRegressor(reg, X, mat.NewDense(4, 1, nil), NewKFold(2, false, 0))
	var derr *errors.DimensionError
	require.True(t, errors.As(err, &derr))

	_, err = CrossValidateRegressor(reg, X, y, NewKFold(11, false, 0))
	var verr *errors.ValueError
	require.True(t, errors.As(err, &verr))

	fake := fakecapi.New()
	fake.Fail("BoosterCreate", "boom")
	_, err = CrossValidateRegressor(NewLGBMRegressor().WithAPI(fake), X, y, NewKFold(2, false, 0))
	var nerr *errors.NativeError
	require.True(t, errors.As(err, &nerr))
	assert.Contains(t, err.Error(), "fold 0")
	assert.Equal(t, 0, fake.LiveDatasets())
}
