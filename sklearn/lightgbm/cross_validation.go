package lightgbm

import (
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/golgbm/core/model"
	"github.com/YuminosukeSato/golgbm/pkg/errors"
	"github.com/YuminosukeSato/golgbm/pkg/log"
)

// KFoldSplitter defines interface for cross-validation splitters
type KFoldSplitter interface {
	Split(X, y mat.Matrix) []CVFold
	GetNSplits() int
}

// CVFold represents a single fold in cross-validation
type CVFold struct {
	TrainIndices []int
	TestIndices  []int
}

// KFold implements k-fold cross-validation splitter
type KFold struct {
	NSplits    int
	Shuffle    bool
	RandomSeed int
}

// NewKFold creates a new k-fold splitter
func NewKFold(nSplits int, shuffle bool, randomSeed int) *KFold {
	if nSplits < 2 {
		nSplits = 5
	}
	return &KFold{NSplits: nSplits, Shuffle: shuffle, RandomSeed: randomSeed}
}

// GetNSplits returns the number of splits
func (kf *KFold) GetNSplits() int {
	return kf.NSplits
}

func shuffled(indices []int, seed int) {
	r := rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
	r.Shuffle(len(indices), func(i, j int) {
		indices[i], indices[j] = indices[j], indices[i]
	})
}

// complement returns 0..n-1 without the members of test, in order.
func complement(n int, test []int) []int {
	inTest := make(map[int]bool, len(test))
	for _, i := range test {
		inTest[i] = true
	}
	train := make([]int, 0, n-len(test))
	for i := 0; i < n; i++ {
		if !inTest[i] {
			train = append(train, i)
		}
	}
	return train
}

// Split generates train/test indices for each fold. The first n % k folds
// receive one extra test sample.
func (kf *KFold) Split(X, _ mat.Matrix) []CVFold {
	nSamples, _ := X.Dims()

	indices := make([]int, nSamples)
	for i := range indices {
		indices[i] = i
	}
	if kf.Shuffle {
		shuffled(indices, kf.RandomSeed)
	}

	folds := make([]CVFold, kf.NSplits)
	foldSize := nSamples / kf.NSplits
	remainder := nSamples % kf.NSplits

	current := 0
	for i := range folds {
		testSize := foldSize
		if i < remainder {
			testSize++
		}
		test := append([]int(nil), indices[current:current+testSize]...)
		folds[i] = CVFold{TrainIndices: complement(nSamples, test), TestIndices: test}
		current += testSize
	}
	return folds
}

// StratifiedKFold implements stratified k-fold cross-validation
type StratifiedKFold struct {
	NSplits    int
	Shuffle    bool
	RandomSeed int
}

// NewStratifiedKFold creates a new stratified k-fold splitter
func NewStratifiedKFold(nSplits int, shuffle bool, randomSeed int) *StratifiedKFold {
	if nSplits < 2 {
		nSplits = 5
	}
	return &StratifiedKFold{NSplits: nSplits, Shuffle: shuffle, RandomSeed: randomSeed}
}

// GetNSplits returns the number of splits
func (skf *StratifiedKFold) GetNSplits() int {
	return skf.NSplits
}

// Split generates train/test indices that keep each class's share roughly
// equal across folds.
func (skf *StratifiedKFold) Split(X, y mat.Matrix) []CVFold {
	nSamples, _ := X.Dims()

	// クラスごとにインデックスをまとめる (ラベル昇順で処理し結果を決定的にする)
	classes := uniqueLabels(y)
	byClass := make(map[float64][]int, len(classes))
	for i := 0; i < nSamples; i++ {
		label := y.At(i, 0)
		byClass[label] = append(byClass[label], i)
	}

	folds := make([]CVFold, skf.NSplits)
	for _, label := range classes {
		indices := byClass[label]
		if skf.Shuffle {
			shuffled(indices, skf.RandomSeed)
		}
		foldSize := len(indices) / skf.NSplits
		remainder := len(indices) % skf.NSplits

		current := 0
		for i := range folds {
			testSize := foldSize
			if i < remainder {
				testSize++
			}
			folds[i].TestIndices = append(folds[i].TestIndices, indices[current:current+testSize]...)
			current += testSize
		}
	}

	for i := range folds {
		folds[i].TrainIndices = complement(nSamples, folds[i].TestIndices)
	}
	return folds
}

// CVEstimator is what CrossValidate needs from a model.
type CVEstimator interface {
	model.Fitter
	model.Scorer
	model.Releaser
}

// CVResult stores cross-validation results. Scores come from the
// estimator's Score, so higher is better.
type CVResult struct {
	TrainScores []float64
	TestScores  []float64
	FitTimes    []time.Duration
	BestFold    int
	BestScore   float64
}

// GetMeanScore returns mean test score
func (cv *CVResult) GetMeanScore() float64 {
	if len(cv.TestScores) == 0 {
		return 0.0
	}
	sum := 0.0
	for _, score := range cv.TestScores {
		sum += score
	}
	return sum / float64(len(cv.TestScores))
}

// GetStdScore returns the sample standard deviation of test scores
func (cv *CVResult) GetStdScore() float64 {
	if len(cv.TestScores) <= 1 {
		return 0.0
	}
	mean := cv.GetMeanScore()
	sumSq := 0.0
	for _, score := range cv.TestScores {
		diff := score - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(len(cv.TestScores)-1))
}

// CrossValidate fits a fresh estimator from newEstimator on each training
// fold and scores it on both sides of the split. Folds run one after
// another; each model is closed once scored.
func CrossValidate(newEstimator func() CVEstimator, X, y mat.Matrix, splitter KFoldSplitter) (*CVResult, error) {
	rows, _ := X.Dims()
	if yRows, _ := y.Dims(); yRows != rows {
		return nil, errors.NewDimensionError("CrossValidate", rows, yRows, 0)
	}

	folds := splitter.Split(X, y)
	if len(folds) == 0 {
		return nil, errors.NewValueError("CrossValidate", "splitter produced no folds")
	}
	logger := log.GetLoggerWithName("sklearn.lightgbm.cv")

	result := &CVResult{
		TrainScores: make([]float64, len(folds)),
		TestScores:  make([]float64, len(folds)),
		FitTimes:    make([]time.Duration, len(folds)),
	}
	for _, fold := range folds {
		if len(fold.TrainIndices) == 0 || len(fold.TestIndices) == 0 {
			return nil, errors.NewValueError("CrossValidate", "empty fold; use fewer splits")
		}
	}
	for idx, fold := range folds {
		trainX, trainY := extractSubset(X, y, fold.TrainIndices)
		testX, testY := extractSubset(X, y, fold.TestIndices)

		train, test, elapsed, err := scoreFold(newEstimator(), trainX, trainY, testX, testY)
		if err != nil {
			return nil, errors.Wrapf(err, "fold %d", idx)
		}
		result.TrainScores[idx] = train
		result.TestScores[idx] = test
		result.FitTimes[idx] = elapsed

		logger.Debug("Fold scored",
			"fold", idx,
			"train_score", train,
			"test_score", test,
			log.DurationMsKey, elapsed.Milliseconds(),
		)
	}

	result.BestFold = 0
	result.BestScore = result.TestScores[0]
	for i, score := range result.TestScores[1:] {
		if score > result.BestScore {
			result.BestScore = score
			result.BestFold = i + 1
		}
	}
	return result, nil
}

func scoreFold(est CVEstimator, trainX, trainY, testX, testY mat.Matrix) (train, test float64, elapsed time.Duration, err error) {
	defer est.Close()

	start := time.Now()
	if err = est.Fit(trainX, trainY); err != nil {
		return 0, 0, 0, err
	}
	elapsed = time.Since(start)

	if train, err = est.Score(trainX, trainY); err != nil {
		return 0, 0, 0, err
	}
	if test, err = est.Score(testX, testY); err != nil {
		return 0, 0, 0, err
	}
	return train, test, elapsed, nil
}

// extractSubset extracts the rows of X and y named by indices, in order.
func extractSubset(X, y mat.Matrix, indices []int) (*mat.Dense, *mat.Dense) {
	_, xCols := X.Dims()
	_, yCols := y.Dims()

	xSubset := mat.NewDense(len(indices), xCols, nil)
	ySubset := mat.NewDense(len(indices), yCols, nil)
	for i, idx := range indices {
		for j := 0; j < xCols; j++ {
			xSubset.Set(i, j, X.At(idx, j))
		}
		for j := 0; j < yCols; j++ {
			ySubset.Set(i, j, y.At(idx, j))
		}
	}
	return xSubset, ySubset
}

// CrossValidateRegressor cross-validates copies of regressor's configuration
// and backend using R^2.
func CrossValidateRegressor(regressor *LGBMRegressor, X, y mat.Matrix, cv KFoldSplitter) (*CVResult, error) {
	return CrossValidate(func() CVEstimator {
		est := NewLGBMRegressor().WithAPI(regressor.api)
		est.Config = regressor.Config
		return est
	}, X, y, cv)
}

// CrossValidateClassifier cross-validates copies of classifier's
// configuration and backend using accuracy.
func CrossValidateClassifier(classifier *LGBMClassifier, X, y mat.Matrix, cv KFoldSplitter) (*CVResult, error) {
	return CrossValidate(func() CVEstimator {
		est := NewLGBMClassifier().WithAPI(classifier.api)
		est.Config = classifier.Config
		return est
	}, X, y, cv)
}
