package lightgbm

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/golgbm/core/model"
	"github.com/YuminosukeSato/golgbm/internal/capi"
	gbm "github.com/YuminosukeSato/golgbm/lightgbm"
	"github.com/YuminosukeSato/golgbm/metrics"
	"github.com/YuminosukeSato/golgbm/pkg/errors"
)

// LGBMClassifier implements a LightGBM classifier with scikit-learn compatible API.
//
// Labels may be any float values. They are sorted and encoded as 0..K-1 for
// training; Predict maps the winning index back to the original label. Two
// classes train the binary objective, more train multiclass.
type LGBMClassifier struct {
	boosterEstimator

	classes_  []float64
	nClasses_ int
}

// NewLGBMClassifier creates a new LightGBM classifier with default parameters
func NewLGBMClassifier() *LGBMClassifier {
	return &LGBMClassifier{boosterEstimator: newBoosterEstimator("LGBMClassifier")}
}

// WithNumLeaves sets the number of leaves
func (lgb *LGBMClassifier) WithNumLeaves(n int) *LGBMClassifier {
	lgb.NumLeaves = n
	return lgb
}

// WithMaxDepth sets the maximum depth
func (lgb *LGBMClassifier) WithMaxDepth(d int) *LGBMClassifier {
	lgb.MaxDepth = d
	return lgb
}

// WithLearningRate sets the learning rate
func (lgb *LGBMClassifier) WithLearningRate(lr float64) *LGBMClassifier {
	lgb.LearningRate = lr
	return lgb
}

// WithNumIterations sets the number of iterations
func (lgb *LGBMClassifier) WithNumIterations(n int) *LGBMClassifier {
	lgb.NumIterations = n
	return lgb
}

// WithRandomState sets the random seed
func (lgb *LGBMClassifier) WithRandomState(seed int) *LGBMClassifier {
	lgb.RandomState = seed
	return lgb
}

// WithAPI selects the native backend used by Fit and Load.
func (lgb *LGBMClassifier) WithAPI(api capi.API) *LGBMClassifier {
	lgb.api = api
	return lgb
}

// uniqueLabels returns the sorted distinct values of the first column of y.
// NaN never equals itself, so NaN rows are skipped here; Fit rejects them first.
func uniqueLabels(y mat.Matrix) []float64 {
	rows, _ := y.Dims()
	seen := make(map[float64]bool)
	var classes []float64
	for i := 0; i < rows; i++ {
		v := y.At(i, 0)
		if math.IsNaN(v) {
			continue
		}
		if !seen[v] {
			seen[v] = true
			classes = append(classes, v)
		}
	}
	sort.Float64s(classes)
	return classes
}

// checkLabels rejects NaN labels, which cannot be encoded as a class index.
func checkLabels(y mat.Matrix) error {
	rows, _ := y.Dims()
	for i := 0; i < rows; i++ {
		if math.IsNaN(y.At(i, 0)) {
			return errors.NewValidationError("y", "labels must not be NaN", i)
		}
	}
	return nil
}

func (lgb *LGBMClassifier) trainingParams(nClasses int) (gbm.Params, error) {
	objective, err := ValidateObjective(lgb.Objective)
	if err != nil {
		return nil, err
	}
	switch {
	case objective == "" && nClasses == 2:
		objective = "binary"
	case objective == "":
		objective = "multiclass"
	case !isClassification(objective):
		return nil, errors.NewValidationError("objective", "regression objective on a classifier", objective)
	case objective == "binary" && nClasses != 2:
		return nil, errors.NewValidationError("objective", "binary objective needs exactly 2 classes", nClasses)
	}

	p := lgb.Config.params(objective)
	if objective != "binary" {
		p["num_class"] = nClasses
	}
	return p, nil
}

// Fit trains the LightGBM classifier
func (lgb *LGBMClassifier) Fit(X, y mat.Matrix) error {
	rows, _ := X.Dims()
	yRows, yCols := y.Dims()

	if rows != yRows {
		return errors.NewDimensionError("Fit", rows, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewDimensionError("Fit", 1, yCols, 1)
	}
	if err := lgb.Config.validate(); err != nil {
		return err
	}

	if err := checkLabels(y); err != nil {
		return err
	}
	classes := uniqueLabels(y)
	if len(classes) < 2 {
		return errors.NewValidationError("y", "at least 2 classes are required", len(classes))
	}
	params, err := lgb.trainingParams(len(classes))
	if err != nil {
		return err
	}

	index := make(map[float64]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}
	labels := make([]float32, rows)
	for i := range labels {
		labels[i] = float32(index[y.At(i, 0)])
	}

	if err := lgb.fit(X, labels, params); err != nil {
		return err
	}
	lgb.classes_ = classes
	lgb.nClasses_ = len(classes)
	return nil
}

// PredictProba returns an n × K matrix of class probabilities, columns in
// Classes() order. Binary models yield two columns.
func (lgb *LGBMClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	raw, err := lgb.predictMatrix("PredictProba", X, gbm.PredictNormal)
	if err != nil {
		return nil, err
	}
	rows, width := raw.Dims()
	if width != 1 {
		return raw, nil
	}
	proba := mat.NewDense(rows, 2, nil)
	for i := 0; i < rows; i++ {
		p := raw.At(i, 0)
		proba.Set(i, 0, 1-p)
		proba.Set(i, 1, p)
	}
	return proba, nil
}

// Predict returns the most probable class label for each row as an n × 1 matrix.
func (lgb *LGBMClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	proba, err := lgb.PredictProba(X)
	if err != nil {
		return nil, err
	}
	best := metrics.ArgmaxRows(proba)
	out := mat.NewDense(best.Len(), 1, nil)
	for i := 0; i < best.Len(); i++ {
		out.Set(i, 0, lgb.classes_[int(best.AtVec(i))])
	}
	return out, nil
}

// PredictRaw returns raw scores, one column per model output.
func (lgb *LGBMClassifier) PredictRaw(X mat.Matrix) (mat.Matrix, error) {
	return lgb.predictMatrix("PredictRaw", X, gbm.PredictRawScore)
}

// Score returns the mean accuracy on the given test data and labels
func (lgb *LGBMClassifier) Score(X, y mat.Matrix) (float64, error) {
	if err := lgb.RequireFitted(lgb.name, "Score"); err != nil {
		return 0, err
	}
	predictions, err := lgb.Predict(X)
	if err != nil {
		return 0, err
	}
	yTrue, yPred, err := columnPair("Score", y, predictions)
	if err != nil {
		return 0, err
	}
	return metrics.Accuracy(yTrue, yPred)
}

// Classes returns the class labels in PredictProba column order.
func (lgb *LGBMClassifier) Classes() []float64 {
	return append([]float64(nil), lgb.classes_...)
}

// NClasses returns the number of classes.
func (lgb *LGBMClassifier) NClasses() int {
	return lgb.nClasses_
}

// Load replaces the model with one read from a LightGBM model file. Model
// files do not record the original labels, so the classes become 0..K-1.
func (lgb *LGBMClassifier) Load(path string) error {
	booster, err := lgb.load(path)
	if err != nil {
		return err
	}
	k, err := booster.NumClasses()
	if err != nil {
		_ = lgb.Close()
		return err
	}
	if k == 1 {
		k = 2
	}
	lgb.classes_ = make([]float64, k)
	for i := range lgb.classes_ {
		lgb.classes_[i] = float64(i)
	}
	lgb.nClasses_ = k
	return nil
}

// Close releases the native model.
func (lgb *LGBMClassifier) Close() error {
	lgb.classes_ = nil
	lgb.nClasses_ = 0
	return lgb.boosterEstimator.Close()
}

var (
	_ model.Classifier      = (*LGBMClassifier)(nil)
	_ model.Regressor       = (*LGBMRegressor)(nil)
	_ model.Persistable     = (*LGBMClassifier)(nil)
	_ model.Persistable     = (*LGBMRegressor)(nil)
	_ model.ParameterGetter = (*LGBMRegressor)(nil)
	_ model.ParameterSetter = (*LGBMRegressor)(nil)
	_ model.Releaser        = (*LGBMClassifier)(nil)
)
