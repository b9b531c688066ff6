package lightgbm

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/golgbm/internal/capi"
	gbm "github.com/YuminosukeSato/golgbm/lightgbm"
	"github.com/YuminosukeSato/golgbm/metrics"
	"github.com/YuminosukeSato/golgbm/pkg/errors"
)

// LGBMRegressor implements a LightGBM regressor with scikit-learn compatible API
type LGBMRegressor struct {
	boosterEstimator
}

// NewLGBMRegressor creates a new LightGBM regressor with default parameters
func NewLGBMRegressor() *LGBMRegressor {
	return &LGBMRegressor{boosterEstimator: newBoosterEstimator("LGBMRegressor")}
}

// WithNumLeaves sets the number of leaves
func (lgb *LGBMRegressor) WithNumLeaves(n int) *LGBMRegressor {
	lgb.NumLeaves = n
	return lgb
}

// WithMaxDepth sets the maximum depth
func (lgb *LGBMRegressor) WithMaxDepth(d int) *LGBMRegressor {
	lgb.MaxDepth = d
	return lgb
}

// WithLearningRate sets the learning rate
func (lgb *LGBMRegressor) WithLearningRate(lr float64) *LGBMRegressor {
	lgb.LearningRate = lr
	return lgb
}

// WithNumIterations sets the number of iterations
func (lgb *LGBMRegressor) WithNumIterations(n int) *LGBMRegressor {
	lgb.NumIterations = n
	return lgb
}

// WithRandomState sets the random seed
func (lgb *LGBMRegressor) WithRandomState(seed int) *LGBMRegressor {
	lgb.RandomState = seed
	return lgb
}

// WithObjective sets the objective function
func (lgb *LGBMRegressor) WithObjective(obj string) *LGBMRegressor {
	lgb.Objective = obj
	return lgb
}

// WithAPI selects the native backend used by Fit and Load.
func (lgb *LGBMRegressor) WithAPI(api capi.API) *LGBMRegressor {
	lgb.api = api
	return lgb
}

func (lgb *LGBMRegressor) objective() (string, error) {
	objective, err := ValidateObjective(lgb.Objective)
	if err != nil {
		return "", err
	}
	if objective == "" {
		return "regression", nil
	}
	if isClassification(objective) {
		return "", errors.NewValidationError("objective", "classification objective on a regressor", objective)
	}
	return objective, nil
}

// Fit trains the LightGBM regressor
func (lgb *LGBMRegressor) Fit(X, y mat.Matrix) error {
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
	objective, err := lgb.objective()
	if err != nil {
		return err
	}

	labels := make([]float32, rows)
	for i := range labels {
		labels[i] = float32(y.At(i, 0))
	}
	return lgb.fit(X, labels, lgb.Config.params(objective))
}

// Predict makes predictions for input samples
func (lgb *LGBMRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	return lgb.predictMatrix("Predict", X, gbm.PredictNormal)
}

// PredictRaw returns raw scores before the objective's output transform.
func (lgb *LGBMRegressor) PredictRaw(X mat.Matrix) (mat.Matrix, error) {
	return lgb.predictMatrix("PredictRaw", X, gbm.PredictRawScore)
}

// PredictContrib returns per-feature contributions plus a bias column.
func (lgb *LGBMRegressor) PredictContrib(X mat.Matrix) (mat.Matrix, error) {
	return lgb.predictMatrix("PredictContrib", X, gbm.PredictContrib)
}

// Score returns the coefficient of determination R^2 of the prediction
func (lgb *LGBMRegressor) Score(X, y mat.Matrix) (float64, error) {
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
	return metrics.R2Score(yTrue, yPred)
}

// Load replaces the model with one read from a LightGBM model file.
func (lgb *LGBMRegressor) Load(path string) error {
	_, err := lgb.load(path)
	return err
}

// columnPair extracts the first column of y and predictions as vectors.
func columnPair(op string, y, predictions mat.Matrix) (*mat.VecDense, *mat.VecDense, error) {
	yRows, _ := y.Dims()
	pRows, _ := predictions.Dims()
	if yRows != pRows {
		return nil, nil, errors.NewDimensionError(op, pRows, yRows, 0)
	}
	yTrue := mat.NewVecDense(yRows, nil)
	yPred := mat.NewVecDense(pRows, nil)
	for i := 0; i < yRows; i++ {
		yTrue.SetVec(i, y.At(i, 0))
		yPred.SetVec(i, predictions.At(i, 0))
	}
	return yTrue, yPred, nil
}
