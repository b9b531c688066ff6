package lightgbm

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/golgbm/core/model"
	"github.com/YuminosukeSato/golgbm/internal/capi"
	gbm "github.com/YuminosukeSato/golgbm/lightgbm"
	"github.com/YuminosukeSato/golgbm/pkg/errors"
	"github.com/YuminosukeSato/golgbm/pkg/log"
)

// boosterEstimator は LGBMRegressor と LGBMClassifier に共通する
// Booster の保持、保存、解放を担う
type boosterEstimator struct {
	model.BaseEstimator
	Config

	name    string
	api     capi.API
	booster *gbm.Booster
	logger  log.Logger

	nFeatures_ int
}

func newBoosterEstimator(name string) boosterEstimator {
	return boosterEstimator{
		Config: DefaultConfig(),
		name:   name,
		logger: log.GetLoggerWithName("sklearn.lightgbm").With(log.ModelNameKey, name),
	}
}

func (e *boosterEstimator) options() []gbm.Option {
	if e.api == nil {
		return nil
	}
	return []gbm.Option{gbm.WithAPI(e.api)}
}

// fit trains a new booster on X and the already encoded labels and replaces
// the current one.
func (e *boosterEstimator) fit(X mat.Matrix, labels []float32, params gbm.Params) error {
	rows, cols := X.Dims()
	ds, err := gbm.DatasetFromMatrix(X, labels, e.options()...)
	if err != nil {
		return err
	}
	defer ds.Close()

	e.logger.Info("Training started",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, rows,
		log.FeaturesKey, cols,
		log.HyperParamsKey, params.String(),
	)
	booster, err := gbm.Train(ds, params)
	if err != nil {
		return err
	}

	e.replace(booster, cols)
	return nil
}

// replace installs booster, releasing the previous one.
func (e *boosterEstimator) replace(booster *gbm.Booster, nFeatures int) {
	if e.booster != nil {
		_ = e.booster.Close()
	}
	e.booster = booster
	e.nFeatures_ = nFeatures
	e.SetFitted()
}

func (e *boosterEstimator) checkInput(method string, X mat.Matrix) error {
	if err := e.RequireFitted(e.name, method); err != nil {
		return err
	}
	if _, cols := X.Dims(); cols != e.nFeatures_ {
		return errors.NewDimensionError(method, e.nFeatures_, cols, 1)
	}
	return nil
}

// predictMatrix returns rows × width values for X.
func (e *boosterEstimator) predictMatrix(method string, X mat.Matrix, mode gbm.PredictType) (*mat.Dense, error) {
	if err := e.checkInput(method, X); err != nil {
		return nil, err
	}
	return e.booster.PredictMatrix(X, mode)
}

// Booster returns the trained booster, or nil before Fit or Load.
func (e *boosterEstimator) Booster() *gbm.Booster {
	return e.booster
}

// NFeatures returns the number of features seen during Fit or Load.
func (e *boosterEstimator) NFeatures() int {
	return e.nFeatures_
}

// FeatureImportances returns one importance value per feature.
func (e *boosterEstimator) FeatureImportances(kind gbm.ImportanceType) ([]float64, error) {
	if err := e.RequireFitted(e.name, "FeatureImportances"); err != nil {
		return nil, err
	}
	return e.booster.FeatureImportance(kind)
}

// GetParams returns the hyperparameters under their scikit-learn names.
func (e *boosterEstimator) GetParams() map[string]interface{} {
	return e.Config.get()
}

// SetParams updates hyperparameters. Names may be scikit-learn names or
// LightGBM aliases. The fitted model, if any, is kept until the next Fit.
func (e *boosterEstimator) SetParams(params map[string]interface{}) error {
	return e.Config.set(params)
}

// Save writes the model in LightGBM text format.
func (e *boosterEstimator) Save(path string) error {
	if err := e.RequireFitted(e.name, "Save"); err != nil {
		return err
	}
	return e.booster.SaveModel(path)
}

// load replaces the current model with the one stored at path.
func (e *boosterEstimator) load(path string) (*gbm.Booster, error) {
	booster, err := gbm.BoosterFromFile(path, e.options()...)
	if err != nil {
		return nil, err
	}
	nFeatures, err := booster.NumFeature()
	if err != nil {
		_ = booster.Close()
		return nil, err
	}
	e.replace(booster, nFeatures)
	e.logger.Info("Model loaded", log.OperationKey, log.OperationLoad, log.PathKey, path)
	return booster, nil
}

// Close releases the native model. The estimator returns to the unfitted
// state and may be fitted again.
func (e *boosterEstimator) Close() error {
	if e.booster == nil {
		return nil
	}
	err := e.booster.Close()
	e.booster = nil
	e.nFeatures_ = 0
	e.Reset()
	return err
}
