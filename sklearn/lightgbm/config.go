package lightgbm

import (
	"github.com/mitchellh/mapstructure"

	gbm "github.com/YuminosukeSato/golgbm/lightgbm"
	"github.com/YuminosukeSato/golgbm/pkg/errors"
)

var mapper = NewParameterMapper()

// Config holds the hyperparameters shared by LGBMRegressor and
// LGBMClassifier. Field tags are the canonical scikit-learn names accepted
// by SetParams.
type Config struct {
	NumIterations   int     `mapstructure:"n_estimators"`      // Number of boosting iterations
	LearningRate    float64 `mapstructure:"learning_rate"`     // Boosting learning rate
	NumLeaves       int     `mapstructure:"num_leaves"`        // Number of leaves in one tree
	MaxDepth        int     `mapstructure:"max_depth"`         // Maximum tree depth, -1 for no limit
	MinChildSamples int     `mapstructure:"min_child_samples"` // Minimum number of data in one leaf
	RegAlpha        float64 `mapstructure:"reg_alpha"`         // L1 regularization
	RegLambda       float64 `mapstructure:"reg_lambda"`        // L2 regularization
	Subsample       float64 `mapstructure:"subsample"`         // Subsample ratio of training data
	SubsampleFreq   int     `mapstructure:"subsample_freq"`    // Frequency of subsample
	ColsampleBytree float64 `mapstructure:"colsample_bytree"`  // Column subsample ratio per tree
	RandomState     int     `mapstructure:"random_state"`      // Random seed
	Objective       string  `mapstructure:"objective"`         // Empty lets the estimator choose
	NumThreads      int     `mapstructure:"n_jobs"`            // <= 0 uses the library default
	Deterministic   bool    `mapstructure:"deterministic"`     // Deterministic mode for reproducibility
	Verbosity       int     `mapstructure:"verbosity"`         // Native log verbosity

	// Extra is passed to the library verbatim and overrides the fields above.
	Extra gbm.Params `mapstructure:"-"`
}

// DefaultConfig returns the LightGBM defaults.
func DefaultConfig() Config {
	return Config{
		NumIterations:   gbm.DefaultNumIterations,
		LearningRate:    0.1,
		NumLeaves:       31,
		MaxDepth:        -1,
		MinChildSamples: 20,
		Subsample:       1.0,
		ColsampleBytree: 1.0,
		Verbosity:       -1,
	}
}

// params returns the native parameters for a training run with objective.
func (c Config) params(objective string) gbm.Params {
	p := gbm.Params{
		"num_iterations":   c.NumIterations,
		"learning_rate":    c.LearningRate,
		"num_leaves":       c.NumLeaves,
		"max_depth":        c.MaxDepth,
		"min_data_in_leaf": c.MinChildSamples,
		"lambda_l1":        c.RegAlpha,
		"lambda_l2":        c.RegLambda,
		"bagging_fraction": c.Subsample,
		"bagging_freq":     c.SubsampleFreq,
		"feature_fraction": c.ColsampleBytree,
		"seed":             c.RandomState,
		"objective":        objective,
		"verbosity":        c.Verbosity,
	}
	if c.NumThreads > 0 {
		p["num_threads"] = c.NumThreads
	}
	if c.Deterministic {
		p["deterministic"] = true
	}
	for k, v := range c.Extra {
		p[k] = v
	}
	return p
}

// get returns the hyperparameters under their canonical names.
func (c Config) get() map[string]interface{} {
	return map[string]interface{}{
		"n_estimators":      c.NumIterations,
		"learning_rate":     c.LearningRate,
		"num_leaves":        c.NumLeaves,
		"max_depth":         c.MaxDepth,
		"min_child_samples": c.MinChildSamples,
		"reg_alpha":         c.RegAlpha,
		"reg_lambda":        c.RegLambda,
		"subsample":         c.Subsample,
		"subsample_freq":    c.SubsampleFreq,
		"colsample_bytree":  c.ColsampleBytree,
		"random_state":      c.RandomState,
		"objective":         c.Objective,
		"n_jobs":            c.NumThreads,
		"deterministic":     c.Deterministic,
		"verbosity":         c.Verbosity,
	}
}

// set applies params, given under canonical names or aliases. Values are
// weakly typed, so "0.05" and 0.05 are both accepted for learning_rate. On
// error c is unchanged.
func (c *Config) set(params map[string]interface{}) error {
	canonical, err := mapper.Canonicalize(params)
	if err != nil {
		return err
	}
	if obj, ok := canonical["objective"]; ok {
		name, isString := obj.(string)
		if !isString {
			return errors.NewValidationError("objective", "must be a string", obj)
		}
		if canonical["objective"], err = ValidateObjective(name); err != nil {
			return err
		}
	}

	next := *c
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &next,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return errors.Wrap(err, "SetParams")
	}
	if err := decoder.Decode(canonical); err != nil {
		return errors.NewValidationError("params", err.Error(), params)
	}
	if err := next.validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

func (c Config) validate() error {
	switch {
	case c.NumIterations <= 0:
		return errors.NewValidationError("n_estimators", "must be positive", c.NumIterations)
	case c.LearningRate <= 0:
		return errors.NewValidationError("learning_rate", "must be positive", c.LearningRate)
	case c.NumLeaves < 2:
		return errors.NewValidationError("num_leaves", "must be at least 2", c.NumLeaves)
	case c.MinChildSamples < 0:
		return errors.NewValidationError("min_child_samples", "must not be negative", c.MinChildSamples)
	case c.RegAlpha < 0:
		return errors.NewValidationError("reg_alpha", "must not be negative", c.RegAlpha)
	case c.RegLambda < 0:
		return errors.NewValidationError("reg_lambda", "must not be negative", c.RegLambda)
	case c.Subsample <= 0 || c.Subsample > 1:
		return errors.NewValidationError("subsample", "must be in (0, 1]", c.Subsample)
	case c.ColsampleBytree <= 0 || c.ColsampleBytree > 1:
		return errors.NewValidationError("colsample_bytree", "must be in (0, 1]", c.ColsampleBytree)
	}
	return nil
}
