package lightgbm

import (
	"strings"

	gbm "github.com/YuminosukeSato/golgbm/lightgbm"
	"github.com/YuminosukeSato/golgbm/pkg/errors"
)

// ParameterMapper translates scikit-learn style parameter names and their
// LightGBM aliases into the canonical names used by the estimators, and
// canonical names into native LightGBM keys.
type ParameterMapper struct {
	// canonical name -> native key
	native map[string]string
	// alias -> canonical name
	aliases map[string]string
}

// NewParameterMapper creates a mapper with the LightGBM alias table.
func NewParameterMapper() *ParameterMapper {
	pm := &ParameterMapper{
		native:  make(map[string]string),
		aliases: make(map[string]string),
	}

	// Core Parameters
	pm.addMapping("n_estimators", "num_iterations", "num_iteration", "num_tree", "num_trees", "num_round", "num_rounds", "num_boost_round", "n_iter")
	pm.addMapping("learning_rate", "learning_rate", "shrinkage_rate", "eta")
	pm.addMapping("num_leaves", "num_leaves", "num_leaf", "max_leaves", "max_leaf")
	pm.addMapping("max_depth", "max_depth")
	pm.addMapping("min_child_samples", "min_data_in_leaf", "min_data", "min_samples_leaf")

	// Regularization
	pm.addMapping("reg_alpha", "lambda_l1", "l1_regularization")
	pm.addMapping("reg_lambda", "lambda_l2", "l2_regularization", "lambda")

	// Sampling
	pm.addMapping("subsample", "bagging_fraction", "sub_row")
	pm.addMapping("subsample_freq", "bagging_freq")
	pm.addMapping("colsample_bytree", "feature_fraction", "sub_feature")

	// Objective and control
	pm.addMapping("objective", "objective", "objective_type", "app", "application", "loss")
	pm.addMapping("random_state", "seed", "random_seed")
	pm.addMapping("n_jobs", "num_threads", "num_thread", "nthread")
	pm.addMapping("deterministic", "deterministic")
	pm.addMapping("verbosity", "verbosity", "verbose")

	return pm
}

// addMapping registers a canonical name, its native key and its aliases. The
// native key is always accepted as an alias.
func (pm *ParameterMapper) addMapping(canonical, native string, aliases ...string) {
	pm.native[canonical] = native
	pm.aliases[native] = canonical
	for _, alias := range aliases {
		pm.aliases[alias] = canonical
	}
}

// Canonical resolves name, which may be an alias, to its canonical name.
func (pm *ParameterMapper) Canonical(name string) (string, bool) {
	name = strings.ToLower(name)
	if _, ok := pm.native[name]; ok {
		return name, true
	}
	canonical, ok := pm.aliases[name]
	return canonical, ok
}

// NativeName returns the native LightGBM key for name.
func (pm *ParameterMapper) NativeName(name string) (string, bool) {
	canonical, ok := pm.Canonical(name)
	if !ok {
		return "", false
	}
	return pm.native[canonical], true
}

// Canonicalize rewrites the keys of params to canonical names. Keys the
// mapper does not know are reported as a ValidationError.
func (pm *ParameterMapper) Canonicalize(params map[string]interface{}) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(params))
	for key, value := range params {
		canonical, ok := pm.Canonical(key)
		if !ok {
			return nil, errors.NewValidationError(key, "unknown parameter", value)
		}
		out[canonical] = value
	}
	return out, nil
}

// ToNative converts canonically named params into native LightGBM params.
// Unknown keys pass through unchanged.
func (pm *ParameterMapper) ToNative(params map[string]interface{}) gbm.Params {
	out := make(gbm.Params, len(params))
	for key, value := range params {
		if native, ok := pm.NativeName(key); ok {
			out[native] = value
			continue
		}
		out[key] = value
	}
	return out
}

var objectiveAliases = map[string]string{
	"regression":          "regression",
	"regression_l2":       "regression",
	"l2":                  "regression",
	"mean_squared_error":  "regression",
	"mse":                 "regression",
	"regression_l1":       "regression_l1",
	"l1":                  "regression_l1",
	"mean_absolute_error": "regression_l1",
	"mae":                 "regression_l1",
	"huber":               "huber",
	"fair":                "fair",
	"poisson":             "poisson",
	"quantile":            "quantile",
	"mape":                "mape",
	"gamma":               "gamma",
	"tweedie":             "tweedie",

	// Classification objectives
	"binary":         "binary",
	"binary_logloss": "binary",
	"multiclass":     "multiclass",
	"softmax":        "multiclass",
	"multiclassova":  "multiclassova",
	"multiclass_ova": "multiclassova",
	"ova":            "multiclassova",
	"ovr":            "multiclassova",
}

// ValidateObjective normalizes an objective name. The empty string is left
// for the estimator to choose.
func ValidateObjective(objective string) (string, error) {
	if objective == "" {
		return "", nil
	}
	if canonical, ok := objectiveAliases[strings.ToLower(objective)]; ok {
		return canonical, nil
	}
	return "", errors.NewValidationError("objective", "unknown objective", objective)
}

// isClassification reports whether objective trains a classifier.
func isClassification(objective string) bool {
	switch objective {
	case "binary", "multiclass", "multiclassova":
		return true
	}
	return false
}
