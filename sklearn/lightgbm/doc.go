// Package lightgbm provides scikit-learn style LightGBM estimators backed by
// the native library through golgbm/lightgbm.
//
// # scikit-learn Compatible API
//
//	// Classification
//	clf := lightgbm.NewLGBMClassifier().
//	    WithNumIterations(200).
//	    WithLearningRate(0.05)
//	defer clf.Close()
//	if err := clf.Fit(XTrain, yTrain); err != nil {
//	    return err
//	}
//	proba, err := clf.PredictProba(XTest)
//
//	// Regression
//	reg := lightgbm.NewLGBMRegressor()
//	defer reg.Close()
//	err := reg.Fit(XTrain, yTrain)
//	r2, err := reg.Score(XTest, yTest)
//
// # Parameters
//
// Hyperparameters live in the embedded Config and can also be set by name.
// Both scikit-learn names and LightGBM aliases are accepted:
//
//	err := reg.SetParams(map[string]interface{}{
//	    "n_estimators": 50,
//	    "lambda_l2":    1.0, // alias of reg_lambda
//	})
//
// Config.Extra passes any other native parameter through unchanged.
//
// # Persistence
//
// Save writes the LightGBM text model, which the Python package and the
// LightGBM CLI can read. Load accepts model files written by any frontend.
//
// # Resources
//
// A fitted estimator owns a native booster. Call Close when done; a
// finalizer on the booster is only a fallback.
package lightgbm
