// Package golgbm binds Go programs to the LightGBM gradient boosting library
// through its C API.
//
// golgbm trains, loads, saves and applies LightGBM models without
// reimplementing any of the algorithm: every numeric decision is made by the
// native library. The Go side validates shapes, encodes parameters, owns the
// native handles and turns status codes into typed errors.
//
// # Installation
//
//	go get github.com/YuminosukeSato/golgbm
//
// The native backend needs lib_lightgbm and its c_api.h, and is compiled in
// with the lightgbm build tag:
//
//	CGO_ENABLED=1 go build -tags lightgbm ./...
//
// Without the tag every native call fails with a NativeError explaining that
// the library is not linked, so code still builds on machines without it.
//
// # Quick Start
//
//	ds, err := lightgbm.DatasetFromMat(rows, labels)
//	if err != nil {
//	    return err
//	}
//	defer ds.Close()
//
//	booster, err := lightgbm.Train(ds, lightgbm.Params{
//	    "objective":      "binary",
//	    "num_iterations": 50,
//	    "verbose":        -1,
//	})
//	if err != nil {
//	    return err
//	}
//	defer booster.Close()
//
//	preds, err := booster.Predict(testRows, lightgbm.PredictNormal)
//
// # Packages
//
//   - lightgbm: Dataset and Booster handles, Params encoding, prediction
//   - sklearn/lightgbm: LGBMRegressor and LGBMClassifier with a scikit-learn style API, cross-validation
//   - metrics: Evaluation metrics (MSE, RMSE, MAE, R², AUC, log loss, accuracy)
//   - server: HTTP prediction server for one loaded model
//   - plot: Feature importance charts
//   - core/model: Estimator interfaces and base types
//   - pkg/errors: Typed errors (NativeError, DimensionError, ValidationError, ...)
//   - pkg/log: Structured logging on zerolog
//   - cmd/lgbm: Command line tool for train, predict, importance, eval and serve
//
// # Errors
//
// A failed native call returns *errors.NativeError carrying the operation
// name, status and the library's last error message. A status other than 0
// or -1 is outside the C API contract and panics with
// *errors.ContractViolation.
//
// # Concurrency
//
// Handles are not safe for concurrent use. LightGBM parallelises training
// and prediction internally; set num_threads to control it. The server
// package lets HTTP requests take turns on one booster.
package golgbm
