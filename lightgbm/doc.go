// Package lightgbm binds the LightGBM C API: building datasets, training
// boosters, predicting and saving models. The boosting itself happens in the
// native library; this package marshals inputs, owns native handles and maps
// status codes to typed errors.
//
// # Building
//
// The native binding needs cgo and the lightgbm build tag:
//
//	CGO_ENABLED=1 go build -tags lightgbm ./...
//
// Without the tag every native call fails with a *errors.NativeError
// explaining how to rebuild.
//
// # Training and prediction
//
//	ds, err := lightgbm.DatasetFromMat(rows, labels)
//	if err != nil {
//	    return err
//	}
//	defer ds.Close()
//
//	booster, err := lightgbm.Train(ds, lightgbm.Params{
//	    "objective":      "binary",
//	    "num_iterations": 100,
//	})
//	if err != nil {
//	    return err
//	}
//	defer booster.Close()
//
//	preds, err := booster.Predict(testRows, lightgbm.PredictNormal)
//
// With one class, preds holds a single slice with one value per row. With
// several classes it holds one slice of class probabilities per row.
//
// # Errors
//
// A native failure returns *errors.NativeError carrying the library's last
// error message. Shape problems are caught before any native call and return
// *errors.DimensionError. A status code outside the C API contract panics
// with *errors.ContractViolation.
//
// # Resources
//
// Dataset and Booster each own one native handle. Close releases it and is
// safe to call twice; a finalizer releases handles that were never closed.
// Neither type may be used from several goroutines without external locking.
package lightgbm
