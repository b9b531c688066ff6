// Package capi is the raw call boundary to the LightGBM C API.
//
// Every method mirrors one LGBM_* function and returns its int status code
// unchanged (0 success, -1 failure, anything else is outside the native
// contract). Interpreting statuses and fetching the last error belongs to the
// caller; this package does no validation of its own.
//
// Default returns the cgo binding when built with -tags lightgbm, and a
// backend that fails every call otherwise.
package capi

import "unsafe"

// DatasetHandle is an opaque LightGBM DatasetHandle.
type DatasetHandle unsafe.Pointer

// BoosterHandle is an opaque LightGBM BoosterHandle.
type BoosterHandle unsafe.Pointer

// Status codes defined by c_api.h.
const (
	StatusOK   = 0
	StatusFail = -1
)

// Data types (C_API_DTYPE_*).
const (
	DTypeFloat32 = 0
	DTypeFloat64 = 1
	DTypeInt32   = 2
	DTypeInt64   = 3
)

// Prediction types (C_API_PREDICT_*).
const (
	PredictNormal    = 0
	PredictRawScore  = 1
	PredictLeafIndex = 2
	PredictContrib   = 3
)

// Feature importance types (C_API_FEATURE_IMPORTANCE_*).
const (
	ImportanceSplit = 0
	ImportanceGain  = 1
)

// API is the subset of c_api.h used by golgbm.
type API interface {
	// LastError copies the message of the most recent failed call.
	LastError() string

	DatasetCreateFromMat(data []float64, nrow, ncol int32, params string) (DatasetHandle, int)
	DatasetCreateFromFile(filename, params string) (DatasetHandle, int)
	DatasetSetFieldFloat32(h DatasetHandle, field string, data []float32) int
	DatasetSetFieldFloat64(h DatasetHandle, field string, data []float64) int
	DatasetSetFeatureNames(h DatasetHandle, names []string) int
	DatasetGetNumData(h DatasetHandle) (int32, int)
	DatasetGetNumFeature(h DatasetHandle) (int32, int)
	DatasetFree(h DatasetHandle) int

	BoosterCreate(train DatasetHandle, params string) (BoosterHandle, int)
	BoosterCreateFromModelfile(filename string) (BoosterHandle, int32, int)
	BoosterLoadModelFromString(model string) (BoosterHandle, int32, int)
	// BoosterUpdateOneIter reports whether training cannot continue.
	BoosterUpdateOneIter(h BoosterHandle) (bool, int)
	BoosterGetCurrentIteration(h BoosterHandle) (int32, int)
	BoosterGetNumClasses(h BoosterHandle) (int32, int)
	BoosterGetNumFeature(h BoosterHandle) (int32, int)
	// BoosterGetFeatureNames fills at most numNames strings of bufferLen bytes
	// (terminator included). It returns the names read, the real number of
	// names and the buffer length each name actually needs. Names are
	// truncated when required exceeds bufferLen.
	BoosterGetFeatureNames(h BoosterHandle, numNames int32, bufferLen int) (names []string, outLen int32, required int, status int)
	BoosterFeatureImportance(h BoosterHandle, numIteration, importanceType int32, out []float64) int
	BoosterCalcNumPredict(h BoosterHandle, numRow, predictType, startIteration, numIteration int32) (int64, int)
	BoosterPredictForMat(h BoosterHandle, data []float64, nrow, ncol int32, predictType, startIteration, numIteration int32, params string, out []float64) (int64, int)
	BoosterSaveModel(h BoosterHandle, startIteration, numIteration, importanceType int32, filename string) int
	// BoosterSaveModelToString and BoosterDumpModel return the text and the
	// buffer length it needs (terminator included); the text is only complete
	// when that length is <= bufferLen.
	BoosterSaveModelToString(h BoosterHandle, startIteration, numIteration, importanceType int32, bufferLen int64) (string, int64, int)
	BoosterDumpModel(h BoosterHandle, startIteration, numIteration, importanceType int32, bufferLen int64) (string, int64, int)
	BoosterFree(h BoosterHandle) int
}
