//go:build !(cgo && lightgbm)

package capi

// Default returns a backend that fails every call: this binary was built
// without the native library.
func Default() API { return unavailable{} }

const unavailableMessage = "golgbm was built without LightGBM support; rebuild with CGO_ENABLED=1 -tags lightgbm"

type unavailable struct{}

func (unavailable) LastError() string { return unavailableMessage }

func (unavailable) DatasetCreateFromMat([]float64, int32, int32, string) (DatasetHandle, int) {
	return nil, StatusFail
}
func (unavailable) DatasetCreateFromFile(string, string) (DatasetHandle, int) {
	return nil, StatusFail
}
func (unavailable) DatasetSetFieldFloat32(DatasetHandle, string, []float32) int { return StatusFail }
func (unavailable) DatasetSetFieldFloat64(DatasetHandle, string, []float64) int { return StatusFail }
func (unavailable) DatasetSetFeatureNames(DatasetHandle, []string) int          { return StatusFail }
func (unavailable) DatasetGetNumData(DatasetHandle) (int32, int)                { return 0, StatusFail }
func (unavailable) DatasetGetNumFeature(DatasetHandle) (int32, int)             { return 0, StatusFail }
func (unavailable) DatasetFree(DatasetHandle) int                               { return StatusFail }

func (unavailable) BoosterCreate(DatasetHandle, string) (BoosterHandle, int) { return nil, StatusFail }
func (unavailable) BoosterCreateFromModelfile(string) (BoosterHandle, int32, int) {
	return nil, 0, StatusFail
}
func (unavailable) BoosterLoadModelFromString(string) (BoosterHandle, int32, int) {
	return nil, 0, StatusFail
}
func (unavailable) BoosterUpdateOneIter(BoosterHandle) (bool, int)        { return false, StatusFail }
func (unavailable) BoosterGetCurrentIteration(BoosterHandle) (int32, int) { return 0, StatusFail }
func (unavailable) BoosterGetNumClasses(BoosterHandle) (int32, int)       { return 0, StatusFail }
func (unavailable) BoosterGetNumFeature(BoosterHandle) (int32, int)       { return 0, StatusFail }
func (unavailable) BoosterGetFeatureNames(BoosterHandle, int32, int) ([]string, int32, int, int) {
	return nil, 0, 0, StatusFail
}
func (unavailable) BoosterFeatureImportance(BoosterHandle, int32, int32, []float64) int {
	return StatusFail
}
func (unavailable) BoosterCalcNumPredict(BoosterHandle, int32, int32, int32, int32) (int64, int) {
	return 0, StatusFail
}
func (unavailable) BoosterPredictForMat(BoosterHandle, []float64, int32, int32, int32, int32, int32, string, []float64) (int64, int) {
	return 0, StatusFail
}
func (unavailable) BoosterSaveModel(BoosterHandle, int32, int32, int32, string) int {
	return StatusFail
}
func (unavailable) BoosterSaveModelToString(BoosterHandle, int32, int32, int32, int64) (string, int64, int) {
	return "", 0, StatusFail
}
func (unavailable) BoosterDumpModel(BoosterHandle, int32, int32, int32, int64) (string, int64, int) {
	return "", 0, StatusFail
}
func (unavailable) BoosterFree(BoosterHandle) int { return StatusFail }
