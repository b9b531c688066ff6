// Package fakecapi is an in-memory implementation of capi.API for tests.
//
// It follows the calling conventions of the real C API (status codes, a
// last-error string, caller-sized buffers, two-phase size reporting) but the
// "model" is a one-variable linear fit on the row mean, so predictions are
// deterministic and cheap. Failure and contract-breaking behaviour can be
// injected per operation.
package fakecapi

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"unsafe"

	"github.com/YuminosukeSato/golgbm/internal/capi"
)

// Fake implements capi.API. The zero value is not usable; call New.
type Fake struct {
	lastError string

	calls    map[string]int
	failures map[string]string
	statuses map[string]int

	liveDatasets map[*dataset]struct{}
	liveBoosters map[*booster]struct{}

	// FinishAfter makes BoosterUpdateOneIter report is_finished once a booster
	// has completed that many iterations. Zero never finishes.
	FinishAfter int

	// OversizeNames makes BoosterGetFeatureNames always claim it needs one
	// byte more than it was given.
	OversizeNames bool
}

// New returns an empty fake library.
func New() *Fake {
	return &Fake{
		calls:        make(map[string]int),
		failures:     make(map[string]string),
		statuses:     make(map[string]int),
		liveDatasets: make(map[*dataset]struct{}),
		liveBoosters: make(map[*booster]struct{}),
	}
}

var _ capi.API = (*Fake)(nil)

// Fail makes every later call to op return -1 with message as the last error.
func (f *Fake) Fail(op, message string) { f.failures[op] = message }

// ReturnStatus makes every later call to op return status without doing anything.
func (f *Fake) ReturnStatus(op string, status int) { f.statuses[op] = status }

// Reset clears injected failures and statuses.
func (f *Fake) Reset() {
	f.failures = make(map[string]string)
	f.statuses = make(map[string]int)
}

// Calls reports how many times op was invoked.
func (f *Fake) Calls(op string) int { return f.calls[op] }

// LiveDatasets reports datasets created and not yet freed.
func (f *Fake) LiveDatasets() int { return len(f.liveDatasets) }

// LiveBoosters reports boosters created and not yet freed.
func (f *Fake) LiveBoosters() int { return len(f.liveBoosters) }

// SetLastError overwrites the global error message, as any native call may.
func (f *Fake) SetLastError(msg string) { f.lastError = msg }

func (f *Fake) enter(op string) (int, bool) {
	f.calls[op]++
	if st, ok := f.statuses[op]; ok {
		return st, true
	}
	if msg, ok := f.failures[op]; ok {
		return f.fail(msg), true
	}
	return capi.StatusOK, false
}

func (f *Fake) fail(format string, args ...interface{}) int {
	f.lastError = fmt.Sprintf(format, args...)
	return capi.StatusFail
}

// LastError implements capi.API.
func (f *Fake) LastError() string {
	f.calls["GetLastError"]++
	return f.lastError
}

// ===========================================================================
// Datasets
// ===========================================================================

type dataset struct {
	data         []float64
	nrow, ncol   int
	label        []float32
	weight       []float32
	initScore    []float64
	featureNames []string
	params       string
}

func (f *Fake) newDataset(ds *dataset) capi.DatasetHandle {
	if ds.featureNames == nil {
		ds.featureNames = defaultFeatureNames(ds.ncol)
	}
	f.liveDatasets[ds] = struct{}{}
	return capi.DatasetHandle(unsafe.Pointer(ds))
}

func (f *Fake) dataset(h capi.DatasetHandle) (*dataset, bool) {
	if h == nil {
		return nil, false
	}
	ds := (*dataset)(unsafe.Pointer(h))
	_, ok := f.liveDatasets[ds]
	return ds, ok
}

func defaultFeatureNames(n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = "Column_" + strconv.Itoa(i)
	}
	return names
}

// DatasetCreateFromMat implements capi.API.
func (f *Fake) DatasetCreateFromMat(data []float64, nrow, ncol int32, params string) (capi.DatasetHandle, int) {
	if st, done := f.enter("DatasetCreateFromMat"); done {
		return nil, st
	}
	if nrow <= 0 || ncol <= 0 || len(data) != int(nrow)*int(ncol) {
		return nil, f.fail("Check failed: nrow * ncol == len(data) (%d x %d vs %d)", nrow, ncol, len(data))
	}
	ds := &dataset{
		data:   append([]float64(nil), data...),
		nrow:   int(nrow),
		ncol:   int(ncol),
		params: params,
	}
	return f.newDataset(ds), capi.StatusOK
}

// DatasetCreateFromFile implements capi.API. The file is label-first,
// delimited by tabs, commas or spaces, without a header.
func (f *Fake) DatasetCreateFromFile(filename, params string) (capi.DatasetHandle, int) {
	if st, done := f.enter("DatasetCreateFromFile"); done {
		return nil, st
	}
	raw, err := os.ReadFile(filename)
	if err != nil {
		return nil, f.fail("Data file %s doesn't exist.", filename)
	}

	ds := &dataset{params: params}
	for lineNo, line := range strings.Split(string(raw), "\n") {
		fields := strings.FieldsFunc(line, func(r rune) bool {
			return r == '\t' || r == ',' || r == ' ' || r == '\r'
		})
		if len(fields) == 0 {
			continue
		}
		values := make([]float64, len(fields))
		for i, s := range fields {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, f.fail("Unknown token %s in data file (line %d)", s, lineNo+1)
			}
			values[i] = v
		}
		if ds.nrow == 0 {
			ds.ncol = len(values) - 1
		} else if len(values)-1 != ds.ncol {
			return nil, f.fail("Inconsistent number of columns at line %d", lineNo+1)
		}
		ds.label = append(ds.label, float32(values[0]))
		ds.data = append(ds.data, values[1:]...)
		ds.nrow++
	}
	if ds.nrow == 0 || ds.ncol <= 0 {
		return nil, f.fail("Data file %s is empty", filename)
	}
	return f.newDataset(ds), capi.StatusOK
}

// DatasetSetFieldFloat32 implements capi.API.
func (f *Fake) DatasetSetFieldFloat32(h capi.DatasetHandle, field string, data []float32) int {
	if st, done := f.enter("DatasetSetField"); done {
		return st
	}
	ds, ok := f.dataset(h)
	if !ok {
		return f.fail("invalid dataset handle")
	}
	if len(data) != ds.nrow {
		return f.fail("Length of %s is not same with #data", field)
	}
	values := append([]float32(nil), data...)
	switch field {
	case "label":
		ds.label = values
	case "weight":
		ds.weight = values
	default:
		return f.fail("Input data type error or field not found")
	}
	return capi.StatusOK
}

// DatasetSetFieldFloat64 implements capi.API.
func (f *Fake) DatasetSetFieldFloat64(h capi.DatasetHandle, field string, data []float64) int {
	if st, done := f.enter("DatasetSetField"); done {
		return st
	}
	ds, ok := f.dataset(h)
	if !ok {
		return f.fail("invalid dataset handle")
	}
	if field != "init_score" {
		return f.fail("Input data type error or field not found")
	}
	if len(data) != ds.nrow {
		return f.fail("Initial score size doesn't match data size")
	}
	ds.initScore = append([]float64(nil), data...)
	return capi.StatusOK
}

// DatasetSetFeatureNames implements capi.API.
func (f *Fake) DatasetSetFeatureNames(h capi.DatasetHandle, names []string) int {
	if st, done := f.enter("DatasetSetFeatureNames"); done {
		return st
	}
	ds, ok := f.dataset(h)
	if !ok {
		return f.fail("invalid dataset handle")
	}
	if len(names) != ds.ncol {
		return f.fail("Length of feature_names (%d) is not same with #features (%d)", len(names), ds.ncol)
	}
	ds.featureNames = append([]string(nil), names...)
	return capi.StatusOK
}

// DatasetGetNumData implements capi.API.
func (f *Fake) DatasetGetNumData(h capi.DatasetHandle) (int32, int) {
	if st, done := f.enter("DatasetGetNumData"); done {
		return 0, st
	}
	ds, ok := f.dataset(h)
	if !ok {
		return 0, f.fail("invalid dataset handle")
	}
	return int32(ds.nrow), capi.StatusOK
}

// DatasetGetNumFeature implements capi.API.
func (f *Fake) DatasetGetNumFeature(h capi.DatasetHandle) (int32, int) {
	if st, done := f.enter("DatasetGetNumFeature"); done {
		return 0, st
	}
	ds, ok := f.dataset(h)
	if !ok {
		return 0, f.fail("invalid dataset handle")
	}
	return int32(ds.ncol), capi.StatusOK
}

// DatasetFree implements capi.API.
func (f *Fake) DatasetFree(h capi.DatasetHandle) int {
	if st, done := f.enter("DatasetFree"); done {
		return st
	}
	ds, ok := f.dataset(h)
	if !ok {
		return f.fail("double free of dataset handle")
	}
	delete(f.liveDatasets, ds)
	return capi.StatusOK
}

// ===========================================================================
// Boosters
// ===========================================================================

// DatasetRows exposes a dataset's flattened rows, labels and weights for assertions.
func (f *Fake) DatasetRows(h capi.DatasetHandle) ([]float64, []float32, []float32, bool) {
	ds, ok := f.dataset(h)
	if !ok {
		return nil, nil, nil, false
	}
	return ds.data, ds.label, ds.weight, true
}

// BoosterParams returns the configuration string a live booster was trained with.
func (f *Fake) BoosterParams(h capi.BoosterHandle) (string, bool) {
	b, ok := f.booster(h)
	if !ok {
		return "", false
	}
	return b.params, true
}

// DatasetParams returns the configuration string a live dataset was built with.
func (f *Fake) DatasetParams(h capi.DatasetHandle) (string, bool) {
	ds, ok := f.dataset(h)
	if !ok {
		return "", false
	}
	return ds.params, true
}

func (f *Fake) booster(h capi.BoosterHandle) (*booster, bool) {
	if h == nil {
		return nil, false
	}
	b := (*booster)(unsafe.Pointer(h))
	_, ok := f.liveBoosters[b]
	return b, ok
}

func (f *Fake) newBooster(b *booster) capi.BoosterHandle {
	f.liveBoosters[b] = struct{}{}
	return capi.BoosterHandle(unsafe.Pointer(b))
}

// BoosterCreate implements capi.API.
func (f *Fake) BoosterCreate(train capi.DatasetHandle, params string) (capi.BoosterHandle, int) {
	if st, done := f.enter("BoosterCreate"); done {
		return nil, st
	}
	ds, ok := f.dataset(train)
	if !ok {
		return nil, f.fail("invalid dataset handle")
	}
	if ds.label == nil {
		return nil, f.fail("label should not be empty")
	}
	cfg, err := parseParams(params)
	if err != nil {
		return nil, f.fail("%s", err.Error())
	}
	b, err := fit(ds, cfg)
	if err != nil {
		return nil, f.fail("%s", err.Error())
	}
	b.params = params
	return f.newBooster(b), capi.StatusOK
}

// BoosterCreateFromModelfile implements capi.API.
func (f *Fake) BoosterCreateFromModelfile(filename string) (capi.BoosterHandle, int32, int) {
	if st, done := f.enter("BoosterCreateFromModelfile"); done {
		return nil, 0, st
	}
	raw, err := os.ReadFile(filename)
	if err != nil {
		return nil, 0, f.fail("Could not open %s", filename)
	}
	b, err := parseModel(string(raw))
	if err != nil {
		return nil, 0, f.fail("%s", err.Error())
	}
	return f.newBooster(b), int32(b.iterations), capi.StatusOK
}

// BoosterLoadModelFromString implements capi.API.
func (f *Fake) BoosterLoadModelFromString(model string) (capi.BoosterHandle, int32, int) {
	if st, done := f.enter("BoosterLoadModelFromString"); done {
		return nil, 0, st
	}
	b, err := parseModel(model)
	if err != nil {
		return nil, 0, f.fail("%s", err.Error())
	}
	return f.newBooster(b), int32(b.iterations), capi.StatusOK
}

// BoosterUpdateOneIter implements capi.API.
func (f *Fake) BoosterUpdateOneIter(h capi.BoosterHandle) (bool, int) {
	if st, done := f.enter("BoosterUpdateOneIter"); done {
		return false, st
	}
	b, ok := f.booster(h)
	if !ok {
		return false, f.fail("invalid booster handle")
	}
	if b.finished {
		return true, capi.StatusOK
	}
	b.iterations++
	if f.FinishAfter > 0 && b.iterations >= f.FinishAfter {
		b.finished = true
	}
	return b.finished, capi.StatusOK
}

// BoosterGetCurrentIteration implements capi.API.
func (f *Fake) BoosterGetCurrentIteration(h capi.BoosterHandle) (int32, int) {
	if st, done := f.enter("BoosterGetCurrentIteration"); done {
		return 0, st
	}
	b, ok := f.booster(h)
	if !ok {
		return 0, f.fail("invalid booster handle")
	}
	return int32(b.iterations), capi.StatusOK
}

// BoosterGetNumClasses implements capi.API.
func (f *Fake) BoosterGetNumClasses(h capi.BoosterHandle) (int32, int) {
	if st, done := f.enter("BoosterGetNumClasses"); done {
		return 0, st
	}
	b, ok := f.booster(h)
	if !ok {
		return 0, f.fail("invalid booster handle")
	}
	return int32(b.numClass), capi.StatusOK
}

// BoosterGetNumFeature implements capi.API.
func (f *Fake) BoosterGetNumFeature(h capi.BoosterHandle) (int32, int) {
	if st, done := f.enter("BoosterGetNumFeature"); done {
		return 0, st
	}
	b, ok := f.booster(h)
	if !ok {
		return 0, f.fail("invalid booster handle")
	}
	return int32(b.numFeature), capi.StatusOK
}

// BoosterGetFeatureNames implements capi.API.
func (f *Fake) BoosterGetFeatureNames(h capi.BoosterHandle, numNames int32, bufferLen int) ([]string, int32, int, int) {
	if st, done := f.enter("BoosterGetFeatureNames"); done {
		return nil, 0, 0, st
	}
	b, ok := f.booster(h)
	if !ok {
		return nil, 0, 0, f.fail("invalid booster handle")
	}

	required := 0
	for _, name := range b.featureNames {
		required = max(required, len(name)+1)
	}
	if f.OversizeNames {
		required = bufferLen + 1
	}

	count := min(int(numNames), len(b.featureNames))
	names := make([]string, count)
	for i := 0; i < count; i++ {
		name := b.featureNames[i]
		if bufferLen <= 0 {
			name = ""
		} else if len(name) > bufferLen-1 {
			name = name[:bufferLen-1]
		}
		names[i] = name
	}
	return names, int32(len(b.featureNames)), required, capi.StatusOK
}

// BoosterFeatureImportance implements capi.API.
func (f *Fake) BoosterFeatureImportance(h capi.BoosterHandle, numIteration, importanceType int32, out []float64) int {
	if st, done := f.enter("BoosterFeatureImportance"); done {
		return st
	}
	b, ok := f.booster(h)
	if !ok {
		return f.fail("invalid booster handle")
	}
	if len(out) < b.numFeature {
		return f.fail("output buffer too small")
	}
	iters := b.iterations
	if numIteration > 0 && int(numIteration) < iters {
		iters = int(numIteration)
	}
	for j := 0; j < b.numFeature; j++ {
		w := b.importance[j]
		if importanceType == capi.ImportanceSplit {
			out[j] = math.Round(w * float64(iters))
		} else {
			out[j] = w * float64(iters)
		}
	}
	return capi.StatusOK
}

// BoosterCalcNumPredict implements capi.API.
func (f *Fake) BoosterCalcNumPredict(h capi.BoosterHandle, numRow, predictType, startIteration, numIteration int32) (int64, int) {
	if st, done := f.enter("BoosterCalcNumPredict"); done {
		return 0, st
	}
	b, ok := f.booster(h)
	if !ok {
		return 0, f.fail("invalid booster handle")
	}
	return int64(numRow) * int64(b.width(int(predictType))), capi.StatusOK
}

// BoosterPredictForMat implements capi.API.
func (f *Fake) BoosterPredictForMat(h capi.BoosterHandle, data []float64, nrow, ncol int32, predictType, startIteration, numIteration int32, params string, out []float64) (int64, int) {
	if st, done := f.enter("BoosterPredictForMat"); done {
		return 0, st
	}
	b, ok := f.booster(h)
	if !ok {
		return 0, f.fail("invalid booster handle")
	}
	if int(ncol) != b.numFeature {
		return 0, f.fail("The number of features in data (%d) is not the same as it was in training data (%d).", ncol, b.numFeature)
	}
	width := b.width(int(predictType))
	need := int(nrow) * width
	if len(out) < need {
		return 0, f.fail("output buffer of %d values is smaller than %d", len(out), need)
	}
	for i := 0; i < int(nrow); i++ {
		row := data[i*int(ncol) : (i+1)*int(ncol)]
		b.predictRow(row, int(predictType), out[i*width:(i+1)*width])
	}
	return int64(need), capi.StatusOK
}

// BoosterSaveModel implements capi.API.
func (f *Fake) BoosterSaveModel(h capi.BoosterHandle, startIteration, numIteration, importanceType int32, filename string) int {
	if st, done := f.enter("BoosterSaveModel"); done {
		return st
	}
	b, ok := f.booster(h)
	if !ok {
		return f.fail("invalid booster handle")
	}
	if err := os.WriteFile(filename, []byte(b.modelString()), 0o644); err != nil {
		return f.fail("Cannot write to %s", filename)
	}
	return capi.StatusOK
}

// BoosterSaveModelToString implements capi.API.
func (f *Fake) BoosterSaveModelToString(h capi.BoosterHandle, startIteration, numIteration, importanceType int32, bufferLen int64) (string, int64, int) {
	if st, done := f.enter("BoosterSaveModelToString"); done {
		return "", 0, st
	}
	b, ok := f.booster(h)
	if !ok {
		return "", 0, f.fail("invalid booster handle")
	}
	return sized(b.modelString(), bufferLen)
}

// BoosterDumpModel implements capi.API.
func (f *Fake) BoosterDumpModel(h capi.BoosterHandle, startIteration, numIteration, importanceType int32, bufferLen int64) (string, int64, int) {
	if st, done := f.enter("BoosterDumpModel"); done {
		return "", 0, st
	}
	b, ok := f.booster(h)
	if !ok {
		return "", 0, f.fail("invalid booster handle")
	}
	return sized(b.dumpJSON(), bufferLen)
}

func sized(text string, bufferLen int64) (string, int64, int) {
	need := int64(len(text)) + 1
	if need > bufferLen {
		return "", need, capi.StatusOK
	}
	return text, need, capi.StatusOK
}

// BoosterFree implements capi.API.
func (f *Fake) BoosterFree(h capi.BoosterHandle) int {
	if st, done := f.enter("BoosterFree"); done {
		return st
	}
	b, ok := f.booster(h)
	if !ok {
		return f.fail("double free of booster handle")
	}
	delete(f.liveBoosters, b)
	return capi.StatusOK
}
