package lightgbm

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/golgbm/internal/capi"
	"github.com/YuminosukeSato/golgbm/internal/capi/fakecapi"
	"github.com/YuminosukeSato/golgbm/pkg/errors"
	"github.com/YuminosukeSato/golgbm/pkg/log"
)

func TestTrainAndPredictBinary(t *testing.T) {
	f := fakecapi.New()
	b := trainBinary(t, f)

	preds, err := b.Predict(sampleRows, PredictNormal)
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if len(preds) != 1 || len(preds[0]) != 3 {
		t.Fatalf("Predict() shape = %d x %d, want one flat slice of 3", len(preds), len(preds[0]))
	}
	for i, p := range preds[0] {
		if p < 0 || p > 1 {
			t.Errorf("prediction %d = %v, not a probability", i, p)
		}
	}
	if !(preds[0][2] > preds[0][1]) {
		t.Errorf("expected the high row to score above the low row: %v", preds[0])
	}
}

func TestTrainIterationBound(t *testing.T) {
	tests := []struct {
		name        string
		params      Params
		finishAfter int
		wantUpdates int
	}{
		{"three rounds", Params{"num_iterations": 3}, 0, 2},
		{"default", Params{}, 0, 99},
		{"nil means default", Params{"num_iterations": nil}, 0, 99},
		{"single round", Params{"num_iterations": 1}, 0, 0},
		{"zero", Params{"num_iterations": 0}, 0, 0},
		{"early finish", Params{"num_iterations": 10}, 4, 4},
		{"finish after bound", Params{"num_iterations": 3}, 50, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := fakecapi.New()
			f.FinishAfter = tt.finishAfter
			ds := mustDataset(t, f, binaryRows, binaryLabels)
			params := tt.params.With("objective", "binary")

			b := mustTrain(t, ds, params)
			if got := f.Calls("BoosterUpdateOneIter"); got != tt.wantUpdates {
				t.Errorf("update calls = %d, want %d", got, tt.wantUpdates)
			}
			if got, _ := b.CurrentIteration(); got != tt.wantUpdates {
				t.Errorf("CurrentIteration() = %d, want %d", got, tt.wantUpdates)
			}
			bp, _ := f.BoosterParams(b.handle)
			if bp != params.String() {
				t.Errorf("booster params = %q, want %q", bp, params.String())
			}
		})
	}
}

func TestTrainInvalidNumIterations(t *testing.T) {
	f := fakecapi.New()
	ds := mustDataset(t, f, binaryRows, binaryLabels)

	_, err := Train(ds, Params{"num_iterations": "lots"})
	var verr *errors.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if f.Calls("BoosterCreate") != 0 {
		t.Error("booster created despite invalid params")
	}
}

func TestTrainCreateFailure(t *testing.T) {
	f := fakecapi.New()
	ds := mustDataset(t, f, binaryRows, binaryLabels)

	_, err := Train(ds, Params{"objective": "ranking_xyz"})
	nerr := asNativeError(t, err)
	if !strings.Contains(nerr.Message, "Unknown objective type name: ranking_xyz") {
		t.Errorf("Message = %q", nerr.Message)
	}
	if f.LiveBoosters() != 0 {
		t.Error("booster leaked")
	}
}

func TestTrainUpdateFailureFreesBooster(t *testing.T) {
	f := fakecapi.New()
	ds := mustDataset(t, f, binaryRows, binaryLabels)
	f.Fail("BoosterUpdateOneIter", "Check failed: (num_data) > (0)")

	_, err := Train(ds, Params{"objective": "binary", "num_iterations": 5})
	if nerr := asNativeError(t, err); nerr.Message != "Check failed: (num_data) > (0)" {
		t.Errorf("Message = %q", nerr.Message)
	}
	if f.LiveBoosters() != 0 {
		t.Errorf("%d boosters live after failed training", f.LiveBoosters())
	}
	if f.Calls("BoosterUpdateOneIter") != 1 {
		t.Errorf("training retried: %d update calls", f.Calls("BoosterUpdateOneIter"))
	}
}

func TestTrainContractViolation(t *testing.T) {
	f := fakecapi.New()
	ds := mustDataset(t, f, binaryRows, binaryLabels)
	f.ReturnStatus("BoosterUpdateOneIter", 3)

	cv := expectContractViolation(t, func() { _, _ = Train(ds, Params{"num_iterations": 4}) })
	if cv.Status != 3 || cv.Op != "Train" {
		t.Errorf("violation = %+v", cv)
	}
}

func TestTrainLeavesDatasetToCaller(t *testing.T) {
	f := fakecapi.New()
	ds, err := DatasetFromMat(binaryRows, binaryLabels, WithAPI(f))
	if err != nil {
		t.Fatal(err)
	}
	b := mustTrain(t, ds, Params{"objective": "binary", "num_iterations": 2})

	if n, err := ds.NumData(); err != nil || n != 5 {
		t.Errorf("dataset unusable after Train: %d, %v", n, err)
	}
	if err := ds.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Predict(sampleRows, PredictNormal); err != nil {
		t.Errorf("Predict() after closing the dataset: %v", err)
	}

	_, err = Train(ds, Params{})
	if !errors.Is(err, errors.ErrClosed) {
		t.Errorf("Train() on a closed dataset = %v, want ErrClosed", err)
	}
}

func multiclassBooster(t *testing.T, f *fakecapi.Fake) *Booster {
	t.Helper()
	rows := [][]float64{
		{0.0, 0.1}, {0.1, 0.0}, {0.5, 0.5}, {0.4, 0.6}, {1.0, 0.9}, {0.9, 1.0},
	}
	labels := []float32{0, 0, 1, 1, 2, 2}
	ds := mustDataset(t, f, rows, labels)
	return mustTrain(t, ds, Params{"objective": "multiclass", "num_class": 3, "num_iterations": 5})
}

func TestPredictMulticlassShape(t *testing.T) {
	f := fakecapi.New()
	b := multiclassBooster(t, f)

	if k, _ := b.NumClasses(); k != 3 {
		t.Fatalf("NumClasses() = %d, want 3", k)
	}

	rows := [][]float64{{0, 0}, {0.5, 0.5}, {1, 1}, {0.2, 0.3}}
	preds, err := b.Predict(rows, PredictNormal)
	if err != nil {
		t.Fatal(err)
	}
	if len(preds) != len(rows) {
		t.Fatalf("got %d rows, want %d", len(preds), len(rows))
	}
	for i, p := range preds {
		if len(p) != 3 {
			t.Fatalf("row %d has %d values, want 3", i, len(p))
		}
		sum := p[0] + p[1] + p[2]
		if math.Abs(sum-1) > 1e-9 {
			t.Errorf("row %d probabilities sum to %v", i, sum)
		}
	}
	if argmax(preds[0]) != 0 || argmax(preds[2]) != 2 {
		t.Errorf("unexpected classes: %v", preds)
	}

	raw, err := b.Predict(rows, PredictRawScore)
	if err != nil {
		t.Fatal(err)
	}
	if len(raw) != 4 || len(raw[0]) != 3 {
		t.Errorf("raw shape = %d x %d", len(raw), len(raw[0]))
	}
}

func argmax(v []float64) int {
	best := 0
	for i := range v {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}

func TestPredictShapeProperty(t *testing.T) {
	f := fakecapi.New()
	single := trainBinary(t, f)
	multi := multiclassBooster(t, f)

	for n := 1; n <= 7; n++ {
		rows4 := make([][]float64, n)
		rows2 := make([][]float64, n)
		for i := range rows4 {
			rows4[i] = []float64{float64(i), 0, 1, 0.5}
			rows2[i] = []float64{float64(i) / 7, 0.5}
		}

		preds, err := single.Predict(rows4, PredictNormal)
		if err != nil {
			t.Fatal(err)
		}
		if len(preds) != 1 || len(preds[0]) != n {
			t.Errorf("n=%d single class shape wrong", n)
		}

		preds, err = multi.Predict(rows2, PredictNormal)
		if err != nil {
			t.Fatal(err)
		}
		if len(preds) != n {
			t.Errorf("n=%d multiclass rows = %d", n, len(preds))
		}
		for _, p := range preds {
			if len(p) != 3 {
				t.Errorf("n=%d multiclass row width %d", n, len(p))
			}
		}
	}
}

func TestPredictLeafAndContrib(t *testing.T) {
	f := fakecapi.New()
	b := trainBinary(t, f)

	leaves, err := b.Predict(sampleRows, PredictLeafIndex)
	if err != nil {
		t.Fatal(err)
	}
	if len(leaves) != 3 {
		t.Fatalf("leaf rows = %d, want 3", len(leaves))
	}
	for _, row := range leaves {
		if len(row) != 2 {
			t.Errorf("leaf row width = %d, want one per tree (2)", len(row))
		}
	}

	contrib, err := b.Predict(sampleRows, PredictContrib)
	if err != nil {
		t.Fatal(err)
	}
	raw, err := b.Predict(sampleRows, PredictRawScore)
	if err != nil {
		t.Fatal(err)
	}
	for i, row := range contrib {
		if len(row) != 5 {
			t.Fatalf("contrib row width = %d, want features+1", len(row))
		}
		sum := 0.0
		for _, v := range row {
			sum += v
		}
		if math.Abs(sum-raw[0][i]) > 1e-9 {
			t.Errorf("row %d contributions sum to %v, raw score %v", i, sum, raw[0][i])
		}
	}
	if f.Calls("BoosterCalcNumPredict") != 2 {
		t.Errorf("CalcNumPredict called %d times, want 2", f.Calls("BoosterCalcNumPredict"))
	}
}

func TestPredictMatrix(t *testing.T) {
	f := fakecapi.New()
	b := trainBinary(t, f)

	X := mat.NewDense(3, 4, []float64{
		0.5, 0.5, 0.5, 0.5,
		0.0, 0.0, 0.0, 0.0,
		0.9, 0.9, 0.9, 0.9,
	})
	got, err := b.PredictMatrix(X, PredictNormal)
	if err != nil {
		t.Fatal(err)
	}
	if r, c := got.Dims(); r != 3 || c != 1 {
		t.Fatalf("PredictMatrix() dims = %dx%d, want 3x1", r, c)
	}

	flat, _ := b.Predict(sampleRows, PredictNormal)
	for i := 0; i < 3; i++ {
		if got.At(i, 0) != flat[0][i] {
			t.Errorf("row %d: %v != %v", i, got.At(i, 0), flat[0][i])
		}
	}
}

func TestPredictRows(t *testing.T) {
	f := fakecapi.New()
	b := trainBinary(t, f)

	flat, err := b.Predict(sampleRows, PredictNormal)
	if err != nil {
		t.Fatal(err)
	}
	rows, err := b.PredictRows(sampleRows, PredictNormal)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != len(sampleRows) {
		t.Fatalf("PredictRows() returned %d rows, want %d", len(rows), len(sampleRows))
	}
	for i, row := range rows {
		if len(row) != 1 || row[0] != flat[0][i] {
			t.Errorf("row %d = %v, want [%v]", i, row, flat[0][i])
		}
	}

	contrib, err := b.PredictRows(sampleRows[:1], PredictContrib)
	if err != nil {
		t.Fatal(err)
	}
	if len(contrib) != 1 || len(contrib[0]) != 5 {
		t.Errorf("contrib shape = %d x %d, want 1 x 5", len(contrib), len(contrib[0]))
	}

	var derr *errors.DimensionError
	if _, err := b.PredictRows(nil, PredictNormal); !errors.As(err, &derr) {
		t.Errorf("PredictRows(nil) error = %v, want DimensionError", err)
	}
}

func TestPredictRejectsBadInput(t *testing.T) {
	f := fakecapi.New()
	b := trainBinary(t, f)

	for name, rows := range map[string][][]float64{
		"empty":  {},
		"ragged": {{1, 2, 3, 4}, {1, 2}},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := b.Predict(rows, PredictNormal)
			asDimensionError(t, err)
		})
	}
	if f.Calls("BoosterPredictForMat") != 0 {
		t.Error("bad input reached the native layer")
	}

	_, err := b.Predict(sampleRows, PredictType(9))
	var verr *errors.ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("unknown mode: got %v", err)
	}

	_, err = b.Predict([][]float64{{1, 2}}, PredictNormal)
	nerr := asNativeError(t, err)
	if !strings.Contains(nerr.Message, "number of features") {
		t.Errorf("Message = %q", nerr.Message)
	}
}

func TestFeatureNames(t *testing.T) {
	f := fakecapi.New()
	b := trainBinary(t, f)

	names, err := b.FeatureNames()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"Column_0", "Column_1", "Column_2", "Column_3"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("FeatureNames() = %v, want %v", names, want)
	}
	if f.Calls("BoosterGetFeatureNames") != 1 {
		t.Errorf("short names took %d calls", f.Calls("BoosterGetFeatureNames"))
	}
}

func TestFeatureNamesResizesOnce(t *testing.T) {
	f := fakecapi.New()
	long := []string{
		"customer_lifetime_value_in_euros_2024",
		"b",
		"number_of_support_tickets_opened_last_quarter",
		"d",
	}
	ds := mustDataset(t, f, binaryRows, binaryLabels, WithFeatureNames(long))
	b := mustTrain(t, ds, Params{"objective": "binary", "num_iterations": 2})

	names, err := b.FeatureNames()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(names, long) {
		t.Errorf("FeatureNames() = %v", names)
	}
	if f.Calls("BoosterGetFeatureNames") != 2 {
		t.Errorf("BoosterGetFeatureNames called %d times, want 2", f.Calls("BoosterGetFeatureNames"))
	}
}

func TestFeatureNamesBufferNeverLargeEnough(t *testing.T) {
	f := fakecapi.New()
	b := trainBinary(t, f)
	f.OversizeNames = true

	expectContractViolation(t, func() { _, _ = b.FeatureNames() })
	if f.Calls("BoosterGetFeatureNames") != 2 {
		t.Errorf("BoosterGetFeatureNames called %d times, want 2", f.Calls("BoosterGetFeatureNames"))
	}
}

func TestFeatureImportance(t *testing.T) {
	f := fakecapi.New()
	b := trainBinary(t, f)

	split, err := b.FeatureImportance(ImportanceSplit)
	if err != nil {
		t.Fatal(err)
	}
	if len(split) != 4 {
		t.Fatalf("len = %d, want 4", len(split))
	}
	for _, v := range split {
		if v != math.Trunc(v) || v <= 0 {
			t.Errorf("split importance %v is not a positive count", v)
		}
	}

	gain, err := b.FeatureImportance(ImportanceGain)
	if err != nil {
		t.Fatal(err)
	}
	if len(gain) != 4 {
		t.Errorf("gain len = %d", len(gain))
	}

	if n, _ := b.NumFeature(); n != 4 {
		t.Errorf("NumFeature() = %d, want 4", n)
	}
}

func TestSaveModelRoundTrip(t *testing.T) {
	f := fakecapi.New()
	b := trainBinary(t, f)
	path := filepath.Join(t.TempDir(), "model.txt")

	if err := b.SaveModel(path); err != nil {
		t.Fatalf("SaveModel() error = %v", err)
	}
	loaded, err := BoosterFromFile(path, WithAPI(f))
	if err != nil {
		t.Fatalf("BoosterFromFile() error = %v", err)
	}
	defer loaded.Close()

	want, _ := b.Predict(sampleRows, PredictNormal)
	got, err := loaded.Predict(sampleRows, PredictNormal)
	if err != nil {
		t.Fatal(err)
	}
	for i := range want[0] {
		if math.Abs(want[0][i]-got[0][i]) > 1e-12 {
			t.Errorf("row %d: loaded %v, original %v", i, got[0][i], want[0][i])
		}
	}
	if loaded.PandasCategorical() != nil {
		t.Errorf("unexpected metadata %v", loaded.PandasCategorical())
	}
	if loaded.ID() == b.ID() {
		t.Error("loaded booster shares the original's ID")
	}
}

func TestSaveModelStringRoundTrip(t *testing.T) {
	f := fakecapi.New()
	b := multiclassBooster(t, f)

	text, err := b.SaveModelString()
	if err != nil {
		t.Fatal(err)
	}
	loaded, err := BoosterFromString(text, WithAPI(f))
	if err != nil {
		t.Fatal(err)
	}
	defer loaded.Close()

	rows := [][]float64{{0.1, 0.2}, {0.8, 0.7}}
	want, _ := b.Predict(rows, PredictNormal)
	got, _ := loaded.Predict(rows, PredictNormal)
	if !reflect.DeepEqual(want, got) {
		t.Errorf("loaded predictions %v, want %v", got, want)
	}
}

func TestPandasCategoricalTrailer(t *testing.T) {
	f := fakecapi.New()
	b := trainBinary(t, f)
	categories := [][]any{{"a", "b"}, {"x"}}
	b.SetPandasCategorical(categories)

	text, err := b.SaveModelString()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(text, "\npandas_categorical:[[\"a\",\"b\"],[\"x\"]]\n") {
		t.Errorf("missing trailer in %q", text[len(text)-60:])
	}

	fromString, err := BoosterFromString(text, WithAPI(f))
	if err != nil {
		t.Fatal(err)
	}
	defer fromString.Close()
	if !reflect.DeepEqual(fromString.PandasCategorical(), categories) {
		t.Errorf("PandasCategorical() = %v", fromString.PandasCategorical())
	}

	path := filepath.Join(t.TempDir(), "model.txt")
	if err := b.SaveModel(path); err != nil {
		t.Fatal(err)
	}
	fromFile, err := BoosterFromFile(path, WithAPI(f))
	if err != nil {
		t.Fatal(err)
	}
	defer fromFile.Close()
	if !reflect.DeepEqual(fromFile.PandasCategorical(), categories) {
		t.Errorf("PandasCategorical() from file = %v", fromFile.PandasCategorical())
	}
}

func TestParsePandasCategorical(t *testing.T) {
	tests := []struct {
		name string
		text string
		want [][]any
	}{
		{"absent", "tree\nend of trees\n", nil},
		{"null", "tree\n\npandas_categorical:null\n", nil},
		{"undecodable", "tree\npandas_categorical:[[\"a\"\n", nil},
		{"strings", "tree\npandas_categorical:[[\"a\",\"b\"]]\n", [][]any{{"a", "b"}}},
		{"numbers", "tree\npandas_categorical:[[1,2.5],[]]", [][]any{{1.0, 2.5}, {}}},
		{"last marker wins", "pandas_categorical:[[\"old\"]]\nx\npandas_categorical:[[\"new\"]]\n", [][]any{{"new"}}},
		{"rest of line only", "pandas_categorical:[[\"a\"]]\nparameters:\n", [][]any{{"a"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parsePandasCategorical(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parsePandasCategorical() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestBoosterFromStringInvalid(t *testing.T) {
	f := fakecapi.New()
	_, err := BoosterFromString("not a model", WithAPI(f))
	nerr := asNativeError(t, err)
	if !strings.Contains(nerr.Message, "Model format error") {
		t.Errorf("Message = %q", nerr.Message)
	}
	if f.LiveBoosters() != 0 {
		t.Error("booster leaked")
	}
}

func TestBoosterFromFileMissing(t *testing.T) {
	f := fakecapi.New()
	_, err := BoosterFromFile(filepath.Join(t.TempDir(), "missing.txt"), WithAPI(f))
	asNativeError(t, err)
}

func TestDumpModel(t *testing.T) {
	f := fakecapi.New()
	b := trainBinary(t, f)

	dump, err := b.DumpModel()
	if err != nil {
		t.Fatal(err)
	}
	var doc struct {
		NumClass     int      `json:"num_class"`
		FeatureNames []string `json:"feature_names"`
	}
	if err := json.Unmarshal([]byte(dump), &doc); err != nil {
		t.Fatalf("DumpModel() is not JSON: %v", err)
	}
	if doc.NumClass != 1 || len(doc.FeatureNames) != 4 {
		t.Errorf("dump = %+v", doc)
	}
}

func TestReadTextTwoPhase(t *testing.T) {
	f := fakecapi.New()
	b := trainBinary(t, f)

	var sizes []int64
	grow := func(_ capi.BoosterHandle, _, _, _ int32, bufferLen int64) (string, int64, int) {
		sizes = append(sizes, bufferLen)
		need := int64(modelBufferLen + 10)
		if bufferLen < need {
			return "", need, capi.StatusOK
		}
		return "model", need, capi.StatusOK
	}
	text, err := b.readText("test", grow)
	if err != nil || text != "model" {
		t.Fatalf("readText() = %q, %v", text, err)
	}
	if !reflect.DeepEqual(sizes, []int64{modelBufferLen, modelBufferLen + 10}) {
		t.Errorf("buffer sizes = %v", sizes)
	}

	always := func(_ capi.BoosterHandle, _, _, _ int32, bufferLen int64) (string, int64, int) {
		return "", bufferLen + 1, capi.StatusOK
	}
	expectContractViolation(t, func() { _, _ = b.readText("test", always) })

	negative := func(_ capi.BoosterHandle, _, _, _ int32, _ int64) (string, int64, int) {
		return "", -4, capi.StatusOK
	}
	_, err = b.readText("test", negative)
	var cerr *errors.ConversionError
	if !errors.As(err, &cerr) {
		t.Errorf("negative length: got %v", err)
	}
}

func TestBoosterClose(t *testing.T) {
	f := fakecapi.New()
	ds := mustDataset(t, f, binaryRows, binaryLabels)
	b, err := Train(ds, Params{"objective": "binary", "num_iterations": 2})
	if err != nil {
		t.Fatal(err)
	}

	if err := b.Close(); err != nil {
		t.Fatal(err)
	}
	if err := b.Close(); err != nil {
		t.Fatal(err)
	}
	if f.Calls("BoosterFree") != 1 || f.LiveBoosters() != 0 {
		t.Errorf("BoosterFree calls = %d, live = %d", f.Calls("BoosterFree"), f.LiveBoosters())
	}
	if _, err := b.Predict(sampleRows, PredictNormal); !errors.Is(err, errors.ErrClosed) {
		t.Errorf("Predict() after Close = %v", err)
	}
	if _, err := b.FeatureNames(); !errors.Is(err, errors.ErrClosed) {
		t.Errorf("FeatureNames() after Close = %v", err)
	}
	if err := b.SaveModel(filepath.Join(t.TempDir(), "m.txt")); !errors.Is(err, errors.ErrClosed) {
		t.Errorf("SaveModel() after Close = %v", err)
	}
}

func TestTrainLogs(t *testing.T) {
	provider, _ := log.NewTestLoggerProvider(log.LevelDebug)
	prev := log.SetProvider(provider)
	defer log.SetProvider(prev)

	f := fakecapi.New()
	b := trainBinary(t, f)

	logger := provider.Logger()
	if !logger.ContainsMessage("Training started") || !logger.ContainsMessage("Training completed") {
		t.Error("training not logged")
	}
	if !logger.ContainsField(log.EstimatorIDKey, b.ID()) {
		t.Error("records do not carry the booster ID")
	}
	if !logger.ContainsField(log.MaxIterationsKey, float64(3)) {
		t.Error("max iterations not logged")
	}
}

func TestMain(m *testing.M) {
	log.SetOutput(os.Stderr, log.LevelError)
	os.Exit(m.Run())
}

func TestParseTypes(t *testing.T) {
	modes := map[string]PredictType{
		"":           PredictNormal,
		"Normal":     PredictNormal,
		"raw":        PredictRawScore,
		"raw_score":  PredictRawScore,
		"leaf":       PredictLeafIndex,
		"leaf_index": PredictLeafIndex,
		" contrib ":  PredictContrib,
	}
	for name, want := range modes {
		got, err := ParsePredictType(name)
		if err != nil || got != want {
			t.Errorf("ParsePredictType(%q) = %v, %v, want %v", name, got, err, want)
		}
		if name != "" && name != "raw" && name != "leaf" && strings.TrimSpace(strings.ToLower(name)) != got.String() {
			t.Errorf("%q does not round trip through String (%q)", name, got.String())
		}
	}
	var verr *errors.ValidationError
	if _, err := ParsePredictType("probability"); !errors.As(err, &verr) || verr.ParamName != "mode" {
		t.Errorf("ParsePredictType(probability) error = %v, want ValidationError on mode", err)
	}

	for _, kind := range []ImportanceType{ImportanceSplit, ImportanceGain} {
		got, err := ParseImportanceType(strings.ToUpper(kind.String()))
		if err != nil || got != kind {
			t.Errorf("ParseImportanceType(%q) = %v, %v", kind.String(), got, err)
		}
	}
	if _, err := ParseImportanceType("cover"); !errors.As(err, &verr) || verr.ParamName != "type" {
		t.Errorf("ParseImportanceType(cover) error = %v, want ValidationError on type", err)
	}
}

// gcFake runs a collection inside every boosting round and records whether
// the training dataset had already been freed by then.
type gcFake struct {
	*fakecapi.Fake

	mu          sync.Mutex
	datasetFree bool
	freedEarly  bool
	rounds      int
}

func (g *gcFake) DatasetFree(h capi.DatasetHandle) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.datasetFree = true
	return g.Fake.DatasetFree(h)
}

func (g *gcFake) BoosterFree(h capi.BoosterHandle) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.Fake.BoosterFree(h)
}

func (g *gcFake) BoosterUpdateOneIter(h capi.BoosterHandle) (bool, int) {
	runtime.GC()
	time.Sleep(2 * time.Millisecond)
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rounds++
	if g.datasetFree {
		g.freedEarly = true
	}
	return g.Fake.BoosterUpdateOneIter(h)
}

// trainUnreferenced trains on a dataset that nothing but Train refers to.
func trainUnreferenced(t *testing.T, api capi.API) *Booster {
	t.Helper()
	ds, err := DatasetFromMat(binaryRows, binaryLabels, WithAPI(api))
	if err != nil {
		t.Fatalf("DatasetFromMat() error = %v", err)
	}
	b, err := Train(ds, Params{"objective": "binary", "num_iterations": 5})
	if err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	return b
}

func TestTrainKeepsDatasetAliveDuringUpdates(t *testing.T) {
	g := &gcFake{Fake: fakecapi.New()}
	b := trainUnreferenced(t, g)
	defer func() { _ = b.Close() }()

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.rounds != 4 {
		t.Errorf("update rounds = %d, want 4", g.rounds)
	}
	if g.freedEarly {
		t.Error("training dataset was finalized while boosting rounds were still running")
	}
}
