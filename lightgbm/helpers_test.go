package lightgbm

import (
	"testing"

	"github.com/YuminosukeSato/golgbm/internal/capi/fakecapi"
	"github.com/YuminosukeSato/golgbm/pkg/errors"
)

// 5 行 4 特徴量、ラベル [0,0,0,1,1] の二値分類データ
var (
	binaryRows = [][]float64{
		{0.1, 0.2, 0.3, 0.4},
		{0.0, 0.1, 0.0, 0.1},
		{0.2, 0.1, 0.2, 0.3},
		{0.9, 0.8, 0.7, 0.9},
		{1.0, 0.9, 0.8, 1.0},
	}
	binaryLabels = []float32{0, 0, 0, 1, 1}
	sampleRows   = [][]float64{
		{0.5, 0.5, 0.5, 0.5},
		{0.0, 0.0, 0.0, 0.0},
		{0.9, 0.9, 0.9, 0.9},
	}
)

func mustDataset(t *testing.T, f *fakecapi.Fake, rows [][]float64, labels []float32, opts ...Option) *Dataset {
	t.Helper()
	ds, err := DatasetFromMat(rows, labels, append([]Option{WithAPI(f)}, opts...)...)
	if err != nil {
		t.Fatalf("DatasetFromMat() error = %v", err)
	}
	t.Cleanup(func() { _ = ds.Close() })
	return ds
}

func mustTrain(t *testing.T, ds *Dataset, params Params) *Booster {
	t.Helper()
	b, err := Train(ds, params)
	if err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func trainBinary(t *testing.T, f *fakecapi.Fake) *Booster {
	t.Helper()
	ds := mustDataset(t, f, binaryRows, binaryLabels)
	return mustTrain(t, ds, Params{"objective": "binary", "num_iterations": 3})
}

func expectContractViolation(t *testing.T, fn func()) *errors.ContractViolation {
	t.Helper()
	var got *errors.ContractViolation
	func() {
		defer func() {
			r := recover()
			cv, ok := r.(*errors.ContractViolation)
			if !ok {
				t.Fatalf("expected *errors.ContractViolation panic, got %v", r)
			}
			got = cv
		}()
		fn()
	}()
	return got
}

func asNativeError(t *testing.T, err error) *errors.NativeError {
	t.Helper()
	var nerr *errors.NativeError
	if !errors.As(err, &nerr) {
		t.Fatalf("expected *errors.NativeError, got %T: %v", err, err)
	}
	return nerr
}

func asDimensionError(t *testing.T, err error) *errors.DimensionError {
	t.Helper()
	var derr *errors.DimensionError
	if !errors.As(err, &derr) {
		t.Fatalf("expected *errors.DimensionError, got %T: %v", err, err)
	}
	return derr
}
