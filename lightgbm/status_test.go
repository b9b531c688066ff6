package lightgbm

import (
	"math"
	"strconv"
	"testing"

	"github.com/YuminosukeSato/golgbm/internal/capi/fakecapi"
	"github.com/YuminosukeSato/golgbm/pkg/errors"
)

func TestCheck(t *testing.T) {
	f := fakecapi.New()

	if err := check(f, "op", 0); err != nil {
		t.Errorf("check(0) = %v, want nil", err)
	}
	if got := f.Calls("GetLastError"); got != 0 {
		t.Errorf("success fetched the last error %d times", got)
	}

	f.SetLastError("Check failed: num_data > 0")
	err := check(f, "DatasetFromMat", -1)
	nerr := asNativeError(t, err)
	if nerr.Message != "Check failed: num_data > 0" || nerr.Op != "DatasetFromMat" || nerr.Status != -1 {
		t.Errorf("unexpected NativeError %+v", nerr)
	}

	// 後続の呼び出しでメッセージが上書きされても取得済みの値は変わらない
	f.SetLastError("something else")
	if nerr.Message != "Check failed: num_data > 0" {
		t.Errorf("message changed after the fact: %q", nerr.Message)
	}
}

func TestCheckContractViolation(t *testing.T) {
	for _, status := range []int{1, 2, -2, 42} {
		t.Run(strconv.Itoa(status), func(t *testing.T) {
			f := fakecapi.New()
			cv := expectContractViolation(t, func() { _ = check(f, "Booster.Predict", status) })
			if cv.Status != status || cv.Op != "Booster.Predict" {
				t.Errorf("unexpected violation %+v", cv)
			}
			if f.Calls("GetLastError") != 0 {
				t.Error("contract violation should not consult the last error")
			}
		})
	}
}

func TestToCount(t *testing.T) {
	n, err := toCount("op", "row count", 7)
	if err != nil || n != 7 {
		t.Fatalf("toCount(7) = %d, %v", n, err)
	}

	_, err = toCount("Dataset.NumData", "row count", -1)
	var cerr *errors.ConversionError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected ConversionError, got %v", err)
	}
	if cerr.Value != -1 || cerr.Quantity != "row count" {
		t.Errorf("unexpected ConversionError %+v", cerr)
	}
}

func TestToInt32(t *testing.T) {
	if strconv.IntSize < 64 {
		t.Skip("needs 64-bit int")
	}
	if n, err := toInt32("op", 0, math.MaxInt32); err != nil || n != math.MaxInt32 {
		t.Errorf("toInt32(MaxInt32) = %d, %v", n, err)
	}
	big := math.MaxInt32
	big++
	derr := asDimensionError(t, func() error { _, err := toInt32("op", 1, big); return err }())
	if derr.Axis != 1 {
		t.Errorf("Axis = %d, want 1", derr.Axis)
	}
}
