//go:build !(cgo && lightgbm)

package lightgbm

import (
	"strings"
	"testing"

	"github.com/YuminosukeSato/golgbm/pkg/errors"
)

func TestDefaultBackendWithoutLibrary(t *testing.T) {
	_, err := DatasetFromMat(binaryRows, binaryLabels)

	var nerr *errors.NativeError
	if !errors.As(err, &nerr) {
		t.Fatalf("DatasetFromMat() error = %v, want *errors.NativeError", err)
	}
	if nerr.Op != "DatasetFromMat" {
		t.Errorf("Op = %q, want DatasetFromMat", nerr.Op)
	}
	if !strings.Contains(nerr.Message, "-tags lightgbm") {
		t.Errorf("Message = %q, want a rebuild hint", nerr.Message)
	}

	if _, err := BoosterFromString("tree\n"); !errors.As(err, &nerr) {
		t.Errorf("BoosterFromString() error = %v, want *errors.NativeError", err)
	}
}
