package lightgbm

import (
	"math"

	"github.com/YuminosukeSato/golgbm/internal/capi"
	"github.com/YuminosukeSato/golgbm/pkg/errors"
)

// check maps a native status code to an error.
//
// The last-error message is copied before returning so that no other native
// call can overwrite it first. A status outside {0, -1} means the library
// broke its own contract and check panics with *errors.ContractViolation.
func check(api capi.API, op string, status int) error {
	switch status {
	case capi.StatusOK:
		return nil
	case capi.StatusFail:
		return errors.NewNativeError(op, status, api.LastError())
	default:
		panic(errors.NewContractViolation(op, status, ""))
	}
}

// toCount converts a count reported by the library into an int.
func toCount(op, quantity string, n int64) (int, error) {
	if n < 0 {
		return 0, errors.NewConversionError(op, quantity, n)
	}
	return int(n), nil
}

// toInt32 checks a local size before it is passed as a 32-bit native index.
func toInt32(op string, axis, n int) (int32, error) {
	if n > math.MaxInt32 {
		return 0, errors.NewDimensionErrorf(op, axis, "%d exceeds the native 32-bit index limit", n)
	}
	return int32(n), nil
}
