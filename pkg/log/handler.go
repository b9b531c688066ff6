package log

import (
	"github.com/cockroachdb/errors"
)

const (
	ErrAttrKey        = "error"
	StacktraceAttrKey = "stacktrace"
)

// extractStacktrace pulls the stack recorded by errors.WithStack out of err.
// It is installed as zerolog's ErrorStackMarshaler.
func extractStacktrace(err error) interface{} {
	safeDetails := errors.GetSafeDetails(err).SafeDetails
	if len(safeDetails) > 0 {
		return safeDetails[0]
	}
	return nil
}
