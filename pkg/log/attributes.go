// Standard attribute keys for golgbm log records.
//
// Keys follow a dotted naming convention ("model.name", "data.samples") so
// records can be filtered the same way regardless of which package logged them.

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the kind of model ("Booster", "LGBMClassifier").
	ModelNameKey = "model.name"

	// EstimatorIDKey identifies one model instance; boosters use a UUID.
	EstimatorIDKey = "estimator.id"

	// OperationKey names the operation being performed.
	OperationKey = "ml.operation"

	// ComponentKey identifies the package doing the logging.
	ComponentKey = "ml.component"

	// PhaseKey indicates the lifecycle phase.
	PhaseKey = "ml.phase"
)

// Data Shape
const (
	SamplesKey  = "data.samples"
	FeaturesKey = "data.features"
	ClassesKey  = "data.classes"
	PathKey     = "data.path"
)

// Training progress
const (
	// IterationKey records the boosting round.
	IterationKey = "training.iteration"

	// MaxIterationsKey records the configured num_iterations.
	MaxIterationsKey = "training.max_iterations"

	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"
)

// Prediction Context
const (
	PredsKey     = "preds.count"
	PredsModeKey = "preds.mode"
)

// Serving
const (
	RequestIDKey = "http.request_id"
	RouteKey     = "http.route"
	StatusKey    = "http.status"
	AddrKey      = "http.addr"
)

// Error Context
const (
	ErrorCodeKey   = "error.code"
	ErrorTypeKey   = "error.type"
	StacktraceKey  = "error.stacktrace"
	SuggestionKey  = "error.suggestion"
	HyperParamsKey = "model.hyperparams"
)

// Standard attribute values.
const (
	OperationFit       = "fit"
	OperationPredict   = "predict"
	OperationLoad      = "load"
	OperationSave      = "save"
	OperationConstruct = "construct"
	OperationRelease   = "release"

	PhaseTraining  = "training"
	PhaseInference = "inference"

	ErrorNative            = "NATIVE_FAILURE"
	ErrorDimensionMismatch = "DIMENSION_MISMATCH"
	ErrorEmptyData         = "EMPTY_DATA"
	ErrorInvalidInput      = "INVALID_INPUT"
)
