package lightgbm

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/YuminosukeSato/golgbm/internal/capi"
	"github.com/YuminosukeSato/golgbm/pkg/errors"
	"github.com/YuminosukeSato/golgbm/pkg/log"
)

// PredictType selects what Predict returns.
type PredictType int

const (
	PredictNormal    PredictType = capi.PredictNormal
	PredictRawScore  PredictType = capi.PredictRawScore
	PredictLeafIndex PredictType = capi.PredictLeafIndex
	PredictContrib   PredictType = capi.PredictContrib
)

func (t PredictType) String() string {
	switch t {
	case PredictNormal:
		return "normal"
	case PredictRawScore:
		return "raw_score"
	case PredictLeafIndex:
		return "leaf_index"
	case PredictContrib:
		return "contrib"
	default:
		return fmt.Sprintf("PredictType(%d)", int(t))
	}
}

// ParsePredictType accepts the names printed by String and the short forms
// "raw" and "leaf".
func ParsePredictType(name string) (PredictType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "normal":
		return PredictNormal, nil
	case "raw", "raw_score":
		return PredictRawScore, nil
	case "leaf", "leaf_index":
		return PredictLeafIndex, nil
	case "contrib":
		return PredictContrib, nil
	}
	return 0, errors.NewValidationError("mode", "expected normal, raw, leaf or contrib", name)
}

// ImportanceType selects how FeatureImportance counts.
type ImportanceType int

const (
	// ImportanceSplit counts how often a feature is used to split.
	ImportanceSplit ImportanceType = capi.ImportanceSplit
	// ImportanceGain sums the gain of the splits using a feature.
	ImportanceGain ImportanceType = capi.ImportanceGain
)

func (t ImportanceType) String() string {
	if t == ImportanceGain {
		return "gain"
	}
	return "split"
}

// ParseImportanceType accepts "split" and "gain".
func ParseImportanceType(name string) (ImportanceType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "split":
		return ImportanceSplit, nil
	case "gain":
		return ImportanceGain, nil
	}
	return 0, errors.NewValidationError("type", "expected split or gain", name)
}

// Initial buffer sizes for the two-phase string calls.
const (
	featureNameBufferLen = 32
	modelBufferLen       = 1 << 20
)

// Booster owns one native LightGBM model.
//
// A Booster comes from Train, BoosterFromFile or BoosterFromString and is
// read-only afterwards. The handle is released exactly once, by Close or by a
// finalizer. A Booster is not safe for concurrent use.
type Booster struct {
	api    capi.API
	handle capi.BoosterHandle
	id     string
	logger log.Logger

	pandasCategorical [][]any
}

func newBooster(api capi.API, h capi.BoosterHandle) *Booster {
	id := uuid.NewString()
	b := &Booster{
		api:    api,
		handle: h,
		id:     id,
		logger: log.GetLoggerWithName("lightgbm.booster").With(
			log.EstimatorIDKey, id,
			log.ModelNameKey, "Booster",
		),
	}
	runtime.SetFinalizer(b, func(b *Booster) { _ = b.Close() })
	return b
}

// Train creates a booster on ds and runs the boosting loop.
//
// Creation performs the first round, so at most num_iterations-1 update calls
// follow. The loop ends early once the library reports that no further split
// is possible. ds stays owned by the caller and may be closed afterwards.
func Train(ds *Dataset, params Params) (*Booster, error) {
	const op = "Train"
	// 学習中は ds のファイナライザを走らせない (ネイティブの booster が学習データを参照する)
	defer runtime.KeepAlive(ds)
	if err := ds.live(op); err != nil {
		return nil, err
	}
	numIterations, err := params.NumIterations()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	h, status := ds.api.BoosterCreate(ds.handle, params.String())
	if err := check(ds.api, op, status); err != nil {
		return nil, err
	}
	b := newBooster(ds.api, h)
	b.logger.Info("Training started",
		log.OperationKey, log.OperationFit,
		log.PhaseKey, log.PhaseTraining,
		log.MaxIterationsKey, numIterations,
	)

	for i := 1; i < numIterations; i++ {
		finished, status := b.api.BoosterUpdateOneIter(b.handle)
		if err := check(b.api, op, status); err != nil {
			b.logger.Error("Boosting round failed", err, log.IterationKey, i)
			_ = b.Close()
			return nil, err
		}
		if finished {
			b.logger.Debug("Training finished early", log.IterationKey, i)
			break
		}
	}

	b.logger.Info("Training completed",
		log.OperationKey, log.OperationFit,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return b, nil
}

// BoosterFromFile loads a model file written by SaveModel or by any other
// LightGBM frontend. A pandas_categorical trailer, if present, is decoded.
func BoosterFromFile(path string, opts ...Option) (*Booster, error) {
	const op = "BoosterFromFile"
	c := newOptions(opts)

	h, iterations, status := c.api.BoosterCreateFromModelfile(path)
	if err := check(c.api, op, status); err != nil {
		return nil, err
	}
	b := newBooster(c.api, h)

	text, err := os.ReadFile(path)
	if err != nil {
		_ = b.Close()
		return nil, errors.Wrapf(err, "%s: read %s", op, path)
	}
	b.pandasCategorical = parsePandasCategorical(string(text))

	b.logger.Debug("Model loaded",
		log.OperationKey, log.OperationLoad,
		log.PathKey, path,
		log.IterationKey, iterations,
	)
	return b, nil
}

// BoosterFromString loads a model from its text form.
func BoosterFromString(model string, opts ...Option) (*Booster, error) {
	const op = "BoosterFromString"
	c := newOptions(opts)

	h, iterations, status := c.api.BoosterLoadModelFromString(model)
	if err := check(c.api, op, status); err != nil {
		return nil, err
	}
	b := newBooster(c.api, h)
	b.pandasCategorical = parsePandasCategorical(model)

	b.logger.Debug("Model loaded", log.OperationKey, log.OperationLoad, log.IterationKey, iterations)
	return b, nil
}

// ID identifies this booster in log records.
func (b *Booster) ID() string { return b.id }

func (b *Booster) live(op string) error {
	if b == nil || b.handle == nil {
		return errors.Wrap(errors.ErrClosed, op)
	}
	return nil
}

func (b *Booster) count(op, quantity string, get func(capi.API, capi.BoosterHandle) (int32, int)) (int, error) {
	defer runtime.KeepAlive(b)
	if err := b.live(op); err != nil {
		return 0, err
	}
	n, status := get(b.api, b.handle)
	if err := check(b.api, op, status); err != nil {
		return 0, err
	}
	return toCount(op, quantity, int64(n))
}

// NumFeature returns the number of features the model was trained on.
func (b *Booster) NumFeature() (int, error) {
	return b.count("Booster.NumFeature", "feature count", capi.API.BoosterGetNumFeature)
}

// NumClasses returns the number of outputs per row (1 unless multiclass).
func (b *Booster) NumClasses() (int, error) {
	return b.count("Booster.NumClasses", "class count", capi.API.BoosterGetNumClasses)
}

// CurrentIteration returns the number of completed boosting rounds.
func (b *Booster) CurrentIteration() (int, error) {
	return b.count("Booster.CurrentIteration", "iteration count", capi.API.BoosterGetCurrentIteration)
}

// FeatureNames returns the model's feature names.
func (b *Booster) FeatureNames() ([]string, error) {
	const op = "Booster.FeatureNames"
	defer runtime.KeepAlive(b)
	n, err := b.NumFeature()
	if err != nil {
		return nil, err
	}

	bufferLen := featureNameBufferLen
	for attempt := 0; ; attempt++ {
		names, outLen, required, status := b.api.BoosterGetFeatureNames(b.handle, int32(n), bufferLen)
		if err := check(b.api, op, status); err != nil {
			return nil, err
		}
		if int(outLen) != n {
			panic(errors.NewContractViolation(op, status, fmt.Sprintf("reported %d feature names for %d features", outLen, n)))
		}
		if required <= bufferLen {
			return names, nil
		}
		if attempt == 1 {
			panic(errors.NewContractViolation(op, status, fmt.Sprintf("name buffer of %d bytes still too small (needs %d)", bufferLen, required)))
		}
		bufferLen = required
	}
}

// FeatureImportance returns one importance value per feature, over all
// iterations.
func (b *Booster) FeatureImportance(kind ImportanceType) ([]float64, error) {
	const op = "Booster.FeatureImportance"
	defer runtime.KeepAlive(b)
	n, err := b.NumFeature()
	if err != nil {
		return nil, err
	}
	out := make([]float64, n)
	if err := check(b.api, op, b.api.BoosterFeatureImportance(b.handle, 0, int32(kind), out)); err != nil {
		return nil, err
	}
	return out, nil
}

// PandasCategorical returns the category mapping decoded from the model
// text, or nil when the model carried none.
func (b *Booster) PandasCategorical() [][]any { return b.pandasCategorical }

// SetPandasCategorical sets the category mapping written after the model by
// SaveModel and SaveModelString.
func (b *Booster) SetPandasCategorical(categories [][]any) { b.pandasCategorical = categories }

// Close frees the native booster. Calling it again is a no-op.
func (b *Booster) Close() error {
	if b == nil || b.handle == nil {
		return nil
	}
	h := b.handle
	b.handle = nil
	runtime.SetFinalizer(b, nil)
	b.logger.Debug("Booster released", log.OperationKey, log.OperationRelease)
	return check(b.api, "Booster.Close", b.api.BoosterFree(h))
}
