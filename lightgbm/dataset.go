package lightgbm

import (
	"runtime"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/golgbm/internal/capi"
	"github.com/YuminosukeSato/golgbm/pkg/errors"
	"github.com/YuminosukeSato/golgbm/pkg/log"
)

// Dataset owns one native LightGBM dataset.
//
// The handle is released exactly once, by Close or, failing that, by a
// finalizer once the Dataset is unreachable. A Dataset is not safe for
// concurrent use.
type Dataset struct {
	api    capi.API
	handle capi.DatasetHandle
	logger log.Logger
}

type options struct {
	api          capi.API
	params       Params
	featureNames []string
}

// Option configures how a Dataset or Booster is constructed. Options that do
// not apply to a constructor are ignored by it.
type Option func(*options)

// WithDatasetParams passes dataset parameters (max_bin, categorical_feature,
// ...) to the native constructor.
func WithDatasetParams(p Params) Option {
	return func(c *options) { c.params = p }
}

// WithFeatureNames names the feature columns. The length must match the
// feature count.
func WithFeatureNames(names []string) Option {
	return func(c *options) { c.featureNames = names }
}

// WithAPI selects the native backend. The default is capi.Default().
// Training always uses the backend of its Dataset.
func WithAPI(api capi.API) Option {
	return func(c *options) { c.api = api }
}

func newOptions(opts []Option) *options {
	c := &options{}
	for _, opt := range opts {
		opt(c)
	}
	if c.api == nil {
		c.api = capi.Default()
	}
	return c
}

func newDataset(api capi.API, h capi.DatasetHandle) *Dataset {
	ds := &Dataset{
		api:    api,
		handle: h,
		logger: log.GetLoggerWithName("lightgbm.dataset"),
	}
	runtime.SetFinalizer(ds, func(ds *Dataset) { _ = ds.Close() })
	return ds
}

// flatten copies a rectangular matrix into one row-major buffer.
func flatten(op string, rows [][]float64) ([]float64, int32, int32, error) {
	if len(rows) == 0 {
		return nil, 0, 0, errors.NewDimensionErrorf(op, 0, "at least one row is required")
	}
	ncol := len(rows[0])
	if ncol == 0 {
		return nil, 0, 0, errors.NewDimensionErrorf(op, 1, "at least one feature is required")
	}
	for i, row := range rows {
		if len(row) != ncol {
			return nil, 0, 0, errors.NewDimensionErrorf(op, 1, "row %d has %d features, row 0 has %d", i, len(row), ncol)
		}
	}
	nrow32, err := toInt32(op, 0, len(rows))
	if err != nil {
		return nil, 0, 0, err
	}
	ncol32, err := toInt32(op, 1, ncol)
	if err != nil {
		return nil, 0, 0, err
	}

	flat := make([]float64, 0, len(rows)*ncol)
	for _, row := range rows {
		flat = append(flat, row...)
	}
	return flat, nrow32, ncol32, nil
}

// DatasetFromMat builds a dataset from row-major rows and one label per row.
func DatasetFromMat(rows [][]float64, labels []float32, opts ...Option) (*Dataset, error) {
	const op = "DatasetFromMat"
	flat, nrow, ncol, err := flatten(op, rows)
	if err != nil {
		return nil, err
	}
	if len(labels) != len(rows) {
		return nil, errors.NewDimensionError(op, len(rows), len(labels), 0)
	}
	return fromFlat(op, flat, nrow, ncol, labels, newOptions(opts))
}

// DatasetFromMatrix builds a dataset from a gonum matrix.
func DatasetFromMatrix(X mat.Matrix, y []float32, opts ...Option) (*Dataset, error) {
	return DatasetFromMat(matrixRows(X), y, opts...)
}

func matrixRows(X mat.Matrix) [][]float64 {
	r, c := X.Dims()
	rows := make([][]float64, r)
	if raw, ok := X.(mat.RawRowViewer); ok {
		for i := range rows {
			rows[i] = raw.RawRowView(i)
		}
		return rows
	}
	for i := range rows {
		rows[i] = make([]float64, c)
		for j := range rows[i] {
			rows[i][j] = X.At(i, j)
		}
	}
	return rows
}

func fromFlat(op string, flat []float64, nrow, ncol int32, labels []float32, c *options) (*Dataset, error) {
	if c.featureNames != nil && len(c.featureNames) != int(ncol) {
		return nil, errors.NewDimensionError(op, int(ncol), len(c.featureNames), 1)
	}

	h, status := c.api.DatasetCreateFromMat(flat, nrow, ncol, c.params.String())
	if err := check(c.api, op, status); err != nil {
		return nil, err
	}
	ds := newDataset(c.api, h)

	if err := check(c.api, op, c.api.DatasetSetFieldFloat32(h, "label", labels)); err != nil {
		_ = ds.Close()
		return nil, err
	}
	if err := ds.applyFeatureNames(op, c.featureNames); err != nil {
		_ = ds.Close()
		return nil, err
	}

	ds.logger.Debug("Dataset constructed",
		log.OperationKey, log.OperationConstruct,
		log.SamplesKey, nrow,
		log.FeaturesKey, ncol,
	)
	return ds, nil
}

func (ds *Dataset) applyFeatureNames(op string, names []string) error {
	defer runtime.KeepAlive(ds)
	if names == nil {
		return nil
	}
	return check(ds.api, op, ds.api.DatasetSetFeatureNames(ds.handle, names))
}

// DatasetFromFile builds a dataset from a LightGBM training file: one row per
// line, label first, no header. The path is handed to the library unchecked.
func DatasetFromFile(path string, opts ...Option) (*Dataset, error) {
	const op = "DatasetFromFile"
	c := newOptions(opts)

	h, status := c.api.DatasetCreateFromFile(path, c.params.String())
	if err := check(c.api, op, status); err != nil {
		return nil, err
	}
	ds := newDataset(c.api, h)

	if c.featureNames != nil {
		n, err := ds.NumFeature()
		if err == nil && n != len(c.featureNames) {
			err = errors.NewDimensionError(op, n, len(c.featureNames), 1)
		}
		if err == nil {
			err = ds.applyFeatureNames(op, c.featureNames)
		}
		if err != nil {
			_ = ds.Close()
			return nil, err
		}
	}

	ds.logger.Debug("Dataset loaded", log.OperationKey, log.OperationLoad, log.PathKey, path)
	return ds, nil
}

func (ds *Dataset) live(op string) error {
	if ds == nil || ds.handle == nil {
		return errors.Wrap(errors.ErrClosed, op)
	}
	return nil
}

// SetWeights attaches one weight per row. A length mismatch is rejected
// without touching the native dataset.
func (ds *Dataset) SetWeights(weights []float32) error {
	const op = "Dataset.SetWeights"
	defer runtime.KeepAlive(ds)
	if err := ds.checkRowLength(op, len(weights)); err != nil {
		return err
	}
	return check(ds.api, op, ds.api.DatasetSetFieldFloat32(ds.handle, "weight", weights))
}

// SetInitScore attaches one initial raw score per row.
func (ds *Dataset) SetInitScore(scores []float64) error {
	const op = "Dataset.SetInitScore"
	defer runtime.KeepAlive(ds)
	if err := ds.checkRowLength(op, len(scores)); err != nil {
		return err
	}
	return check(ds.api, op, ds.api.DatasetSetFieldFloat64(ds.handle, "init_score", scores))
}

func (ds *Dataset) checkRowLength(op string, got int) error {
	if err := ds.live(op); err != nil {
		return err
	}
	n, err := ds.NumData()
	if err != nil {
		return err
	}
	if got != n {
		return errors.NewDimensionError(op, n, got, 0)
	}
	return nil
}

// NumData returns the number of rows.
func (ds *Dataset) NumData() (int, error) {
	const op = "Dataset.NumData"
	defer runtime.KeepAlive(ds)
	if err := ds.live(op); err != nil {
		return 0, err
	}
	n, status := ds.api.DatasetGetNumData(ds.handle)
	if err := check(ds.api, op, status); err != nil {
		return 0, err
	}
	return toCount(op, "row count", int64(n))
}

// NumFeature returns the number of feature columns.
func (ds *Dataset) NumFeature() (int, error) {
	const op = "Dataset.NumFeature"
	defer runtime.KeepAlive(ds)
	if err := ds.live(op); err != nil {
		return 0, err
	}
	n, status := ds.api.DatasetGetNumFeature(ds.handle)
	if err := check(ds.api, op, status); err != nil {
		return 0, err
	}
	return toCount(op, "feature count", int64(n))
}

// Close frees the native dataset. Calling it again is a no-op.
func (ds *Dataset) Close() error {
	if ds == nil || ds.handle == nil {
		return nil
	}
	h := ds.handle
	ds.handle = nil
	runtime.SetFinalizer(ds, nil)
	return check(ds.api, "Dataset.Close", ds.api.DatasetFree(h))
}
