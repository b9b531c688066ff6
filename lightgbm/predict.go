package lightgbm

import (
	"fmt"
	"runtime"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/golgbm/pkg/errors"
	"github.com/YuminosukeSato/golgbm/pkg/log"
)

// Predict scores rows, which must be non-empty and rectangular.
//
// For PredictNormal and PredictRawScore the shape depends on the class
// count: with more than one class the result has one slice of class-count
// values per row; with a single class it is one slice holding one value per
// row. Callers must branch on NumClasses. PredictLeafIndex and
// PredictContrib always return one slice per row.
func (b *Booster) Predict(rows [][]float64, mode PredictType) ([][]float64, error) {
	out, nrow, width, classes, err := b.predict("Booster.Predict", rows, mode)
	if err != nil {
		return nil, err
	}
	if classes == 1 && (mode == PredictNormal || mode == PredictRawScore) {
		return [][]float64{out}, nil
	}
	return perRow(out, nrow, width), nil
}

// PredictRows is Predict with a uniform shape: one slice per row, of length
// 1 for single-class Normal and RawScore predictions.
func (b *Booster) PredictRows(rows [][]float64, mode PredictType) ([][]float64, error) {
	out, nrow, width, _, err := b.predict("Booster.PredictRows", rows, mode)
	if err != nil {
		return nil, err
	}
	return perRow(out, nrow, width), nil
}

func perRow(out []float64, nrow, width int) [][]float64 {
	result := make([][]float64, nrow)
	for i := range result {
		result[i] = out[i*width : (i+1)*width : (i+1)*width]
	}
	return result
}

// PredictMatrix scores the rows of X and returns a rows × width matrix,
// whatever the class count.
func (b *Booster) PredictMatrix(X mat.Matrix, mode PredictType) (*mat.Dense, error) {
	out, nrow, width, _, err := b.predict("Booster.PredictMatrix", matrixRows(X), mode)
	if err != nil {
		return nil, err
	}
	return mat.NewDense(nrow, width, out), nil
}

func (b *Booster) predict(op string, rows [][]float64, mode PredictType) (out []float64, nrow, width, classes int, err error) {
	defer runtime.KeepAlive(b)
	if err := b.live(op); err != nil {
		return nil, 0, 0, 0, err
	}
	if mode < PredictNormal || mode > PredictContrib {
		return nil, 0, 0, 0, errors.NewValidationError("mode", "unknown prediction type", int(mode))
	}
	flat, nrow32, ncol32, err := flatten(op, rows)
	if err != nil {
		return nil, 0, 0, 0, err
	}
	nrow = int(nrow32)

	classes, err = b.NumClasses()
	if err != nil {
		return nil, 0, 0, 0, err
	}
	width, err = b.outputWidth(op, nrow32, mode, classes)
	if err != nil {
		return nil, 0, 0, 0, err
	}

	out = make([]float64, nrow*width)
	outLen, status := b.api.BoosterPredictForMat(b.handle, flat, nrow32, ncol32, int32(mode), 0, -1, "", out)
	if err := check(b.api, op, status); err != nil {
		b.logger.Error("Prediction failed", err, log.OperationKey, log.OperationPredict)
		return nil, 0, 0, 0, err
	}
	if outLen != int64(len(out)) {
		panic(errors.NewContractViolation(op, status, fmt.Sprintf("wrote %d predictions into a buffer of %d", outLen, len(out))))
	}

	b.logger.Debug("Prediction completed",
		log.OperationKey, log.OperationPredict,
		log.PhaseKey, log.PhaseInference,
		log.SamplesKey, nrow,
		log.PredsModeKey, mode.String(),
		log.PredsKey, len(out),
	)
	return out, nrow, width, classes, nil
}

// outputWidth is the number of values produced per row.
func (b *Booster) outputWidth(op string, nrow int32, mode PredictType, classes int) (int, error) {
	defer runtime.KeepAlive(b)
	switch mode {
	case PredictNormal, PredictRawScore:
		return classes, nil
	default:
		n, status := b.api.BoosterCalcNumPredict(b.handle, nrow, int32(mode), 0, -1)
		if err := check(b.api, op, status); err != nil {
			return 0, err
		}
		total, err := toCount(op, "prediction length", n)
		if err != nil {
			return 0, err
		}
		if total%int(nrow) != 0 {
			panic(errors.NewContractViolation(op, status, fmt.Sprintf("%d predictions do not divide into %d rows", total, nrow)))
		}
		return total / int(nrow), nil
	}
}
