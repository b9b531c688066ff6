package lightgbm

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/YuminosukeSato/golgbm/internal/capi"
	"github.com/YuminosukeSato/golgbm/pkg/errors"
	"github.com/YuminosukeSato/golgbm/pkg/log"
)

const pandasMarker = "pandas_categorical:"

// parsePandasCategorical decodes the category mapping that pandas-aware
// frontends append to model text. Only the last marker counts and only the
// rest of its line is read. A missing marker, "null" or an undecodable value
// all yield nil.
func parsePandasCategorical(text string) [][]any {
	idx := strings.LastIndex(text, pandasMarker)
	if idx < 0 {
		return nil
	}
	tail := text[idx+len(pandasMarker):]
	if nl := strings.IndexByte(tail, '\n'); nl >= 0 {
		tail = tail[:nl]
	}

	var categories [][]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(tail)), &categories); err != nil {
		return nil
	}
	return categories
}

// pandasTrailer renders the trailer appended after the model text.
func (b *Booster) pandasTrailer() (string, error) {
	if b.pandasCategorical == nil {
		return "", nil
	}
	raw, err := json.Marshal(b.pandasCategorical)
	if err != nil {
		return "", errors.Wrap(err, "encode pandas_categorical")
	}
	return "\n" + pandasMarker + string(raw) + "\n", nil
}

// SaveModel writes the model, all iterations, to path.
func (b *Booster) SaveModel(path string) error {
	const op = "Booster.SaveModel"
	defer runtime.KeepAlive(b)
	if err := b.live(op); err != nil {
		return err
	}
	trailer, err := b.pandasTrailer()
	if err != nil {
		return err
	}
	if err := check(b.api, op, b.api.BoosterSaveModel(b.handle, 0, -1, capi.ImportanceSplit, path)); err != nil {
		return err
	}

	if trailer != "" {
		f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0)
		if err != nil {
			return errors.Wrapf(err, "%s: open %s", op, path)
		}
		if _, err := f.WriteString(trailer); err != nil {
			_ = f.Close()
			return errors.Wrapf(err, "%s: append to %s", op, path)
		}
		if err := f.Close(); err != nil {
			return errors.Wrapf(err, "%s: close %s", op, path)
		}
	}

	b.logger.Info("Model saved", log.OperationKey, log.OperationSave, log.PathKey, path)
	return nil
}

type textCall func(h capi.BoosterHandle, startIteration, numIteration, importanceType int32, bufferLen int64) (string, int64, int)

// readText runs a two-phase string call: a first attempt with a default
// buffer, and one retry with the size the library asked for.
func (b *Booster) readText(op string, call textCall) (string, error) {
	defer runtime.KeepAlive(b)
	if err := b.live(op); err != nil {
		return "", err
	}
	bufferLen := int64(modelBufferLen)
	for attempt := 0; ; attempt++ {
		text, need, status := call(b.handle, 0, -1, capi.ImportanceSplit, bufferLen)
		if err := check(b.api, op, status); err != nil {
			return "", err
		}
		if _, err := toCount(op, "text length", need); err != nil {
			return "", err
		}
		if need <= bufferLen {
			return text, nil
		}
		if attempt == 1 {
			panic(errors.NewContractViolation(op, status, fmt.Sprintf("text buffer of %d bytes still too small (needs %d)", bufferLen, need)))
		}
		bufferLen = need
	}
}

// SaveModelString returns the model text, including the pandas_categorical
// trailer when category metadata is set.
func (b *Booster) SaveModelString() (string, error) {
	const op = "Booster.SaveModelString"
	if err := b.live(op); err != nil {
		return "", err
	}
	text, err := b.readText(op, b.api.BoosterSaveModelToString)
	if err != nil {
		return "", err
	}
	trailer, err := b.pandasTrailer()
	if err != nil {
		return "", err
	}
	return text + trailer, nil
}

// DumpModel returns the model as JSON.
func (b *Booster) DumpModel() (string, error) {
	const op = "Booster.DumpModel"
	if err := b.live(op); err != nil {
		return "", err
	}
	return b.readText(op, b.api.BoosterDumpModel)
}
