package lightgbm

import (
	"github.com/YuminosukeSato/golgbm/pkg/errors"
)

// Column is one named column of a Frame. Valid marks non-null entries; a nil
// Valid means every entry is present.
type Column struct {
	Name   string
	Values []float64
	Valid  []bool
}

// Frame is a column-oriented table, typically produced by a data-frame
// library and handed over column by column.
type Frame struct {
	Columns []Column
}

// Column returns the column called name.
func (f Frame) Column(name string) (Column, bool) {
	for _, c := range f.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// DatasetFromFrame builds a dataset from f. The label column is converted to
// float32 and every other column becomes a feature, in order, named after the
// column. Any null value is rejected before the library is called.
func DatasetFromFrame(f Frame, label string, opts ...Option) (*Dataset, error) {
	const op = "DatasetFromFrame"

	labelCol, ok := f.Column(label)
	if !ok {
		return nil, errors.NewValidationError("label", "column not found", label)
	}
	n := len(labelCol.Values)

	var features []Column
	for _, c := range f.Columns {
		if len(c.Values) != n {
			return nil, errors.NewDimensionErrorf(op, 0, "column %q has %d rows, label has %d", c.Name, len(c.Values), n)
		}
		if c.Valid != nil && len(c.Valid) != n {
			return nil, errors.NewDimensionErrorf(op, 0, "column %q has %d validity flags for %d rows", c.Name, len(c.Valid), n)
		}
		for i, valid := range c.Valid {
			if !valid {
				return nil, errors.NewValidationError(c.Name, "null values are not supported", i)
			}
		}
		if c.Name != label {
			features = append(features, c)
		}
	}
	if len(features) == 0 {
		return nil, errors.NewDimensionErrorf(op, 1, "at least one feature column is required")
	}

	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = make([]float64, len(features))
		for j, c := range features {
			rows[i][j] = c.Values[i]
		}
	}
	labels := make([]float32, n)
	for i, v := range labelCol.Values {
		labels[i] = float32(v)
	}
	names := make([]string, len(features))
	for j, c := range features {
		names[j] = c.Name
	}

	opts = append([]Option{WithFeatureNames(names)}, opts...)
	return DatasetFromMat(rows, labels, opts...)
}
